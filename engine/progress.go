package engine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// progressWatcher reports the step git is on by watching the rebase-merge
// directory's msgnum counter.
type progressWatcher struct {
	watcher  *fsnotify.Watcher
	mergeDir string
	report   func(step, total int)
	log      *logrus.Entry

	mu       sync.Mutex
	lastStep int

	done chan struct{}
}

// watchProgress starts watching gitDir. The rebase-merge directory does not
// exist yet when the watcher starts, so the git dir itself is watched and
// the subdirectory is added once git creates it.
func watchProgress(
	gitDir string, log *logrus.Entry, report func(step, total int),
) (*progressWatcher, error) {

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	if err := w.Add(gitDir); err != nil {
		err := errors.Join(err, w.Close())
		return nil, fmt.Errorf("watch %s: %w", gitDir, err)
	}

	p := &progressWatcher{
		watcher:  w,
		mergeDir: filepath.Join(gitDir, "rebase-merge"),
		report:   report,
		log:      log,
		done:     make(chan struct{}),
	}
	go p.loop()

	return p, nil
}

func (p *progressWatcher) loop() {
	defer close(p.done)

	for {
		select {
		case ev, ok := <-p.watcher.Events:
			if !ok {
				return
			}
			p.handle(ev)

		case err, ok := <-p.watcher.Errors:
			if !ok {
				return
			}
			p.log.Debugf("Progress watcher error: %v", err)
		}
	}
}

func (p *progressWatcher) handle(ev fsnotify.Event) {
	if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return
	}

	switch {
	case ev.Name == p.mergeDir && ev.Has(fsnotify.Create):
		if err := p.watcher.Add(p.mergeDir); err != nil {
			p.log.Debugf("Unable to watch %s: %v", p.mergeDir, err)
			return
		}

		// msgnum may already have been written before the add.
		p.poll()

	case filepath.Dir(ev.Name) == p.mergeDir &&
		(filepath.Base(ev.Name) == "msgnum" ||
			filepath.Base(ev.Name) == "end"):

		p.poll()
	}
}

// poll reads the counters and reports a step that has not been reported.
func (p *progressWatcher) poll() {
	step := readCounter(filepath.Join(p.mergeDir, "msgnum"))
	total := readCounter(filepath.Join(p.mergeDir, "end"))
	if step <= 0 || total <= 0 || step > total {
		return
	}

	p.mu.Lock()
	if step <= p.lastStep {
		p.mu.Unlock()
		return
	}
	p.lastStep = step
	p.mu.Unlock()

	p.report(step, total)
}

// Close stops the watcher and waits for the event loop to exit, so no
// report happens after Close returns.
func (p *progressWatcher) Close() error {
	err := p.watcher.Close()
	<-p.done

	return err
}

func readCounter(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0
	}

	return n
}
