package rebase

import (
	"fmt"
	"iter"
	"slices"
	"strings"

	"github.com/roasbeef/histedit/history"
)

// Step is one entry of a plan: what to do with one commit.
type Step struct {
	// Op is the operation applied to the commit.
	Op Op

	// Commit is the commit the step replays.
	Commit history.Commit

	// NewMessage overrides the commit message. Empty means keep the
	// original.
	NewMessage string
}

// Plan is an ordered list of steps, one per commit of a range. Plans are
// values: every edit returns a new Plan and leaves the receiver untouched,
// so a snapshot handed to the compiler can never change underneath it.
type Plan struct {
	steps []Step

	// original is the range's commit order, used to find the prefix a
	// rebase does not need to replay.
	original []string

	head     string
	upstream string
	root     bool
}

// NewPlan creates a plan that picks every commit of the range in order.
func NewPlan(rng *history.Range) Plan {
	p := Plan{
		steps:    make([]Step, len(rng.Commits)),
		original: make([]string, len(rng.Commits)),
		head:     rng.Head,
		upstream: rng.Upstream,
		root:     rng.Root,
	}
	for i, c := range rng.Commits {
		p.steps[i] = Step{Op: OpPick, Commit: c}
		p.original[i] = c.Sha
	}

	return p
}

// Len returns the number of steps.
func (p Plan) Len() int {
	return len(p.steps)
}

// Head returns the sha HEAD pointed at when the range was read.
func (p Plan) Head() string {
	return p.head
}

// Upstream returns the parent of the range's oldest commit, or "" when the
// range starts at a root commit.
func (p Plan) Upstream() string {
	return p.upstream
}

// Root reports whether the range starts at a root commit.
func (p Plan) Root() bool {
	return p.root
}

// Step returns the step at index i.
func (p Plan) Step(i int) (Step, error) {
	if err := p.checkIndex(i); err != nil {
		return Step{}, err
	}

	return p.steps[i], nil
}

// Steps iterates over the steps in execution order.
func (p Plan) Steps() iter.Seq2[int, Step] {
	return func(yield func(int, Step) bool) {
		for i, s := range p.steps {
			if !yield(i, s) {
				return
			}
		}
	}
}

// Index returns the position of the step whose commit sha starts with
// prefix, or -1 if none or several match.
func (p Plan) Index(prefix string) int {
	if prefix == "" {
		return -1
	}

	prefix = strings.ToLower(prefix)
	found := -1
	for i, s := range p.steps {
		if !strings.HasPrefix(s.Commit.Sha, prefix) {
			continue
		}
		if found >= 0 {
			return -1
		}
		found = i
	}

	return found
}

func (p Plan) checkIndex(i int) error {
	if i < 0 || i >= len(p.steps) {
		return &IndexOutOfRangeError{Index: i, Len: len(p.steps)}
	}

	return nil
}

// clone returns a copy whose step slice can be mutated freely.
func (p Plan) clone() Plan {
	p.steps = slices.Clone(p.steps)

	return p
}

// Reorder moves the step at from so that it ends up at index to. The steps
// in between shift by one. Reordering can leave a squash or fixup without a
// retained predecessor; Validate reports that.
func (p Plan) Reorder(from, to int) (Plan, error) {
	if err := p.checkIndex(from); err != nil {
		return p, err
	}
	if err := p.checkIndex(to); err != nil {
		return p, err
	}

	next := p.clone()
	step := next.steps[from]
	next.steps = slices.Delete(next.steps, from, from+1)
	next.steps = slices.Insert(next.steps, to, step)

	return next, nil
}

// SetOperation changes the op of step i. Squash and fixup need a retained
// step directly before them. Switching to pick, or to an op that takes no
// message, discards any message override.
func (p Plan) SetOperation(i int, op Op) (Plan, error) {
	if err := p.checkIndex(i); err != nil {
		return p, err
	}
	if !op.Valid() {
		return p, &InvalidStepError{
			Index: i, Reason: fmt.Sprintf("unknown operation %q", op),
		}
	}
	if op.Melds() {
		if err := p.checkPredecessor(i, op); err != nil {
			return p, err
		}
	}

	next := p.clone()
	next.steps[i].Op = op
	if op == OpPick || !op.AcceptsMessage() {
		next.steps[i].NewMessage = ""
	}

	return next, nil
}

// SetMessage sets the message override of step i. Setting a message on a
// pick turns it into a reword. An empty text clears the override.
func (p Plan) SetMessage(i int, text string) (Plan, error) {
	if err := p.checkIndex(i); err != nil {
		return p, err
	}

	step := p.steps[i]
	if !step.Op.AcceptsMessage() {
		return p, &InvalidStepError{
			Index:  i,
			Reason: fmt.Sprintf("%s steps do not take a message", step.Op),
		}
	}

	text = strings.TrimRight(text, " \t\r\n")

	next := p.clone()
	next.steps[i].NewMessage = text
	if text != "" && step.Op == OpPick {
		next.steps[i].Op = OpReword
	}

	return next, nil
}

func (p Plan) checkPredecessor(i int, op Op) error {
	if i == 0 || !p.steps[i-1].Op.Retained() {
		return &NoPredecessorError{Index: i, Op: op}
	}

	return nil
}

// Validate checks the whole plan. Individual edits only check the step they
// touch, so a reorder or a later drop can still leave a squash stranded.
func (p Plan) Validate() error {
	for i, s := range p.steps {
		if !s.Op.Valid() {
			return &InvalidStepError{
				Index:  i,
				Reason: fmt.Sprintf("unknown operation %q", s.Op),
			}
		}
		if s.Op.Melds() {
			if err := p.checkPredecessor(i, s.Op); err != nil {
				return err
			}
		}
		if s.NewMessage != "" && !s.Op.AcceptsMessage() {
			return &InvalidStepError{
				Index:  i,
				Reason: fmt.Sprintf("%s steps do not take a message", s.Op),
			}
		}
	}

	return nil
}

// UnchangedPrefix returns how many leading steps would reproduce the
// original history exactly. Those commits need not be replayed.
func (p Plan) UnchangedPrefix() int {
	n := 0
	for n < len(p.steps) {
		s := p.steps[n]
		if s.Op != OpPick || s.NewMessage != "" ||
			s.Commit.Sha != p.original[n] {

			break
		}
		n++
	}

	// A squash or fixup right after the prefix rewrites its last commit.
	if n > 0 && n < len(p.steps) && p.steps[n].Op.Melds() {
		n--
	}

	return n
}

// Commits returns the plan's commits in step order.
func (p Plan) Commits() []history.Commit {
	out := make([]history.Commit, len(p.steps))
	for i, s := range p.steps {
		out[i] = s.Commit
	}

	return out
}
