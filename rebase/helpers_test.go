package rebase

import (
	"fmt"
	"strings"

	"github.com/roasbeef/histedit/history"
)

// fakeSha builds a deterministic 40 character sha for commit n.
func fakeSha(n int) string {
	return strings.Repeat(fmt.Sprintf("%x", n%16), 8) +
		fmt.Sprintf("%032x", n)
}

// linearRange builds an in-memory range with one commit per subject.
func linearRange(subjects ...string) *history.Range {
	rng := &history.Range{Upstream: fakeSha(999)}

	parent := rng.Upstream
	for i, subject := range subjects {
		sha := fakeSha(i + 1)
		rng.Commits = append(rng.Commits, history.Commit{
			Sha:        sha,
			ShortSha:   sha[:7],
			ParentShas: []string{parent},
			Subject:    subject,
			Body:       "body of " + subject,
		})
		parent = sha
	}
	rng.Boundary = rng.Commits[0].Sha
	rng.Head = parent

	return rng
}

// mustPlan applies edits in order, panicking on the first error.
func mustPlan(p Plan, edits ...func(Plan) (Plan, error)) Plan {
	for _, edit := range edits {
		var err error
		p, err = edit(p)
		if err != nil {
			panic(err)
		}
	}

	return p
}

func setOp(i int, op Op) func(Plan) (Plan, error) {
	return func(p Plan) (Plan, error) { return p.SetOperation(i, op) }
}

func setMsg(i int, msg string) func(Plan) (Plan, error) {
	return func(p Plan) (Plan, error) { return p.SetMessage(i, msg) }
}

func reorder(from, to int) func(Plan) (Plan, error) {
	return func(p Plan) (Plan, error) { return p.Reorder(from, to) }
}
