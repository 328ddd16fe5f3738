package rebase

import (
	"fmt"
	"slices"
	"testing"

	"pgregory.net/rapid"
)

var allOps = []Op{OpPick, OpReword, OpEdit, OpSquash, OpFixup, OpDrop}

// drawPlan draws a valid plan over n commits by applying random edits and
// keeping only those the plan accepts.
func drawPlan(t *rapid.T) Plan {
	n := rapid.IntRange(1, 12).Draw(t, "n")
	subjects := make([]string, n)
	for i := range subjects {
		subjects[i] = string(rune('A' + i))
	}
	p := NewPlan(linearRange(subjects...))

	edits := rapid.IntRange(0, 20).Draw(t, "edits")
	for e := 0; e < edits; e++ {
		var (
			next Plan
			err  error
		)
		switch rapid.IntRange(0, 2).Draw(t, "kind") {
		case 0:
			from := rapid.IntRange(0, n-1).Draw(t, "from")
			to := rapid.IntRange(0, n-1).Draw(t, "to")
			next, err = p.Reorder(from, to)

		case 1:
			i := rapid.IntRange(0, n-1).Draw(t, "i")
			op := rapid.SampledFrom(allOps).Draw(t, "op")
			next, err = p.SetOperation(i, op)

		case 2:
			i := rapid.IntRange(0, n-1).Draw(t, "i")
			msg := rapid.StringMatching(`[a-z ]{0,12}`).Draw(t, "msg")
			next, err = p.SetMessage(i, msg)
		}
		if err != nil {
			continue
		}
		if next.Validate() == nil {
			p = next
		}
	}

	return p
}

// TestReorderBijectionProperty verifies that reordering only permutes
// commits.
func TestReorderBijectionProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 15).Draw(t, "n")
		subjects := make([]string, n)
		for i := range subjects {
			subjects[i] = string(rune('a' + i))
		}
		p := NewPlan(linearRange(subjects...))

		want := make([]string, 0, n)
		for _, c := range p.Commits() {
			want = append(want, c.Sha)
		}
		slices.Sort(want)

		moves := rapid.IntRange(0, 30).Draw(t, "moves")
		for m := 0; m < moves; m++ {
			from := rapid.IntRange(0, n-1).Draw(t, "from")
			to := rapid.IntRange(0, n-1).Draw(t, "to")

			next, err := p.Reorder(from, to)
			if err != nil {
				t.Fatalf("reorder(%d, %d): %v", from, to, err)
			}

			// Property: the moved commit lands at the target index.
			if next.steps[to].Commit.Sha != p.steps[from].Commit.Sha {
				t.Fatalf("commit from %d did not land at %d", from, to)
			}
			p = next
		}

		got := make([]string, 0, n)
		for _, c := range p.Commits() {
			got = append(got, c.Sha)
		}
		slices.Sort(got)

		// Property: same multiset of commits, same length.
		if !slices.Equal(want, got) {
			t.Fatalf("commits changed: want %v, got %v", want, got)
		}
	})
}

// TestCompileDeterminismProperty verifies that compiling the same plan
// twice gives byte-identical output with one line per step.
func TestCompileDeterminismProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		p := drawPlan(t)

		first, err := Compile(p)
		if err != nil {
			t.Fatalf("compile: %v", err)
		}
		second, err := Compile(p)
		if err != nil {
			t.Fatalf("compile: %v", err)
		}

		if first.Text != second.Text {
			t.Fatalf("non-deterministic todo:\n%s\nvs\n%s",
				first.Text, second.Text)
		}
		if !messagesEqual(first, second) {
			t.Fatalf("non-deterministic messages")
		}

		// Property: line count parity with the plan.
		if len(first.Lines) != p.Len() {
			t.Fatalf("want %d lines, got %d", p.Len(), len(first.Lines))
		}
		if len(ParseTodoFile(first.Text)) != p.Len() {
			t.Fatalf("todo text does not parse back to %d lines", p.Len())
		}

		for i, s := range p.Steps() {
			line := first.Lines[i]
			if line.Sha != s.Commit.Sha || line.Step != i {
				t.Fatalf("line %d does not match step", i)
			}

			// Property: only the message-editor placement may change an
			// op, and only towards pick or squash.
			if line.Op != s.Op && line.Op != OpPick && line.Op != OpSquash {
				t.Fatalf("step %d: op %s compiled to %s", i, s.Op, line.Op)
			}
		}

		// Property: every delivered message sits on a line where git
		// opens the editor.
		for i := range first.Messages() {
			op := first.Lines[i].Op
			if op != OpReword && op != OpSquash {
				t.Fatalf("message at step %d on %s line", i, op)
			}
		}
	})
}

// TestCompileAllPicksProperty verifies that an unedited plan compiles to
// one pick per commit in order.
func TestCompileAllPicksProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 15).Draw(t, "n")
		subjects := make([]string, n)
		for i := range subjects {
			subjects[i] = rapid.StringMatching(`[A-Za-z]{1,10}`).Draw(
				t, "subject",
			)
		}
		rng := linearRange(subjects...)

		todo, err := Compile(NewPlan(rng))
		if err != nil {
			t.Fatalf("compile: %v", err)
		}

		entries := ParseTodoFile(todo.Text)
		if len(entries) != n {
			t.Fatalf("want %d entries, got %d", n, len(entries))
		}
		for i, e := range entries {
			if e.Op != OpPick || e.Commit != rng.Commits[i].ShortSha {
				t.Fatalf("entry %d: %+v", i, e)
			}
		}
	})
}

func messagesEqual(a, b *Todo) bool {
	var am, bm []string
	for i, m := range a.Messages() {
		am = append(am, fmt.Sprintf("%d:%s", i, m))
	}
	for i, m := range b.Messages() {
		bm = append(bm, fmt.Sprintf("%d:%s", i, m))
	}

	return slices.Equal(am, bm)
}
