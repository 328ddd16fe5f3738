package rebase

import (
	"fmt"
	"iter"
	"slices"
	"strings"
)

// Line is one instruction of a compiled todo list.
type Line struct {
	// Op is the keyword emitted, which can differ from the step's op when
	// the compiler moves where git opens the message editor.
	Op Op

	// Step is the index of the plan step the line was compiled from.
	Step int

	// Sha is the full commit sha.
	Sha string

	// ShortSha is the abbreviated sha written to the line.
	ShortSha string

	// Subject is the commit subject written after the sha.
	Subject string
}

// String renders the line in git's `<op> <sha> <subject>` form.
func (l Line) String() string {
	if l.Subject == "" {
		return fmt.Sprintf("%s %s", l.Op, l.ShortSha)
	}

	return fmt.Sprintf("%s %s %s", l.Op, l.ShortSha, l.Subject)
}

// Todo is a compiled todo list together with the commit messages to inject
// while git replays it.
type Todo struct {
	// Text is the todo list exactly as git should read it.
	Text string

	// Lines holds one instruction per compiled step, oldest first.
	Lines []Line

	// From is the plan index of the first compiled step.
	From int

	// messages maps plan step index to the message delivered there.
	messages map[int]string
}

// Messages lazily yields (step index, message) for every step at which the
// message editor must write a message, in step order.
func (t *Todo) Messages() iter.Seq2[int, string] {
	return func(yield func(int, string) bool) {
		keys := make([]int, 0, len(t.messages))
		for k := range t.messages {
			keys = append(keys, k)
		}
		slices.Sort(keys)

		for _, k := range keys {
			if !yield(k, t.messages[k]) {
				return
			}
		}
	}
}

// Line returns the compiled line for plan step i.
func (t *Todo) Line(step int) (Line, bool) {
	idx := step - t.From
	if idx < 0 || idx >= len(t.Lines) {
		return Line{}, false
	}

	return t.Lines[idx], true
}

// Empty reports whether there is nothing to replay.
func (t *Todo) Empty() bool {
	return len(t.Lines) == 0
}

// OnlyDrops reports whether every line is a drop, in which case the result
// equals the upstream commit and no rebase is needed.
func (t *Todo) OnlyDrops() bool {
	for _, l := range t.Lines {
		if l.Op.Retained() {
			return false
		}
	}

	return len(t.Lines) > 0
}

// Compile translates the whole plan into a todo list.
func Compile(p Plan) (*Todo, error) {
	return CompileSuffix(p, 0)
}

// CompileSuffix translates steps from..Len of the plan. The earlier steps
// are assumed to already be in place on the rebase upstream.
func CompileSuffix(p Plan, from int) (*Todo, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if from < 0 || from > p.Len() {
		return nil, &IndexOutOfRangeError{Index: from, Len: p.Len()}
	}
	if from < p.Len() && p.steps[from].Op.Melds() {
		return nil, &InvalidStepError{
			Index:  from,
			Reason: "replay cannot start inside a squash group",
		}
	}

	ops, messages := resolveGroups(p)

	todo := &Todo{
		From:     from,
		Lines:    make([]Line, 0, p.Len()-from),
		messages: make(map[int]string),
	}

	var sb strings.Builder
	for i := from; i < p.Len(); i++ {
		s := p.steps[i]
		if s.Commit.IsMerge() && s.Op.Retained() {
			return nil, &InvalidStepError{
				Index: i,
				Reason: fmt.Sprintf(
					"merge commit %s cannot be replayed",
					s.Commit.ShortSha,
				),
			}
		}

		line := Line{
			Op:       ops[i],
			Step:     i,
			Sha:      s.Commit.Sha,
			ShortSha: shortSha(s.Commit.ShortSha, s.Commit.Sha),
			Subject:  oneLine(s.Commit.Subject),
		}
		todo.Lines = append(todo.Lines, line)

		sb.WriteString(line.String())
		sb.WriteByte('\n')

		if msg, ok := messages[i]; ok {
			todo.messages[i] = msg
		}
	}
	todo.Text = sb.String()

	return todo, nil
}

// resolveGroups decides the emitted op of every step and the message to
// inject at each step where git will open the message editor.
//
// A group is a retained step followed by the squash and fixup steps that
// fold into it. Its message is the newest override among the members, then
// the head's override. A group containing a squash but no override gets the
// head commit's original message rather than git's concatenation.
func resolveGroups(p Plan) ([]Op, map[int]string) {
	ops := make([]Op, p.Len())
	messages := make(map[int]string)

	for i := 0; i < p.Len(); {
		head := p.steps[i]
		ops[i] = head.Op

		end := i
		for end+1 < p.Len() && p.steps[end+1].Op.Melds() {
			end++
			ops[end] = p.steps[end].Op
		}

		if end == i {
			if head.Op == OpReword && head.NewMessage != "" {
				messages[i] = head.NewMessage
			}
			i++

			continue
		}

		msg := ""
		hasSquash := false
		for j := end; j >= i; j-- {
			if p.steps[j].Op == OpSquash {
				hasSquash = true
			}
			if msg == "" && p.steps[j].NewMessage != "" {
				msg = p.steps[j].NewMessage
			}
		}
		if msg == "" && hasSquash {
			msg = head.Commit.Message()
		}

		// git opens the editor at the end of the group; a reword on the
		// head would only open it early.
		if head.Op == OpReword {
			ops[i] = OpPick
		}
		if msg != "" {
			ops[end] = OpSquash
			messages[end] = msg
		}

		i = end + 1
	}

	return ops, messages
}

func shortSha(short, full string) string {
	if short != "" {
		return short
	}
	if len(full) > 7 {
		return full[:7]
	}

	return full
}

// oneLine keeps a subject from spilling onto a second todo line.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
