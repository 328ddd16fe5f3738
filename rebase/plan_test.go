package rebase

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func subjectsOf(p Plan) []string {
	var out []string
	for _, s := range p.Steps() {
		out = append(out, s.Commit.Subject)
	}

	return out
}

func opsOf(p Plan) []Op {
	var out []Op
	for _, s := range p.Steps() {
		out = append(out, s.Op)
	}

	return out
}

func TestNewPlan(t *testing.T) {
	rng := linearRange("A", "B", "C")
	p := NewPlan(rng)

	require.Equal(t, 3, p.Len())
	require.Equal(t, rng.Head, p.Head())
	require.Equal(t, rng.Upstream, p.Upstream())
	require.False(t, p.Root())
	require.Equal(t, []Op{OpPick, OpPick, OpPick}, opsOf(p))
	require.Equal(t, []string{"A", "B", "C"}, subjectsOf(p))
	require.Equal(t, 3, p.UnchangedPrefix())
	require.NoError(t, p.Validate())
}

func TestPlan_Reorder(t *testing.T) {
	tests := []struct {
		name     string
		from, to int
		want     []string
	}{
		{name: "move last to first", from: 2, to: 0,
			want: []string{"C", "A", "B"}},
		{name: "move first to last", from: 0, to: 2,
			want: []string{"B", "C", "A"}},
		{name: "swap neighbours", from: 1, to: 2,
			want: []string{"A", "C", "B"}},
		{name: "no-op", from: 1, to: 1,
			want: []string{"A", "B", "C"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPlan(linearRange("A", "B", "C"))

			next, err := p.Reorder(tt.from, tt.to)
			require.NoError(t, err)
			require.Equal(t, tt.want, subjectsOf(next))

			// The receiver is never modified.
			require.Equal(t, []string{"A", "B", "C"}, subjectsOf(p))
		})
	}
}

func TestPlan_IndexErrors(t *testing.T) {
	p := NewPlan(linearRange("A", "B"))

	tests := []struct {
		name string
		edit func() (Plan, error)
	}{
		{"reorder from", func() (Plan, error) { return p.Reorder(5, 0) }},
		{"reorder to", func() (Plan, error) { return p.Reorder(0, -1) }},
		{"set op", func() (Plan, error) { return p.SetOperation(2, OpDrop) }},
		{"set message", func() (Plan, error) { return p.SetMessage(-1, "x") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.edit()

			var idxErr *IndexOutOfRangeError
			require.ErrorAs(t, err, &idxErr)
			require.Equal(t, 2, idxErr.Len)
		})
	}

	_, err := p.Step(7)
	var idxErr *IndexOutOfRangeError
	require.ErrorAs(t, err, &idxErr)
}

func TestPlan_SetOperation(t *testing.T) {
	p := NewPlan(linearRange("A", "B", "C"))

	t.Run("squash first step", func(t *testing.T) {
		_, err := p.SetOperation(0, OpSquash)

		var npErr *NoPredecessorError
		require.ErrorAs(t, err, &npErr)
		require.Equal(t, 0, npErr.Index)
	})

	t.Run("fixup after drop", func(t *testing.T) {
		dropped, err := p.SetOperation(1, OpDrop)
		require.NoError(t, err)

		_, err = dropped.SetOperation(2, OpFixup)
		var npErr *NoPredecessorError
		require.ErrorAs(t, err, &npErr)
		require.Equal(t, 2, npErr.Index)
		require.ErrorContains(t, err, "dropped")
	})

	t.Run("chained squash", func(t *testing.T) {
		next := mustPlan(p, setOp(1, OpSquash), setOp(2, OpFixup))
		require.Equal(t, []Op{OpPick, OpSquash, OpFixup}, opsOf(next))
		require.NoError(t, next.Validate())
	})

	t.Run("unknown op", func(t *testing.T) {
		_, err := p.SetOperation(1, Op("exec"))

		var stepErr *InvalidStepError
		require.ErrorAs(t, err, &stepErr)
	})

	t.Run("pick clears message", func(t *testing.T) {
		next := mustPlan(p, setMsg(1, "new"), setOp(1, OpPick))

		step, err := next.Step(1)
		require.NoError(t, err)
		require.Equal(t, OpPick, step.Op)
		require.Empty(t, step.NewMessage)
	})
}

func TestPlan_SetMessage(t *testing.T) {
	p := NewPlan(linearRange("A", "B"))

	next, err := p.SetMessage(0, "fix typo\n\n")
	require.NoError(t, err)

	step, err := next.Step(0)
	require.NoError(t, err)
	require.Equal(t, OpReword, step.Op, "pick with a message becomes reword")
	require.Equal(t, "fix typo", step.NewMessage)

	dropped := mustPlan(p, setOp(1, OpDrop))
	_, err = dropped.SetMessage(1, "nope")

	var stepErr *InvalidStepError
	require.ErrorAs(t, err, &stepErr)
}

func TestPlan_ValidateAfterReorder(t *testing.T) {
	// A fixup that was valid becomes stranded when moved to the front.
	p := mustPlan(
		NewPlan(linearRange("A", "B", "C")),
		setOp(2, OpFixup),
		reorder(2, 0),
	)

	var npErr *NoPredecessorError
	require.ErrorAs(t, p.Validate(), &npErr)
	require.Equal(t, 0, npErr.Index)

	// Dropping the predecessor strands it as well.
	p = mustPlan(
		NewPlan(linearRange("A", "B", "C")),
		setOp(2, OpSquash),
		setOp(1, OpDrop),
	)
	require.ErrorAs(t, p.Validate(), &npErr)
	require.Equal(t, 2, npErr.Index)
}

func TestPlan_Index(t *testing.T) {
	p := NewPlan(linearRange("A", "B", "C"))

	require.Equal(t, 1, p.Index(fakeSha(2)[:7]))
	require.Equal(t, 2, p.Index(fakeSha(3)))
	require.Equal(t, 2, p.Index("3333333"))
	require.Equal(t, -1, p.Index("abcdef0"))
	require.Equal(t, -1, p.Index(""))
}

func TestPlan_UnchangedPrefix(t *testing.T) {
	base := NewPlan(linearRange("A", "B", "C", "D"))

	tests := []struct {
		name  string
		edits []func(Plan) (Plan, error)
		want  int
	}{
		{name: "untouched", want: 4},
		{name: "drop last", edits: edits(setOp(3, OpDrop)), want: 3},
		{name: "reword first", edits: edits(setMsg(0, "x")), want: 0},
		{name: "reorder tail", edits: edits(reorder(3, 2)), want: 2},
		{
			name:  "squash rewrites predecessor",
			edits: edits(setOp(2, OpSquash)),
			want:  1,
		},
		{
			name:  "fixup into first",
			edits: edits(setOp(1, OpFixup)),
			want:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := mustPlan(base, tt.edits...)
			require.Equal(t, tt.want, p.UnchangedPrefix())
		})
	}
}

func edits(fns ...func(Plan) (Plan, error)) []func(Plan) (Plan, error) {
	return fns
}
