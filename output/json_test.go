package output_test

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/roasbeef/histedit/engine"
	"github.com/roasbeef/histedit/git"
	"github.com/roasbeef/histedit/output"
	"github.com/roasbeef/histedit/rebase"
	"github.com/stretchr/testify/require"
)

func TestFormatRangeJSON(t *testing.T) {
	rng := testRange()

	var buf bytes.Buffer
	require.NoError(t, output.FormatRangeJSON(&buf, rng))

	var result output.RangeOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &result))

	require.Equal(t, rng.Head, result.Head)
	require.False(t, result.Root)
	require.Len(t, result.Commits, 2)
	require.Equal(t, 1, result.Commits[1].Index)
	require.Equal(t, "Second", result.Commits[1].Subject)
	require.Equal(t, "test@test.com", result.Commits[1].AuthorEmail)
	require.True(t, rng.Commits[1].AuthorDate.Equal(
		result.Commits[1].AuthorDate,
	))
}

func TestFormatPlanJSON(t *testing.T) {
	p := rebase.NewPlan(testRange())
	p, err := p.SetOperation(1, rebase.OpDrop)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, output.FormatPlanJSON(&buf, p))

	var result output.PlanOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &result))

	require.Len(t, result.Steps, 2)
	require.Equal(t, "pick", result.Steps[0].Op)
	require.Equal(t, "drop", result.Steps[1].Op)
}

func TestFormatOutcomeJSON(t *testing.T) {
	out := engine.Outcome{
		Status:       engine.StatusAborted,
		Halt:         engine.HaltConflict,
		StoppedAtSha: "abc",
		Message:      "conflict while replaying",
		OrigHeadSha:  "def",
		InvocationID: "id",
		Duration:     time.Second,
	}

	var buf bytes.Buffer
	require.NoError(t, output.FormatOutcomeJSON(&buf, out))

	var result map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &result))

	require.Equal(t, "aborted", result["status"])
	require.Equal(t, "conflict-halted", result["halt"])
	require.Equal(t, "abc", result["stopped_at_sha"])
	require.Equal(t, "restore", result["action"])
	require.NotContains(t, result, "new_head_sha")
}

func TestFormatStatJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, output.FormatStatJSON(&buf, "abc", testStat(t)))

	var result output.StatOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &result))

	require.Equal(t, 3, result.Added)
	require.Equal(t, 1, result.Deleted)
	require.Len(t, result.Files, 2)
	require.Equal(t, "modified", result.Files[0].Status)
	require.Empty(t, result.Files[0].OldPath)
	require.Equal(t, "new", result.Files[1].Status)
}

func TestFormatRebaseStateJSON(t *testing.T) {
	var buf bytes.Buffer
	err := output.FormatRebaseStateJSON(&buf, &git.RebaseState{
		InProgress: true,
		State:      git.RebaseConflict,
		Conflicts: []git.ConflictInfo{
			{Path: "f.txt", ConflictType: "both modified"},
		},
	})
	require.NoError(t, err)

	var result output.RebaseStateOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &result))

	require.True(t, result.InProgress)
	require.Equal(t, "conflict", result.State)
	require.Equal(t, []output.ConflictFileOutput{
		{Path: "f.txt", Type: "both modified"},
	}, result.Conflicts)
}

func TestFormatSessionJSON(t *testing.T) {
	var buf bytes.Buffer
	err := output.FormatSessionJSON(&buf, output.SessionOutput{Start: "abc"})
	require.NoError(t, err)
	require.JSONEq(t, `{"start": "abc"}`, buf.String())
}
