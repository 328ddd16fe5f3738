package rebase

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Action is one entry of a declarative plan spec.
type Action struct {
	// Action is the operation to apply.
	Action Op `json:"action" yaml:"action"`

	// Commit is a full or abbreviated commit hash.
	Commit string `json:"commit" yaml:"commit"`

	// Message overrides the commit message for reword, squash and fixup.
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
}

// Validate checks that the action is valid.
func (a *Action) Validate() error {
	if !a.Action.Valid() {
		return fmt.Errorf("invalid action type: %q", a.Action)
	}

	if a.Commit == "" {
		return fmt.Errorf("%s action requires a commit hash", a.Action)
	}

	if a.Message != "" && !a.Action.AcceptsMessage() {
		return fmt.Errorf("%s action does not take a message", a.Action)
	}

	return nil
}

// Spec describes a whole plan declaratively: every commit of the range,
// oldest first, with the operation to apply to it. Listing a commit at a
// different position reorders it.
type Spec struct {
	// Actions is the ordered list of operations.
	Actions []Action `json:"actions" yaml:"actions"`
}

// Validate checks that the spec is valid.
func (s *Spec) Validate() error {
	if len(s.Actions) == 0 {
		return fmt.Errorf("rebase spec has no actions")
	}

	for i, action := range s.Actions {
		if err := action.Validate(); err != nil {
			return fmt.Errorf("action %d: %w", i+1, err)
		}
	}

	// Check that squash/fixup are not first (they need a previous commit).
	first := s.Actions[0].Action
	if first.Melds() {
		return fmt.Errorf(
			"cannot start with %s: no previous commit to combine with",
			first,
		)
	}

	return nil
}

// ApplyTo rewrites plan so that it matches the spec. The spec must name
// every commit of the plan exactly once.
func (s *Spec) ApplyTo(plan Plan) (Plan, error) {
	if err := s.Validate(); err != nil {
		return plan, err
	}

	positions := make([]int, len(s.Actions))
	seen := make(map[int]int)
	for i, action := range s.Actions {
		idx := plan.Index(action.Commit)
		if idx < 0 {
			return plan, fmt.Errorf(
				"action %d: commit %q not found in range (or ambiguous)",
				i+1, action.Commit,
			)
		}
		if prev, dup := seen[idx]; dup {
			return plan, fmt.Errorf(
				"action %d: commit %q already listed by action %d",
				i+1, action.Commit, prev+1,
			)
		}
		seen[idx] = i
		positions[i] = idx
	}

	if len(s.Actions) != plan.Len() {
		var missing []string
		for i, c := range plan.Commits() {
			if _, ok := seen[i]; !ok {
				missing = append(missing, c.ShortSha)
			}
		}

		return plan, fmt.Errorf(
			"spec must list every commit in the range; missing: %s",
			strings.Join(missing, ", "),
		)
	}

	// Move each commit into place. Moving the i-th action's commit to i
	// never disturbs positions < i.
	next := plan
	for i, action := range s.Actions {
		cur := next.Index(action.Commit)

		var err error
		next, err = next.Reorder(cur, i)
		if err != nil {
			return plan, err
		}
	}

	for i, action := range s.Actions {
		var err error
		next, err = next.SetOperation(i, action.Action)
		if err != nil {
			return plan, err
		}

		if action.Message == "" {
			continue
		}
		next, err = next.SetMessage(i, action.Message)
		if err != nil {
			return plan, err
		}
	}

	if err := next.Validate(); err != nil {
		return plan, err
	}

	return next, nil
}

// ParseSpec parses a Spec from JSON or YAML data.
func ParseSpec(data []byte) (*Spec, error) {
	var spec Spec

	trimmed := bytes.TrimSpace(data)
	if bytes.HasPrefix(trimmed, []byte("{")) {
		if err := json.Unmarshal(trimmed, &spec); err != nil {
			return nil, fmt.Errorf(
				"invalid JSON spec: %w\ninput: %s", err, snippet(data),
			)
		}
	} else {
		if err := yaml.Unmarshal(trimmed, &spec); err != nil {
			return nil, fmt.Errorf(
				"invalid YAML spec: %w\ninput: %s", err, snippet(data),
			)
		}
	}

	if err := spec.Validate(); err != nil {
		return nil, err
	}

	return &spec, nil
}

// snippet includes a prefix of invalid input for debugging.
func snippet(data []byte) string {
	s := string(data)
	if len(s) > 100 {
		s = s[:100] + "..."
	}

	return s
}

// ParseCLISpec parses the CLI shorthand syntax.
//
// Supported formats:
//   - "abc123,def456" - pick all commits
//   - "pick:abc123,squash:def456" - explicit actions
//   - "reword:abc123:New message" - action with message
//   - "r:abc123:'Message, with comma'" - quoted messages keep commas
func ParseCLISpec(args []string) (*Spec, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("no rebase actions specified")
	}

	var actions []Action

	// Join all args and split by comma.
	combined := strings.Join(args, ",")
	parts := splitPreservingQuotes(combined)

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		action, err := parseActionSpec(part)
		if err != nil {
			return nil, fmt.Errorf("invalid action %q: %w", part, err)
		}

		actions = append(actions, action)
	}

	spec := &Spec{Actions: actions}

	if err := spec.Validate(); err != nil {
		return nil, err
	}

	return spec, nil
}

// parseActionSpec parses a single action specification.
// Formats: "abc123", "pick:abc123", "reword:abc123:Message".
func parseActionSpec(s string) (Action, error) {
	if !strings.Contains(s, ":") || isCommitHash(s) {
		return Action{Action: OpPick, Commit: s}, nil
	}

	// Split by first colon to get action.
	actionStr, rest, _ := strings.Cut(s, ":")

	op, err := ParseOp(strings.ToLower(actionStr))
	if err != nil {
		return Action{}, err
	}

	commit, message, _ := strings.Cut(rest, ":")

	return Action{
		Action:  op,
		Commit:  strings.TrimSpace(commit),
		Message: unquote(strings.TrimSpace(message)),
	}, nil
}

// unquote strips one pair of matching surrounding quotes.
func unquote(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' || first == '\'') && first == last {
			return s[1 : len(s)-1]
		}
	}

	return s
}

// isCommitHash checks if a string looks like a commit hash.
// Accepts 7-40 character hex strings.
func isCommitHash(s string) bool {
	if len(s) < 7 || len(s) > 40 {
		return false
	}

	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') ||
			(c >= 'A' && c <= 'F')) {
			return false
		}
	}

	return true
}

// splitPreservingQuotes splits by comma but preserves quoted strings.
func splitPreservingQuotes(s string) []string {
	var result []string
	var current strings.Builder
	inQuotes := false
	quoteChar := rune(0)

	for _, c := range s {
		switch {
		case (c == '"' || c == '\'') && !inQuotes:
			inQuotes = true
			quoteChar = c
			current.WriteRune(c)
		case c == quoteChar && inQuotes:
			inQuotes = false
			quoteChar = 0
			current.WriteRune(c)
		case c == ',' && !inQuotes:
			if current.Len() > 0 {
				result = append(result, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(c)
		}
	}

	if current.Len() > 0 {
		result = append(result, current.String())
	}

	return result
}
