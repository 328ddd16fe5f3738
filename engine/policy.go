package engine

// Action is what a caller should do with the session after an outcome.
type Action string

const (
	// ActionCommit keeps the rewritten history as the new baseline.
	ActionCommit Action = "commit"

	// ActionRestore discards the attempt and reloads from the original
	// HEAD, which the engine has already restored.
	ActionRestore Action = "restore"
)

// Decision is the policy's verdict on an outcome.
type Decision struct {
	Action Action

	// Reason is a short human readable explanation.
	Reason string
}

// Decide maps an outcome to the action a caller should take. Anything short
// of a clean success is treated as a failed attempt.
func Decide(o Outcome) Decision {
	switch o.Status {
	case StatusSuccess:
		return Decision{Action: ActionCommit, Reason: "rewrite applied"}

	case StatusConflictStopped:
		return Decision{
			Action: ActionRestore,
			Reason: "rebase stopped; resolve or abort it before editing",
		}

	case StatusFailed:
		return Decision{
			Action: ActionRestore,
			Reason: "recovery failed; repository needs manual repair",
		}

	default:
		return Decision{
			Action: ActionRestore,
			Reason: "rewrite rolled back",
		}
	}
}
