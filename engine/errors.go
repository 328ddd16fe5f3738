package engine

import "fmt"

// RebaseAlreadyRunningError is returned when an apply or reset is started
// for a repository that already has one in flight.
type RebaseAlreadyRunningError struct {
	Root string
}

func (e *RebaseAlreadyRunningError) Error() string {
	return fmt.Sprintf("a rewrite is already running in %s", e.Root)
}

// StalePlanError is returned when HEAD moved after the plan's range was
// read. Applying the plan would silently discard the new commits.
type StalePlanError struct {
	PlanHead string
	Head     string
}

func (e *StalePlanError) Error() string {
	return fmt.Sprintf(
		"HEAD moved from %s to %s since the range was read; reload it",
		short(e.PlanHead), short(e.Head),
	)
}

func short(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}

	return sha
}
