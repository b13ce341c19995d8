package poller

import "time"

// Timings holds the per-kind polling cadence. The grace period skips
// pointless early polls against providers known to take minutes; the
// budget bounds the worst case.
type Timings struct {
	Grace    time.Duration
	Interval time.Duration
	Budget   time.Duration
}

// Action is the next step the poll loop should take.
type Action int

const (
	// ActionWait sleeps for Decision.Wait before deciding again.
	ActionWait Action = iota
	// ActionPoll sends one status request now.
	ActionPoll
	// ActionStop ends the loop: the total budget is exhausted.
	ActionStop
)

// Decision is the outcome of one schedule evaluation.
type Decision struct {
	Action Action
	Wait   time.Duration
}

// Decide is the pure poll schedule: given the original submission time,
// the last poll time (zero if none yet), and the current time, it
// returns what to do next. It is independent of any clock or transport
// so tests can drive it directly.
func (t Timings) Decide(submittedAt, lastPoll, now time.Time) Decision {
	deadline := submittedAt.Add(t.Budget)
	if !now.Before(deadline) {
		return Decision{Action: ActionStop}
	}

	graceEnd := submittedAt.Add(t.Grace)
	if now.Before(graceEnd) {
		return Decision{Action: ActionWait, Wait: capWait(graceEnd.Sub(now), deadline.Sub(now))}
	}

	if lastPoll.IsZero() || !now.Before(lastPoll.Add(t.Interval)) {
		return Decision{Action: ActionPoll}
	}
	return Decision{Action: ActionWait, Wait: capWait(lastPoll.Add(t.Interval).Sub(now), deadline.Sub(now))}
}

// capWait never sleeps past the budget deadline, so the timeout fires
// at the boundary rather than one interval late.
func capWait(wait, untilDeadline time.Duration) time.Duration {
	if wait > untilDeadline {
		return untilDeadline
	}
	return wait
}
