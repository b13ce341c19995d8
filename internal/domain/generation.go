package domain

import "time"

// Kind enumerates the supported generation media kinds.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// Valid reports whether k is a known media kind.
func (k Kind) Valid() bool {
	return k == KindImage || k == KindVideo
}

// JobState enumerates job lifecycle states.
type JobState string

const (
	JobStateSubmitted JobState = "submitted"
	JobStatePolling   JobState = "polling"
	JobStateSucceeded JobState = "succeeded"
	JobStateFailed    JobState = "failed"
	JobStateTimedOut  JobState = "timed_out"
)

// Terminal reports whether the state admits no further transitions.
func (s JobState) Terminal() bool {
	switch s {
	case JobStateSucceeded, JobStateFailed, JobStateTimedOut:
		return true
	}
	return false
}

// JobRecord is the durable snapshot of one in-flight generation. It is
// serialized as a single unit per kind so a crash can never leave an
// in-progress flag without its job id.
type JobRecord struct {
	Kind        Kind      `json:"kind"`
	JobID       string    `json:"job_id"`
	Model       string    `json:"model"`
	Prompt      string    `json:"prompt"`
	Cost        int       `json:"cost"`
	State       JobState  `json:"state"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// StatusPhase mirrors the coarse observable generation status exposed
// to clients.
type StatusPhase string

const (
	PhaseIdle       StatusPhase = "idle"
	PhaseGenerating StatusPhase = "generating"
	PhaseSucceeded  StatusPhase = "succeeded"
	PhaseFailed     StatusPhase = "failed"
)

// Status is the observable value emitted whenever a generation changes
// phase.
type Status struct {
	Phase   StatusPhase `json:"status"`
	Kind    Kind        `json:"kind,omitempty"`
	URL     string      `json:"url,omitempty"`
	Message string      `json:"message,omitempty"`
}

// HistoryEntry is one immutable line of the generation history.
type HistoryEntry struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Prompt    string    `json:"prompt"`
	ResultURL string    `json:"result_url"`
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"created_at"`
}
