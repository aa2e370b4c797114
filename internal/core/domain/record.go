package domain

import "time"

// TransitionEntry is one line of an instance's append-only run record.
type TransitionEntry struct {
	Time    time.Time `json:"time"`
	State   State     `json:"state"`
	Message string    `json:"message,omitempty"`
}

// CompletionMarker is the single terminal record of an instance. Its
// presence on disk is the sole authoritative signal that the instance
// reached a terminal state; it is written identically on success, failure,
// cancellation and internal error.
type CompletionMarker struct {
	State       State     `json:"state"`
	CompletedAt time.Time `json:"completed_at"`
	Error       string    `json:"error,omitempty"`
}

// BuildState is the recorded outcome of a build attempt.
type BuildState string

const (
	// BuildComplete marks an artifact that finished building and may be
	// read-shared by every instance with the same fingerprint.
	BuildComplete BuildState = "complete"
	// BuildFailed marks a terminal build failure. Waiters receive the
	// failure; it is never silently retried.
	BuildFailed BuildState = "failed"
)

// BuildEntry is one record of the shared build registry, keyed by
// fingerprint.
type BuildEntry struct {
	Fingerprint Fingerprint `json:"fingerprint"`
	State       BuildState  `json:"state"`
	Path        string      `json:"path"`
	Error       string      `json:"error,omitempty"`
	Owner       string      `json:"owner"`
	FinishedAt  time.Time   `json:"finished_at"`
}
