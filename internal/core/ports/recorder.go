package ports

import "github.com/gantryproject/gantry/internal/core/domain"

// RunRecorder persists per-instance lifecycle state. Records are
// per-instance and never shared, so no cross-instance locking is needed;
// appends within one instance are serialized by the caller.
//
//go:generate go run go.uber.org/mock/mockgen -source=recorder.go -destination=mocks/mock_recorder.go -package=mocks
type RunRecorder interface {
	// Append adds one entry to the instance's run record. The write is
	// durable before Append returns.
	Append(runDir string, entry domain.TransitionEntry) error

	// History returns the recorded transitions in append order.
	History(runDir string) ([]domain.TransitionEntry, error)

	// MarkComplete writes the completion marker. It is written exactly once
	// per instance; later calls are rejected.
	MarkComplete(runDir string, marker domain.CompletionMarker) error

	// Completion returns the completion marker, or nil, nil if the instance
	// has not reached a terminal state.
	Completion(runDir string) (*domain.CompletionMarker, error)

	// SaveJob stores the scheduler job handle for later polling or
	// cancellation from another process.
	SaveJob(runDir string, handle domain.JobHandle) error

	// LoadJob returns the stored job handle, or nil, nil if none was saved.
	LoadJob(runDir string) (*domain.JobHandle, error)
}
