package ports

import (
	"context"

	"github.com/gantryproject/gantry/internal/core/domain"
)

// Scheduler is the uniform contract over heterogeneous batch backends.
//
// Poll is non-blocking and idempotent: repeated polls with no backend-side
// change return the same state without side effects. A backend that cannot
// be reached reports domain.JobUnknown rather than a false terminal state.
//
//go:generate go run go.uber.org/mock/mockgen -source=scheduler.go -destination=mocks/mock_scheduler.go -package=mocks
type Scheduler interface {
	// Name identifies the backend (e.g. "slurm", "local").
	Name() string

	// Submit translates the spec into backend directives and enqueues it.
	// Requests with provably unsatisfiable node constraints fail fast with
	// domain.ErrUnsatisfiableAllocation instead of being submitted.
	Submit(ctx context.Context, spec domain.JobSpec) (domain.JobHandle, error)

	// Poll reports the job's current state.
	Poll(ctx context.Context, handle domain.JobHandle) (domain.JobState, error)

	// Cancel requests termination of the job. Cancellation is cooperative;
	// callers confirm via Poll.
	Cancel(ctx context.Context, handle domain.JobHandle) error
}
