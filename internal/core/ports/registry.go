package ports

import (
	"context"

	"github.com/gantryproject/gantry/internal/core/domain"
)

// BuildLock is an exclusive, cross-process lock on one fingerprint.
type BuildLock interface {
	// Release frees the lock. Safe to call once.
	Release() error
}

// BuildRegistry is the shared, possibly cross-process store of build
// outcomes, keyed by fingerprint. It is the only mutable state shared
// across concurrent build attempts.
//
//go:generate go run go.uber.org/mock/mockgen -source=registry.go -destination=mocks/mock_registry.go -package=mocks
type BuildRegistry interface {
	// Get returns the entry for the fingerprint, or nil, nil if absent.
	Get(fp domain.Fingerprint) (*domain.BuildEntry, error)

	// Put durably records an entry. Waiters blocked on the fingerprint's
	// lock must observe the entry once the lock is released.
	Put(entry domain.BuildEntry) error

	// Invalidate removes the entry and its artifact so a forced rebuild
	// starts fresh. Callers must hold the fingerprint's lock.
	Invalidate(fp domain.Fingerprint) error

	// ArtifactPath returns the artifact directory for the fingerprint. The
	// directory may not exist yet.
	ArtifactPath(fp domain.Fingerprint) string

	// Lock acquires the exclusive build lock for the fingerprint, blocking
	// until it is granted, the context is cancelled, or the configured
	// bound elapses. Locks abandoned by dead owners are reclaimed after a
	// staleness bound.
	Lock(ctx context.Context, fp domain.Fingerprint) (BuildLock, error)
}
