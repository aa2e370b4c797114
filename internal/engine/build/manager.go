// Package build implements the build manager: at most one build execution
// per fingerprint at any time, across goroutines and across processes.
package build

import (
	"context"
	"os"
	"time"

	"github.com/gantryproject/gantry/internal/core/domain"
	"github.com/gantryproject/gantry/internal/core/ports"
	"go.trai.ch/zerr"
)

// Request asks the manager for a usable artifact for one fingerprint.
type Request struct {
	Fingerprint domain.Fingerprint

	// Commands and Env are the substituted build recipe.
	Commands []string
	Env      map[string]string

	// SourceDir is the template root, exported to the recipe as GANTRY_SRC.
	SourceDir string

	// Rebuild invalidates an existing artifact before building.
	Rebuild bool
}

// Manager deduplicates builds through the shared registry. Many instances
// may request the same fingerprint concurrently; exactly one performs the
// build, the rest reuse its durably recorded outcome.
type Manager struct {
	registry ports.BuildRegistry
	executor ports.Executor
	logger   ports.Logger
	tracer   ports.Tracer

	// started is the rebuild epoch: a forced rebuild is performed once per
	// manager lifetime per fingerprint, so every instance of a run observes
	// the same fresh artifact instead of racing to rebuild repeatedly.
	started time.Time
}

// NewManager creates a Manager over the given registry and executor.
func NewManager(
	registry ports.BuildRegistry,
	executor ports.Executor,
	logger ports.Logger,
	tracer ports.Tracer,
) *Manager {
	return &Manager{
		registry: registry,
		executor: executor,
		logger:   logger,
		tracer:   tracer,
		started:  time.Now(),
	}
}

// Cached reports whether a complete artifact already exists, so callers can
// skip the BUILDING state entirely.
func (m *Manager) Cached(fp domain.Fingerprint) (bool, error) {
	entry, err := m.registry.Get(fp)
	if err != nil {
		return false, err
	}
	return entry != nil && entry.State == domain.BuildComplete, nil
}

// Acquire returns the build entry for the request's fingerprint, building
// it if necessary. A recorded failure is returned to every caller sharing
// the fingerprint; it is never silently retried. The outcome is durably
// recorded before the build lock is released, so waiters always observe it.
func (m *Manager) Acquire(ctx context.Context, req Request) (*domain.BuildEntry, error) {
	if req.Fingerprint == "" {
		return nil, domain.ErrMissingFingerprint
	}

	// Fast path: a finished entry needs no lock.
	if !req.Rebuild {
		entry, err := m.registry.Get(req.Fingerprint)
		if err != nil {
			return nil, err
		}
		if entry != nil {
			_, span := m.tracer.Start(ctx, "build "+string(req.Fingerprint), ports.WithCached())
			span.End()
			return m.fromEntry(entry)
		}
	}

	lock, err := m.registry.Lock(ctx, req.Fingerprint)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to acquire build lock")
	}
	defer func() {
		_ = lock.Release()
	}()

	// Re-check under the lock: a concurrent winner may have finished while
	// we waited.
	entry, err := m.registry.Get(req.Fingerprint)
	if err != nil {
		return nil, err
	}
	if entry != nil {
		if !req.Rebuild || entry.FinishedAt.After(m.started) {
			return m.fromEntry(entry)
		}
		// Forced rebuild: invalidate exactly once per manager lifetime.
		if err := m.registry.Invalidate(req.Fingerprint); err != nil {
			return nil, err
		}
	}

	return m.build(ctx, req)
}

// fromEntry maps a recorded outcome to the caller's result. Failures carry
// the originally recorded error message so every dependent instance reports
// the same cause.
func (m *Manager) fromEntry(entry *domain.BuildEntry) (*domain.BuildEntry, error) {
	if entry.State == domain.BuildFailed {
		return nil, zerr.With(
			zerr.Wrap(domain.ErrBuildFailed, entry.Error),
			"fingerprint", string(entry.Fingerprint),
		)
	}
	return entry, nil
}

// build runs the recipe in a scratch directory and renames it into place on
// success, so a half-built artifact is never observable under the final
// path.
func (m *Manager) build(ctx context.Context, req Request) (*domain.BuildEntry, error) {
	ctx, span := m.tracer.Start(ctx, "build "+string(req.Fingerprint))
	defer span.End()

	artifact := m.registry.ArtifactPath(req.Fingerprint)
	scratch := artifact + ".tmp"

	if err := os.RemoveAll(scratch); err != nil {
		return nil, zerr.Wrap(err, "failed to clear build scratch directory")
	}
	if err := os.MkdirAll(scratch, domain.DirPerm); err != nil {
		return nil, zerr.Wrap(err, "failed to create build scratch directory")
	}

	env := make(map[string]string, len(req.Env)+1)
	for k, v := range req.Env {
		env[k] = v
	}
	env["GANTRY_SRC"] = req.SourceDir

	m.logger.Info("building " + string(req.Fingerprint))
	execErr := m.executor.Execute(ctx, req.Commands, scratch, env, span, span)

	entry := domain.BuildEntry{
		Fingerprint: req.Fingerprint,
		Path:        artifact,
		Owner:       ownerOf(m.registry),
		FinishedAt:  time.Now(),
	}

	if execErr != nil {
		span.RecordError(execErr)
		entry.State = domain.BuildFailed
		entry.Error = execErr.Error()
		if err := m.registry.Put(entry); err != nil {
			return nil, err
		}
		return nil, zerr.With(
			zerr.Wrap(domain.ErrBuildFailed, execErr.Error()),
			"fingerprint", string(req.Fingerprint),
		)
	}

	// A crash between a previous rename and its registry record leaves an
	// artifact directory with no entry; it must not block this rename.
	if err := os.RemoveAll(artifact); err != nil {
		return nil, zerr.Wrap(err, "failed to clear orphaned artifact")
	}
	if err := os.Rename(scratch, artifact); err != nil {
		return nil, zerr.Wrap(err, "failed to finalize build artifact")
	}

	entry.State = domain.BuildComplete
	if err := m.registry.Put(entry); err != nil {
		return nil, err
	}

	m.logger.Info("build complete for " + string(req.Fingerprint))
	return &entry, nil
}

// ownerOf extracts the registry's owner identity when it exposes one.
func ownerOf(registry ports.BuildRegistry) string {
	if o, ok := registry.(interface{ Owner() string }); ok {
		return o.Owner()
	}
	return ""
}
