// Package lifecycle drives test instances through their run lifecycle and
// keeps each instance's durable run record consistent with it.
package lifecycle

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/gantryproject/gantry/internal/core/domain"
	"github.com/gantryproject/gantry/internal/core/ports"
	"github.com/gantryproject/gantry/internal/engine/build"
	"go.trai.ch/zerr"
)

// Config is the machine's timing policy.
type Config struct {
	// PollInterval is the delay between scheduler polls.
	PollInterval time.Duration
	// UnknownBackoff is the initial retry delay after an UNKNOWN poll; it
	// doubles up to UnknownBackoffMax and resets on any known state.
	UnknownBackoff    time.Duration
	UnknownBackoffMax time.Duration
	// CancelGrace bounds how long cancellation waits for backend
	// confirmation before the instance is force-marked cancelled.
	CancelGrace time.Duration
}

// DefaultConfig returns the default timing policy.
func DefaultConfig() Config {
	return Config{
		PollInterval:      2 * time.Second,
		UnknownBackoff:    time.Second,
		UnknownBackoffMax: 30 * time.Second,
		CancelGrace:       30 * time.Second,
	}
}

// Options select per-run behavior shared by the run and build commands.
type Options struct {
	// Rebuild invalidates existing artifacts and builds fresh.
	Rebuild bool
	// BuildOnly stops after the build phase.
	BuildOnly bool
}

// Machine executes one instance's state machine. Every transition is
// appended to the run record before control moves on, and every exit path
// funnels through one finish step that writes the completion marker, so
// "done" is always distinguishable from "in progress".
type Machine struct {
	builds     *build.Manager
	schedulers map[string]ports.Scheduler
	recorder   ports.RunRecorder
	logger     ports.Logger
	tracer     ports.Tracer
	cfg        Config
}

// NewMachine creates a Machine. The schedulers map is keyed by backend name
// as referenced from templates.
func NewMachine(
	builds *build.Manager,
	schedulers map[string]ports.Scheduler,
	recorder ports.RunRecorder,
	logger ports.Logger,
	tracer ports.Tracer,
	cfg Config,
) *Machine {
	return &Machine{
		builds:     builds,
		schedulers: schedulers,
		recorder:   recorder,
		logger:     logger,
		tracer:     tracer,
		cfg:        cfg,
	}
}

// Run drives the instance to exactly one terminal state and returns it. The
// returned error describes a terminal failure; it is instance-local and
// must never abort sibling instances.
func (m *Machine) Run(ctx context.Context, inst *domain.Instance, runDir string, opts Options) (domain.State, error) {
	ctx, span := m.tracer.Start(ctx, inst.ID)
	defer span.End()

	// A completion marker means this instance already finished: a restarted
	// orchestrator must not re-run completed work.
	if marker, err := m.recorder.Completion(runDir); err == nil && marker != nil {
		return marker.State, nil
	}

	if history, err := m.recorder.History(runDir); err == nil && len(history) == 0 {
		if err := m.record(runDir, domain.StateCreated, "run directory created"); err != nil {
			return m.finish(runDir, span, domain.StateError, "run record unavailable", err)
		}
	}

	sched, ok := m.schedulers[inst.Template.Scheduler]
	if !ok {
		err := zerr.With(domain.ErrUnknownScheduler, "scheduler", inst.Template.Scheduler)
		return m.finish(runDir, span, domain.StateError, err.Error(), err)
	}

	entry, state, err := m.buildPhase(ctx, inst, runDir, span, opts)
	if err != nil || state.Terminal() {
		return state, err
	}

	if opts.BuildOnly {
		return m.finish(runDir, span, domain.StateComplete, "build-only run, artifact "+entry.Path, nil)
	}

	return m.schedulePhase(ctx, inst, entry, runDir, span, sched)
}

// buildPhase takes the instance from CREATED to BUILT or BUILD_FAILED. A
// fingerprint whose artifact is already complete goes straight to BUILT.
func (m *Machine) buildPhase(
	ctx context.Context,
	inst *domain.Instance,
	runDir string,
	span ports.Span,
	opts Options,
) (*domain.BuildEntry, domain.State, error) {
	cached := false
	if !opts.Rebuild {
		var err error
		cached, err = m.builds.Cached(inst.Fingerprint)
		if err != nil {
			state, ferr := m.finish(runDir, span, domain.StateError, err.Error(), err)
			return nil, state, ferr
		}
	}

	if cached {
		if err := m.record(runDir, domain.StateBuilt, "reusing artifact for "+string(inst.Fingerprint)); err != nil {
			state, ferr := m.finish(runDir, span, domain.StateError, err.Error(), err)
			return nil, state, ferr
		}
	} else if err := m.record(runDir, domain.StateBuilding, "requesting build "+string(inst.Fingerprint)); err != nil {
		state, ferr := m.finish(runDir, span, domain.StateError, err.Error(), err)
		return nil, state, ferr
	}

	entry, err := m.builds.Acquire(ctx, build.Request{
		Fingerprint: inst.Fingerprint,
		Commands:    inst.BuildCommands,
		Env:         inst.BuildEnv,
		SourceDir:   inst.Template.Root,
		Rebuild:     opts.Rebuild,
	})
	if err != nil {
		if errors.Is(err, domain.ErrBuildFailed) {
			state, ferr := m.finish(runDir, span, domain.StateBuildFailed, err.Error(), err)
			return nil, state, ferr
		}
		if ctx.Err() != nil {
			state, ferr := m.finish(runDir, span, domain.StateCancelled, "cancelled while waiting for build", domain.ErrCancelled)
			return nil, state, ferr
		}
		state, ferr := m.finish(runDir, span, domain.StateError, err.Error(), err)
		return nil, state, ferr
	}

	if !cached {
		if err := m.record(runDir, domain.StateBuilt, "artifact ready at "+entry.Path); err != nil {
			state, ferr := m.finish(runDir, span, domain.StateError, err.Error(), err)
			return nil, state, ferr
		}
	}

	return entry, domain.StateBuilt, nil
}

// schedulePhase submits the job and mirrors the backend's job states into
// lifecycle transitions until a terminal state is reached.
func (m *Machine) schedulePhase(
	ctx context.Context,
	inst *domain.Instance,
	entry *domain.BuildEntry,
	runDir string,
	span ports.Span,
	sched ports.Scheduler,
) (domain.State, error) {
	if err := m.record(runDir, domain.StateScheduling, "submitting to "+sched.Name()); err != nil {
		return m.finish(runDir, span, domain.StateError, err.Error(), err)
	}

	handle, err := sched.Submit(ctx, jobSpec(inst, entry, runDir))
	if err != nil {
		if ctx.Err() != nil {
			return m.finish(runDir, span, domain.StateCancelled, "cancelled during submission", domain.ErrCancelled)
		}
		return m.finish(runDir, span, domain.StateError, err.Error(), err)
	}

	if err := m.recorder.SaveJob(runDir, handle); err != nil {
		// The job is in the backend's queue; losing the handle means no
		// other process could cancel it later.
		m.logger.Error(err)
		_ = sched.Cancel(context.WithoutCancel(ctx), handle)
		return m.finish(runDir, span, domain.StateError, err.Error(), err)
	}

	if err := m.record(runDir, domain.StateScheduled, "job "+handle.ID+" accepted by "+handle.Backend); err != nil {
		return m.finish(runDir, span, domain.StateError, err.Error(), err)
	}

	return m.pollLoop(ctx, runDir, span, sched, handle)
}

// pollLoop tracks the submitted job. UNKNOWN reports are retried with
// backoff and produce no run record entries; only genuine state changes
// append transitions.
func (m *Machine) pollLoop(
	ctx context.Context,
	runDir string,
	span ports.Span,
	sched ports.Scheduler,
	handle domain.JobHandle,
) (domain.State, error) {
	current := domain.StateScheduled
	delay := m.cfg.PollInterval
	backoff := m.cfg.UnknownBackoff

	for {
		select {
		case <-ctx.Done():
			return m.cancelAndFinish(ctx, runDir, span, sched, handle)
		case <-time.After(delay):
		}

		state, err := sched.Poll(ctx, handle)
		if err != nil {
			if ctx.Err() != nil {
				return m.cancelAndFinish(ctx, runDir, span, sched, handle)
			}
			return m.finish(runDir, span, domain.StateError, err.Error(), err)
		}

		switch state {
		case domain.JobUnknown:
			// Never a terminal conclusion; retry with growing delay.
			delay = backoff
			backoff = min(backoff*2, m.cfg.UnknownBackoffMax)
			continue
		case domain.JobPending:
			// Still SCHEDULED; no duplicate record entries.
		case domain.JobRunning:
			if current != domain.StateRunning {
				if err := m.record(runDir, domain.StateRunning, "job "+handle.ID+" running"); err != nil {
					return m.finish(runDir, span, domain.StateError, err.Error(), err)
				}
				current = domain.StateRunning
			}
		case domain.JobComplete:
			return m.finish(runDir, span, domain.StateComplete, "test completed", nil)
		case domain.JobFailed:
			ferr := zerr.With(domain.ErrRunFailed, "job", handle.ID)
			return m.finish(runDir, span, domain.StateRunFailed, "test command failed", ferr)
		case domain.JobCancelled:
			return m.finish(runDir, span, domain.StateCancelled, "job cancelled by backend", domain.ErrCancelled)
		}

		delay = m.cfg.PollInterval
		backoff = m.cfg.UnknownBackoff
	}
}

// cancelAndFinish performs cooperative cancellation: ask the backend to
// terminate, wait for confirmation within the grace period, and force-mark
// the instance cancelled if confirmation never arrives.
func (m *Machine) cancelAndFinish(
	base context.Context,
	runDir string,
	span ports.Span,
	sched ports.Scheduler,
	handle domain.JobHandle,
) (domain.State, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(base), m.cfg.CancelGrace)
	defer cancel()

	if err := sched.Cancel(ctx, handle); err != nil {
		m.logger.Warn("cancel request for job " + handle.ID + " failed: " + err.Error())
	}

	for {
		state, err := sched.Poll(ctx, handle)
		if err == nil && state.Terminal() {
			return m.finish(runDir, span, domain.StateCancelled, "cancellation confirmed by backend", domain.ErrCancelled)
		}

		select {
		case <-ctx.Done():
			m.logger.Warn("job " + handle.ID + " did not confirm cancellation; force-marking cancelled")
			return m.finish(runDir, span, domain.StateCancelled, "grace period elapsed, force-marked cancelled", domain.ErrCancelled)
		case <-time.After(m.cfg.PollInterval):
		}
	}
}

// record appends one transition entry. The append is durable before it
// returns (write-before-notify).
func (m *Machine) record(runDir string, state domain.State, msg string) error {
	return m.recorder.Append(runDir, domain.TransitionEntry{
		Time:    time.Now(),
		State:   state,
		Message: msg,
	})
}

// finish is the single funnel for every terminal path: it appends the
// terminal transition, then writes the completion marker. Success, failure,
// cancellation and internal error all pass through here.
func (m *Machine) finish(
	runDir string,
	span ports.Span,
	state domain.State,
	msg string,
	cause error,
) (domain.State, error) {
	if err := m.record(runDir, state, msg); err != nil {
		m.logger.Error(err)
	}

	marker := domain.CompletionMarker{
		State:       state,
		CompletedAt: time.Now(),
	}
	if cause != nil {
		marker.Error = cause.Error()
		span.RecordError(cause)
	}
	if err := m.recorder.MarkComplete(runDir, marker); err != nil {
		m.logger.Error(err)
	}

	span.SetAttribute("gantry.state", string(state))
	return state, cause
}

// jobSpec assembles the backend job description for an instance.
func jobSpec(inst *domain.Instance, entry *domain.BuildEntry, runDir string) domain.JobSpec {
	return domain.JobSpec{
		InstanceID: inst.ID,
		Request: domain.AllocationRequest{
			Nodes:        inst.Template.Nodes,
			Partition:    inst.Template.Partition,
			IncludeNodes: inst.Template.IncludeNodes,
			ExcludeNodes: inst.Template.ExcludeNodes,
		},
		Commands:     inst.RunCommands,
		Env:          inst.RunEnv,
		DeferredVars: inst.DeferredVars,
		WorkDir:      runDir,
		ArtifactDir:  entry.Path,
		OutputPath:   filepath.Join(runDir, domain.OutputFileName),
		Timeout:      inst.Template.Run.Timeout,
	}
}
