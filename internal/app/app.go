// Package app wires the engine and adapters into the operations the CLI
// exposes: run, build, status and cancel.
package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strconv"

	"github.com/gantryproject/gantry/internal/adapters/registry"
	"github.com/gantryproject/gantry/internal/core/domain"
	"github.com/gantryproject/gantry/internal/core/ports"
	"github.com/gantryproject/gantry/internal/engine/build"
	"github.com/gantryproject/gantry/internal/engine/lifecycle"
	"github.com/gantryproject/gantry/internal/engine/resolver"
	"github.com/google/uuid"
	"go.trai.ch/zerr"
)

// App exposes the harness operations. One App serves many invocations; the
// per-run pieces (registry, build manager, machines) are constructed per
// call because they depend on the chosen working directory.
type App struct {
	loader     ports.SuiteLoader
	resolver   *resolver.Resolver
	hasher     ports.FingerprintHasher
	executor   ports.Executor
	recorder   ports.RunRecorder
	schedulers map[string]ports.Scheduler
	logger     ports.Logger
	tracer     ports.Tracer
}

// New creates an App.
func New(
	loader ports.SuiteLoader,
	res *resolver.Resolver,
	hasher ports.FingerprintHasher,
	executor ports.Executor,
	recorder ports.RunRecorder,
	schedulers map[string]ports.Scheduler,
	logger ports.Logger,
	tracer ports.Tracer,
) *App {
	return &App{
		loader:     loader,
		resolver:   res,
		hasher:     hasher,
		executor:   executor,
		recorder:   recorder,
		schedulers: schedulers,
		logger:     logger,
		tracer:     tracer,
	}
}

// RunOptions selects what to run and how.
type RunOptions struct {
	// File is the suite file path.
	File string
	// Tests filters the suite to the named tests ("name" or "suite.name").
	// Empty means every test.
	Tests []string
	// WorkDir is the directory holding the harness state tree.
	WorkDir string
	// RunID resumes an existing run instead of starting a new one.
	RunID string
	// Rebuild forces fresh builds, invalidating matching artifacts once.
	Rebuild bool
	// BuildOnly stops every instance after its build phase.
	BuildOnly bool
	// Limit caps concurrently running instances. Zero means NumCPU.
	Limit int
	// Tracer overrides the default tracer, so a progress UI can observe
	// the run. Nil keeps the App's tracer.
	Tracer ports.Tracer
}

// RunResult is the outcome of one run invocation.
type RunResult struct {
	RunID  string
	States map[string]domain.State
}

// Run expands the selected tests into instances and drives every instance
// to a terminal state. The returned error joins instance-local failures;
// RunResult is valid even when it is non-nil.
func (a *App) Run(ctx context.Context, opts RunOptions) (*RunResult, error) {
	tracer := a.tracer
	if opts.Tracer != nil {
		tracer = opts.Tracer
	}

	instances, err := a.instantiate(opts.File, opts.Tests)
	if err != nil {
		return nil, err
	}

	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	stateDir := stateDir(opts.WorkDir)
	reg, err := registry.New(domain.BuildsPath(stateDir), a.logger, registry.DefaultOptions())
	if err != nil {
		return nil, err
	}

	manager := build.NewManager(reg, a.executor, a.logger, tracer)
	machine := lifecycle.NewMachine(manager, a.schedulers, a.recorder, a.logger, tracer, lifecycle.DefaultConfig())
	orch := lifecycle.NewOrchestrator(machine, a.logger, tracer)

	a.logger.Info("run " + runID + ": " + formatCount(len(instances)))

	states, err := orch.RunAll(ctx, instances, domain.RunPath(stateDir, runID), lifecycle.Options{
		Rebuild:   opts.Rebuild,
		BuildOnly: opts.BuildOnly,
	}, opts.Limit)

	return &RunResult{RunID: runID, States: states}, err
}

// InstanceStatus is one instance's recorded position in the lifecycle.
type InstanceStatus struct {
	ID    string
	State domain.State
	// Message is the last recorded transition message.
	Message string
	// Error is the completion marker's error, when the instance failed.
	Error string
}

// Status reads the run records of an existing run. It works from disk
// alone, so it can inspect runs owned by other processes or none at all.
func (a *App) Status(workDir, runID string) ([]InstanceStatus, error) {
	runRoot := domain.RunPath(stateDir(workDir), runID)

	entries, err := os.ReadDir(runRoot)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrRunNotFound, err.Error()), "run", runID)
	}

	statuses := make([]InstanceStatus, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		status, err := a.instanceStatus(filepath.Join(runRoot, e.Name()), e.Name())
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, status)
	}

	sort.Slice(statuses, func(i, j int) bool { return statuses[i].ID < statuses[j].ID })
	return statuses, nil
}

func (a *App) instanceStatus(runDir, id string) (InstanceStatus, error) {
	status := InstanceStatus{ID: id, State: domain.StateCreated}

	history, err := a.recorder.History(runDir)
	if err != nil {
		return InstanceStatus{}, err
	}
	if len(history) > 0 {
		last := history[len(history)-1]
		status.State = last.State
		status.Message = last.Message
	}

	// The marker, not the record, is authoritative for terminal state.
	marker, err := a.recorder.Completion(runDir)
	if err != nil {
		return InstanceStatus{}, err
	}
	if marker != nil {
		status.State = marker.State
		status.Error = marker.Error
	}

	return status, nil
}

// Cancel requests backend cancellation for every unfinished instance of a
// run. The process owning the run observes the backend state change and
// finishes the records; Cancel itself never touches them.
func (a *App) Cancel(ctx context.Context, workDir, runID string) error {
	runRoot := domain.RunPath(stateDir(workDir), runID)

	entries, err := os.ReadDir(runRoot)
	if err != nil {
		return zerr.With(zerr.Wrap(domain.ErrRunNotFound, err.Error()), "run", runID)
	}

	var errs error
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		runDir := filepath.Join(runRoot, e.Name())

		marker, err := a.recorder.Completion(runDir)
		if err != nil || marker != nil {
			continue
		}

		handle, err := a.recorder.LoadJob(runDir)
		if err != nil || handle == nil {
			continue
		}

		sched, ok := a.schedulers[handle.Backend]
		if !ok {
			errs = errors.Join(errs, zerr.With(domain.ErrUnknownScheduler, "backend", handle.Backend))
			continue
		}
		if err := sched.Cancel(ctx, *handle); err != nil {
			errs = errors.Join(errs, zerr.With(err, "instance", e.Name()))
			continue
		}
		a.logger.Info("requested cancellation of " + e.Name())
	}
	return errs
}

// instantiate loads the suite, filters it and expands every selected
// template into fingerprinted instances.
func (a *App) instantiate(file string, tests []string) ([]*domain.Instance, error) {
	templates, err := a.loader.Load(file)
	if err != nil {
		return nil, err
	}

	templates, err = filterTemplates(templates, tests)
	if err != nil {
		return nil, err
	}

	var instances []*domain.Instance
	for _, tmpl := range templates {
		expanded, err := a.resolver.Expand(tmpl)
		if err != nil {
			return nil, err
		}
		for _, inst := range expanded {
			fp, err := a.hasher.Fingerprint(inst)
			if err != nil {
				return nil, zerr.With(err, "instance", inst.ID)
			}
			inst.Fingerprint = fp
		}
		instances = append(instances, expanded...)
	}

	if len(instances) == 0 {
		return nil, domain.ErrNoTests
	}
	return instances, nil
}

// filterTemplates keeps the named tests. Names match either the test name
// or the suite-qualified full name.
func filterTemplates(templates []*domain.Template, tests []string) ([]*domain.Template, error) {
	if len(tests) == 0 {
		return templates, nil
	}

	kept := make([]*domain.Template, 0, len(tests))
	for _, name := range tests {
		i := slices.IndexFunc(templates, func(t *domain.Template) bool {
			return t.Name == name || t.FullName() == name
		})
		if i < 0 {
			return nil, zerr.With(domain.ErrTestNotFound, "test", name)
		}
		kept = append(kept, templates[i])
	}
	return kept, nil
}

// stateDir returns the harness state tree under the working directory.
func stateDir(workDir string) string {
	if workDir == "" {
		workDir = "."
	}
	return filepath.Join(workDir, domain.WorkDirName)
}

func formatCount(n int) string {
	if n == 1 {
		return "1 instance"
	}
	return strconv.Itoa(n) + " instances"
}
