// Package local implements the scheduler port on the local machine. Jobs
// run in-process through the shell executor, which keeps single-node tests
// and the test suite itself independent of a batch system.
package local

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/gantryproject/gantry/internal/core/domain"
	"github.com/gantryproject/gantry/internal/core/ports"
	"go.trai.ch/zerr"
)

// Name is the backend name templates reference.
const Name = "local"

var _ ports.Scheduler = (*Scheduler)(nil)

type job struct {
	state     domain.JobState
	cancel    context.CancelFunc
	cancelled bool
}

// Scheduler runs jobs as local processes. The job table lives in memory, so
// handles are only meaningful within the submitting process.
type Scheduler struct {
	executor ports.Executor
	logger   ports.Logger

	mu   sync.Mutex
	jobs map[string]*job
	next int64
}

// New creates a local scheduler.
func New(executor ports.Executor, logger ports.Logger) *Scheduler {
	return &Scheduler{
		executor: executor,
		logger:   logger,
		jobs:     make(map[string]*job),
	}
}

// Name returns the backend name.
func (s *Scheduler) Name() string {
	return Name
}

// Submit starts the job's commands in a goroutine and returns immediately.
// Requests for more than one node can never be satisfied locally and are
// rejected up front.
func (s *Scheduler) Submit(ctx context.Context, spec domain.JobSpec) (domain.JobHandle, error) {
	if spec.Request.Nodes > 1 {
		return domain.JobHandle{}, zerr.With(
			zerr.Wrap(domain.ErrUnsatisfiableAllocation, "local backend has a single node"),
			"nodes", spec.Request.Nodes,
		)
	}
	if len(spec.Request.IncludeNodes) > 0 || len(spec.Request.ExcludeNodes) > 0 {
		return domain.JobHandle{}, zerr.Wrap(domain.ErrUnsatisfiableAllocation, "local backend has no node lists")
	}

	out, err := openOutput(spec.OutputPath)
	if err != nil {
		return domain.JobHandle{}, err
	}

	// The job outlives the submitting call; cancellation goes through
	// Cancel, not through the caller's context.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	if spec.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(context.WithoutCancel(ctx), spec.Timeout)
	}

	s.mu.Lock()
	s.next++
	id := strconv.FormatInt(s.next, 10)
	j := &job{state: domain.JobPending, cancel: cancel}
	s.jobs[id] = j
	s.mu.Unlock()

	env := jobEnv(spec, id)

	go func() {
		defer cancel()

		s.setState(j, domain.JobRunning)
		execErr := s.executor.Execute(runCtx, spec.Commands, spec.WorkDir, env, out, out)
		if err := out.Close(); err != nil {
			s.logger.Error(zerr.Wrap(err, "failed to close output log"))
		}

		switch {
		case execErr == nil:
			s.setState(j, domain.JobComplete)
		case s.wasCancelled(j):
			s.setState(j, domain.JobCancelled)
		default:
			s.setState(j, domain.JobFailed)
		}
	}()

	s.logger.Info("started " + spec.InstanceID + " as local job " + id)
	return domain.JobHandle{Backend: Name, ID: id}, nil
}

// Poll reports the job's current state.
func (s *Scheduler) Poll(_ context.Context, handle domain.JobHandle) (domain.JobState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[handle.ID]
	if !ok {
		return domain.JobUnknown, zerr.With(domain.ErrJobNotFound, "job", handle.ID)
	}
	return j.state, nil
}

// Cancel stops the job's process tree by cancelling its context.
func (s *Scheduler) Cancel(_ context.Context, handle domain.JobHandle) error {
	s.mu.Lock()
	j, ok := s.jobs[handle.ID]
	if !ok {
		s.mu.Unlock()
		return zerr.With(domain.ErrJobNotFound, "job", handle.ID)
	}
	j.cancelled = true
	if j.state.Terminal() {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	j.cancel()
	return nil
}

func (s *Scheduler) setState(j *job, state domain.JobState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !j.state.Terminal() {
		j.state = state
	}
}

func (s *Scheduler) wasCancelled(j *job) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return j.cancelled
}

// jobEnv binds the deferred runtime facts for a single local node: one
// node, named after the host, with the local job id.
func jobEnv(spec domain.JobSpec, id string) map[string]string {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	facts := map[string]string{
		domain.FactNodes:    "1",
		domain.FactNodeList: hostname,
		domain.FactJobID:    id,
	}

	env := make(map[string]string, len(spec.Env)+len(spec.DeferredVars)+1)
	for k, v := range spec.Env {
		env[k] = v
	}
	env[domain.EnvVarName("BUILD")] = spec.ArtifactDir
	for name, fact := range spec.DeferredVars {
		if v, ok := facts[fact]; ok {
			env[domain.EnvVarName(name)] = v
		}
	}
	return env
}

func openOutput(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), domain.DirPerm); err != nil {
		return nil, zerr.Wrap(err, "failed to create run directory")
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, domain.FilePerm) //nolint:gosec // Path comes from the run layout
	if err != nil {
		return nil, zerr.Wrap(err, "failed to open output log")
	}
	return f, nil
}
