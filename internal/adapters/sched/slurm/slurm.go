// Package slurm implements the scheduler port on top of the Slurm command
// line tools (sbatch, squeue, sacct, scancel).
package slurm

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gantryproject/gantry/internal/core/domain"
	"github.com/gantryproject/gantry/internal/core/ports"
	"go.trai.ch/zerr"
)

// Name is the backend name templates reference.
const Name = "slurm"

// scriptFileName is the batch script written into each run directory.
const scriptFileName = "job.sh"

var _ ports.Scheduler = (*Scheduler)(nil)

// submitPattern extracts the job id from sbatch's acceptance line.
var submitPattern = regexp.MustCompile(`Submitted batch job (\d+)`)

// CommandRunner executes one backend command and returns its combined
// output. It exists so tests can drive the adapter without a Slurm
// installation.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// ExecRunner is the production CommandRunner using os/exec.
type ExecRunner struct{}

// Run executes the command and returns its combined output.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	return string(out), err
}

// Scheduler submits jobs to Slurm and mirrors Slurm job states onto the
// uniform job states.
type Scheduler struct {
	runner CommandRunner
	logger ports.Logger
}

// New creates a Slurm scheduler using the given runner.
func New(runner CommandRunner, logger ports.Logger) *Scheduler {
	return &Scheduler{runner: runner, logger: logger}
}

// Name returns the backend name.
func (s *Scheduler) Name() string {
	return Name
}

// Submit writes the batch script into the run directory and hands it to
// sbatch. Statically unsatisfiable allocation requests are rejected before
// anything reaches the queue.
func (s *Scheduler) Submit(ctx context.Context, spec domain.JobSpec) (domain.JobHandle, error) {
	if err := validateRequest(spec.Request); err != nil {
		return domain.JobHandle{}, err
	}

	scriptPath := filepath.Join(spec.WorkDir, scriptFileName)
	if err := os.WriteFile(scriptPath, []byte(Script(spec)), 0o700); err != nil { //nolint:gosec // Script must be executable
		return domain.JobHandle{}, zerr.Wrap(err, "failed to write batch script")
	}

	out, err := s.runner.Run(ctx, "sbatch", scriptPath)
	if err != nil {
		return domain.JobHandle{}, zerr.With(
			zerr.Wrap(domain.ErrSubmitFailed, strings.TrimSpace(out)),
			"instance", spec.InstanceID,
		)
	}

	match := submitPattern.FindStringSubmatch(out)
	if match == nil {
		return domain.JobHandle{}, zerr.With(
			zerr.Wrap(domain.ErrSubmitFailed, "sbatch output did not contain a job id"),
			"output", strings.TrimSpace(out),
		)
	}

	s.logger.Info("submitted " + spec.InstanceID + " as slurm job " + match[1])
	return domain.JobHandle{Backend: Name, ID: match[1]}, nil
}

// Poll asks squeue for the job's state, falling back to sacct once the job
// has left the queue. An unreachable backend reports UNKNOWN, never an
// error, so callers keep retrying.
func (s *Scheduler) Poll(ctx context.Context, handle domain.JobHandle) (domain.JobState, error) {
	out, err := s.runner.Run(ctx, "squeue", "-h", "-j", handle.ID, "-o", "%T")
	if err == nil {
		if state := strings.TrimSpace(out); state != "" {
			return mapState(state), nil
		}
	}

	// Finished jobs disappear from squeue; sacct keeps their final state.
	out, err = s.runner.Run(ctx, "sacct", "-n", "-X", "-j", handle.ID, "-o", "State")
	if err != nil {
		return domain.JobUnknown, nil
	}

	state := strings.TrimSpace(out)
	if state == "" {
		return domain.JobUnknown, nil
	}
	return mapState(state), nil
}

// Cancel asks Slurm to terminate the job.
func (s *Scheduler) Cancel(ctx context.Context, handle domain.JobHandle) error {
	out, err := s.runner.Run(ctx, "scancel", handle.ID)
	if err != nil {
		return zerr.With(
			zerr.Wrap(err, "scancel failed"),
			"job", handle.ID,
			"output", strings.TrimSpace(out),
		)
	}
	return nil
}

// validateRequest rejects allocation requests no cluster state could ever
// satisfy.
func validateRequest(req domain.AllocationRequest) error {
	if len(req.IncludeNodes) > 0 && len(req.IncludeNodes) < req.Nodes {
		return zerr.With(
			zerr.Wrap(domain.ErrUnsatisfiableAllocation, "include list is smaller than the node count"),
			"nodes", req.Nodes,
			"include", strings.Join(req.IncludeNodes, ","),
		)
	}

	excluded := make(map[string]struct{}, len(req.ExcludeNodes))
	for _, n := range req.ExcludeNodes {
		excluded[n] = struct{}{}
	}
	for _, n := range req.IncludeNodes {
		if _, ok := excluded[n]; ok {
			return zerr.With(
				zerr.Wrap(domain.ErrUnsatisfiableAllocation, "node is both included and excluded"),
				"node", n,
			)
		}
	}
	return nil
}

// mapState maps a Slurm state string onto the uniform job states. Slurm
// suffixes cancelled states with the cancelling user, so the check is a
// prefix match.
func mapState(state string) domain.JobState {
	state = strings.ToUpper(strings.Fields(state)[0])

	switch {
	case strings.HasPrefix(state, "CANCELLED"):
		return domain.JobCancelled
	}

	switch state {
	case "PENDING", "CONFIGURING", "REQUEUED", "SUSPENDED":
		return domain.JobPending
	case "RUNNING", "COMPLETING":
		return domain.JobRunning
	case "COMPLETED":
		return domain.JobComplete
	case "FAILED", "TIMEOUT", "NODE_FAIL", "OUT_OF_MEMORY", "BOOT_FAIL", "DEADLINE", "PREEMPTED":
		return domain.JobFailed
	default:
		return domain.JobUnknown
	}
}
