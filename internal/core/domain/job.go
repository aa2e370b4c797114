package domain

import "time"

// JobState is the uniform state a scheduler backend reports for a job.
type JobState string

const (
	// JobPending indicates the job is queued but not yet running.
	JobPending JobState = "PENDING"
	// JobRunning indicates the job is executing.
	JobRunning JobState = "RUNNING"
	// JobComplete indicates the job finished with a zero exit status.
	JobComplete JobState = "COMPLETE"
	// JobFailed indicates the job finished with a non-zero exit status.
	JobFailed JobState = "FAILED"
	// JobCancelled indicates the job was cancelled before completion.
	JobCancelled JobState = "CANCELLED"
	// JobUnknown indicates the backend could not be reached or gave an
	// unrecognized answer. Callers retry with backoff; Unknown is never a
	// terminal conclusion.
	JobUnknown JobState = "UNKNOWN"
)

// Terminal reports whether the job state is final from the backend's view.
func (s JobState) Terminal() bool {
	switch s {
	case JobComplete, JobFailed, JobCancelled:
		return true
	}
	return false
}

// AllocationRequest describes the resources a job needs. Adapters translate
// it into backend-specific directives and must reject requests that are
// statically unsatisfiable instead of submitting them.
type AllocationRequest struct {
	Nodes        int
	Partition    string
	IncludeNodes []string
	ExcludeNodes []string
}

// JobHandle identifies a submitted job. It is durable: the backend name and
// id are enough to poll or cancel the job from a different process.
type JobHandle struct {
	Backend string `json:"backend"`
	ID      string `json:"id"`
}

// JobSpec is everything a scheduler backend needs to run one instance.
type JobSpec struct {
	InstanceID string
	Request    AllocationRequest

	Commands []string
	Env      map[string]string

	// DeferredVars maps variable names to runtime facts the adapter must
	// export as GANTRY_<name> before the commands run.
	DeferredVars map[string]string

	// WorkDir is the instance's run directory; commands execute there.
	WorkDir string
	// ArtifactDir is the shared build artifact, exported as GANTRY_BUILD.
	ArtifactDir string
	// OutputPath receives the combined test output.
	OutputPath string
	// Timeout bounds the run; zero means no limit.
	Timeout time.Duration
}
