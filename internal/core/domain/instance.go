package domain

// State is one step of an instance's lifecycle.
type State string

const (
	// StateCreated indicates the instance exists but no work has started.
	StateCreated State = "CREATED"
	// StateBuilding indicates the instance's build has been requested.
	StateBuilding State = "BUILDING"
	// StateBuildFailed is terminal: the build failed, either our own
	// attempt or an inherited failure from a shared fingerprint.
	StateBuildFailed State = "BUILD_FAILED"
	// StateBuilt indicates a complete artifact exists for the fingerprint.
	StateBuilt State = "BUILT"
	// StateScheduling indicates the allocation request is being submitted.
	StateScheduling State = "SCHEDULING"
	// StateScheduled indicates the backend accepted the job.
	StateScheduled State = "SCHEDULED"
	// StateRunning indicates the backend reports the job running.
	StateRunning State = "RUNNING"
	// StateComplete is terminal: the test command exited successfully.
	StateComplete State = "COMPLETE"
	// StateRunFailed is terminal: the test command itself failed.
	StateRunFailed State = "RUN_FAILED"
	// StateCancelled is terminal: the instance was cancelled.
	StateCancelled State = "CANCELLED"
	// StateError is terminal: an internal failure not attributable to the
	// test itself.
	StateError State = "ERROR"
)

// Terminal reports whether the state ends an instance's lifecycle.
func (s State) Terminal() bool {
	switch s {
	case StateBuildFailed, StateComplete, StateRunFailed, StateCancelled, StateError:
		return true
	}
	return false
}

// Fingerprint identifies a unique set of build inputs. Instances with equal
// fingerprints share exactly one artifact directory.
type Fingerprint string

// Instance is one concrete test derived from a Template by fixing one
// combination of its permutable variables. Instances are created fresh for
// every invocation; only build artifacts are shared across runs.
type Instance struct {
	// ID is deterministic: re-expanding the same template yields the same
	// IDs in the same order.
	ID string

	Template *Template

	// Vars is the full variable binding. Deferred entries stay symbolic.
	Vars map[string]Value

	// BuildCommands and BuildEnv are the substituted build recipe. Deferred
	// variables never appear here.
	BuildCommands []string
	BuildEnv      map[string]string

	// RunCommands and RunEnv are the substituted run recipe. Deferred
	// variables render as ${GANTRY_<name>} environment references.
	RunCommands []string
	RunEnv      map[string]string

	// DeferredVars maps deferred variable names to the runtime fact each
	// resolves to.
	DeferredVars map[string]string

	// Fingerprint is computed once after expansion, before any build is
	// requested.
	Fingerprint Fingerprint
}
