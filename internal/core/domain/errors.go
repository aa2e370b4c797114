package domain

import "go.trai.ch/zerr"

var (
	// ErrUndeclaredVariable is returned when a recipe references a variable
	// with no declaration.
	ErrUndeclaredVariable = zerr.New("variable referenced but not declared")

	// ErrDeferredInBuild is returned when a deferred variable is referenced
	// inside the build recipe. Deferred variables are run-only.
	ErrDeferredInBuild = zerr.New("deferred variable referenced in build recipe")

	// ErrEmptyVariable is returned when a non-deferred variable declares no values.
	ErrEmptyVariable = zerr.New("variable declares no values")

	// ErrDuplicateVariable is returned when a template declares a variable twice.
	ErrDuplicateVariable = zerr.New("variable declared more than once")

	// ErrMissingFact is returned when a deferred variable names no runtime fact.
	ErrMissingFact = zerr.New("deferred variable must name a runtime fact")

	// ErrUnknownFact is returned when a deferred variable names a fact no
	// backend provides.
	ErrUnknownFact = zerr.New("unknown runtime fact")

	// ErrTestNotFound is returned when a requested test is not in the suite.
	ErrTestNotFound = zerr.New("test not found in suite")

	// ErrNoTests is returned when a suite file declares no tests.
	ErrNoTests = zerr.New("suite declares no tests")

	// ErrBuildFailed is returned when a build recipe fails. Every instance
	// sharing the fingerprint receives it.
	ErrBuildFailed = zerr.New("build failed")

	// ErrMissingFingerprint is returned when an instance reaches the build
	// manager without a computed fingerprint.
	ErrMissingFingerprint = zerr.New("instance has no build fingerprint")

	// ErrLockTimeout is returned when a build lock could not be acquired
	// within the configured bound.
	ErrLockTimeout = zerr.New("timed out waiting for build lock")

	// ErrRegistryRead is returned when a build registry entry cannot be read.
	ErrRegistryRead = zerr.New("failed to read build registry entry")

	// ErrRegistryWrite is returned when a build registry entry cannot be written.
	ErrRegistryWrite = zerr.New("failed to write build registry entry")

	// ErrUnsatisfiableAllocation is returned when node constraints can be
	// proven unsatisfiable before submission.
	ErrUnsatisfiableAllocation = zerr.New("allocation request is unsatisfiable")

	// ErrUnknownScheduler is returned when a template names a scheduler
	// backend that is not configured.
	ErrUnknownScheduler = zerr.New("unknown scheduler backend")

	// ErrSubmitFailed is returned when a backend rejects a job submission.
	ErrSubmitFailed = zerr.New("job submission failed")

	// ErrJobNotFound is returned when a polled or cancelled job is unknown
	// to the backend.
	ErrJobNotFound = zerr.New("job not found")

	// ErrRunFailed is returned when the test command itself failed.
	ErrRunFailed = zerr.New("test run failed")

	// ErrCancelled is returned when an instance was cancelled.
	ErrCancelled = zerr.New("run cancelled")

	// ErrRecordRead is returned when a run record cannot be read.
	ErrRecordRead = zerr.New("failed to read run record")

	// ErrRecordWrite is returned when a run record cannot be appended.
	ErrRecordWrite = zerr.New("failed to write run record")

	// ErrRunNotFound is returned when a requested run id has no directory.
	ErrRunNotFound = zerr.New("run not found")

	// ErrConfigRead is returned when the suite file cannot be read.
	ErrConfigRead = zerr.New("failed to read suite file")

	// ErrConfigParse is returned when the suite file cannot be parsed.
	ErrConfigParse = zerr.New("failed to parse suite file")

	// ErrSourceNotFound is returned when a declared build source is missing.
	ErrSourceNotFound = zerr.New("build source not found")
)
