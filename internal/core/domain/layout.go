package domain

import "path/filepath"

const (
	// WorkDirName is the default working directory for gantry state.
	WorkDirName = ".gantry"

	// BuildsDirName holds artifact directories and registry entries, keyed
	// by fingerprint.
	BuildsDirName = "builds"

	// RunsDirName holds per-run directories, one subdirectory per instance.
	RunsDirName = "runs"

	// StatusFileName is the per-instance append-only run record.
	StatusFileName = "status.log"

	// CompleteFileName is the completion marker. Its existence is the sole
	// authoritative terminal-state signal.
	CompleteFileName = "RUN_COMPLETE"

	// JobFileName stores the scheduler job handle for an instance.
	JobFileName = "job_id"

	// OutputFileName receives the combined test output.
	OutputFileName = "output.log"

	// EntrySuffix is the build registry entry file suffix.
	EntrySuffix = ".json"

	// LockSuffix is the build lock file suffix.
	LockSuffix = ".lock"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)

// BuildsPath returns the builds directory under the given working directory.
func BuildsPath(workDir string) string {
	return filepath.Join(workDir, BuildsDirName)
}

// RunsPath returns the runs directory under the given working directory.
func RunsPath(workDir string) string {
	return filepath.Join(workDir, RunsDirName)
}

// RunPath returns the directory of one run.
func RunPath(workDir, runID string) string {
	return filepath.Join(workDir, RunsDirName, runID)
}
