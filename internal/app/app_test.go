package app_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gantryproject/gantry/internal/adapters/config"
	"github.com/gantryproject/gantry/internal/adapters/fs"
	"github.com/gantryproject/gantry/internal/adapters/logger"
	"github.com/gantryproject/gantry/internal/adapters/sched/local"
	"github.com/gantryproject/gantry/internal/adapters/shell"
	"github.com/gantryproject/gantry/internal/adapters/statusfile"
	"github.com/gantryproject/gantry/internal/adapters/telemetry"
	"github.com/gantryproject/gantry/internal/app"
	"github.com/gantryproject/gantry/internal/core/domain"
	"github.com/gantryproject/gantry/internal/core/ports"
	"github.com/gantryproject/gantry/internal/engine/resolver"
)

func newTestApp(t *testing.T) *app.App {
	t.Helper()
	log := logger.New()
	executor := shell.NewExecutor(log)
	schedulers := map[string]ports.Scheduler{
		local.Name: local.New(executor, log),
	}
	return app.New(
		config.NewLoader(log),
		resolver.New(),
		fs.NewHasher(),
		executor,
		statusfile.New(),
		schedulers,
		log,
		telemetry.NewNoOpTracer(),
	)
}

func writeSuite(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gantry.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const mixedSuite = `
version: "1"
suite: smoke
tests:
  pass:
    scheduler: local
    variables:
      - name: size
        values: ["1", "2"]
    build:
      commands:
        - "true"
    run:
      commands:
        - "echo size {{size}}"
  fail:
    scheduler: local
    build:
      commands:
        - "true"
    run:
      commands:
        - "exit 3"
`

const singleSuite = `
version: "1"
suite: smoke
tests:
  pass:
    scheduler: local
    build:
      commands:
        - "true"
    run:
      commands:
        - "echo ok"
`

func TestRun_EndToEnd(t *testing.T) {
	a := newTestApp(t)
	work := t.TempDir()

	result, err := a.Run(context.Background(), app.RunOptions{
		File:    writeSuite(t, mixedSuite),
		WorkDir: work,
	})
	require.NotNil(t, result)
	require.Error(t, err, "the failing instance surfaces as a joined error")
	assert.ErrorIs(t, err, domain.ErrRunFailed)
	assert.NotEmpty(t, result.RunID)

	assert.Equal(t, map[string]domain.State{
		"smoke.fail.0000": domain.StateRunFailed,
		"smoke.pass.0000": domain.StateComplete,
		"smoke.pass.0001": domain.StateComplete,
	}, result.States)

	// The run commands executed with the variable substituted.
	runRoot := domain.RunPath(filepath.Join(work, domain.WorkDirName), result.RunID)
	out, rerr := os.ReadFile(filepath.Join(runRoot, "smoke.pass.0001", domain.OutputFileName))
	require.NoError(t, rerr)
	assert.Contains(t, string(out), "size 2")

	// Status reads the same outcome back from disk.
	statuses, serr := a.Status(work, result.RunID)
	require.NoError(t, serr)
	require.Len(t, statuses, 3)
	assert.Equal(t, "smoke.fail.0000", statuses[0].ID)
	assert.Equal(t, domain.StateRunFailed, statuses[0].State)
	assert.NotEmpty(t, statuses[0].Error)
	assert.Equal(t, domain.StateComplete, statuses[1].State)
	assert.Empty(t, statuses[1].Error)
}

func TestRun_SecondRunReusesArtifact(t *testing.T) {
	a := newTestApp(t)
	work := t.TempDir()
	file := writeSuite(t, singleSuite)

	first, err := a.Run(context.Background(), app.RunOptions{File: file, WorkDir: work})
	require.NoError(t, err)

	second, err := a.Run(context.Background(), app.RunOptions{File: file, WorkDir: work})
	require.NoError(t, err)
	require.NotEqual(t, first.RunID, second.RunID)

	// The second run finds the artifact complete and never enters BUILDING.
	stateDir := filepath.Join(work, domain.WorkDirName)
	runDir := filepath.Join(domain.RunPath(stateDir, second.RunID), "smoke.pass.0000")
	history, err := statusfile.New().History(runDir)
	require.NoError(t, err)
	for _, entry := range history {
		assert.NotEqual(t, domain.StateBuilding, entry.State)
	}
}

func TestRun_BuildOnly(t *testing.T) {
	a := newTestApp(t)
	work := t.TempDir()

	result, err := a.Run(context.Background(), app.RunOptions{
		File:      writeSuite(t, singleSuite),
		WorkDir:   work,
		BuildOnly: true,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StateComplete, result.States["smoke.pass.0000"])

	// Nothing was scheduled, so no output log exists.
	stateDir := filepath.Join(work, domain.WorkDirName)
	runDir := filepath.Join(domain.RunPath(stateDir, result.RunID), "smoke.pass.0000")
	_, serr := os.Stat(filepath.Join(runDir, domain.OutputFileName))
	assert.True(t, os.IsNotExist(serr))
}

func TestRun_TestNotFound(t *testing.T) {
	a := newTestApp(t)

	_, err := a.Run(context.Background(), app.RunOptions{
		File:    writeSuite(t, singleSuite),
		WorkDir: t.TempDir(),
		Tests:   []string{"nope"},
	})
	assert.ErrorIs(t, err, domain.ErrTestNotFound)
}

func TestRun_SelectsByQualifiedName(t *testing.T) {
	a := newTestApp(t)

	result, err := a.Run(context.Background(), app.RunOptions{
		File:      writeSuite(t, mixedSuite),
		WorkDir:   t.TempDir(),
		Tests:     []string{"smoke.pass"},
		BuildOnly: true,
	})
	require.NoError(t, err)
	assert.Len(t, result.States, 2)
	assert.Contains(t, result.States, "smoke.pass.0000")
	assert.NotContains(t, result.States, "smoke.fail.0000")
}

func TestStatus_UnknownRun(t *testing.T) {
	a := newTestApp(t)
	_, err := a.Status(t.TempDir(), "no-such-run")
	assert.ErrorIs(t, err, domain.ErrRunNotFound)
}

func TestCancel_UnknownRun(t *testing.T) {
	a := newTestApp(t)
	err := a.Cancel(context.Background(), t.TempDir(), "no-such-run")
	assert.ErrorIs(t, err, domain.ErrRunNotFound)
}
