package lifecycle_test

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"

	"github.com/gantryproject/gantry/internal/adapters/logger"
	"github.com/gantryproject/gantry/internal/adapters/registry"
	"github.com/gantryproject/gantry/internal/adapters/statusfile"
	"github.com/gantryproject/gantry/internal/adapters/telemetry"
	"github.com/gantryproject/gantry/internal/core/domain"
	"github.com/gantryproject/gantry/internal/core/ports"
	"github.com/gantryproject/gantry/internal/core/ports/mocks"
	"github.com/gantryproject/gantry/internal/engine/build"
	"github.com/gantryproject/gantry/internal/engine/lifecycle"
)

// scriptedExecutor counts build attempts and fails them on demand, either
// for every fingerprint (err) or for one whose scratch dir matches failFor.
type scriptedExecutor struct {
	mu       sync.Mutex
	attempts int
	err      error
	failFor  string
}

func (e *scriptedExecutor) Execute(_ context.Context, _ []string, dir string, _ map[string]string, _, _ io.Writer) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.attempts++
	if e.failFor != "" && strings.Contains(dir, e.failFor) {
		return zerr.New("make: *** [all] Error 2")
	}
	return e.err
}

type harness struct {
	machine  *lifecycle.Machine
	recorder ports.RunRecorder
	executor *scriptedExecutor
	runRoot  string
}

func newHarness(t *testing.T, sched ports.Scheduler) *harness {
	t.Helper()
	log := logger.New()
	executor := &scriptedExecutor{}

	reg, err := registry.New(t.TempDir(), log, registry.Options{
		LockWait:          time.Minute,
		StaleAfter:        time.Minute,
		PollInterval:      time.Millisecond,
		HeartbeatInterval: time.Second,
	})
	require.NoError(t, err)

	manager := build.NewManager(reg, executor, log, telemetry.NewNoOpTracer())
	recorder := statusfile.New()

	cfg := lifecycle.Config{
		PollInterval:      time.Millisecond,
		UnknownBackoff:    time.Millisecond,
		UnknownBackoffMax: 4 * time.Millisecond,
		CancelGrace:       50 * time.Millisecond,
	}

	schedulers := map[string]ports.Scheduler{}
	if sched != nil {
		schedulers["mock"] = sched
	}

	return &harness{
		machine:  lifecycle.NewMachine(manager, schedulers, recorder, log, telemetry.NewNoOpTracer(), cfg),
		recorder: recorder,
		executor: executor,
		runRoot:  t.TempDir(),
	}
}

func instance(id string, fp domain.Fingerprint) *domain.Instance {
	return &domain.Instance{
		ID: id,
		Template: &domain.Template{
			Suite:     "smoke",
			Name:      "stream",
			Scheduler: "mock",
			Nodes:     1,
		},
		BuildCommands: []string{"make"},
		RunCommands:   []string{"./stream"},
		Fingerprint:   fp,
	}
}

func (h *harness) states(t *testing.T, runDir string) []domain.State {
	t.Helper()
	history, err := h.recorder.History(runDir)
	require.NoError(t, err)
	states := make([]domain.State, len(history))
	for i, e := range history {
		states[i] = e.State
	}
	return states
}

func mockScheduler(t *testing.T) *mocks.MockScheduler {
	t.Helper()
	sched := mocks.NewMockScheduler(gomock.NewController(t))
	sched.EXPECT().Name().Return("mock").AnyTimes()
	return sched
}

var handle = domain.JobHandle{Backend: "mock", ID: "17"}

func TestRun_SuccessPath(t *testing.T) {
	sched := mockScheduler(t)
	gomock.InOrder(
		sched.EXPECT().Submit(gomock.Any(), gomock.Any()).Return(handle, nil),
		sched.EXPECT().Poll(gomock.Any(), handle).Return(domain.JobPending, nil),
		sched.EXPECT().Poll(gomock.Any(), handle).Return(domain.JobRunning, nil),
		sched.EXPECT().Poll(gomock.Any(), handle).Return(domain.JobComplete, nil),
	)

	h := newHarness(t, sched)
	inst := instance("smoke.stream.0000", "fp-success")
	runDir := filepath.Join(h.runRoot, inst.ID)

	state, err := h.machine.Run(context.Background(), inst, runDir, lifecycle.Options{})
	require.NoError(t, err)
	assert.Equal(t, domain.StateComplete, state)

	// Per-instance transitions are strictly ordered, with no duplicates.
	assert.Equal(t, []domain.State{
		domain.StateCreated,
		domain.StateBuilding,
		domain.StateBuilt,
		domain.StateScheduling,
		domain.StateScheduled,
		domain.StateRunning,
		domain.StateComplete,
	}, h.states(t, runDir))

	marker, err := h.recorder.Completion(runDir)
	require.NoError(t, err)
	require.NotNil(t, marker)
	assert.Equal(t, domain.StateComplete, marker.State)
	assert.Empty(t, marker.Error)

	// The scheduler handle was persisted before the SCHEDULED transition.
	saved, err := h.recorder.LoadJob(runDir)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, handle, *saved)
}

func TestRun_CachedBuildSkipsBuildingState(t *testing.T) {
	sched := mockScheduler(t)
	sched.EXPECT().Submit(gomock.Any(), gomock.Any()).Return(handle, nil).Times(2)
	sched.EXPECT().Poll(gomock.Any(), handle).Return(domain.JobComplete, nil).Times(2)

	h := newHarness(t, sched)

	first := instance("smoke.stream.0000", "fp-shared")
	firstDir := filepath.Join(h.runRoot, first.ID)
	_, err := h.machine.Run(context.Background(), first, firstDir, lifecycle.Options{})
	require.NoError(t, err)

	second := instance("smoke.stream.0001", "fp-shared")
	secondDir := filepath.Join(h.runRoot, second.ID)
	state, err := h.machine.Run(context.Background(), second, secondDir, lifecycle.Options{})
	require.NoError(t, err)
	assert.Equal(t, domain.StateComplete, state)

	assert.Equal(t, 1, h.executor.attempts, "the shared fingerprint builds once")
	assert.Equal(t, []domain.State{
		domain.StateCreated,
		domain.StateBuilt,
		domain.StateScheduling,
		domain.StateScheduled,
		domain.StateComplete,
	}, h.states(t, secondDir), "a complete artifact transitions CREATED straight to BUILT")
}

func TestRun_SharedBuildFailureFailsEveryInstance(t *testing.T) {
	h := newHarness(t, mockScheduler(t))
	h.executor.err = zerr.New("make: *** [all] Error 2")

	var markers []*domain.CompletionMarker
	for _, id := range []string{"smoke.stream.0000", "smoke.stream.0001"} {
		inst := instance(id, "fp-broken")
		runDir := filepath.Join(h.runRoot, id)

		state, err := h.machine.Run(context.Background(), inst, runDir, lifecycle.Options{})
		require.ErrorIs(t, err, domain.ErrBuildFailed)
		assert.Equal(t, domain.StateBuildFailed, state)

		marker, err := h.recorder.Completion(runDir)
		require.NoError(t, err)
		require.NotNil(t, marker)
		assert.Equal(t, domain.StateBuildFailed, marker.State)
		markers = append(markers, marker)
	}

	assert.Equal(t, 1, h.executor.attempts, "waiters inherit the failure without a retry")
	assert.Equal(t, markers[0].Error, markers[1].Error, "both instances record the same cause")
	assert.Contains(t, markers[0].Error, "make: *** [all] Error 2")
}

func TestRun_BuildOnlyStopsAfterBuild(t *testing.T) {
	h := newHarness(t, mockScheduler(t))
	inst := instance("smoke.stream.0000", "fp-buildonly")
	runDir := filepath.Join(h.runRoot, inst.ID)

	state, err := h.machine.Run(context.Background(), inst, runDir, lifecycle.Options{BuildOnly: true})
	require.NoError(t, err)
	assert.Equal(t, domain.StateComplete, state)

	marker, err := h.recorder.Completion(runDir)
	require.NoError(t, err)
	require.NotNil(t, marker)
	assert.Equal(t, domain.StateComplete, marker.State)
}

func TestRun_UnknownPollsProduceNoTransitions(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		sched := mockScheduler(t)
		gomock.InOrder(
			sched.EXPECT().Submit(gomock.Any(), gomock.Any()).Return(handle, nil),
			sched.EXPECT().Poll(gomock.Any(), handle).Return(domain.JobUnknown, nil).Times(3),
			sched.EXPECT().Poll(gomock.Any(), handle).Return(domain.JobRunning, nil),
			sched.EXPECT().Poll(gomock.Any(), handle).Return(domain.JobComplete, nil),
		)

		h := newHarness(t, sched)
		inst := instance("smoke.stream.0000", "fp-unknown")
		runDir := filepath.Join(h.runRoot, inst.ID)

		state, err := h.machine.Run(context.Background(), inst, runDir, lifecycle.Options{})
		require.NoError(t, err)
		assert.Equal(t, domain.StateComplete, state)

		// The instance stays SCHEDULED through the UNKNOWN reports: exactly
		// one SCHEDULED entry, one RUNNING entry, no duplicates in between.
		assert.Equal(t, []domain.State{
			domain.StateCreated,
			domain.StateBuilding,
			domain.StateBuilt,
			domain.StateScheduling,
			domain.StateScheduled,
			domain.StateRunning,
			domain.StateComplete,
		}, h.states(t, runDir))
	})
}

func TestRun_CancellationConfirmedByBackend(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())

		sched := mockScheduler(t)
		gomock.InOrder(
			sched.EXPECT().Submit(gomock.Any(), gomock.Any()).Return(handle, nil),
			sched.EXPECT().Poll(gomock.Any(), handle).DoAndReturn(
				func(context.Context, domain.JobHandle) (domain.JobState, error) {
					cancel()
					return domain.JobRunning, nil
				}),
			sched.EXPECT().Cancel(gomock.Any(), handle).Return(nil),
			sched.EXPECT().Poll(gomock.Any(), handle).Return(domain.JobCancelled, nil),
		)

		h := newHarness(t, sched)
		inst := instance("smoke.stream.0000", "fp-cancel")
		runDir := filepath.Join(h.runRoot, inst.ID)

		state, err := h.machine.Run(ctx, inst, runDir, lifecycle.Options{})
		require.ErrorIs(t, err, domain.ErrCancelled)
		assert.Equal(t, domain.StateCancelled, state)

		history, err := h.recorder.History(runDir)
		require.NoError(t, err)
		last := history[len(history)-1]
		assert.Equal(t, domain.StateCancelled, last.State)
		assert.Contains(t, last.Message, "cancellation confirmed")

		marker, err := h.recorder.Completion(runDir)
		require.NoError(t, err)
		require.NotNil(t, marker)
		assert.Equal(t, domain.StateCancelled, marker.State)
	})
}

func TestRun_CancellationForceMarkedAfterGrace(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())

		sched := mockScheduler(t)
		sched.EXPECT().Submit(gomock.Any(), gomock.Any()).Return(handle, nil)
		first := sched.EXPECT().Poll(gomock.Any(), handle).DoAndReturn(
			func(context.Context, domain.JobHandle) (domain.JobState, error) {
				cancel()
				return domain.JobRunning, nil
			})
		// The backend never confirms: every later poll reports UNKNOWN.
		sched.EXPECT().Poll(gomock.Any(), handle).Return(domain.JobUnknown, nil).After(first).AnyTimes()
		sched.EXPECT().Cancel(gomock.Any(), handle).Return(nil)

		h := newHarness(t, sched)
		inst := instance("smoke.stream.0000", "fp-grace")
		runDir := filepath.Join(h.runRoot, inst.ID)

		state, err := h.machine.Run(ctx, inst, runDir, lifecycle.Options{})
		require.ErrorIs(t, err, domain.ErrCancelled)
		assert.Equal(t, domain.StateCancelled, state)

		history, err := h.recorder.History(runDir)
		require.NoError(t, err)
		assert.Contains(t, history[len(history)-1].Message, "force-marked")
	})
}

func TestRun_CompletedInstanceIsNotReRun(t *testing.T) {
	sched := mockScheduler(t)
	gomock.InOrder(
		sched.EXPECT().Submit(gomock.Any(), gomock.Any()).Return(handle, nil),
		sched.EXPECT().Poll(gomock.Any(), handle).Return(domain.JobComplete, nil),
	)

	h := newHarness(t, sched)
	inst := instance("smoke.stream.0000", "fp-restart")
	runDir := filepath.Join(h.runRoot, inst.ID)

	_, err := h.machine.Run(context.Background(), inst, runDir, lifecycle.Options{})
	require.NoError(t, err)
	before := h.states(t, runDir)

	// A restarted orchestrator sees the completion marker and returns the
	// recorded terminal state without touching the scheduler again.
	state, err := h.machine.Run(context.Background(), inst, runDir, lifecycle.Options{})
	require.NoError(t, err)
	assert.Equal(t, domain.StateComplete, state)
	assert.Equal(t, before, h.states(t, runDir), "no new run record entries on restart")
}

func TestRun_UnknownSchedulerIsTerminalError(t *testing.T) {
	h := newHarness(t, nil)
	inst := instance("smoke.stream.0000", "fp-nosched")
	runDir := filepath.Join(h.runRoot, inst.ID)

	state, err := h.machine.Run(context.Background(), inst, runDir, lifecycle.Options{})
	require.ErrorIs(t, err, domain.ErrUnknownScheduler)
	assert.Equal(t, domain.StateError, state)

	// Internal errors still produce the completion marker.
	marker, merr := h.recorder.Completion(runDir)
	require.NoError(t, merr)
	require.NotNil(t, marker)
	assert.Equal(t, domain.StateError, marker.State)
	assert.NotEmpty(t, marker.Error)
}
