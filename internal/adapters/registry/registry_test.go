package registry_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gantryproject/gantry/internal/adapters/logger"
	"github.com/gantryproject/gantry/internal/adapters/registry"
	"github.com/gantryproject/gantry/internal/core/domain"
)

const fp = domain.Fingerprint("00112233445566aa")

func newRegistry(t *testing.T, opts registry.Options) (*registry.Registry, string) {
	t.Helper()
	dir := t.TempDir()
	reg, err := registry.New(dir, logger.New(), opts)
	require.NoError(t, err)
	return reg, dir
}

func fastOptions() registry.Options {
	return registry.Options{
		LockWait:          5 * time.Second,
		StaleAfter:        200 * time.Millisecond,
		PollInterval:      5 * time.Millisecond,
		HeartbeatInterval: 20 * time.Millisecond,
	}
}

func TestGetAbsent(t *testing.T) {
	reg, _ := newRegistry(t, registry.DefaultOptions())

	entry, err := reg.Get(fp)
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestPutGetRoundtrip(t *testing.T) {
	reg, _ := newRegistry(t, registry.DefaultOptions())

	want := domain.BuildEntry{
		Fingerprint: fp,
		State:       domain.BuildComplete,
		Path:        reg.ArtifactPath(fp),
		Owner:       reg.Owner(),
		FinishedAt:  time.Now().UTC(),
	}
	require.NoError(t, reg.Put(want))

	got, err := reg.Get(fp)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want.State, got.State)
	assert.Equal(t, want.Path, got.Path)
	assert.Equal(t, want.Owner, got.Owner)
}

func TestInvalidateRemovesEntryAndArtifact(t *testing.T) {
	reg, _ := newRegistry(t, registry.DefaultOptions())

	require.NoError(t, os.MkdirAll(reg.ArtifactPath(fp), 0o750))
	require.NoError(t, reg.Put(domain.BuildEntry{Fingerprint: fp, State: domain.BuildComplete}))

	require.NoError(t, reg.Invalidate(fp))

	entry, err := reg.Get(fp)
	require.NoError(t, err)
	assert.Nil(t, entry)
	_, err = os.Stat(reg.ArtifactPath(fp))
	assert.True(t, os.IsNotExist(err))

	// Invalidating an absent fingerprint is not an error.
	require.NoError(t, reg.Invalidate(fp))
}

func TestLockIsExclusive(t *testing.T) {
	reg, _ := newRegistry(t, fastOptions())
	ctx := context.Background()

	lock, err := reg.Lock(ctx, fp)
	require.NoError(t, err)

	var holders int32
	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lk, err := reg.Lock(ctx, fp)
			if err != nil {
				return
			}
			n := atomic.AddInt32(&holders, 1)
			assert.EqualValues(t, 1, n, "two goroutines held the lock at once")
			time.Sleep(10 * time.Millisecond)
			atomic.AddInt32(&holders, -1)
			_ = lk.Release()
		}()
	}

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, lock.Release())
	wg.Wait()
}

func TestLockTimesOut(t *testing.T) {
	opts := fastOptions()
	opts.LockWait = 50 * time.Millisecond
	opts.StaleAfter = time.Hour
	reg, _ := newRegistry(t, opts)

	lock, err := reg.Lock(context.Background(), fp)
	require.NoError(t, err)
	defer func() { _ = lock.Release() }()

	_, err = reg.Lock(context.Background(), fp)
	require.ErrorIs(t, err, domain.ErrLockTimeout)
}

func TestLockRespectsContext(t *testing.T) {
	opts := fastOptions()
	opts.StaleAfter = time.Hour
	reg, _ := newRegistry(t, opts)

	lock, err := reg.Lock(context.Background(), fp)
	require.NoError(t, err)
	defer func() { _ = lock.Release() }()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err = reg.Lock(ctx, fp)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestStaleLockIsReclaimed(t *testing.T) {
	reg, dir := newRegistry(t, fastOptions())

	// Simulate a lock left behind by a dead owner: valid metadata, but a
	// heartbeat far older than the staleness bound.
	meta, err := json.Marshal(map[string]any{
		"owner":     "deadhost:1:uuid",
		"heartbeat": time.Now().Add(-time.Hour),
	})
	require.NoError(t, err)
	lockPath := filepath.Join(dir, string(fp)+domain.LockSuffix)
	require.NoError(t, os.WriteFile(lockPath, meta, 0o644))

	lock, err := reg.Lock(context.Background(), fp)
	require.NoError(t, err, "stale lock must be reclaimed, not deadlock")
	require.NoError(t, lock.Release())
}

func TestStaleLockReclaimHasSingleWinner(t *testing.T) {
	reg, dir := newRegistry(t, fastOptions())

	// Several waiters poll the same stale lock and cross the staleness
	// bound together. Exactly one may take it over: a second remove after
	// the winner re-created the lock would grant it twice.
	meta, err := json.Marshal(map[string]any{
		"owner":     "deadhost:1:uuid",
		"heartbeat": time.Now().Add(-time.Hour),
	})
	require.NoError(t, err)
	lockPath := filepath.Join(dir, string(fp)+domain.LockSuffix)
	require.NoError(t, os.WriteFile(lockPath, meta, 0o644))

	var holders int32
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lk, err := reg.Lock(context.Background(), fp)
			if err != nil {
				return
			}
			n := atomic.AddInt32(&holders, 1)
			assert.EqualValues(t, 1, n, "stale-lock takeover granted the lock twice")
			time.Sleep(10 * time.Millisecond)
			atomic.AddInt32(&holders, -1)
			_ = lk.Release()
		}()
	}
	wg.Wait()
}

func TestLiveLockIsNotReclaimed(t *testing.T) {
	opts := fastOptions()
	opts.LockWait = 150 * time.Millisecond
	reg, _ := newRegistry(t, opts)

	// The holder's heartbeat refresher keeps the lock fresh well past the
	// staleness bound, so a waiter times out instead of stealing it.
	lock, err := reg.Lock(context.Background(), fp)
	require.NoError(t, err)
	defer func() { _ = lock.Release() }()

	_, err = reg.Lock(context.Background(), fp)
	require.ErrorIs(t, err, domain.ErrLockTimeout)
}

func TestReleaseIsIdempotent(t *testing.T) {
	reg, _ := newRegistry(t, fastOptions())

	lock, err := reg.Lock(context.Background(), fp)
	require.NoError(t, err)
	require.NoError(t, lock.Release())
	require.NoError(t, lock.Release())
}
