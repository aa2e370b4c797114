package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/gantryproject/gantry/internal/core/domain"
	"github.com/gantryproject/gantry/internal/core/ports"
	"go.trai.ch/zerr"
)

// lockMeta is the metadata embedded in a lock file. The heartbeat is what
// waiters use to tell a slow build from a dead owner: the holder refreshes
// it periodically, so only an abandoned lock goes stale.
type lockMeta struct {
	Owner     string    `json:"owner"`
	Heartbeat time.Time `json:"heartbeat"`
}

// Lock acquires the exclusive build lock for the fingerprint. The lock is
// an atomic create-or-fail file, which coordinates builders across separate
// processes sharing the working directory, not just separate goroutines.
func (r *Registry) Lock(ctx context.Context, fp domain.Fingerprint) (ports.BuildLock, error) {
	path := r.lockPath(fp)
	deadline := time.Now().Add(r.opts.LockWait)

	for {
		lk, err := r.tryLock(path)
		if err == nil {
			return lk, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, zerr.Wrap(err, "failed to create build lock")
		}

		if r.reclaimIfStale(path, fp) {
			continue
		}

		if time.Now().After(deadline) {
			return nil, zerr.With(domain.ErrLockTimeout, "fingerprint", string(fp))
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.opts.PollInterval):
		}
	}
}

// tryLock attempts the atomic create. On success the lock file carries our
// owner identity and a fresh heartbeat, and a refresher goroutine keeps the
// heartbeat current until release.
func (r *Registry) tryLock(path string) (*fileLock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, domain.FilePerm) //nolint:gosec // Registry-internal path
	if err != nil {
		return nil, err
	}

	meta := lockMeta{Owner: r.owner, Heartbeat: time.Now()}
	data, _ := json.Marshal(meta)
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return nil, err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return nil, err
	}

	lk := &fileLock{path: path, owner: r.owner, stop: make(chan struct{})}
	go lk.refresh(r.opts.HeartbeatInterval)
	return lk, nil
}

// reclaimIfStale removes a lock whose heartbeat is older than the staleness
// bound. Reports whether the caller should immediately retry.
//
// The removal itself is serialized through an exclusive reclaim marker and
// re-validated against the stale snapshot: without that, two waiters can
// both pass the staleness check, and the slower remove would delete the
// lock the faster waiter already re-created, granting the lock twice.
func (r *Registry) reclaimIfStale(path string, fp domain.Fingerprint) bool {
	data, err := os.ReadFile(path) //nolint:gosec // Registry-internal path
	if err != nil {
		// Lock vanished between the create attempt and the read; retry.
		return errors.Is(err, fs.ErrNotExist)
	}

	var meta lockMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		// A partially written lock with a current mtime belongs to a live
		// owner mid-write; only reclaim it once the file itself is old.
		if info, serr := os.Stat(path); serr == nil && time.Since(info.ModTime()) < r.opts.StaleAfter {
			return false
		}
		meta = lockMeta{}
	}

	if time.Since(meta.Heartbeat) < r.opts.StaleAfter {
		return false
	}

	reclaim := path + ".reclaim"
	marker, err := os.OpenFile(reclaim, os.O_CREATE|os.O_EXCL|os.O_WRONLY, domain.FilePerm) //nolint:gosec // Registry-internal path
	if err != nil {
		// Another waiter owns the takeover. A marker orphaned by a crashed
		// reclaimer is cleared once it is itself stale.
		if info, serr := os.Stat(reclaim); serr == nil && time.Since(info.ModTime()) >= r.opts.StaleAfter {
			_ = os.Remove(reclaim)
		}
		return false
	}
	_ = marker.Close()
	defer func() {
		_ = os.Remove(reclaim)
	}()

	// Re-read under the marker: the lock we judged stale may have been
	// released and re-created by a live owner in the meantime. Only the
	// exact stale content may be removed.
	current, err := os.ReadFile(path) //nolint:gosec // Registry-internal path
	if err != nil {
		return errors.Is(err, fs.ErrNotExist)
	}
	if !bytes.Equal(current, data) {
		return false
	}

	r.logger.Warn("reclaiming stale build lock for " + string(fp) + " held by " + meta.Owner)
	return os.Remove(path) == nil
}

// fileLock is a held build lock.
type fileLock struct {
	path  string
	owner string
	stop  chan struct{}
	once  sync.Once
}

// refresh rewrites the heartbeat until the lock is released.
func (l *fileLock) refresh(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			meta := lockMeta{Owner: l.owner, Heartbeat: time.Now()}
			data, _ := json.Marshal(meta)
			tmp := l.path + ".hb"
			if err := os.WriteFile(tmp, data, domain.FilePerm); err != nil {
				continue
			}
			_ = os.Rename(tmp, l.path)
		}
	}
}

// Release stops the heartbeat and removes the lock file.
func (l *fileLock) Release() error {
	var err error
	l.once.Do(func() {
		close(l.stop)
		err = os.Remove(l.path)
		if errors.Is(err, fs.ErrNotExist) {
			err = nil
		}
	})
	return err
}
