// Package registry implements the on-disk build registry shared by every
// builder that can see the working directory, including builders in other
// processes.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gantryproject/gantry/internal/core/domain"
	"github.com/gantryproject/gantry/internal/core/ports"
	"github.com/google/uuid"
	"go.trai.ch/zerr"
)

var _ ports.BuildRegistry = (*Registry)(nil)

// Options are the lock coordination policy. The staleness bound and wait
// bound are deliberately configurable rather than fixed constants.
type Options struct {
	// LockWait bounds how long Lock blocks before giving up.
	LockWait time.Duration
	// StaleAfter is how old a lock's heartbeat may be before waiters
	// reclaim it from a presumed-dead owner.
	StaleAfter time.Duration
	// PollInterval is how often waiters re-check the lock.
	PollInterval time.Duration
	// HeartbeatInterval is how often a lock holder refreshes its heartbeat.
	HeartbeatInterval time.Duration
}

// DefaultOptions returns the default coordination policy.
func DefaultOptions() Options {
	return Options{
		LockWait:          time.Hour,
		StaleAfter:        time.Minute,
		PollInterval:      500 * time.Millisecond,
		HeartbeatInterval: 10 * time.Second,
	}
}

// Registry stores build entries as one JSON file per fingerprint next to
// the artifact directory, with an exclusive lock file per fingerprint.
type Registry struct {
	dir    string
	owner  string
	opts   Options
	logger ports.Logger
}

// New creates a registry rooted at dir, creating it if needed.
func New(dir string, logger ports.Logger, opts Options) (*Registry, error) {
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return nil, zerr.Wrap(err, "failed to create build registry directory")
	}

	host, _ := os.Hostname()
	return &Registry{
		dir:    dir,
		owner:  fmt.Sprintf("%s:%d:%s", host, os.Getpid(), uuid.NewString()),
		opts:   opts,
		logger: logger,
	}, nil
}

// Owner returns the identity this registry stamps into locks and entries.
func (r *Registry) Owner() string {
	return r.owner
}

// Get returns the entry for the fingerprint, or nil, nil if absent.
func (r *Registry) Get(fp domain.Fingerprint) (*domain.BuildEntry, error) {
	data, err := os.ReadFile(r.entryPath(fp)) //nolint:gosec // Path is registry dir + fingerprint
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.Wrap(err, domain.ErrRegistryRead.Error())
	}

	var entry domain.BuildEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, zerr.Wrap(err, domain.ErrRegistryRead.Error())
	}
	return &entry, nil
}

// Put records an entry. The write goes through a temp file and a rename so
// concurrent readers never observe a partial entry.
func (r *Registry) Put(entry domain.BuildEntry) error {
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return zerr.Wrap(err, domain.ErrRegistryWrite.Error())
	}

	path := r.entryPath(entry.Fingerprint)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, domain.FilePerm); err != nil {
		return zerr.Wrap(err, domain.ErrRegistryWrite.Error())
	}
	if err := os.Rename(tmp, path); err != nil {
		return zerr.Wrap(err, domain.ErrRegistryWrite.Error())
	}
	return nil
}

// Invalidate removes the entry and artifact for a forced rebuild. Callers
// must hold the fingerprint's lock.
func (r *Registry) Invalidate(fp domain.Fingerprint) error {
	if err := os.Remove(r.entryPath(fp)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return zerr.Wrap(err, domain.ErrRegistryWrite.Error())
	}
	if err := os.RemoveAll(r.ArtifactPath(fp)); err != nil {
		return zerr.Wrap(err, domain.ErrRegistryWrite.Error())
	}
	return nil
}

// ArtifactPath returns the artifact directory for the fingerprint.
func (r *Registry) ArtifactPath(fp domain.Fingerprint) string {
	return filepath.Join(r.dir, string(fp))
}

func (r *Registry) entryPath(fp domain.Fingerprint) string {
	return filepath.Join(r.dir, string(fp)+domain.EntrySuffix)
}

func (r *Registry) lockPath(fp domain.Fingerprint) string {
	return filepath.Join(r.dir, string(fp)+domain.LockSuffix)
}
