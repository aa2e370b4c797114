// Package statusfile persists run records as append-only status logs with a
// single completion marker per instance.
package statusfile

import (
	"bufio"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gantryproject/gantry/internal/core/domain"
	"github.com/gantryproject/gantry/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.RunRecorder = (*Recorder)(nil)

// Recorder stores one JSON line per transition in status.log, the
// completion marker in RUN_COMPLETE, and the scheduler handle in job_id.
// All three live in the instance's run directory, so external tooling can
// check "done" with a single file-existence test.
type Recorder struct{}

// New creates a Recorder.
func New() *Recorder {
	return &Recorder{}
}

// Append writes one transition entry. The file is opened with O_APPEND and
// synced before returning, so the entry is durable before any caller is
// notified of the transition.
func (r *Recorder) Append(runDir string, entry domain.TransitionEntry) error {
	if err := os.MkdirAll(runDir, domain.DirPerm); err != nil {
		return zerr.Wrap(err, domain.ErrRecordWrite.Error())
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return zerr.Wrap(err, domain.ErrRecordWrite.Error())
	}
	data = append(data, '\n')

	path := filepath.Join(runDir, domain.StatusFileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, domain.FilePerm) //nolint:gosec // Run dir is gantry-owned
	if err != nil {
		return zerr.Wrap(err, domain.ErrRecordWrite.Error())
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return zerr.Wrap(err, domain.ErrRecordWrite.Error())
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return zerr.Wrap(err, domain.ErrRecordWrite.Error())
	}
	return f.Close()
}

// History returns the recorded transitions in append order. Lines that fail
// to parse (e.g. a torn write from a crash) end the history rather than
// failing it, so restart recovery sees every consistent entry.
func (r *Recorder) History(runDir string) ([]domain.TransitionEntry, error) {
	path := filepath.Join(runDir, domain.StatusFileName)
	f, err := os.Open(path) //nolint:gosec // Run dir is gantry-owned
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.Wrap(err, domain.ErrRecordRead.Error())
	}
	defer f.Close() //nolint:errcheck // Read-only file

	var entries []domain.TransitionEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry domain.TransitionEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			break
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return entries, zerr.Wrap(err, domain.ErrRecordRead.Error())
	}
	return entries, nil
}

// MarkComplete writes the completion marker exactly once. The O_EXCL create
// guarantees a second terminal transition can never overwrite the first.
func (r *Recorder) MarkComplete(runDir string, marker domain.CompletionMarker) error {
	path := filepath.Join(runDir, domain.CompleteFileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, domain.FilePerm) //nolint:gosec // Run dir is gantry-owned
	if err != nil {
		return zerr.Wrap(err, domain.ErrRecordWrite.Error())
	}

	data, err := json.Marshal(marker)
	if err != nil {
		_ = f.Close()
		return zerr.Wrap(err, domain.ErrRecordWrite.Error())
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return zerr.Wrap(err, domain.ErrRecordWrite.Error())
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return zerr.Wrap(err, domain.ErrRecordWrite.Error())
	}
	return f.Close()
}

// Completion returns the completion marker, or nil, nil if absent.
func (r *Recorder) Completion(runDir string) (*domain.CompletionMarker, error) {
	data, err := os.ReadFile(filepath.Join(runDir, domain.CompleteFileName)) //nolint:gosec // Run dir is gantry-owned
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.Wrap(err, domain.ErrRecordRead.Error())
	}

	var marker domain.CompletionMarker
	if err := json.Unmarshal(data, &marker); err != nil {
		return nil, zerr.Wrap(err, domain.ErrRecordRead.Error())
	}
	return &marker, nil
}

// SaveJob stores the scheduler handle for polling or cancellation from
// another process.
func (r *Recorder) SaveJob(runDir string, handle domain.JobHandle) error {
	data, err := json.Marshal(handle)
	if err != nil {
		return zerr.Wrap(err, domain.ErrRecordWrite.Error())
	}
	path := filepath.Join(runDir, domain.JobFileName)
	if err := os.WriteFile(path, data, domain.FilePerm); err != nil {
		return zerr.Wrap(err, domain.ErrRecordWrite.Error())
	}
	return nil
}

// LoadJob returns the stored job handle, or nil, nil if none was saved.
func (r *Recorder) LoadJob(runDir string) (*domain.JobHandle, error) {
	data, err := os.ReadFile(filepath.Join(runDir, domain.JobFileName)) //nolint:gosec // Run dir is gantry-owned
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.Wrap(err, domain.ErrRecordRead.Error())
	}

	var handle domain.JobHandle
	if err := json.Unmarshal(data, &handle); err != nil {
		return nil, zerr.Wrap(err, domain.ErrRecordRead.Error())
	}
	return &handle, nil
}
