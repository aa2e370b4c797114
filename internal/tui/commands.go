// Package tui renders live run progress from a progrock update stream.
package tui

import (
	"errors"
	"io"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/vito/progrock"
)

// UpdateSource is an interface for reading progrock updates. The model
// blocks on Read between frames; implementations return io.EOF once the
// stream is closed.
type UpdateSource interface {
	Read() (*progrock.StatusUpdate, error)
}

// Feed is both a progrock.Writer and an UpdateSource: the tracer records
// onto it and the model drains it, so one run's progress flows straight
// from the engine into the terminal.
type Feed struct {
	updates chan *progrock.StatusUpdate

	mu     sync.Mutex
	closed bool
}

// NewFeed creates a Feed.
func NewFeed() *Feed {
	return &Feed{updates: make(chan *progrock.StatusUpdate, 64)}
}

// WriteStatus queues one update for the model. The send never blocks: when
// the buffer is full the update is dropped, so a reader that quit early
// (Ctrl+C on the progress UI) cannot wedge the instance goroutines that
// record progress mid-run.
func (f *Feed) WriteStatus(update *progrock.StatusUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errors.New("feed is closed")
	}
	select {
	case f.updates <- update:
	default:
	}
	return nil
}

// Close ends the stream. Updates already queued are still delivered before
// the model sees EOF.
func (f *Feed) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.updates)
	}
	return nil
}

// Read returns the next update, or io.EOF once the feed is closed and
// drained.
func (f *Feed) Read() (*progrock.StatusUpdate, error) {
	update, ok := <-f.updates
	if !ok {
		return nil, io.EOF
	}
	return update, nil
}

// WaitForUpdate returns a Bubble Tea command that reads the next update
// from the source. It returns MsgUpdate on success or MsgStreamEnded on EOF
// or error.
func WaitForUpdate(source UpdateSource) tea.Cmd {
	return func() tea.Msg {
		update, err := source.Read()
		if err != nil {
			return MsgStreamEnded{}
		}
		return MsgUpdate{Update: update}
	}
}
