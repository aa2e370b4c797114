package tui

import "github.com/vito/progrock"

// MsgUpdate wraps one raw update read from the progress stream.
type MsgUpdate struct {
	Update *progrock.StatusUpdate
}

// MsgStreamEnded is sent when the progress stream has ended. The model
// renders a final frame and quits.
type MsgStreamEnded struct{}
