package ports

import (
	"context"
	"io"
)

// Executor runs recipe commands locally. It is used for builds and by the
// local scheduler backend.
//
//go:generate go run go.uber.org/mock/mockgen -source=executor.go -destination=mocks/mock_executor.go -package=mocks
type Executor interface {
	// Execute runs the commands in order inside dir with the given
	// environment merged over a filtered system environment. It stops at
	// the first failing command and returns its error.
	Execute(ctx context.Context, commands []string, dir string, env map[string]string, stdout, stderr io.Writer) error
}
