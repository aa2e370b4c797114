// Package shell provides a shell-based executor for recipe commands.
package shell

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/gantryproject/gantry/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Executor = (*Executor)(nil)

// Executor implements ports.Executor using os/exec. Each command runs as
// its own `sh -c` invocation so recipes keep ordinary shell semantics.
type Executor struct {
	logger ports.Logger
}

// NewExecutor creates a new Executor.
func NewExecutor(logger ports.Logger) *Executor {
	return &Executor{logger: logger}
}

// Execute runs the commands in order inside dir, stopping at the first
// failure. The environment is the allow-listed system environment with the
// given entries merged over it.
func (e *Executor) Execute(
	ctx context.Context,
	commands []string,
	dir string,
	env map[string]string,
	stdout, stderr io.Writer,
) error {
	cmdEnv := resolveEnvironment(os.Environ(), env)

	stdoutLog := &logWriter{logger: e.logger, level: "info"}
	stderrLog := &logWriter{logger: e.logger, level: "error"}
	defer func() {
		_ = stdoutLog.Close()
		_ = stderrLog.Close()
	}()

	for _, command := range commands {
		cmd := exec.CommandContext(ctx, "sh", "-c", command) //nolint:gosec // user provided recipe
		cmd.Dir = dir
		cmd.Env = cmdEnv
		cmd.Stdout = io.MultiWriter(stdoutLog, stdout)
		cmd.Stderr = io.MultiWriter(stderrLog, stderr)

		if err := cmd.Run(); err != nil {
			exitCode := -1
			if exitErr, ok := err.(*exec.ExitError); ok {
				exitCode = exitErr.ExitCode()
			}
			return zerr.With(
				zerr.With(zerr.Wrap(err, "command failed"), "command", command),
				"exit_code", exitCode,
			)
		}
	}
	return nil
}

// allowListedEnvVars are the system environment variables recipes inherit.
// Everything else is dropped so builds stay reproducible across submit
// hosts.
var allowListedEnvVars = map[string]struct{}{
	"HOME": {},
	"TERM": {},
	"USER": {},
	"PATH": {},
	"LANG": {},
}

func resolveEnvironment(sysEnv []string, extra map[string]string) []string {
	envMap := make(map[string]string)
	for _, entry := range sysEnv {
		k, v, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		if _, allowed := allowListedEnvVars[k]; allowed {
			envMap[k] = v
		}
	}

	for k, v := range extra {
		envMap[k] = v
	}

	result := make([]string, 0, len(envMap))
	for k, v := range envMap {
		result = append(result, k+"="+v)
	}
	return result
}

// logWriter feeds command output to the structured logger line by line.
type logWriter struct {
	logger ports.Logger
	level  string
	buf    []byte
}

func (w *logWriter) Write(p []byte) (n int, err error) {
	w.buf = append(w.buf, p...)

	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.logLine(w.buf[:i])
		w.buf = w.buf[i+1:]
	}
	return len(p), nil
}

func (w *logWriter) Close() error {
	if len(w.buf) > 0 {
		w.logLine(w.buf)
		w.buf = nil
	}
	return nil
}

func (w *logWriter) logLine(line []byte) {
	msg := strings.TrimSuffix(string(line), "\r")
	if w.level == "info" {
		w.logger.Info(msg)
	} else {
		w.logger.Error(zerr.New(msg))
	}
}
