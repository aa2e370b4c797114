package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"go.trai.ch/zerr"
)

func TestLoggerSetOutput(t *testing.T) {
	log := New().(*Logger)

	var buf bytes.Buffer
	log.SetOutput(&buf)

	log.Info("hello")
	require.Contains(t, buf.String(), "hello")
	require.Contains(t, buf.String(), "level=INFO")
}

func TestLoggerError(t *testing.T) {
	log := New().(*Logger)

	var buf bytes.Buffer
	log.SetOutput(&buf)

	log.Error(zerr.New("disk on fire"))
	require.Contains(t, buf.String(), "disk on fire")
	require.Contains(t, buf.String(), "level=ERROR")
}
