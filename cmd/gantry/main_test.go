package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/zerr"

	"github.com/gantryproject/gantry/internal/app"
)

func TestRun_ProviderFailure(t *testing.T) {
	stderr := new(bytes.Buffer)

	code := run(context.Background(), []string{"version"}, stderr, func(context.Context) (*app.Components, error) {
		return nil, zerr.New("wiring failed")
	})

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "wiring failed")
}

func TestRun_UnknownCommand(t *testing.T) {
	stderr := new(bytes.Buffer)

	code := run(context.Background(), []string{"no-such-command"}, stderr, provider)

	assert.Equal(t, 1, code)
}

func TestRun_Version(t *testing.T) {
	stderr := new(bytes.Buffer)

	code := run(context.Background(), []string{"version"}, stderr, provider)

	assert.Equal(t, 0, code)
}
