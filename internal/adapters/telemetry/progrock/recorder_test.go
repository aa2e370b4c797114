package progrock_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vito/progrock"

	progrocktracer "github.com/gantryproject/gantry/internal/adapters/telemetry/progrock"
	"github.com/gantryproject/gantry/internal/core/ports"
)

// captureWriter collects every status update pushed through the tracer.
type captureWriter struct {
	mu      sync.Mutex
	updates []*progrock.StatusUpdate
	closed  bool
}

func (w *captureWriter) WriteStatus(update *progrock.StatusUpdate) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.updates = append(w.updates, update)
	return nil
}

func (w *captureWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func (w *captureWriter) vertexes() map[string]*progrock.Vertex {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := map[string]*progrock.Vertex{}
	for _, u := range w.updates {
		for _, v := range u.Vertexes {
			out[v.Id] = v
		}
	}
	return out
}

func TestTracer_SpanLifecycle(t *testing.T) {
	w := &captureWriter{}
	tracer := progrocktracer.NewTracer(w)

	_, span := tracer.Start(t.Context(), "smoke.stream.0000")
	span.End()

	id := digest.FromString("smoke.stream.0000").String()
	v, ok := w.vertexes()[id]
	require.True(t, ok)
	assert.Equal(t, "smoke.stream.0000", v.Name)
	assert.NotNil(t, v.Completed)
	assert.Nil(t, v.Error)
}

func TestTracer_SpanError(t *testing.T) {
	w := &captureWriter{}
	tracer := progrocktracer.NewTracer(w)

	_, span := tracer.Start(t.Context(), "smoke.stream.0000")
	span.RecordError(errors.New("make: *** [all] Error 2"))
	span.End()

	id := digest.FromString("smoke.stream.0000").String()
	v := w.vertexes()[id]
	require.NotNil(t, v)
	require.NotNil(t, v.Error)
	assert.Contains(t, *v.Error, "Error 2")
}

func TestTracer_CachedSpan(t *testing.T) {
	w := &captureWriter{}
	tracer := progrocktracer.NewTracer(w)

	_, span := tracer.Start(t.Context(), "build fp-1", ports.WithCached())
	span.End()

	v := w.vertexes()[digest.FromString("build fp-1").String()]
	require.NotNil(t, v)
	assert.True(t, v.Cached)
}

func TestTracer_EmitPlan(t *testing.T) {
	w := &captureWriter{}
	tracer := progrocktracer.NewTracer(w)

	tracer.EmitPlan(t.Context(), []string{"smoke.stream.0000", "smoke.stream.0001"})

	planID := digest.FromString(progrocktracer.PlanVertexName).String()
	v := w.vertexes()[planID]
	require.NotNil(t, v)
	assert.NotNil(t, v.Completed)

	var logs []byte
	w.mu.Lock()
	for _, u := range w.updates {
		for _, l := range u.Logs {
			if l.Vertex == planID {
				logs = append(logs, l.Data...)
			}
		}
	}
	w.mu.Unlock()
	assert.Contains(t, string(logs), "smoke.stream.0000\n")
	assert.Contains(t, string(logs), "smoke.stream.0001\n")
}

func TestTracer_CloseClosesWriter(t *testing.T) {
	w := &captureWriter{}
	tracer := progrocktracer.NewTracer(w)

	require.NoError(t, tracer.Close())
	assert.True(t, w.closed)
}
