// Package progrock implements the tracer port on a progrock update stream,
// so run progress can be rendered live or replayed.
package progrock

import (
	"context"
	"fmt"

	"github.com/gantryproject/gantry/internal/core/ports"
	"github.com/opencontainers/go-digest"
	"github.com/vito/progrock"
)

// PlanVertexName is the name of the synthetic vertex that lists the
// instances planned for a run.
const PlanVertexName = "plan"

// Tracer implements ports.Tracer by recording one progrock vertex per span.
type Tracer struct {
	w   progrock.Writer
	rec *progrock.Recorder
}

// New creates a Tracer recording onto its own tape, useful when the
// updates are replayed rather than rendered live.
func New() *Tracer {
	return NewTracer(progrock.NewTape())
}

// NewTracer creates a Tracer recording onto the given writer.
func NewTracer(w progrock.Writer) *Tracer {
	return &Tracer{
		w:   w,
		rec: progrock.NewRecorder(w),
	}
}

// Start records a new vertex named after the span.
func (t *Tracer) Start(ctx context.Context, name string, opts ...ports.SpanOption) (context.Context, ports.Span) {
	cfg := ports.SpanConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	v := t.rec.Vertex(digest.FromString(name), name)
	if cfg.Cached {
		v.Cached()
	}
	return ctx, &Span{vertex: v}
}

// EmitPlan records a vertex listing every planned instance, completed
// immediately so UIs can show the full plan up front.
func (t *Tracer) EmitPlan(_ context.Context, instanceIDs []string) {
	v := t.rec.Vertex(digest.FromString(PlanVertexName), PlanVertexName)
	for _, id := range instanceIDs {
		_, _ = fmt.Fprintln(v.Stdout(), id)
	}
	v.Done(nil)
}

// Close flushes the recording session and closes the tape.
func (t *Tracer) Close() error {
	if c, ok := t.w.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
