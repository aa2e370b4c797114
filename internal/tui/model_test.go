//nolint:testpackage // Tests need access to unexported row state
package tui

import (
	"io"
	"testing"
	"time"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vito/progrock"
	"google.golang.org/protobuf/types/known/timestamppb"

	progrocktracer "github.com/gantryproject/gantry/internal/adapters/telemetry/progrock"
)

func vertexID(name string) string {
	return digest.FromString(name).String()
}

func TestModel_Update_NewVertexIsActive(t *testing.T) {
	m := NewModel(NewFeed())

	update := &progrock.StatusUpdate{
		Vertexes: []*progrock.Vertex{
			{Id: vertexID("smoke.stream.0000"), Name: "smoke.stream.0000"},
		},
	}

	_, cmd := m.Update(MsgUpdate{Update: update})
	assert.NotNil(t, cmd)

	require.Len(t, m.rows, 1)
	assert.Equal(t, "smoke.stream.0000", m.rows[0].Name)
	assert.Equal(t, statusActive, m.rows[0].Status)
}

func TestModel_Update_CompletionAndFailure(t *testing.T) {
	m := NewModel(NewFeed())
	now := timestamppb.New(time.Now())
	boom := "build failed"

	m.apply(&progrock.StatusUpdate{Vertexes: []*progrock.Vertex{
		{Id: vertexID("a"), Name: "a"},
		{Id: vertexID("b"), Name: "b"},
	}})
	m.apply(&progrock.StatusUpdate{Vertexes: []*progrock.Vertex{
		{Id: vertexID("a"), Name: "a", Completed: now},
		{Id: vertexID("b"), Name: "b", Completed: now, Error: &boom},
	}})

	assert.Equal(t, statusDone, m.rows[0].Status)
	assert.Equal(t, statusFailed, m.rows[1].Status)
}

func TestModel_Update_CachedVertex(t *testing.T) {
	m := NewModel(NewFeed())

	m.apply(&progrock.StatusUpdate{Vertexes: []*progrock.Vertex{
		{Id: vertexID("build 0011223344556677"), Name: "build 0011223344556677", Cached: true},
	}})

	require.Len(t, m.rows, 1)
	assert.Equal(t, statusCached, m.rows[0].Status)
}

func TestModel_PlanSeedsPendingRows(t *testing.T) {
	m := NewModel(NewFeed())
	planVertex := vertexID(progrocktracer.PlanVertexName)
	now := timestamppb.New(time.Now())

	m.apply(&progrock.StatusUpdate{
		Vertexes: []*progrock.Vertex{{Id: planVertex, Name: progrocktracer.PlanVertexName}},
		Logs: []*progrock.VertexLog{
			{Vertex: planVertex, Data: []byte("smoke.stream.0000\nsmoke.stream.0001\n")},
		},
	})
	m.apply(&progrock.StatusUpdate{
		Vertexes: []*progrock.Vertex{{Id: planVertex, Name: progrocktracer.PlanVertexName, Completed: now}},
	})

	// The plan vertex itself never becomes a row.
	require.Len(t, m.rows, 2)
	assert.Equal(t, "smoke.stream.0000", m.rows[0].Name)
	assert.Equal(t, statusPending, m.rows[0].Status)
	assert.Equal(t, "smoke.stream.0001", m.rows[1].Name)
	assert.Equal(t, statusPending, m.rows[1].Status)

	// A later vertex update for a planned instance flips the same row.
	m.apply(&progrock.StatusUpdate{Vertexes: []*progrock.Vertex{
		{Id: vertexID("smoke.stream.0000"), Name: "smoke.stream.0000"},
	}})
	require.Len(t, m.rows, 2)
	assert.Equal(t, statusActive, m.rows[0].Status)
}

func TestModel_View_SummaryAndOverflow(t *testing.T) {
	m := NewModel(NewFeed())
	m.height = 3
	now := timestamppb.New(time.Now())

	m.apply(&progrock.StatusUpdate{Vertexes: []*progrock.Vertex{
		{Id: vertexID("a"), Name: "a", Completed: now},
		{Id: vertexID("b"), Name: "b"},
		{Id: vertexID("c"), Name: "c"},
		{Id: vertexID("d"), Name: "d"},
	}})

	out := m.View()
	assert.Contains(t, out, "3 active, 1 done, 0 failed")
	// Height 3 leaves two row lines; the oldest rows scroll off.
	assert.NotContains(t, out, "a\n")
	assert.NotContains(t, out, "b\n")
	assert.Contains(t, out, "c")
	assert.Contains(t, out, "d")
}

func TestFeed_DeliversThenEOF(t *testing.T) {
	feed := NewFeed()

	update := &progrock.StatusUpdate{}
	require.NoError(t, feed.WriteStatus(update))
	require.NoError(t, feed.Close())

	got, err := feed.Read()
	require.NoError(t, err)
	assert.Same(t, update, got)

	_, err = feed.Read()
	assert.Equal(t, io.EOF, err)

	assert.Error(t, feed.WriteStatus(update))
	assert.NoError(t, feed.Close())
}

func TestFeed_WriteNeverBlocksWithoutReader(t *testing.T) {
	feed := NewFeed()

	// No reader ever drains the feed. Writes past the buffer must return
	// instead of blocking the writer, and Close must still succeed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range 200 {
			assert.NoError(t, feed.WriteStatus(&progrock.StatusUpdate{}))
		}
		assert.NoError(t, feed.Close())
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("WriteStatus blocked with no reader draining the feed")
	}
}
