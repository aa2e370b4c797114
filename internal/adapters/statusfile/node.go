package statusfile

import (
	"context"

	"github.com/gantryproject/gantry/internal/core/ports"
	"github.com/grindlemire/graft"
)

// NodeID is the unique identifier for the run recorder Graft node.
const NodeID graft.ID = "adapter.statusfile"

func init() {
	graft.Register(graft.Node[ports.RunRecorder]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.RunRecorder, error) {
			return New(), nil
		},
	})
}
