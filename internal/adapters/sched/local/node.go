package local

import (
	"context"

	"github.com/gantryproject/gantry/internal/adapters/logger"
	"github.com/gantryproject/gantry/internal/adapters/shell"
	"github.com/gantryproject/gantry/internal/core/ports"
	"github.com/grindlemire/graft"
)

// NodeID is the unique identifier for the local scheduler Graft node.
const NodeID graft.ID = "adapter.sched.local"

func init() {
	graft.Register(graft.Node[*Scheduler]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{shell.NodeID, logger.NodeID},
		Run: func(ctx context.Context) (*Scheduler, error) {
			executor, err := graft.Dep[ports.Executor](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return New(executor, log), nil
		},
	})
}
