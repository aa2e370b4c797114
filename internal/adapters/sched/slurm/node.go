package slurm

import (
	"context"

	"github.com/gantryproject/gantry/internal/adapters/logger"
	"github.com/gantryproject/gantry/internal/core/ports"
	"github.com/grindlemire/graft"
)

// NodeID is the unique identifier for the Slurm scheduler Graft node.
const NodeID graft.ID = "adapter.sched.slurm"

func init() {
	graft.Register(graft.Node[*Scheduler]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (*Scheduler, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return New(ExecRunner{}, log), nil
		},
	})
}
