package config

import (
	"context"

	"github.com/gantryproject/gantry/internal/adapters/logger"
	"github.com/gantryproject/gantry/internal/core/ports"
	"github.com/grindlemire/graft"
)

// NodeID is the unique identifier for the suite loader Graft node.
const NodeID graft.ID = "adapter.suite_loader"

func init() {
	graft.Register(graft.Node[ports.SuiteLoader]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (ports.SuiteLoader, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewLoader(log), nil
		},
	})
}
