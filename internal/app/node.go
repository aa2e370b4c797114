package app

import (
	"context"

	"github.com/gantryproject/gantry/internal/adapters/config"
	"github.com/gantryproject/gantry/internal/adapters/fs"
	"github.com/gantryproject/gantry/internal/adapters/logger"
	"github.com/gantryproject/gantry/internal/adapters/sched/local"
	"github.com/gantryproject/gantry/internal/adapters/sched/slurm"
	"github.com/gantryproject/gantry/internal/adapters/shell"
	"github.com/gantryproject/gantry/internal/adapters/statusfile"
	"github.com/gantryproject/gantry/internal/adapters/telemetry"
	"github.com/gantryproject/gantry/internal/core/ports"
	"github.com/gantryproject/gantry/internal/engine/resolver"
	"github.com/grindlemire/graft"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	// App Node
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			resolver.NodeID,
			fs.HasherNodeID,
			shell.NodeID,
			statusfile.NodeID,
			slurm.NodeID,
			local.NodeID,
			logger.NodeID,
			telemetry.TracerNodeID,
		},
		Run: runAppNode,
	})

	// Components Node
	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			application, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return &Components{
				App:    application,
				Logger: log,
			}, nil
		},
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	loader, err := graft.Dep[ports.SuiteLoader](ctx)
	if err != nil {
		return nil, err
	}

	res, err := graft.Dep[*resolver.Resolver](ctx)
	if err != nil {
		return nil, err
	}

	hasher, err := graft.Dep[ports.FingerprintHasher](ctx)
	if err != nil {
		return nil, err
	}

	executor, err := graft.Dep[ports.Executor](ctx)
	if err != nil {
		return nil, err
	}

	recorder, err := graft.Dep[ports.RunRecorder](ctx)
	if err != nil {
		return nil, err
	}

	slurmSched, err := graft.Dep[*slurm.Scheduler](ctx)
	if err != nil {
		return nil, err
	}

	localSched, err := graft.Dep[*local.Scheduler](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	tracer, err := graft.Dep[ports.Tracer](ctx)
	if err != nil {
		return nil, err
	}

	schedulers := map[string]ports.Scheduler{
		slurmSched.Name(): slurmSched,
		localSched.Name(): localSched,
	}

	return New(loader, res, hasher, executor, recorder, schedulers, log, tracer), nil
}
