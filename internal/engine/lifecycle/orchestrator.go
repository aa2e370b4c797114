package lifecycle

import (
	"context"
	"errors"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/gantryproject/gantry/internal/core/domain"
	"github.com/gantryproject/gantry/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// Orchestrator fans a set of instances out across worker slots. Instance
// failures are isolated: one instance reaching BUILD_FAILED or RUN_FAILED
// never stops its siblings.
type Orchestrator struct {
	machine *Machine
	logger  ports.Logger
	tracer  ports.Tracer
}

// NewOrchestrator creates an Orchestrator around a Machine.
func NewOrchestrator(machine *Machine, logger ports.Logger, tracer ports.Tracer) *Orchestrator {
	return &Orchestrator{machine: machine, logger: logger, tracer: tracer}
}

// RunAll drives every instance to a terminal state, at most limit at a
// time (NumCPU when limit <= 0). It returns the terminal state of each
// instance keyed by instance ID, plus the joined instance-local errors.
func (o *Orchestrator) RunAll(
	ctx context.Context,
	instances []*domain.Instance,
	runRoot string,
	opts Options,
	limit int,
) (map[string]domain.State, error) {
	if len(instances) == 0 {
		return nil, domain.ErrNoTests
	}

	ids := make([]string, len(instances))
	for i, inst := range instances {
		ids[i] = inst.ID
	}
	o.tracer.EmitPlan(ctx, ids)

	if limit <= 0 {
		limit = runtime.NumCPU()
	}

	var (
		mu     sync.Mutex
		states = make(map[string]domain.State, len(instances))
		errs   error
	)

	// A plain group, not WithContext: a failed instance must not cancel
	// the context shared by its siblings.
	g := new(errgroup.Group)
	g.SetLimit(limit)

	for _, inst := range instances {
		g.Go(func() error {
			runDir := filepath.Join(runRoot, inst.ID)
			state, err := o.machine.Run(ctx, inst, runDir, opts)

			mu.Lock()
			defer mu.Unlock()
			states[inst.ID] = state
			if err != nil {
				o.logger.Error(zerr.With(err, "instance", inst.ID))
				errs = errors.Join(errs, zerr.With(err, "instance", inst.ID))
			}
			return nil
		})
	}

	_ = g.Wait()
	return states, errs
}
