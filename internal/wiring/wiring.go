// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "github.com/gantryproject/gantry/internal/adapters/config"
	_ "github.com/gantryproject/gantry/internal/adapters/fs"
	_ "github.com/gantryproject/gantry/internal/adapters/logger"
	_ "github.com/gantryproject/gantry/internal/adapters/sched/local"
	_ "github.com/gantryproject/gantry/internal/adapters/sched/slurm"
	_ "github.com/gantryproject/gantry/internal/adapters/shell"
	_ "github.com/gantryproject/gantry/internal/adapters/statusfile"
	_ "github.com/gantryproject/gantry/internal/adapters/telemetry"
	// Register app and engine nodes.
	_ "github.com/gantryproject/gantry/internal/app"
	_ "github.com/gantryproject/gantry/internal/engine/resolver"
)
