package app

import (
	"github.com/gantryproject/gantry/internal/core/ports"
)

// Components bundles everything the CLI needs from the dependency graph.
type Components struct {
	App    *App
	Logger ports.Logger
}
