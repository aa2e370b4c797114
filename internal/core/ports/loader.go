// Package ports defines the core interfaces for the application.
package ports

import "github.com/gantryproject/gantry/internal/core/domain"

// SuiteLoader defines the interface for loading parsed test templates.
// The suite format itself is validated by the loader; the rest of the
// system treats templates as opaque, already-validated input.
//
//go:generate go run go.uber.org/mock/mockgen -source=loader.go -destination=mocks/mock_loader.go -package=mocks
type SuiteLoader interface {
	// Load reads the suite file at the given path and returns its templates
	// in declaration order.
	Load(path string) ([]*domain.Template, error)
}
