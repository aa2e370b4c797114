package ports

import "github.com/gantryproject/gantry/internal/core/domain"

// FingerprintHasher computes build fingerprints. The fingerprint is a pure
// function of the substituted build recipe, the build environment and the
// content of the declared source files; never of instance identity or time.
//
//go:generate go run go.uber.org/mock/mockgen -source=hasher.go -destination=mocks/mock_hasher.go -package=mocks
type FingerprintHasher interface {
	// Fingerprint hashes the instance's build inputs. Source paths are
	// resolved relative to the template root.
	Fingerprint(inst *domain.Instance) (domain.Fingerprint, error)
}
