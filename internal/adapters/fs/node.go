package fs

import (
	"context"

	"github.com/gantryproject/gantry/internal/core/ports"
	"github.com/grindlemire/graft"
)

// HasherNodeID is the unique identifier for the fingerprint hasher Graft node.
const HasherNodeID graft.ID = "adapter.fs.hasher"

func init() {
	graft.Register(graft.Node[ports.FingerprintHasher]{
		ID:        HasherNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.FingerprintHasher, error) {
			return NewHasher(), nil
		},
	})
}
