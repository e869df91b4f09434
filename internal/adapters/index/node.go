package index

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/sieve/internal/core/ports"
)

// NodeID is the unique identifier for the feature index opener Graft node.
const NodeID graft.ID = "adapter.feature_index"

func init() {
	graft.Register(graft.Node[ports.IndexOpener]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.IndexOpener, error) {
			return NewOpener(), nil
		},
	})
}
