package parsers

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/sieve/internal/core/ports"
)

// RegistryNodeID is the unique identifier for the parser registry Graft node.
const RegistryNodeID graft.ID = "adapter.parsers"

func init() {
	graft.Register(graft.Node[ports.ParserRegistry]{
		ID:        RegistryNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.ParserRegistry, error) {
			return NewRegistry(), nil
		},
	})
}
