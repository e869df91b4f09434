package scanners

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/sieve/internal/core/ports"
)

// FactoryNodeID is the unique identifier for the scanner factory Graft node.
const FactoryNodeID graft.ID = "adapter.scanners"

func init() {
	graft.Register(graft.Node[ports.ScannerFactory]{
		ID:        FactoryNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.ScannerFactory, error) {
			return NewFactory(), nil
		},
	})
}
