package fs

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/sieve/internal/core/ports"
)

const (
	WalkerNodeID    graft.ID = "adapter.fs.walker"
	WorkspaceNodeID graft.ID = "adapter.fs.workspace"
	HasherNodeID    graft.ID = "adapter.fs.hasher"
)

func init() {
	// Walker Node (Concrete implementation needed by Workspace)
	graft.Register(graft.Node[*Walker]{
		ID:        WalkerNodeID,
		Cacheable: true,
		Run: func(ctx context.Context) (*Walker, error) {
			return NewWalker(), nil
		},
	})

	// Workspace Node
	graft.Register(graft.Node[ports.WorkspaceOpener]{
		ID:        WorkspaceNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{WalkerNodeID},
		Run: func(ctx context.Context) (ports.WorkspaceOpener, error) {
			walker, err := graft.Dep[*Walker](ctx)
			if err != nil {
				return nil, err
			}
			return NewWorkspace(walker), nil
		},
	})

	// Hasher Node
	graft.Register(graft.Node[ports.Hasher]{
		ID:        HasherNodeID,
		Cacheable: true,
		Run: func(ctx context.Context) (ports.Hasher, error) {
			return NewHasher(), nil
		},
	})
}
