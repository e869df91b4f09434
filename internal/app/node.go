package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/sieve/internal/adapters/cas"       //nolint:depguard // Wired in app layer
	"go.trai.ch/sieve/internal/adapters/config"    //nolint:depguard // Wired in app layer
	"go.trai.ch/sieve/internal/adapters/fs"        //nolint:depguard // Wired in app layer
	"go.trai.ch/sieve/internal/adapters/index"     //nolint:depguard // Wired in app layer
	"go.trai.ch/sieve/internal/adapters/logger"    //nolint:depguard // Wired in app layer
	"go.trai.ch/sieve/internal/adapters/parsers"   //nolint:depguard // Wired in app layer
	"go.trai.ch/sieve/internal/adapters/scanners"  //nolint:depguard // Wired in app layer
	"go.trai.ch/sieve/internal/adapters/telemetry" //nolint:depguard // Wired in app layer
	"go.trai.ch/sieve/internal/adapters/watcher"   //nolint:depguard // Wired in app layer
	"go.trai.ch/sieve/internal/core/ports"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			fs.WorkspaceNodeID,
			fs.HasherNodeID,
			parsers.RegistryNodeID,
			scanners.FactoryNodeID,
			cas.NodeID,
			index.NodeID,
			watcher.NodeID,
			telemetry.TracerNodeID,
			logger.NodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			app, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return &Components{App: app, Logger: log}, nil
		},
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	var (
		deps Dependencies
		err  error
	)
	if deps.ConfigLoader, err = graft.Dep[ports.ConfigLoader](ctx); err != nil {
		return nil, err
	}
	if deps.Workspace, err = graft.Dep[ports.WorkspaceOpener](ctx); err != nil {
		return nil, err
	}
	if deps.Hasher, err = graft.Dep[ports.Hasher](ctx); err != nil {
		return nil, err
	}
	if deps.Parsers, err = graft.Dep[ports.ParserRegistry](ctx); err != nil {
		return nil, err
	}
	if deps.Scanners, err = graft.Dep[ports.ScannerFactory](ctx); err != nil {
		return nil, err
	}
	if deps.Stores, err = graft.Dep[ports.StoreOpener](ctx); err != nil {
		return nil, err
	}
	if deps.Indexes, err = graft.Dep[ports.IndexOpener](ctx); err != nil {
		return nil, err
	}
	if deps.Watcher, err = graft.Dep[ports.Watcher](ctx); err != nil {
		return nil, err
	}
	if deps.Tracer, err = graft.Dep[ports.Tracer](ctx); err != nil {
		return nil, err
	}
	if deps.Logger, err = graft.Dep[ports.Logger](ctx); err != nil {
		return nil, err
	}
	return New(deps), nil
}
