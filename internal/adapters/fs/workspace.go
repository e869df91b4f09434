package fs

import (
	"os"
	"path/filepath"

	"go.trai.ch/sieve/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.WorkspaceOpener = (*Workspace)(nil)

// Workspace opens loaders and resolvers confined to a project root.
type Workspace struct {
	walker *Walker
}

// NewWorkspace creates a new Workspace.
func NewWorkspace(walker *Walker) *Workspace {
	return &Workspace{walker: walker}
}

// Open returns the loader and resolver for root, which must be a directory.
func (w *Workspace) Open(root string) (ports.Loader, ports.Resolver, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, nil, zerr.With(zerr.Wrap(err, "failed to resolve project root"), "root", root)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, nil, zerr.With(zerr.Wrap(err, "failed to stat project root"), "root", abs)
	}
	if !info.IsDir() {
		return nil, nil, zerr.With(zerr.New("project root is not a directory"), "root", abs)
	}
	return NewLoader(os.DirFS(abs), w.walker), NewResolver(), nil
}
