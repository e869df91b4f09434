package fs

import (
	"context"
	"errors"
	iofs "io/fs"
	"path"
	"strings"

	"go.trai.ch/sieve/internal/core/domain"
	"go.trai.ch/sieve/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/singleflight"
)

var _ ports.Loader = (*Loader)(nil)

// Loader reads documents from a directory tree. URLs are slash-separated
// paths relative to the tree's root.
type Loader struct {
	fsys   iofs.FS
	walker *Walker
	group  singleflight.Group
}

// NewLoader creates a Loader over fsys.
func NewLoader(fsys iofs.FS, walker *Walker) *Loader {
	return &Loader{fsys: fsys, walker: walker}
}

// CanLoad reports whether url names a path inside the tree.
func (l *Loader) CanLoad(url domain.ResolvedURL) bool {
	return iofs.ValidPath(string(url)) && string(url) != "."
}

// Load returns the contents of url. Concurrent loads of one URL share a read.
func (l *Loader) Load(ctx context.Context, url domain.ResolvedURL) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !l.CanLoad(url) {
		return "", domain.Annotate(domain.ErrCannotLoadURL, "url", url)
	}

	ch := l.group.DoChan(string(url), func() (any, error) {
		data, err := iofs.ReadFile(l.fsys, string(url))
		if err != nil {
			if errors.Is(err, iofs.ErrNotExist) {
				return nil, zerr.With(zerr.Wrap(err, "document not found"), "url", url)
			}
			return nil, zerr.With(zerr.Wrap(err, "failed to read document"), "url", url)
		}
		return string(data), nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil //nolint:forcetypeassert // DoChan above only returns strings
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// ReadDirectory lists the files below dir. An empty dir lists the whole tree.
func (l *Loader) ReadDirectory(ctx context.Context, dir domain.ResolvedURL, deep bool) ([]domain.ResolvedURL, error) {
	root := strings.TrimSuffix(string(dir), "/")
	if root == "" {
		root = "."
	}
	if !iofs.ValidPath(root) {
		return nil, domain.Annotate(domain.ErrCannotLoadURL, "url", dir)
	}

	var urls []domain.ResolvedURL
	for p := range l.walker.WalkFiles(l.fsys, root, deep) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		urls = append(urls, domain.ResolvedURL(path.Clean(p)))
	}
	return domain.SortURLs(urls), nil
}
