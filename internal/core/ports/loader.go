package ports

import (
	"context"

	"go.trai.ch/sieve/internal/core/domain"
)

// Loader fetches document contents.
type Loader interface {
	// CanLoad reports whether the loader accepts the URL.
	CanLoad(url domain.ResolvedURL) bool
	// Load returns the contents of the document at url.
	Load(ctx context.Context, url domain.ResolvedURL) (string, error)
	// ReadDirectory lists the documents below dir. When deep is false only direct children are listed.
	ReadDirectory(ctx context.Context, dir domain.ResolvedURL, deep bool) ([]domain.ResolvedURL, error)
}
