package ports

import (
	"context"

	"go.trai.ch/sieve/internal/core/domain"
)

//go:generate mockgen -source=index.go -destination=mocks/mock_index.go -package=mocks

// FeatureIndex persists analyzed documents for later querying.
type FeatureIndex interface {
	// Replace stores docs, replacing any rows previously stored for the same URLs.
	Replace(ctx context.Context, docs []*domain.Document) error
	// Dependants returns the URLs that transitively import url.
	Dependants(ctx context.Context, url domain.ResolvedURL) ([]domain.ResolvedURL, error)
	// Features returns the indexed features of the given kind.
	Features(ctx context.Context, kind string) ([]domain.IndexedFeature, error)
	// Close releases the index.
	Close() error
}

// IndexOpener opens, creating if needed, the feature index at path.
type IndexOpener interface {
	Open(ctx context.Context, path string) (FeatureIndex, error)
}
