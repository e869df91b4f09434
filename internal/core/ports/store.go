package ports

import "go.trai.ch/sieve/internal/core/domain"

// FingerprintStore defines the interface for storing and retrieving document fingerprints.
//
//go:generate mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type FingerprintStore interface {
	// Get retrieves the fingerprint recorded for url.
	// Returns nil, nil if not found.
	Get(url domain.ResolvedURL) (*domain.Fingerprint, error)

	// Put stores the fingerprint.
	Put(fp domain.Fingerprint) error
}

// StoreOpener opens the fingerprint store kept in a directory.
type StoreOpener interface {
	Open(dir string) (FingerprintStore, error)
}
