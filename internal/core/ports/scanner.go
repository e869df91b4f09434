package ports

import (
	"context"

	"go.trai.ch/sieve/internal/core/domain"
)

// VisitFunc registers a visitor with the scan in progress and blocks until the
// visitor has been run against the whole document.
type VisitFunc func(ctx context.Context, visitor domain.Visitor) error

// ScanResult is what one scanner found in one document.
type ScanResult struct {
	Features []domain.ScannedFeature
	Warnings []domain.Warning
}

// Scanner extracts features from a parsed document.
type Scanner interface {
	// Name identifies the scanner in configuration and errors.
	Name() string
	// Scan extracts features, walking the document through visit.
	Scan(ctx context.Context, doc *domain.ParsedDocument, visit VisitFunc) (ScanResult, error)
}

// ScannerFactory builds the scanners for a project, keyed by document type.
type ScannerFactory interface {
	Scanners(ctx context.Context, cfg *domain.Config) (map[string][]Scanner, error)
}
