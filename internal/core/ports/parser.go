package ports

import (
	"context"

	"go.trai.ch/sieve/internal/core/domain"
)

// Parser turns document contents into a ParsedDocument.
//
// A recoverable syntax error is reported as *domain.ParseWarningError. Any other
// error is unrecoverable and fails the document.
type Parser interface {
	Parse(ctx context.Context, contents string, url domain.ResolvedURL, inline *domain.InlineInfo) (*domain.ParsedDocument, error)
}

// ParserRegistry provides the parser for each supported document type.
type ParserRegistry interface {
	// Parsers returns the parsers keyed by document type.
	Parsers() map[string]Parser
}
