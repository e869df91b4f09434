package parsers

import (
	"maps"

	"github.com/smacker/go-tree-sitter/css"
	"github.com/smacker/go-tree-sitter/html"
	"github.com/smacker/go-tree-sitter/javascript"
	"go.trai.ch/sieve/internal/core/domain"
	"go.trai.ch/sieve/internal/core/ports"
)

var _ ports.ParserRegistry = (*Registry)(nil)

// Registry holds the bundled parsers.
type Registry struct {
	parsers map[string]ports.Parser
}

// NewRegistry creates a Registry with the HTML, JavaScript and CSS parsers.
func NewRegistry() *Registry {
	return &Registry{parsers: map[string]ports.Parser{
		domain.TypeHTML: NewParser(domain.TypeHTML, html.GetLanguage()),
		domain.TypeJS:   NewParser(domain.TypeJS, javascript.GetLanguage()),
		domain.TypeCSS:  NewParser(domain.TypeCSS, css.GetLanguage()),
	}}
}

// Parsers returns a copy of the parsers keyed by document type.
func (r *Registry) Parsers() map[string]ports.Parser {
	return maps.Clone(r.parsers)
}
