// Package parsers provides tree-sitter backed parsers for HTML, JavaScript and CSS.
package parsers

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"go.trai.ch/sieve/internal/core/domain"
	"go.trai.ch/sieve/internal/core/ports"
	"go.trai.ch/zerr"
)

// maxSyntaxWarnings caps the warnings reported for one document.
const maxSyntaxWarnings = 10

var _ ports.Parser = (*Parser)(nil)

// Parser parses documents of one type with a tree-sitter grammar.
type Parser struct {
	docType string
	lang    *sitter.Language
}

// NewParser creates a Parser producing documents of docType.
func NewParser(docType string, lang *sitter.Language) *Parser {
	return &Parser{docType: docType, lang: lang}
}

// Parse builds the syntax tree of contents. Syntax errors are recoverable:
// they are returned as a *domain.ParseWarningError holding the full tree.
func (p *Parser) Parse(
	ctx context.Context,
	contents string,
	url domain.ResolvedURL,
	inline *domain.InlineInfo,
) (*domain.ParsedDocument, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(p.lang)

	src := []byte(contents)
	parsed, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, zerr.With(domain.WrapAs(domain.ErrParseFailed, err), "type", p.docType)
	}
	if parsed == nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrParseFailed, "no syntax tree"), "type", p.docType)
	}

	root := parsed.RootNode()
	doc := &domain.ParsedDocument{
		URL:      url,
		BaseURL:  url,
		Type:     p.docType,
		Contents: contents,
		AST:      &tree{root: root, src: src},
		Inline:   inline,
	}

	if !root.HasError() {
		return doc, nil
	}
	return nil, &domain.ParseWarningError{
		Warnings: syntaxWarnings(root, src, url, inline),
		Partial:  doc,
	}
}

// syntaxWarnings reports the ERROR and MISSING nodes below root. Inline
// documents report against their position in the container.
func syntaxWarnings(root *sitter.Node, src []byte, url domain.ResolvedURL, inline *domain.InlineInfo) []domain.Warning {
	var warnings []domain.Warning
	var collect func(n *sitter.Node)
	collect = func(n *sitter.Node) {
		if len(warnings) >= maxSyntaxWarnings || !n.HasError() && !n.IsMissing() {
			return
		}
		switch {
		case n.IsMissing():
			warnings = append(warnings, syntaxWarning(fmt.Sprintf("missing %s", n.Type()), n, url, inline))
			return
		case n.IsError():
			warnings = append(warnings, syntaxWarning(fmt.Sprintf("unexpected %q", snippet(n.Content(src))), n, url, inline))
			return
		}
		for i := range int(n.ChildCount()) {
			collect(n.Child(i))
		}
	}
	collect(root)

	if len(warnings) == 0 {
		warnings = append(warnings, syntaxWarning("syntax error", root, url, inline))
	}
	return warnings
}

func syntaxWarning(msg string, n *sitter.Node, url domain.ResolvedURL, inline *domain.InlineInfo) domain.Warning {
	r := &domain.SourceRange{
		File:  url,
		Start: point(n.StartPoint()),
		End:   point(n.EndPoint()),
	}
	if inline != nil {
		r = inline.Range
	}
	return domain.Warning{
		Code:     domain.WarningParseError,
		Message:  msg,
		Severity: domain.SeverityError,
		Range:    r,
	}
}

func snippet(s string) string {
	const limit = 40
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
