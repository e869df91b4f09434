package scanners

import (
	"context"
	"strings"

	"go.trai.ch/sieve/internal/core/domain"
	"go.trai.ch/sieve/internal/core/ports"
)

// CSSImportScanner finds @import rules.
type CSSImportScanner struct{}

// Name implements ports.Scanner.
func (CSSImportScanner) Name() string { return CSSImportsName }

// Scan implements ports.Scanner.
func (CSSImportScanner) Scan(ctx context.Context, doc *domain.ParsedDocument, visit ports.VisitFunc) (ports.ScanResult, error) {
	var res ports.ScanResult
	err := visit(ctx, domain.VisitorFunc(func(n domain.Node) error {
		if n.Type() != "import_statement" {
			return nil
		}
		children := n.NamedChildren()
		if len(children) == 0 {
			return nil
		}
		target := cssImportTarget(children[0].Text())
		if target == "" {
			return nil
		}
		res.Features = append(res.Features, &domain.ScannedImport{
			Type:        ImportCSS,
			Specifier:   domain.FileRelativeURL(target),
			SourceRange: doc.RangeOf(n),
		})
		return nil
	}))
	return res, err
}

// cssImportTarget extracts the URL from "x.css", 'x.css' or url(x.css).
func cssImportTarget(s string) string {
	s = strings.TrimSpace(s)
	if inner, ok := strings.CutPrefix(s, "url("); ok {
		s = strings.TrimSpace(strings.TrimSuffix(inner, ")"))
	}
	return strings.TrimSpace(unquote(s))
}
