package scanners

import (
	"context"
	"strings"

	"go.trai.ch/sieve/internal/core/domain"
	"go.trai.ch/sieve/internal/core/ports"
)

// JSImportScanner finds static imports, re-exports and dynamic imports.
// Bare module specifiers are skipped; package resolution is not supported.
type JSImportScanner struct{}

// Name implements ports.Scanner.
func (JSImportScanner) Name() string { return JSImportsName }

// Scan implements ports.Scanner.
func (JSImportScanner) Scan(ctx context.Context, doc *domain.ParsedDocument, visit ports.VisitFunc) (ports.ScanResult, error) {
	var res ports.ScanResult
	add := func(n domain.Node, typ string, lazy bool) {
		specifier := unquote(n.Text())
		if !isPathSpecifier(specifier) {
			return
		}
		res.Features = append(res.Features, &domain.ScannedImport{
			Type:        typ,
			Specifier:   domain.FileRelativeURL(specifier),
			Lazy:        lazy,
			SourceRange: doc.RangeOf(n),
		})
	}

	err := visit(ctx, domain.VisitorFunc(func(n domain.Node) error {
		switch n.Type() {
		case "import_statement", "export_statement":
			if source := n.Field("source"); source != nil && source.Type() == "string" {
				add(source, ImportJS, false)
			}
		case "call_expression":
			fn := n.Field("function")
			if fn == nil || fn.Type() != "import" {
				return nil
			}
			if arg := firstArgument(n); arg != nil && arg.Type() == "string" {
				add(arg, ImportJSDynamic, true)
			}
		}
		return nil
	}))
	return res, err
}

func isPathSpecifier(s string) bool {
	return strings.HasPrefix(s, "./") || strings.HasPrefix(s, "../") || strings.HasPrefix(s, "/")
}

func firstArgument(call domain.Node) domain.Node {
	args := call.Field("arguments")
	if args == nil {
		return nil
	}
	children := args.NamedChildren()
	if len(children) == 0 {
		return nil
	}
	return children[0]
}

// JSElementScanner finds customElements.define calls.
type JSElementScanner struct{}

// Name implements ports.Scanner.
func (JSElementScanner) Name() string { return JSElementsName }

// Scan implements ports.Scanner.
func (JSElementScanner) Scan(ctx context.Context, doc *domain.ParsedDocument, visit ports.VisitFunc) (ports.ScanResult, error) {
	var res ports.ScanResult
	err := visit(ctx, domain.VisitorFunc(func(n domain.Node) error {
		if n.Type() != "call_expression" {
			return nil
		}
		fn := n.Field("function")
		if fn == nil || !isDefineCall(fn.Text()) {
			return nil
		}
		args := n.Field("arguments")
		if args == nil {
			return nil
		}
		children := args.NamedChildren()
		if len(children) == 0 || children[0].Type() != "string" {
			return nil
		}

		el := &domain.ScannedElement{
			TagName:     unquote(children[0].Text()),
			SourceRange: doc.RangeOf(n),
		}
		if len(children) > 1 {
			el.ClassName = className(children[1])
		}
		res.Features = append(res.Features, el)
		return nil
	}))
	return res, err
}

func isDefineCall(callee string) bool {
	switch strings.Join(strings.Fields(callee), "") {
	case "customElements.define", "window.customElements.define":
		return true
	default:
		return false
	}
}

// className names the class passed to customElements.define, when it has one.
func className(n domain.Node) string {
	switch n.Type() {
	case "identifier":
		return n.Text()
	case "class":
		if name := n.Field("name"); name != nil {
			return name.Text()
		}
	}
	return ""
}
