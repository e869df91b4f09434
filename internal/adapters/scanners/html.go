// Package scanners provides the bundled feature scanners and the scripted scanner.
package scanners

import (
	"context"
	"strings"

	"go.trai.ch/sieve/internal/core/domain"
	"go.trai.ch/sieve/internal/core/ports"
)

// Names of the bundled scanners, as used by the scanners configuration.
const (
	HTMLImportsName           = "html-imports"
	HTMLInlineDocumentsName   = "html-inline-documents"
	HTMLElementReferencesName = "html-element-references"
	JSImportsName             = "js-imports"
	JSElementsName            = "js-elements"
	CSSImportsName            = "css-imports"
)

// Import types recorded by the bundled scanners.
const (
	ImportHTML          = "html-import"
	ImportHTMLStyle     = "html-style"
	ImportHTMLScript    = "html-script"
	ImportModulePreload = "html-modulepreload"
	ImportJS            = "js-import"
	ImportJSDynamic     = "js-dynamic-import"
	ImportCSS           = "css-import"
)

// htmlTag is the start tag of an HTML element.
type htmlTag struct {
	name  string
	attrs map[string]string
	node  domain.Node
}

func (t htmlTag) has(attr string) bool {
	_, ok := t.attrs[attr]
	return ok
}

// startTag returns the start tag of an element, script or style node.
func startTag(n domain.Node) (htmlTag, bool) {
	switch n.Type() {
	case "element", "script_element", "style_element":
	default:
		return htmlTag{}, false
	}
	for _, child := range n.NamedChildren() {
		if child.Type() != "start_tag" && child.Type() != "self_closing_tag" {
			continue
		}
		tag := htmlTag{attrs: make(map[string]string), node: child}
		for _, part := range child.NamedChildren() {
			switch part.Type() {
			case "tag_name":
				tag.name = strings.ToLower(part.Text())
			case "attribute":
				name, value := attribute(part)
				if name != "" {
					tag.attrs[name] = value
				}
			}
		}
		return tag, tag.name != ""
	}
	return htmlTag{}, false
}

func attribute(n domain.Node) (string, string) {
	var name, value string
	for _, part := range n.NamedChildren() {
		switch part.Type() {
		case "attribute_name":
			name = strings.ToLower(part.Text())
		case "attribute_value":
			value = part.Text()
		case "quoted_attribute_value":
			value = unquote(part.Text())
		}
	}
	return name, value
}

// rawText returns the raw_text child of a script or style element.
func rawText(n domain.Node) domain.Node {
	for _, child := range n.NamedChildren() {
		if child.Type() == "raw_text" {
			return child
		}
	}
	return nil
}

func unquote(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first == last && (first == '"' || first == '\'' || first == '`') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// HTMLImportScanner finds documents imported by link and script tags.
type HTMLImportScanner struct{}

// Name implements ports.Scanner.
func (HTMLImportScanner) Name() string { return HTMLImportsName }

// Scan implements ports.Scanner.
func (HTMLImportScanner) Scan(ctx context.Context, doc *domain.ParsedDocument, visit ports.VisitFunc) (ports.ScanResult, error) {
	var res ports.ScanResult
	err := visit(ctx, domain.VisitorFunc(func(n domain.Node) error {
		tag, ok := startTag(n)
		if !ok {
			return nil
		}
		switch tag.name {
		case "link":
			if imp := linkImport(tag, doc); imp != nil {
				res.Features = append(res.Features, imp)
			}
		case "script":
			if src := strings.TrimSpace(tag.attrs["src"]); src != "" {
				res.Features = append(res.Features, &domain.ScannedImport{
					Type:        ImportHTMLScript,
					Specifier:   domain.FileRelativeURL(src),
					SourceRange: doc.RangeOf(tag.node),
				})
			}
		}
		return nil
	}))
	return res, err
}

func linkImport(tag htmlTag, doc *domain.ParsedDocument) *domain.ScannedImport {
	href := strings.TrimSpace(tag.attrs["href"])
	if href == "" {
		return nil
	}
	imp := &domain.ScannedImport{
		Specifier:   domain.FileRelativeURL(href),
		SourceRange: doc.RangeOf(tag.node),
	}
	for _, rel := range strings.Fields(strings.ToLower(tag.attrs["rel"])) {
		switch rel {
		case "import":
			imp.Type = ImportHTML
		case "lazy-import":
			imp.Type = ImportHTML
			imp.Lazy = true
		case "stylesheet":
			imp.Type = ImportHTMLStyle
		case "modulepreload":
			imp.Type = ImportModulePreload
		default:
			continue
		}
		return imp
	}
	return nil
}

// HTMLInlineDocumentScanner finds scripts and styles embedded in HTML.
type HTMLInlineDocumentScanner struct{}

// Name implements ports.Scanner.
func (HTMLInlineDocumentScanner) Name() string { return HTMLInlineDocumentsName }

// Scan implements ports.Scanner.
func (HTMLInlineDocumentScanner) Scan(ctx context.Context, doc *domain.ParsedDocument, visit ports.VisitFunc) (ports.ScanResult, error) {
	var res ports.ScanResult
	err := visit(ctx, domain.VisitorFunc(func(n domain.Node) error {
		var docType string
		switch n.Type() {
		case "script_element":
			tag, ok := startTag(n)
			if !ok || tag.has("src") || !isJavaScriptType(tag.attrs["type"]) {
				return nil
			}
			docType = domain.TypeJS
		case "style_element":
			docType = domain.TypeCSS
		default:
			return nil
		}

		raw := rawText(n)
		if raw == nil {
			return nil
		}
		r := doc.RangeOf(raw)
		res.Features = append(res.Features, &domain.ScannedInlineDocument{
			Type:     docType,
			Contents: raw.Text(),
			Offset: domain.LocationOffset{
				Line:     r.Start.Line,
				Column:   r.Start.Column,
				Filename: r.File,
			},
			SourceRange: r,
		})
		return nil
	}))
	return res, err
}

func isJavaScriptType(t string) bool {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "", "module", "text/javascript", "application/javascript":
		return true
	default:
		return false
	}
}

// HTMLElementReferenceScanner finds uses of custom elements.
type HTMLElementReferenceScanner struct{}

// Name implements ports.Scanner.
func (HTMLElementReferenceScanner) Name() string { return HTMLElementReferencesName }

// Scan implements ports.Scanner.
func (HTMLElementReferenceScanner) Scan(ctx context.Context, doc *domain.ParsedDocument, visit ports.VisitFunc) (ports.ScanResult, error) {
	var res ports.ScanResult
	err := visit(ctx, domain.VisitorFunc(func(n domain.Node) error {
		if n.Type() != "element" {
			return nil
		}
		tag, ok := startTag(n)
		if !ok || !isCustomElementName(tag.name) {
			return nil
		}
		res.Features = append(res.Features, &domain.ScannedElementReference{
			TagName:     tag.name,
			SourceRange: doc.RangeOf(tag.node),
		})
		return nil
	}))
	return res, err
}

// isCustomElementName reports whether name is a valid custom element name:
// it starts with a letter and contains a hyphen.
func isCustomElementName(name string) bool {
	if name == "" || name[0] < 'a' || name[0] > 'z' {
		return false
	}
	return strings.Contains(name, "-")
}
