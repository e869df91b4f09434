package domain

// InlineInfo describes where an embedded document lives inside its container.
type InlineInfo struct {
	Container ResolvedURL
	Range     *SourceRange
}

// ParsedDocument is the immutable result of parsing one document.
type ParsedDocument struct {
	URL     ResolvedURL
	BaseURL ResolvedURL
	// Type is the document type, e.g. "html", "js" or "css".
	Type     string
	Contents string
	// AST is nil when parsing failed without a usable tree.
	AST    AST
	Inline *InlineInfo
	Offset LocationOffset
}

// IsInline reports whether the document is embedded in another document.
func (d *ParsedDocument) IsInline() bool {
	return d.Inline != nil
}

// RangeOf returns node's range in the coordinates of the outermost document.
func (d *ParsedDocument) RangeOf(node Node) *SourceRange {
	r := node.Range()
	r.File = d.URL
	return d.Offset.Apply(&r)
}

// ScannedDocument is a parsed document together with its local features.
type ScannedDocument struct {
	Document *ParsedDocument
	Features []ScannedFeature
	Warnings []Warning
}

// URL returns the URL of the underlying parsed document.
func (d *ScannedDocument) URL() ResolvedURL {
	return d.Document.URL
}

// IsInline reports whether the document is embedded in another document.
func (d *ScannedDocument) IsInline() bool {
	return d.Document.IsInline()
}

// NestedFeatures returns the document's features followed, in place, by the
// features of every inline document it contains.
func (d *ScannedDocument) NestedFeatures() []ScannedFeature {
	var out []ScannedFeature
	d.collectNested(map[*ScannedDocument]struct{}{}, &out)
	return out
}

func (d *ScannedDocument) collectNested(visited map[*ScannedDocument]struct{}, out *[]ScannedFeature) {
	if _, seen := visited[d]; seen {
		return
	}
	visited[d] = struct{}{}
	for _, f := range d.Features {
		*out = append(*out, f)
		if inline, ok := f.(*ScannedInlineDocument); ok && inline.Document != nil {
			inline.Document.collectNested(visited, out)
		}
	}
}

// NestedWarnings returns the document's warnings and those of its inline documents.
func (d *ScannedDocument) NestedWarnings() []Warning {
	warnings := append([]Warning(nil), d.Warnings...)
	for _, f := range d.NestedFeatures() {
		if inline, ok := f.(*ScannedInlineDocument); ok && inline.Document != nil {
			warnings = append(warnings, inline.Document.Warnings...)
		}
	}
	return warnings
}

// Imports returns every import of the document, including those of inline documents.
func (d *ScannedDocument) Imports() []*ScannedImport {
	var imports []*ScannedImport
	for _, f := range d.NestedFeatures() {
		if imp, ok := f.(*ScannedImport); ok {
			imports = append(imports, imp)
		}
	}
	return imports
}

// EagerImportURLs returns the resolved targets of all non-lazy imports, de-duplicated, in source order.
func (d *ScannedDocument) EagerImportURLs() []ResolvedURL {
	seen := make(map[ResolvedURL]struct{})
	var urls []ResolvedURL
	for _, imp := range d.Imports() {
		if imp.Lazy || imp.URL == "" {
			continue
		}
		if _, ok := seen[imp.URL]; ok {
			continue
		}
		seen[imp.URL] = struct{}{}
		urls = append(urls, imp.URL)
	}
	return urls
}
