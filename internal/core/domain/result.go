package domain

// Feature is a resolved feature of an analyzed document.
type Feature struct {
	Kind  string       `json:"kind"`
	ID    string       `json:"id,omitempty"`
	Range *SourceRange `json:"range,omitempty"`
	// URL is the document the feature was found in.
	URL     ResolvedURL    `json:"url"`
	Scanned ScannedFeature `json:"-"`
}

// Import is a resolved edge to another analyzed document.
type Import struct {
	Type      string          `json:"type"`
	Specifier FileRelativeURL `json:"specifier"`
	URL       ResolvedURL     `json:"url,omitempty"`
	Lazy      bool            `json:"lazy,omitempty"`
	Range     *SourceRange    `json:"range,omitempty"`
	// Document is nil for lazy imports that were never scanned and for imports that failed.
	Document *Document `json:"-"`
}

// Document is the analysis result for one URL, cross-linked with the
// documents it imports.
type Document struct {
	URL      ResolvedURL      `json:"url"`
	Type     string           `json:"type"`
	Scanned  *ScannedDocument `json:"-"`
	Features []Feature        `json:"features"`
	Imports  []*Import        `json:"imports"`
	Warnings []Warning        `json:"warnings"`
}

// QueryOptions controls how far a feature query reaches.
type QueryOptions struct {
	// Imported includes features of every document reachable through eager imports.
	Imported bool
}

// GetFeatures returns all features of the given kind. An empty kind matches everything.
func (d *Document) GetFeatures(kind string, opts QueryOptions) []Feature {
	var out []Feature
	d.eachDocument(opts, func(doc *Document) {
		for _, f := range doc.Features {
			if kind == "" || f.Kind == kind {
				out = append(out, f)
			}
		}
	})
	return out
}

// GetByID returns the features of the given kind whose id matches.
func (d *Document) GetByID(kind, id string, opts QueryOptions) []Feature {
	var out []Feature
	for _, f := range d.GetFeatures(kind, opts) {
		if f.ID == id {
			out = append(out, f)
		}
	}
	return out
}

// ImportedDocuments returns every document reachable from d through eager
// imports, d excluded, in breadth-first order.
func (d *Document) ImportedDocuments() []*Document {
	var out []*Document
	d.eachDocument(QueryOptions{Imported: true}, func(doc *Document) {
		if doc != d {
			out = append(out, doc)
		}
	})
	return out
}

// AllWarnings returns the warnings of d and, when requested, of its imports.
func (d *Document) AllWarnings(opts QueryOptions) []Warning {
	var out []Warning
	d.eachDocument(opts, func(doc *Document) {
		out = append(out, doc.Warnings...)
	})
	return out
}

func (d *Document) eachDocument(opts QueryOptions, fn func(*Document)) {
	if !opts.Imported {
		fn(d)
		return
	}
	visited := map[*Document]struct{}{d: {}}
	queue := []*Document{d}
	for len(queue) > 0 {
		doc := queue[0]
		queue = queue[1:]
		fn(doc)
		for _, imp := range doc.Imports {
			if imp.Lazy || imp.Document == nil {
				continue
			}
			if _, seen := visited[imp.Document]; seen {
				continue
			}
			visited[imp.Document] = struct{}{}
			queue = append(queue, imp.Document)
		}
	}
}
