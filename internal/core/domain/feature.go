package domain

// Feature kinds produced by the bundled scanners.
const (
	KindImport           = "import"
	KindInlineDocument   = "inline-document"
	KindElement          = "element"
	KindElementReference = "element-reference"
)

// ScannedFeature is one local fact a scanner discovered in a document.
type ScannedFeature interface {
	// Kind names the feature family, e.g. "import".
	Kind() string
	// Range is the feature's position, or nil when unknown.
	Range() *SourceRange
}

// Identified is implemented by features that can be looked up by id.
type Identified interface {
	ID() string
}

// ScannedImport is an edge from the scanned document to another document.
type ScannedImport struct {
	// Type distinguishes the import syntax, e.g. "html-import" or "js-import".
	Type string
	// Specifier is the URL as written in source.
	Specifier FileRelativeURL
	// URL is the resolved target. It is empty when the specifier could not be resolved.
	URL ResolvedURL
	// Lazy imports are recorded but not followed during closure scanning.
	Lazy bool

	SourceRange *SourceRange
}

// Kind implements ScannedFeature.
func (i *ScannedImport) Kind() string { return KindImport }

// Range implements ScannedFeature.
func (i *ScannedImport) Range() *SourceRange { return i.SourceRange }

// ID implements Identified.
func (i *ScannedImport) ID() string { return string(i.URL) }

// ScannedInlineDocument is a document embedded in another, such as a script body.
type ScannedInlineDocument struct {
	// Type is the document type of the contents, e.g. "js".
	Type     string
	Contents string
	Offset   LocationOffset
	// Document is set once the contents have been parsed and scanned.
	Document *ScannedDocument

	SourceRange *SourceRange
}

// Kind implements ScannedFeature.
func (d *ScannedInlineDocument) Kind() string { return KindInlineDocument }

// Range implements ScannedFeature.
func (d *ScannedInlineDocument) Range() *SourceRange { return d.SourceRange }

// ScannedElement is a custom element definition.
type ScannedElement struct {
	TagName     string
	ClassName   string
	SourceRange *SourceRange
}

// Kind implements ScannedFeature.
func (e *ScannedElement) Kind() string { return KindElement }

// Range implements ScannedFeature.
func (e *ScannedElement) Range() *SourceRange { return e.SourceRange }

// ID implements Identified.
func (e *ScannedElement) ID() string { return e.TagName }

// ScannedElementReference is a usage of a custom element tag.
type ScannedElementReference struct {
	TagName     string
	SourceRange *SourceRange
}

// Kind implements ScannedFeature.
func (e *ScannedElementReference) Kind() string { return KindElementReference }

// Range implements ScannedFeature.
func (e *ScannedElementReference) Range() *SourceRange { return e.SourceRange }

// ID implements Identified.
func (e *ScannedElementReference) ID() string { return e.TagName }

// ScannedScriptFeature is a feature emitted by a user supplied scanner script.
type ScannedScriptFeature struct {
	FeatureKind string
	Identifier  string
	Attributes  map[string]string
	SourceRange *SourceRange
}

// Kind implements ScannedFeature.
func (f *ScannedScriptFeature) Kind() string { return f.FeatureKind }

// Range implements ScannedFeature.
func (f *ScannedScriptFeature) Range() *SourceRange { return f.SourceRange }

// ID implements Identified.
func (f *ScannedScriptFeature) ID() string { return f.Identifier }
