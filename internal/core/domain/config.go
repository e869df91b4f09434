package domain

import "time"

// DefaultDebounce is the default quiet period before a batch of file changes is processed.
const DefaultDebounce = 150 * time.Millisecond

// Config is the resolved project configuration.
type Config struct {
	// Root is the absolute project root. All documents must live below it.
	Root string
	// Entrypoints are doublestar globs, relative to Root, selecting the documents to analyze.
	Entrypoints []string
	// Exclude are doublestar globs removed from the entrypoint set.
	Exclude []string
	// DisabledScanners lists bundled scanner names that must not run.
	DisabledScanners []string
	// Scripts are user supplied scanner scripts.
	Scripts []ScriptConfig
	// Debounce is the watch mode quiet period.
	Debounce time.Duration
	// IndexPath is where the SQLite feature index is written.
	IndexPath string
	// StorePath is where file fingerprints are kept.
	StorePath string
	// LogLevel is one of debug, info, warn, error.
	LogLevel string
}

// ScriptConfig declares one scripted scanner.
type ScriptConfig struct {
	// Name identifies the scanner in warnings.
	Name string
	// Path is the Risor script file, relative to the project root.
	Path string
	// DocumentType is the document type the script scans, e.g. "js".
	DocumentType string
	// NodeTypes are the grammar node types handed to the script.
	NodeTypes []string
}

// DefaultConfig returns the configuration used when no sieve.yaml sets a value.
func DefaultConfig(root string) *Config {
	return &Config{
		Root:        root,
		Entrypoints: []string{"**/*.html"},
		Exclude:     []string{"**/node_modules/**", SieveDirName + "/**"},
		Debounce:    DefaultDebounce,
		IndexPath:   DefaultIndexPath(),
		StorePath:   DefaultStorePath(),
		LogLevel:    "info",
	}
}

// Fingerprint records the content hash of a document at the time it was last analyzed.
type Fingerprint struct {
	URL       ResolvedURL `json:"url"`
	Hash      string      `json:"hash"`
	Size      int         `json:"size"`
	Timestamp time.Time   `json:"timestamp"`
}

// IndexedFeature is one row of the feature index.
type IndexedFeature struct {
	URL    ResolvedURL
	Kind   string
	ID     string
	Line   int
	Column int
}
