package scanners

import (
	"context"
	"os"
	"path/filepath"
	"slices"

	"go.trai.ch/sieve/internal/core/domain"
	"go.trai.ch/sieve/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.ScannerFactory = (*Factory)(nil)

// Factory assembles the scanners of a project from the bundled scanners
// and the configured scripts.
type Factory struct{}

// NewFactory creates a new Factory.
func NewFactory() *Factory {
	return &Factory{}
}

// Bundled returns the bundled scanners keyed by document type.
func Bundled() map[string][]ports.Scanner {
	return map[string][]ports.Scanner{
		domain.TypeHTML: {HTMLImportScanner{}, HTMLInlineDocumentScanner{}, HTMLElementReferenceScanner{}},
		domain.TypeJS:   {JSImportScanner{}, JSElementScanner{}},
		domain.TypeCSS:  {CSSImportScanner{}},
	}
}

// Scanners returns the bundled scanners not disabled by cfg, followed by one
// scanner per configured script. Script paths are relative to cfg.Root.
func (f *Factory) Scanners(ctx context.Context, cfg *domain.Config) (map[string][]ports.Scanner, error) {
	out := make(map[string][]ports.Scanner)
	for docType, scanners := range Bundled() {
		for _, s := range scanners {
			if !slices.Contains(cfg.DisabledScanners, s.Name()) {
				out[docType] = append(out[docType], s)
			}
		}
	}

	for _, sc := range cfg.Scripts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s, err := loadScript(cfg.Root, sc)
		if err != nil {
			return nil, err
		}
		out[sc.DocumentType] = append(out[sc.DocumentType], s)
	}
	return out, nil
}

func loadScript(root string, sc domain.ScriptConfig) (*ScriptScanner, error) {
	path := sc.Path
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}
	src, err := os.ReadFile(path) //nolint:gosec // Path comes from the project configuration
	if err != nil {
		return nil, zerr.With(zerr.With(domain.WrapAs(domain.ErrScriptFailed, err), "script", sc.Name), "path", path)
	}
	name := sc.Name
	if name == "" {
		name = filepath.Base(sc.Path)
	}
	return NewScriptScanner(name, string(src), sc.NodeTypes), nil
}
