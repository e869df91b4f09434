package scanners_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/sieve/internal/adapters/parsers"
	"go.trai.ch/sieve/internal/adapters/scanners"
	"go.trai.ch/sieve/internal/core/domain"
	"go.trai.ch/sieve/internal/core/ports"
	"go.trai.ch/sieve/internal/engine/scan"
)

func scanSource(t *testing.T, docType, src string, ss ...ports.Scanner) ([]domain.ScannedFeature, []domain.Warning) {
	t.Helper()
	doc, err := parsers.NewRegistry().Parsers()[docType].Parse(context.Background(), src, domain.ResolvedURL("doc."+docType), nil)
	require.NoError(t, err)
	features, warnings, err := scan.New().Scan(context.Background(), doc, ss)
	require.NoError(t, err)
	return features, warnings
}

func imports(features []domain.ScannedFeature) []*domain.ScannedImport {
	var out []*domain.ScannedImport
	for _, f := range features {
		if imp, ok := f.(*domain.ScannedImport); ok {
			out = append(out, imp)
		}
	}
	return out
}

func TestHTMLImportScanner(t *testing.T) {
	src := `<link rel="import" href="a.html">
<link rel="lazy-import" href="lazy.html">
<link rel="stylesheet" href="style.css">
<link rel="modulepreload" href="./mod.js">
<link rel="icon" href="favicon.ico">
<script src="app.js"></script>
<script>console.log(1)</script>
`
	features, _ := scanSource(t, domain.TypeHTML, src, scanners.HTMLImportScanner{})
	got := imports(features)
	require.Len(t, got, 5)

	assert.Equal(t, scanners.ImportHTML, got[0].Type)
	assert.Equal(t, domain.FileRelativeURL("a.html"), got[0].Specifier)
	assert.False(t, got[0].Lazy)
	assert.Equal(t, 0, got[0].SourceRange.Start.Line)

	assert.Equal(t, scanners.ImportHTML, got[1].Type)
	assert.True(t, got[1].Lazy)

	assert.Equal(t, scanners.ImportHTMLStyle, got[2].Type)
	assert.Equal(t, scanners.ImportModulePreload, got[3].Type)

	assert.Equal(t, scanners.ImportHTMLScript, got[4].Type)
	assert.Equal(t, domain.FileRelativeURL("app.js"), got[4].Specifier)
	assert.Equal(t, 5, got[4].SourceRange.Start.Line)
	assert.Equal(t, domain.ResolvedURL("doc.html"), got[4].SourceRange.File)
}

func TestHTMLInlineDocumentScanner(t *testing.T) {
	src := "<div>\n<script>import './x.js';</script>\n<script type=\"application/json\">{}</script>\n<script src=\"y.js\"></script>\n<style>@import 'z.css';</style>\n</div>\n"

	features, _ := scanSource(t, domain.TypeHTML, src, scanners.HTMLInlineDocumentScanner{})
	require.Len(t, features, 2)

	js, ok := features[0].(*domain.ScannedInlineDocument)
	require.True(t, ok)
	assert.Equal(t, domain.TypeJS, js.Type)
	assert.Equal(t, "import './x.js';", js.Contents)
	assert.Equal(t, domain.LocationOffset{Line: 1, Column: len("<script>"), Filename: "doc.html"}, js.Offset)

	css, ok := features[1].(*domain.ScannedInlineDocument)
	require.True(t, ok)
	assert.Equal(t, domain.TypeCSS, css.Type)
	assert.Equal(t, "@import 'z.css';", css.Contents)
	assert.Equal(t, 4, css.Offset.Line)
}

func TestHTMLElementReferenceScanner(t *testing.T) {
	src := "<my-app>\n  <div></div>\n  <x-item/>\n  <My-Widget></My-Widget>\n</my-app>\n"

	features, _ := scanSource(t, domain.TypeHTML, src, scanners.HTMLElementReferenceScanner{})

	var tags []string
	for _, f := range features {
		ref, ok := f.(*domain.ScannedElementReference)
		require.True(t, ok)
		tags = append(tags, ref.TagName)
	}
	assert.Equal(t, []string{"my-app", "x-item", "my-widget"}, tags)
}

func TestJSImportScanner(t *testing.T) {
	src := `import { a } from './a.js';
import 'lit';
export * from '../b.js';
export const x = 1;
const lazy = () => import('./lazy.js');
import(name);
`
	features, _ := scanSource(t, domain.TypeJS, src, scanners.JSImportScanner{})
	got := imports(features)
	require.Len(t, got, 3)

	assert.Equal(t, domain.FileRelativeURL("./a.js"), got[0].Specifier)
	assert.Equal(t, scanners.ImportJS, got[0].Type)
	assert.Equal(t, domain.FileRelativeURL("../b.js"), got[1].Specifier)
	assert.Equal(t, 2, got[1].SourceRange.Start.Line)

	assert.Equal(t, domain.FileRelativeURL("./lazy.js"), got[2].Specifier)
	assert.Equal(t, scanners.ImportJSDynamic, got[2].Type)
	assert.True(t, got[2].Lazy)
}

func TestJSElementScanner(t *testing.T) {
	src := `class MyApp extends HTMLElement {}
customElements.define('my-app', MyApp);
window.customElements.define("x-inline", class XInline extends HTMLElement {});
other.define('not-me', Foo);
`
	features, _ := scanSource(t, domain.TypeJS, src, scanners.JSElementScanner{})
	require.Len(t, features, 2)

	first := features[0].(*domain.ScannedElement)
	assert.Equal(t, "my-app", first.TagName)
	assert.Equal(t, "MyApp", first.ClassName)
	assert.Equal(t, 1, first.SourceRange.Start.Line)

	second := features[1].(*domain.ScannedElement)
	assert.Equal(t, "x-inline", second.TagName)
	assert.Equal(t, "XInline", second.ClassName)
}

func TestCSSImportScanner(t *testing.T) {
	src := "@import \"base.css\";\n@import url(theme.css);\nbody { color: red; }\n"

	features, _ := scanSource(t, domain.TypeCSS, src, scanners.CSSImportScanner{})
	got := imports(features)
	require.Len(t, got, 2)
	assert.Equal(t, domain.FileRelativeURL("base.css"), got[0].Specifier)
	assert.Equal(t, domain.FileRelativeURL("theme.css"), got[1].Specifier)
	assert.Equal(t, scanners.ImportCSS, got[1].Type)
}

func TestScannersShareOneDocument(t *testing.T) {
	src := `<link rel="import" href="a.html"><my-el></my-el>`

	features, _ := scanSource(t, domain.TypeHTML, src, scanners.Bundled()[domain.TypeHTML]...)

	kinds := make(map[string]int)
	for _, f := range features {
		kinds[f.Kind()]++
	}
	assert.Equal(t, 1, kinds[domain.KindImport])
	assert.Equal(t, 1, kinds[domain.KindElementReference])
}

func TestFactory_Scanners(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "todo.rsr"), []byte(`warn("loaded")`), 0o600))

	cfg := domain.DefaultConfig(root)
	cfg.DisabledScanners = []string{scanners.HTMLElementReferencesName}
	cfg.Scripts = []domain.ScriptConfig{{Name: "todos", Path: "todo.rsr", DocumentType: domain.TypeJS}}

	got, err := scanners.NewFactory().Scanners(context.Background(), cfg)
	require.NoError(t, err)

	var htmlNames []string
	for _, s := range got[domain.TypeHTML] {
		htmlNames = append(htmlNames, s.Name())
	}
	assert.Equal(t, []string{scanners.HTMLImportsName, scanners.HTMLInlineDocumentsName}, htmlNames)

	require.Len(t, got[domain.TypeJS], 3)
	assert.Equal(t, "todos", got[domain.TypeJS][2].Name())
	assert.Len(t, got[domain.TypeCSS], 1)
}

func TestFactory_MissingScript(t *testing.T) {
	cfg := domain.DefaultConfig(t.TempDir())
	cfg.Scripts = []domain.ScriptConfig{{Name: "gone", Path: "gone.rsr", DocumentType: domain.TypeJS}}

	_, err := scanners.NewFactory().Scanners(context.Background(), cfg)
	require.ErrorIs(t, err, domain.ErrScriptFailed)
}
