package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/sieve/internal/adapters/config"
	"go.trai.ch/sieve/internal/core/domain"
	"go.trai.ch/sieve/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func newLoader(t *testing.T) (*config.Loader, *mocks.MockLogger) {
	t.Helper()
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Debug(gomock.Any()).AnyTimes()
	return config.NewLoader(log), log
}

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, domain.DirPerm))
	require.NoError(t, os.WriteFile(filepath.Join(dir, domain.ConfigFileName), []byte(content), 0o600))
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	dir := t.TempDir()
	loader, _ := newLoader(t)

	cfg, err := loader.Load(dir)
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.Root)
	assert.Equal(t, []string{"**/*.html"}, cfg.Entrypoints)
	assert.Equal(t, domain.DefaultDebounce, cfg.Debounce)
	assert.Equal(t, filepath.Join(dir, ".sieve", "index.db"), cfg.IndexPath)
	assert.Equal(t, filepath.Join(dir, ".sieve", "store"), cfg.StorePath)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_FullFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
version: "1"
root: web
entrypoints: ["pages/*.html", "app.js"]
exclude: ["pages/draft-*.html"]
scanners:
  html-element-references: false
  js-imports: true
scripts:
  - name: todos
    path: scripts/todos.rsr
    type: js
    nodeTypes: [comment]
watch:
  debounce: 300ms
index:
  path: /tmp/sieve-index.db
store:
  path: cache/store
logLevel: debug
`)
	loader, _ := newLoader(t)

	cfg, err := loader.Load(dir)
	require.NoError(t, err)

	root := filepath.Join(dir, "web")
	assert.Equal(t, root, cfg.Root)
	assert.Equal(t, []string{"pages/*.html", "app.js"}, cfg.Entrypoints)
	assert.Contains(t, cfg.Exclude, "pages/draft-*.html")
	assert.Contains(t, cfg.Exclude, "**/node_modules/**")
	assert.Equal(t, []string{"html-element-references"}, cfg.DisabledScanners)
	assert.Equal(t, []domain.ScriptConfig{{
		Name:         "todos",
		Path:         "scripts/todos.rsr",
		DocumentType: domain.TypeJS,
		NodeTypes:    []string{"comment"},
	}}, cfg.Scripts)
	assert.Equal(t, 300*time.Millisecond, cfg.Debounce)
	assert.Equal(t, "/tmp/sieve-index.db", cfg.IndexPath)
	assert.Equal(t, filepath.Join(root, "cache", "store"), cfg.StorePath)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_DiscoversParentConfig(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "entrypoints: [\"index.html\"]\n")
	nested := filepath.Join(dir, "src", "components")
	require.NoError(t, os.MkdirAll(nested, domain.DirPerm))
	loader, _ := newLoader(t)

	cfg, err := loader.Load(nested)
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.Root)
	assert.Equal(t, []string{"index.html"}, cfg.Entrypoints)
}

func TestLoad_NearestConfigWins(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "entrypoints: [\"outer.html\"]\n")
	inner := filepath.Join(dir, "inner")
	writeConfig(t, inner, "entrypoints: [\"inner.html\"]\n")
	loader, _ := newLoader(t)

	cfg, err := loader.Load(inner)
	require.NoError(t, err)

	assert.Equal(t, inner, cfg.Root)
	assert.Equal(t, []string{"inner.html"}, cfg.Entrypoints)
}

func TestLoad_UnknownVersionWarns(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "version: \"2\"\n")
	loader, log := newLoader(t)
	log.EXPECT().Warn(gomock.Any()).Times(1)

	_, err := loader.Load(dir)
	require.NoError(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "malformed yaml", content: "entrypoints: [\n"},
		{name: "bad glob", content: "entrypoints: [\"pages/[.html\"]\n"},
		{name: "script without type", content: "scripts:\n  - path: a.rsr\n"},
		{name: "script without path", content: "scripts:\n  - type: js\n"},
		{name: "bad debounce", content: "watch:\n  debounce: soon\n"},
		{name: "negative debounce", content: "watch:\n  debounce: -1s\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, tt.content)
			loader, _ := newLoader(t)

			_, err := loader.Load(dir)
			require.ErrorIs(t, err, domain.ErrInvalidConfig)
		})
	}
}
