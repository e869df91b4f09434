package fs_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/sieve/internal/adapters/fs"
	"go.trai.ch/sieve/internal/core/domain"
)

func project() fstest.MapFS {
	return fstest.MapFS{
		"index.html":               {Data: []byte("<script src=app.js></script>")},
		"app.js":                   {Data: []byte("import './lib/util.js';")},
		"lib/util.js":              {Data: []byte("export const x = 1;")},
		"lib/deep/more.css":        {Data: []byte("a {}")},
		".git/config":              {Data: []byte("git config")},
		"node_modules/pkg/main.js": {Data: []byte("module.exports = 1;")},
	}
}

func TestLoader_Load(t *testing.T) {
	loader := fs.NewLoader(project(), fs.NewWalker())

	contents, err := loader.Load(t.Context(), "lib/util.js")
	require.NoError(t, err)
	assert.Equal(t, "export const x = 1;", contents)

	_, err = loader.Load(t.Context(), "missing.js")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "document not found")

	_, err = loader.Load(t.Context(), "../outside.js")
	require.ErrorIs(t, err, domain.ErrCannotLoadURL)
}

func TestLoader_LoadHonorsCancellation(t *testing.T) {
	loader := fs.NewLoader(project(), fs.NewWalker())
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := loader.Load(ctx, "app.js")
	require.ErrorIs(t, err, context.Canceled)
}

func TestLoader_ConcurrentLoads(t *testing.T) {
	loader := fs.NewLoader(project(), fs.NewWalker())

	var wg sync.WaitGroup
	for range 16 {
		wg.Go(func() {
			contents, err := loader.Load(t.Context(), "app.js")
			assert.NoError(t, err)
			assert.Equal(t, "import './lib/util.js';", contents)
		})
	}
	wg.Wait()
}

func TestLoader_CanLoad(t *testing.T) {
	loader := fs.NewLoader(project(), fs.NewWalker())

	assert.True(t, loader.CanLoad("app.js"))
	assert.True(t, loader.CanLoad("lib/util.js"))
	assert.False(t, loader.CanLoad("/app.js"))
	assert.False(t, loader.CanLoad("../app.js"))
	assert.False(t, loader.CanLoad("."))
	assert.False(t, loader.CanLoad(""))
}

func TestLoader_ReadDirectory(t *testing.T) {
	loader := fs.NewLoader(project(), fs.NewWalker())

	deep, err := loader.ReadDirectory(t.Context(), "", true)
	require.NoError(t, err)
	assert.Equal(t, []domain.ResolvedURL{"app.js", "index.html", "lib/deep/more.css", "lib/util.js"}, deep)

	shallow, err := loader.ReadDirectory(t.Context(), "lib", false)
	require.NoError(t, err)
	assert.Equal(t, []domain.ResolvedURL{"lib/util.js"}, shallow)

	_, err = loader.ReadDirectory(t.Context(), "../up", true)
	require.ErrorIs(t, err, domain.ErrCannotLoadURL)
}

func TestWorkspace_Open(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte("<p>hi</p>"), 0o600))

	loader, resolver, err := fs.NewWorkspace(fs.NewWalker()).Open(root)
	require.NoError(t, err)

	url, ok := resolver.Resolve("", "index.html")
	require.True(t, ok)
	contents, err := loader.Load(t.Context(), url)
	require.NoError(t, err)
	assert.Equal(t, "<p>hi</p>", contents)
}

func TestWorkspace_OpenRejectsFiles(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(file, nil, 0o600))

	_, _, err := fs.NewWorkspace(fs.NewWalker()).Open(file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")

	_, _, err = fs.NewWorkspace(fs.NewWalker()).Open(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}

func TestHasher(t *testing.T) {
	h := fs.NewHasher()

	assert.Equal(t, "ef46db3751d8e999", h.Hash(nil))
	assert.Equal(t, h.Hash([]byte("a")), h.Hash([]byte("a")))
	assert.NotEqual(t, h.Hash([]byte("a")), h.Hash([]byte("b")))

	path := filepath.Join(t.TempDir(), "doc.js")
	require.NoError(t, os.WriteFile(path, []byte("let a;"), 0o600))
	sum, err := h.HashFile(path)
	require.NoError(t, err)
	assert.Equal(t, h.Hash([]byte("let a;")), sum)

	_, err = h.HashFile(filepath.Join(t.TempDir(), "missing.js"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open file")
}
