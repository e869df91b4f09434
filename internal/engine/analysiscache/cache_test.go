package analysiscache_test

import (
	"context"
	"errors"
	"testing"
	"testing/synctest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/sieve/internal/core/domain"
	"go.trai.ch/sieve/internal/engine/analysiscache"
	"go.trai.ch/sieve/internal/engine/depgraph"
)

type urls = []domain.ResolvedURL

func scannedDoc(url domain.ResolvedURL) *domain.ScannedDocument {
	return &domain.ScannedDocument{
		Document: &domain.ParsedDocument{URL: url, BaseURL: url, Type: "html"},
	}
}

// populate records a fully analyzed generation for the given import edges.
func populate(t *testing.T, c *analysiscache.Cache, edges map[domain.ResolvedURL]urls) {
	t.Helper()
	for url, deps := range edges {
		doc := scannedDoc(url)
		c.Parsed.Set(url, doc.Document)
		c.Scanned.Set(url, doc)
		require.NoError(t, c.RegisterScannedDocument(doc))
		require.NoError(t, c.Graph().AddDocument(url, deps))

		f := c.DependenciesScanned(url, func() (*domain.ScannedDocument, error) { return doc, nil })
		<-f.Done()

		analyzed := &domain.Document{URL: url, Type: "html", Scanned: doc}
		c.Analyzed.Set(url, analyzed)
		require.NoError(t, c.StoreAnalyzedDocument(analyzed))
	}
}

func TestInvalidate_LeavesOriginalGenerationIntact(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c := analysiscache.New()
		populate(t, c, map[domain.ResolvedURL]urls{
			"a.html": {"b.html"},
			"b.html": {"c.html"},
			"c.html": nil,
		})

		next := c.Invalidate(urls{"c.html"})

		for _, url := range (urls{"a.html", "b.html", "c.html"}) {
			assert.True(t, c.Scanned.Has(url), "original scanned %s", url)
			_, ok := c.AnalyzedDocument(url)
			assert.True(t, ok, "original analyzed %s", url)
			assert.True(t, c.HasDependenciesScanned(url))
		}
		assert.Equal(t, depgraph.StateKnown, c.Graph().State("c.html"))
		assert.NotSame(t, c.Graph(), next.Graph())
	})
}

func TestInvalidate_ChainDropsDependantsButKeepsTheirScans(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c := analysiscache.New()
		populate(t, c, map[domain.ResolvedURL]urls{
			"a.html": {"b.html"},
			"b.html": {"c.html"},
			"c.html": nil,
			"z.html": nil,
		})

		next := c.Invalidate(urls{"c.html"})

		// The changed document is gone from every stage.
		assert.False(t, next.Parsed.Has("c.html"))
		assert.False(t, next.Scanned.Has("c.html"))
		assert.False(t, next.Analyzed.Has("c.html"))
		_, ok := next.ScannedDocument("c.html")
		assert.False(t, ok)
		assert.Equal(t, depgraph.StateUnknown, next.Graph().State("c.html"))

		// Dependants keep their local scans but must be rebuilt.
		for _, url := range (urls{"a.html", "b.html"}) {
			assert.True(t, next.Scanned.Has(url), url)
			_, ok := next.ScannedDocument(url)
			assert.True(t, ok, url)
			assert.False(t, next.HasDependenciesScanned(url), url)
			assert.False(t, next.Analyzed.Has(url), url)
			_, ok = next.AnalyzedDocument(url)
			assert.False(t, ok, url)
		}

		// Unrelated documents survive untouched.
		assert.True(t, next.HasDependenciesScanned("z.html"))
		got, ok := next.Analyzed.Get("z.html")
		require.True(t, ok)
		want, _ := c.AnalyzedDocument("z.html")
		assert.Same(t, want, got)
		assert.Equal(t, urls{"z.html"}, next.AnalyzedURLs())
	})
}

func TestInvalidate_OverlappingClosures(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c := analysiscache.New()
		populate(t, c, map[domain.ResolvedURL]urls{
			"top.html":    {"left.html", "right.html"},
			"left.html":   {"bottom.html"},
			"right.html":  {"bottom.html"},
			"bottom.html": nil,
		})

		next := c.Invalidate(urls{"left.html", "bottom.html"})

		for _, url := range (urls{"left.html", "bottom.html"}) {
			assert.False(t, next.Scanned.Has(url), url)
			assert.False(t, next.Parsed.Has(url), url)
		}
		for _, url := range (urls{"top.html", "right.html"}) {
			assert.True(t, next.Scanned.Has(url), url)
			assert.False(t, next.HasDependenciesScanned(url), url)
		}
		assert.Empty(t, next.AnalyzedURLs())

		// Both invalidated nodes remain as unknown nodes carrying their dependants.
		assert.Equal(t, urls{"top.html"}, next.Graph().DependantsOf("left.html"))
		assert.Equal(t, urls{"right.html"}, next.Graph().DependantsOf("bottom.html"))
	})
}

func TestInvalidate_DropsPendingClosureScans(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c := analysiscache.New()
		release := make(chan struct{})
		f := c.DependenciesScanned("slow.html", func() (*domain.ScannedDocument, error) {
			<-release
			return scannedDoc("slow.html"), nil
		})

		next := c.Invalidate(nil)
		assert.False(t, next.HasDependenciesScanned("slow.html"))
		assert.True(t, c.HasDependenciesScanned("slow.html"))

		close(release)
		_, err := f.Wait(t.Context())
		require.NoError(t, err)
	})
}

func TestInvalidate_InheritsInFlightScans(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c := analysiscache.New()
		release := make(chan struct{})
		go func() {
			_, _ = c.Scanned.GetOrCompute(context.Background(), "slow.html", func(context.Context) (*domain.ScannedDocument, error) {
				<-release
				doc := scannedDoc("slow.html")
				return doc, c.Graph().AddDocument("slow.html", nil)
			})
		}()
		synctest.Wait()

		next := c.Invalidate(urls{"other.html"})
		assert.Equal(t, depgraph.StateUnknown, next.Graph().State("slow.html"))

		close(release)
		synctest.Wait()

		assert.Equal(t, depgraph.StateKnown, next.Graph().State("slow.html"))
		got, ok := next.Scanned.Get("slow.html")
		require.True(t, ok)
		assert.Equal(t, domain.ResolvedURL("slow.html"), got.URL())
	})
}

func TestDependenciesScanned_StartsOnce(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c := analysiscache.New()
		calls := 0
		run := func() (*domain.ScannedDocument, error) {
			calls++
			return nil, errors.New("boom")
		}

		first := c.DependenciesScanned("a.html", run)
		second := c.DependenciesScanned("a.html", run)
		assert.Same(t, first, second)

		_, err := first.Wait(t.Context())
		require.EqualError(t, err, "boom")
		assert.Equal(t, 1, calls)
	})
}

func TestRegisterScannedDocument_RejectsDuplicates(t *testing.T) {
	c := analysiscache.New()
	require.NoError(t, c.RegisterScannedDocument(scannedDoc("a.html")))

	err := c.RegisterScannedDocument(scannedDoc("a.html"))
	require.ErrorIs(t, err, domain.ErrScannedDocumentExists)

	// Adoption keeps the first registration.
	first, _ := c.ScannedDocument("a.html")
	c.AdoptScannedDocument(scannedDoc("a.html"))
	again, _ := c.ScannedDocument("a.html")
	assert.Same(t, first, again)
}

func TestStoreAnalyzedDocument_RejectsDuplicates(t *testing.T) {
	c := analysiscache.New()
	require.NoError(t, c.StoreAnalyzedDocument(&domain.Document{URL: "a.html"}))

	err := c.StoreAnalyzedDocument(&domain.Document{URL: "a.html"})
	require.ErrorIs(t, err, domain.ErrDuplicateDocument)
}
