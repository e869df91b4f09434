// Package analysiscache holds one generation of analysis results and forks
// new generations when documents change.
package analysiscache

import (
	"sync"

	"go.trai.ch/sieve/internal/core/domain"
	"go.trai.ch/sieve/internal/engine/deferred"
	"go.trai.ch/sieve/internal/engine/depgraph"
	"go.trai.ch/sieve/internal/engine/workcache"
)

// ScanFuture settles once a document and its whole eager closure are scanned.
type ScanFuture = deferred.Deferred[*domain.ScannedDocument]

// Cache is one generation of analysis state.
//
// A generation is never invalidated in place: Invalidate returns a new
// generation and the old one stays valid for analyses already running
// against it.
type Cache struct {
	// Parsed memoizes parsing per URL.
	Parsed *workcache.Cache[domain.ResolvedURL, *domain.ParsedDocument]
	// Scanned memoizes local scans per URL.
	Scanned *workcache.Cache[domain.ResolvedURL, *domain.ScannedDocument]
	// Analyzed memoizes Document construction per URL.
	Analyzed *workcache.Cache[domain.ResolvedURL, *domain.Document]

	mu                  sync.Mutex
	dependenciesScanned map[domain.ResolvedURL]*ScanFuture
	scannedDocuments    map[domain.ResolvedURL]*domain.ScannedDocument
	analyzedDocuments   map[domain.ResolvedURL]*domain.Document

	graph *depgraph.Graph
}

// New returns an empty generation.
func New() *Cache {
	return &Cache{
		Parsed:              workcache.New[domain.ResolvedURL, *domain.ParsedDocument](),
		Scanned:             workcache.New[domain.ResolvedURL, *domain.ScannedDocument](),
		Analyzed:            workcache.New[domain.ResolvedURL, *domain.Document](),
		dependenciesScanned: make(map[domain.ResolvedURL]*ScanFuture),
		scannedDocuments:    make(map[domain.ResolvedURL]*domain.ScannedDocument),
		analyzedDocuments:   make(map[domain.ResolvedURL]*domain.Document),
		graph:               depgraph.New(),
	}
}

// newFrom shallow-copies prev, using the given graph and scanned cache.
func newFrom(prev *Cache, graph *depgraph.Graph, scanned *workcache.Cache[domain.ResolvedURL, *domain.ScannedDocument]) *Cache {
	prev.mu.Lock()
	defer prev.mu.Unlock()

	c := &Cache{
		Parsed:              workcache.NewFrom(prev.Parsed),
		Scanned:             scanned,
		Analyzed:            workcache.NewFrom(prev.Analyzed),
		dependenciesScanned: make(map[domain.ResolvedURL]*ScanFuture, len(prev.dependenciesScanned)),
		scannedDocuments:    make(map[domain.ResolvedURL]*domain.ScannedDocument, len(prev.scannedDocuments)),
		analyzedDocuments:   make(map[domain.ResolvedURL]*domain.Document, len(prev.analyzedDocuments)),
		graph:               graph,
	}
	for url, f := range prev.dependenciesScanned {
		// A pending closure scan may be walking edges that were not recorded
		// when the dependants were computed; the new generation redoes it.
		if f.Settled() {
			c.dependenciesScanned[url] = f
		}
	}
	for url, doc := range prev.scannedDocuments {
		c.scannedDocuments[url] = doc
	}
	for url, doc := range prev.analyzedDocuments {
		c.analyzedDocuments[url] = doc
	}
	return c
}

// Graph returns the generation's dependency graph.
func (c *Cache) Graph() *depgraph.Graph {
	return c.graph
}

// DependenciesScanned returns the closure-scan future for url, starting run on
// a new goroutine when none exists. The future is installed before run starts,
// so recursion through import cycles finds it and does not start run again.
func (c *Cache) DependenciesScanned(url domain.ResolvedURL, run func() (*domain.ScannedDocument, error)) *ScanFuture {
	c.mu.Lock()
	if f, ok := c.dependenciesScanned[url]; ok {
		c.mu.Unlock()
		return f
	}
	f := deferred.New[*domain.ScannedDocument]()
	c.dependenciesScanned[url] = f
	c.mu.Unlock()

	go func() {
		doc, err := run()
		if err != nil {
			f.Reject(err)
			return
		}
		f.Resolve(doc)
	}()
	return f
}

// HasDependenciesScanned reports whether a closure-scan future exists for url.
func (c *Cache) HasDependenciesScanned(url domain.ResolvedURL) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.dependenciesScanned[url]
	return ok
}

// RegisterScannedDocument records a freshly scanned non-inline document.
func (c *Cache) RegisterScannedDocument(doc *domain.ScannedDocument) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.scannedDocuments[doc.URL()]; ok {
		return domain.Annotate(domain.ErrScannedDocumentExists, "url", doc.URL())
	}
	c.scannedDocuments[doc.URL()] = doc
	return nil
}

// AdoptScannedDocument records doc unless a document is already registered
// for its URL. It is used for scans shared with an older generation, which
// registered the document there.
func (c *Cache) AdoptScannedDocument(doc *domain.ScannedDocument) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.scannedDocuments[doc.URL()]; !ok {
		c.scannedDocuments[doc.URL()] = doc
	}
}

// ScannedDocument returns the scanned document registered for url.
func (c *Cache) ScannedDocument(url domain.ResolvedURL) (*domain.ScannedDocument, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	doc, ok := c.scannedDocuments[url]
	return doc, ok
}

// StoreAnalyzedDocument records the Document for its URL. A second Document
// for the same URL is a coherency bug.
func (c *Cache) StoreAnalyzedDocument(doc *domain.Document) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.analyzedDocuments[doc.URL]; ok {
		return domain.Annotate(domain.ErrDuplicateDocument, "url", doc.URL)
	}
	c.analyzedDocuments[doc.URL] = doc
	return nil
}

// AnalyzedDocument returns the Document built for url in this generation.
func (c *Cache) AnalyzedDocument(url domain.ResolvedURL) (*domain.Document, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	doc, ok := c.analyzedDocuments[url]
	return doc, ok
}

// AnalyzedURLs returns the URLs with a Document in this generation.
func (c *Cache) AnalyzedURLs() []domain.ResolvedURL {
	c.mu.Lock()
	defer c.mu.Unlock()
	urls := make([]domain.ResolvedURL, 0, len(c.analyzedDocuments))
	for url := range c.analyzedDocuments {
		urls = append(urls, url)
	}
	return domain.SortURLs(urls)
}

// Invalidate returns a new generation in which urls, and every document that
// transitively depends on them, must be re-analyzed. c is left untouched.
//
// Invalidated documents lose all their cached state. Their dependants keep
// their local scans, which did not change, but lose their closure-scan
// futures and their Documents, which reference the invalidated content.
func (c *Cache) Invalidate(urls []domain.ResolvedURL) *Cache {
	scanned := workcache.NewFrom(c.Scanned)
	graph := c.graph.Fork(urls, scanned.PendingKeys())
	next := newFrom(c, graph, scanned)

	for _, url := range urls {
		// Dependants come from the old graph: the fork has already lost url's edges.
		dependants := c.graph.GetAllDependantsOf(url)

		next.Parsed.Delete(url)
		next.Scanned.Delete(url)
		next.Analyzed.Delete(url)
		delete(next.dependenciesScanned, url)
		delete(next.scannedDocuments, url)
		delete(next.analyzedDocuments, url)

		for _, dependant := range dependants {
			delete(next.dependenciesScanned, dependant)
			delete(next.analyzedDocuments, dependant)
		}
	}

	// Only completed Documents that survived may be served; in-flight
	// constructions could resolve against invalidated state.
	next.Analyzed.Clear()
	for url, doc := range next.analyzedDocuments {
		next.Analyzed.Set(url, doc)
	}

	return next
}
