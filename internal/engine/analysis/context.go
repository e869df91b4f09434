// Package analysis ties parsing, scanning and import resolution together into
// an incrementally updated analysis of a set of documents.
package analysis

import (
	"context"
	"fmt"
	"sync"

	"go.trai.ch/sieve/internal/core/domain"
	"go.trai.ch/sieve/internal/core/ports"
	"go.trai.ch/sieve/internal/engine/analysiscache"
	"go.trai.ch/sieve/internal/engine/scan"
	"golang.org/x/sync/errgroup"
)

// Options holds the collaborators of a Context.
type Options struct {
	Loader   ports.Loader
	Resolver ports.Resolver
	// Parsers maps a document type to its parser.
	Parsers map[string]ports.Parser
	// Scanners maps a document type to the scanners run over its documents.
	Scanners map[string][]ports.Scanner
	Tracer   ports.Tracer
	Logger   ports.Logger
	// Orchestrator defaults to scan.New().
	Orchestrator *scan.Orchestrator
}

// Context is one generation of an analysis.
//
// A Context is never updated in place. FilesChanged returns a new Context
// that shares unaffected results with this one, while analyses still
// running against this one finish against a consistent snapshot.
type Context struct {
	loader       ports.Loader
	resolver     ports.Resolver
	parsers      map[string]ports.Parser
	scanners     map[string][]ports.Scanner
	tracer       ports.Tracer
	logger       ports.Logger
	orchestrator *scan.Orchestrator

	cache *analysiscache.Cache

	// documentMu serializes Document construction within the generation.
	documentMu sync.Mutex
}

// New creates a Context with an empty cache.
func New(opts Options) *Context {
	orchestrator := opts.Orchestrator
	if orchestrator == nil {
		orchestrator = scan.New()
	}
	return &Context{
		loader:       opts.Loader,
		resolver:     opts.Resolver,
		parsers:      opts.Parsers,
		scanners:     opts.Scanners,
		tracer:       opts.Tracer,
		logger:       opts.Logger,
		orchestrator: orchestrator,
		cache:        analysiscache.New(),
	}
}

// fork returns a Context sharing c's collaborators around another cache generation.
func (c *Context) fork(cache *analysiscache.Cache) *Context {
	return &Context{
		loader:       c.loader,
		resolver:     c.resolver,
		parsers:      c.parsers,
		scanners:     c.scanners,
		tracer:       c.tracer,
		logger:       c.logger,
		orchestrator: c.orchestrator,
		cache:        cache,
	}
}

// Cache returns the cache generation backing c.
func (c *Context) Cache() *analysiscache.Cache {
	return c.cache
}

// FilesChanged returns a new Context in which the given documents and
// everything depending on them are analyzed afresh. c is not modified.
func (c *Context) FilesChanged(urls []string) *Context {
	resolved := make([]domain.ResolvedURL, 0, len(urls))
	for _, url := range urls {
		r, err := c.Resolve(url)
		if err != nil {
			c.logger.Debug(fmt.Sprintf("ignoring change to %s: %v", url, err))
			continue
		}
		resolved = append(resolved, r)
	}
	c.logger.Debug(fmt.Sprintf("invalidating %d document(s)", len(resolved)))
	return c.fork(c.cache.Invalidate(resolved))
}

// Resolve turns a user-supplied URL into a resolved URL.
func (c *Context) Resolve(url string) (domain.ResolvedURL, error) {
	if !c.resolver.CanResolve(url) {
		return "", domain.Annotate(domain.ErrUnresolvableURL, "url", url)
	}
	resolved, ok := c.resolver.Resolve("", domain.FileRelativeURL(url))
	if !ok {
		return "", domain.Annotate(domain.ErrUnresolvableURL, "url", url)
	}
	return resolved, nil
}

// CanLoad reports whether url resolves to something the loader accepts.
func (c *Context) CanLoad(url string) bool {
	resolved, err := c.Resolve(url)
	if err != nil {
		return false
	}
	return c.loader.CanLoad(resolved)
}

// Load resolves url and returns its contents.
func (c *Context) Load(ctx context.Context, url string) (string, error) {
	resolved, err := c.Resolve(url)
	if err != nil {
		return "", err
	}
	return c.load(ctx, resolved)
}

func (c *Context) load(ctx context.Context, url domain.ResolvedURL) (string, error) {
	if !c.loader.CanLoad(url) {
		return "", domain.Annotate(domain.ErrCannotLoadURL, "url", url)
	}
	contents, err := c.loader.Load(ctx, url)
	if err != nil {
		if domain.IsCancellation(err) {
			return "", err
		}
		return "", domain.WrapAs(domain.ErrCouldNotLoad, err)
	}
	return contents, nil
}

// Scan returns the scanned document for url once url and its whole eager
// import closure have been scanned.
func (c *Context) Scan(ctx context.Context, url string) (*domain.ScannedDocument, error) {
	resolved, err := c.Resolve(url)
	if err != nil {
		return nil, err
	}
	return c.scan(ctx, resolved)
}

// Analyze returns the Document for url. It fails only when url itself cannot
// be analyzed; problems with its imports become warnings on the Document.
func (c *Context) Analyze(ctx context.Context, url string) (*domain.Document, error) {
	resolved, err := c.Resolve(url)
	if err != nil {
		return nil, err
	}
	return c.analyze(ctx, resolved)
}

// AnalyzeAll analyzes every url concurrently. Documents are returned in the
// order of urls.
func (c *Context) AnalyzeAll(ctx context.Context, urls []string) ([]*domain.Document, error) {
	docs := make([]*domain.Document, len(urls))
	g, gCtx := errgroup.WithContext(ctx)
	for i, url := range urls {
		g.Go(func() error {
			doc, err := c.Analyze(gCtx, url)
			if err != nil {
				return err
			}
			docs[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}

// GetDocument returns the Document already built for url in this generation.
func (c *Context) GetDocument(url string) (*domain.Document, bool) {
	resolved, err := c.Resolve(url)
	if err != nil {
		return nil, false
	}
	return c.cache.AnalyzedDocument(resolved)
}

// GetScannedDocument returns the scanned document already produced for url
// in this generation.
func (c *Context) GetScannedDocument(url string) (*domain.ScannedDocument, bool) {
	resolved, err := c.Resolve(url)
	if err != nil {
		return nil, false
	}
	if doc, ok := c.cache.ScannedDocument(resolved); ok {
		return doc, true
	}
	return c.cache.Scanned.Get(resolved)
}

// GetTelemetryMeasurements returns the timings recorded so far.
func (c *Context) GetTelemetryMeasurements() []domain.Measurement {
	return c.tracer.Measurements()
}

// Dependants returns every document known to import url, directly or not.
func (c *Context) Dependants(url string) ([]domain.ResolvedURL, error) {
	resolved, err := c.Resolve(url)
	if err != nil {
		return nil, err
	}
	return c.cache.Graph().GetAllDependantsOf(resolved), nil
}
