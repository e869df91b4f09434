package analysis

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.trai.ch/sieve/internal/core/domain"
	"go.trai.ch/sieve/internal/core/ports"
	"go.trai.ch/sieve/internal/engine/analysiscache"
	"go.trai.ch/zerr"
)

// scan awaits the closure scan of url in this generation.
func (c *Context) scan(ctx context.Context, url domain.ResolvedURL) (*domain.ScannedDocument, error) {
	return c.ensureDependenciesScanned(ctx, url).Wait(ctx)
}

// ensureDependenciesScanned starts, at most once per generation, the scan of
// url followed by the scans of everything it eagerly imports. The returned
// future settles once the whole closure is known or failed.
//
// The work is shared by every caller and publishes into the generation, so it
// runs detached from the caller's cancellation.
func (c *Context) ensureDependenciesScanned(ctx context.Context, url domain.ResolvedURL) *analysiscache.ScanFuture {
	gen := c.cache
	detached := context.WithoutCancel(ctx)
	return gen.DependenciesScanned(url, func() (*domain.ScannedDocument, error) {
		doc, err := c.scanLocal(detached, url)
		if err != nil {
			return nil, err
		}
		// The local scan may have been shared with an older generation, which
		// registered the document there.
		gen.AdoptScannedDocument(doc)

		for _, dep := range doc.EagerImportURLs() {
			c.ensureDependenciesScanned(detached, dep)
		}
		if err := gen.Graph().WhenReady(detached, url); err != nil {
			return nil, err
		}
		return doc, nil
	})
}

// scanLocal returns the scanned document for url without following imports.
// Every document scanned in a generation is recorded in its graph exactly
// once, as known or as failed.
func (c *Context) scanLocal(ctx context.Context, url domain.ResolvedURL) (*domain.ScannedDocument, error) {
	gen := c.cache
	return gen.Scanned.GetOrCompute(ctx, url, func(ctx context.Context) (*domain.ScannedDocument, error) {
		ctx, span := c.tracer.Start(ctx, domain.MeasureScan, ports.WithAttribute(domain.URLAttribute, string(url)))
		defer span.End()

		doc, err := c.scanDocument(ctx, url)
		if err != nil {
			span.RecordError(err)
			c.logger.Debug(fmt.Sprintf("scan of %s failed: %v", url, err))
			if rejectErr := gen.Graph().RejectDocument(url, err); rejectErr != nil {
				return nil, errors.Join(err, rejectErr)
			}
			return nil, err
		}

		if err := gen.Graph().AddDocument(url, doc.EagerImportURLs()); err != nil {
			return nil, err
		}
		if err := gen.RegisterScannedDocument(doc); err != nil {
			return nil, err
		}
		c.logger.Debug(fmt.Sprintf("scanned %s: %d feature(s)", url, len(doc.Features)))
		return doc, nil
	})
}

// scanDocument parses and scans one top-level document and its inline documents.
func (c *Context) scanDocument(ctx context.Context, url domain.ResolvedURL) (*domain.ScannedDocument, error) {
	parsed, warnings, err := c.parse(ctx, url)
	if err != nil {
		return nil, err
	}
	doc, err := c.scanParsed(ctx, parsed, make(map[*domain.ScannedInlineDocument]struct{}))
	if err != nil {
		return nil, err
	}
	doc.Warnings = slices.Concat(warnings, doc.Warnings)
	return doc, nil
}

// parse returns the parsed document for url, memoized per generation.
// Recoverable syntax errors come back as warnings next to the partial document.
func (c *Context) parse(ctx context.Context, url domain.ResolvedURL) (*domain.ParsedDocument, []domain.Warning, error) {
	parsed, err := c.cache.Parsed.GetOrCompute(ctx, url, func(ctx context.Context) (*domain.ParsedDocument, error) {
		ctx, span := c.tracer.Start(ctx, domain.MeasureParse, ports.WithAttribute(domain.URLAttribute, string(url)))
		defer span.End()

		parser, ok := c.parsers[domain.DocumentTypeOf(url)]
		if !ok {
			return nil, domain.Annotate(domain.ErrNoKnownParser, "url", url)
		}
		contents, err := c.load(ctx, url)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		doc, err := parser.Parse(ctx, contents, url, nil)
		if err != nil {
			span.RecordError(err)
			return nil, c.parseError(err, url, domain.DocumentTypeOf(url), contents, nil)
		}
		return doc, nil
	})

	var warn *domain.ParseWarningError
	if errors.As(err, &warn) {
		return warn.Partial, warn.Warnings, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return parsed, nil, nil
}

// parseError normalizes a parser failure. A recoverable failure always
// carries a partial document, possibly without a tree.
func (c *Context) parseError(
	err error,
	url domain.ResolvedURL,
	docType, contents string,
	inline *domain.InlineInfo,
) error {
	var warn *domain.ParseWarningError
	if !errors.As(err, &warn) {
		if domain.IsCancellation(err) {
			return err
		}
		return zerr.With(domain.WrapAs(domain.ErrParseFailed, err), "url", url)
	}
	if warn.Partial != nil {
		return warn
	}
	return &domain.ParseWarningError{
		Warnings: warn.Warnings,
		Partial: &domain.ParsedDocument{
			URL:      url,
			BaseURL:  url,
			Type:     docType,
			Contents: contents,
			Inline:   inline,
		},
	}
}

// scanParsed runs the scanners for parsed's type and recurses into inline
// documents. visited guards against inline documents reached twice.
func (c *Context) scanParsed(
	ctx context.Context,
	parsed *domain.ParsedDocument,
	visited map[*domain.ScannedInlineDocument]struct{},
) (*domain.ScannedDocument, error) {
	features, warnings, err := c.orchestrator.Scan(ctx, parsed, c.scanners[parsed.Type])
	if err != nil {
		return nil, err
	}
	doc := &domain.ScannedDocument{Document: parsed, Features: features, Warnings: warnings}

	for _, f := range features {
		switch f := f.(type) {
		case *domain.ScannedImport:
			c.resolveImport(parsed, f)
		case *domain.ScannedInlineDocument:
			if _, seen := visited[f]; seen {
				continue
			}
			visited[f] = struct{}{}
			nested, warns, err := c.scanInline(ctx, parsed, f, visited)
			if err != nil {
				return nil, err
			}
			f.Document = nested
			doc.Warnings = append(doc.Warnings, warns...)
		}
	}
	return doc, nil
}

func (c *Context) resolveImport(parsed *domain.ParsedDocument, imp *domain.ScannedImport) {
	if imp.URL != "" {
		return
	}
	if !c.resolver.CanResolve(string(imp.Specifier)) {
		return
	}
	if url, ok := c.resolver.Resolve(parsed.BaseURL, imp.Specifier); ok {
		imp.URL = url
	}
}

// scanInline parses and scans an embedded document. Inline documents share
// their container's URL and are never registered on their own. Parse
// failures become warnings on the container; only cancellation and scanner
// failures abort the container's scan.
func (c *Context) scanInline(
	ctx context.Context,
	container *domain.ParsedDocument,
	inline *domain.ScannedInlineDocument,
	visited map[*domain.ScannedInlineDocument]struct{},
) (*domain.ScannedDocument, []domain.Warning, error) {
	parser, ok := c.parsers[inline.Type]
	if !ok {
		return nil, nil, nil
	}

	info := &domain.InlineInfo{Container: container.URL, Range: inline.SourceRange}
	parsed, err := parser.Parse(ctx, inline.Contents, container.URL, info)
	var warnings []domain.Warning
	if err != nil {
		err = c.parseError(err, container.URL, inline.Type, inline.Contents, info)
		var warn *domain.ParseWarningError
		switch {
		case errors.As(err, &warn):
			parsed, warnings = warn.Partial, warn.Warnings
		case domain.IsCancellation(err):
			return nil, nil, err
		default:
			return nil, []domain.Warning{{
				Code:     domain.WarningParseError,
				Message:  err.Error(),
				Severity: domain.SeverityError,
				Range:    inline.SourceRange,
			}}, nil
		}
	}

	inlineDoc := *parsed
	inlineDoc.BaseURL = container.BaseURL
	inlineDoc.Inline = info
	inlineDoc.Offset = inline.Offset
	if inlineDoc.Offset.Filename == "" {
		inlineDoc.Offset.Filename = container.URL
	}

	nested, err := c.scanParsed(ctx, &inlineDoc, visited)
	if err != nil {
		return nil, nil, err
	}
	return nested, warnings, nil
}
