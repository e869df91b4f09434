package analysis

import (
	"context"
	"errors"
	"fmt"

	"go.trai.ch/sieve/internal/core/domain"
	"go.trai.ch/sieve/internal/core/ports"
	"go.trai.ch/sieve/internal/engine/analysiscache"
)

// analyze returns the Document for url, building it once per generation.
func (c *Context) analyze(ctx context.Context, url domain.ResolvedURL) (*domain.Document, error) {
	gen := c.cache
	if doc, ok := gen.AnalyzedDocument(url); ok {
		return doc, nil
	}

	return gen.Analyzed.GetOrCompute(ctx, url, func(ctx context.Context) (*domain.Document, error) {
		ctx, span := c.tracer.Start(ctx, domain.MeasureAnalyze, ports.WithAttribute(domain.URLAttribute, string(url)))
		defer span.End()

		scanned, err := c.scan(ctx, url)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}

		c.documentMu.Lock()
		defer c.documentMu.Unlock()
		// A Document is visible as soon as it is stored, so construction
		// must not stop halfway.
		b := &documentBuilder{ctx: context.WithoutCancel(ctx), gen: gen}
		doc, err := b.build(scanned)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		c.logger.Debug(fmt.Sprintf("analyzed %s: %d import(s), %d warning(s)", url, len(doc.Imports), len(doc.Warnings)))
		return doc, nil
	})
}

// documentBuilder turns scanned documents into cross-linked Documents. It
// must only be used with the generation's document lock held.
type documentBuilder struct {
	ctx context.Context
	gen *analysiscache.Cache
}

// build returns the Document for scanned. A Document is stored before its
// imports are resolved, so import cycles link back to it.
func (b *documentBuilder) build(scanned *domain.ScannedDocument) (*domain.Document, error) {
	url := scanned.URL()
	if doc, ok := b.gen.AnalyzedDocument(url); ok {
		return doc, nil
	}

	doc := &domain.Document{
		URL:      url,
		Type:     scanned.Document.Type,
		Scanned:  scanned,
		Features: features(scanned),
		Warnings: scanned.NestedWarnings(),
	}
	if err := b.gen.StoreAnalyzedDocument(doc); err != nil {
		return nil, err
	}

	for _, imp := range scanned.Imports() {
		resolved, err := b.resolveImport(doc, imp)
		if err != nil {
			return nil, err
		}
		doc.Imports = append(doc.Imports, resolved)
	}

	b.gen.Analyzed.Set(url, doc)
	return doc, nil
}

func (b *documentBuilder) resolveImport(doc *domain.Document, imp *domain.ScannedImport) (*domain.Import, error) {
	out := &domain.Import{
		Type:      imp.Type,
		Specifier: imp.Specifier,
		URL:       imp.URL,
		Lazy:      imp.Lazy,
		Range:     imp.SourceRange,
	}

	if imp.URL == "" {
		doc.Warnings = append(doc.Warnings, domain.Warning{
			Code:     domain.WarningCouldNotResolve,
			Message:  fmt.Sprintf("could not resolve %q", imp.Specifier),
			Severity: domain.SeverityWarning,
			Range:    imp.SourceRange,
		})
		return out, nil
	}

	if imp.Lazy {
		// Lazy imports are not followed; they link only to documents that
		// were analyzed on their own.
		out.Document, _ = b.gen.AnalyzedDocument(imp.URL)
		return out, nil
	}

	target, err := b.scanned(imp.URL)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNoKnownParser):
		return out, nil
	case domain.IsCancellation(err), isCoherencyError(err):
		return nil, err
	default:
		doc.Warnings = append(doc.Warnings, domain.Warning{
			Code:     domain.WarningCouldNotLoad,
			Message:  fmt.Sprintf("could not load %s: %v", imp.URL, err),
			Severity: domain.SeverityError,
			Range:    imp.SourceRange,
		})
		return out, nil
	}

	linked, err := b.build(target)
	if err != nil {
		return nil, err
	}
	out.Document = linked
	return out, nil
}

// scanned returns the scanned document for an eager import. Eager imports
// have settled in the graph by the time their importer is built.
func (b *documentBuilder) scanned(url domain.ResolvedURL) (*domain.ScannedDocument, error) {
	if err := b.gen.Graph().Err(url); err != nil {
		return nil, err
	}
	if doc, ok := b.gen.ScannedDocument(url); ok {
		return doc, nil
	}
	// The scan finished in a generation this one was forked from and has not
	// been adopted yet.
	doc, found, err := b.gen.Scanned.Await(b.ctx, url)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, domain.Annotate(domain.ErrCouldNotLoad, "url", url)
	}
	return doc, nil
}

func isCoherencyError(err error) bool {
	return errors.Is(err, domain.ErrDuplicateDocument) ||
		errors.Is(err, domain.ErrScannedDocumentExists) ||
		errors.Is(err, domain.ErrDocumentAlreadyRecorded)
}

// features flattens the document's own and inline features.
func features(scanned *domain.ScannedDocument) []domain.Feature {
	nested := scanned.NestedFeatures()
	out := make([]domain.Feature, 0, len(nested))
	for _, f := range nested {
		feature := domain.Feature{
			Kind:    f.Kind(),
			Range:   f.Range(),
			URL:     scanned.URL(),
			Scanned: f,
		}
		if id, ok := f.(domain.Identified); ok {
			feature.ID = id.ID()
		}
		out = append(out, feature)
	}
	return out
}
