package analysis_test

import (
	"context"
	"path"
	"strings"
	"sync"
	"time"

	"go.trai.ch/sieve/internal/core/domain"
	"go.trai.ch/sieve/internal/core/ports"
	"go.trai.ch/sieve/internal/engine/analysis"
)

// world is an in-memory project. Each line of a document is one node whose
// type is the line's first word:
//
//	import <specifier>
//	lazy <specifier>
//	element <tag>
//	inline <type> <line>
//	!!broken (recoverable parse error)
//	!!fatal (unrecoverable parse error)
type world struct {
	mu    sync.Mutex
	files map[domain.ResolvedURL]string
	loads map[domain.ResolvedURL]int
	gates map[domain.ResolvedURL]chan struct{}
}

func newWorld(files map[string]string) *world {
	w := &world{
		files: make(map[domain.ResolvedURL]string),
		loads: make(map[domain.ResolvedURL]int),
		gates: make(map[domain.ResolvedURL]chan struct{}),
	}
	for name, contents := range files {
		w.files[domain.ResolvedURL(name)] = contents
	}
	return w
}

func (w *world) set(name, contents string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.files[domain.ResolvedURL(name)] = contents
}

// gate makes loads of name block until the returned function is called.
func (w *world) gate(name string) func() {
	ch := make(chan struct{})
	w.mu.Lock()
	w.gates[domain.ResolvedURL(name)] = ch
	w.mu.Unlock()
	return func() { close(ch) }
}

func (w *world) loadCount(name string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.loads[domain.ResolvedURL(name)]
}

func (w *world) CanLoad(domain.ResolvedURL) bool { return true }

func (w *world) Load(ctx context.Context, url domain.ResolvedURL) (string, error) {
	w.mu.Lock()
	w.loads[url]++
	gate := w.gates[url]
	w.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	contents, ok := w.files[url]
	if !ok {
		return "", domain.Annotate(domain.ErrCouldNotLoad, "url", url)
	}
	return contents, nil
}

func (w *world) ReadDirectory(context.Context, domain.ResolvedURL, bool) ([]domain.ResolvedURL, error) {
	return nil, nil
}

func (w *world) CanResolve(url string) bool {
	return !strings.Contains(url, "://")
}

func (w *world) Resolve(base domain.ResolvedURL, rel domain.FileRelativeURL) (domain.ResolvedURL, bool) {
	if base == "" || strings.HasPrefix(string(rel), "/") {
		return domain.ResolvedURL(path.Clean(strings.TrimPrefix(string(rel), "/"))), true
	}
	return domain.ResolvedURL(path.Join(path.Dir(string(base)), string(rel))), true
}

func (w *world) Relative(_, to domain.ResolvedURL) domain.FileRelativeURL {
	return domain.FileRelativeURL(to)
}

type lineNode struct {
	kind, rest string
	line       int
}

func (n lineNode) Type() string { return n.kind }
func (n lineNode) Text() string { return n.rest }
func (n lineNode) Field(string) domain.Node { return nil }
func (n lineNode) NamedChildren() []domain.Node { return nil }

func (n lineNode) Range() domain.SourceRange {
	return domain.SourceRange{
		Start: domain.SourcePosition{Line: n.line},
		End:   domain.SourcePosition{Line: n.line, Column: len(n.kind) + len(n.rest) + 1},
	}
}

type lineAST []lineNode

func (a lineAST) Walk(visitors ...domain.Visitor) error {
	for _, n := range a {
		for _, v := range visitors {
			if err := v.Visit(n); err != nil {
				return err
			}
		}
	}
	return nil
}

// lineParser parses documents of a single type.
type lineParser struct{ typ string }

func (p lineParser) Parse(_ context.Context, contents string, url domain.ResolvedURL, inline *domain.InlineInfo) (*domain.ParsedDocument, error) {
	var ast lineAST
	for i, line := range strings.Split(contents, "\n") {
		kind, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
		if kind == "" {
			continue
		}
		ast = append(ast, lineNode{kind: kind, rest: rest, line: i})
	}
	doc := &domain.ParsedDocument{
		URL:      url,
		BaseURL:  url,
		Type:     p.typ,
		Contents: contents,
		AST:      ast,
		Inline:   inline,
	}
	if strings.Contains(contents, "!!fatal") {
		return nil, domain.ErrParseFailed
	}
	if strings.Contains(contents, "!!broken") {
		return nil, &domain.ParseWarningError{
			Warnings: []domain.Warning{{Code: domain.WarningParseError, Message: "broken line", Severity: domain.SeverityError}},
			Partial:  doc,
		}
	}
	return doc, nil
}

// lineScanner recognizes imports, elements and inline documents.
type lineScanner struct{}

func (lineScanner) Name() string { return "lines" }

func (lineScanner) Scan(ctx context.Context, doc *domain.ParsedDocument, visit ports.VisitFunc) (ports.ScanResult, error) {
	var res ports.ScanResult
	err := visit(ctx, domain.VisitorFunc(func(n domain.Node) error {
		switch n.Type() {
		case "import", "lazy":
			res.Features = append(res.Features, &domain.ScannedImport{
				Type:        "line-import",
				Specifier:   domain.FileRelativeURL(n.Text()),
				Lazy:        n.Type() == "lazy",
				SourceRange: doc.RangeOf(n),
			})
		case "element":
			res.Features = append(res.Features, &domain.ScannedElement{TagName: n.Text(), SourceRange: doc.RangeOf(n)})
		case "inline":
			typ, body, _ := strings.Cut(n.Text(), " ")
			res.Features = append(res.Features, &domain.ScannedInlineDocument{
				Type:        typ,
				Contents:    body,
				Offset:      domain.LocationOffset{Line: n.Range().Start.Line, Column: len("inline ") + len(typ) + 1},
				SourceRange: doc.RangeOf(n),
			})
		}
		return nil
	}))
	return res, err
}

type nopLogger struct{}

func (nopLogger) Debug(string)             {}
func (nopLogger) Info(string)              {}
func (nopLogger) Warn(string)              {}
func (nopLogger) Error(error)              {}
func (nopLogger) SetLevel(domain.LogLevel) {}

// recordingTracer turns every ended span into a measurement.
type recordingTracer struct {
	mu           sync.Mutex
	measurements []domain.Measurement
}

type recordingSpan struct {
	tracer *recordingTracer
	name   string
	url    string
	start  time.Time
}

func (t *recordingTracer) Start(ctx context.Context, name string, opts ...ports.SpanOption) (context.Context, ports.Span) {
	var cfg ports.SpanConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	url, _ := cfg.Attributes[domain.URLAttribute].(string)
	return ctx, &recordingSpan{tracer: t, name: name, url: url, start: time.Now()}
}

func (t *recordingTracer) Measurements() []domain.Measurement {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]domain.Measurement(nil), t.measurements...)
}

func (s *recordingSpan) End() {
	s.tracer.mu.Lock()
	defer s.tracer.mu.Unlock()
	s.tracer.measurements = append(s.tracer.measurements, domain.Measurement{
		Kind:       s.name,
		Identifier: s.url,
		Elapsed:    time.Since(s.start),
	})
}

func (s *recordingSpan) RecordError(error)        {}
func (s *recordingSpan) SetAttribute(string, any) {}

func newContext(w *world) (*analysis.Context, *recordingTracer) {
	tracer := &recordingTracer{}
	scanners := []ports.Scanner{lineScanner{}}
	return analysis.New(analysis.Options{
		Loader:   w,
		Resolver: w,
		Parsers: map[string]ports.Parser{
			domain.TypeHTML: lineParser{typ: domain.TypeHTML},
			domain.TypeJS:   lineParser{typ: domain.TypeJS},
		},
		Scanners: map[string][]ports.Scanner{
			domain.TypeHTML: scanners,
			domain.TypeJS:   scanners,
		},
		Tracer: tracer,
		Logger: nopLogger{},
	}), tracer
}
