// Package app implements the application layer for sieve.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"go.trai.ch/sieve/internal/core/domain"
	"go.trai.ch/sieve/internal/core/ports"
	"go.trai.ch/sieve/internal/engine/analysis"
	"go.trai.ch/zerr"
)

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	workspace    ports.WorkspaceOpener
	parsers      ports.ParserRegistry
	scanners     ports.ScannerFactory
	stores       ports.StoreOpener
	indexes      ports.IndexOpener
	hasher       ports.Hasher
	watcher      ports.Watcher
	tracer       ports.Tracer
	logger       ports.Logger
}

// Dependencies are the collaborators of an App.
type Dependencies struct {
	ConfigLoader ports.ConfigLoader
	Workspace    ports.WorkspaceOpener
	Parsers      ports.ParserRegistry
	Scanners     ports.ScannerFactory
	Stores       ports.StoreOpener
	Indexes      ports.IndexOpener
	Hasher       ports.Hasher
	Watcher      ports.Watcher
	Tracer       ports.Tracer
	Logger       ports.Logger
}

// New creates a new App instance.
func New(deps Dependencies) *App {
	return &App{
		configLoader: deps.ConfigLoader,
		workspace:    deps.Workspace,
		parsers:      deps.Parsers,
		scanners:     deps.Scanners,
		stores:       deps.Stores,
		indexes:      deps.Indexes,
		hasher:       deps.Hasher,
		watcher:      deps.Watcher,
		tracer:       deps.Tracer,
		logger:       deps.Logger,
	}
}

// Options select what an analysis covers. Zero values fall back to the
// project configuration.
type Options struct {
	// Dir is where configuration discovery starts. Defaults to ".".
	Dir string
	// Paths are documents to analyze instead of the configured entrypoints.
	// Relative paths are relative to Dir.
	Paths []string
	// WriteIndex stores the results in the feature index.
	WriteIndex bool
	// Debounce overrides the configured watch debounce when positive.
	Debounce time.Duration
	// LogLevel overrides the configured log level when set.
	LogLevel string
}

// session is one opened project.
type session struct {
	cfg      *domain.Config
	loader   ports.Loader
	store    ports.FingerprintStore
	analysis *analysis.Context
	// entrypoints are the configured globs, or nil when explicit paths were given.
	entrypoints []string
	paths       []string
}

func (a *App) open(ctx context.Context, opts Options) (*session, error) {
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}
	cfg, err := a.configLoader.Load(dir)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}
	level := cfg.LogLevel
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}
	a.logger.SetLevel(domain.ParseLogLevel(level))

	loader, resolver, err := a.workspace.Open(cfg.Root)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to open project")
	}
	scanners, err := a.scanners.Scanners(ctx, cfg)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to set up scanners")
	}
	store, err := a.stores.Open(cfg.StorePath)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to open fingerprint store")
	}

	s := &session{
		cfg:    cfg,
		loader: loader,
		store:  store,
		analysis: analysis.New(analysis.Options{
			Loader:   loader,
			Resolver: resolver,
			Parsers:  a.parsers.Parsers(),
			Scanners: scanners,
			Tracer:   a.tracer,
			Logger:   a.logger,
		}),
	}
	if len(opts.Paths) == 0 {
		s.entrypoints = cfg.Entrypoints
		return s, nil
	}
	for _, p := range opts.Paths {
		rel, err := rootRelative(cfg.Root, dir, p)
		if err != nil {
			return nil, err
		}
		s.paths = append(s.paths, rel)
	}
	return s, nil
}

// rootRelative turns a user supplied path into a slash separated path
// relative to root.
func rootRelative(root, dir, p string) (string, error) {
	abs := p
	if !filepath.IsAbs(abs) {
		base, err := filepath.Abs(dir)
		if err != nil {
			return "", zerr.With(zerr.Wrap(err, "failed to resolve path"), "path", p)
		}
		abs = filepath.Join(base, p)
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", zerr.With(domain.Annotate(domain.ErrURLOutsideRoot, "path", p), "root", root)
	}
	return filepath.ToSlash(rel), nil
}

// entrypointURLs returns the documents to analyze, sorted.
func (s *session) entrypointURLs(ctx context.Context) ([]string, error) {
	if s.entrypoints == nil {
		return s.paths, nil
	}
	files, err := s.loader.ReadDirectory(ctx, "", true)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to list project files")
	}
	var urls []string
	for _, f := range files {
		if matchesAny(s.entrypoints, string(f)) && !matchesAny(s.cfg.Exclude, string(f)) {
			urls = append(urls, string(f))
		}
	}
	return urls, nil
}

func matchesAny(patterns []string, name string) bool {
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

// run analyzes the entrypoints against the session's current generation.
func (a *App) run(ctx context.Context, s *session, writeIndex bool, changed []domain.ResolvedURL) (*domain.Report, error) {
	start := time.Now()
	before := len(a.tracer.Measurements())

	urls, err := s.entrypointURLs(ctx)
	if err != nil {
		return nil, err
	}
	if len(urls) == 0 {
		return nil, domain.Annotate(domain.ErrNoEntrypoints, "root", s.cfg.Root)
	}
	a.logger.Debug(fmt.Sprintf("analyzing %d entrypoint(s)", len(urls)))

	docs, err := s.analysis.AnalyzeAll(ctx, urls)
	if err != nil {
		return nil, zerr.Wrap(err, "analysis failed")
	}

	report := &domain.Report{
		Root:      s.cfg.Root,
		Documents: docs,
		Changed:   changed,
	}
	if err := a.recordFingerprints(s, report.AllDocuments()); err != nil {
		return nil, err
	}
	if writeIndex {
		if err := a.writeIndex(ctx, s.cfg.IndexPath, report.AllDocuments()); err != nil {
			return nil, err
		}
	}

	if all := a.tracer.Measurements(); len(all) > before {
		report.Measurements = all[before:]
	}
	report.Elapsed = time.Since(start)
	return report, nil
}

func (a *App) recordFingerprints(s *session, docs []*domain.Document) error {
	now := time.Now()
	var errs error
	for _, d := range docs {
		if d.Scanned == nil {
			continue
		}
		contents := d.Scanned.Document.Contents
		errs = errors.Join(errs, s.store.Put(domain.Fingerprint{
			URL:       d.URL,
			Hash:      a.hasher.Hash([]byte(contents)),
			Size:      len(contents),
			Timestamp: now,
		}))
	}
	if errs != nil {
		return zerr.Wrap(errs, "failed to record fingerprints")
	}
	return nil
}

func (a *App) writeIndex(ctx context.Context, path string, docs []*domain.Document) error {
	idx, err := a.indexes.Open(ctx, path)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to open feature index"), "path", path)
	}
	defer idx.Close() //nolint:errcheck // Best effort close in defer
	if err := idx.Replace(ctx, docs); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to write feature index"), "path", path)
	}
	a.logger.Debug(fmt.Sprintf("indexed %d document(s) in %s", len(docs), path))
	return nil
}

// Analyze analyzes the project once.
func (a *App) Analyze(ctx context.Context, opts Options) (*domain.Report, error) {
	s, err := a.open(ctx, opts)
	if err != nil {
		return nil, err
	}
	return a.run(ctx, s, opts.WriteIndex, nil)
}

// Dependants returns every document that transitively imports file.
func (a *App) Dependants(ctx context.Context, opts Options, file string) ([]domain.ResolvedURL, error) {
	opts.Paths = nil
	s, err := a.open(ctx, opts)
	if err != nil {
		return nil, err
	}
	if _, err := a.run(ctx, s, opts.WriteIndex, nil); err != nil {
		return nil, err
	}
	rel, err := rootRelative(s.cfg.Root, dirOrDot(opts.Dir), file)
	if err != nil {
		return nil, err
	}
	return s.analysis.Dependants(rel)
}

// Query returns the features of kind stored in the feature index by an
// earlier analysis. An empty kind returns every feature.
func (a *App) Query(ctx context.Context, opts Options, kind string) ([]domain.IndexedFeature, error) {
	cfg, err := a.configLoader.Load(dirOrDot(opts.Dir))
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}
	if _, err := os.Stat(cfg.IndexPath); err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrIndexFailed, "no feature index, run analyze --index first"), "path", cfg.IndexPath)
	}
	idx, err := a.indexes.Open(ctx, cfg.IndexPath)
	if err != nil {
		return nil, err
	}
	defer idx.Close() //nolint:errcheck // Best effort close in defer
	return idx.Features(ctx, kind)
}

// Clean removes the fingerprint store and the feature index.
func (a *App) Clean(_ context.Context, opts Options) error {
	cfg, err := a.configLoader.Load(dirOrDot(opts.Dir))
	if err != nil {
		return zerr.Wrap(err, "failed to load configuration")
	}

	var errs error
	remove := func(path, name string) {
		a.logger.Info(fmt.Sprintf("removing %s...", name))
		if err := os.RemoveAll(path); err != nil {
			errs = errors.Join(errs, zerr.Wrap(err, fmt.Sprintf("failed to remove %s", name)))
			return
		}
		a.logger.Info(fmt.Sprintf("removed %s", name))
	}
	remove(cfg.StorePath, "fingerprint store")
	for _, suffix := range []string{"", "-wal", "-shm"} {
		if _, err := os.Stat(cfg.IndexPath + suffix); err == nil {
			remove(cfg.IndexPath+suffix, "feature index"+suffix)
		}
	}
	return errs
}

func dirOrDot(dir string) string {
	if dir == "" {
		return "."
	}
	return dir
}
