package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.trai.ch/sieve/internal/core/domain"
	"go.trai.ch/zerr"
)

// ReportFunc receives each report produced in watch mode. Returning an error
// stops watching.
type ReportFunc func(*domain.Report) error

// Watch analyzes the project, then re-analyzes it after every batch of file
// changes until ctx is cancelled. Failed re-analyses are logged and watching
// continues.
func (a *App) Watch(ctx context.Context, opts Options, onReport ReportFunc) error {
	s, err := a.open(ctx, opts)
	if err != nil {
		return err
	}
	report, err := a.run(ctx, s, opts.WriteIndex, nil)
	if err != nil {
		return err
	}
	if err := onReport(report); err != nil {
		return err
	}

	debounce := s.cfg.Debounce
	if opts.Debounce > 0 {
		debounce = opts.Debounce
	}
	if err := a.watcher.Start(ctx, s.cfg.Root, debounce); err != nil {
		return zerr.Wrap(err, "failed to start watching")
	}
	defer func() {
		if err := a.watcher.Stop(); err != nil {
			a.logger.Error(err)
		}
	}()
	a.logger.Info(fmt.Sprintf("watching %s for changes", s.cfg.Root))

	for batch := range a.watcher.Batches() {
		if ctx.Err() != nil {
			break
		}
		changed := a.changedURLs(s, batch)
		if len(changed) == 0 {
			continue
		}
		a.logger.Debug(fmt.Sprintf("%d document(s) changed", len(changed)))

		urls := make([]string, len(changed))
		for i, u := range changed {
			urls[i] = string(u)
		}
		s.analysis = s.analysis.FilesChanged(urls)

		report, err := a.run(ctx, s, opts.WriteIndex, changed)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				break
			}
			a.logger.Error(err)
			continue
		}
		if err := onReport(report); err != nil {
			return err
		}
	}
	return nil
}

// changedURLs maps the absolute paths of a watcher batch to the root relative
// URLs whose contents differ from the recorded fingerprint. Paths that can no
// longer be hashed count as changed.
func (a *App) changedURLs(s *session, paths []string) []domain.ResolvedURL {
	var changed []domain.ResolvedURL
	for _, p := range paths {
		rel, err := filepath.Rel(s.cfg.Root, p)
		if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		url := domain.ResolvedURL(filepath.ToSlash(rel))

		hash, err := a.hasher.HashFile(p)
		if err != nil {
			changed = append(changed, url)
			continue
		}
		fp, err := s.store.Get(url)
		if err != nil {
			a.logger.Warn(fmt.Sprintf("ignoring unreadable fingerprint for %s: %v", url, err))
		}
		if fp == nil || fp.Hash != hash {
			changed = append(changed, url)
		}
	}
	return domain.SortURLs(changed)
}
