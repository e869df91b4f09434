// Package scan runs many scanners over one parsed document, sharing AST
// traversals between them.
package scan

import (
	"cmp"
	"context"
	"slices"
	"time"

	"go.trai.ch/sieve/internal/core/domain"
	"go.trai.ch/sieve/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// DefaultWindow is how long a batch of visitors waits for more visitors while
// other scanners are still busy.
const DefaultWindow = 5 * time.Millisecond

// Orchestrator batches the visitors of concurrently running scanners into
// shared traversals.
type Orchestrator struct {
	window time.Duration
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithWindow sets the coalescing window.
func WithWindow(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.window = d
	}
}

// New creates an Orchestrator.
func New(opts ...Option) *Orchestrator {
	o := &Orchestrator{window: DefaultWindow}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

type visitRequest struct {
	visitor domain.Visitor
	done    chan error
}

// run is the state of one Scan call. Only the loop goroutine touches the
// batching fields.
type run struct {
	doc    *domain.ParsedDocument
	window time.Duration

	ctx    context.Context
	cancel context.CancelCauseFunc

	parks  chan visitRequest
	exited chan struct{}
}

// Scan runs every scanner against doc and returns their features sorted by
// position. The first scanner or visitor error aborts the whole scan, and no
// features are returned.
func (o *Orchestrator) Scan(
	ctx context.Context,
	doc *domain.ParsedDocument,
	scanners []ports.Scanner,
) ([]domain.ScannedFeature, []domain.Warning, error) {
	if len(scanners) == 0 {
		return nil, nil, nil
	}

	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	r := &run{
		doc:    doc,
		window: o.window,
		ctx:    runCtx,
		cancel: cancel,
		parks:  make(chan visitRequest),
		exited: make(chan struct{}),
	}

	results := make([]ports.ScanResult, len(scanners))
	g, gCtx := errgroup.WithContext(runCtx)
	for i, scanner := range scanners {
		g.Go(func() error {
			defer func() { r.exited <- struct{}{} }()
			res, err := scanner.Scan(gCtx, doc, r.visit)
			if err != nil {
				err = zerr.With(zerr.Wrap(err, "scanner failed"), "scanner", scanner.Name())
				// The loop watches runCtx, not the errgroup's context.
				cancel(err)
				return err
			}
			results[i] = res
			return nil
		})
	}

	loopErr := r.loop(len(scanners))
	err := g.Wait()
	if loopErr != nil {
		return nil, nil, loopErr
	}
	if err != nil {
		return nil, nil, err
	}

	var features []domain.ScannedFeature
	var warnings []domain.Warning
	for _, res := range results {
		features = append(features, res.Features...)
		warnings = append(warnings, res.Warnings...)
	}
	SortFeatures(features)
	return features, warnings, nil
}

// visit parks the calling scanner until its visitor has run over the whole
// document.
func (r *run) visit(_ context.Context, visitor domain.Visitor) error {
	if r.doc == nil || r.doc.AST == nil {
		return nil
	}
	req := visitRequest{visitor: visitor, done: make(chan error, 1)}
	r.parks <- req
	return <-req.done
}

// loop owns batching until every scanner has returned. It returns the first
// visitor error, or the cancellation cause if the scan was aborted.
func (r *run) loop(running int) error {
	var (
		parked  []visitRequest
		timer   *time.Timer
		timeout <-chan time.Time
		failure error
		done    = r.ctx.Done()
	)

	stopTimer := func() {
		if timer != nil {
			timer.Stop()
			timer, timeout = nil, nil
		}
	}

	abort := func(err error) {
		stopTimer()
		for _, req := range parked {
			req.done <- err
		}
		parked = nil
	}

	flush := func() {
		if err := context.Cause(r.ctx); err != nil {
			abort(err)
			return
		}
		stopTimer()
		batch := parked
		parked = nil
		if len(batch) == 0 {
			return
		}

		visitors := make([]domain.Visitor, len(batch))
		for i, req := range batch {
			visitors[i] = req.visitor
		}
		err := r.doc.AST.Walk(visitors...)
		if err != nil && failure == nil {
			failure = err
			r.cancel(err)
		}
		for _, req := range batch {
			req.done <- err
		}
	}

	for running > 0 {
		select {
		case req := <-r.parks:
			if failure != nil {
				req.done <- failure
				continue
			}
			if err := context.Cause(r.ctx); err != nil {
				req.done <- err
				continue
			}
			parked = append(parked, req)
			if len(parked) == running {
				flush()
			} else if timer == nil {
				timer = time.NewTimer(r.window)
				timeout = timer.C
			}

		case <-r.exited:
			running--
			if running > 0 && len(parked) == running {
				flush()
			}

		case <-timeout:
			timer, timeout = nil, nil
			flush()

		case <-done:
			done = nil
			abort(context.Cause(r.ctx))
		}
	}

	if failure != nil {
		return failure
	}
	return context.Cause(r.ctx)
}

// SortFeatures orders features by start position. Features without a range
// come first. The sort is stable so that features at the same position keep
// scanner order.
func SortFeatures(features []domain.ScannedFeature) {
	slices.SortStableFunc(features, func(a, b domain.ScannedFeature) int {
		ra, rb := a.Range(), b.Range()
		switch {
		case ra == nil && rb == nil:
			return 0
		case ra == nil:
			return -1
		case rb == nil:
			return 1
		}
		if c := cmp.Compare(ra.Start.Line, rb.Start.Line); c != 0 {
			return c
		}
		return cmp.Compare(ra.Start.Column, rb.Start.Column)
	})
}
