// Package watcher reports batches of changed files below a project root.
package watcher

import (
	"context"
	"slices"
	"time"
	"unique"
)

// Debouncer coalesces rapid file events into batches. A batch is emitted once
// no event has arrived for the debounce window.
type Debouncer struct {
	window time.Duration
}

// NewDebouncer creates a Debouncer with the given quiet period.
func NewDebouncer(window time.Duration) *Debouncer {
	return &Debouncer{window: window}
}

// Run reads paths from in and writes sorted, de-duplicated batches to out
// until in is closed or ctx is done. Pending paths are flushed when in is
// closed. Run closes out before returning.
func (d *Debouncer) Run(ctx context.Context, in <-chan string, out chan<- []string) {
	defer close(out)

	pending := make(map[unique.Handle[string]]struct{})
	drain := func() []string {
		paths := make([]string, 0, len(pending))
		for handle := range pending {
			paths = append(paths, handle.Value())
		}
		clear(pending)
		slices.Sort(paths)
		return paths
	}
	send := func(batch []string) bool {
		select {
		case out <- batch:
			return true
		case <-ctx.Done():
			return false
		}
	}

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case path, ok := <-in:
			if !ok {
				if len(pending) > 0 {
					send(drain())
				}
				return
			}
			pending[unique.Make(path)] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(d.window)
			} else {
				timer.Reset(d.window)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			if len(pending) == 0 {
				continue
			}
			if !send(drain()) {
				return
			}
		}
	}
}
