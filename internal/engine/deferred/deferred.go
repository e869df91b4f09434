// Package deferred provides a one-shot completion primitive: a value or error
// that becomes available exactly once and can be awaited by many goroutines.
package deferred

import (
	"context"
	"sync"
)

// Deferred is a value that is settled exactly once.
// The zero value is not usable; use New.
type Deferred[T any] struct {
	done chan struct{}
	once sync.Once

	val T
	err error
}

// New returns an unsettled Deferred.
func New[T any]() *Deferred[T] {
	return &Deferred[T]{done: make(chan struct{})}
}

// Resolved returns a Deferred already settled with v.
func Resolved[T any](v T) *Deferred[T] {
	d := New[T]()
	d.Resolve(v)
	return d
}

// Resolve settles d with v. It reports false if d was already settled.
func (d *Deferred[T]) Resolve(v T) bool {
	return d.settle(v, nil)
}

// Reject settles d with err. It reports false if d was already settled.
func (d *Deferred[T]) Reject(err error) bool {
	var zero T
	return d.settle(zero, err)
}

func (d *Deferred[T]) settle(v T, err error) bool {
	settled := false
	d.once.Do(func() {
		d.val = v
		d.err = err
		settled = true
		close(d.done)
	})
	return settled
}

// Done returns a channel closed once d is settled.
func (d *Deferred[T]) Done() <-chan struct{} {
	return d.done
}

// Settled reports whether d has been resolved or rejected.
func (d *Deferred[T]) Settled() bool {
	select {
	case <-d.done:
		return true
	default:
		return false
	}
}

// Result returns the settled value and error. It must only be called after Done is closed.
func (d *Deferred[T]) Result() (T, error) {
	return d.val, d.err
}

// Wait blocks until d is settled or ctx is done.
func (d *Deferred[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-d.done:
		return d.val, d.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
