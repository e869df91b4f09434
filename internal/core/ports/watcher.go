package ports

import (
	"context"
	"iter"
	"time"
)

// WatchOp represents the type of file system operation.
type WatchOp uint8

const (
	// OpCreate indicates a file or directory was created.
	OpCreate WatchOp = iota
	// OpWrite indicates a file was modified.
	OpWrite
	// OpRemove indicates a file or directory was removed.
	OpRemove
	// OpRename indicates a file or directory was renamed.
	OpRename
)

// WatchEvent represents a file system event from the watcher.
type WatchEvent struct {
	// Path is the absolute path of the file or directory that changed.
	Path string
	// Operation is the type of change that occurred.
	Operation WatchOp
}

// Watcher defines the interface for watching file system changes.
//
//go:generate mockgen -source=watcher.go -destination=mocks/mock_watcher.go -package=mocks
type Watcher interface {
	// Start begins watching the given root directory recursively. Changes are
	// batched until no event arrived for the debounce period.
	Start(ctx context.Context, root string, debounce time.Duration) error
	// Stop stops the watcher and releases all resources.
	Stop() error
	// Batches returns an iterator of debounced batches of changed file paths.
	Batches() iter.Seq[[]string]
}
