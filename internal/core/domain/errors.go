package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.trai.ch/zerr"
)

var (
	// ErrNoKnownParser is returned when no parser is registered for a document type.
	// Import following skips documents that fail with it.
	ErrNoKnownParser = zerr.New("no known parser")

	// ErrCouldNotLoad is returned when a loader cannot fetch a document.
	ErrCouldNotLoad = zerr.New("could not load")

	// ErrCannotLoadURL is returned when no loader accepts a URL.
	ErrCannotLoadURL = zerr.New("no loader can load url")

	// ErrUnresolvableURL is returned when a URL cannot be resolved to a canonical form.
	ErrUnresolvableURL = zerr.New("url cannot be resolved")

	// ErrURLOutsideRoot is returned when a resolved URL points outside the project root.
	ErrURLOutsideRoot = zerr.New("url is outside project root")

	// ErrParseFailed is returned when a parser cannot produce any document at all.
	ErrParseFailed = zerr.New("parse failed")

	// ErrCancelled marks work abandoned because its caller cancelled it.
	ErrCancelled = zerr.New("operation cancelled")

	// ErrDuplicateDocument is returned when a second Document is built for a URL
	// within one cache generation. It indicates a cache coherency bug.
	ErrDuplicateDocument = zerr.New("document already analyzed in this generation")

	// ErrScannedDocumentExists is returned when a scanned document is registered twice
	// within one cache generation. It indicates a cache coherency bug.
	ErrScannedDocumentExists = zerr.New("scanned document already registered in this generation")

	// ErrDocumentAlreadyRecorded is returned when dependencies are recorded twice for one
	// graph node within one generation.
	ErrDocumentAlreadyRecorded = zerr.New("dependencies already recorded for document")

	// ErrConfigNotFound is returned when no configuration file can be found.
	ErrConfigNotFound = zerr.New("could not find sieve.yaml")

	// ErrInvalidConfig is returned when the configuration file is malformed.
	ErrInvalidConfig = zerr.New("invalid configuration")

	// ErrNoEntrypoints is returned when an analysis is requested without any documents.
	ErrNoEntrypoints = zerr.New("no entrypoints to analyze")

	// ErrStoreCreateFailed is returned when the fingerprint store directory cannot be created.
	ErrStoreCreateFailed = zerr.New("failed to create store directory")

	// ErrStoreReadFailed is returned when a fingerprint cannot be read.
	ErrStoreReadFailed = zerr.New("failed to read fingerprint")

	// ErrStoreWriteFailed is returned when a fingerprint cannot be written.
	ErrStoreWriteFailed = zerr.New("failed to write fingerprint")

	// ErrIndexFailed is returned when the feature index cannot be opened or written.
	ErrIndexFailed = zerr.New("feature index failed")

	// ErrWatcherFailed is returned when the file watcher cannot be started.
	ErrWatcherFailed = zerr.New("file watcher failed")

	// ErrScriptFailed is returned when a scanner script cannot be loaded or evaluated.
	ErrScriptFailed = zerr.New("scanner script failed")

	// ErrReportHasErrors is returned in strict mode when an analysis produced
	// error severity warnings. The report itself has already been printed.
	ErrReportHasErrors = zerr.New("analysis reported errors")
)

// Annotate attaches metadata to a sentinel error. The result still matches
// err under errors.Is.
func Annotate(err error, key string, value any) error {
	return zerr.With(zerr.Wrap(err, ""), key, value)
}

// WrapAs marks cause as an instance of kind. The result matches both under
// errors.Is.
func WrapAs(kind, cause error) error {
	return fmt.Errorf("%w: %w", kind, cause)
}

// IsCancellation reports whether err signals that the caller abandoned the work,
// as opposed to the work failing.
func IsCancellation(err error) bool {
	return errors.Is(err, ErrCancelled) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// ParseWarningError is a recoverable parse failure. The document is still
// analyzed, carrying the warnings, and Partial holds whatever tree could be
// recovered.
type ParseWarningError struct {
	Warnings []Warning
	Partial  *ParsedDocument
}

func (e *ParseWarningError) Error() string {
	msgs := make([]string, 0, len(e.Warnings))
	for _, w := range e.Warnings {
		msgs = append(msgs, w.Message)
	}
	return "parse error: " + strings.Join(msgs, "; ")
}
