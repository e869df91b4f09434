// Package cas stores document fingerprints, one JSON file per document.
package cas

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/sieve/internal/core/domain"
	"go.trai.ch/sieve/internal/core/ports"
	"go.trai.ch/zerr"
)

var (
	_ ports.FingerprintStore = (*Store)(nil)
	_ ports.StoreOpener      = (*Opener)(nil)
)

// Store implements ports.FingerprintStore using a file-per-document strategy.
type Store struct {
	dir string
}

// NewStore creates a Store kept in dir. The directory is created on first write.
func NewStore(dir string) *Store {
	return &Store{dir: filepath.Clean(dir)}
}

// Get retrieves the fingerprint recorded for url.
func (s *Store) Get(url domain.ResolvedURL) (*domain.Fingerprint, error) {
	filename := s.filename(url)
	//nolint:gosec // Path is constructed from trusted directory and hashed filename
	data, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.With(domain.WrapAs(domain.ErrStoreReadFailed, err), "url", url)
	}

	var fp domain.Fingerprint
	if err := json.Unmarshal(data, &fp); err != nil {
		return nil, zerr.With(domain.WrapAs(domain.ErrStoreReadFailed, err), "url", url)
	}
	if fp.URL != url {
		// Hash collision with another document.
		return nil, nil
	}
	return &fp, nil
}

// Put stores the fingerprint, replacing the previous one for the same URL.
func (s *Store) Put(fp domain.Fingerprint) error {
	data, err := json.MarshalIndent(fp, "", "  ")
	if err != nil {
		return zerr.With(domain.WrapAs(domain.ErrStoreWriteFailed, err), "url", fp.URL)
	}

	if err := os.MkdirAll(s.dir, domain.DirPerm); err != nil {
		return zerr.With(domain.WrapAs(domain.ErrStoreCreateFailed, err), "dir", s.dir)
	}

	filename := s.filename(fp.URL)
	tmp, err := os.CreateTemp(s.dir, ".fingerprint-*")
	if err != nil {
		return zerr.With(domain.WrapAs(domain.ErrStoreWriteFailed, err), "url", fp.URL)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // Already renamed on success

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return zerr.With(domain.WrapAs(domain.ErrStoreWriteFailed, err), "url", fp.URL)
	}
	if err := tmp.Close(); err != nil {
		return zerr.With(domain.WrapAs(domain.ErrStoreWriteFailed, err), "url", fp.URL)
	}
	if err := os.Rename(tmp.Name(), filename); err != nil {
		return zerr.With(domain.WrapAs(domain.ErrStoreWriteFailed, err), "url", fp.URL)
	}
	return nil
}

func (s *Store) filename(url domain.ResolvedURL) string {
	return filepath.Join(s.dir, fmt.Sprintf("%016x.json", xxhash.Sum64String(string(url))))
}

// Opener opens fingerprint stores.
type Opener struct{}

// NewOpener creates a new Opener.
func NewOpener() *Opener {
	return &Opener{}
}

// Open returns the store kept in dir.
func (o *Opener) Open(dir string) (ports.FingerprintStore, error) {
	if dir == "" {
		return nil, zerr.Wrap(domain.ErrStoreCreateFailed, "store directory is empty")
	}
	return NewStore(dir), nil
}
