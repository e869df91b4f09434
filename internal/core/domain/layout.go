package domain

import "path/filepath"

const (
	// SieveDirName is the name of the internal workspace directory.
	SieveDirName = ".sieve"

	// StoreDirName is the name of the fingerprint store directory.
	StoreDirName = "store"

	// IndexFileName is the name of the SQLite feature index.
	IndexFileName = "index.db"

	// ConfigFileName is the name of the project configuration file.
	ConfigFileName = "sieve.yaml"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)

// DefaultStorePath returns the default path for the fingerprint store.
// It joins .sieve and store.
func DefaultStorePath() string {
	return filepath.Join(SieveDirName, StoreDirName)
}

// DefaultIndexPath returns the default path for the feature index.
// It joins .sieve and index.db.
func DefaultIndexPath() string {
	return filepath.Join(SieveDirName, IndexFileName)
}
