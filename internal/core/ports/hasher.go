package ports

//go:generate mockgen -source=hasher.go -destination=mocks/mock_hasher.go -package=mocks

// Hasher computes content fingerprints.
type Hasher interface {
	// Hash returns a stable hex digest of contents.
	Hash(contents []byte) string
	// HashFile returns the digest of the file at path.
	HashFile(path string) (string, error)
}
