package fs

import (
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"go.trai.ch/sieve/internal/core/domain"
	"go.trai.ch/sieve/internal/core/ports"
)

var _ ports.Resolver = (*Resolver)(nil)

// Resolver resolves import specifiers to root-relative document paths.
// Specifiers starting with "/" are relative to the project root, everything
// else is relative to the importing document. Nothing resolves outside the root.
type Resolver struct{}

// NewResolver creates a new Resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// CanResolve reports whether raw is a local path rather than a remote or
// otherwise schemed URL.
func (r *Resolver) CanResolve(raw string) bool {
	if raw == "" || strings.HasPrefix(raw, "//") {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Scheme == "" && u.Host == ""
}

// Resolve resolves rel against the document base.
func (r *Resolver) Resolve(base domain.ResolvedURL, rel domain.FileRelativeURL) (domain.ResolvedURL, bool) {
	if !r.CanResolve(string(rel)) {
		return "", false
	}
	u, err := url.Parse(string(rel))
	if err != nil || u.Path == "" {
		return "", false
	}

	var joined string
	switch {
	case strings.HasPrefix(u.Path, "/"):
		joined = path.Clean(strings.TrimPrefix(u.Path, "/"))
	case base == "":
		joined = path.Clean(u.Path)
	default:
		joined = path.Join(path.Dir(string(base)), u.Path)
	}

	if joined == "." || joined == ".." || strings.HasPrefix(joined, "../") {
		return "", false
	}
	return domain.ResolvedURL(joined), true
}

// Relative returns to written relative to the directory of from.
func (r *Resolver) Relative(from, to domain.ResolvedURL) domain.FileRelativeURL {
	rel, err := filepath.Rel(filepath.FromSlash(path.Dir(string(from))), filepath.FromSlash(string(to)))
	if err != nil {
		return domain.FileRelativeURL("/" + string(to))
	}
	rel = filepath.ToSlash(rel)
	if !strings.HasPrefix(rel, "../") {
		rel = "./" + rel
	}
	return domain.FileRelativeURL(rel)
}
