package ports

import "go.trai.ch/sieve/internal/core/domain"

// Resolver turns user-written URLs into canonical document URLs.
type Resolver interface {
	// CanResolve reports whether url is something this resolver understands.
	CanResolve(url string) bool
	// Resolve resolves rel against base. An empty base resolves against the project root.
	// The boolean is false when rel cannot be resolved.
	Resolve(base domain.ResolvedURL, rel domain.FileRelativeURL) (domain.ResolvedURL, bool)
	// Relative returns a URL for to, written relative to from.
	Relative(from, to domain.ResolvedURL) domain.FileRelativeURL
}
