package domain

import (
	"path"
	"slices"
	"strings"
)

// ResolvedURL is the canonical, loadable identifier of a document.
// Every cache key and dependency graph node uses this form.
type ResolvedURL string

// FileRelativeURL is a URL as written in source, relative to the document that contains it.
// It must be passed through a resolver before it can be used as a key.
type FileRelativeURL string

// String returns the underlying URL text.
func (u ResolvedURL) String() string {
	return string(u)
}

// String returns the underlying URL text.
func (u FileRelativeURL) String() string {
	return string(u)
}

// SortURLs orders urls in place and returns them.
func SortURLs(urls []ResolvedURL) []ResolvedURL {
	slices.Sort(urls)
	return urls
}

// Document types understood by the bundled parsers.
const (
	TypeHTML = "html"
	TypeJS   = "js"
	TypeCSS  = "css"
)

// DocumentTypeOf infers the document type from the URL's extension. It
// returns an empty string for unknown extensions.
func DocumentTypeOf(url ResolvedURL) string {
	ext := path.Ext(string(url))
	if i := strings.IndexAny(ext, "?#"); i >= 0 {
		ext = ext[:i]
	}
	switch strings.ToLower(ext) {
	case ".html", ".htm":
		return TypeHTML
	case ".js", ".mjs", ".cjs":
		return TypeJS
	case ".css":
		return TypeCSS
	default:
		return ""
	}
}
