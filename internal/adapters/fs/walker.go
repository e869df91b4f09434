// Package fs provides the filesystem loader, resolver and hasher of a workspace.
package fs

import (
	"io/fs"
	"iter"
)

// skippedDirs are never descended into.
var skippedDirs = map[string]struct{}{
	".git":         {},
	".jj":          {},
	".sieve":       {},
	"node_modules": {},
}

// Walker lists the files of a directory tree.
type Walker struct{}

// NewWalker creates a new Walker.
func NewWalker() *Walker {
	return &Walker{}
}

// WalkFiles yields the slash-separated paths of all regular files below dir
// in fsys. When deep is false only the direct children of dir are yielded.
func (w *Walker) WalkFiles(fsys fs.FS, dir string, deep bool) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = fs.WalkDir(fsys, dir, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if p == dir {
					return nil
				}
				if _, skip := skippedDirs[d.Name()]; skip || !deep {
					return fs.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}
			if !yield(p) {
				return fs.SkipAll
			}
			return nil
		})
	}
}
