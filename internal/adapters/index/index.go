// Package index persists analyzed documents in a SQLite feature index.
package index

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver
	"go.trai.ch/sieve/internal/core/domain"
	"go.trai.ch/sieve/internal/core/ports"
	"go.trai.ch/zerr"
)

var (
	_ ports.FeatureIndex = (*Index)(nil)
	_ ports.IndexOpener  = (*Opener)(nil)
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS documents (
  url   TEXT PRIMARY KEY,
  type  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS features (
  url     TEXT NOT NULL REFERENCES documents(url) ON DELETE CASCADE,
  kind    TEXT NOT NULL,
  id      TEXT NOT NULL,
  line    INTEGER NOT NULL,
  col     INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS imports (
  url     TEXT NOT NULL REFERENCES documents(url) ON DELETE CASCADE,
  target  TEXT NOT NULL,
  type    TEXT NOT NULL,
  lazy    BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE INDEX IF NOT EXISTS idx_features_kind ON features(kind);
CREATE INDEX IF NOT EXISTS idx_features_url ON features(url);
CREATE INDEX IF NOT EXISTS idx_imports_target ON imports(target);
CREATE INDEX IF NOT EXISTS idx_imports_url ON imports(url);
`

// Index is a SQLite backed ports.FeatureIndex.
type Index struct {
	db *sql.DB
}

// Open opens the index at path with WAL mode enabled, creating the file and
// schema when needed.
func Open(ctx context.Context, path string) (*Index, error) {
	if err := os.MkdirAll(filepath.Dir(path), domain.DirPerm); err != nil {
		return nil, zerr.With(domain.WrapAs(domain.ErrIndexFailed, err), "path", path)
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, zerr.With(domain.WrapAs(domain.ErrIndexFailed, err), "path", path)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, zerr.With(domain.WrapAs(domain.ErrIndexFailed, err), "path", path)
	}
	if _, err := db.ExecContext(ctx, schemaDDL); err != nil {
		_ = db.Close()
		return nil, zerr.With(domain.WrapAs(domain.ErrIndexFailed, err), "path", path)
	}
	return &Index{db: db}, nil
}

// Close closes the underlying database connection.
func (i *Index) Close() error {
	return i.db.Close()
}

// Replace stores docs in one transaction, replacing the rows previously
// stored for the same URLs.
func (i *Index) Replace(ctx context.Context, docs []*domain.Document) (err error) {
	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.WrapAs(domain.ErrIndexFailed, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, doc := range docs {
		if err := replaceDocument(ctx, tx, doc); err != nil {
			return zerr.With(domain.WrapAs(domain.ErrIndexFailed, err), "url", doc.URL)
		}
	}
	if err := tx.Commit(); err != nil {
		return domain.WrapAs(domain.ErrIndexFailed, err)
	}
	return nil
}

func replaceDocument(ctx context.Context, tx *sql.Tx, doc *domain.Document) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE url = ?`, doc.URL); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO documents (url, type) VALUES (?, ?)`, doc.URL, doc.Type); err != nil {
		return err
	}

	for _, f := range doc.Features {
		var line, col int
		if f.Range != nil {
			line, col = f.Range.Start.Line, f.Range.Start.Column
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO features (url, kind, id, line, col) VALUES (?, ?, ?, ?, ?)`,
			doc.URL, f.Kind, f.ID, line, col,
		); err != nil {
			return err
		}
	}

	for _, imp := range doc.Imports {
		if imp.URL == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO imports (url, target, type, lazy) VALUES (?, ?, ?, ?)`,
			doc.URL, imp.URL, imp.Type, imp.Lazy,
		); err != nil {
			return err
		}
	}
	return nil
}

// Dependants returns the URLs that transitively import url through eager imports.
func (i *Index) Dependants(ctx context.Context, url domain.ResolvedURL) ([]domain.ResolvedURL, error) {
	rows, err := i.db.QueryContext(ctx, `
WITH RECURSIVE dependants(url) AS (
  SELECT url FROM imports WHERE target = ? AND lazy = FALSE
  UNION
  SELECT i.url FROM imports i JOIN dependants d ON i.target = d.url WHERE i.lazy = FALSE
)
SELECT url FROM dependants WHERE url != ? ORDER BY url`, url, url)
	if err != nil {
		return nil, zerr.With(domain.WrapAs(domain.ErrIndexFailed, err), "url", url)
	}
	defer rows.Close()

	var out []domain.ResolvedURL
	for rows.Next() {
		var dep string
		if err := rows.Scan(&dep); err != nil {
			return nil, domain.WrapAs(domain.ErrIndexFailed, err)
		}
		out = append(out, domain.ResolvedURL(dep))
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapAs(domain.ErrIndexFailed, err)
	}
	return out, nil
}

// Features returns the indexed features of the given kind, or all features
// when kind is empty, ordered by document and position.
func (i *Index) Features(ctx context.Context, kind string) ([]domain.IndexedFeature, error) {
	rows, err := i.db.QueryContext(ctx, `
SELECT url, kind, id, line, col FROM features
WHERE ? = '' OR kind = ?
ORDER BY url, line, col, kind, id`, kind, kind)
	if err != nil {
		return nil, zerr.With(domain.WrapAs(domain.ErrIndexFailed, err), "kind", kind)
	}
	defer rows.Close()

	var out []domain.IndexedFeature
	for rows.Next() {
		var f domain.IndexedFeature
		var url string
		if err := rows.Scan(&url, &f.Kind, &f.ID, &f.Line, &f.Column); err != nil {
			return nil, domain.WrapAs(domain.ErrIndexFailed, err)
		}
		f.URL = domain.ResolvedURL(url)
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapAs(domain.ErrIndexFailed, err)
	}
	return out, nil
}

// Opener opens feature indexes.
type Opener struct{}

// NewOpener creates a new Opener.
func NewOpener() *Opener {
	return &Opener{}
}

// Open implements ports.IndexOpener.
func (o *Opener) Open(ctx context.Context, path string) (ports.FeatureIndex, error) {
	return Open(ctx, path)
}
