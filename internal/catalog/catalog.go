// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog maintains a queryable SQLite index over the book
// table, so a collection can be searched without rerunning the pipeline.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/bookharvest/pkg/types"
)

const defaultMaxResults = 20

// Store manages the catalog SQLite database.
type Store struct {
	db         *sql.DB
	maxResults int
}

// Open opens or creates the catalog database at dbPath, creating the
// schema (including the full-text index) if needed.
func Open(dbPath string, maxResults int) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	s := &Store{db: db, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS books (
			identifier TEXT PRIMARY KEY,
			source TEXT,
			title TEXT,
			author TEXT,
			description TEXT,
			date TEXT,
			publisher TEXT,
			language TEXT,
			subjects TEXT,
			categories TEXT,
			isbn TEXT,
			pages TEXT,
			download_count INTEGER,
			file_size INTEGER,
			document_url TEXT,
			cover_url TEXT,
			local_document_path TEXT,
			local_cover_path TEXT,
			added_timestamp TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_books_language ON books(language)`,
		`CREATE INDEX IF NOT EXISTS idx_books_downloads ON books(download_count)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='books_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}
	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE books_fts USING fts5(title, author, description, subjects, content=books, content_rowid=rowid)`,
			`CREATE TRIGGER books_ai AFTER INSERT ON books BEGIN
				INSERT INTO books_fts(rowid, title, author, description, subjects)
				VALUES (new.rowid, new.title, new.author, new.description, new.subjects);
			END`,
			`CREATE TRIGGER books_ad AFTER DELETE ON books BEGIN
				INSERT INTO books_fts(books_fts, rowid, title, author, description, subjects)
				VALUES ('delete', old.rowid, old.title, old.author, old.description, old.subjects);
			END`,
			`CREATE TRIGGER books_au AFTER UPDATE ON books BEGIN
				INSERT INTO books_fts(books_fts, rowid, title, author, description, subjects)
				VALUES ('delete', old.rowid, old.title, old.author, old.description, old.subjects);
				INSERT INTO books_fts(rowid, title, author, description, subjects)
				VALUES (new.rowid, new.title, new.author, new.description, new.subjects);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}
	return nil
}

// Insert upserts book records, keyed by identifier. It returns the
// number of records written.
func (s *Store) Insert(ctx context.Context, books []*types.Book) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO books (
		identifier, source, title, author, description, date, publisher,
		language, subjects, categories, isbn, pages, download_count,
		file_size, document_url, cover_url, local_document_path,
		local_cover_path, added_timestamp
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	written := 0
	for _, b := range books {
		if b.Identifier == "" {
			continue
		}
		added := ""
		if !b.AddedAt.IsZero() {
			added = b.AddedAt.UTC().Format("2006-01-02T15:04:05Z07:00")
		}
		if _, err := stmt.ExecContext(ctx,
			b.Identifier, string(b.Source), b.Title, b.Author, b.Description,
			b.Date, b.Publisher, b.Language, b.Subjects, b.Categories,
			b.ISBN, b.Pages, b.DownloadCount, b.FileSize, b.DocumentURL,
			b.CoverURL, b.LocalDocumentPath, b.LocalCoverPath, added,
		); err != nil {
			return 0, fmt.Errorf("inserting %s: %w", b.Identifier, err)
		}
		written++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing: %w", err)
	}
	return written, nil
}

// QueryOptions holds parameters for catalog queries.
type QueryOptions struct {
	// Text is the full-text search string over title, author,
	// description, and subjects.
	Text string

	// Language filters by exact language code.
	Language string

	// Category filters by substring match on the categories column.
	Category string

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Text == "" && q.Language == "" && q.Category == ""
}

// Query searches the catalog. Full-text matches rank by FTS relevance;
// filter-only queries sort by download count descending.
func (s *Store) Query(ctx context.Context, opts QueryOptions) ([]*types.Book, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb   strings.Builder
		args []any
	)
	useFTS := opts.Text != ""
	if useFTS {
		qb.WriteString(
			`SELECT b.identifier, b.source, b.title, b.author, b.language,
				b.categories, b.download_count, b.local_document_path
			FROM books_fts
			JOIN books b ON b.rowid = books_fts.rowid
			WHERE books_fts MATCH ?`)
		args = append(args, ftsQuery(opts.Text))
	} else {
		qb.WriteString(
			`SELECT b.identifier, b.source, b.title, b.author, b.language,
				b.categories, b.download_count, b.local_document_path
			FROM books b
			WHERE 1=1`)
	}

	if opts.Language != "" {
		qb.WriteString(` AND b.language = ?`)
		args = append(args, opts.Language)
	}
	if opts.Category != "" {
		qb.WriteString(` AND b.categories LIKE ?`)
		args = append(args, "%"+opts.Category+"%")
	}

	if useFTS {
		qb.WriteString(` ORDER BY books_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY b.download_count DESC`)
	}
	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	return s.scanBooks(ctx, qb.String(), args...)
}

// MostPopular returns the n records with the highest download counts.
func (s *Store) MostPopular(ctx context.Context, n int) ([]*types.Book, error) {
	if n <= 0 {
		n = s.maxResults
	}
	return s.scanBooks(ctx,
		`SELECT b.identifier, b.source, b.title, b.author, b.language,
			b.categories, b.download_count, b.local_document_path
		FROM books b
		ORDER BY b.download_count DESC
		LIMIT ?`, n)
}

// Count returns the number of indexed records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM books`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting books: %w", err)
	}
	return n, nil
}

func (s *Store) scanBooks(ctx context.Context, query string, args ...any) ([]*types.Book, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying catalog: %w", err)
	}
	defer rows.Close()

	var books []*types.Book
	for rows.Next() {
		b := &types.Book{}
		var source string
		if err := rows.Scan(&b.Identifier, &source, &b.Title, &b.Author,
			&b.Language, &b.Categories, &b.DownloadCount, &b.LocalDocumentPath); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		b.Source = types.Source(source)
		books = append(books, b)
	}
	return books, rows.Err()
}

// ftsQuery quotes each search term so user input cannot inject FTS5
// query syntax.
func ftsQuery(text string) string {
	terms := strings.Fields(text)
	for i, t := range terms {
		terms[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}
	return strings.Join(terms, " ")
}
