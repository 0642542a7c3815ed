// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog keeps a local SQLite index of fetched papers and
// generated articles. The papers table is the fetch ledger that stops the
// same paper from being queued twice; the articles table backs full-text
// search in the web UI. Build with -tags sqlite_fts5.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/science-digest/internal/quiz"
	"github.com/pdiddy/science-digest/pkg/types"
)

const dbFile = "catalog.db"

// Catalog manages the index database.
type Catalog struct {
	db *sql.DB
}

// Open opens or creates indexDir/catalog.db and its schema.
func Open(indexDir string) (*Catalog, error) {
	if err := os.MkdirAll(indexDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(indexDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	c := &Catalog{db: db}
	if err := c.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return c, nil
}

// Close releases the database connection.
func (c *Catalog) Close() error {
	return c.db.Close()
}

func (c *Catalog) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS papers (
			url TEXT PRIMARY KEY,
			title TEXT,
			subject TEXT,
			source TEXT,
			keyword TEXT,
			fetched_at TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS articles (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			subject TEXT,
			title TEXT,
			content TEXT,
			processed_at TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_subject ON articles(subject)`,
	}
	for _, stmt := range statements {
		if _, err := c.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	var ftsExists int
	if err := c.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='articles_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}
	if ftsExists > 0 {
		return nil
	}

	// The trigram tokenizer matches substrings, which CJK text needs since
	// it has no word separators.
	ftsStatements := []string{
		`CREATE VIRTUAL TABLE articles_fts USING fts5(title, content, content=articles, content_rowid=rowid, tokenize='trigram')`,
		`CREATE TRIGGER articles_ai AFTER INSERT ON articles BEGIN
			INSERT INTO articles_fts(rowid, title, content) VALUES (new.rowid, new.title, new.content);
		END`,
		`CREATE TRIGGER articles_ad AFTER DELETE ON articles BEGIN
			INSERT INTO articles_fts(articles_fts, rowid, title, content) VALUES('delete', old.rowid, old.title, old.content);
		END`,
		`CREATE TRIGGER articles_au AFTER UPDATE ON articles BEGIN
			INSERT INTO articles_fts(articles_fts, rowid, title, content) VALUES('delete', old.rowid, old.title, old.content);
			INSERT INTO articles_fts(rowid, title, content) VALUES (new.rowid, new.title, new.content);
		END`,
	}
	for _, stmt := range ftsStatements {
		if _, err := c.db.Exec(stmt); err != nil {
			return fmt.Errorf("creating FTS infrastructure: %w", err)
		}
	}
	return nil
}

// Seen reports whether a paper URL was already queued.
func (c *Catalog) Seen(ctx context.Context, url string) (bool, error) {
	var n int
	err := c.db.QueryRowContext(ctx, `SELECT count(*) FROM papers WHERE url = ?`, url).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("querying papers: %w", err)
	}
	return n > 0, nil
}

// MarkSeen records a queued paper. Recording the same URL again is a no-op.
func (c *Catalog) MarkSeen(ctx context.Context, p types.Paper) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO papers (url, title, subject, source, keyword, fetched_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(url) DO NOTHING`,
		p.URL, p.Title, p.Subject, p.Source, p.MappingKeyword,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("recording paper %s: %w", p.URL, err)
	}
	return nil
}

// IndexArticle inserts or replaces the searchable text of a.
func (c *Catalog) IndexArticle(ctx context.Context, a types.Article) error {
	return indexArticle(ctx, c.db, a)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func indexArticle(ctx context.Context, db execer, a types.Article) error {
	subject := a.SubjectCategory
	if subject == "" {
		subject = a.Meta.Subject
	}
	body := quiz.Extract(a.Content).Article
	_, err := db.ExecContext(ctx,
		`INSERT INTO articles (id, subject, title, content, processed_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			subject=excluded.subject, title=excluded.title,
			content=excluded.content, processed_at=excluded.processed_at`,
		a.ID, subject, a.Meta.Title, body, a.ProcessedAt,
	)
	if err != nil {
		return fmt.Errorf("indexing article %s: %w", a.ID, err)
	}
	return nil
}

// IndexSummary holds counts from a reindex run.
type IndexSummary struct {
	Indexed int
	Failed  int
}

// Total returns the number of articles processed.
func (s IndexSummary) Total() int {
	return s.Indexed + s.Failed
}

// Reindex replaces the article index with list in one transaction.
func (c *Catalog) Reindex(ctx context.Context, list []types.Article, w io.Writer) (IndexSummary, error) {
	var summary IndexSummary

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return summary, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM articles`); err != nil {
		return summary, fmt.Errorf("clearing article index: %w", err)
	}

	for _, a := range list {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}
		if err := indexArticle(ctx, tx, a); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", a.ID, err)
			summary.Failed++
			continue
		}
		fmt.Fprintf(w, "indexed %s\n", a.ID)
		summary.Indexed++
	}

	if err := tx.Commit(); err != nil {
		return IndexSummary{}, fmt.Errorf("committing reindex: %w", err)
	}
	fmt.Fprintf(w, "\nindexed: %d, failed: %d\n", summary.Indexed, summary.Failed)
	return summary, nil
}

// Search returns the ids of articles matching query, best match first.
// Every whitespace-separated term must appear in the title or content.
// The trigram tokenizer cannot match terms shorter than three characters;
// such queries return no ids and no error.
func (c *Catalog) Search(ctx context.Context, query string, limit int) ([]string, error) {
	match := ftsQuery(query)
	if match == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := c.db.QueryContext(ctx,
		`SELECT a.id FROM articles_fts
		 JOIN articles a ON a.rowid = articles_fts.rowid
		 WHERE articles_fts MATCH ?
		 ORDER BY articles_fts.rank
		 LIMIT ?`, match, limit)
	if err != nil {
		return nil, fmt.Errorf("searching articles: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// IndexedIDs returns the set of article ids present in the index.
func (c *Catalog) IndexedIDs(ctx context.Context) (map[string]bool, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT id FROM articles`)
	if err != nil {
		return nil, fmt.Errorf("listing indexed articles: %w", err)
	}
	defer rows.Close()

	ids := map[string]bool{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning indexed id: %w", err)
		}
		ids[id] = true
	}
	return ids, rows.Err()
}

// Counts reports how many papers and articles the catalog holds.
func (c *Catalog) Counts(ctx context.Context) (papers, articles int, err error) {
	if err = c.db.QueryRowContext(ctx, `SELECT count(*) FROM papers`).Scan(&papers); err != nil {
		return 0, 0, fmt.Errorf("counting papers: %w", err)
	}
	if err = c.db.QueryRowContext(ctx, `SELECT count(*) FROM articles`).Scan(&articles); err != nil {
		return 0, 0, fmt.Errorf("counting articles: %w", err)
	}
	return papers, articles, nil
}

// ftsQuery quotes each term so user input never reaches FTS5 query syntax.
func ftsQuery(q string) string {
	var terms []string
	for _, f := range strings.Fields(q) {
		terms = append(terms, `"`+strings.ReplaceAll(f, `"`, `""`)+`"`)
	}
	return strings.Join(terms, " ")
}
