// Package cache fetches raw article sources and keeps them in a SQLite
// database keyed by article URL, so repeated runs skip the network.
package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrPageNotFound is returned by Get for URLs not in the cache.
var ErrPageNotFound = errors.New("page not in cache")

// Page is one cached raw source.
type Page struct {
	URL          string     `json:"url"`
	Body         []byte     `json:"-"`
	FetchedAt    time.Time  `json:"fetched_at"`
	LastModified *time.Time `json:"last_modified,omitempty"`
}

// Store manages cached pages using SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the cache database at dsn.
func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates the pages table if it doesn't exist.
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS pages (
		url TEXT PRIMARY KEY,
		body BLOB NOT NULL,
		fetched_at TEXT NOT NULL,
		last_modified TEXT
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get retrieves the cached page for url.
func (s *Store) Get(url string) (*Page, error) {
	query := `SELECT url, body, fetched_at, last_modified FROM pages WHERE url = ?`

	var pageURL, fetchedAtStr string
	var body []byte
	var lastModifiedStr sql.NullString

	err := s.db.QueryRow(query, url).Scan(&pageURL, &body, &fetchedAtStr, &lastModifiedStr)
	if err == sql.ErrNoRows {
		return nil, ErrPageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query page: %w", err)
	}

	page := &Page{
		URL:       pageURL,
		Body:      body,
		FetchedAt: parseTime(fetchedAtStr),
	}
	if lastModifiedStr.Valid {
		t := parseTime(lastModifiedStr.String)
		page.LastModified = &t
	}

	return page, nil
}

// Put stores page, replacing any previous copy of the same URL.
func (s *Store) Put(page Page) error {
	query := `
		INSERT OR REPLACE INTO pages (url, body, fetched_at, last_modified)
		VALUES (?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		page.URL,
		page.Body,
		formatTime(&page.FetchedAt),
		formatTime(page.LastModified),
	)
	if err != nil {
		return fmt.Errorf("failed to store page: %w", err)
	}

	return nil
}

// Delete removes url from the cache.
func (s *Store) Delete(url string) error {
	result, err := s.db.Exec("DELETE FROM pages WHERE url = ?", url)
	if err != nil {
		return fmt.Errorf("failed to delete page: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrPageNotFound
	}

	return nil
}

// List returns every cached page without its body, ordered by URL.
func (s *Store) List() ([]Page, error) {
	rows, err := s.db.Query(`SELECT url, fetched_at, last_modified FROM pages ORDER BY url`)
	if err != nil {
		return nil, fmt.Errorf("failed to query pages: %w", err)
	}
	defer rows.Close()

	var pages []Page
	for rows.Next() {
		var url, fetchedAtStr string
		var lastModifiedStr sql.NullString
		if err := rows.Scan(&url, &fetchedAtStr, &lastModifiedStr); err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}

		page := Page{URL: url, FetchedAt: parseTime(fetchedAtStr)}
		if lastModifiedStr.Valid {
			t := parseTime(lastModifiedStr.String)
			page.LastModified = &t
		}
		pages = append(pages, page)
	}

	return pages, rows.Err()
}

// Helper functions for time formatting
func formatTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	// Strip monotonic clock for consistent storage and comparisons
	return t.Truncate(0).UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339, s)
	}
	return t.Truncate(0)
}
