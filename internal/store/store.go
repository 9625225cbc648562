// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists retrieved article metadata in a SQLite database
// so repeated runs skip the E-utilities round trips.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/casereports-engine/pkg/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS case_reports (
	pmcid       TEXT PRIMARY KEY,
	pmid        TEXT NOT NULL DEFAULT '',
	title       TEXT NOT NULL DEFAULT '',
	journal     TEXT NOT NULL DEFAULT '',
	pub_date    TEXT NOT NULL DEFAULT '',
	year        INTEGER NOT NULL DEFAULT 0,
	abstract    TEXT NOT NULL DEFAULT '',
	article_url TEXT NOT NULL DEFAULT '',
	pubmed_url  TEXT NOT NULL DEFAULT '',
	cached_at   TIMESTAMP NOT NULL
);
`

// Store is a SQLite-backed metadata cache. It satisfies pmc.Cache.
type Store struct {
	db *sql.DB
}

// Open opens or creates the cache database at path, creating parent
// directories and the schema as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the cached report for pmcid. Database errors are treated as
// misses: the caller re-fetches and overwrites the entry.
func (s *Store) Get(pmcid string) (types.CaseReport, bool) {
	row := s.db.QueryRow(`
		SELECT pmcid, pmid, title, journal, pub_date, year, abstract, article_url, pubmed_url
		FROM case_reports WHERE pmcid = ?`, pmcid)

	var r types.CaseReport
	err := row.Scan(&r.PMCID, &r.PMID, &r.Title, &r.Journal, &r.PubDate,
		&r.Year, &r.Abstract, &r.ArticleURL, &r.PubMedURL)
	if err != nil {
		// A corrupt row counts as a miss; the caller re-fetches and
		// overwrites it.
		return types.CaseReport{}, false
	}
	return r, true
}

// Put inserts or replaces the cached report.
func (s *Store) Put(r types.CaseReport) error {
	if r.PMCID == "" {
		return fmt.Errorf("refusing to cache report without PMCID")
	}
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO case_reports
			(pmcid, pmid, title, journal, pub_date, year, abstract, article_url, pubmed_url, cached_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.PMCID, r.PMID, r.Title, r.Journal, r.PubDate, r.Year,
		r.Abstract, r.ArticleURL, r.PubMedURL, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("caching %s: %w", r.PMCID, err)
	}
	return nil
}

// Count returns the number of cached reports.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM case_reports`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting cached reports: %w", err)
	}
	return n, nil
}
