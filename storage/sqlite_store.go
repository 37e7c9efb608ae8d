package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"flat-scraper/models"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps everything in a single local database file. Use ":memory:"
// for a throwaway store.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("could not create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// an in-memory database exists per connection
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) EnsureSchema(ctx context.Context, reset bool) error {
	if reset {
		if _, err := s.db.ExecContext(ctx, `DROP TABLE IF EXISTS flats; DROP TABLE IF EXISTS urls;`); err != nil {
			return fmt.Errorf("failed to reset schema: %w", err)
		}
	}

	_, err := s.db.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS flats (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		price TEXT NOT NULL,
		address TEXT NOT NULL DEFAULT '',
		link TEXT NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS urls (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL UNIQUE
	);
	`)
	if err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) LinkExists(ctx context.Context, link string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM flats WHERE link = ?)`, link).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to look up link: %w", err)
	}
	return exists, nil
}

func (s *SQLiteStore) InsertListing(ctx context.Context, rec models.ListingRecord) (int64, bool, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO flats (title, price, address, link)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (link) DO NOTHING
		RETURNING id`,
		rec.Title, rec.Price, rec.Address, rec.Link,
	).Scan(&id)

	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to insert listing: %w", err)
	}
	return id, true, nil
}

func (s *SQLiteStore) ListListings(ctx context.Context) ([]models.PersistedListing, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, title, price, address, link FROM flats ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}
	defer rows.Close()

	var listings []models.PersistedListing
	for rows.Next() {
		var l models.PersistedListing
		if err := rows.Scan(&l.ID, &l.Title, &l.Price, &l.Address, &l.Link); err != nil {
			return nil, fmt.Errorf("failed to read listing: %w", err)
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

func (s *SQLiteStore) AddTrackedURL(ctx context.Context, url string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO urls (url) VALUES (?) ON CONFLICT (url) DO NOTHING`, url)
	if err != nil {
		return false, fmt.Errorf("failed to add url: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to add url: %w", err)
	}
	return n == 1, nil
}

func (s *SQLiteStore) ListTrackedURLs(ctx context.Context) ([]models.TrackedURL, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, url FROM urls ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query urls: %w", err)
	}
	defer rows.Close()

	var urls []models.TrackedURL
	for rows.Next() {
		var u models.TrackedURL
		if err := rows.Scan(&u.ID, &u.URL); err != nil {
			return nil, fmt.Errorf("failed to read url: %w", err)
		}
		urls = append(urls, u)
	}
	return urls, rows.Err()
}
