package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"flat-scraper/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database url: %w", err)
	}
	poolCfg.MaxConns = 4
	poolCfg.MaxConnLifetime = time.Hour

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect postgres: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func (s *PostgresStore) EnsureSchema(ctx context.Context, reset bool) error {
	ctx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	if reset {
		if _, err := s.pool.Exec(ctx, `DROP TABLE IF EXISTS flats; DROP TABLE IF EXISTS urls;`); err != nil {
			return fmt.Errorf("failed to reset schema: %w", err)
		}
	}

	sql := `
	CREATE TABLE IF NOT EXISTS flats (
		id BIGSERIAL PRIMARY KEY,
		title TEXT NOT NULL,
		price TEXT NOT NULL,
		address TEXT NOT NULL DEFAULT '',
		link TEXT NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS urls (
		id BIGSERIAL PRIMARY KEY,
		url TEXT NOT NULL UNIQUE
	);
	`

	if _, err := s.pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}

	return nil
}

func (s *PostgresStore) LinkExists(ctx context.Context, link string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM flats WHERE link = $1)`, link).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to look up link: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) InsertListing(ctx context.Context, rec models.ListingRecord) (int64, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO flats (title, price, address, link)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (link) DO NOTHING
		RETURNING id`,
		rec.Title, rec.Price, rec.Address, rec.Link,
	).Scan(&id)

	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to insert listing: %w", err)
	}
	return id, true, nil
}

func (s *PostgresStore) ListListings(ctx context.Context) ([]models.PersistedListing, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	rows, err := s.pool.Query(ctx, `SELECT id, title, price, address, link FROM flats ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}

	listings, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.PersistedListing, error) {
		var l models.PersistedListing
		err := row.Scan(&l.ID, &l.Title, &l.Price, &l.Address, &l.Link)
		return l, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read listings: %w", err)
	}
	return listings, nil
}

func (s *PostgresStore) AddTrackedURL(ctx context.Context, url string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := s.pool.Exec(ctx, `INSERT INTO urls (url) VALUES ($1) ON CONFLICT (url) DO NOTHING`, url)
	if err != nil {
		return false, fmt.Errorf("failed to add url: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) ListTrackedURLs(ctx context.Context) ([]models.TrackedURL, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	rows, err := s.pool.Query(ctx, `SELECT id, url FROM urls ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query urls: %w", err)
	}

	urls, err := pgx.CollectRows(rows, pgx.RowToStructByPos[models.TrackedURL])
	if err != nil {
		return nil, fmt.Errorf("failed to read urls: %w", err)
	}
	return urls, nil
}
