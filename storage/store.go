package storage

import (
	"context"
	"fmt"
	"time"

	"flat-scraper/config"
	"flat-scraper/models"
	"flat-scraper/utils"
)

// Store is the persistence layer for listings and tracked URLs.
type Store interface {
	// EnsureSchema creates the tables; with reset it drops them first.
	EnsureSchema(ctx context.Context, reset bool) error

	LinkExists(ctx context.Context, link string) (bool, error)
	// InsertListing stores rec and returns its new id. inserted is false when a
	// listing with the same link already exists.
	InsertListing(ctx context.Context, rec models.ListingRecord) (id int64, inserted bool, err error)
	// ListListings returns every listing, most recently stored first.
	ListListings(ctx context.Context) ([]models.PersistedListing, error)

	AddTrackedURL(ctx context.Context, url string) (added bool, err error)
	ListTrackedURLs(ctx context.Context) ([]models.TrackedURL, error)

	Close() error
}

// Open connects to the configured backend and prepares the schema. Connecting
// is retried with backoff so the service can start next to its database.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	var store Store

	err := utils.Retry(ctx, cfg.Storage.ConnectRetries, time.Second, func() error {
		var err error
		switch cfg.Storage.Driver {
		case config.DriverPostgres:
			store, err = NewPostgresStore(ctx, cfg.PostgresDSN())
		case config.DriverSQLite:
			store, err = NewSQLiteStore(cfg.Storage.SQLitePath)
		default:
			return fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := store.EnsureSchema(ctx, cfg.Storage.ResetOnStart); err != nil {
		store.Close()
		return nil, err
	}
	if cfg.Storage.ResetOnStart {
		utils.Warn("Tables were reset on start")
	}

	return store, nil
}
