package storage

import (
	"context"
	"fmt"
	"io"
	"log"
	"testing"
	"time"

	"flat-scraper/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupPostgres(t *testing.T) *PostgresStore {
	if testing.Short() {
		t.Skip("Skipping postgres integration test in short mode")
	}

	// suppress logging
	testcontainers.Logger = log.New(io.Discard, "", 0)

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		Started: true,
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "admin",
				"POSTGRES_DB":       "flats_db",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
	})
	if err != nil {
		t.Skipf("docker unavailable: %v", err)
	}
	t.Cleanup(func() {
		container.Terminate(context.Background())
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://postgres:admin@%s:%s/flats_db?sslmode=disable", host, port.Port())
	store, err := NewPostgresStore(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.EnsureSchema(ctx, true))
	return store
}

func TestPostgresStore(t *testing.T) {
	store := setupPostgres(t)
	ctx := context.Background()
	sink := NewSink(store)

	assert.Equal(t, 3, sink.IngestBatch(ctx, []models.ListingRecord{flat(1), flat(2), flat(3)}))
	assert.Equal(t, 0, sink.IngestBatch(ctx, []models.ListingRecord{flat(2)}))

	listings, err := store.ListListings(ctx)
	require.NoError(t, err)
	require.Len(t, listings, 3)
	assert.Equal(t, flat(3).Link, listings[0].Link)
	assert.Greater(t, listings[0].ID, listings[1].ID)

	added, err := store.AddTrackedURL(ctx, "https://cian.ru/a")
	require.NoError(t, err)
	assert.True(t, added)
	added, err = store.AddTrackedURL(ctx, "https://cian.ru/a")
	require.NoError(t, err)
	assert.False(t, added)

	urls, err := store.ListTrackedURLs(ctx)
	require.NoError(t, err)
	require.Len(t, urls, 1)
	assert.Equal(t, "https://cian.ru/a", urls[0].URL)

	require.NoError(t, store.EnsureSchema(ctx, true))
	listings, err = store.ListListings(ctx)
	require.NoError(t, err)
	assert.Empty(t, listings)
}
