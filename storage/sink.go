package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"flat-scraper/models"
	"flat-scraper/utils"
)

var ErrEmptyLink = errors.New("listing has no link")

// Sink stores listings at most once per detail link.
type Sink struct {
	store Store
}

func NewSink(store Store) *Sink {
	return &Sink{store: store}
}

// Ingest stores rec unless a listing with the same link exists already.
// stored is false for a known link; that is not an error.
func (s *Sink) Ingest(ctx context.Context, rec models.ListingRecord) (bool, error) {
	if strings.TrimSpace(rec.Link) == "" {
		return false, ErrEmptyLink
	}

	exists, err := s.store.LinkExists(ctx, rec.Link)
	if err != nil {
		return false, fmt.Errorf("lookup %s: %w", rec.Link, err)
	}
	if exists {
		return false, nil
	}

	_, inserted, err := s.store.InsertListing(ctx, rec)
	if err != nil {
		return false, fmt.Errorf("insert %s: %w", rec.Link, err)
	}
	return inserted, nil
}

// IngestBatch ingests records one by one and returns how many were new.
// A failing record is logged and skipped.
func (s *Sink) IngestBatch(ctx context.Context, records []models.ListingRecord) int {
	stored := 0
	for _, rec := range records {
		ok, err := s.Ingest(ctx, rec)
		if err != nil {
			utils.Error("Could not save listing: %v", err)
			continue
		}
		if ok {
			stored++
		}
	}
	return stored
}
