package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"flat-scraper/models"
	"flat-scraper/utils"
)

var csvHeader = []string{"Название", "Цена", "Адрес", "Ссылка"}

// CSVWriter saves a bulk run to a UTF-8 CSV file.
type CSVWriter struct {
	path string
}

func NewCSVWriter(path string) *CSVWriter {
	return &CSVWriter{path: path}
}

func (w *CSVWriter) Path() string {
	return w.path
}

// Write replaces the file with a header row and one row per record.
// An empty run still produces a file with just the header.
func (w *CSVWriter) Write(records []models.ListingRecord) error {
	if err := os.MkdirAll(filepath.Dir(w.path), 0755); err != nil {
		return fmt.Errorf("could not create output dir: %w", err)
	}

	file, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("could not create file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("csv write error: %w", err)
	}
	for _, r := range records {
		if err := writer.Write([]string{r.Title, r.Price, r.Address, r.Link}); err != nil {
			return fmt.Errorf("csv write error: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("csv write error: %w", err)
	}

	if len(records) == 0 {
		utils.Warn("No listings to write, saved header only → %s", w.path)
		return nil
	}
	utils.Success("Saved %d listings → %s", len(records), w.path)
	return nil
}
