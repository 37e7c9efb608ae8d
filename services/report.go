package services

import (
	"io"
	"sort"
	"strings"

	"flat-scraper/models"

	"github.com/jedib0t/go-pretty/v6/table"
)

type Report struct {
	PagesTotal       int
	PagesFailed      int
	FailedPages      []int
	RecordsExtracted int
	UniqueLinks      int
	NewlyStored      int
	ListingsByArea   map[string]int
}

// GenerateReport summarises a bulk run.
func GenerateReport(result models.BulkResult) Report {
	report := Report{
		PagesTotal:       len(result.Pages),
		RecordsExtracted: len(result.Rows),
		NewlyStored:      result.Stored,
		ListingsByArea:   make(map[string]int),
	}

	for _, p := range result.Pages {
		if p.Err != nil {
			report.PagesFailed++
			report.FailedPages = append(report.FailedPages, p.PageNumber)
		}
	}

	seen := make(map[string]bool)
	for _, r := range result.Rows {
		if seen[r.Link] {
			continue
		}
		seen[r.Link] = true
		report.ListingsByArea[areaOf(r.Address)]++
	}
	report.UniqueLinks = len(seen)

	return report
}

func PrintReport(w io.Writer, report Report) {
	summary := table.NewWriter()
	summary.SetOutputMirror(w)
	summary.SetTitle("Scrape Summary")
	summary.AppendRows([]table.Row{
		{"Pages processed", report.PagesTotal},
		{"Pages failed", report.PagesFailed},
		{"Listings extracted", report.RecordsExtracted},
		{"Unique listings", report.UniqueLinks},
		{"Newly stored", report.NewlyStored},
	})
	summary.SetStyle(table.StyleRounded)
	summary.Render()

	if len(report.ListingsByArea) == 0 {
		return
	}

	areas := table.NewWriter()
	areas.SetOutputMirror(w)
	areas.AppendHeader(table.Row{"Area", "Listings"})
	for _, area := range sortedAreas(report.ListingsByArea) {
		areas.AppendRow(table.Row{area, report.ListingsByArea[area]})
	}
	areas.SetStyle(table.StyleRounded)
	areas.Render()
}

// PrintListings writes stored listings as a table, newest first as given.
func PrintListings(w io.Writer, listings []models.PersistedListing) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"#", "Title", "Price", "Address", "Link"})
	for _, l := range listings {
		t.AppendRow(table.Row{l.ID, truncateText(l.Title, 40), l.Price, truncateText(l.Address, 40), l.Link})
	}
	t.AppendFooter(table.Row{"", "Total", len(listings)})
	t.SetStyle(table.StyleRounded)
	t.Render()
}

// areaOf picks the district segment ("р-н ...") of an address, falling back
// to its first segment.
func areaOf(address string) string {
	address = strings.TrimSpace(address)
	if address == "" {
		return "Unknown"
	}
	parts := strings.Split(address, ", ")
	for _, p := range parts {
		if strings.HasPrefix(p, "р-н ") || strings.HasPrefix(p, "мкр. ") {
			return p
		}
	}
	return parts[0]
}

func sortedAreas(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if m[keys[i]] == m[keys[j]] {
			return keys[i] < keys[j]
		}
		return m[keys[i]] > m[keys[j]]
	})
	return keys
}

func truncateText(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
