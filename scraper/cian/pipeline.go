package cian

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"flat-scraper/config"
	"flat-scraper/models"
	"flat-scraper/scraper/render"
	"flat-scraper/storage"
	"flat-scraper/utils"
)

var (
	// ErrInvalidURL rejects input before any page is rendered.
	ErrInvalidURL = errors.New("invalid url")
	// ErrRenderTimeout means the page never showed its listing cards in time.
	ErrRenderTimeout = errors.New("page load timeout")
	ErrParseFailed   = errors.New("parse failed")
)

// Pipeline renders search pages, extracts listing cards and hands them to the
// sink. Pages are processed strictly one after another.
type Pipeline struct {
	cfg         config.ScraperConfig
	newRenderer render.Factory
	sink        *storage.Sink
	pacer       *utils.Pacer
}

// NewPipeline builds a pipeline. sink may be nil, in which case records are
// only collected and never stored.
func NewPipeline(cfg config.ScraperConfig, newRenderer render.Factory, sink *storage.Sink) *Pipeline {
	return &Pipeline{
		cfg:         cfg,
		newRenderer: newRenderer,
		sink:        sink,
		pacer:       utils.NewPacer(cfg.PageDelay),
	}
}

// PageJobs expands a base URL template into one job per page.
func PageJobs(baseURL string, pages int) []models.PageJob {
	jobs := make([]models.PageJob, 0, pages)
	for page := 1; page <= pages; page++ {
		jobs = append(jobs, models.PageJob{
			URL:        strings.ReplaceAll(baseURL, "{page}", fmt.Sprint(page)),
			PageNumber: page,
		})
	}
	return jobs
}

// RunBulk scrapes pages 1..pages of baseURL with a single renderer session.
// A failing page is logged and skipped; the run always returns whatever the
// other pages produced.
func (p *Pipeline) RunBulk(ctx context.Context, baseURL string, pages int) models.BulkResult {
	var result models.BulkResult

	renderer, err := p.newRenderer(ctx)
	if err != nil {
		utils.Error("Could not start renderer: %v", err)
		return result
	}
	defer renderer.Close()

	for _, job := range PageJobs(baseURL, pages) {
		if err := p.pacer.Wait(ctx); err != nil {
			utils.Warn("Run stopped before page %d: %v", job.PageNumber, err)
			break
		}

		utils.Info("Open page %d: %s", job.PageNumber, job.URL)
		page := p.scrapePage(ctx, renderer, job)
		p.pacer.Done()
		result.Pages = append(result.Pages, page)

		if page.Err != nil {
			utils.Error("Page %d failed: %v", job.PageNumber, page.Err)
			continue
		}

		result.Rows = append(result.Rows, page.Records...)
		result.Stored += page.Stored
		utils.Success("Page %d: %d listings, %d new", job.PageNumber, len(page.Records), page.Stored)
	}

	utils.Success("Total listings scraped: %d | new: %d", len(result.Rows), result.Stored)
	return result
}

func (p *Pipeline) scrapePage(ctx context.Context, renderer render.Renderer, job models.PageJob) models.PageResult {
	page := models.PageResult{PageNumber: job.PageNumber, URL: job.URL}

	records, err := p.renderAndExtract(ctx, renderer, job.URL)
	if err != nil {
		page.Err = err
		return page
	}

	page.Records = records
	if p.sink != nil {
		page.Stored = p.sink.IngestBatch(ctx, records)
	}
	return page
}

// ParseURL ingests the listings on one search page and reports how many were
// new. The URL must belong to an allowed domain; it is checked before any
// browser is started. Each call uses its own renderer session.
func (p *Pipeline) ParseURL(ctx context.Context, rawURL string) (models.ParseResult, error) {
	if err := ValidateURL(rawURL, p.cfg.AllowedDomains); err != nil {
		return models.ParseResult{}, err
	}

	renderer, err := p.newRenderer(ctx)
	if err != nil {
		return models.ParseResult{}, fmt.Errorf("%w: %v", ErrParseFailed, err)
	}
	defer renderer.Close()

	utils.Info("Parsing page: %s", rawURL)
	records, err := p.renderAndExtract(ctx, renderer, rawURL)
	if err != nil {
		if errors.Is(err, render.ErrTimeout) {
			return models.ParseResult{}, fmt.Errorf("%w: %w", ErrRenderTimeout, err)
		}
		return models.ParseResult{}, fmt.Errorf("%w: %w", ErrParseFailed, err)
	}

	stored := 0
	if p.sink != nil {
		stored = p.sink.IngestBatch(ctx, records)
	}
	utils.Success("Parsed %d listings, %d new", len(records), stored)

	return models.ParseResult{
		Status:      "success",
		ParsedFlats: stored,
		URL:         rawURL,
	}, nil
}

func (p *Pipeline) renderAndExtract(ctx context.Context, renderer render.Renderer, pageURL string) ([]models.ListingRecord, error) {
	html, err := renderer.Render(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return Extract(html, pageURL)
}

// ValidateURL accepts absolute http(s) URLs whose host is one of allowed or a
// subdomain of one.
func ValidateURL(rawURL string, allowed []string) error {
	if strings.TrimSpace(rawURL) == "" {
		return fmt.Errorf("%w: url is empty", ErrInvalidURL)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}

	host := strings.ToLower(u.Hostname())
	for _, domain := range allowed {
		domain = strings.ToLower(strings.TrimSpace(domain))
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return nil
		}
	}
	return fmt.Errorf("%w: only %s pages are supported", ErrInvalidURL, strings.Join(allowed, ", "))
}
