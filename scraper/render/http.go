package render

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"flat-scraper/config"
	"flat-scraper/utils"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

// HTTPRenderer fetches pages without executing scripts. It suits server-rendered
// listing pages and is much cheaper than a browser. A page that does not carry
// the marker element is reported as ErrTimeout, the same as a browser that
// waited for it in vain.
type HTTPRenderer struct {
	cfg    config.ScraperConfig
	client *resty.Client
}

func NewHTTPRenderer(cfg config.ScraperConfig) *HTTPRenderer {
	client := resty.New().
		SetTimeout(cfg.RequestTimeout).
		SetHeader("User-Agent", utils.RandomUserAgent()).
		SetHeader("Accept-Language", "ru-RU,ru;q=0.9,en;q=0.8")

	return &HTTPRenderer{cfg: cfg, client: client}
}

func (r *HTTPRenderer) Render(ctx context.Context, url string) (string, error) {
	res, err := r.client.R().SetContext(ctx).Get(url)
	if err != nil {
		if ctx.Err() == nil && isTimeout(err) {
			return "", fmt.Errorf("%w after %v: %s", ErrTimeout, r.cfg.RequestTimeout, url)
		}
		return "", fmt.Errorf("request failed: %w", err)
	}
	if res.IsError() {
		return "", fmt.Errorf("status code error: %d", res.StatusCode())
	}

	html := res.String()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("could not parse page: %w", err)
	}
	if doc.Find(r.cfg.MarkerSelector).Length() == 0 {
		return "", fmt.Errorf("%w: %s not found on %s", ErrTimeout, r.cfg.MarkerSelector, url)
	}

	return html, nil
}

func (r *HTTPRenderer) Close() error {
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
