package render

import (
	"context"
	"errors"
	"fmt"

	"flat-scraper/config"
)

// ErrTimeout means the marker element never appeared before the deadline.
var ErrTimeout = errors.New("timed out waiting for page marker")

// Renderer returns the fully rendered HTML of a page once its marker element
// is present. A Renderer is one browser session; callers must Close it.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
	Close() error
}

// Factory opens a fresh renderer session.
type Factory func(ctx context.Context) (Renderer, error)

// NewFactory picks the renderer implementation named in the config.
func NewFactory(cfg *config.Config) (Factory, error) {
	switch cfg.Scraper.Renderer {
	case config.RendererChrome:
		return func(ctx context.Context) (Renderer, error) {
			r, err := NewChromeRenderer(ctx, cfg.Scraper)
			if err != nil {
				return nil, err
			}
			return r, nil
		}, nil
	case config.RendererHTTP:
		return func(ctx context.Context) (Renderer, error) {
			return NewHTTPRenderer(cfg.Scraper), nil
		}, nil
	default:
		return nil, fmt.Errorf("unknown renderer %q", cfg.Scraper.Renderer)
	}
}
