package render

import (
	"context"
	"errors"
	"fmt"

	"flat-scraper/config"
	"flat-scraper/utils"

	"github.com/chromedp/chromedp"
)

// ChromeRenderer drives one headless Chrome process. Every Render opens a new
// tab in it and closes the tab afterwards.
type ChromeRenderer struct {
	cfg           config.ScraperConfig
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

func NewChromeRenderer(ctx context.Context, cfg config.ScraperConfig) (*ChromeRenderer, error) {
	utils.Info("Launching Chrome browser...")

	allocCtx, allocCancel := chromedp.NewExecAllocator(
		context.WithoutCancel(ctx),
		utils.StealthOpts(cfg.Headless, utils.RandomUserAgent())...,
	)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// starts the browser process
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("could not start browser: %w", err)
	}

	utils.Success("Browser ready")
	return &ChromeRenderer{
		cfg:           cfg,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
	}, nil
}

func (r *ChromeRenderer) Render(ctx context.Context, url string) (string, error) {
	tabCtx, tabCancel := chromedp.NewContext(r.browserCtx)
	defer tabCancel()

	timeoutCtx, cancel := context.WithTimeout(tabCtx, r.cfg.RequestTimeout)
	defer cancel()

	// propagate cancellation of the caller's context into the tab
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var html string
	err := chromedp.Run(timeoutCtx,
		chromedp.Navigate(url),
		utils.HideWebDriver(),
		chromedp.WaitReady(r.cfg.MarkerSelector, chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w after %v: %s", ErrTimeout, r.cfg.RequestTimeout, url)
		}
		return "", fmt.Errorf("chromedp failed: %w", err)
	}

	return html, nil
}

func (r *ChromeRenderer) Close() error {
	utils.Info("Closing browser...")
	r.browserCancel()
	r.allocCancel()
	return nil
}
