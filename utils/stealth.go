package utils

import (
	"math/rand"

	"github.com/chromedp/chromedp"
)

// desktop Chrome builds; cian serves the full search layout only to desktop agents
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
}

// RandomUserAgent picks the agent for one renderer session.
func RandomUserAgent() string {
	return userAgents[rand.Intn(len(userAgents))]
}

// searchPageFlags shape the browser for cian search pages: Russian locale so
// prices and addresses come back in the expected format, images off since
// only the card markup is read.
var searchPageFlags = map[string]interface{}{
	"lang":                          "ru-RU",
	"blink-settings":                "imagesEnabled=false",
	"disable-blink-features":        "AutomationControlled",
	"excludeSwitches":               "enable-automation",
	"disable-extensions":            true,
	"disable-background-networking": true,
}

// containerFlags let Chrome start as root with a small /dev/shm, which is how
// the scraper runs next to its database in docker.
var containerFlags = map[string]interface{}{
	"no-sandbox":            true,
	"disable-dev-shm-usage": true,
	"disable-gpu":           true,
}

// StealthOpts builds the allocator options for a renderer session.
func StealthOpts(headless bool, userAgent string) []chromedp.ExecAllocatorOption {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.WindowSize(1366, 900),
		chromedp.UserAgent(userAgent),
	}
	for name, value := range searchPageFlags {
		opts = append(opts, chromedp.Flag(name, value))
	}
	for name, value := range containerFlags {
		opts = append(opts, chromedp.Flag(name, value))
	}
	if headless {
		opts = append(opts, chromedp.Flag("headless", "new"))
	}
	return opts
}

// HideWebDriver runs before the marker wait. cian's anti-bot script checks
// navigator.webdriver and an empty plugin list.
func HideWebDriver() chromedp.Action {
	return chromedp.Evaluate(`
		Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
		Object.defineProperty(navigator, 'languages', { get: () => ['ru-RU', 'ru'] });
		Object.defineProperty(navigator, 'plugins', { get: () => [1, 2, 3] });
	`, nil)
}
