package cian

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"flat-scraper/config"
	"flat-scraper/scraper/render"
	"flat-scraper/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRenderer serves canned pages keyed by URL and records its lifecycle.
type fakeRenderer struct {
	mu       sync.Mutex
	pages    map[string]string
	errs     map[string]error
	rendered []string
	opened   int
	closed   int

	// slow makes every Render take this long
	slow   time.Duration
	starts []time.Time
	ends   []time.Time
}

func newFakeRenderer() *fakeRenderer {
	return &fakeRenderer{pages: map[string]string{}, errs: map[string]error{}}
}

func (f *fakeRenderer) factory(ctx context.Context) (render.Renderer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opened++
	return f, nil
}

func (f *fakeRenderer) Render(ctx context.Context, url string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts = append(f.starts, time.Now())
	if f.slow > 0 {
		time.Sleep(f.slow)
	}
	defer func() { f.ends = append(f.ends, time.Now()) }()
	f.rendered = append(f.rendered, url)
	if err, ok := f.errs[url]; ok {
		return "", err
	}
	return f.pages[url], nil
}

func (f *fakeRenderer) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

func cardsPage(ids ...int) string {
	html := "<html><body>"
	for _, id := range ids {
		html += fmt.Sprintf(`<article data-name="CardComponent">
			<a href="https://novosibirsk.cian.ru/rent/flat/%d/"><span data-mark="OfferTitle">Квартира %d</span></a>
			<span data-mark="MainPrice">%d ₽/мес.</span>
			<a data-name="GeoLabel">Новосибирск</a>
		</article>`, id, id, id*1000)
	}
	return html + "</body></html>"
}

func testScraperConfig() config.ScraperConfig {
	cfg := config.DefaultConfig().Scraper
	cfg.PageDelay = 0
	return cfg
}

func newTestSink(t *testing.T) (*storage.Sink, *storage.SQLiteStore) {
	store, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, store.EnsureSchema(context.Background(), false))
	t.Cleanup(func() { store.Close() })
	return storage.NewSink(store), store
}

const base = "https://novosibirsk.cian.ru/cat.php?p={page}"

func pageN(n int) string {
	return fmt.Sprintf("https://novosibirsk.cian.ru/cat.php?p=%d", n)
}

func TestPageJobs(t *testing.T) {
	jobs := PageJobs(base, 3)
	require.Len(t, jobs, 3)
	assert.Equal(t, 1, jobs[0].PageNumber)
	assert.Equal(t, pageN(3), jobs[2].URL)
}

func TestRunBulkSkipsFailedPage(t *testing.T) {
	fake := newFakeRenderer()
	fake.pages[pageN(1)] = cardsPage(1, 2)
	fake.errs[pageN(2)] = errors.New("net::ERR_CONNECTION_RESET")
	fake.pages[pageN(3)] = cardsPage(3, 4, 5)

	sink, _ := newTestSink(t)
	p := NewPipeline(testScraperConfig(), fake.factory, sink)

	result := p.RunBulk(context.Background(), base, 3)

	assert.Len(t, result.Rows, 5, "rows from pages 1 and 3")
	assert.Equal(t, 5, result.Stored)
	require.Len(t, result.Pages, 3)
	assert.Error(t, result.Pages[1].Err)
	assert.NoError(t, result.Pages[2].Err)
	assert.Equal(t, []string{pageN(1), pageN(2), pageN(3)}, fake.rendered)

	assert.Equal(t, 1, fake.opened, "one renderer session per run")
	assert.Equal(t, 1, fake.closed)
}

func TestRunBulkDelaysAfterSlowPages(t *testing.T) {
	fake := newFakeRenderer()
	fake.slow = 150 * time.Millisecond
	for n := 1; n <= 3; n++ {
		fake.pages[pageN(n)] = cardsPage(n)
	}

	cfg := testScraperConfig()
	cfg.PageDelay = 100 * time.Millisecond

	result := NewPipeline(cfg, fake.factory, nil).RunBulk(context.Background(), base, 3)
	require.Len(t, result.Pages, 3)
	require.Len(t, fake.starts, 3)

	for i := 1; i < 3; i++ {
		gap := fake.starts[i].Sub(fake.ends[i-1])
		assert.GreaterOrEqual(t, gap, 95*time.Millisecond, "gap before page %d", i+1)
	}
}

func TestRunBulkKeepsRepeatedRowsButStoresOnce(t *testing.T) {
	fake := newFakeRenderer()
	fake.pages[pageN(1)] = cardsPage(1, 2)
	fake.pages[pageN(2)] = cardsPage(2, 3)

	sink, store := newTestSink(t)
	result := NewPipeline(testScraperConfig(), fake.factory, sink).RunBulk(context.Background(), base, 2)

	assert.Len(t, result.Rows, 4)
	assert.Equal(t, 3, result.Stored)
	assert.Equal(t, 1, result.Pages[1].Stored)

	listings, err := store.ListListings(context.Background())
	require.NoError(t, err)
	assert.Len(t, listings, 3)
}

func TestRunBulkWithoutSink(t *testing.T) {
	fake := newFakeRenderer()
	fake.pages[pageN(1)] = cardsPage(1)

	result := NewPipeline(testScraperConfig(), fake.factory, nil).RunBulk(context.Background(), base, 1)

	assert.Len(t, result.Rows, 1)
	assert.Zero(t, result.Stored)
}

func TestRunBulkRendererUnavailable(t *testing.T) {
	failing := func(context.Context) (render.Renderer, error) {
		return nil, errors.New("chrome not found")
	}

	result := NewPipeline(testScraperConfig(), failing, nil).RunBulk(context.Background(), base, 3)
	assert.Empty(t, result.Rows)
	assert.Empty(t, result.Pages)
}

func TestRunBulkStopsOnCancel(t *testing.T) {
	fake := newFakeRenderer()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := NewPipeline(testScraperConfig(), fake.factory, nil).RunBulk(ctx, base, 3)
	assert.Empty(t, result.Pages)
	assert.Equal(t, 1, fake.closed)
}

func TestParseURLStoresOnlyNew(t *testing.T) {
	const target = "https://novosibirsk.cian.ru/cat.php?deal_type=rent&p=1"
	fake := newFakeRenderer()
	fake.pages[target] = cardsPage(1, 2, 3)

	sink, _ := newTestSink(t)
	p := NewPipeline(testScraperConfig(), fake.factory, sink)

	res, err := p.ParseURL(context.Background(), target)
	require.NoError(t, err)
	assert.Equal(t, "success", res.Status)
	assert.Equal(t, 3, res.ParsedFlats)
	assert.Equal(t, target, res.URL)

	res, err = p.ParseURL(context.Background(), target)
	require.NoError(t, err)
	assert.Equal(t, 0, res.ParsedFlats)

	assert.Equal(t, 2, fake.opened, "each call gets its own session")
	assert.Equal(t, 2, fake.closed)
}

func TestParseURLRejectsForeignDomain(t *testing.T) {
	fake := newFakeRenderer()
	p := NewPipeline(testScraperConfig(), fake.factory, nil)

	_, err := p.ParseURL(context.Background(), "https://not-allowed.example.com/x")
	assert.ErrorIs(t, err, ErrInvalidURL)
	assert.Zero(t, fake.opened, "renderer never started")
	assert.Empty(t, fake.rendered)
}

func TestParseURLTimeout(t *testing.T) {
	const target = "https://cian.ru/cat.php?p=1"
	fake := newFakeRenderer()
	fake.errs[target] = fmt.Errorf("%w after 20s", render.ErrTimeout)

	_, err := NewPipeline(testScraperConfig(), fake.factory, nil).ParseURL(context.Background(), target)
	assert.ErrorIs(t, err, ErrRenderTimeout)
	assert.Equal(t, 1, fake.closed, "session released on failure")
}

func TestParseURLGenericFailure(t *testing.T) {
	const target = "https://cian.ru/cat.php?p=1"
	fake := newFakeRenderer()
	fake.errs[target] = errors.New("net::ERR_NAME_NOT_RESOLVED")

	_, err := NewPipeline(testScraperConfig(), fake.factory, nil).ParseURL(context.Background(), target)
	assert.ErrorIs(t, err, ErrParseFailed)
	assert.NotErrorIs(t, err, ErrRenderTimeout)
	assert.Contains(t, err.Error(), "ERR_NAME_NOT_RESOLVED")
	assert.Equal(t, 1, fake.closed)
}

func TestValidateURL(t *testing.T) {
	allowed := []string{"cian.ru"}
	tests := []struct {
		url   string
		valid bool
	}{
		{"https://cian.ru/cat.php?p=1", true},
		{"https://novosibirsk.cian.ru/cat.php?p=1", true},
		{"http://WWW.CIAN.RU/rent/", true},
		{"https://not-allowed.example.com/x", false},
		{"https://evilcian.ru/x", false},
		{"https://cian.ru.evil.com/x", false},
		{"ftp://cian.ru/x", false},
		{"cian.ru/cat.php", false},
		{"", false},
		{"https://cian.ru/%zz", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			err := ValidateURL(tt.url, allowed)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidURL)
			}
		})
	}
}
