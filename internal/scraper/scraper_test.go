package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricepick/config"
	"pricepick/internal/models"
	"pricepick/internal/store"
	"pricepick/services/cache"
)

const productPage = `
<html><body>
	<h1 id="productTitle">Test Widget Deluxe</h1>
	<span class="a-price"><span class="a-offscreen">$129.99</span></span>
	<div id="availability"><span>In Stock.</span></div>
	<span class="a-icon-alt">4.3 out of 5 stars</span>
	<span id="acrCustomerReviewText">1,024 ratings</span>
	<img id="landingImage" src="https://img.example.com/widget.jpg"/>
</body></html>`

func newTestScraper(t *testing.T, limiter *cache.RateLimiter) (*Scraper, *store.SQLite) {
	t.Helper()
	st, err := store.NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	cfg := config.Config{
		ScrapeTimeout:     5 * time.Second,
		ScrapeConcurrency: 3,
		RateLimitBlock:    time.Minute,
		UserAgent:         "PricePick/1.0 (Price Tracking Bot)",
	}
	return New(st, limiter, cfg), st
}

func addProduct(t *testing.T, st *store.SQLite, url string) *models.Product {
	t.Helper()
	p := &models.Product{
		Name:        "Test Widget",
		Platform:    "amazon",
		URL:         url,
		Currency:    "USD",
		IsAvailable: true,
		IsTracking:  true,
		IsActive:    true,
	}
	require.NoError(t, st.CreateProduct(p))
	return p
}

func TestScrapeSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(productPage))
	}))
	defer server.Close()

	s, st := newTestScraper(t, cache.NewRateLimiter(nil, time.Minute))
	p := addProduct(t, st, server.URL)

	result := s.Scrape(context.Background(), p, false)
	require.NoError(t, result.Err)
	assert.True(t, result.Success)
	require.NotNil(t, result.Price)
	assert.InDelta(t, 129.99, *result.Price, 0.001)
	assert.Equal(t, "Test Widget Deluxe", result.Title)
	assert.True(t, result.Available)
	assert.Equal(t, "https://img.example.com/widget.jpg", result.ImageURL)
	require.NotNil(t, result.Rating)
	assert.InDelta(t, 4.3, *result.Rating, 0.001)
	require.NotNil(t, result.ReviewCount)
	assert.Equal(t, 1024, *result.ReviewCount)
	assert.Equal(t, http.StatusOK, result.HTTPStatus)

	sess, err := st.GetSession(result.SessionID)
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, models.SessionCompleted, sess.Status)
	assert.True(t, sess.Success)
	assert.True(t, sess.PriceFound)
	assert.Equal(t, "129.99", sess.ScrapedPrice)

	// The product's check time advances even when nothing changed
	reloaded, err := st.GetProduct(p.ID)
	require.NoError(t, err)
	assert.NotNil(t, reloaded.LastCheckedAt)
}

func TestScrapeCustomSelectorWins(t *testing.T) {
	page := `<html><body>
		<div class="my-price">$42.00</div>
		<span class="a-price"><span class="a-offscreen">$99.00</span></span>
	</body></html>`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	}))
	defer server.Close()

	s, st := newTestScraper(t, cache.NewRateLimiter(nil, time.Minute))
	p := addProduct(t, st, server.URL)
	p.PriceSelector = ".my-price"
	require.NoError(t, st.UpdateProduct(p))

	result := s.Scrape(context.Background(), p, false)
	require.NotNil(t, result.Price)
	assert.InDelta(t, 42.0, *result.Price, 0.001)
}

func TestScrapeCustomSelectorHasNoFallback(t *testing.T) {
	// The platform default would find the price, but a configured custom
	// selector that misses must not fall back to it
	page := `<html><body>
		<span class="a-price"><span class="a-offscreen">$99.00</span></span>
	</body></html>`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	}))
	defer server.Close()

	s, st := newTestScraper(t, cache.NewRateLimiter(nil, time.Minute))
	p := addProduct(t, st, server.URL)
	p.PriceSelector = ".selector-that-matches-nothing"
	require.NoError(t, st.UpdateProduct(p))

	result := s.Scrape(context.Background(), p, false)
	assert.True(t, result.Success)
	assert.Nil(t, result.Price)
}

func TestScrapeWithoutPriceStillSucceeds(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><h1 id="productTitle">Widget</h1></body></html>`))
	}))
	defer server.Close()

	s, st := newTestScraper(t, cache.NewRateLimiter(nil, time.Minute))
	p := addProduct(t, st, server.URL)

	// Partial extraction: the page loaded but carries no price
	result := s.Scrape(context.Background(), p, false)
	assert.True(t, result.Success)
	assert.NoError(t, result.Err)
	assert.Nil(t, result.Price)
	assert.Equal(t, "Widget", result.Title)

	sess, err := st.GetSession(result.SessionID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionCompleted, sess.Status)
	assert.True(t, sess.Success)
	assert.True(t, sess.TitleFound)
	assert.False(t, sess.PriceFound)
	assert.Empty(t, sess.ErrorType)
}

func TestScrapeHTTPErrorRecordsIssue(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	s, st := newTestScraper(t, cache.NewRateLimiter(nil, time.Minute))
	p := addProduct(t, st, server.URL)

	result := s.Scrape(context.Background(), p, false)
	assert.False(t, result.Success)
	assert.Equal(t, http.StatusNotFound, result.HTTPStatus)

	sess, err := st.GetSession(result.SessionID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionFailed, sess.Status)
	assert.Equal(t, "network", sess.ErrorType)
	assert.Equal(t, http.StatusNotFound, sess.HTTPStatus)
}

func TestScrapeRateLimitBlocksHost(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	limiter := cache.NewRateLimiter(newFakeCache(), time.Minute)
	s, st := newTestScraper(t, limiter)
	p := addProduct(t, st, server.URL)

	// First scrape hits the server and marks the host
	result := s.Scrape(context.Background(), p, false)
	assert.False(t, result.Success)
	assert.Equal(t, 1, hits)

	// Second scrape is skipped entirely
	result = s.Scrape(context.Background(), p, false)
	assert.False(t, result.Success)
	assert.Equal(t, 1, hits)

	sess, err := st.GetSession(result.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "rate_limit", sess.ErrorType)

	// Force bypasses the block
	result = s.Scrape(context.Background(), p, true)
	assert.Equal(t, 2, hits)
}

func TestScrapeBatch(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(productPage))
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	s, st := newTestScraper(t, cache.NewRateLimiter(nil, time.Minute))
	products := []*models.Product{
		addProduct(t, st, good.URL+"/a"),
		addProduct(t, st, bad.URL+"/b"),
		addProduct(t, st, good.URL+"/c"),
	}

	results := s.ScrapeBatch(context.Background(), products, false)
	require.Len(t, results, 3)
	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.True(t, results[2].Success)
	assert.Equal(t, products[0].ID, results[0].ProductID)
	assert.Equal(t, products[1].ID, results[1].ProductID)
}

func TestDetectPlatform(t *testing.T) {
	assert.Equal(t, "amazon", DetectPlatform("https://www.amazon.com/dp/B000TEST"))
	assert.Equal(t, "ebay", DetectPlatform("https://www.ebay.com/itm/12345"))
	assert.Equal(t, "walmart", DetectPlatform("https://www.walmart.com/ip/widget/42"))
	assert.Equal(t, "generic", DetectPlatform("https://shop.example.com/widget"))
}

func TestPlatformFor(t *testing.T) {
	assert.Equal(t, "amazon", PlatformFor("Amazon").Name)
	assert.Equal(t, "generic", PlatformFor("unknown-shop").Name)
	assert.NotEmpty(t, PlatformFor("generic").PriceSelectors)
}

type fakeCache struct {
	data map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string][]byte)}
}

func (f *fakeCache) Get(key string) ([]byte, error) {
	v, ok := f.data[key]
	if !ok {
		return nil, assert.AnError
	}
	return v, nil
}

func (f *fakeCache) Set(key string, value []byte, _ time.Duration) error {
	f.data[key] = value
	return nil
}

func (f *fakeCache) Delete(key string) error {
	delete(f.data, key)
	return nil
}
