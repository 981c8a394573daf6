// Package scraper fetches product pages and extracts pricing fields,
// recording every attempt as a scrape session.
package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"pricepick/config"
	"pricepick/helpers"
	"pricepick/internal/extract"
	"pricepick/internal/models"
	"pricepick/internal/store"
	"pricepick/logger"
	apperr "pricepick/pkg/errors"
	"pricepick/services/cache"
)

// Result is the outcome of scraping one product page.
type Result struct {
	ProductID int64
	SessionID int64

	Success     bool
	Price       *float64
	Title       string
	Available   bool
	ImageURL    string
	Rating      *float64
	ReviewCount *int

	HTTPStatus int
	Elapsed    time.Duration
	Err        error
}

// Scraper fetches and parses product pages.
type Scraper struct {
	store       store.Store
	limiter     *cache.RateLimiter
	client      *http.Client
	userAgent   string
	concurrency int
	block       time.Duration
	log         *logger.Logger
}

// New creates a scraper over the given store and rate limiter.
func New(st store.Store, limiter *cache.RateLimiter, cfg config.Config) *Scraper {
	return &Scraper{
		store:       st,
		limiter:     limiter,
		client:      helpers.NewClient(cfg.ScrapeTimeout),
		userAgent:   cfg.UserAgent,
		concurrency: cfg.ScrapeConcurrency,
		block:       cfg.RateLimitBlock,
		log:         logger.ForScraper(),
	}
}

// Scrape fetches the product's page and extracts its fields. Every
// attempt is recorded as a session; the returned result always carries
// the session ID. When force is false, hosts inside their rate-limit
// block window are skipped without a request.
func (s *Scraper) Scrape(ctx context.Context, product *models.Product, force bool) *Result {
	now := time.Now().UTC()

	session := &models.ScrapeSession{
		SessionKey: fmt.Sprintf("%d-%d", product.ID, now.UnixNano()),
		ProductID:  product.ID,
		Platform:   product.Platform,
		URL:        product.URL,
		Status:     models.SessionPending,
	}
	if err := s.store.CreateSession(session); err != nil {
		logger.LogError("scraper", err, "Failed to create scrape session")
	}

	result := &Result{ProductID: product.ID, SessionID: session.ID}
	session.Start(now)

	host := hostOf(product.URL)
	if !force && s.limiter.IsLimited(host) {
		err := apperr.NewRateLimit("scraper", s.block)
		s.failSession(session, result, err, 0)
		s.log.Debug().Str("host", host).Int64("product_id", product.ID).
			Msg("Skipping rate limited host")
		return result
	}

	fetched, err := helpers.FetchPage(ctx, s.client, product.URL, s.userAgent)
	if fetched != nil {
		result.HTTPStatus = fetched.StatusCode
		result.Elapsed = fetched.Elapsed
		session.HTTPStatus = fetched.StatusCode
		session.ResponseTimeMs = int(fetched.Elapsed.Milliseconds())
	}
	if err != nil {
		if apperr.Classify(err) == string(apperr.ErrorTypeRateLimit) {
			if lerr := s.limiter.MarkLimited(host); lerr != nil {
				logger.LogError("scraper", lerr, "Failed to mark host rate limited")
			}
		}
		s.failSession(session, result, err, result.HTTPStatus)
		s.touch(product.ID)
		return result
	}

	doc, err := extract.NewDocument(fetched.Body)
	if err != nil {
		s.failSession(session, result,
			apperr.NewParsing("scraper", "failed to parse product page", err),
			result.HTTPStatus)
		s.touch(product.ID)
		return result
	}

	platform := PlatformFor(product.Platform)

	result.Price = doc.Price(selectorsFor(product.PriceSelector, platform.PriceSelectors))
	result.Title = doc.Text(selectorsFor(product.TitleSelector, platform.TitleSelectors))
	result.Available = doc.Availability(selectorsFor(product.AvailabilitySelector, platform.AvailabilitySelectors))
	result.ImageURL = doc.ImageURL(platform.ImageSelectors)
	result.Rating = doc.Rating(platform.RatingSelectors)
	result.ReviewCount = doc.Integer(platform.ReviewCountSelectors)

	session.PriceFound = result.Price != nil
	session.TitleFound = result.Title != ""
	session.AvailabilityFound = true
	if result.Price != nil {
		session.ScrapedPrice = strconv.FormatFloat(*result.Price, 'f', -1, 64)
	}
	session.ScrapedTitle = result.Title
	session.ScrapedAvailability = strconv.FormatBool(result.Available)
	session.ScrapedImageURL = result.ImageURL
	if result.Rating != nil {
		session.ScrapedRating = strconv.FormatFloat(*result.Rating, 'f', -1, 64)
	}
	if result.ReviewCount != nil {
		session.ScrapedReviewCount = strconv.Itoa(*result.ReviewCount)
	}

	// Partial extraction is still a successful scrape. A page without a
	// parseable price completes normally with PriceFound unset.
	result.Success = true
	session.Complete(time.Now().UTC(), true)
	if err := s.store.UpdateSession(session); err != nil {
		logger.LogError("scraper", err, "Failed to update scrape session")
	}
	s.touch(product.ID)

	event := s.log.Debug().
		Int64("product_id", product.ID).
		Int("status", result.HTTPStatus).
		Dur("elapsed", result.Elapsed)
	if result.Price != nil {
		event = event.Float64("price", *result.Price)
	}
	event.Msg("Scraped product")
	return result
}

// ScrapeBatch scrapes products concurrently, bounded by the configured
// concurrency. Results are returned in input order.
func (s *Scraper) ScrapeBatch(ctx context.Context, products []*models.Product, force bool) []*Result {
	results := make([]*Result, len(products))
	semaphore := make(chan struct{}, s.concurrency)
	var wg sync.WaitGroup

	for i, product := range products {
		wg.Add(1)
		go func(i int, product *models.Product) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			defer func() {
				if r := recover(); r != nil {
					s.log.Error().Interface("panic", r).Int64("product_id", product.ID).
						Msg("Recovered from panic during scrape")
					results[i] = &Result{
						ProductID: product.ID,
						Err:       apperr.NewParsing("scraper", fmt.Sprintf("panic: %v", r), nil),
					}
				}
			}()

			results[i] = s.Scrape(ctx, product, force)
		}(i, product)
	}

	wg.Wait()
	return results
}

func (s *Scraper) failSession(session *models.ScrapeSession, result *Result, err error, httpStatus int) {
	result.Err = err
	errType := apperr.Classify(err)
	session.Fail(time.Now().UTC(), err.Error(), errType)
	if uerr := s.store.UpdateSession(session); uerr != nil {
		logger.LogError("scraper", uerr, "Failed to update scrape session")
	}

	issue := &models.ScrapeIssue{
		SessionID:    session.ID,
		ErrorType:    errType,
		ErrorMessage: err.Error(),
		URL:          session.URL,
		HTTPStatus:   httpStatus,
	}
	if ierr := s.store.CreateIssue(issue); ierr != nil {
		logger.LogError("scraper", ierr, "Failed to record scrape issue")
	}
}

func (s *Scraper) touch(productID int64) {
	if err := s.store.TouchProduct(productID, time.Now().UTC()); err != nil {
		logger.LogError("scraper", err, "Failed to update product check time")
	}
}

// selectorsFor returns the platform defaults, or only the custom
// selector when one is configured. A custom selector replaces the
// defaults entirely, with no fallback.
func selectorsFor(custom string, defaults []string) []string {
	if custom == "" {
		return defaults
	}
	return []string{custom}
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Hostname()
}
