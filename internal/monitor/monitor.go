// Package monitor runs the periodic price-check loop: pick due
// products, scrape them, record history, and evaluate alerts.
package monitor

import (
	"context"
	"encoding/json"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"pricepick/config"
	"pricepick/internal/models"
	"pricepick/internal/scraper"
	"pricepick/internal/store"
	"pricepick/logger"
	apperr "pricepick/pkg/errors"
	"pricepick/services/publisher"
)

// Monitor statuses
const (
	StatusStopped = "stopped"
	StatusRunning = "running"
)

// errorBackoff is how long the loop pauses after a failed tick before
// resuming the regular interval.
const errorBackoff = 60 * time.Second

type productScraper interface {
	Scrape(ctx context.Context, product *models.Product, force bool) *scraper.Result
	ScrapeBatch(ctx context.Context, products []*models.Product, force bool) []*scraper.Result
}

type priceRecorder interface {
	Record(product *models.Product, result *scraper.Result) (*models.PricePoint, error)
}

type alertChecker interface {
	CheckProduct(productID int64, force bool) (int, error)
}

// TickSummary reports what one pass over the due products did.
type TickSummary struct {
	Products        int
	Succeeded       int
	Failed          int
	Recorded        int
	AlertsTriggered int
}

// Monitor drives the periodic scrape loop.
type Monitor struct {
	store     store.Store
	scraper   productScraper
	recorder  priceRecorder
	alerts    alertChecker
	publisher publisher.Publisher

	interval      time.Duration
	batchLimit    int
	threshold     float64
	retentionDays int

	running atomic.Bool
	stop    chan struct{}
	wg      sync.WaitGroup

	mu          sync.Mutex
	lastCleanup time.Time

	log *logger.Logger
}

// New creates a monitor. The publisher may be nil when no event stream
// is configured.
func New(st store.Store, sc productScraper, rec priceRecorder, al alertChecker,
	pub publisher.Publisher, cfg config.Config) *Monitor {
	return &Monitor{
		store:         st,
		scraper:       sc,
		recorder:      rec,
		alerts:        al,
		publisher:     pub,
		interval:      cfg.MonitorInterval,
		batchLimit:    cfg.MonitorBatchLimit,
		threshold:     cfg.PriceChangeThreshold,
		retentionDays: cfg.RetentionDays,
		log:           logger.ForMonitor(),
	}
}

// Status returns the current loop status.
func (m *Monitor) Status() string {
	if m.running.Load() {
		return StatusRunning
	}
	return StatusStopped
}

// Start launches the monitoring loop in a background goroutine. It
// fails when the loop is already running.
func (m *Monitor) Start(ctx context.Context) error {
	if !m.running.CompareAndSwap(false, true) {
		return apperr.NewValidation("monitor", "monitor is already running")
	}
	m.stop = make(chan struct{})
	m.wg.Add(1)

	go m.loop(ctx)

	m.log.Info().
		Dur("interval", m.interval).
		Int("batch_limit", m.batchLimit).
		Msg("Monitor started")
	return nil
}

// Stop signals the loop to exit and waits for the in-flight tick to
// finish. Safe to call when the monitor is not running.
func (m *Monitor) Stop() {
	if !m.running.CompareAndSwap(true, false) {
		return
	}
	close(m.stop)
	m.wg.Wait()
	m.log.Info().Msg("Monitor stopped")
}

func (m *Monitor) loop(ctx context.Context) {
	defer m.wg.Done()

	delay := time.Duration(0)
	for {
		select {
		case <-m.stop:
			return
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}

		summary, err := m.RunOnce(ctx)
		if err != nil {
			logger.LogError("monitor", err, "Monitoring tick failed, backing off")
			delay = errorBackoff
			continue
		}

		m.log.Info().
			Int("products", summary.Products).
			Int("succeeded", summary.Succeeded).
			Int("failed", summary.Failed).
			Int("recorded", summary.Recorded).
			Int("alerts_triggered", summary.AlertsTriggered).
			Msg("Monitoring tick complete")
		delay = m.interval
	}
}

// RunOnce performs a single monitoring pass: scrape every due product,
// record outcomes, and evaluate alerts for products whose price moved
// significantly. Individual product failures are counted, not fatal.
func (m *Monitor) RunOnce(ctx context.Context) (*TickSummary, error) {
	cutoff := time.Now().UTC().Add(-m.interval)
	products, err := m.store.ListDueProducts(cutoff, m.batchLimit)
	if err != nil {
		return nil, err
	}

	summary := &TickSummary{Products: len(products)}
	if len(products) > 0 {
		results := m.scraper.ScrapeBatch(ctx, products, false)
		for i, result := range results {
			if result == nil {
				continue
			}
			if !result.Success {
				summary.Failed++
				continue
			}
			summary.Succeeded++

			point, err := m.recorder.Record(products[i], result)
			if err != nil {
				logger.LogError("monitor", err, "Failed to record price for product %d", result.ProductID)
				continue
			}
			if point == nil {
				continue
			}
			summary.Recorded++
			m.publishChange(products[i], point)

			if m.isSignificant(point) {
				triggered, err := m.alerts.CheckProduct(result.ProductID, true)
				if err != nil {
					logger.LogError("monitor", err, "Failed to check alerts for product %d", result.ProductID)
					continue
				}
				summary.AlertsTriggered += triggered
			}
		}
	}

	m.maybeCleanup()
	return summary, nil
}

// MonitorProduct scrapes a single product on demand, bypassing the
// rate-limit backoff and the alert recheck window.
func (m *Monitor) MonitorProduct(ctx context.Context, productID int64) (*scraper.Result, error) {
	product, err := m.store.GetProduct(productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, apperr.NewValidation("monitor", "product not found")
	}

	result := m.scraper.Scrape(ctx, product, true)
	if !result.Success {
		return result, result.Err
	}

	point, err := m.recorder.Record(product, result)
	if err != nil {
		return result, err
	}
	if point != nil {
		m.publishChange(product, point)
	}

	if _, err := m.alerts.CheckProduct(productID, true); err != nil {
		logger.LogError("monitor", err, "Failed to check alerts for product %d", productID)
	}
	return result, nil
}

// Stats reports tracking counters from the store.
func (m *Monitor) Stats() (*store.MonitoringStats, error) {
	return m.store.GetMonitoringStats()
}

// isSignificant reports whether the change crosses the configured
// threshold relative to the previous price. First observations and
// drops from a zero price always count.
func (m *Monitor) isSignificant(point *models.PricePoint) bool {
	// Unchanged prices never produce a point, so a zero change means
	// this is the product's first observation
	if point.ChangeAmount == 0 {
		return true
	}
	previous := point.Price - point.ChangeAmount
	if previous <= 0 {
		return true
	}
	return math.Abs(point.ChangeAmount)/previous >= m.threshold
}

type priceChangeEvent struct {
	ProductID        int64   `json:"product_id"`
	ProductName      string  `json:"product_name"`
	Price            float64 `json:"price"`
	Currency         string  `json:"currency"`
	ChangeAmount     float64 `json:"change_amount"`
	ChangePercentage float64 `json:"change_percentage"`
	IsSale           bool    `json:"is_sale"`
	RecordedAt       string  `json:"recorded_at"`
}

func (m *Monitor) publishChange(product *models.Product, point *models.PricePoint) {
	if m.publisher == nil || point.ChangeAmount == 0 {
		return
	}
	event := priceChangeEvent{
		ProductID:        product.ID,
		ProductName:      product.Name,
		Price:            point.Price,
		Currency:         point.Currency,
		ChangeAmount:     point.ChangeAmount,
		ChangePercentage: point.ChangePercentage,
		IsSale:           point.IsSale,
		RecordedAt:       point.CreatedAt.UTC().Format(time.RFC3339),
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := m.publisher.Publish(publisher.KindPriceChange, data); err != nil {
		logger.LogError("monitor", err, "Failed to publish price change event")
	}
}

// maybeCleanup purges history past the retention window at most once a
// day and trims the event streams alongside.
func (m *Monitor) maybeCleanup() {
	m.mu.Lock()
	if time.Since(m.lastCleanup) < 24*time.Hour {
		m.mu.Unlock()
		return
	}
	m.lastCleanup = time.Now()
	m.mu.Unlock()

	cutoff := time.Now().UTC().AddDate(0, 0, -m.retentionDays)

	prices, err := m.store.PurgePricesBefore(cutoff)
	if err != nil {
		logger.LogError("monitor", err, "Failed to purge old price points")
	}
	sessions, err := m.store.PurgeSessionsBefore(cutoff)
	if err != nil {
		logger.LogError("monitor", err, "Failed to purge old scrape sessions")
	}
	if m.publisher != nil {
		if err := m.publisher.TrimStreams(); err != nil {
			logger.LogError("monitor", err, "Failed to trim event streams")
		}
	}

	m.log.Info().
		Int64("prices_purged", prices).
		Int64("sessions_purged", sessions).
		Time("cutoff", cutoff).
		Msg("Retention cleanup complete")
}
