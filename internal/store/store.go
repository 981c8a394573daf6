// Package store persists products, price history, alerts, scrape
// sessions and users.
package store

import (
	"time"

	"pricepick/internal/models"
)

// AlertStats summarizes the alert table for the stats endpoint.
type AlertStats struct {
	Total     int
	Active    int
	Triggered int
}

// MonitoringStats summarizes tracking state across the store.
type MonitoringStats struct {
	TotalProducts    int
	TrackedProducts  int
	SessionsToday    int
	FailedToday      int
	PricePointsToday int
}

// Store is the persistence boundary. Implementations must be safe for
// concurrent use.
type Store interface {
	// Products
	CreateProduct(p *models.Product) error
	GetProduct(id int64) (*models.Product, error)
	GetProductByURL(url string) (*models.Product, error)
	ListProducts(activeOnly bool) ([]*models.Product, error)
	ListDueProducts(cutoff time.Time, limit int) ([]*models.Product, error)
	UpdateProduct(p *models.Product) error
	SetTracking(id int64, tracking bool) error
	TouchProduct(id int64, checkedAt time.Time) error

	// Price history
	CreatePricePoint(pp *models.PricePoint) error
	LatestPrice(productID int64) (*models.PricePoint, error)
	PreviousPrice(productID int64) (*models.PricePoint, error)
	ListPrices(productID int64, since time.Time, limit int) ([]*models.PricePoint, error)
	PurgePricesBefore(cutoff time.Time) (int64, error)

	// Alerts
	CreateAlert(a *models.Alert) error
	GetAlert(id int64) (*models.Alert, error)
	ListAlertsForProduct(productID int64, activeOnly bool) ([]*models.Alert, error)
	ListAlertsForUser(userID int64) ([]*models.Alert, error)
	UpdateAlert(a *models.Alert) error
	SetAlertActive(id int64, active bool) error
	GetAlertStats(userID int64) (*AlertStats, error)

	// Scrape sessions
	CreateSession(s *models.ScrapeSession) error
	UpdateSession(s *models.ScrapeSession) error
	GetSession(id int64) (*models.ScrapeSession, error)
	ListSessionsForProduct(productID int64, limit int) ([]*models.ScrapeSession, error)
	CreateIssue(e *models.ScrapeIssue) error
	PurgeSessionsBefore(cutoff time.Time) (int64, error)

	// Users
	CreateUser(u *models.User) error
	GetUser(id int64) (*models.User, error)

	GetMonitoringStats() (*MonitoringStats, error)

	Close() error
}
