// Package alerts evaluates user alerts against a product's current
// price and hands triggered ones to the notification dispatcher.
package alerts

import (
	"time"

	"pricepick/config"
	"pricepick/internal/models"
	"pricepick/internal/store"
	"pricepick/logger"
	apperr "pricepick/pkg/errors"
	"pricepick/services/notifier"
)

// Dispatcher sends notifications for triggered alerts.
type Dispatcher interface {
	Dispatch(payload *notifier.Payload) int
}

// Service evaluates and manages alerts.
type Service struct {
	store      store.Store
	dispatcher Dispatcher
	recheck    time.Duration
	log        *logger.Logger

	// now is swappable in tests
	now func() time.Time
}

// New creates the alert service.
func New(st store.Store, d Dispatcher, cfg config.Config) *Service {
	return &Service{
		store:      st,
		dispatcher: d,
		recheck:    cfg.AlertRecheckInterval,
		log:        logger.ForAlerts(),
		now:        time.Now,
	}
}

// CheckProduct evaluates every active alert on the product against its
// current price and returns the number of alerts that triggered. Alerts
// checked within the recheck window are skipped unless force is set.
// A failing alert never blocks the evaluation of the others.
func (s *Service) CheckProduct(productID int64, force bool) (int, error) {
	product, err := s.store.GetProduct(productID)
	if err != nil {
		return 0, err
	}
	if product == nil {
		return 0, apperr.NewValidation("alerts", "product not found")
	}
	if product.CurrentPrice == nil {
		return 0, nil
	}
	price := *product.CurrentPrice

	alerts, err := s.store.ListAlertsForProduct(productID, true)
	if err != nil {
		return 0, err
	}

	now := s.now().UTC()
	triggered := 0
	for _, alert := range alerts {
		if !force && alert.LastChecked != nil && now.Sub(*alert.LastChecked) < s.recheck {
			continue
		}
		alert.LastChecked = &now

		if alert.ShouldTrigger(price) {
			alert.Trigger(now)
			s.notify(alert, product, price, now)
			triggered++
		}

		if err := s.store.UpdateAlert(alert); err != nil {
			logger.LogError("alerts", err, "Failed to update alert %d", alert.ID)
		}
	}

	if triggered > 0 {
		s.log.Info().
			Int64("product_id", productID).
			Float64("price", price).
			Int("triggered", triggered).
			Msg("Alerts triggered")
	}
	return triggered, nil
}

// CheckAll sweeps the active alerts of every active product. The
// per-alert recheck window applies unless force is set; a product that
// fails to evaluate is logged and skipped.
func (s *Service) CheckAll(force bool) (int, error) {
	products, err := s.store.ListProducts(true)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, product := range products {
		triggered, err := s.CheckProduct(product.ID, force)
		if err != nil {
			logger.LogError("alerts", err, "Failed to check alerts for product %d", product.ID)
			continue
		}
		total += triggered
	}
	return total, nil
}

func (s *Service) notify(alert *models.Alert, product *models.Product, price float64, now time.Time) {
	payload := &notifier.Payload{
		Alert:        alert,
		Product:      product,
		CurrentPrice: price,
		TriggeredAt:  now,
	}

	user, err := s.store.GetUser(alert.UserID)
	if err != nil {
		logger.LogError("alerts", err, "Failed to load user %d for alert %d", alert.UserID, alert.ID)
	}
	payload.User = user

	if prev, err := s.store.PreviousPrice(product.ID); err == nil && prev != nil {
		payload.PreviousPrice = &prev.Price
	}

	s.dispatcher.Dispatch(payload)
}

// Create validates and persists a new alert.
func (s *Service) Create(alert *models.Alert) error {
	switch alert.Type {
	case models.AlertPriceDrop, models.AlertPriceIncrease, models.AlertTargetPrice:
	default:
		return apperr.NewValidation("alerts", "unknown alert type: "+alert.Type)
	}
	if alert.TargetPrice <= 0 {
		return apperr.NewValidation("alerts", "target price must be positive")
	}

	product, err := s.store.GetProduct(alert.ProductID)
	if err != nil {
		return err
	}
	if product == nil {
		return apperr.NewValidation("alerts", "product not found")
	}

	user, err := s.store.GetUser(alert.UserID)
	if err != nil {
		return err
	}
	if user == nil {
		return apperr.NewValidation("alerts", "user not found")
	}

	alert.IsActive = true
	return s.store.CreateAlert(alert)
}

// Reset re-arms a triggered alert so it can fire again.
func (s *Service) Reset(alertID int64) error {
	alert, err := s.store.GetAlert(alertID)
	if err != nil {
		return err
	}
	if alert == nil {
		return apperr.NewValidation("alerts", "alert not found")
	}
	alert.Reset()
	return s.store.UpdateAlert(alert)
}

// Deactivate soft-deletes an alert.
func (s *Service) Deactivate(alertID int64) error {
	return s.store.SetAlertActive(alertID, false)
}

// Stats returns the alert counters for a user.
func (s *Service) Stats(userID int64) (*store.AlertStats, error) {
	return s.store.GetAlertStats(userID)
}
