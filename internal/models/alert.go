package models

import "time"

// Alert types
const (
	AlertPriceDrop     = "price_drop"
	AlertPriceIncrease = "price_increase"
	AlertTargetPrice   = "target_price"
)

// Alert is a user-defined condition on a product's price that, when
// satisfied, triggers a notification.
type Alert struct {
	ID        int64
	UserID    int64
	ProductID int64

	// Alert configuration
	Type                string
	TargetPrice         float64
	ThresholdPercentage float64 // 0 = unset
	ThresholdAmount     float64 // 0 = unset

	// Alert status
	IsActive    bool
	IsTriggered bool
	TriggeredAt *time.Time
	LastChecked *time.Time

	// Notification settings
	NotifyEmail bool
	NotifyPush  bool
	NotifySMS   bool

	Notes string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ShouldTrigger reports whether the alert condition is satisfied at the
// given price. An inactive or already-triggered alert never evaluates to
// true; Reset re-arms a triggered alert.
//
// Percentage and amount thresholds are relative to the alert's target
// price.
func (a *Alert) ShouldTrigger(currentPrice float64) bool {
	if !a.IsActive || a.IsTriggered {
		return false
	}

	switch a.Type {
	case AlertPriceDrop:
		if a.ThresholdPercentage > 0 {
			return currentPrice <= a.TargetPrice*(1-a.ThresholdPercentage/100)
		}
		if a.ThresholdAmount > 0 {
			return currentPrice <= a.TargetPrice-a.ThresholdAmount
		}
		return currentPrice <= a.TargetPrice

	case AlertPriceIncrease:
		if a.ThresholdPercentage > 0 {
			return currentPrice >= a.TargetPrice*(1+a.ThresholdPercentage/100)
		}
		if a.ThresholdAmount > 0 {
			return currentPrice >= a.TargetPrice+a.ThresholdAmount
		}
		return currentPrice >= a.TargetPrice

	case AlertTargetPrice:
		return currentPrice <= a.TargetPrice
	}

	return false
}

// Trigger marks the alert as triggered at the given time.
func (a *Alert) Trigger(now time.Time) {
	a.IsTriggered = true
	a.TriggeredAt = &now
}

// Reset re-arms the alert for future triggering.
func (a *Alert) Reset() {
	a.IsTriggered = false
	a.TriggeredAt = nil
}
