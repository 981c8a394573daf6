package models

import "time"

// PricePoint is one immutable historical price record for a product.
// A point is only created when the price differs from the most recent
// record for the same product.
type PricePoint struct {
	ID        int64
	ProductID int64

	Price    float64
	Currency string

	IsSale      bool
	IsAvailable bool

	// Change versus the previous point. Zero for the first point of a
	// product and when the previous price was zero.
	ChangeAmount     float64
	ChangePercentage float64

	// SessionID references the scrape session that produced this point,
	// zero when recorded outside a session.
	SessionID int64
	SourceURL string

	CreatedAt time.Time
}
