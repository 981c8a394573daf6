package models

import "time"

// Product represents an item being tracked across retailer sites.
// Optional numeric fields are pointers so "never observed" is distinct
// from a literal zero.
type Product struct {
	ID          int64
	Name        string
	Description string
	Brand       string
	Category    string

	// E-commerce platform information
	Platform string
	URL      string

	// Current pricing information (denormalized from the price history)
	CurrentPrice  *float64
	OriginalPrice *float64
	Currency      string

	// Product status
	IsAvailable bool
	IsTracking  bool
	IsActive    bool

	// Additional metadata
	ImageURL    string
	Rating      *float64
	ReviewCount int

	// Scraping configuration: custom selectors override platform defaults
	PriceSelector        string
	TitleSelector        string
	AvailabilitySelector string

	// LastCheckedAt is when the product was last scraped, nil before the
	// first attempt. Drives due-product scheduling.
	LastCheckedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsOnSale reports whether the current price is below the original price.
func (p *Product) IsOnSale() bool {
	if p.CurrentPrice == nil || p.OriginalPrice == nil {
		return false
	}
	return *p.CurrentPrice < *p.OriginalPrice
}
