// Package recorder turns scrape results into price history and keeps
// the product's denormalized fields current.
package recorder

import (
	"pricepick/internal/models"
	"pricepick/internal/scraper"
	"pricepick/internal/store"
	"pricepick/logger"
)

// Recorder applies scrape results to the store.
type Recorder struct {
	store store.Store
	log   *logger.Logger
}

// New creates a recorder over the given store.
func New(st store.Store) *Recorder {
	return &Recorder{
		store: st,
		log:   logger.ForStore(),
	}
}

// Record persists the outcome of a scrape. A new price point is only
// created when the scraped price differs from the latest recorded one;
// metadata (title, image, rating, review count) is backfilled either
// way. Returns the created point, nil when nothing was recorded.
func (r *Recorder) Record(product *models.Product, result *scraper.Result) (*models.PricePoint, error) {
	if result.Price == nil {
		if result.Err != nil {
			return nil, nil
		}
		// Price-less successful scrape: availability and metadata still
		// fold into the product, only the history is untouched
		product.IsAvailable = result.Available
		r.applyMetadata(product, result)
		if err := r.store.UpdateProduct(product); err != nil {
			return nil, err
		}
		return nil, nil
	}

	price := *result.Price

	latest, err := r.store.LatestPrice(product.ID)
	if err != nil {
		return nil, err
	}

	var point *models.PricePoint
	if latest == nil || latest.Price != price {
		point = &models.PricePoint{
			ProductID:   product.ID,
			Price:       price,
			Currency:    product.Currency,
			IsAvailable: result.Available,
			SessionID:   result.SessionID,
			SourceURL:   product.URL,
		}
		if latest != nil {
			point.ChangeAmount = price - latest.Price
			if latest.Price != 0 {
				point.ChangePercentage = (price - latest.Price) / latest.Price * 100
			}
		}
		if product.OriginalPrice != nil {
			point.IsSale = price < *product.OriginalPrice
		}

		if err := r.store.CreatePricePoint(point); err != nil {
			return nil, err
		}
		r.log.Info().
			Int64("product_id", product.ID).
			Float64("price", price).
			Float64("change", point.ChangeAmount).
			Msg("Recorded price point")
	}

	r.applyResult(product, result, price)
	if err := r.store.UpdateProduct(product); err != nil {
		return point, err
	}
	return point, nil
}

// applyResult folds the scrape result into the product's denormalized
// fields. The original price is captured from the first observation and
// never changed afterwards.
func (r *Recorder) applyResult(product *models.Product, result *scraper.Result, price float64) {
	product.CurrentPrice = &price
	if product.OriginalPrice == nil {
		original := price
		product.OriginalPrice = &original
	}
	product.IsAvailable = result.Available
	r.applyMetadata(product, result)
}

// applyMetadata backfills descriptive fields that are unset or stale.
func (r *Recorder) applyMetadata(product *models.Product, result *scraper.Result) {
	if result.Title != "" && product.Name == "" {
		product.Name = result.Title
	}
	if result.ImageURL != "" && product.ImageURL == "" {
		product.ImageURL = result.ImageURL
	}
	if result.Rating != nil {
		product.Rating = result.Rating
	}
	if result.ReviewCount != nil {
		product.ReviewCount = *result.ReviewCount
	}
}
