package scraper

import (
	"net/url"
	"strings"
)

// Platform bundles the CSS selector lists used to pull product fields
// out of a retailer's pages. Selectors are tried in order.
type Platform struct {
	Name                  string
	PriceSelectors        []string
	TitleSelectors        []string
	AvailabilitySelectors []string
	ImageSelectors        []string
	RatingSelectors       []string
	ReviewCountSelectors  []string
}

var platforms = map[string]Platform{
	"amazon": {
		Name: "amazon",
		PriceSelectors: []string{
			"span.a-price span.a-offscreen",
			"#priceblock_ourprice",
			"#priceblock_dealprice",
			".a-price-whole",
		},
		TitleSelectors: []string{
			"#productTitle",
		},
		AvailabilitySelectors: []string{
			"#availability span",
			"#availability",
		},
		ImageSelectors: []string{
			"#landingImage",
			"#imgTagWrapperId img",
		},
		RatingSelectors: []string{
			"span.a-icon-alt",
			"#acrPopover .a-icon-alt",
		},
		ReviewCountSelectors: []string{
			"#acrCustomerReviewText",
		},
	},
	"ebay": {
		Name: "ebay",
		PriceSelectors: []string{
			".x-price-primary span.ux-textspans",
			"#prcIsum",
			"#mm-saleDscPrc",
		},
		TitleSelectors: []string{
			"h1.x-item-title__mainTitle span",
			"#itemTitle",
		},
		AvailabilitySelectors: []string{
			".d-quantity__availability span",
			"#qtySubTxt",
		},
		ImageSelectors: []string{
			".ux-image-carousel-item img",
			"img#icImg",
		},
		RatingSelectors: []string{
			".x-star-rating span",
		},
		ReviewCountSelectors: []string{
			".reviews--count",
		},
	},
	"walmart": {
		Name: "walmart",
		PriceSelectors: []string{
			`span[itemprop="price"]`,
			`[data-automation-id="product-price"] span`,
		},
		TitleSelectors: []string{
			`h1[itemprop="name"]`,
			"h1.prod-ProductTitle",
		},
		AvailabilitySelectors: []string{
			`[data-automation-id="fulfillment-section"]`,
		},
		ImageSelectors: []string{
			`img[data-testid="hero-image"]`,
			`img[itemprop="image"]`,
		},
		RatingSelectors: []string{
			`span[itemprop="ratingValue"]`,
		},
		ReviewCountSelectors: []string{
			`span[itemprop="reviewCount"]`,
			`a[data-testid="item-review-section-link"]`,
		},
	},
}

// genericPlatform covers sites without a dedicated selector set.
var genericPlatform = Platform{
	Name: "generic",
	PriceSelectors: []string{
		`[itemprop="price"]`,
		".price",
		".product-price",
		"#price",
	},
	TitleSelectors: []string{
		`[itemprop="name"]`,
		"h1",
	},
	AvailabilitySelectors: []string{
		`[itemprop="availability"]`,
		".availability",
		".stock",
	},
	ImageSelectors: []string{
		`img[itemprop="image"]`,
		".product-image img",
	},
	RatingSelectors: []string{
		`[itemprop="ratingValue"]`,
	},
	ReviewCountSelectors: []string{
		`[itemprop="reviewCount"]`,
	},
}

// PlatformFor returns the selector set for a platform name, falling
// back to the generic set for unknown names.
func PlatformFor(name string) Platform {
	if p, ok := platforms[strings.ToLower(name)]; ok {
		return p
	}
	return genericPlatform
}

// SupportedPlatforms lists the platforms with dedicated selector sets.
func SupportedPlatforms() []string {
	names := make([]string, 0, len(platforms))
	for name := range platforms {
		names = append(names, name)
	}
	return names
}

// DetectPlatform guesses the platform from a product URL's host.
func DetectPlatform(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "generic"
	}
	host := strings.ToLower(u.Hostname())
	for name := range platforms {
		if strings.Contains(host, name+".") || strings.Contains(host, "."+name+".") ||
			strings.HasPrefix(host, name) {
			return name
		}
	}
	return "generic"
}
