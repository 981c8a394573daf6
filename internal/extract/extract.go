// Package extract pulls structured product fields out of retailer HTML
// using ordered CSS selector lists.
package extract

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	priceCleanRe  = regexp.MustCompile(`[^\d.,]`)
	ratingRe      = regexp.MustCompile(`(\d+\.?\d*)`)
	reviewCountRe = regexp.MustCompile(`\d+(?:,\d+)*`)
)

// Document wraps a parsed HTML page for field extraction.
type Document struct {
	doc *goquery.Document
}

// NewDocument parses HTML into a Document.
func NewDocument(body []byte) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	return &Document{doc: doc}, nil
}

// Price tries each selector in order and returns the first text that
// parses to a valid price. Every element matching a selector is tried
// before moving to the next selector. Returns nil when nothing parses.
func (d *Document) Price(selectors []string) *float64 {
	for _, sel := range selectors {
		var found *float64
		d.doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if price := ParsePrice(s.Text()); price != nil {
				found = price
				return false
			}
			return true
		})
		if found != nil {
			return found
		}
	}
	return nil
}

// Text returns the trimmed text of the first selector that matches a
// non-empty element.
func (d *Document) Text(selectors []string) string {
	for _, sel := range selectors {
		if text := strings.TrimSpace(d.doc.Find(sel).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

// Rating returns the first selector text that parses to a rating in
// [0, 5], nil when none does.
func (d *Document) Rating(selectors []string) *float64 {
	for _, sel := range selectors {
		var found *float64
		d.doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if r := ParseRating(s.Text()); r != nil {
				found = r
				return false
			}
			return true
		})
		if found != nil {
			return found
		}
	}
	return nil
}

// Integer returns the first selector text that parses to a count, nil
// when none does.
func (d *Document) Integer(selectors []string) *int {
	for _, sel := range selectors {
		var found *int
		d.doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if n := ParseCount(s.Text()); n != nil {
				found = n
				return false
			}
			return true
		})
		if found != nil {
			return found
		}
	}
	return nil
}

// ImageURL returns the first image source found via the selectors,
// checking src then data-src, and upgrading protocol-relative URLs.
func (d *Document) ImageURL(selectors []string) string {
	for _, sel := range selectors {
		s := d.doc.Find(sel).First()
		src, ok := s.Attr("src")
		if !ok || src == "" {
			src, _ = s.Attr("data-src")
		}
		src = strings.TrimSpace(src)
		if src == "" {
			continue
		}
		if strings.HasPrefix(src, "//") {
			src = "https:" + src
		}
		return src
	}
	return ""
}

// Availability reports whether the product appears to be in stock. When
// no selector matches, it falls back to scanning the whole page text:
// an explicit "out of stock" marker wins, otherwise "in stock" or the
// absence of any marker counts as available.
func (d *Document) Availability(selectors []string) bool {
	for _, sel := range selectors {
		text := strings.TrimSpace(d.doc.Find(sel).First().Text())
		if text == "" {
			continue
		}
		return !containsOutOfStock(text)
	}

	page := d.doc.Text()
	if containsOutOfStock(page) {
		return false
	}
	return true
}

func containsOutOfStock(text string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(lower, "out of stock") ||
		strings.Contains(lower, "unavailable") ||
		strings.Contains(lower, "sold out")
}

// ParsePrice extracts a price from free-form text like "$1,299.99" or
// "12,34 €". Returns nil when the text holds no valid non-negative
// number.
func ParsePrice(text string) *float64 {
	cleaned := priceCleanRe.ReplaceAllString(text, "")
	if cleaned == "" {
		return nil
	}

	if strings.Contains(cleaned, ",") && strings.Contains(cleaned, ".") {
		// "1,299.99": comma is the thousands separator
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	} else if strings.Contains(cleaned, ",") {
		// "12,34" reads as a decimal comma, "1,299" as thousands
		parts := strings.Split(cleaned, ",")
		if len(parts) == 2 && len(parts[1]) == 2 {
			cleaned = parts[0] + "." + parts[1]
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	}

	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || price < 0 {
		return nil
	}
	return &price
}

// ParseRating extracts a star rating from text like "4.5 out of 5 stars".
// Values outside [0, 5] are rejected.
func ParseRating(text string) *float64 {
	m := ratingRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	rating, err := strconv.ParseFloat(m[1], 64)
	if err != nil || rating < 0 || rating > 5 {
		return nil
	}
	return &rating
}

// ParseCount extracts a non-negative integer from text like
// "1,234 ratings".
func ParseCount(text string) *int {
	m := reviewCountRe.FindString(text)
	if m == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.ReplaceAll(m, ",", ""))
	if err != nil {
		return nil
	}
	return &n
}
