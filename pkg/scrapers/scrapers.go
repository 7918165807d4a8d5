// Package scrapers defines the per-retailer category scraper contract.
package scrapers

import (
	"time"

	"github.com/gocolly/colly/v2"

	"mebelwatch/pkg/models"
)

// UserAgent identifies scrape requests as a conventional browser.
const UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// RequestTimeout bounds every page fetch. There is no retry: a slow or dead
// page simply ends pagination for its category.
const RequestTimeout = 10 * time.Second

// Scraper walks one category listing of one retailer: it traverses the site's
// pagination and returns every extractable item in page order. Items missing a
// required field are skipped, page and item errors never propagate; only a
// failure to fetch the very first page is reported, and even then the category
// just contributes zero items for the run.
type Scraper interface {
	FetchCategory(categoryURL string) ([]models.Product, error)
}

// NewCollector returns a colly collector with the shared scrape settings.
func NewCollector() *colly.Collector {
	c := colly.NewCollector(colly.UserAgent(UserAgent))
	c.SetRequestTimeout(RequestTimeout)
	return c
}
