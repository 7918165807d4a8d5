package models

import "errors"

// ErrNoData is returned by read paths when nothing has been scraped or imported yet.
var ErrNoData = errors.New("no data")

// Product is one scraped catalog listing in the common schema shared by all
// retailers. Price is in whole currency units; 0 means the price could not be
// read, not that the item is free.
type Product struct {
	Title       string `json:"title"`
	Price       int    `json:"price"`
	Link        string `json:"link"`
	Image       string `json:"image"`
	Category    string `json:"category"`
	Site        string `json:"site"`
	SiteName    string `json:"site_name"`
	CategoryURL string `json:"category_url"`
}

// CategorySnapshot is the stored per-scrape summary of the catalog. It is
// recomputed from scratch on every scrape pass, never patched in place.
type CategorySnapshot struct {
	TotalProducts int            `json:"total_products"`
	Categories    map[string]int `json:"categories"`
	LastUpdated   string         `json:"last_updated"`
	SitesCount    int            `json:"sites_count"`
}
