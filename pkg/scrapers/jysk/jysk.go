// Package jysk scrapes category listings from jysk.tj.
package jysk

import (
	"fmt"
	"strings"

	"github.com/gocolly/colly/v2"

	"mebelwatch/pkg/logger"
	"mebelwatch/pkg/models"
	"mebelwatch/pkg/price"
	"mebelwatch/pkg/scrapers"
)

const (
	Site     = "jysk"
	SiteName = "JYSK"
)

type Scraper struct{}

func NewScraper() *Scraper {
	return &Scraper{}
}

// FetchCategory fetches the bare category URL first, then page/N/
// continuations. Pagination stops on a non-success status, a page without
// products, or a page without a next-page marker.
//
// The listing tiles carry their own category label; it is extracted here as
// provenance but the orchestrator's configured category name wins.
func (s *Scraper) FetchCategory(categoryURL string) ([]models.Product, error) {
	var items []models.Product
	pageItems := 0
	nextMarker := false

	c := scrapers.NewCollector()
	c.OnHTML("li.product", func(e *colly.HTMLElement) {
		pageItems++

		title := strings.TrimSpace(e.ChildText("h2.woocommerce-loop-product__title"))
		if title == "" {
			return
		}
		priceText := e.ChildText("span.price .woocommerce-Price-amount bdi")
		if priceText == "" {
			return
		}
		link := e.ChildAttr("a.woocommerce-LoopProduct-link", "href")
		if link == "" {
			// Astra theme variant of the product link
			link = e.ChildAttr("a.ast-loop-product__link", "href")
		}
		if link == "" {
			return
		}

		items = append(items, models.Product{
			Title:       title,
			Price:       price.Normalize(priceText),
			Link:        link,
			Image:       e.ChildAttr("img.attachment-woocommerce_thumbnail", "src"),
			Category:    strings.TrimSpace(e.ChildText("span.ast-woo-product-category")),
			Site:        Site,
			SiteName:    SiteName,
			CategoryURL: categoryURL,
		})
	})
	c.OnHTML("a.next, a[rel=next]", func(e *colly.HTMLElement) {
		nextMarker = true
	})

	for page := 1; ; page++ {
		pageItems = 0
		nextMarker = false

		url := categoryURL
		if page > 1 {
			url = fmt.Sprintf("%spage/%d/", categoryURL, page)
		}
		if err := c.Visit(url); err != nil {
			if page == 1 {
				return nil, fmt.Errorf("jysk: fetch %s: %w", url, err)
			}
			break
		}
		if pageItems == 0 {
			logger.Dedup("[jysk] no products on %s, selector: li.product", url)
			break
		}
		logger.Dedup("[jysk] page %d: %d products", page, pageItems)
		if !nextMarker {
			break
		}
	}

	return items, nil
}
