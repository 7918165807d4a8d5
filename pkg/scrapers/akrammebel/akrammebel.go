// Package akrammebel scrapes category listings from akram-mebel.tj.
package akrammebel

import (
	"fmt"
	"strings"

	"github.com/gocolly/colly/v2"

	"mebelwatch/pkg/logger"
	"mebelwatch/pkg/models"
	"mebelwatch/pkg/price"
	"mebelwatch/pkg/scrapers"
)

const Site = "akram-mebel"

type Scraper struct{}

func NewScraper() *Scraper {
	return &Scraper{}
}

// FetchCategory walks /page/N/ path segments. The site answers empty listing
// pages with 200, so pagination ends on the first page without products.
func (s *Scraper) FetchCategory(categoryURL string) ([]models.Product, error) {
	var items []models.Product
	pageItems := 0

	c := scrapers.NewCollector()
	c.OnHTML("div.product-card", func(e *colly.HTMLElement) {
		pageItems++

		title := strings.TrimSpace(e.ChildText("a.product-card__title"))
		priceText := e.ChildText("span.product-card__price")
		link := e.ChildAttr("a.product-card__title", "href")
		if title == "" || priceText == "" || link == "" {
			return
		}

		items = append(items, models.Product{
			Title:       title,
			Price:       price.Normalize(priceText),
			Link:        link,
			Image:       e.ChildAttr("img.product-card__image", "src"),
			Site:        Site,
			CategoryURL: categoryURL,
		})
	})

	base := strings.TrimRight(categoryURL, "/")
	for page := 1; ; page++ {
		pageItems = 0

		url := fmt.Sprintf("%s/page/%d/", base, page)
		if err := c.Visit(url); err != nil {
			if page == 1 {
				return nil, fmt.Errorf("akram-mebel: fetch %s: %w", url, err)
			}
			break
		}
		if pageItems == 0 {
			break
		}
		logger.Dedup("[akram-mebel] page %d: %d products", page, pageItems)
	}

	return items, nil
}
