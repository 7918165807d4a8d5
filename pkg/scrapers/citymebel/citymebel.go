// Package citymebel scrapes category listings from citymebel.tj.
package citymebel

import (
	"fmt"
	"strings"

	"github.com/gocolly/colly/v2"

	"mebelwatch/pkg/logger"
	"mebelwatch/pkg/models"
	"mebelwatch/pkg/price"
	"mebelwatch/pkg/scrapers"
)

const Site = "citymebel"

type Scraper struct{}

func NewScraper() *Scraper {
	return &Scraper{}
}

// FetchCategory walks /page/N/ path segments until the site answers with a
// non-success status (404 past the last page) or a page without products.
func (s *Scraper) FetchCategory(categoryURL string) ([]models.Product, error) {
	var items []models.Product
	pageItems := 0

	c := scrapers.NewCollector()
	c.OnHTML("div.product-inner", func(e *colly.HTMLElement) {
		pageItems++

		title := strings.TrimSpace(e.ChildText("h2.woocommerce-loop-product__title"))
		priceText := e.ChildText("span.woocommerce-Price-amount bdi")
		link := e.ChildAttr("a.woocommerce-LoopProduct-link", "href")
		if title == "" || priceText == "" || link == "" {
			return
		}

		items = append(items, models.Product{
			Title:       title,
			Price:       price.Normalize(priceText),
			Link:        link,
			Image:       e.ChildAttr("img", "src"),
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
				return nil, fmt.Errorf("citymebel: fetch %s: %w", url, err)
			}
			break
		}
		if pageItems == 0 {
			break
		}
		logger.Dedup("[citymebel] page %d: %d products", page, pageItems)
	}

	return items, nil
}
