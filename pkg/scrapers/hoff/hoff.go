// Package hoff scrapes category listings from hoff.ru.
package hoff

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/gocolly/colly/v2"

	"mebelwatch/pkg/logger"
	"mebelwatch/pkg/models"
	"mebelwatch/pkg/price"
	"mebelwatch/pkg/scrapers"
)

const Site = "hoff"

type Scraper struct{}

func NewScraper() *Scraper {
	return &Scraper{}
}

// FetchCategory pages with a ?page=N query continuation. The catalog answers
// past-the-end pages with 200 and an empty grid, so pagination ends on the
// first page without products.
func (s *Scraper) FetchCategory(categoryURL string) ([]models.Product, error) {
	var items []models.Product
	pageItems := 0

	c := scrapers.NewCollector()
	c.OnHTML("div.product-tile", func(e *colly.HTMLElement) {
		pageItems++

		title := strings.TrimSpace(e.ChildText("div.product-tile__name"))
		priceText := e.ChildText("span.product-tile__price-value")
		link := e.ChildAttr("a.product-tile__link", "href")
		if title == "" || priceText == "" || link == "" {
			return
		}

		items = append(items, models.Product{
			Title:       title,
			Price:       price.Normalize(priceText),
			Link:        link,
			Image:       e.ChildAttr("img.product-tile__image", "src"),
			Site:        Site,
			CategoryURL: categoryURL,
		})
	})

	for page := 1; ; page++ {
		pageItems = 0

		pageURL, err := withPage(categoryURL, page)
		if err != nil {
			return nil, fmt.Errorf("hoff: bad category url %s: %w", categoryURL, err)
		}
		if err := c.Visit(pageURL); err != nil {
			if page == 1 {
				return nil, fmt.Errorf("hoff: fetch %s: %w", pageURL, err)
			}
			break
		}
		if pageItems == 0 {
			break
		}
		logger.Dedup("[hoff] page %d: %d products", page, pageItems)
	}

	return items, nil
}

func withPage(categoryURL string, page int) (string, error) {
	u, err := url.Parse(categoryURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("page", fmt.Sprintf("%d", page))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
