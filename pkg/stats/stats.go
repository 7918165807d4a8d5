// Package stats computes catalog aggregations: per-category price statistics
// and the reference-retailer-vs-market comparison.
package stats

import (
	"math"
	"sort"
	"strconv"

	"mebelwatch/pkg/models"
)

// CategoryStats describes one category's price landscape across all sites.
type CategoryStats struct {
	Category          string             `json:"category"`
	TotalProducts     int                `json:"total_products"`
	SitesCount        int                `json:"sites_count"`
	Sites             []string           `json:"sites"`
	AvgPrice          float64            `json:"avg_price"`
	MinPrice          int                `json:"min_price"`
	MaxPrice          int                `json:"max_price"`
	PriceRange        string             `json:"price_range"`
	PriceDistribution map[string]float64 `json:"price_distribution"`
}

var buckets = []struct {
	label string
	upper int
}{
	{"<100", 100},
	{"100-499", 500},
	{"500-999", 1000},
	{"1000-4999", 5000},
	{"5000+", math.MaxInt},
}

// ByCategory groups the catalog by category. Items with price <= 0 count
// toward the product total but are excluded from every price figure. The
// result is sorted by product count, largest category first.
func ByCategory(products []models.Product) []CategoryStats {
	type group struct {
		total  int
		prices []int
		sites  map[string]bool
	}
	groups := make(map[string]*group)

	for _, p := range products {
		category := p.Category
		if category == "" {
			category = "Uncategorized"
		}
		g := groups[category]
		if g == nil {
			g = &group{sites: make(map[string]bool)}
			groups[category] = g
		}
		g.total++
		if p.Price > 0 {
			g.prices = append(g.prices, p.Price)
		}
		g.sites[p.SiteName] = true
	}

	result := make([]CategoryStats, 0, len(groups))
	for category, g := range groups {
		cs := CategoryStats{
			Category:          category,
			TotalProducts:     g.total,
			SitesCount:        len(g.sites),
			Sites:             sortedKeys(g.sites),
			PriceRange:        "0-0",
			PriceDistribution: map[string]float64{},
		}
		if len(g.prices) > 0 {
			mn, mx, avg := extremes(g.prices)
			cs.AvgPrice = round2(avg)
			cs.MinPrice = mn
			cs.MaxPrice = mx
			cs.PriceRange = strconv.Itoa(mn) + "-" + strconv.Itoa(mx)
			cs.PriceDistribution = distribution(g.prices)
		}
		result = append(result, cs)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].TotalProducts != result[j].TotalProducts {
			return result[i].TotalProducts > result[j].TotalProducts
		}
		return result[i].Category < result[j].Category
	})
	return result
}

func distribution(prices []int) map[string]float64 {
	counts := make(map[string]int)
	for _, p := range prices {
		for _, b := range buckets {
			if p < b.upper {
				counts[b.label]++
				break
			}
		}
	}
	dist := make(map[string]float64, len(counts))
	for label, n := range counts {
		dist[label] = round1(float64(n) / float64(len(prices)) * 100)
	}
	return dist
}

// minSample is the smallest per-side price count a category needs to be
// included in the comparison.
const minSample = 3

// SideStats summarizes one side (reference or market) of a comparison.
type SideStats struct {
	AvgPrice float64 `json:"avg_price"`
	MinPrice int     `json:"min_price"`
	MaxPrice int     `json:"max_price"`
	Count    int     `json:"count"`
}

// Diff is the reference-vs-market verdict for one category.
type Diff struct {
	PriceDiff        float64 `json:"price_diff"`
	PriceDiffPercent float64 `json:"price_diff_percent"`
	Status           string  `json:"status"`
	StatusClass      string  `json:"status_class"`
}

// SiteComparison compares the reference retailer against a single competitor.
type SiteComparison struct {
	Site         string  `json:"site"`
	AvgPrice     float64 `json:"avg_price"`
	ProductCount int     `json:"product_count"`
	DiffPercent  float64 `json:"diff_percent"`
	Status       string  `json:"status"`
}

// Samples reports the sample sizes a category verdict rests on.
type Samples struct {
	ReferenceCount int `json:"reference_count"`
	MarketCount    int `json:"market_count"`
	TotalSites     int `json:"total_sites"`
}

// CategoryComparison is one category's full comparison record.
type CategoryComparison struct {
	Category       string           `json:"category"`
	ReferenceStats SideStats        `json:"reference_stats"`
	MarketStats    SideStats        `json:"market_stats"`
	Comparison     Diff             `json:"comparison"`
	SiteComparison []SiteComparison `json:"site_comparison"`
	Samples        Samples          `json:"samples"`
}

// Summary rolls the per-category verdicts up, using the ±5% threshold.
type Summary struct {
	TotalCategories          int     `json:"total_categories"`
	CategoriesWhereCheaper   int     `json:"categories_where_cheaper"`
	CategoriesWhereExpensive int     `json:"categories_where_expensive"`
	CategoriesWhereNormal    int     `json:"categories_where_normal"`
	AvgPriceDiff             float64 `json:"avg_price_diff"`
	ReferenceAdvantage       bool    `json:"reference_advantage"`
}

// ComparisonResult is the full engine output, persisted write-only for export.
type ComparisonResult struct {
	Comparison []CategoryComparison `json:"comparison"`
	Summary    Summary              `json:"summary"`
}

// Compare splits each category's priced items into the reference retailer's
// bucket and the pooled market bucket and compares their averages. Categories
// with fewer than minSample priced items on either side are left out
// entirely. Output is sorted by absolute difference, biggest gap first.
func Compare(products []models.Product, refSite string) *ComparisonResult {
	type group struct {
		ref    []int
		market map[string][]int
	}
	groups := make(map[string]*group)

	for _, p := range products {
		if p.Price <= 0 {
			continue
		}
		category := p.Category
		if category == "" {
			category = "Uncategorized"
		}
		g := groups[category]
		if g == nil {
			g = &group{market: make(map[string][]int)}
			groups[category] = g
		}
		if p.Site == refSite {
			g.ref = append(g.ref, p.Price)
		} else {
			g.market[p.SiteName] = append(g.market[p.SiteName], p.Price)
		}
	}

	var result []CategoryComparison
	for category, g := range groups {
		var marketPrices []int
		for _, prices := range g.market {
			marketPrices = append(marketPrices, prices...)
		}
		if len(g.ref) < minSample || len(marketPrices) < minSample {
			continue
		}

		refMin, refMax, refAvg := extremes(g.ref)
		mktMin, mktMax, mktAvg := extremes(marketPrices)

		diffPercent := 0.0
		if mktAvg > 0 {
			diffPercent = (refAvg - mktAvg) / mktAvg * 100
		}
		status, statusClass := classify(diffPercent)

		var perSite []SiteComparison
		for siteName, prices := range g.market {
			if len(prices) < minSample {
				continue
			}
			_, _, siteAvg := extremes(prices)
			diff := 0.0
			if siteAvg > 0 {
				diff = (refAvg - siteAvg) / siteAvg * 100
			}
			siteStatus := "cheaper"
			if diff > 0 {
				siteStatus = "more expensive"
			}
			perSite = append(perSite, SiteComparison{
				Site:         siteName,
				AvgPrice:     round2(siteAvg),
				ProductCount: len(prices),
				DiffPercent:  round1(diff),
				Status:       siteStatus,
			})
		}
		sort.Slice(perSite, func(i, j int) bool {
			if perSite[i].DiffPercent != perSite[j].DiffPercent {
				return perSite[i].DiffPercent < perSite[j].DiffPercent
			}
			return perSite[i].Site < perSite[j].Site
		})

		result = append(result, CategoryComparison{
			Category:       category,
			ReferenceStats: SideStats{AvgPrice: round2(refAvg), MinPrice: refMin, MaxPrice: refMax, Count: len(g.ref)},
			MarketStats:    SideStats{AvgPrice: round2(mktAvg), MinPrice: mktMin, MaxPrice: mktMax, Count: len(marketPrices)},
			Comparison: Diff{
				PriceDiff:        round2(refAvg - mktAvg),
				PriceDiffPercent: round1(diffPercent),
				Status:           status,
				StatusClass:      statusClass,
			},
			SiteComparison: perSite,
			Samples: Samples{
				ReferenceCount: len(g.ref),
				MarketCount:    len(marketPrices),
				TotalSites:     len(g.market) + 1,
			},
		})
	}

	sort.Slice(result, func(i, j int) bool {
		di := math.Abs(result[i].Comparison.PriceDiffPercent)
		dj := math.Abs(result[j].Comparison.PriceDiffPercent)
		if di != dj {
			return di > dj
		}
		return result[i].Category < result[j].Category
	})

	summary := Summary{TotalCategories: len(result)}
	if len(result) > 0 {
		var sum float64
		for _, c := range result {
			sum += c.Comparison.PriceDiffPercent
			switch {
			case c.Comparison.PriceDiffPercent < -5:
				summary.CategoriesWhereCheaper++
			case c.Comparison.PriceDiffPercent > 5:
				summary.CategoriesWhereExpensive++
			}
		}
		summary.CategoriesWhereNormal = len(result) - summary.CategoriesWhereCheaper - summary.CategoriesWhereExpensive
		summary.AvgPriceDiff = round1(sum / float64(len(result)))
		summary.ReferenceAdvantage = summary.AvgPriceDiff < 0
	}

	return &ComparisonResult{Comparison: result, Summary: summary}
}

// Thresholds are strict: exactly +5% is still market-level.
func classify(diffPercent float64) (status, class string) {
	switch {
	case diffPercent > 15:
		return "much more expensive", "expensive"
	case diffPercent > 5:
		return "more expensive", "expensive-moderate"
	case diffPercent < -15:
		return "much cheaper", "cheaper"
	case diffPercent < -5:
		return "cheaper", "cheaper-moderate"
	default:
		return "market-level", "normal"
	}
}

func extremes(prices []int) (min, max int, avg float64) {
	min, max = prices[0], prices[0]
	sum := 0
	for _, p := range prices {
		if p < min {
			min = p
		}
		if p > max {
			max = p
		}
		sum += p
	}
	return min, max, float64(sum) / float64(len(prices))
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
