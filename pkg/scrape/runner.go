// Package scrape runs a full catalog scrape pass across all configured sites.
package scrape

import (
	"fmt"
	"log"
	"time"

	"mebelwatch/pkg/config"
	"mebelwatch/pkg/freshness"
	"mebelwatch/pkg/history"
	"mebelwatch/pkg/models"
	"mebelwatch/pkg/scrapers"
	"mebelwatch/pkg/store"
)

// Result is what a scrape pass reports back, whether it ran or was skipped.
type Result struct {
	Status     string         `json:"status"`
	Count      int            `json:"count"`
	Categories map[string]int `json:"categories"`
	Message    string         `json:"message,omitempty"`
}

// Runner iterates the configured (site, category) pairs, tags what the
// adapters return and writes the collection through to the store.
type Runner struct {
	Config   *config.Config
	Scrapers map[string]scrapers.Scraper
	Store    *store.Store
	Gate     *freshness.Gate
	History  *history.Log
	now      func() time.Time
}

// New wires a runner from its collaborators. history may be nil.
func New(cfg *config.Config, reg map[string]scrapers.Scraper, st *store.Store, gate *freshness.Gate, hist *history.Log) *Runner {
	return &Runner{
		Config:   cfg,
		Scrapers: reg,
		Store:    st,
		Gate:     gate,
		History:  hist,
		now:      time.Now,
	}
}

// Run executes one scrape pass. Without force it short-circuits when a pass
// already ran today, answering from the stored collection with zero network
// activity. A pass fully replaces the stored collection; a category that
// errors contributes zero items and never disturbs the others.
func (r *Runner) Run(force bool) Result {
	started := r.now()

	if !force && !r.Gate.ShouldParseToday() {
		log.Print("Scrape already ran today, skipping")
		result := Result{
			Status:     "skipped",
			Count:      len(r.Store.LoadProducts()),
			Categories: map[string]int{},
			Message:    "scrape already ran today",
		}
		if snap := r.Store.LoadSnapshot(); snap != nil && snap.Categories != nil {
			result.Categories = snap.Categories
		}
		r.record(started, result)
		return result
	}

	log.Print("Starting scrape of all sites")

	var all []models.Product
	counts := make(map[string]int)

	for _, site := range r.Config.Sites {
		scraper, ok := r.Scrapers[site.Scraper]
		if !ok {
			log.Printf("No scraper %q for site %s, skipping", site.Scraper, site.ID)
			continue
		}
		for _, cat := range site.Categories {
			items, err := fetchCategory(scraper, cat.URL)
			if err != nil {
				log.Printf("Scrape %s -> %s failed: %v", site.Name, cat.Name, err)
				continue
			}
			for i := range items {
				// Configured tags win over anything the adapter extracted.
				items[i].Category = cat.Name
				items[i].Site = site.ID
				items[i].SiteName = site.Name
				items[i].CategoryURL = cat.URL
			}
			all = append(all, items...)
			counts[cat.Name] += len(items)
		}
	}

	result := Result{Status: "success", Count: len(all), Categories: counts}

	if err := r.Store.SaveProducts(all); err != nil {
		log.Printf("Save products failed: %v", err)
		result.Status = "error"
		result.Message = err.Error()
		r.record(started, result)
		return result
	}

	snap := &models.CategorySnapshot{
		TotalProducts: len(all),
		Categories:    counts,
		LastUpdated:   r.now().Format(time.RFC3339),
		SitesCount:    len(r.Config.Sites),
	}
	if err := r.Store.SaveSnapshot(snap); err != nil {
		log.Printf("Save snapshot failed: %v", err)
	}

	if err := r.Gate.RecordNow(); err != nil {
		log.Printf("Record freshness failed: %v", err)
	}

	log.Printf("Scrape finished, %d products", len(all))
	r.record(started, result)
	return result
}

func (r *Runner) record(started time.Time, result Result) {
	if r.History == nil {
		return
	}
	err := r.History.Record(history.Run{
		StartedAt:  started,
		FinishedAt: r.now(),
		Status:     result.Status,
		Total:      result.Count,
		Categories: result.Categories,
	})
	if err != nil {
		log.Printf("Record scrape history failed: %v", err)
	}
}

// A misbehaving adapter must cost its own category only, never the batch.
func fetchCategory(s scrapers.Scraper, url string) (items []models.Product, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			items = nil
			err = fmt.Errorf("scraper panic: %v", rec)
		}
	}()
	return s.FetchCategory(url)
}
