package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	scalargo "github.com/bdpiprava/scalar-go"

	"mebelwatch/pkg/api"
	"mebelwatch/pkg/config"
	"mebelwatch/pkg/export"
	"mebelwatch/pkg/freshness"
	"mebelwatch/pkg/history"
	"mebelwatch/pkg/models"
	"mebelwatch/pkg/scrape"
	"mebelwatch/pkg/stats"
	"mebelwatch/pkg/store"
)

type app struct {
	cfg    *config.Config
	store  *store.Store
	gate   *freshness.Gate
	hist   *history.Log
	runner *scrape.Runner
}

func (a *app) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", a.docsHandler)
	mux.HandleFunc("POST /fetch", a.fetchHandler)
	mux.HandleFunc("GET /last-parsed", a.lastParsedHandler)
	mux.HandleFunc("GET /products", a.productsHandler)
	mux.HandleFunc("GET /products/by-category/{category}", a.productsByCategoryHandler)
	mux.HandleFunc("GET /products/by-site/{site}", a.productsBySiteHandler)
	mux.HandleFunc("GET /categories", a.categoriesHandler)
	mux.HandleFunc("GET /stats", a.statsHandler)
	mux.HandleFunc("GET /stats/by-category", a.statsByCategoryHandler)
	mux.HandleFunc("GET /compare/"+a.cfg.ReferenceSite, a.compareHandler)
	mux.HandleFunc("GET /history", a.historyHandler)
	mux.HandleFunc("GET /export", a.exportProductsHandler)
	mux.HandleFunc("GET /export/stats", a.exportStatsHandler)
	mux.HandleFunc("GET /export/comparison", a.exportComparisonHandler)
	mux.HandleFunc("GET /export/full-report", a.exportFullReportHandler)
	mux.HandleFunc("POST /import", a.importHandler)
	mux.HandleFunc("GET /health", a.healthHandler)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func (a *app) docsHandler(w http.ResponseWriter, r *http.Request) {
	html, err := scalargo.NewV2(
		scalargo.WithSpecDir("./"),
		scalargo.WithMetaDataOpts(
			scalargo.WithTitle("Mebelwatch API"),
		),
	)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, html)
}

func (a *app) fetchHandler(w http.ResponseWriter, r *http.Request) {
	force := r.URL.Query().Get("force") == "true"
	writeJSON(w, a.runner.Run(force))
}

func (a *app) lastParsedHandler(w http.ResponseWriter, r *http.Request) {
	resp := struct {
		LastParsed         *string `json:"last_parsed"`
		ShouldParseToday   bool    `json:"should_parse_today"`
		DaysSinceLastParse *int    `json:"days_since_last_parse"`
	}{
		ShouldParseToday: a.gate.ShouldParseToday(),
	}
	if last := a.gate.LastParsed(); last != nil {
		ts := last.Format(time.RFC3339)
		days := a.gate.DaysSince()
		resp.LastParsed = &ts
		resp.DaysSinceLastParse = &days
	}
	writeJSON(w, resp)
}

func (a *app) productsHandler(w http.ResponseWriter, r *http.Request) {
	products := a.store.LoadProducts()
	if products == nil {
		products = []models.Product{}
	}

	var lastUpdated *string
	if last := a.gate.LastParsed(); last != nil {
		ts := last.Format(time.RFC3339)
		lastUpdated = &ts
	}

	writeJSON(w, struct {
		Products    []models.Product `json:"products"`
		Count       int              `json:"count"`
		LastUpdated *string          `json:"last_updated"`
	}{products, len(products), lastUpdated})
}

func (a *app) productsByCategoryHandler(w http.ResponseWriter, r *http.Request) {
	category := r.PathValue("category")
	filtered := []models.Product{}
	for _, p := range a.store.LoadProducts() {
		if p.Category == category {
			filtered = append(filtered, p)
		}
	}
	writeJSON(w, struct {
		Category string           `json:"category"`
		Products []models.Product `json:"products"`
		Count    int              `json:"count"`
	}{category, filtered, len(filtered)})
}

func (a *app) productsBySiteHandler(w http.ResponseWriter, r *http.Request) {
	site := r.PathValue("site")
	filtered := []models.Product{}
	for _, p := range a.store.LoadProducts() {
		if p.Site == site {
			filtered = append(filtered, p)
		}
	}
	writeJSON(w, struct {
		Site     string           `json:"site"`
		Products []models.Product `json:"products"`
		Count    int              `json:"count"`
	}{site, filtered, len(filtered)})
}

func (a *app) categoriesHandler(w http.ResponseWriter, r *http.Request) {
	snap := a.store.LoadSnapshot()
	if snap == nil {
		snap = &models.CategorySnapshot{Categories: map[string]int{}}
	}
	writeJSON(w, snap)
}

func (a *app) statsByCategoryHandler(w http.ResponseWriter, r *http.Request) {
	categories := stats.ByCategory(a.store.LoadProducts())
	if categories == nil {
		categories = []stats.CategoryStats{}
	}
	writeJSON(w, struct {
		Categories []stats.CategoryStats `json:"categories"`
	}{categories})
}

func (a *app) statsHandler(w http.ResponseWriter, r *http.Request) {
	products := a.store.LoadProducts()

	var minPrice, maxPrice int
	var avgPrice float64
	if len(products) > 0 {
		minPrice, maxPrice = products[0].Price, products[0].Price
		sum := 0
		for _, p := range products {
			if p.Price < minPrice {
				minPrice = p.Price
			}
			if p.Price > maxPrice {
				maxPrice = p.Price
			}
			sum += p.Price
		}
		avgPrice = float64(sum) / float64(len(products))
	}

	totalCategories := 0
	if snap := a.store.LoadSnapshot(); snap != nil {
		totalCategories = len(snap.Categories)
	}

	var lastParsed *string
	if last := a.gate.LastParsed(); last != nil {
		ts := last.Format(time.RFC3339)
		lastParsed = &ts
	}

	writeJSON(w, struct {
		TotalProducts    int     `json:"total_products"`
		TotalCategories  int     `json:"total_categories"`
		TotalSites       int     `json:"total_sites"`
		AvgPrice         float64 `json:"avg_price"`
		MinPrice         int     `json:"min_price"`
		MaxPrice         int     `json:"max_price"`
		LastParsed       *string `json:"last_parsed"`
		ShouldParseToday bool    `json:"should_parse_today"`
	}{
		len(products), totalCategories, len(a.cfg.Sites),
		avgPrice, minPrice, maxPrice,
		lastParsed, a.gate.ShouldParseToday(),
	})
}

// computeComparison recomputes the comparison and persists the result. The
// persisted copy is a write-only artifact for reporting; it is never read
// back as an input.
func (a *app) computeComparison(products []models.Product) *stats.ComparisonResult {
	result := stats.Compare(products, a.cfg.ReferenceSite)
	err := a.store.SaveComparison(&store.Comparison{
		Timestamp: time.Now().Format(time.RFC3339),
		Data:      result,
	})
	if err != nil {
		log.Printf("Save comparison snapshot failed: %v", err)
	}
	return result
}

func (a *app) compareHandler(w http.ResponseWriter, r *http.Request) {
	products := a.store.LoadProducts()
	if len(products) == 0 {
		api.WriteNotFound(w, "No product data. Run a scrape first.", r.URL.Path)
		return
	}
	writeJSON(w, a.computeComparison(products))
}

func (a *app) historyHandler(w http.ResponseWriter, r *http.Request) {
	runs := []history.Run{}
	if a.hist != nil {
		recent, err := a.hist.Recent(50)
		if err != nil {
			api.WriteInternalServerError(w, err, r.URL.Path)
			return
		}
		if recent != nil {
			runs = recent
		}
	}
	writeJSON(w, struct {
		Runs  []history.Run `json:"runs"`
		Count int           `json:"count"`
	}{runs, len(runs)})
}

func attachment(w http.ResponseWriter, contentType, filename string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
}

func (a *app) exportProductsHandler(w http.ResponseWriter, r *http.Request) {
	path := a.store.ProductsPath()
	if _, err := os.Stat(path); err != nil {
		api.WriteNotFound(w, "No product data to export.", r.URL.Path)
		return
	}
	attachment(w, "application/json", fmt.Sprintf("products_%s.json", export.FileStamp(time.Now())))
	http.ServeFile(w, r, path)
}

func (a *app) exportStatsHandler(w http.ResponseWriter, r *http.Request) {
	products := a.store.LoadProducts()
	if len(products) == 0 {
		api.WriteNotFound(w, "No product data to export.", r.URL.Path)
		return
	}
	data, err := export.StatsCSV(stats.ByCategory(products))
	if err != nil {
		api.WriteInternalServerError(w, err, r.URL.Path)
		return
	}
	attachment(w, "text/csv", fmt.Sprintf("stats_%s.csv", export.FileStamp(time.Now())))
	w.Write(data)
}

func (a *app) exportComparisonHandler(w http.ResponseWriter, r *http.Request) {
	products := a.store.LoadProducts()
	if len(products) == 0 {
		api.WriteNotFound(w, "No product data to export.", r.URL.Path)
		return
	}
	result := a.computeComparison(products)
	if len(result.Comparison) == 0 {
		api.WriteNotFound(w, "No categories have enough data to compare.", r.URL.Path)
		return
	}
	now := time.Now()
	data, err := export.ComparisonZIP(result, now)
	if err != nil {
		api.WriteInternalServerError(w, err, r.URL.Path)
		return
	}
	attachment(w, "application/zip", fmt.Sprintf("comparison_%s.zip", export.FileStamp(now)))
	w.Write(data)
}

func (a *app) exportFullReportHandler(w http.ResponseWriter, r *http.Request) {
	products := a.store.LoadProducts()
	if len(products) == 0 {
		api.WriteNotFound(w, "No product data to export.", r.URL.Path)
		return
	}

	lastParsed := ""
	if last := a.gate.LastParsed(); last != nil {
		lastParsed = last.Format(time.RFC3339)
	}

	now := time.Now()
	data, err := export.FullReportXLSX(products, stats.ByCategory(products), a.computeComparison(products), lastParsed, now)
	if err != nil {
		api.WriteInternalServerError(w, err, r.URL.Path)
		return
	}
	attachment(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		fmt.Sprintf("full_report_%s.xlsx", export.FileStamp(now)))
	w.Write(data)
}

func (a *app) importHandler(w http.ResponseWriter, r *http.Request) {
	file, _, err := r.FormFile("file")
	if err != nil {
		api.WriteBadRequest(w, "Multipart field 'file' is required.", r.URL.Path)
		return
	}
	defer file.Close()

	var products []models.Product
	if err := json.NewDecoder(file).Decode(&products); err != nil {
		api.WriteBadRequest(w, "Invalid document. Expected a JSON array of products.", r.URL.Path)
		return
	}

	if err := a.store.SaveProducts(products); err != nil {
		api.WriteInternalServerError(w, err, r.URL.Path)
		return
	}
	if err := a.gate.RecordNow(); err != nil {
		log.Printf("Record freshness after import failed: %v", err)
	}

	writeJSON(w, struct {
		Status string `json:"status"`
		Count  int    `json:"count"`
	}{"imported", len(products)})
}

func (a *app) healthHandler(w http.ResponseWriter, r *http.Request) {
	_, err := os.Stat(a.store.ProductsPath())

	var lastParsed *string
	if last := a.gate.LastParsed(); last != nil {
		ts := last.Format(time.RFC3339)
		lastParsed = &ts
	}

	writeJSON(w, struct {
		Status           string  `json:"status"`
		Timestamp        string  `json:"timestamp"`
		DataExists       bool    `json:"data_exists"`
		ShouldParseToday bool    `json:"should_parse_today"`
		LastParsed       *string `json:"last_parsed"`
	}{"ok", time.Now().Format(time.RFC3339), err == nil, a.gate.ShouldParseToday(), lastParsed})
}
