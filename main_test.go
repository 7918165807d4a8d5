package main

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mebelwatch/pkg/api"
	"mebelwatch/pkg/config"
	"mebelwatch/pkg/freshness"
	"mebelwatch/pkg/models"
	"mebelwatch/pkg/scrape"
	"mebelwatch/pkg/scrapers"
	"mebelwatch/pkg/store"
)

type stubScraper struct {
	items []models.Product
}

func (s *stubScraper) FetchCategory(categoryURL string) ([]models.Product, error) {
	out := make([]models.Product, len(s.items))
	copy(out, s.items)
	return out, nil
}

func newTestApp(t *testing.T) (*app, *http.ServeMux) {
	t.Helper()

	cfg := &config.Config{
		ReferenceSite: "jysk",
		Sites: []config.Site{
			{
				ID: "jysk", Name: "JYSK", Scraper: "jysk",
				Categories: []config.Category{{Name: "Sofas", URL: "https://jysk.example/sofas/"}},
			},
			{
				ID: "hoff", Name: "HOFF", Scraper: "hoff",
				Categories: []config.Category{{Name: "Beds", URL: "https://hoff.example/beds/"}},
			},
		},
	}

	dir := t.TempDir()
	st, err := store.New(dir)
	if err != nil {
		t.Fatal(err)
	}
	gate := freshness.New(filepath.Join(dir, "last_parsed.txt"))

	registry := map[string]scrapers.Scraper{
		"jysk": &stubScraper{items: []models.Product{
			{Title: "Sofa bed FALSLEV", Price: 11999, Link: "https://jysk.example/p/falslev"},
		}},
		"hoff": &stubScraper{items: []models.Product{
			{Title: "Bed Askona", Price: 34999, Link: "https://hoff.example/p/askona"},
		}},
	}

	a := &app{
		cfg:    cfg,
		store:  st,
		gate:   gate,
		runner: scrape.New(cfg, registry, st, gate, nil),
	}
	mux := http.NewServeMux()
	a.routes(mux)
	return a, mux
}

func doRequest(t *testing.T, mux *http.ServeMux, method, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func TestProductsEmpty(t *testing.T) {
	_, mux := newTestApp(t)

	rr := doRequest(t, mux, "GET", "/products", nil, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	var resp struct {
		Products []models.Product `json:"products"`
		Count    int              `json:"count"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp.Count != 0 || resp.Products == nil {
		t.Errorf("expected empty (non-null) collection, got %+v", resp)
	}
}

func TestFetchThenFilter(t *testing.T) {
	_, mux := newTestApp(t)

	rr := doRequest(t, mux, "POST", "/fetch", nil, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("fetch status = %d", rr.Code)
	}
	var result scrape.Result
	if err := json.Unmarshal(rr.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if result.Status != "success" || result.Count != 2 {
		t.Fatalf("fetch result = %+v", result)
	}

	rr = doRequest(t, mux, "GET", "/products/by-site/jysk", nil, "")
	var bySite struct {
		Products []models.Product `json:"products"`
		Count    int              `json:"count"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &bySite); err != nil {
		t.Fatal(err)
	}
	if bySite.Count != 1 || bySite.Products[0].SiteName != "JYSK" {
		t.Errorf("by-site response = %+v", bySite)
	}

	rr = doRequest(t, mux, "GET", "/products/by-category/Beds", nil, "")
	var byCategory struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &byCategory); err != nil {
		t.Fatal(err)
	}
	if byCategory.Count != 1 {
		t.Errorf("by-category count = %d, want 1", byCategory.Count)
	}
}

func TestCompareWithoutData(t *testing.T) {
	_, mux := newTestApp(t)

	rr := doRequest(t, mux, "GET", "/compare/jysk", nil, "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("content type = %q", ct)
	}

	var pd api.ProblemDetails
	if err := json.Unmarshal(rr.Body.Bytes(), &pd); err != nil {
		t.Fatalf("invalid problem document: %v", err)
	}
	if pd.Status != http.StatusNotFound || pd.Type != "about:blank" {
		t.Errorf("problem = %+v", pd)
	}
	if pd.Instance != "/compare/jysk" {
		t.Errorf("instance = %q", pd.Instance)
	}
}

func TestImportExportRoundTrip(t *testing.T) {
	a, mux := newTestApp(t)

	products := []models.Product{
		{
			Title: "Sofa Verona", Price: 8500, Link: "https://citymebel.example/p/1",
			Image: "https://citymebel.example/i/1.jpg", Category: "Sofas",
			Site: "citymebel", SiteName: "City Mebel",
			CategoryURL: "https://citymebel.example/sofas/",
		},
		{Title: "No-price stool", Category: "Chairs", Site: "hoff", SiteName: "HOFF"},
	}
	doc, err := json.Marshal(products)
	if err != nil {
		t.Fatal(err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "products.json")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write(doc); err != nil {
		t.Fatal(err)
	}
	mw.Close()

	rr := doRequest(t, mux, "POST", "/import", &body, mw.FormDataContentType())
	if rr.Code != http.StatusOK {
		t.Fatalf("import status = %d: %s", rr.Code, rr.Body.String())
	}
	var imported struct {
		Status string `json:"status"`
		Count  int    `json:"count"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &imported); err != nil {
		t.Fatal(err)
	}
	if imported.Status != "imported" || imported.Count != 2 {
		t.Errorf("import response = %+v", imported)
	}

	// Import marks freshness as now.
	if a.gate.ShouldParseToday() {
		t.Error("import should stamp freshness")
	}

	// Export reproduces the collection field for field.
	rr = doRequest(t, mux, "GET", "/export", nil, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("export status = %d", rr.Code)
	}
	var exported []models.Product
	if err := json.Unmarshal(rr.Body.Bytes(), &exported); err != nil {
		t.Fatalf("export body is not a product array: %v", err)
	}
	if len(exported) != 2 || exported[0] != products[0] || exported[1] != products[1] {
		t.Errorf("export mismatch:\n got %+v\nwant %+v", exported, products)
	}

	stored, err := os.ReadFile(a.store.ProductsPath())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(bytes.TrimSpace(stored), bytes.TrimSpace(rr.Body.Bytes())) {
		t.Error("export should serve the stored document verbatim")
	}
}

func TestImportRejectsInvalidDocument(t *testing.T) {
	_, mux := newTestApp(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, _ := mw.CreateFormFile("file", "products.json")
	fw.Write([]byte(`{"not": "an array"}`))
	mw.Close()

	rr := doRequest(t, mux, "POST", "/import", &body, mw.FormDataContentType())
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestLastParsedBeforeFirstScrape(t *testing.T) {
	_, mux := newTestApp(t)

	rr := doRequest(t, mux, "GET", "/last-parsed", nil, "")
	var resp struct {
		LastParsed         *string `json:"last_parsed"`
		ShouldParseToday   bool    `json:"should_parse_today"`
		DaysSinceLastParse *int    `json:"days_since_last_parse"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.LastParsed != nil || !resp.ShouldParseToday || resp.DaysSinceLastParse != nil {
		t.Errorf("response = %+v", resp)
	}
}

func TestUntilNextHour(t *testing.T) {
	now := time.Date(2026, time.September, 1, 1, 30, 0, 0, time.UTC)
	if d := untilNextHour(now, 2); d != 30*time.Minute {
		t.Errorf("before the hour: %v, want 30m", d)
	}

	now = time.Date(2026, time.September, 1, 2, 0, 0, 0, time.UTC)
	if d := untilNextHour(now, 2); d != 24*time.Hour {
		t.Errorf("exactly on the hour: %v, want 24h", d)
	}

	now = time.Date(2026, time.September, 1, 14, 0, 0, 0, time.UTC)
	if d := untilNextHour(now, 2); d != 12*time.Hour {
		t.Errorf("after the hour: %v, want 12h", d)
	}
}
