package jysk

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

const page1 = `
<!DOCTYPE html>
<html><body>
<ul class="products">
  <li class="product">
    <a class="woocommerce-LoopProduct-link" href="https://jysk.example/p/falslev"></a>
    <h2 class="woocommerce-loop-product__title">Sofa bed FALSLEV</h2>
    <img class="attachment-woocommerce_thumbnail" src="https://jysk.example/i/falslev.jpg">
    <span class="ast-woo-product-category">Sofa beds</span>
    <span class="price"><span class="woocommerce-Price-amount"><bdi>11 999,00 c</bdi></span></span>
  </li>
  <li class="product">
    <a class="ast-loop-product__link" href="https://jysk.example/p/egense"></a>
    <h2 class="woocommerce-loop-product__title">Armchair EGENSE</h2>
    <span class="price"><span class="woocommerce-Price-amount"><bdi>2 500</bdi></span></span>
  </li>
  <li class="product">
    <h2 class="woocommerce-loop-product__title">Broken tile without price or link</h2>
  </li>
</ul>
<a class="next" href="page/2/">Next</a>
</body></html>
`

const page2 = `
<!DOCTYPE html>
<html><body>
<ul class="products">
  <li class="product">
    <a class="woocommerce-LoopProduct-link" href="https://jysk.example/p/gistrup"></a>
    <h2 class="woocommerce-loop-product__title">Bed frame GISTRUP</h2>
    <span class="price"><span class="woocommerce-Price-amount"><bdi>7 499,00 c</bdi></span></span>
  </li>
</ul>
</body></html>
`

func TestFetchCategory(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Logf("Received request for: %s", r.URL.Path)
		switch r.URL.Path {
		case "/sofas/":
			fmt.Fprint(w, page1)
		case "/sofas/page/2/":
			fmt.Fprint(w, page2)
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()

	items, err := NewScraper().FetchCategory(ts.URL + "/sofas/")
	if err != nil {
		t.Fatalf("FetchCategory failed: %v", err)
	}

	// The broken tile is skipped, both pages contribute, page order is kept.
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d: %+v", len(items), items)
	}

	first := items[0]
	if first.Title != "Sofa bed FALSLEV" {
		t.Errorf("title = %q", first.Title)
	}
	if first.Price != 11999 {
		t.Errorf("price = %d, want 11999", first.Price)
	}
	if first.Link != "https://jysk.example/p/falslev" {
		t.Errorf("link = %q", first.Link)
	}
	if first.Image != "https://jysk.example/i/falslev.jpg" {
		t.Errorf("image = %q", first.Image)
	}
	if first.Category != "Sofa beds" {
		t.Errorf("category = %q", first.Category)
	}
	if first.Site != Site || first.SiteName != SiteName {
		t.Errorf("site tags = %q/%q", first.Site, first.SiteName)
	}

	// Fallback product link selector.
	if items[1].Link != "https://jysk.example/p/egense" {
		t.Errorf("fallback link = %q", items[1].Link)
	}
	if items[1].Image != "" {
		t.Errorf("missing image should stay empty, got %q", items[1].Image)
	}

	if items[2].Title != "Bed frame GISTRUP" {
		t.Errorf("second page item = %+v", items[2])
	}
}

func TestFetchCategoryStopsWithoutNextMarker(t *testing.T) {
	var pagesServed int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pagesServed++
		fmt.Fprint(w, page2) // products but no next marker
	}))
	defer ts.Close()

	items, err := NewScraper().FetchCategory(ts.URL + "/beds/")
	if err != nil {
		t.Fatalf("FetchCategory failed: %v", err)
	}
	if len(items) != 1 {
		t.Errorf("expected 1 item, got %d", len(items))
	}
	if pagesServed != 1 {
		t.Errorf("expected pagination to stop after 1 page, served %d", pagesServed)
	}
}

func TestFetchCategoryFirstPageError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(http.NotFound))
	defer ts.Close()

	items, err := NewScraper().FetchCategory(ts.URL + "/nope/")
	if err == nil {
		t.Error("expected an error when the first page fails")
	}
	if len(items) != 0 {
		t.Errorf("expected no items, got %d", len(items))
	}
}
