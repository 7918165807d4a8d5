// Package store persists the catalog as whole-file JSON documents.
//
// Every document is read and written in full; a scrape pass replaces prior
// data instead of merging into it. Read paths treat missing or malformed
// files as "no data yet" so a broken file never takes the API down.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"mebelwatch/pkg/logger"
	"mebelwatch/pkg/models"
)

const (
	productsFile   = "products.json"
	categoriesFile = "categories.json"
	comparisonFile = "comparison.json"
)

// Store reads and writes catalog documents under a single data directory.
type Store struct {
	dir string
}

// New creates the data directory if needed and returns a store over it.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the data directory the store operates on.
func (s *Store) Dir() string {
	return s.dir
}

// ProductsPath returns the path of the product collection file. Export
// handlers serve the file directly as an attachment.
func (s *Store) ProductsPath() string {
	return filepath.Join(s.dir, productsFile)
}

// LoadProducts returns the stored collection, or an empty one when nothing
// has been written yet or the file cannot be decoded.
func (s *Store) LoadProducts() []models.Product {
	var products []models.Product
	if !s.loadJSON(productsFile, &products) {
		return nil
	}
	return products
}

// SaveProducts overwrites the product collection.
func (s *Store) SaveProducts(products []models.Product) error {
	if products == nil {
		products = []models.Product{}
	}
	return s.saveJSON(productsFile, products)
}

// LoadSnapshot returns the stored category snapshot, or nil when absent.
func (s *Store) LoadSnapshot() *models.CategorySnapshot {
	var snap models.CategorySnapshot
	if !s.loadJSON(categoriesFile, &snap) {
		return nil
	}
	return &snap
}

// SaveSnapshot overwrites the category snapshot.
func (s *Store) SaveSnapshot(snap *models.CategorySnapshot) error {
	return s.saveJSON(categoriesFile, snap)
}

// Comparison is the persisted comparison artifact. It is a write-only cache
// kept for exports; computations never read it back.
type Comparison struct {
	Timestamp string `json:"timestamp"`
	Data      any    `json:"data"`
}

// SaveComparison overwrites the comparison snapshot.
func (s *Store) SaveComparison(cmp *Comparison) error {
	return s.saveJSON(comparisonFile, cmp)
}

func (s *Store) loadJSON(name string, v any) bool {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Dedup("Store: read %s: %v", name, err)
		}
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		logger.Dedup("Store: decode %s: %v", name, err)
		return false
	}
	return true
}

func (s *Store) saveJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
