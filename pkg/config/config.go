// Package config loads the retailer/category table the scrape pass iterates.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Configuration validation errors.
var (
	ErrNoSites              = errors.New("at least one site is required")
	ErrSiteMissingID        = errors.New("site id is required")
	ErrSiteMissingName      = errors.New("site name is required")
	ErrSiteMissingScraper   = errors.New("site scraper is required")
	ErrSiteNoCategories     = errors.New("site needs at least one category")
	ErrCategoryMissingName  = errors.New("category name is required")
	ErrCategoryMissingURL   = errors.New("category url is required")
	ErrMissingReferenceSite = errors.New("reference_site is required")
	ErrUnknownReferenceSite = errors.New("reference_site does not match any configured site")
)

// Config is the full sites configuration.
type Config struct {
	ReferenceSite string `yaml:"reference_site"`
	Sites         []Site `yaml:"sites"`
}

// Site is one retailer: a scraper selector plus its category listing URLs.
type Site struct {
	ID         string     `yaml:"id"`
	Name       string     `yaml:"name"`
	Scraper    string     `yaml:"scraper"`
	Categories []Category `yaml:"categories"`
}

// Category maps a logical category name to the site's listing URL for it.
type Category struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// Load reads and validates a sites configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sites config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse sites config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate sites config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the configuration for structural problems.
func (c *Config) Validate() error {
	if len(c.Sites) == 0 {
		return ErrNoSites
	}
	if c.ReferenceSite == "" {
		return ErrMissingReferenceSite
	}

	refFound := false
	for i, site := range c.Sites {
		if site.ID == "" {
			return fmt.Errorf("%w: sites[%d]", ErrSiteMissingID, i)
		}
		if site.Name == "" {
			return fmt.Errorf("%w: sites[%d]", ErrSiteMissingName, i)
		}
		if site.Scraper == "" {
			return fmt.Errorf("%w: sites[%d]", ErrSiteMissingScraper, i)
		}
		if len(site.Categories) == 0 {
			return fmt.Errorf("%w: sites[%d]", ErrSiteNoCategories, i)
		}
		for j, cat := range site.Categories {
			if cat.Name == "" {
				return fmt.Errorf("%w: sites[%d].categories[%d]", ErrCategoryMissingName, i, j)
			}
			if cat.URL == "" {
				return fmt.Errorf("%w: sites[%d].categories[%d]", ErrCategoryMissingURL, i, j)
			}
		}
		if site.ID == c.ReferenceSite {
			refFound = true
		}
	}

	if !refFound {
		return ErrUnknownReferenceSite
	}

	return nil
}
