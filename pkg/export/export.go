// Package export renders catalog data as downloadable CSV, ZIP and XLSX files.
package export

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"mebelwatch/pkg/models"
	"mebelwatch/pkg/stats"
)

// FileStamp formats a timestamp the way exported file names embed it.
func FileStamp(t time.Time) string {
	return t.Format("20060102_150405")
}

var statsHeader = []string{
	"Category", "Products", "Sites", "Avg price", "Min price", "Max price", "Price range", "Site list",
}

// StatsCSV renders the per-category statistics table.
func StatsCSV(categories []stats.CategoryStats) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(statsHeader); err != nil {
		return nil, err
	}
	for _, c := range categories {
		row := []string{
			c.Category,
			strconv.Itoa(c.TotalProducts),
			strconv.Itoa(c.SitesCount),
			formatFloat(c.AvgPrice),
			strconv.Itoa(c.MinPrice),
			strconv.Itoa(c.MaxPrice),
			c.PriceRange,
			strings.Join(c.Sites, ", "),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	return buf.Bytes(), w.Error()
}

var comparisonHeader = []string{
	"Category", "Status", "Diff (%)", "Diff", "Reference avg", "Reference min", "Reference max",
	"Reference products", "Market avg", "Market min", "Market max", "Market products", "Total sites",
}

func comparisonCSV(result *stats.ComparisonResult) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(comparisonHeader); err != nil {
		return nil, err
	}
	for _, c := range result.Comparison {
		row := []string{
			c.Category,
			c.Comparison.Status,
			formatFloat(c.Comparison.PriceDiffPercent) + "%",
			formatFloat(c.Comparison.PriceDiff),
			formatFloat(c.ReferenceStats.AvgPrice),
			strconv.Itoa(c.ReferenceStats.MinPrice),
			strconv.Itoa(c.ReferenceStats.MaxPrice),
			strconv.Itoa(c.ReferenceStats.Count),
			formatFloat(c.MarketStats.AvgPrice),
			strconv.Itoa(c.MarketStats.MinPrice),
			strconv.Itoa(c.MarketStats.MaxPrice),
			strconv.Itoa(c.MarketStats.Count),
			strconv.Itoa(c.Samples.TotalSites),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	return buf.Bytes(), w.Error()
}

func summaryCSV(summary stats.Summary, now time.Time) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	rows := [][]string{
		{"Parameter", "Value"},
		{"Total categories", strconv.Itoa(summary.TotalCategories)},
		{"Reference cheaper", strconv.Itoa(summary.CategoriesWhereCheaper)},
		{"Reference more expensive", strconv.Itoa(summary.CategoriesWhereExpensive)},
		{"Market-level", strconv.Itoa(summary.CategoriesWhereNormal)},
		{"Avg difference", formatFloat(summary.AvgPriceDiff) + "%"},
		{"Reference advantage", yesNo(summary.ReferenceAdvantage)},
		{"Exported at", now.Format("2006-01-02 15:04:05")},
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ComparisonZIP bundles the comparison table and its summary as two CSV files.
func ComparisonZIP(result *stats.ComparisonResult, now time.Time) ([]byte, error) {
	table, err := comparisonCSV(result)
	if err != nil {
		return nil, fmt.Errorf("render comparison csv: %w", err)
	}
	summary, err := summaryCSV(result.Summary, now)
	if err != nil {
		return nil, fmt.Errorf("render summary csv: %w", err)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	files := []struct {
		name string
		data []byte
	}{
		{fmt.Sprintf("comparison_%s.csv", FileStamp(now)), table},
		{fmt.Sprintf("summary_%s.csv", FileStamp(now)), summary},
	}
	for _, f := range files {
		entry, err := zw.Create(f.name)
		if err != nil {
			return nil, fmt.Errorf("create zip entry %s: %w", f.name, err)
		}
		if _, err := entry.Write(f.data); err != nil {
			return nil, fmt.Errorf("write zip entry %s: %w", f.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close zip: %w", err)
	}
	return buf.Bytes(), nil
}

// FullReportXLSX renders the whole catalog as a four-sheet workbook:
// Products, Statistics, Comparison and Summary.
func FullReportXLSX(products []models.Product, categories []stats.CategoryStats, result *stats.ComparisonResult, lastParsed string, now time.Time) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "Products"); err != nil {
		return nil, err
	}

	productRows := [][]any{{"Title", "Price", "Link", "Image", "Category", "Site", "Site name", "Category URL"}}
	for _, p := range products {
		productRows = append(productRows, []any{p.Title, p.Price, p.Link, p.Image, p.Category, p.Site, p.SiteName, p.CategoryURL})
	}
	if err := writeSheet(f, "Products", productRows); err != nil {
		return nil, err
	}

	statsRows := [][]any{{"Category", "Products", "Sites", "Avg price", "Min price", "Max price", "Price range", "Site list"}}
	for _, c := range categories {
		statsRows = append(statsRows, []any{c.Category, c.TotalProducts, c.SitesCount, c.AvgPrice, c.MinPrice, c.MaxPrice, c.PriceRange, strings.Join(c.Sites, ", ")})
	}
	if err := addSheet(f, "Statistics", statsRows); err != nil {
		return nil, err
	}

	cmpRows := [][]any{{
		"Category", "Status", "Diff (%)", "Diff", "Reference avg", "Reference min", "Reference max",
		"Reference products", "Market avg", "Market min", "Market max", "Market products",
	}}
	for _, c := range result.Comparison {
		cmpRows = append(cmpRows, []any{
			c.Category, c.Comparison.Status, c.Comparison.PriceDiffPercent, c.Comparison.PriceDiff,
			c.ReferenceStats.AvgPrice, c.ReferenceStats.MinPrice, c.ReferenceStats.MaxPrice, c.ReferenceStats.Count,
			c.MarketStats.AvgPrice, c.MarketStats.MinPrice, c.MarketStats.MaxPrice, c.MarketStats.Count,
		})
	}
	if err := addSheet(f, "Comparison", cmpRows); err != nil {
		return nil, err
	}

	if lastParsed == "" {
		lastParsed = "never"
	}
	summaryRows := [][]any{
		{"Total categories", result.Summary.TotalCategories},
		{"Reference cheaper", result.Summary.CategoriesWhereCheaper},
		{"Reference more expensive", result.Summary.CategoriesWhereExpensive},
		{"Market-level", result.Summary.CategoriesWhereNormal},
		{"Avg difference (%)", result.Summary.AvgPriceDiff},
		{"Reference advantage", yesNo(result.Summary.ReferenceAdvantage)},
		{"Report date", now.Format("2006-01-02 15:04:05")},
		{"Last scrape", lastParsed},
	}
	if err := addSheet(f, "Summary", summaryRows); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func addSheet(f *excelize.File, name string, rows [][]any) error {
	if _, err := f.NewSheet(name); err != nil {
		return err
	}
	return writeSheet(f, name, rows)
}

func writeSheet(f *excelize.File, name string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(name, cell, &row); err != nil {
			return fmt.Errorf("write sheet %s row %d: %w", name, i+1, err)
		}
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
