package main

import (
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"mebelwatch/pkg/config"
	"mebelwatch/pkg/freshness"
	"mebelwatch/pkg/history"
	"mebelwatch/pkg/scrape"
	"mebelwatch/pkg/scrapers"
	"mebelwatch/pkg/scrapers/akrammebel"
	"mebelwatch/pkg/scrapers/citymebel"
	"mebelwatch/pkg/scrapers/hoff"
	"mebelwatch/pkg/scrapers/jysk"
	"mebelwatch/pkg/store"
)

func main() {
	port := envOr("PORT", "9090")
	dataDir := envOr("DATA_DIR", "./data")
	sitesPath := envOr("SITES_CONFIG", "./sites.yaml")
	historyPath := envOr("HISTORY_DB_PATH", "./history.db")

	scrapeHour := 2
	if val := os.Getenv("SCRAPE_HOUR"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed >= 0 && parsed <= 23 {
			scrapeHour = parsed
		}
	}

	cfg, err := config.Load(sitesPath)
	if err != nil {
		log.Fatalf("Failed to load sites config: %v", err)
	}

	st, err := store.New(dataDir)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}

	hist, err := history.Open(historyPath)
	if err != nil {
		log.Fatalf("Failed to initialize scrape history: %v", err)
	}
	defer hist.Close()

	gate := freshness.New(filepath.Join(dataDir, "last_parsed.txt"))

	registry := map[string]scrapers.Scraper{
		"citymebel":  citymebel.NewScraper(),
		"jysk":       jysk.NewScraper(),
		"akrammebel": akrammebel.NewScraper(),
		"hoff":       hoff.NewScraper(),
	}

	runner := scrape.New(cfg, registry, st, gate, hist)

	a := &app{cfg: cfg, store: st, gate: gate, hist: hist, runner: runner}

	// Catch up on boot if today's pass hasn't happened yet.
	if gate.ShouldParseToday() {
		go runner.Run(false)
	}

	go scheduleDaily(runner, scrapeHour)

	mux := http.NewServeMux()
	a.routes(mux)

	if ip := outboundIP(); ip != nil {
		fmt.Printf("Local Network URL: http://%s:%s\n", ip.String(), port)
	}
	fmt.Printf("Access URL: http://localhost:%s\n", port)
	fmt.Printf("API Docs: http://localhost:%s/\n", port)

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Fatal(server.ListenAndServe())
}

// scheduleDaily fires an unforced scrape once a day at the given local hour.
// The freshness gate makes a redundant trigger a cheap no-op.
func scheduleDaily(runner *scrape.Runner, hour int) {
	for {
		time.Sleep(untilNextHour(time.Now(), hour))
		log.Printf("Daily trigger at %02d:00, checking freshness", hour)
		runner.Run(false)
	}
}

func untilNextHour(now time.Time, hour int) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now)
}

func envOr(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func outboundIP() net.IP {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return nil
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP
}
