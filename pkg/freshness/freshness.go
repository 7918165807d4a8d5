// Package freshness gates full scrapes to at most one per calendar day.
package freshness

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Gate owns the last-parsed timestamp, persisted as a single RFC 3339 line.
type Gate struct {
	path string
	now  func() time.Time
}

// New returns a gate persisting to path.
func New(path string) *Gate {
	return &Gate{path: path, now: time.Now}
}

// LastParsed returns the recorded timestamp, or nil when none is recorded or
// the file cannot be parsed.
func (g *Gate) LastParsed() *time.Time {
	data, err := os.ReadFile(g.path)
	if err != nil {
		return nil
	}
	ts, err := time.Parse(time.RFC3339, strings.TrimSpace(string(data)))
	if err != nil {
		return nil
	}
	return &ts
}

// ShouldParseToday reports whether a scrape is due: nothing recorded yet, or
// the recorded timestamp falls on a different local calendar day than now.
func (g *Gate) ShouldParseToday() bool {
	last := g.LastParsed()
	if last == nil {
		return true
	}
	ly, lm, ld := last.Local().Date()
	ny, nm, nd := g.now().Date()
	return ly != ny || lm != nm || ld != nd
}

// RecordNow overwrites the recorded timestamp with the current instant.
func (g *Gate) RecordNow() error {
	ts := g.now().Format(time.RFC3339)
	if err := os.WriteFile(g.path, []byte(ts), 0644); err != nil {
		return fmt.Errorf("write last-parsed file: %w", err)
	}
	return nil
}

// DaysSince returns full calendar days elapsed since the last scrape, or -1
// when none is recorded.
func (g *Gate) DaysSince() int {
	last := g.LastParsed()
	if last == nil {
		return -1
	}
	lastDay := truncateToDay(last.Local())
	today := truncateToDay(g.now())
	return int(today.Sub(lastDay).Hours() / 24)
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
