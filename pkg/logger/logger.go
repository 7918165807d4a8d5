package logger

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// Dedup logs like log.Printf but collapses runs of identical messages into a
// single line with a repeat count. Scrape passes emit the same per-page and
// "no data yet" lines many times in a row; this keeps the log readable.
func Dedup(format string, args ...any) {
	collapser.log(fmt.Sprintf(format, args...))
}

var collapser = &messageCollapser{flushDelay: 2 * time.Second}

type messageCollapser struct {
	mu         sync.Mutex
	last       string
	repeats    int
	flushDelay time.Duration
	timer      *time.Timer
}

func (c *messageCollapser) log(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if msg != c.last {
		c.flushLocked()
		c.last = msg
		c.repeats = 0
	}
	c.repeats++
	c.rearmLocked()
}

func (c *messageCollapser) rearmLocked() {
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.flushDelay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.flushLocked()
		c.last = ""
	})
}

func (c *messageCollapser) flushLocked() {
	switch {
	case c.repeats == 1:
		log.Print(c.last)
	case c.repeats > 1:
		log.Printf("%s (%d)", c.last, c.repeats)
	}
	c.repeats = 0
}
