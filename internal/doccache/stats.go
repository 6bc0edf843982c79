package doccache

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/opencontainers/go-digest"
)

// Lookup records one Load: which file, its content digest, whether the
// document came from the cache and how long the call took.
type Lookup struct {
	Path     string
	Digest   digest.Digest
	Hit      bool
	Duration time.Duration
}

// FileReport summarizes lookups of a single path.
type FileReport struct {
	Path     string
	Lookups  int
	Hits     int
	Duration time.Duration
}

// Report aggregates lookups across all files.
type Report struct {
	Files []FileReport
}

// HitRate returns the overall cache hit ratio (0.0-1.0).
// Returns 0 when there were no lookups.
func (r Report) HitRate() float64 {
	var total, hits int
	for i := range r.Files {
		total += r.Files[i].Lookups
		hits += r.Files[i].Hits
	}
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// Collector accumulates lookups. It is safe for concurrent use.
type Collector struct {
	mu      sync.Mutex
	order   []string            // paths in first-observed order
	lookups map[string][]Lookup // path -> lookups
}

// NewCollector returns a new Collector ready for use.
func NewCollector() *Collector {
	return &Collector{lookups: make(map[string][]Lookup)}
}

// Observe records a lookup. Lookups without a digest never reached the
// cache (the file could not be read) and are skipped.
func (c *Collector) Observe(l Lookup) {
	if l.Digest == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lookups[l.Path] == nil {
		c.order = append(c.order, l.Path)
	}
	c.lookups[l.Path] = append(c.lookups[l.Path], l)
}

// Report returns the aggregated statistics in first-observed order.
func (c *Collector) Report() Report {
	c.mu.Lock()
	defer c.mu.Unlock()
	r := Report{Files: make([]FileReport, 0, len(c.order))}
	for _, path := range c.order {
		ls := c.lookups[path]
		fr := FileReport{Path: path, Lookups: len(ls)}
		for i := range ls {
			if ls[i].Hit {
				fr.Hits++
			}
			fr.Duration += ls[i].Duration
		}
		r.Files = append(r.Files, fr)
	}
	return r
}

// PrintReport writes a human-readable cache summary to w.
func PrintReport(w io.Writer, r Report) {
	_, _ = fmt.Fprintln(w, "Document cache:")
	var lookups, hits int
	for _, fr := range r.Files {
		lookups += fr.Lookups
		hits += fr.Hits
		_, _ = fmt.Fprintf(w, "  %-24s %d/%d hits (%4.1f%%)  %s\n",
			fr.Path, fr.Hits, fr.Lookups, percent(fr.Hits, fr.Lookups), fr.Duration.Round(time.Millisecond))
	}
	_, _ = fmt.Fprintf(w, "  Overall: %d/%d hits (%4.1f%%)\n", hits, lookups, percent(hits, lookups))
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}
