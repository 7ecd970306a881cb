// Package corpus gathers review batches from concurrent sources into one
// deduplicated record set.
package corpus

import (
	"context"
	"log"
	"sync"

	"github.com/cognicore/reviewcloud/pkg/reviewcloud/ingest"
)

// Stats summarizes what a Collector has seen.
type Stats struct {
	Batches    int
	Failed     int
	Accepted   int
	Duplicates int
	Invalid    int
}

// Collector is a counted barrier: Wait returns once Complete has been
// called the expected number of times, in any order.
type Collector struct {
	mu       sync.Mutex
	expected int
	seen     map[string]struct{}
	reviews  []ingest.Review
	errs     []error
	stats    Stats
	done     chan struct{}
	logger   *log.Logger
}

// NewCollector creates a collector expecting the given number of batches.
func NewCollector(expected int) *Collector {
	c := &Collector{
		expected: expected,
		seen:     make(map[string]struct{}),
		done:     make(chan struct{}),
		logger:   log.Default(),
	}
	if expected <= 0 {
		close(c.done)
	}
	return c
}

// SetLogger replaces the diagnostics logger.
func (c *Collector) SetLogger(l *log.Logger) {
	if l == nil {
		return
	}
	c.mu.Lock()
	c.logger = l
	c.mu.Unlock()
}

// Complete records one finished batch. A non-nil err marks the batch as
// failed; any records it carries are still accepted. Safe for concurrent
// use.
func (c *Collector) Complete(batch []ingest.RawReview, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stats.Batches >= c.expected {
		c.logger.Printf("Warning: ignoring batch beyond the expected %d", c.expected)
		return
	}

	c.stats.Batches++
	if err != nil {
		c.stats.Failed++
		c.errs = append(c.errs, err)
		c.logger.Printf("Warning: review batch failed: %v", err)
	}
	for _, raw := range batch {
		c.acceptLocked(raw)
	}

	if c.stats.Batches == c.expected {
		close(c.done)
	}
}

func (c *Collector) acceptLocked(raw ingest.RawReview) {
	rev, err := raw.Review()
	if err != nil {
		c.stats.Invalid++
		c.logger.Printf("Warning: skipping review %q: %v", raw.ID, err)
		return
	}
	if _, dup := c.seen[rev.ID]; dup {
		c.stats.Duplicates++
		return
	}
	c.seen[rev.ID] = struct{}{}
	c.reviews = append(c.reviews, rev)
	c.stats.Accepted++
}

// Wait blocks until every expected batch completed or ctx is done. It
// returns the accepted reviews in arrival order.
func (c *Collector) Wait(ctx context.Context) ([]ingest.Review, error) {
	select {
	case <-c.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return c.Reviews(), nil
}

// Reviews returns a snapshot of the reviews accepted so far.
func (c *Collector) Reviews() []ingest.Review {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]ingest.Review(nil), c.reviews...)
}

// Errors returns the errors of failed batches.
func (c *Collector) Errors() []error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]error(nil), c.errs...)
}

// Stats returns the current counters.
func (c *Collector) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Dedupe validates raw records and drops repeated IDs, keeping the first
// occurrence. Rejected records are logged.
func Dedupe(raws []ingest.RawReview, logger *log.Logger) ([]ingest.Review, Stats) {
	c := NewCollector(1)
	c.SetLogger(logger)
	c.Complete(raws, nil)
	return c.Reviews(), c.Stats()
}
