package layout

import (
	"context"
	"time"
)

// Scheduler drives a Run one item per tick so callers are never blocked
// for a whole layout pass.
type Scheduler struct {
	Interval time.Duration

	// Ready reports whether the rendering surface can take another item.
	// While it returns false ticks are skipped and the run pauses.
	Ready func() bool

	// OnPlace is called after each accepted placement.
	OnPlace func(Placed)
}

// Drive steps run until it is done or ctx is cancelled. On cancellation
// the placements made so far are returned together with ctx.Err().
func (s *Scheduler) Drive(ctx context.Context, run *Run) (Result, error) {
	interval := s.Interval
	if interval <= 0 {
		interval = 4 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for !run.Done() {
		select {
		case <-ctx.Done():
			return run.Result(), ctx.Err()
		case <-ticker.C:
		}
		if err := ctx.Err(); err != nil {
			return run.Result(), err
		}

		if s.Ready != nil && !s.Ready() {
			continue
		}
		if p, ok := run.Step(); ok && s.OnPlace != nil {
			s.OnPlace(p)
		}
	}
	return run.Result(), nil
}
