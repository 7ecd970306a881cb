// Package layout places weighted labels on a fixed-size canvas without
// overlap, searching outward along a spiral from the canvas center.
package layout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/cognicore/reviewcloud/pkg/reviewcloud/rank"
)

// ErrInvalidCanvas is returned for non-positive or non-finite canvas dimensions.
var ErrInvalidCanvas = errors.New("layout: invalid canvas")

// Shape selects the spiral growth mode.
type Shape string

const (
	Elliptical  Shape = "elliptical"
	Rectangular Shape = "rectangular"
)

// ParseShape accepts "elliptical" (or "elliptic") and "rectangular".
func ParseShape(s string) (Shape, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "elliptical", "elliptic":
		return Elliptical, nil
	case "rectangular":
		return Rectangular, nil
	}
	return "", fmt.Errorf("unknown spiral shape %q", s)
}

// DefaultStep returns the spiral step used when none is configured.
func (s Shape) DefaultStep() float64 {
	if s == Rectangular {
		return 18
	}
	return 2
}

// Options configures an Engine.
type Options struct {
	Width  float64
	Height float64

	Padding         float64 // gap kept around every label
	Step            float64 // spiral step, 0 = shape default
	Shape           Shape
	RadiusCapFactor float64 // search stops at factor × canvas diagonal

	BaseFontSize    float64 // font size at display weight 1
	FontStepPercent float64 // growth per display-weight unit
	MaxFontSize     float64 // 0 = uncapped
	MinDisplayValue float64 // HSV value of the lightest level

	// Items above this count are placed one per tick of TickInterval.
	DelayedModeThreshold int
	TickInterval         time.Duration

	// Seed for angle and jitter; 0 picks a random seed.
	Seed uint64

	Measurer Measurer
	Logger   *log.Logger

	// Ready gates delayed-mode ticks; OnPlace observes every placement.
	Ready   func() bool
	OnPlace func(Placed)
}

// DefaultOptions returns the stock canvas and spiral settings.
func DefaultOptions() Options {
	return Options{
		Width:                600,
		Height:               350,
		Padding:              3,
		Shape:                Elliptical,
		RadiusCapFactor:      2,
		BaseFontSize:         10,
		FontStepPercent:      35,
		MaxFontSize:          64,
		MinDisplayValue:      0.55,
		DelayedModeThreshold: 50,
		TickInterval:         4 * time.Millisecond,
	}
}

// Box is an axis-aligned rectangle; X and Y are its top-left corner.
type Box struct {
	X, Y, Width, Height float64
}

// Overlaps reports whether the boxes, each grown by padding/2 on every
// side, intersect.
func (b Box) Overlaps(o Box, padding float64) bool {
	dx := math.Abs((b.X + b.Width/2) - (o.X + o.Width/2))
	dy := math.Abs((b.Y + b.Height/2) - (o.Y + o.Height/2))
	return dx < (b.Width+padding)/2+(o.Width+padding)/2 &&
		dy < (b.Height+padding)/2+(o.Height+padding)/2
}

// Within reports whether the box grown by padding/2 fits in w×h.
func (b Box) Within(w, h, padding float64) bool {
	half := padding / 2
	return b.X-half >= 0 && b.Y-half >= 0 &&
		b.X+b.Width+half <= w && b.Y+b.Height+half <= h
}

// Placed is a label accepted by the engine. It is never moved afterwards.
type Placed struct {
	Text          string  `json:"text"`
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	Width         float64 `json:"width"`
	Height        float64 `json:"height"`
	FontSize      float64 `json:"font_size"`
	Level         int     `json:"level"`
	Hue           float64 `json:"hue"`
	Saturation    float64 `json:"saturation"`
	Value         float64 `json:"value"`
	DisplayWeight float64 `json:"display_weight"`
}

// Box returns the unpadded bounding box.
func (p Placed) Box() Box {
	return Box{X: p.X, Y: p.Y, Width: p.Width, Height: p.Height}
}

// Result is the outcome of one layout pass.
type Result struct {
	Width   float64
	Height  float64
	Placed  []Placed
	Dropped []string
}

// Engine lays out ranked items.
type Engine struct {
	opts   Options
	logger *log.Logger
}

// NewEngine validates opts and fills in defaults.
func NewEngine(opts Options) (*Engine, error) {
	if !finite(opts.Width) || !finite(opts.Height) || opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("%w: %vx%v", ErrInvalidCanvas, opts.Width, opts.Height)
	}
	for _, v := range []float64{opts.Padding, opts.Step, opts.RadiusCapFactor, opts.BaseFontSize, opts.FontStepPercent, opts.MaxFontSize} {
		if !finite(v) {
			return nil, fmt.Errorf("layout: non-finite option %v", v)
		}
	}
	if opts.Shape == "" {
		opts.Shape = Elliptical
	}
	if opts.Shape != Elliptical && opts.Shape != Rectangular {
		return nil, fmt.Errorf("unknown spiral shape %q", opts.Shape)
	}
	if opts.Step <= 0 {
		opts.Step = opts.Shape.DefaultStep()
	}
	if opts.RadiusCapFactor <= 0 {
		opts.RadiusCapFactor = 2
	}
	if opts.BaseFontSize <= 0 {
		opts.BaseFontSize = 10
	}
	if opts.Padding < 0 {
		opts.Padding = 0
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = 4 * time.Millisecond
	}
	if opts.Measurer == nil {
		m, err := NewFontMeasurer()
		if err != nil {
			return nil, fmt.Errorf("load font: %w", err)
		}
		opts.Measurer = m
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{opts: opts, logger: logger}, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Options returns the effective options.
func (e *Engine) Options() Options {
	return e.opts
}

// FontSize maps a display weight to a font size.
func (e *Engine) FontSize(displayWeight float64) float64 {
	size := e.opts.BaseFontSize * (1 + e.opts.FontStepPercent/100*(displayWeight-1))
	if size < 1 {
		size = 1
	}
	if e.opts.MaxFontSize > 0 && size > e.opts.MaxFontSize {
		size = e.opts.MaxFontSize
	}
	return size
}

// Start prepares an incremental run over items, which must already be
// sorted highest weight first.
func (e *Engine) Start(items []rank.Item) *Run {
	seed := e.opts.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	r := &Run{
		engine: e,
		items:  items,
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
	for i, it := range items {
		if i == 0 || it.DisplayWeight < r.minWeight {
			r.minWeight = it.DisplayWeight
		}
		if i == 0 || it.DisplayWeight > r.maxWeight {
			r.maxWeight = it.DisplayWeight
		}
	}
	return r
}

// Layout places every item. Above the delayed-mode threshold items are
// placed one per tick. On cancellation the labels placed so far are
// returned together with ctx.Err().
func (e *Engine) Layout(ctx context.Context, items []rank.Item) (Result, error) {
	run := e.Start(items)
	if e.opts.DelayedModeThreshold > 0 && len(items) > e.opts.DelayedModeThreshold {
		s := &Scheduler{Interval: e.opts.TickInterval, Ready: e.opts.Ready, OnPlace: e.opts.OnPlace}
		return s.Drive(ctx, run)
	}
	for !run.Done() {
		if err := ctx.Err(); err != nil {
			return run.Result(), err
		}
		if p, ok := run.Step(); ok && e.opts.OnPlace != nil {
			e.opts.OnPlace(p)
		}
	}
	return run.Result(), nil
}

// Run is one layout pass. It owns its placed set and is not safe for
// concurrent use.
type Run struct {
	engine *Engine
	items  []rank.Item
	next   int
	rng    *rand.Rand

	minWeight, maxWeight float64

	placed  []Placed
	dropped []string
}

// Done reports whether every item has been processed.
func (r *Run) Done() bool {
	return r.next >= len(r.items)
}

// Remaining returns the number of unprocessed items.
func (r *Run) Remaining() int {
	return len(r.items) - r.next
}

// Step processes the next item. It reports false when the item was
// dropped or the run is already done.
func (r *Run) Step() (Placed, bool) {
	if r.Done() {
		return Placed{}, false
	}
	idx := r.next
	r.next++

	it := r.items[idx]
	p, reason := r.place(idx, it)
	if reason != "" {
		r.dropped = append(r.dropped, it.Text)
		r.engine.logger.Printf("layout: dropped %q: %s", it.Text, reason)
		return Placed{}, false
	}
	r.placed = append(r.placed, p)
	return p, true
}

// Result returns the placements so far.
func (r *Run) Result() Result {
	return Result{
		Width:   r.engine.opts.Width,
		Height:  r.engine.opts.Height,
		Placed:  append([]Placed(nil), r.placed...),
		Dropped: append([]string(nil), r.dropped...),
	}
}

// Level maps a display weight to 1..10 between the run's extremes.
func (r *Run) Level(displayWeight float64) int {
	if r.maxWeight <= r.minWeight {
		return 5
	}
	return int(math.Round((displayWeight-r.minWeight)/(r.maxWeight-r.minWeight)*9)) + 1
}

func (r *Run) collides(b Box) bool {
	for _, p := range r.placed {
		if b.Overlaps(p.Box(), r.engine.opts.Padding) {
			return true
		}
	}
	return false
}

func (r *Run) place(idx int, it rank.Item) (Placed, string) {
	opts := r.engine.opts
	size := r.engine.FontSize(it.DisplayWeight)
	w, h := opts.Measurer.Measure(it.Text, size)

	box, ok := r.search(idx, w, h)
	if !ok {
		return Placed{}, "no free position within search radius"
	}
	if !box.Within(opts.Width, opts.Height, opts.Padding) {
		return Placed{}, "out of bounds"
	}

	level := r.Level(it.DisplayWeight)
	return Placed{
		Text:          it.Text,
		X:             box.X,
		Y:             box.Y,
		Width:         w,
		Height:        h,
		FontSize:      size,
		Level:         level,
		Hue:           it.Hue,
		Saturation:    it.Saturation,
		Value:         opts.MinDisplayValue + (1-opts.MinDisplayValue)*float64(level)/10,
		DisplayWeight: it.DisplayWeight,
	}, ""
}
