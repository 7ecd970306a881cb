// Package reviewcloud mines polarity-labeled reviews into weighted terms
// and lays them out as a word cloud.
package reviewcloud

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/cognicore/reviewcloud/pkg/reviewcloud/cloud"
	"github.com/cognicore/reviewcloud/pkg/reviewcloud/config"
	"github.com/cognicore/reviewcloud/pkg/reviewcloud/ingest"
	"github.com/cognicore/reviewcloud/pkg/reviewcloud/layout"
	"github.com/cognicore/reviewcloud/pkg/reviewcloud/rank"
	"github.com/cognicore/reviewcloud/pkg/reviewcloud/sanitize"
	"github.com/cognicore/reviewcloud/pkg/reviewcloud/stoplist"
	"github.com/cognicore/reviewcloud/pkg/reviewcloud/store"
	"github.com/cognicore/reviewcloud/pkg/reviewcloud/terms"
)

// ErrNoStore is returned by operations that need a store when none is set.
var ErrNoStore = errors.New("reviewcloud: no store configured")

// Engine is the main facade
type Engine struct {
	cfg       config.Config
	stops     *stoplist.Manager
	store     store.Store
	measurer  layout.Measurer
	logger    *log.Logger
	builder   *cloud.Builder
	sanitizer *sanitize.Sanitizer
	extractor *ingest.Extractor
	ready     func() bool
	onPlace   func(layout.Placed)
}

// Options configures an Engine
type Options struct {
	Config   config.Config
	Stoplist *stoplist.Manager // nil = embedded default
	Store    store.Store       // optional
	Measurer layout.Measurer   // nil = Go Regular font metrics
	Logger   *log.Logger       // nil = log.Default()

	// Layout hooks, see layout.Options.
	Ready   func() bool
	OnPlace func(layout.Placed)
}

// New validates the configuration and creates an Engine.
func New(opts Options) (*Engine, error) {
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:       opts.Config,
		stops:     opts.Stoplist,
		store:     opts.Store,
		measurer:  opts.Measurer,
		logger:    opts.Logger,
		builder:   cloud.New(),
		sanitizer: sanitize.New(),
		extractor: ingest.NewExtractor(),
		ready:     opts.Ready,
		onPlace:   opts.OnPlace,
	}
	if e.stops == nil {
		e.stops = stoplist.Default()
	}
	if e.logger == nil {
		e.logger = log.Default()
	}
	if e.measurer == nil {
		m, err := layout.NewFontMeasurer()
		if err != nil {
			return nil, fmt.Errorf("load font: %w", err)
		}
		e.measurer = m
	}
	return e, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() config.Config {
	return e.cfg
}

// Close releases the store, if any.
func (e *Engine) Close() error {
	if e.store == nil {
		return nil
	}
	return e.store.Close()
}

// Report describes what a mining run did.
type Report struct {
	Reviews     int
	Skipped     int
	Duplicates  int
	RarePhrases int
	Filtered    map[string]int
	Subsumed    []terms.Subsumption
	Merges      []terms.Merge
	Phrases     int
	Words       int
}

// Mine runs sanitization, extraction, aggregation, filtering, pruning,
// re-tokenization and consolidation over reviews. Invalid and duplicate
// records are logged and skipped. The returned table holds only terms with
// a non-zero total.
func (e *Engine) Mine(ctx context.Context, reviews []ingest.Review) (*terms.Table, Report, error) {
	return e.mine(ctx, reviews, e.cfg.ProductName)
}

func (e *Engine) mine(ctx context.Context, reviews []ingest.Review, productName string) (*terms.Table, Report, error) {
	r := e.newRun(productName)
	if err := r.mine(ctx, reviews); err != nil {
		return nil, r.report, err
	}
	return r.table, r.report, nil
}

// Items mines reviews and returns the weighted cloud items.
func (e *Engine) Items(ctx context.Context, reviews []ingest.Review) ([]rank.Item, Report, error) {
	return e.items(ctx, reviews, e.cfg.ProductName)
}

func (e *Engine) items(ctx context.Context, reviews []ingest.Review, productName string) ([]rank.Item, Report, error) {
	table, report, err := e.mine(ctx, reviews, productName)
	if err != nil {
		return nil, report, err
	}
	return rank.NewCalculator(e.cfg.Weights()).Items(table), report, nil
}

// ProductName returns the name excluded from appID's terms: the configured
// product name, else the name saved in the store, else fallback.
func (e *Engine) ProductName(ctx context.Context, appID, fallback string) (string, error) {
	if e.cfg.ProductName != "" {
		return e.cfg.ProductName, nil
	}
	if e.store != nil && appID != "" {
		name, ok, err := e.store.AppName(ctx, appID)
		if err != nil {
			return "", fmt.Errorf("load app name: %w", err)
		}
		if ok && name != "" {
			return name, nil
		}
	}
	return fallback, nil
}

// Build mines reviews, lays the items out and returns the finished cloud.
// The product name (see ProductName, with title as fallback) is excluded
// from the terms and titles the cloud when title is empty. The cloud is
// saved to the store when one is configured. On cancellation during layout
// the partial cloud is returned with ctx.Err().
func (e *Engine) Build(ctx context.Context, appID, title string, reviews []ingest.Review) (cloud.Cloud, error) {
	name, err := e.ProductName(ctx, appID, title)
	if err != nil {
		return cloud.Cloud{}, err
	}
	items, report, err := e.items(ctx, reviews, name)
	if err != nil {
		return cloud.Cloud{}, err
	}
	if len(items) == 0 {
		e.logger.Printf("Warning: no terms survived filtering for %q (%d reviews)", appID, report.Reviews)
	}

	opts := e.cfg.LayoutOptions()
	opts.Measurer = e.measurer
	opts.Logger = e.logger
	opts.Ready = e.ready
	opts.OnPlace = e.onPlace
	eng, err := layout.NewEngine(opts)
	if err != nil {
		return cloud.Cloud{}, err
	}

	if title == "" {
		title = name
	}
	res, layoutErr := eng.Layout(ctx, items)
	c := e.builder.Build(appID, title, report.Reviews, res)
	if layoutErr != nil {
		return c, layoutErr
	}

	if e.store != nil {
		if err := e.store.SaveCloud(ctx, c); err != nil {
			return c, fmt.Errorf("save cloud: %w", err)
		}
	}
	return c, nil
}

// BuildStored builds a cloud from the reviews stored for appID.
func (e *Engine) BuildStored(ctx context.Context, appID, title string) (cloud.Cloud, error) {
	if e.store == nil {
		return cloud.Cloud{}, ErrNoStore
	}
	reviews, err := e.store.Reviews(ctx, appID)
	if err != nil {
		return cloud.Cloud{}, fmt.Errorf("load reviews: %w", err)
	}
	return e.Build(ctx, appID, title, reviews)
}

// SaveApp records the display name of appID in the store.
func (e *Engine) SaveApp(ctx context.Context, appID, name string) error {
	if e.store == nil {
		return ErrNoStore
	}
	return e.store.SaveApp(ctx, appID, name)
}

// Import stores reviews for appID and returns how many were new.
func (e *Engine) Import(ctx context.Context, appID string, reviews []ingest.Review) (int, error) {
	if e.store == nil {
		return 0, ErrNoStore
	}
	return e.store.UpsertReviews(ctx, appID, reviews)
}
