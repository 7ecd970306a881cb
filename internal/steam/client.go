// Package steam fetches user reviews from the Steam store.
package steam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/temoto/robotstxt"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/cognicore/reviewcloud/pkg/reviewcloud/corpus"
	"github.com/cognicore/reviewcloud/pkg/reviewcloud/ingest"
)

const (
	DefaultBaseURL   = "https://store.steampowered.com"
	DefaultUserAgent = "reviewcloud/1.0"

	// PageSize is the number of reviews the legacy endpoint returns per request.
	PageSize = 5

	maxBodyBytes = 8 << 20
)

var (
	ErrInvalidAppID = errors.New("steam: app id must be numeric")
	ErrDisallowed   = errors.New("steam: path disallowed by robots.txt")
	ErrUnsuccessful = errors.New("steam: request reported failure")
)

// Options configures a Client.
type Options struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration

	// Request pacing shared by all goroutines of the client.
	RequestsPerSecond float64
	Burst             int
	// Parallel bounds concurrent page requests in FetchAll.
	Parallel int

	// DayRange excludes reviews older than this many days.
	DayRange int

	CacheTTL     time.Duration
	IgnoreRobots bool

	HTTPClient *http.Client
	Logger     *log.Logger
}

// DefaultOptions returns polite defaults for the public store.
func DefaultOptions() Options {
	return Options{
		BaseURL:           DefaultBaseURL,
		UserAgent:         DefaultUserAgent,
		Timeout:           15 * time.Second,
		RequestsPerSecond: 2,
		Burst:             2,
		Parallel:          4,
		DayRange:          720,
		CacheTTL:          10 * time.Minute,
	}
}

// Client talks to the Steam store.
type Client struct {
	opts    Options
	http    *http.Client
	limiter *rate.Limiter
	cache   *gocache.Cache
	logger  *log.Logger

	robotsOnce sync.Once
	robots     *robotstxt.RobotsData
}

// NewClient creates a client. Zero fields of opts take their defaults.
func NewClient(opts Options) *Client {
	def := DefaultOptions()
	if opts.BaseURL == "" {
		opts.BaseURL = def.BaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = def.UserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = def.RequestsPerSecond
	}
	if opts.Burst <= 0 {
		opts.Burst = def.Burst
	}
	if opts.Parallel <= 0 {
		opts.Parallel = def.Parallel
	}
	if opts.DayRange <= 0 {
		opts.DayRange = def.DayRange
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = def.CacheTTL
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Client{
		opts:    opts,
		http:    httpClient,
		limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.Burst),
		cache:   gocache.New(opts.CacheTTL, 2*opts.CacheTTL),
		logger:  logger,
	}
}

// AppName returns the display name shown on the app's store page.
func (c *Client) AppName(ctx context.Context, appID string) (string, error) {
	if err := checkAppID(appID); err != nil {
		return "", err
	}
	body, err := c.get(ctx, "/app/"+appID+"/", nil)
	if err != nil {
		return "", err
	}
	name, err := ParseAppName(string(body))
	if err != nil {
		return "", fmt.Errorf("app %s: %w", appID, err)
	}
	return name, nil
}

type pageResponse struct {
	Success int    `json:"success"`
	HTML    string `json:"html"`
}

// FetchPage requests one page of reviews starting at offset.
func (c *Client) FetchPage(ctx context.Context, appID string, offset int) ([]ingest.RawReview, error) {
	if err := checkAppID(appID); err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("start_offset", strconv.Itoa(offset))
	q.Set("day_range", strconv.Itoa(c.opts.DayRange))
	q.Set("filter", "all")

	body, err := c.get(ctx, "/appreviews/"+appID, q)
	if err != nil {
		return nil, err
	}

	var page pageResponse
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("decode page at offset %d: %w", offset, err)
	}
	if page.Success != 1 {
		return nil, fmt.Errorf("page at offset %d: %w (success=%d)", offset, ErrUnsuccessful, page.Success)
	}
	if page.HTML == "" {
		return nil, nil
	}
	return ParseReviews(page.HTML)
}

// FetchAll requests pages 0..pages-1 concurrently and completes coll once
// per page. Failed pages complete with their error. The collector should
// have been created expecting pages batches.
func (c *Client) FetchAll(ctx context.Context, appID string, pages int, coll *corpus.Collector) error {
	if err := checkAppID(appID); err != nil {
		return err
	}

	var g errgroup.Group
	g.SetLimit(c.opts.Parallel)
	for i := 0; i < pages; i++ {
		offset := i * PageSize
		g.Go(func() error {
			batch, err := c.FetchPage(ctx, appID, offset)
			if err != nil {
				err = fmt.Errorf("app %s offset %d: %w", appID, offset, err)
			}
			coll.Complete(batch, err)
			return nil
		})
	}
	_ = g.Wait()
	return ctx.Err()
}

// Fetch downloads pages of reviews for appID and returns the deduplicated,
// validated records.
func (c *Client) Fetch(ctx context.Context, appID string, pages int) ([]ingest.Review, corpus.Stats, error) {
	coll := corpus.NewCollector(pages)
	coll.SetLogger(c.logger)
	if err := c.FetchAll(ctx, appID, pages, coll); err != nil {
		return nil, coll.Stats(), err
	}
	reviews, err := coll.Wait(ctx)
	return reviews, coll.Stats(), err
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	rawURL := c.opts.BaseURL + path
	if len(query) > 0 {
		rawURL += "?" + query.Encode()
	}

	if cached, ok := c.cache.Get(rawURL); ok {
		return cached.([]byte), nil
	}

	if !c.allowed(ctx, path) {
		return nil, fmt.Errorf("%s: %w", path, ErrDisallowed)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", path, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	c.cache.SetDefault(rawURL, body)
	return body, nil
}

// allowed consults the store's robots.txt, fetched once per client. An
// unreachable robots.txt allows everything. The fetch outlives the first
// caller's cancellation so the answer holds for the client's lifetime.
func (c *Client) allowed(ctx context.Context, path string) bool {
	if c.opts.IgnoreRobots {
		return true
	}
	c.robotsOnce.Do(func() {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.opts.Timeout)
		defer cancel()
		data, err := c.fetchRobots(rctx)
		if err != nil {
			c.logger.Printf("Warning: robots.txt unavailable, continuing: %v", err)
			return
		}
		c.robots = data
	})
	if c.robots == nil {
		return true
	}
	return c.robots.TestAgent(path, c.opts.UserAgent)
}

func (c *Client) fetchRobots(ctx context.Context) (*robotstxt.RobotsData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.opts.BaseURL+"/robots.txt", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots.txt: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}
	return data, nil
}

func checkAppID(appID string) error {
	if appID == "" {
		return ErrInvalidAppID
	}
	for _, r := range appID {
		if r < '0' || r > '9' {
			return fmt.Errorf("%w: %q", ErrInvalidAppID, appID)
		}
	}
	return nil
}
