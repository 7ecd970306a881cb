// Package cloud assembles laid-out labels into a renderable, storable
// word cloud.
package cloud

import (
	"crypto/rand"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/reviewcloud/pkg/reviewcloud/layout"
)

// Cloud is a finished word cloud for one product.
type Cloud struct {
	ID        string    `json:"id"`
	AppID     string    `json:"app_id"`
	Title     string    `json:"title"`
	Width     float64   `json:"width"`
	Height    float64   `json:"height"`
	Reviews   int       `json:"reviews"`
	CreatedAt time.Time `json:"created_at"`
	Items     []Item    `json:"items"`
	Dropped   []string  `json:"dropped,omitempty"`
}

// Item is a placed label with its resolved color.
type Item struct {
	layout.Placed
	Color string `json:"color"`
}

// Builder constructs clouds with time-ordered IDs
type Builder struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
	now     func() time.Time
}

// New creates a new cloud builder
func New() *Builder {
	return &Builder{
		entropy: ulid.Monotonic(rand.Reader, 0),
		now:     time.Now,
	}
}

// Build creates a cloud from a layout result.
func (b *Builder) Build(appID, title string, reviews int, res layout.Result) Cloud {
	b.mu.Lock()
	now := b.now().UTC()
	id := ulid.MustNew(ulid.Timestamp(now), b.entropy).String()
	b.mu.Unlock()

	c := Cloud{
		ID:        id,
		AppID:     appID,
		Title:     title,
		Width:     res.Width,
		Height:    res.Height,
		Reviews:   reviews,
		CreatedAt: now,
		Items:     make([]Item, 0, len(res.Placed)),
		Dropped:   res.Dropped,
	}
	for _, p := range res.Placed {
		c.Items = append(c.Items, Item{
			Placed: p,
			Color:  HSVToHex(p.Hue, p.Saturation, p.Value),
		})
	}
	return c
}

// WriteJSON encodes c as indented JSON.
func WriteJSON(w io.Writer, c Cloud) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}
