package rank

import (
	"math"
	"sort"

	"github.com/cognicore/reviewcloud/pkg/reviewcloud/terms"
)

// Item is a weighted, colored cloud label.
type Item struct {
	Text          string
	Words         int
	Positive      int
	Negative      int
	RawWeight     float64
	DisplayWeight float64
	Hue           float64
	Saturation    float64
}

// Total returns the number of records containing the term.
func (it Item) Total() int {
	return it.Positive + it.Negative
}

// PositiveFraction returns the share of positive records.
func (it Item) PositiveFraction() float64 {
	if it.Total() == 0 {
		return 0
	}
	return float64(it.Positive) / float64(it.Total())
}

// Weights defines the weighting and coloring parameters
type Weights struct {
	MultiTermBoost float64 // exponent boost per log10(word count)
	MaxItems       int     // output cap, 0 = unlimited
	PositiveHue    float64 // hue for mostly-positive terms
	NegativeHue    float64 // hue for the rest
	MaxSaturation  float64 // saturation at full polarity agreement
	LogBase        float64 // display weight compression base
}

// DefaultWeights returns the stock weighting parameters.
func DefaultWeights() Weights {
	return Weights{
		MultiTermBoost: 1.0,
		MaxItems:       100,
		PositiveHue:    205,
		NegativeHue:    5,
		MaxSaturation:  0.5,
		LogBase:        2.0,
	}
}

// Calculator turns term counts into cloud items.
type Calculator struct {
	weights Weights
}

// NewCalculator creates a calculator with the given weights
func NewCalculator(w Weights) *Calculator {
	return &Calculator{weights: w}
}

// RawWeight returns total^(1 + log10(words)*boost).
//
// Single words keep their total since log10(1) = 0.
func (c *Calculator) RawWeight(total, words int) float64 {
	if total <= 0 || words <= 0 {
		return 0
	}
	exp := 1 + math.Log10(float64(words))*c.weights.MultiTermBoost
	return math.Pow(float64(total), exp)
}

// DisplayWeight log-compresses a raw weight: log(raw)/log(base) + 1.
func (c *Calculator) DisplayWeight(raw float64) float64 {
	base := c.weights.LogBase
	if base <= 1 {
		base = math.E
	}
	return math.Log(raw)/math.Log(base) + 1
}

// Color derives hue and saturation from the polarity split.
func (c *Calculator) Color(positive, negative int) (hue, saturation float64) {
	total := positive + negative
	if total == 0 {
		return c.weights.NegativeHue, 0
	}
	pf := float64(positive) / float64(total)
	nf := float64(negative) / float64(total)
	hue = c.weights.NegativeHue
	if pf > 0.5 {
		hue = c.weights.PositiveHue
	}
	return hue, math.Max(pf, nf) * c.weights.MaxSaturation
}

// Items weighs every term of t, sorts by raw weight descending (then
// total descending, then term), truncates to MaxItems and compresses.
func (c *Calculator) Items(t *terms.Table) []Item {
	var items []Item
	for term, cnt := range t.All() {
		words := terms.WordCount(term)
		raw := c.RawWeight(cnt.Total(), words)
		if raw <= 0 {
			continue
		}
		hue, sat := c.Color(cnt.Positive, cnt.Negative)
		items = append(items, Item{
			Text:       term,
			Words:      words,
			Positive:   cnt.Positive,
			Negative:   cnt.Negative,
			RawWeight:  raw,
			Hue:        hue,
			Saturation: sat,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].RawWeight != items[j].RawWeight {
			return items[i].RawWeight > items[j].RawWeight
		}
		if items[i].Total() != items[j].Total() {
			return items[i].Total() > items[j].Total()
		}
		return items[i].Text < items[j].Text
	})

	if c.weights.MaxItems > 0 && len(items) > c.weights.MaxItems {
		items = items[:c.weights.MaxItems]
	}
	for i := range items {
		items[i].DisplayWeight = c.DisplayWeight(items[i].RawWeight)
	}
	return items
}
