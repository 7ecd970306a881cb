package ingest

import (
	"errors"
	"strings"
)

var (
	// ErrMissingID is returned for records without an identifier.
	ErrMissingID = errors.New("review id is required")
	// ErrMissingText is returned for records with blank text.
	ErrMissingText = errors.New("review text is required")
	// ErrAmbiguousPolarity is returned when a record carries no up/down vote.
	ErrAmbiguousPolarity = errors.New("review polarity is unknown")
)

// RawReview is a record as delivered by a review source.
type RawReview struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	VotedUp *bool  `json:"voted_up"`
}

// Review is an accepted record with a known polarity.
type Review struct {
	ID       string
	Text     string
	Positive bool
}

// Review converts the raw record, rejecting it when a required field is
// missing or its polarity cannot be determined.
func (r RawReview) Review() (Review, error) {
	if r.VotedUp == nil {
		return Review{}, ErrAmbiguousPolarity
	}
	rev := Review{
		ID:       strings.TrimSpace(r.ID),
		Text:     strings.TrimSpace(r.Text),
		Positive: *r.VotedUp,
	}
	if err := rev.Validate(); err != nil {
		return Review{}, err
	}
	return rev, nil
}

// Validate checks if the review has required fields
func (r *Review) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return ErrMissingID
	}

	if strings.TrimSpace(r.Text) == "" {
		return ErrMissingText
	}

	return nil
}

// Bool returns a pointer to v, for building RawReview literals.
func Bool(v bool) *bool {
	return &v
}
