package corpus

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/cognicore/reviewcloud/pkg/reviewcloud/ingest"
)

func quiet(c *Collector) *Collector {
	c.SetLogger(log.New(io.Discard, "", 0))
	return c
}

func TestCollectorFanIn(t *testing.T) {
	c := quiet(NewCollector(4))

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(page int) {
			defer wg.Done()
			batch := []ingest.RawReview{
				{ID: fmt.Sprintf("p%d", page), Text: "fun", VotedUp: ingest.Bool(page%2 == 0)},
				{ID: "shared", Text: "overlap", VotedUp: ingest.Bool(true)},
			}
			c.Complete(batch, nil)
		}(i)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	reviews, err := c.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	wg.Wait()

	if len(reviews) != 5 {
		t.Errorf("expected 5 unique reviews, got %d", len(reviews))
	}
	st := c.Stats()
	if st.Duplicates != 3 || st.Accepted != 5 || st.Batches != 4 {
		t.Errorf("unexpected stats %+v", st)
	}
}

func TestCollectorFailedBatchStillCounts(t *testing.T) {
	c := quiet(NewCollector(2))
	c.Complete(nil, errors.New("http 500"))
	c.Complete([]ingest.RawReview{{ID: "1", Text: "ok", VotedUp: ingest.Bool(false)}}, nil)

	reviews, err := c.Wait(context.Background())
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if len(reviews) != 1 || reviews[0].Positive {
		t.Errorf("unexpected reviews %+v", reviews)
	}
	if len(c.Errors()) != 1 || c.Stats().Failed != 1 {
		t.Errorf("expected one recorded failure, got %v", c.Errors())
	}
}

func TestCollectorSkipsInvalid(t *testing.T) {
	c := quiet(NewCollector(1))
	c.Complete([]ingest.RawReview{
		{ID: "1", Text: "no vote"},
		{ID: "", Text: "no id", VotedUp: ingest.Bool(true)},
		{ID: "2", Text: "good", VotedUp: ingest.Bool(true)},
	}, nil)

	reviews, _ := c.Wait(context.Background())
	if len(reviews) != 1 || reviews[0].ID != "2" {
		t.Errorf("expected only review 2, got %+v", reviews)
	}
	if c.Stats().Invalid != 2 {
		t.Errorf("expected 2 invalid, got %+v", c.Stats())
	}
}

func TestCollectorWaitCancelled(t *testing.T) {
	c := quiet(NewCollector(3))
	c.Complete(nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestCollectorZeroExpected(t *testing.T) {
	c := quiet(NewCollector(0))
	reviews, err := c.Wait(context.Background())
	if err != nil || len(reviews) != 0 {
		t.Errorf("expected immediate empty result, got %v, %v", reviews, err)
	}
	c.Complete([]ingest.RawReview{{ID: "x", Text: "late", VotedUp: ingest.Bool(true)}}, nil)
	if len(c.Reviews()) != 0 {
		t.Error("batches beyond the expected count must be ignored")
	}
}

func TestDedupe(t *testing.T) {
	raws := []ingest.RawReview{
		{ID: "a", Text: "first", VotedUp: ingest.Bool(true)},
		{ID: "a", Text: "second", VotedUp: ingest.Bool(false)},
		{ID: "b", Text: "other", VotedUp: ingest.Bool(false)},
	}
	reviews, st := Dedupe(raws, log.New(io.Discard, "", 0))
	if len(reviews) != 2 || reviews[0].Text != "first" {
		t.Errorf("expected first occurrence kept, got %+v", reviews)
	}
	if st.Duplicates != 1 {
		t.Errorf("expected 1 duplicate, got %+v", st)
	}
}
