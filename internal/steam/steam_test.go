package steam

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/cognicore/reviewcloud/pkg/reviewcloud/corpus"
)

const listing = `
<div class="review_box">
  <div class="thumb"><img src="https://store.akamai.steamstatic.com/public/shared/images/userreviews/icon_thumbsUp.png"></div>
  <div class="content" id="ReviewContentall1001">Great zombies game,<br>love the zombies!</div>
</div>
<div class="review_box">
  <div class="thumb"><img src="/images/icon_thumbsDown_v6.png"></div>
  <div class="content" id="ReviewContentall1002">  Too many zombie enemies  </div>
</div>
<div class="review_box">
  <div class="thumb"></div>
  <div class="content" id="ReviewContentall1003">No verdict here</div>
</div>`

func TestParseReviews(t *testing.T) {
	raws, err := ParseReviews(listing)
	if err != nil {
		t.Fatalf("ParseReviews failed: %v", err)
	}
	if len(raws) != 3 {
		t.Fatalf("expected 3 review boxes, got %d", len(raws))
	}

	if raws[0].ID != "1001" || raws[0].VotedUp == nil || !*raws[0].VotedUp {
		t.Errorf("unexpected first review %+v", raws[0])
	}
	if raws[0].Text != "Great zombies game,\nlove the zombies!" {
		t.Errorf("unexpected text %q", raws[0].Text)
	}
	if raws[1].VotedUp == nil || *raws[1].VotedUp {
		t.Errorf("expected negative second review")
	}
	if raws[1].Text != "Too many zombie enemies" {
		t.Errorf("text should be trimmed, got %q", raws[1].Text)
	}
	if raws[2].VotedUp != nil {
		t.Errorf("expected unknown polarity, got %v", *raws[2].VotedUp)
	}
}

func TestParseReviewsDerivesMissingID(t *testing.T) {
	raws, err := ParseReviews(`<div class="review_box"><div class="thumb">thumbsUp</div><div class="content">fun</div></div>`)
	if err != nil {
		t.Fatal(err)
	}
	if len(raws) != 1 || raws[0].ID == "" {
		t.Fatalf("expected derived ID, got %+v", raws)
	}
	again, _ := ParseReviews(`<div class="review_box"><div class="thumb">thumbsUp</div><div class="content">fun</div></div>`)
	if again[0].ID != raws[0].ID {
		t.Error("derived IDs must be stable")
	}
}

func TestParseAppName(t *testing.T) {
	name, err := ParseAppName(`<html><body><div class="apphub_AppName">  Left 4
	Dead 2 </div></body></html>`)
	if err != nil {
		t.Fatal(err)
	}
	if name != "Left 4 Dead 2" {
		t.Errorf("got %q", name)
	}
	if _, err := ParseAppName(`<html></html>`); !errors.Is(err, ErrNoAppName) {
		t.Errorf("expected ErrNoAppName, got %v", err)
	}
}

type fakeStore struct {
	robots string
	hits   atomic.Int32
}

func (f *fakeStore) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, f.robots)
	})
	mux.HandleFunc("/app/550/", func(w http.ResponseWriter, r *http.Request) {
		f.hits.Add(1)
		io.WriteString(w, `<div class="apphub_AppName">Left 4 Dead 2</div>`)
	})
	mux.HandleFunc("/appreviews/550", func(w http.ResponseWriter, r *http.Request) {
		f.hits.Add(1)
		if r.URL.Query().Get("filter") != "all" || r.URL.Query().Get("day_range") == "" {
			http.Error(w, "bad query", http.StatusBadRequest)
			return
		}
		offset, _ := strconv.Atoi(r.URL.Query().Get("start_offset"))
		switch offset {
		case 0:
			json.NewEncoder(w).Encode(pageResponse{Success: 1, HTML: listing})
		case PageSize:
			// overlaps the first page
			json.NewEncoder(w).Encode(pageResponse{Success: 1, HTML: `
<div class="review_box"><div class="thumb">thumbsDown</div><div class="content" id="ReviewContentall1002">Too many zombie enemies</div></div>
<div class="review_box"><div class="thumb">thumbsUp</div><div class="content" id="ReviewContentall1004">Fun co-op</div></div>`})
		case 2 * PageSize:
			json.NewEncoder(w).Encode(pageResponse{Success: 2})
		default:
			http.Error(w, "boom", http.StatusInternalServerError)
		}
	})
	return mux
}

func newTestClient(t *testing.T, fake *fakeStore) *Client {
	t.Helper()
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)
	return NewClient(Options{
		BaseURL:           srv.URL,
		RequestsPerSecond: 1000,
		Burst:             10,
		Logger:            log.New(io.Discard, "", 0),
	})
}

func TestFetchAllCompletesEveryPage(t *testing.T) {
	fake := &fakeStore{robots: "User-agent: *\nAllow: /\n"}
	c := newTestClient(t, fake)
	ctx := context.Background()

	coll := corpus.NewCollector(4)
	coll.SetLogger(log.New(io.Discard, "", 0))
	if err := c.FetchAll(ctx, "550", 4, coll); err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}
	reviews, err := coll.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}

	stats := coll.Stats()
	if stats.Batches != 4 || stats.Failed != 2 {
		t.Errorf("expected 4 batches with 2 failures, got %+v", stats)
	}
	if len(reviews) != 3 {
		t.Errorf("expected 3 unique reviews, got %d: %+v", len(reviews), reviews)
	}
	if stats.Duplicates != 1 || stats.Invalid != 1 {
		t.Errorf("expected 1 duplicate and 1 invalid, got %+v", stats)
	}
	for _, err := range coll.Errors() {
		if err == nil {
			t.Error("nil error recorded")
		}
	}
}

func TestFetchPageCached(t *testing.T) {
	fake := &fakeStore{robots: "User-agent: *\nAllow: /\n"}
	c := newTestClient(t, fake)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := c.FetchPage(ctx, "550", 0); err != nil {
			t.Fatal(err)
		}
	}
	if n := fake.hits.Load(); n != 1 {
		t.Errorf("expected 1 request, got %d", n)
	}
}

func TestFetchPageUnsuccessful(t *testing.T) {
	c := newTestClient(t, &fakeStore{})
	if _, err := c.FetchPage(context.Background(), "550", 2*PageSize); !errors.Is(err, ErrUnsuccessful) {
		t.Errorf("expected ErrUnsuccessful, got %v", err)
	}
}

func TestRobotsDisallow(t *testing.T) {
	fake := &fakeStore{robots: "User-agent: *\nDisallow: /appreviews/\n"}
	c := newTestClient(t, fake)
	ctx := context.Background()

	if _, err := c.FetchPage(ctx, "550", 0); !errors.Is(err, ErrDisallowed) {
		t.Errorf("expected ErrDisallowed, got %v", err)
	}
	if fake.hits.Load() != 0 {
		t.Error("disallowed path must not be requested")
	}

	name, err := c.AppName(ctx, "550")
	if err != nil || name != "Left 4 Dead 2" {
		t.Errorf("AppName = %q, %v", name, err)
	}
}

func TestRobotsSurviveCancelledFirstCall(t *testing.T) {
	fake := &fakeStore{robots: "User-agent: *\nDisallow: /appreviews/\n"}
	c := newTestClient(t, fake)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.FetchPage(cancelled, "550", 0); err == nil {
		t.Fatal("expected error for cancelled context")
	}

	if _, err := c.FetchPage(context.Background(), "550", 0); !errors.Is(err, ErrDisallowed) {
		t.Errorf("expected ErrDisallowed after cancelled first call, got %v", err)
	}
	if fake.hits.Load() != 0 {
		t.Error("disallowed path must not be requested")
	}
}

func TestFetch(t *testing.T) {
	c := newTestClient(t, &fakeStore{})
	reviews, stats, err := c.Fetch(context.Background(), "550", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(reviews) != 3 || stats.Failed != 0 {
		t.Errorf("got %d reviews, stats %+v", len(reviews), stats)
	}
}

func TestInvalidAppID(t *testing.T) {
	c := NewClient(Options{})
	if _, err := c.FetchPage(context.Background(), "550; DROP", 0); !errors.Is(err, ErrInvalidAppID) {
		t.Errorf("expected ErrInvalidAppID, got %v", err)
	}
	if _, err := c.AppName(context.Background(), ""); !errors.Is(err, ErrInvalidAppID) {
		t.Errorf("expected ErrInvalidAppID, got %v", err)
	}
}
