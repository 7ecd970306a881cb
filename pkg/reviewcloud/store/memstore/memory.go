package memstore

import (
	"context"
	"sync"

	"github.com/cognicore/reviewcloud/pkg/reviewcloud/cloud"
	"github.com/cognicore/reviewcloud/pkg/reviewcloud/ingest"
)

// Store is an in-memory implementation of store.Store for tests.
type Store struct {
	mu      sync.RWMutex
	reviews map[string][]ingest.Review
	seen    map[string]map[string]struct{}
	apps    map[string]string
	clouds  map[string][]cloud.Cloud
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		reviews: make(map[string][]ingest.Review),
		seen:    make(map[string]map[string]struct{}),
		apps:    make(map[string]string),
		clouds:  make(map[string][]cloud.Cloud),
	}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// UpsertReviews adds reviews whose ID is new for the app.
func (s *Store) UpsertReviews(ctx context.Context, appID string, reviews []ingest.Review) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := s.seen[appID]
	if seen == nil {
		seen = make(map[string]struct{})
		s.seen[appID] = seen
	}

	inserted := 0
	for _, r := range reviews {
		if err := r.Validate(); err != nil {
			return inserted, err
		}
		if _, ok := seen[r.ID]; ok {
			continue
		}
		seen[r.ID] = struct{}{}
		s.reviews[appID] = append(s.reviews[appID], r)
		inserted++
	}
	return inserted, nil
}

// Reviews returns the app's reviews in insertion order.
func (s *Store) Reviews(ctx context.Context, appID string) ([]ingest.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ingest.Review(nil), s.reviews[appID]...), nil
}

// CountReviews returns the number of stored reviews for the app.
func (s *Store) CountReviews(ctx context.Context, appID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.reviews[appID]), nil
}

// SaveApp records the app's display name.
func (s *Store) SaveApp(ctx context.Context, appID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apps[appID] = name
	return nil
}

// AppName returns the app's display name.
func (s *Store) AppName(ctx context.Context, appID string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	name, ok := s.apps[appID]
	return name, ok, nil
}

// SaveCloud stores a cloud.
func (s *Store) SaveCloud(ctx context.Context, c cloud.Cloud) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.clouds[c.AppID]
	for i := range list {
		if list[i].ID == c.ID {
			list[i] = c
			return nil
		}
	}
	s.clouds[c.AppID] = append(list, c)
	return nil
}

// LatestCloud returns the most recently created cloud for the app.
func (s *Store) LatestCloud(ctx context.Context, appID string) (cloud.Cloud, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest cloud.Cloud
	found := false
	for _, c := range s.clouds[appID] {
		if !found || c.CreatedAt.After(latest.CreatedAt) ||
			(c.CreatedAt.Equal(latest.CreatedAt) && c.ID > latest.ID) {
			latest, found = c, true
		}
	}
	return latest, found, nil
}
