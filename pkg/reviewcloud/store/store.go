package store

import (
	"context"

	"github.com/cognicore/reviewcloud/pkg/reviewcloud/cloud"
	"github.com/cognicore/reviewcloud/pkg/reviewcloud/ingest"
)

// Store persists fetched reviews and generated clouds, keyed by app ID.
type Store interface {
	Close() error

	// Reviews. A review ID already stored for the app is left unchanged;
	// UpsertReviews returns how many reviews were new.
	UpsertReviews(ctx context.Context, appID string, reviews []ingest.Review) (int, error)
	Reviews(ctx context.Context, appID string) ([]ingest.Review, error)
	CountReviews(ctx context.Context, appID string) (int, error)

	// Apps. AppName reports false for an app never saved.
	SaveApp(ctx context.Context, appID, name string) error
	AppName(ctx context.Context, appID string) (string, bool, error)

	// Clouds
	SaveCloud(ctx context.Context, c cloud.Cloud) error
	LatestCloud(ctx context.Context, appID string) (cloud.Cloud, bool, error)
}
