package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/reviewcloud/pkg/reviewcloud/cloud"
	"github.com/cognicore/reviewcloud/pkg/reviewcloud/ingest"
	"github.com/cognicore/reviewcloud/pkg/reviewcloud/store"
)

// timeLayout is fixed-width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database with WAL mode enabled.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS reviews (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	app_id TEXT NOT NULL,
	id TEXT NOT NULL,
	text TEXT NOT NULL,
	positive INTEGER NOT NULL,
	fetched_at TEXT NOT NULL,
	UNIQUE(app_id, id)
);

CREATE TABLE IF NOT EXISTS apps (
	app_id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS clouds (
	id TEXT PRIMARY KEY,
	app_id TEXT NOT NULL,
	title TEXT,
	width REAL NOT NULL,
	height REAL NOT NULL,
	reviews INTEGER NOT NULL,
	created_at TEXT NOT NULL,
	items_json TEXT NOT NULL,
	dropped_json TEXT
);

CREATE INDEX IF NOT EXISTS clouds_app_created ON clouds(app_id, created_at);
`

	_, err := db.ExecContext(ctx, schema)
	return err
}

// UpsertReviews inserts reviews whose (app, id) pair is new
func (s *sqliteStore) UpsertReviews(ctx context.Context, appID string, reviews []ingest.Review) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO reviews (app_id, id, text, positive, fetched_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(app_id, id) DO NOTHING;
`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	inserted := 0
	for _, r := range reviews {
		if err := r.Validate(); err != nil {
			return 0, err
		}
		res, err := stmt.ExecContext(ctx, appID, r.ID, r.Text, boolToInt(r.Positive), now)
		if err != nil {
			return 0, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

// Reviews returns the app's reviews in insertion order
func (s *sqliteStore) Reviews(ctx context.Context, appID string) ([]ingest.Review, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, text, positive
FROM reviews
WHERE app_id = ?
ORDER BY seq;
`, appID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []ingest.Review
	for rows.Next() {
		var r ingest.Review
		var positive int
		if err := rows.Scan(&r.ID, &r.Text, &positive); err != nil {
			return nil, err
		}
		r.Positive = positive != 0
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}

// CountReviews returns the number of stored reviews for the app
func (s *sqliteStore) CountReviews(ctx context.Context, appID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reviews WHERE app_id = ?`, appID).Scan(&n)
	return n, err
}

// SaveApp records the app's display name
func (s *sqliteStore) SaveApp(ctx context.Context, appID, name string) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO apps (app_id, name, updated_at)
VALUES (?, ?, ?)
ON CONFLICT(app_id) DO UPDATE SET
	name=excluded.name,
	updated_at=excluded.updated_at;
`, appID, name, time.Now().UTC().Format(time.RFC3339))
	return err
}

// AppName returns the app's display name
func (s *sqliteStore) AppName(ctx context.Context, appID string) (string, bool, error) {
	var name string
	err := s.db.QueryRowContext(ctx, `SELECT name FROM apps WHERE app_id = ?`, appID).Scan(&name)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return name, true, nil
}

// SaveCloud inserts or updates a cloud
func (s *sqliteStore) SaveCloud(ctx context.Context, c cloud.Cloud) error {
	itemsJSON, err := json.Marshal(c.Items)
	if err != nil {
		return err
	}
	droppedJSON, err := json.Marshal(c.Dropped)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO clouds (id, app_id, title, width, height, reviews, created_at, items_json, dropped_json)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	app_id=excluded.app_id,
	title=excluded.title,
	width=excluded.width,
	height=excluded.height,
	reviews=excluded.reviews,
	created_at=excluded.created_at,
	items_json=excluded.items_json,
	dropped_json=excluded.dropped_json;
`, c.ID, c.AppID, c.Title, c.Width, c.Height, c.Reviews,
		c.CreatedAt.UTC().Format(timeLayout), string(itemsJSON), string(droppedJSON))
	return err
}

// LatestCloud returns the most recently created cloud for the app
func (s *sqliteStore) LatestCloud(ctx context.Context, appID string) (cloud.Cloud, bool, error) {
	var c cloud.Cloud
	var createdAt, itemsJSON string
	var droppedJSON sql.NullString
	err := s.db.QueryRowContext(ctx, `
SELECT id, app_id, title, width, height, reviews, created_at, items_json, dropped_json
FROM clouds
WHERE app_id = ?
ORDER BY created_at DESC, id DESC
LIMIT 1;
`, appID).Scan(&c.ID, &c.AppID, &c.Title, &c.Width, &c.Height, &c.Reviews, &createdAt, &itemsJSON, &droppedJSON)
	if err == sql.ErrNoRows {
		return cloud.Cloud{}, false, nil
	}
	if err != nil {
		return cloud.Cloud{}, false, err
	}

	if c.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return cloud.Cloud{}, false, err
	}
	if err := json.Unmarshal([]byte(itemsJSON), &c.Items); err != nil {
		return cloud.Cloud{}, false, err
	}
	if droppedJSON.Valid && droppedJSON.String != "" {
		if err := json.Unmarshal([]byte(droppedJSON.String), &c.Dropped); err != nil {
			return cloud.Cloud{}, false, err
		}
	}
	return c, true, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
