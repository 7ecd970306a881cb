package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/cognicore/reviewcloud/internal/jsonl"
	"github.com/cognicore/reviewcloud/pkg/reviewcloud"
	"github.com/cognicore/reviewcloud/pkg/reviewcloud/config"
	"github.com/cognicore/reviewcloud/pkg/reviewcloud/corpus"
	"github.com/cognicore/reviewcloud/pkg/reviewcloud/ingest"
	"github.com/cognicore/reviewcloud/pkg/reviewcloud/store"
	"github.com/cognicore/reviewcloud/pkg/reviewcloud/store/sqlite"
)

// sourceFlags selects where a command reads reviews from.
type sourceFlags struct {
	input string
	db    string
	app   string
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.input, "input", "", "JSONL review file ({\"id\",\"text\",\"voted_up\"} per line)")
	cmd.Flags().StringVar(&f.db, "db", "", "SQLite review database")
	cmd.Flags().StringVar(&f.app, "app", "", "Steam app id (required with --db)")
}

// open creates an engine and loads the reviews. With both --input and --db
// the file is imported into the database first.
func (f *sourceFlags) open(ctx context.Context, cfg config.Config, logger *log.Logger) (*reviewcloud.Engine, []ingest.Review, error) {
	if f.input == "" && f.db == "" {
		return nil, nil, errors.New("one of --input or --db is required")
	}
	if f.db != "" && f.app == "" {
		return nil, nil, errors.New("--app is required with --db")
	}

	stops, err := config.LoadStoplist(cfg.StoplistPath)
	if err != nil {
		return nil, nil, err
	}

	var st store.Store
	if f.db != "" {
		st, err = sqlite.OpenSQLite(ctx, f.db)
		if err != nil {
			return nil, nil, fmt.Errorf("open database: %w", err)
		}
	}

	engine, err := reviewcloud.New(reviewcloud.Options{
		Config:   cfg,
		Stoplist: stops,
		Store:    st,
		Logger:   logger,
	})
	if err != nil {
		if st != nil {
			st.Close()
		}
		return nil, nil, err
	}

	if f.input == "" {
		reviews, err := st.Reviews(ctx, f.app)
		if err != nil {
			engine.Close()
			return nil, nil, fmt.Errorf("load reviews: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "Loaded %d reviews for app %s from %s\n", len(reviews), f.app, f.db)
		}
		return engine, reviews, nil
	}

	raws, err := jsonl.Load(f.input, logger)
	if err != nil {
		engine.Close()
		return nil, nil, err
	}
	reviews, stats := corpus.Dedupe(raws, logger)
	if verbose {
		fmt.Fprintf(os.Stderr, "Loaded %d reviews from %s (%d duplicates, %d invalid)\n",
			stats.Accepted, f.input, stats.Duplicates, stats.Invalid)
	}
	if st != nil {
		n, err := engine.Import(ctx, f.app, reviews)
		if err != nil {
			engine.Close()
			return nil, nil, fmt.Errorf("import reviews: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "Imported %d new reviews into %s\n", n, f.db)
		}
	}
	return engine, reviews, nil
}
