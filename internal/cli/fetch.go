package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/cognicore/reviewcloud/internal/jsonl"
	"github.com/cognicore/reviewcloud/internal/steam"
	"github.com/cognicore/reviewcloud/pkg/reviewcloud/store/sqlite"
)

var (
	fetchDB           string
	fetchOut          string
	fetchPages        int
	fetchRate         float64
	fetchParallel     int
	fetchDayRange     int
	fetchTimeout      time.Duration
	fetchIgnoreRobots bool
	fetchBaseURL      string
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch <appid>",
	Short: "Download user reviews of a Steam app",
	Long: `Fetch requests pages of user reviews from the Steam store, validates and
deduplicates them, and stores them in a SQLite database and/or a JSONL file.
Each page holds up to 5 reviews. Pages that fail are logged and skipped.

Example:
  reviewcloud fetch 550 --db reviews.db --pages 20
  reviewcloud fetch 550 --out l4d2.jsonl`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringVar(&fetchDB, "db", "", "SQLite database to store reviews in")
	fetchCmd.Flags().StringVar(&fetchOut, "out", "", "JSONL file to write reviews to")
	fetchCmd.Flags().IntVar(&fetchPages, "pages", 10, "number of review pages to request")
	fetchCmd.Flags().Float64Var(&fetchRate, "rate", 2, "requests per second")
	fetchCmd.Flags().IntVar(&fetchParallel, "parallel", 4, "concurrent requests")
	fetchCmd.Flags().IntVar(&fetchDayRange, "day-range", 720, "ignore reviews older than this many days")
	fetchCmd.Flags().DurationVar(&fetchTimeout, "timeout", 2*time.Minute, "overall fetch timeout")
	fetchCmd.Flags().BoolVar(&fetchIgnoreRobots, "ignore-robots", false, "do not consult robots.txt")
	fetchCmd.Flags().StringVar(&fetchBaseURL, "base-url", steam.DefaultBaseURL, "store base URL")
	_ = fetchCmd.Flags().MarkHidden("base-url")
}

func runFetch(cmd *cobra.Command, args []string) error {
	appID := args[0]
	if fetchDB == "" && fetchOut == "" {
		return errors.New("one of --db or --out is required")
	}
	if fetchPages < 1 {
		return fmt.Errorf("--pages must be at least 1, got %d", fetchPages)
	}

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	client := steam.NewClient(steam.Options{
		BaseURL:           fetchBaseURL,
		RequestsPerSecond: fetchRate,
		Parallel:          fetchParallel,
		DayRange:          fetchDayRange,
		IgnoreRobots:      fetchIgnoreRobots,
		Logger:            newLogger(),
	})

	name, err := client.AppName(ctx, appID)
	named := err == nil
	if !named {
		fmt.Fprintf(os.Stderr, "Warning: could not read app name: %v\n", err)
		name = "app " + appID
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "Fetching %d pages of reviews for %s\n", fetchPages, name)
	}

	reviews, stats, err := client.Fetch(ctx, appID, fetchPages)
	if err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "✓ %d pages (%d failed), %d reviews, %d duplicates, %d invalid\n",
			stats.Batches, stats.Failed, stats.Accepted, stats.Duplicates, stats.Invalid)
	}

	if fetchOut != "" {
		if err := jsonl.Save(fetchOut, reviews); err != nil {
			return err
		}
	}

	inserted := len(reviews)
	if fetchDB != "" {
		st, err := sqlite.OpenSQLite(ctx, fetchDB)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer st.Close()
		if inserted, err = st.UpsertReviews(ctx, appID, reviews); err != nil {
			return fmt.Errorf("store reviews: %w", err)
		}
		if named {
			if err := st.SaveApp(ctx, appID, name); err != nil {
				return fmt.Errorf("store app name: %w", err)
			}
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Fetched %d reviews for %s (%d new)\n", len(reviews), name, inserted)
	return nil
}
