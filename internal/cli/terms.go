package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	termsSource sourceFlags
	termsLimit  int
)

// termsCmd represents the terms command
var termsCmd = &cobra.Command{
	Use:   "terms",
	Short: "Print the weighted terms mined from reviews",
	Long: `Terms runs term mining and weighting without layout and prints the
resulting cloud items in weight order.

Example:
  reviewcloud terms --input reviews.jsonl
  reviewcloud terms --db reviews.db --app 550 --limit 20`,
	Args: cobra.NoArgs,
	RunE: runTerms,
}

func init() {
	rootCmd.AddCommand(termsCmd)
	termsSource.register(termsCmd)
	termsCmd.Flags().IntVar(&termsLimit, "limit", 0, "print at most this many terms (0 = all)")
}

func runTerms(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	engine, reviews, err := termsSource.open(ctx, cfg, newLogger())
	if err != nil {
		return err
	}
	defer engine.Close()

	items, report, err := engine.Items(ctx, reviews)
	if err != nil {
		return err
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "%d reviews: %d phrases, %d words, %d subsumed, %d merged\n",
			report.Reviews, report.Phrases, report.Words, len(report.Subsumed), len(report.Merges))
		for reason, n := range report.Filtered {
			fmt.Fprintf(os.Stderr, "  filtered (%s): %d\n", reason, n)
		}
	}

	if termsLimit > 0 && len(items) > termsLimit {
		items = items[:termsLimit]
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TERM\tPOS\tNEG\tWEIGHT\tPOSITIVE")
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.2f\t%.0f%%\n",
			it.Text, it.Positive, it.Negative, it.DisplayWeight, 100*it.PositiveFraction())
	}
	return tw.Flush()
}
