package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/cognicore/reviewcloud/pkg/reviewcloud/cloud"
)

var (
	buildSource sourceFlags
	buildJSON   string
	buildSVG    string
	buildTitle  string
)

// buildCmd represents the build command
var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build a word cloud from reviews",
	Long: `Build mines the reviews, lays the weighted terms out on the canvas and
writes the cloud as JSON and/or SVG. With --db the cloud is also saved to
the database. Without --json or --svg the JSON goes to stdout.

The product's own name is left out of the terms. It is taken from
product_name, else from the name fetch saved for --app, else from --title.

Example:
  reviewcloud build --input reviews.jsonl --title "Left 4 Dead 2" --svg cloud.svg
  reviewcloud build --db reviews.db --app 550 --json cloud.json`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)
	buildSource.register(buildCmd)
	buildCmd.Flags().StringVar(&buildJSON, "json", "", "output JSON path")
	buildCmd.Flags().StringVar(&buildSVG, "svg", "", "output SVG path")
	buildCmd.Flags().StringVar(&buildTitle, "title", "", "cloud title (default: the app name saved by fetch)")
}

func runBuild(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	engine, reviews, err := buildSource.open(ctx, cfg, newLogger())
	if err != nil {
		return err
	}
	defer engine.Close()

	c, err := engine.Build(ctx, buildSource.app, buildTitle, reviews)
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Placed %d terms, dropped %d (cloud %s)\n", len(c.Items), len(c.Dropped), c.ID)
	}

	if buildJSON == "" && buildSVG == "" {
		return cloud.WriteJSON(cmd.OutOrStdout(), c)
	}
	if buildJSON != "" {
		if err := writeFile(buildJSON, func(w io.Writer) error { return cloud.WriteJSON(w, c) }); err != nil {
			return err
		}
	}
	if buildSVG != "" {
		if err := writeFile(buildSVG, func(w io.Writer) error { return cloud.WriteSVG(w, c) }); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, closeErr)
		}
	}()
	if err := write(f); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
