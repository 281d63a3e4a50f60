package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/bookharvest/internal/aggregate"
	"github.com/pdiddy/bookharvest/internal/materialize"
	"github.com/pdiddy/bookharvest/internal/source"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full aggregation pipeline",
	Long: `Run collects book records from archive.org and Project Gutenberg until the
target count is reached or both sources are exhausted, downloads documents and
covers unless --skip-downloads is given, and writes the CSV table, zip archive,
and statistics report. A shortfall against the target is not an error.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().Int("target-books", 1000, "total number of books to aggregate")
	runCmd.Flags().Bool("skip-downloads", false, "collect metadata only, skip document and cover downloads")
	runCmd.Flags().StringSlice("languages", nil, "allowed language codes (e.g. en,fr); empty means all")
	runCmd.Flags().String("books-dir", "books", "base directory for output")
	runCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 30s)")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	target, _ := cmd.Flags().GetInt("target-books")
	if target <= 0 {
		return fmt.Errorf("--target-books must be positive")
	}
	skipDownloads, _ := cmd.Flags().GetBool("skip-downloads")

	cfg := aggregateConfig(cmd)

	agg := &aggregate.Aggregator{
		Archive:   source.NewArchiveClient(cfg.Source, os.Stdout),
		Gutenberg: source.NewGutenbergClient(cfg.Source, os.Stdout),
		Fetcher:   materialize.NewFetcher(cfg.Fetch, os.Stdout),
		Config:    cfg,
		Log:       os.Stdout,
	}

	result, err := agg.Run(target, !skipDownloads)
	if err != nil {
		return fmt.Errorf("aggregation run: %w", err)
	}

	fmt.Printf("\nRun complete: %d books\n", len(result.Books))
	fmt.Printf("Table:   %s\n", result.TablePath)
	fmt.Printf("Archive: %s\n", result.ArchivePath)
	return nil
}
