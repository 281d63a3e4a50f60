package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/bookharvest/internal/persist"
	"github.com/pdiddy/bookharvest/internal/stats"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Report statistics for an existing book table",
	Long: `Stats recomputes the collection statistics from the CSV table of a previous
run, without touching the network.`,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().String("books-dir", "books", "base directory for output")
	statsCmd.Flags().Bool("json", false, "output the report as JSON")

	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg := outputConfig(cmd)

	books, err := persist.ReadTable(cfg.TablePath())
	if err != nil {
		return fmt.Errorf("loading table: %w", err)
	}

	report := stats.Compute(books)

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	report.Summary(os.Stdout)
	return nil
}
