package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/bookharvest/internal/catalog"
	"github.com/pdiddy/bookharvest/internal/persist"
	"github.com/pdiddy/bookharvest/pkg/types"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the SQLite catalog index (build, query, popular)",
	Long: `Index maintains a local SQLite database built from the CSV table, with
full-text search over titles, authors, descriptions, and subjects.`,
}

// --- build subcommand ---

var indexBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build or refresh the catalog index from the book table",
	RunE:  runIndexBuild,
}

func runIndexBuild(cmd *cobra.Command, args []string) error {
	cfg := outputConfig(cmd)

	books, err := persist.ReadTable(cfg.TablePath())
	if err != nil {
		return fmt.Errorf("loading table: %w", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	written, err := store.Insert(context.Background(), books)
	if err != nil {
		return fmt.Errorf("indexing books: %w", err)
	}
	fmt.Printf("Indexed %d books into %s\n", written, cfg.IndexPath())
	return nil
}

// --- query subcommand ---

var indexQueryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Search the catalog index",
	Long: `Query searches the catalog with full-text search, a language filter, a
category filter, or any combination. Full-text matches rank by relevance;
filter-only queries rank by download count.`,
	RunE: runIndexQuery,
}

func runIndexQuery(cmd *cobra.Command, args []string) error {
	opts := catalog.QueryOptions{Text: strings.Join(args, " ")}
	opts.Language, _ = cmd.Flags().GetString("language")
	opts.Category, _ = cmd.Flags().GetString("category")
	opts.MaxResults, _ = cmd.Flags().GetInt("limit")

	if opts.IsEmpty() {
		return fmt.Errorf("query or filter required: provide search text, --language, or --category")
	}

	cfg := outputConfig(cmd)
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	books, err := store.Query(context.Background(), opts)
	if err != nil {
		return err
	}
	return printBooks(cmd, books)
}

// --- popular subcommand ---

var indexPopularCmd = &cobra.Command{
	Use:   "popular",
	Short: "List the most-downloaded books in the catalog",
	RunE:  runIndexPopular,
}

func runIndexPopular(cmd *cobra.Command, args []string) error {
	n, _ := cmd.Flags().GetInt("limit")

	cfg := outputConfig(cmd)
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	books, err := store.MostPopular(context.Background(), n)
	if err != nil {
		return err
	}
	return printBooks(cmd, books)
}

func openStore(cfg types.OutputConfig) (*catalog.Store, error) {
	store, err := catalog.Open(cfg.IndexPath(), viper.GetInt("index.max_results"))
	if err != nil {
		return nil, fmt.Errorf("opening catalog index: %w", err)
	}
	return store, nil
}

func printBooks(cmd *cobra.Command, books []*types.Book) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(books)
	}

	if len(books) == 0 {
		fmt.Println("No results found.")
		return nil
	}
	fmt.Printf("%-40s  %-20s  %-5s  %-9s  %s\n", "Title", "Author", "Lang", "Downloads", "Source")
	fmt.Println(strings.Repeat("-", 90))
	for _, b := range books {
		title := b.Title
		if len(title) > 40 {
			title = title[:37] + "..."
		}
		author := b.Author
		if len(author) > 20 {
			author = author[:17] + "..."
		}
		fmt.Printf("%-40s  %-20s  %-5s  %-9d  %s\n", title, author, b.Language, b.DownloadCount, b.Source)
	}
	fmt.Printf("\n%d results\n", len(books))
	return nil
}

func init() {
	for _, c := range []*cobra.Command{indexBuildCmd, indexQueryCmd, indexPopularCmd} {
		c.Flags().String("books-dir", "books", "base directory for output")
	}
	for _, c := range []*cobra.Command{indexQueryCmd, indexPopularCmd} {
		c.Flags().Int("limit", 0, "maximum number of results (default 20)")
		c.Flags().Bool("json", false, "output results as JSON")
	}
	indexQueryCmd.Flags().String("language", "", "filter by language code")
	indexQueryCmd.Flags().String("category", "", "filter by category substring")

	indexCmd.AddCommand(indexBuildCmd, indexQueryCmd, indexPopularCmd)
	rootCmd.AddCommand(indexCmd)
}
