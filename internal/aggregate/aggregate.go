// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package aggregate drives both catalog clients against a target count,
// deduplicating records by identifier across sources, then hands the
// merged collection to the fetch, persistence, and statistics stages.
package aggregate

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pdiddy/bookharvest/internal/persist"
	"github.com/pdiddy/bookharvest/internal/stats"
	"github.com/pdiddy/bookharvest/pkg/types"
)

// minPrimaryTarget is the floor for the first archive.org pass.
const minPrimaryTarget = 500

// CatalogSearcher is the paginated-search source (archive.org).
type CatalogSearcher interface {
	Search(target int, excluded map[string]bool) []*types.Book
}

// FeedDiscoverer is the feed-based source (Project Gutenberg).
type FeedDiscoverer interface {
	Discover(target int) []*types.Book
}

// FileFetcher downloads files for records, enriching them in place.
type FileFetcher interface {
	Fetch(books []*types.Book) []*types.Book
}

// Aggregator owns the per-run shared state: the merged collection and
// the seen-identifier set live inside Run, never in package state.
type Aggregator struct {
	Archive   CatalogSearcher
	Gutenberg FeedDiscoverer
	Fetcher   FileFetcher
	Config    types.AggregateConfig
	Log       io.Writer
}

// Result holds the outcome of a full pipeline run.
type Result struct {
	Books       []*types.Book
	TablePath   string
	ArchivePath string
	Report      stats.Report
}

// PrimaryTarget returns the archive.org quota for the first pass: half
// the target raised to at least 500, capped at the target itself. For
// targets under 500 this deliberately hands the whole budget to the
// first pass; the arithmetic is kept as-is.
func PrimaryTarget(target int) int {
	p := target / 2
	if p < minPrimaryTarget {
		p = minPrimaryTarget
	}
	if p > target {
		p = target
	}
	return p
}

// Run executes the three-pass aggregation: archive.org up to the
// primary target, Gutenberg for the remainder, then one archive.org
// top-up. A shortfall after all passes is not an error. When
// downloadFiles is set the fetcher runs over the merged collection
// before the table, archive, and statistics are written.
func (a *Aggregator) Run(target int, downloadFiles bool) (*Result, error) {
	fmt.Fprintf(a.Log, "starting aggregation for %d books\n", target)
	started := time.Now()

	seen := make(map[string]bool)
	var all []*types.Book

	primary := PrimaryTarget(target)
	a.merge("archive.org", a.Archive.Search(primary, seen), seen, &all)

	if len(all) < target {
		a.merge("gutenberg.org", a.Gutenberg.Discover(target-len(all)), seen, &all)
	}

	if remaining := target - len(all); remaining > 0 {
		fmt.Fprintf(a.Log, "need %d more books; continuing archive.org pass\n", remaining)
		a.merge("archive.org (top-up)", a.Archive.Search(remaining, seen), seen, &all)
	}

	fmt.Fprintf(a.Log, "total books aggregated: %d\n", len(all))

	if downloadFiles {
		all = a.Fetcher.Fetch(all)
	}

	tablePath, err := persist.WriteTable(all, a.Config.Fetch.OutputConfig)
	if err != nil {
		return nil, fmt.Errorf("writing table: %w", err)
	}
	archivePath, err := persist.WriteArchive(a.Config.Fetch.OutputConfig)
	if err != nil {
		return nil, fmt.Errorf("writing archive: %w", err)
	}

	report := stats.Compute(all)
	if _, err := stats.Write(report, a.Config.Fetch.OutputConfig); err != nil {
		return nil, fmt.Errorf("writing statistics: %w", err)
	}
	report.Summary(a.Log)

	result := &Result{
		Books:       all,
		TablePath:   tablePath,
		ArchivePath: archivePath,
		Report:      report,
	}
	if err := a.writeSummary(result, target, downloadFiles, time.Since(started)); err != nil {
		fmt.Fprintf(a.Log, "warning: writing run summary: %v\n", err)
	}
	return result, nil
}

// merge adds records whose identifier has not been seen this run.
// Records outside the language allow-list are dropped but still marked
// seen, so later passes do not refetch them.
func (a *Aggregator) merge(name string, books []*types.Book, seen map[string]bool, all *[]*types.Book) int {
	added := 0
	for _, b := range books {
		if b.Identifier == "" || seen[b.Identifier] {
			continue
		}
		seen[b.Identifier] = true
		if !a.languageAllowed(b.Language) {
			continue
		}
		*all = append(*all, b)
		added++
	}
	fmt.Fprintf(a.Log, "%s: added %d new books (total: %d)\n", name, added, len(*all))
	return added
}

func (a *Aggregator) languageAllowed(lang string) bool {
	if len(a.Config.Languages) == 0 {
		return true
	}
	for _, allowed := range a.Config.Languages {
		if lang == allowed {
			return true
		}
	}
	return false
}

// runSummary is the import_summary.json document written after each run.
type runSummary struct {
	Timestamp      string         `json:"import_timestamp"`
	TargetBooks    int            `json:"target_books"`
	ScrapedBooks   int            `json:"scraped_books"`
	WithDocuments  int            `json:"books_with_documents"`
	WithCovers     int            `json:"books_with_covers"`
	WithDesc       int            `json:"books_with_descriptions"`
	WithCategories int            `json:"books_with_categories"`
	Table          string         `json:"csv_database"`
	Archive        string         `json:"zip_archive"`
	ElapsedSeconds int            `json:"elapsed_seconds"`
	Languages      []string       `json:"language_filter"`
	DownloadFiles  bool           `json:"download_files"`
	Sources        map[string]int `json:"sources"`
}

func (a *Aggregator) writeSummary(res *Result, target int, downloadFiles bool, elapsed time.Duration) error {
	s := runSummary{
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
		TargetBooks:    target,
		ScrapedBooks:   len(res.Books),
		WithDocuments:  res.Report.BooksWithDocs,
		WithCovers:     res.Report.BooksWithCover,
		Table:          res.TablePath,
		Archive:        res.ArchivePath,
		ElapsedSeconds: int(elapsed.Seconds()),
		Languages:      a.Config.Languages,
		DownloadFiles:  downloadFiles,
		Sources:        res.Report.Sources,
	}
	if len(s.Languages) == 0 {
		s.Languages = []string{"all"}
	}
	for _, b := range res.Books {
		if b.Description != "" {
			s.WithDesc++
		}
		if b.Categories != "" {
			s.WithCategories++
		}
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling summary: %w", err)
	}
	return os.WriteFile(a.Config.Fetch.SummaryPath(), data, 0o644)
}
