// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package stats computes aggregate counts over the final collection and
// writes them as a JSON side file plus a human-readable summary.
package stats

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/pdiddy/bookharvest/pkg/types"
)

// Category tallies consider at most this many categories per record.
const categoriesPerBook = 3

// Top-N cutoff for the category ranking.
const topCategories = 10

// CategoryCount is one entry in the ranked category list. A slice keeps
// the ranking order, which a JSON map would lose.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// Report holds the aggregate counts for one collection.
type Report struct {
	TotalBooks     int             `json:"total_books"`
	BooksWithDocs  int             `json:"books_with_documents"`
	BooksWithCover int             `json:"books_with_covers"`
	Sources        map[string]int  `json:"sources"`
	Languages      map[string]int  `json:"languages"`
	TopCategories  []CategoryCount `json:"top_categories"`
}

// Compute tallies the collection. Each record contributes at most its
// first three categories to the category ranking; ties rank in
// first-encountered order.
func Compute(books []*types.Book) Report {
	r := Report{
		TotalBooks: len(books),
		Sources:    make(map[string]int),
		Languages:  make(map[string]int),
	}

	catCounts := make(map[string]int)
	var catOrder []string

	for _, b := range books {
		if b.LocalDocumentPath != "" {
			r.BooksWithDocs++
		}
		if b.LocalCoverPath != "" {
			r.BooksWithCover++
		}

		source := string(b.Source)
		if source == "" {
			source = "unknown"
		}
		r.Sources[source]++

		lang := b.Language
		if lang == "" {
			lang = "unknown"
		}
		r.Languages[lang]++

		cats := b.CategoryList()
		if len(cats) > categoriesPerBook {
			cats = cats[:categoriesPerBook]
		}
		for _, c := range cats {
			if catCounts[c] == 0 {
				catOrder = append(catOrder, c)
			}
			catCounts[c]++
		}
	}

	ranked := make([]CategoryCount, 0, len(catOrder))
	for _, c := range catOrder {
		ranked = append(ranked, CategoryCount{Category: c, Count: catCounts[c]})
	}
	// Stable sort keeps first-encountered order among equal counts.
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})
	if len(ranked) > topCategories {
		ranked = ranked[:topCategories]
	}
	r.TopCategories = ranked

	return r
}

// Write stores the report as indented JSON under the metadata directory
// and returns the file path.
func Write(r Report, cfg types.OutputConfig) (string, error) {
	if err := os.MkdirAll(cfg.MetadataDir(), 0o755); err != nil {
		return "", fmt.Errorf("creating metadata directory: %w", err)
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling statistics: %w", err)
	}
	path := cfg.StatsPath()
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing statistics: %w", err)
	}
	return path, nil
}

// Summary writes the human-readable report to w.
func (r Report) Summary(w io.Writer) {
	rule := strings.Repeat("=", 50)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "COLLECTION STATISTICS")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Total books: %d\n", r.TotalBooks)
	fmt.Fprintf(w, "Books with documents: %d\n", r.BooksWithDocs)
	fmt.Fprintf(w, "Books with covers: %d\n", r.BooksWithCover)

	fmt.Fprintln(w, "\nSources:")
	for _, kv := range sortedCounts(r.Sources, 0) {
		fmt.Fprintf(w, "  %s: %d books\n", kv.Category, kv.Count)
	}

	fmt.Fprintln(w, "\nLanguages:")
	for _, kv := range sortedCounts(r.Languages, 5) {
		fmt.Fprintf(w, "  %s: %d books\n", kv.Category, kv.Count)
	}

	fmt.Fprintln(w, "\nTop categories:")
	for _, cc := range r.TopCategories {
		fmt.Fprintf(w, "  %s: %d books\n", cc.Category, cc.Count)
	}
	fmt.Fprintln(w, rule)
}

// sortedCounts renders a count map as a slice ordered by count
// descending, then key, truncated to limit when limit > 0.
func sortedCounts(m map[string]int, limit int) []CategoryCount {
	out := make([]CategoryCount, 0, len(m))
	for k, v := range m {
		out = append(out, CategoryCount{Category: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Category < out[j].Category
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
