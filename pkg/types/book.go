// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the bookharvest pipeline.
package types

import (
	"strings"
	"time"
)

// Source identifies the catalog a book record came from.
type Source string

const (
	SourceArchive   Source = "archive.org"
	SourceGutenberg Source = "gutenberg.org"
)

// MaxCategories is the number of subject tags carried over into Categories.
const MaxCategories = 5

// Book holds the metadata and local file paths for one aggregated book.
// A record is created by a source client, enriched in place by the fetch
// stage (the two Local*Path fields), and read-only afterwards.
type Book struct {
	// Source identifies the catalog that produced this record.
	Source Source `json:"source" yaml:"source"`

	// Identifier is the source-assigned ID, unique across a whole run.
	// It is the sole deduplication key.
	Identifier string `json:"identifier" yaml:"identifier"`

	Title       string `json:"title" yaml:"title"`
	Author      string `json:"author" yaml:"author"`
	Description string `json:"description" yaml:"description"`
	Date        string `json:"date" yaml:"date"`
	Publisher   string `json:"publisher" yaml:"publisher"`

	// Language is the record's language code ("en" when the source is silent).
	Language string `json:"language" yaml:"language"`

	// Subjects holds all subject tags, comma-joined in source order.
	Subjects string `json:"subjects" yaml:"subjects"`

	// Categories holds at most the first MaxCategories subjects, comma-joined.
	Categories string `json:"categories" yaml:"categories"`

	DownloadCount int   `json:"download_count" yaml:"download_count"`
	FileSize      int64 `json:"file_size" yaml:"file_size"`

	// DocumentURL and CoverURL are empty when the source offers no file.
	DocumentURL string `json:"document_url" yaml:"document_url"`
	CoverURL    string `json:"cover_url" yaml:"cover_url"`

	// LocalDocumentPath and LocalCoverPath stay empty until the fetch
	// stage confirms a successful write.
	LocalDocumentPath string `json:"local_document_path" yaml:"local_document_path"`
	LocalCoverPath    string `json:"local_cover_path" yaml:"local_cover_path"`

	ISBN  string `json:"isbn" yaml:"isbn"`
	Pages string `json:"pages" yaml:"pages"`

	// AddedAt is set when the record is created.
	AddedAt time.Time `json:"added_timestamp" yaml:"added_timestamp"`
}

// CategoryList splits Categories back into individual tags, dropping
// empty entries.
func (b *Book) CategoryList() []string {
	if b.Categories == "" {
		return nil
	}
	var cats []string
	for _, c := range strings.Split(b.Categories, ",") {
		c = strings.TrimSpace(c)
		if c != "" {
			cats = append(cats, c)
		}
	}
	return cats
}

// JoinCategories renders the first MaxCategories subjects as the
// Categories field value.
func JoinCategories(subjects []string) string {
	if len(subjects) > MaxCategories {
		subjects = subjects[:MaxCategories]
	}
	return strings.Join(subjects, ", ")
}
