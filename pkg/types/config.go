package types

import (
	"path/filepath"
	"time"
)

// Output file names, fixed for a given books directory.
const (
	TableFile   = "books_database.csv"
	ArchiveFile = "books_collection.zip"
	StatsFile   = "statistics.json"
	SummaryFile = "import_summary.json"
	IndexFile   = "catalog.db"
)

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "bookharvest/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// OutputConfig locates the pipeline's output tree. Everything hangs off
// BooksDir: documents/, covers/, metadata/, index/, the CSV table and
// the zip archive.
type OutputConfig struct {
	// BooksDir is the base directory for all pipeline output.
	BooksDir string `json:"books_dir" yaml:"books_dir"`
}

func (c OutputConfig) DocumentsDir() string { return filepath.Join(c.BooksDir, "documents") }
func (c OutputConfig) CoversDir() string    { return filepath.Join(c.BooksDir, "covers") }
func (c OutputConfig) MetadataDir() string  { return filepath.Join(c.BooksDir, "metadata") }
func (c OutputConfig) IndexDir() string     { return filepath.Join(c.BooksDir, "index") }
func (c OutputConfig) TablePath() string    { return filepath.Join(c.BooksDir, TableFile) }
func (c OutputConfig) ArchivePath() string  { return filepath.Join(c.BooksDir, ArchiveFile) }
func (c OutputConfig) StatsPath() string    { return filepath.Join(c.MetadataDir(), StatsFile) }
func (c OutputConfig) SummaryPath() string  { return filepath.Join(c.BooksDir, SummaryFile) }
func (c OutputConfig) IndexPath() string    { return filepath.Join(c.IndexDir(), IndexFile) }

// SourceConfig holds settings for the catalog clients.
type SourceConfig struct {
	HTTPConfig `yaml:",inline"`

	// PageSize is the number of rows requested per search page (default 100).
	PageSize int `json:"page_size" yaml:"page_size"`

	// PageDelay is the politeness pause after each search page (default 200ms).
	PageDelay time.Duration `json:"page_delay" yaml:"page_delay"`

	// ProbeTimeout bounds the per-item existence probes (default 10s),
	// shorter than the regular request timeout.
	ProbeTimeout time.Duration `json:"probe_timeout" yaml:"probe_timeout"`
}

// FetchConfig holds settings for the file download stage.
type FetchConfig struct {
	HTTPConfig   `yaml:",inline"`
	OutputConfig `yaml:",inline"`

	// FetchDelay is the politeness pause after each record's downloads
	// (default 100ms).
	FetchDelay time.Duration `json:"fetch_delay" yaml:"fetch_delay"`
}

// AggregateConfig groups the per-stage settings for one pipeline run.
type AggregateConfig struct {
	Source SourceConfig `json:"source" yaml:"source"`
	Fetch  FetchConfig  `json:"fetch" yaml:"fetch"`

	// Languages is an allow-list of language codes applied while merging
	// source results. Empty means all languages.
	Languages []string `json:"languages" yaml:"languages"`
}
