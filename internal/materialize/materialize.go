// Package materialize downloads document and cover files for aggregated
// book records and writes per-book metadata sidecars.
package materialize

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/bookharvest/internal/httputil"
	"github.com/pdiddy/bookharvest/pkg/types"
)

// maxFilenameLen bounds sanitized title length in destination file names.
const maxFilenameLen = 200

var (
	documentExts = []string{".pdf", ".epub", ".txt"}
	imageExts    = []string{".jpeg", ".png", ".jpg"}
)

// Fetcher downloads the files referenced by book records.
type Fetcher struct {
	Client *http.Client
	Config types.FetchConfig
	Log    io.Writer
}

// NewFetcher builds a Fetcher with a per-call timeout from cfg.
func NewFetcher(cfg types.FetchConfig, log io.Writer) *Fetcher {
	return &Fetcher{
		Client: &http.Client{Timeout: cfg.Timeout},
		Config: cfg,
		Log:    log,
	}
}

// Fetch downloads each record's document and cover, filling the local
// path fields in place, and returns the same slice for chaining. A file
// already on disk counts as downloaded and is not refetched; a failed
// download is logged and leaves its path field empty. One record's
// failure never stops the rest.
func (f *Fetcher) Fetch(books []*types.Book) []*types.Book {
	fmt.Fprintf(f.Log, "fetching files for %d books\n", len(books))

	for _, dir := range []string{
		f.Config.DocumentsDir(),
		f.Config.CoversDir(),
		f.Config.MetadataDir(),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fmt.Fprintf(f.Log, "warning: creating %s: %v\n", dir, err)
			return books
		}
	}

	for i, book := range books {
		f.fetchOne(book, i, len(books))
		if f.Config.FetchDelay > 0 {
			time.Sleep(f.Config.FetchDelay)
		}
	}
	return books
}

func (f *Fetcher) fetchOne(book *types.Book, index, total int) {
	name := SanitizeFilename(book.Title)
	if name == "" {
		name = fmt.Sprintf("book_%d", index)
	}
	stem := name + "_" + book.Identifier

	if book.DocumentURL != "" {
		ext := extFor(book.DocumentURL, documentExts, ".pdf")
		dest := filepath.Join(f.Config.DocumentsDir(), stem+ext)
		if path, ok := f.fetchFile(book.DocumentURL, dest); ok {
			book.LocalDocumentPath = path
			fmt.Fprintf(f.Log, "document %d/%d: %s\n", index+1, total, stem+ext)
		}
	}

	if book.CoverURL != "" {
		ext := extFor(book.CoverURL, imageExts, ".jpg")
		dest := filepath.Join(f.Config.CoversDir(), stem+ext)
		if path, ok := f.fetchFile(book.CoverURL, dest); ok {
			book.LocalCoverPath = path
			fmt.Fprintf(f.Log, "cover %d/%d: %s\n", index+1, total, stem+ext)
		}
	}

	if book.LocalDocumentPath != "" || book.LocalCoverPath != "" {
		if err := writeSidecar(book, filepath.Join(f.Config.MetadataDir(), stem+".yaml")); err != nil {
			fmt.Fprintf(f.Log, "warning: metadata for %s: %v\n", book.Identifier, err)
		}
	}
}

// fetchFile downloads url to dest unless a file is already there.
func (f *Fetcher) fetchFile(url, dest string) (string, bool) {
	if _, err := os.Stat(dest); err == nil {
		return dest, true
	}
	if err := httputil.Download(f.Client, url, f.Config.UserAgent, dest); err != nil {
		fmt.Fprintf(f.Log, "warning: downloading %s: %v\n", url, err)
		return "", false
	}
	return dest, true
}

// writeSidecar records the enriched book as a YAML file alongside the
// downloads.
func writeSidecar(book *types.Book, path string) error {
	data, err := yaml.Marshal(book)
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// SanitizeFilename makes a title safe for file names: characters illegal
// on common filesystems are stripped, whitespace runs collapse to a
// single underscore, and the result is truncated to 200 characters.
func SanitizeFilename(title string) string {
	var b strings.Builder
	for _, r := range title {
		if !strings.ContainsRune(`<>:"/\|?*`, r) {
			b.WriteRune(r)
		}
	}
	name := strings.Join(strings.Fields(b.String()), "_")
	if utf8.RuneCountInString(name) > maxFilenameLen {
		runes := []rune(name)
		name = string(runes[:maxFilenameLen])
	}
	return name
}

// extFor returns the matching extension from allowed when url ends with
// one, or fallback otherwise.
func extFor(url string, allowed []string, fallback string) string {
	lower := strings.ToLower(url)
	for _, ext := range allowed {
		if strings.HasSuffix(lower, ext) {
			return ext
		}
	}
	return fallback
}
