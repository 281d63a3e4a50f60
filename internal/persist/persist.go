// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package persist serializes the aggregated collection to the CSV table
// and bundles the output tree into a zip archive.
package persist

import (
	"archive/zip"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pdiddy/bookharvest/pkg/types"
)

// Columns is the fixed table schema, in order.
var Columns = []string{
	"title", "author", "description", "date", "publisher", "language",
	"subjects", "categories", "isbn", "pages", "source", "identifier",
	"download_count", "file_size", "document_url", "cover_url",
	"local_document_path", "local_cover_path", "added_timestamp",
}

// WriteTable writes one CSV row per record with a non-empty title,
// UTF-8 with a header row, and returns the table path. Records without
// a title stay in the in-memory collection; they are only excluded here.
func WriteTable(books []*types.Book, cfg types.OutputConfig) (string, error) {
	if err := os.MkdirAll(cfg.BooksDir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	path := cfg.TablePath()
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating table file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(Columns); err != nil {
		return "", fmt.Errorf("writing header: %w", err)
	}
	written := 0
	for _, b := range books {
		if b.Title == "" {
			continue
		}
		if err := w.Write(row(b)); err != nil {
			return "", fmt.Errorf("writing row for %s: %w", b.Identifier, err)
		}
		written++
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flushing table: %w", err)
	}
	return path, nil
}

func row(b *types.Book) []string {
	added := ""
	if !b.AddedAt.IsZero() {
		added = b.AddedAt.Format(time.RFC3339)
	}
	return []string{
		b.Title, b.Author, b.Description, b.Date, b.Publisher, b.Language,
		b.Subjects, b.Categories, b.ISBN, b.Pages, string(b.Source), b.Identifier,
		strconv.Itoa(b.DownloadCount), strconv.FormatInt(b.FileSize, 10),
		b.DocumentURL, b.CoverURL, b.LocalDocumentPath, b.LocalCoverPath, added,
	}
}

// ReadTable loads a previously written table back into book records.
// Unknown columns are ignored and missing ones read as empty, so older
// tables stay loadable.
func ReadTable(path string) ([]*types.Book, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening table: %w", err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	get := func(rec []string, name string) string {
		if i, ok := col[name]; ok && i < len(rec) {
			return rec[i]
		}
		return ""
	}

	var books []*types.Book
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row: %w", err)
		}
		downloads, _ := strconv.Atoi(get(rec, "download_count"))
		size, _ := strconv.ParseInt(get(rec, "file_size"), 10, 64)
		added, _ := time.Parse(time.RFC3339, get(rec, "added_timestamp"))
		books = append(books, &types.Book{
			Title:             get(rec, "title"),
			Author:            get(rec, "author"),
			Description:       get(rec, "description"),
			Date:              get(rec, "date"),
			Publisher:         get(rec, "publisher"),
			Language:          get(rec, "language"),
			Subjects:          get(rec, "subjects"),
			Categories:        get(rec, "categories"),
			ISBN:              get(rec, "isbn"),
			Pages:             get(rec, "pages"),
			Source:            types.Source(get(rec, "source")),
			Identifier:        get(rec, "identifier"),
			DownloadCount:     downloads,
			FileSize:          size,
			DocumentURL:       get(rec, "document_url"),
			CoverURL:          get(rec, "cover_url"),
			LocalDocumentPath: get(rec, "local_document_path"),
			LocalCoverPath:    get(rec, "local_cover_path"),
			AddedAt:           added,
		})
	}
	return books, nil
}

// WriteArchive packages the documents directory (under documents/), the
// covers directory (under covers/), and the table file into one zip at
// the fixed archive path, replacing any prior archive.
func WriteArchive(cfg types.OutputConfig) (string, error) {
	path := cfg.ArchivePath()
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating archive: %w", err)
	}
	defer file.Close()

	zw := zip.NewWriter(file)
	if err := addDir(zw, cfg.DocumentsDir(), "documents"); err != nil {
		return "", err
	}
	if err := addDir(zw, cfg.CoversDir(), "covers"); err != nil {
		return "", err
	}
	if _, err := os.Stat(cfg.TablePath()); err == nil {
		if err := addFile(zw, cfg.TablePath(), types.TableFile); err != nil {
			return "", err
		}
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("finalizing archive: %w", err)
	}
	return path, nil
}

// addDir adds every regular file in dir to the archive under prefix/.
// A missing directory is not an error.
func addDir(zw *zip.Writer, dir, prefix string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading %s: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		src := filepath.Join(dir, entry.Name())
		if err := addFile(zw, src, prefix+"/"+entry.Name()); err != nil {
			return err
		}
	}
	return nil
}

func addFile(zw *zip.Writer, src, name string) error {
	file, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer file.Close()

	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("adding %s to archive: %w", name, err)
	}
	if _, err := io.Copy(w, file); err != nil {
		return fmt.Errorf("writing %s to archive: %w", name, err)
	}
	return nil
}
