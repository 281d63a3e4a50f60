// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package persist

import (
	"archive/zip"
	"encoding/csv"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/bookharvest/pkg/types"
)

func sampleBooks() []*types.Book {
	return []*types.Book{
		{
			Source: types.SourceArchive, Identifier: "b1", Title: "Book One",
			Author: "Alice", Language: "en", Subjects: "History, Europe",
			Categories: "History, Europe", DownloadCount: 10, FileSize: 2048,
			AddedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		},
		{Source: types.SourceGutenberg, Identifier: "b2", Title: ""},
		{Source: types.SourceGutenberg, Identifier: "b3", Title: "Book Three", Language: "fr"},
	}
}

func TestWriteTableFiltersUntitled(t *testing.T) {
	cfg := types.OutputConfig{BooksDir: t.TempDir()}

	path, err := WriteTable(sampleBooks(), cfg)
	require.NoError(t, err)
	assert.Equal(t, cfg.TablePath(), path)

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 3, "header plus two titled records")
	assert.Equal(t, Columns, rows[0])
	for _, row := range rows[1:] {
		assert.Len(t, row, len(Columns))
	}
	assert.Equal(t, "Book One", rows[1][0])
	assert.Equal(t, "Book Three", rows[2][0])
}

func TestTableRoundTrip(t *testing.T) {
	cfg := types.OutputConfig{BooksDir: t.TempDir()}

	_, err := WriteTable(sampleBooks(), cfg)
	require.NoError(t, err)

	books, err := ReadTable(cfg.TablePath())
	require.NoError(t, err)
	require.Len(t, books, 2)

	got := books[0]
	assert.Equal(t, types.SourceArchive, got.Source)
	assert.Equal(t, "b1", got.Identifier)
	assert.Equal(t, "Alice", got.Author)
	assert.Equal(t, 10, got.DownloadCount)
	assert.Equal(t, int64(2048), got.FileSize)
	assert.Equal(t, time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC), got.AddedAt.UTC())
}

func TestWriteArchiveLayout(t *testing.T) {
	cfg := types.OutputConfig{BooksDir: t.TempDir()}

	require.NoError(t, os.MkdirAll(cfg.DocumentsDir(), 0o755))
	require.NoError(t, os.MkdirAll(cfg.CoversDir(), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.DocumentsDir(), "a.pdf"), []byte("doc"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.CoversDir(), "a.jpg"), []byte("img"), 0o644))
	_, err := WriteTable(sampleBooks(), cfg)
	require.NoError(t, err)

	path, err := WriteArchive(cfg)
	require.NoError(t, err)

	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()

	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	sort.Strings(names)
	assert.Equal(t, []string{types.TableFile, "covers/a.jpg", "documents/a.pdf"}, names)
}

func TestWriteArchiveMissingDirs(t *testing.T) {
	cfg := types.OutputConfig{BooksDir: t.TempDir()}

	// No documents/, covers/, or table yet: archive is just empty.
	path, err := WriteArchive(cfg)
	require.NoError(t, err)

	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()
	assert.Empty(t, zr.File)
}

func TestWriteArchiveOverwrites(t *testing.T) {
	cfg := types.OutputConfig{BooksDir: t.TempDir()}

	require.NoError(t, os.MkdirAll(cfg.DocumentsDir(), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.DocumentsDir(), "a.pdf"), []byte("doc"), 0o644))

	_, err := WriteArchive(cfg)
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(cfg.DocumentsDir(), "a.pdf")))
	path, err := WriteArchive(cfg)
	require.NoError(t, err)

	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()
	assert.Empty(t, zr.File, "second archive replaces the first")
}
