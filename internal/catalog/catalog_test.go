package catalog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/bookharvest/pkg/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "catalog.db"), 0)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testBooks() []*types.Book {
	return []*types.Book{
		{
			Source:        types.SourceArchive,
			Identifier:    "moby-dick",
			Title:         "Moby Dick",
			Author:        "Herman Melville",
			Description:   "A whaling voyage aboard the Pequod",
			Language:      "en",
			Subjects:      "Whaling, Sea stories",
			Categories:    "Whaling, Sea stories",
			DownloadCount: 900,
			AddedAt:       time.Now(),
		},
		{
			Source:        types.SourceGutenberg,
			Identifier:    "2701",
			Title:         "Treasure Island",
			Author:        "Robert Louis Stevenson",
			Description:   "Pirates and buried treasure",
			Language:      "en",
			Categories:    "Adventure, Pirates",
			DownloadCount: 1500,
		},
		{
			Source:        types.SourceArchive,
			Identifier:    "notre-dame",
			Title:         "Notre-Dame de Paris",
			Author:        "Victor Hugo",
			Language:      "fr",
			Categories:    "Historical fiction",
			DownloadCount: 300,
		},
	}
}

func TestInsertAndCount(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	books := append(testBooks(), &types.Book{Title: "No Identifier"})
	n, err := store.Insert(ctx, books)
	require.NoError(t, err)
	assert.Equal(t, 3, n, "record without identifier should be skipped")

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestInsertUpserts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	books := testBooks()
	_, err := store.Insert(ctx, books)
	require.NoError(t, err)

	books[0].Title = "Moby Dick; or, The Whale"
	_, err = store.Insert(ctx, books)
	require.NoError(t, err)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count, "reinsert must not duplicate rows")

	got, err := store.Query(ctx, QueryOptions{Text: "whale"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Moby Dick; or, The Whale", got[0].Title)
}

func TestQueryFullText(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	_, err := store.Insert(ctx, testBooks())
	require.NoError(t, err)

	tests := []struct {
		name    string
		opts    QueryOptions
		wantIDs []string
	}{
		{"title match", QueryOptions{Text: "treasure"}, []string{"2701"}},
		{"author match", QueryOptions{Text: "Melville"}, []string{"moby-dick"}},
		{"description match", QueryOptions{Text: "whaling voyage"}, []string{"moby-dick"}},
		{"no match", QueryOptions{Text: "astronomy"}, nil},
		{"text plus language", QueryOptions{Text: "Hugo", Language: "fr"}, []string{"notre-dame"}},
		{"text excluded by language", QueryOptions{Text: "Hugo", Language: "en"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Query(ctx, tt.opts)
			require.NoError(t, err)
			var ids []string
			for _, b := range got {
				ids = append(ids, b.Identifier)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestQueryFiltersSortByDownloads(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	_, err := store.Insert(ctx, testBooks())
	require.NoError(t, err)

	got, err := store.Query(ctx, QueryOptions{Language: "en"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2701", got[0].Identifier)
	assert.Equal(t, "moby-dick", got[1].Identifier)

	got, err = store.Query(ctx, QueryOptions{Category: "Pirates"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "2701", got[0].Identifier)
}

func TestQuerySpecialCharactersDoNotInject(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	_, err := store.Insert(ctx, testBooks())
	require.NoError(t, err)

	// FTS5 operators in user input are treated as literal terms.
	for _, text := range []string{`treasure OR`, `"treasure`, `treasure NOT island`} {
		_, err := store.Query(ctx, QueryOptions{Text: text})
		assert.NoError(t, err, "query %q", text)
	}
}

func TestQueryMaxResults(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	_, err := store.Insert(ctx, testBooks())
	require.NoError(t, err)

	got, err := store.Query(ctx, QueryOptions{Language: "en", MaxResults: 1})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestMostPopular(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	_, err := store.Insert(ctx, testBooks())
	require.NoError(t, err)

	got, err := store.MostPopular(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2701", got[0].Identifier)
	assert.Equal(t, "moby-dick", got[1].Identifier)
}

func TestOpenReusesExistingDatabase(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.db")
	ctx := context.Background()

	store, err := Open(path, 0)
	require.NoError(t, err)
	_, err = store.Insert(ctx, testBooks())
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := Open(path, 0)
	require.NoError(t, err)
	defer reopened.Close()

	count, err := reopened.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}
