// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/bookharvest/internal/httputil"
	"github.com/pdiddy/bookharvest/pkg/types"
)

// archive.org endpoints. Declared as vars so tests can substitute an
// httptest server.
var (
	archiveSearchURL   = "https://archive.org/advancedsearch.php"
	archiveMetadataURL = "https://archive.org/metadata/"
	archiveDownloadURL = "https://archive.org/download/"
)

// archiveQuery selects freely downloadable text items.
const archiveQuery = "collection:(opensource) OR mediatype:(texts) AND format:(pdf)"

// ArchiveClient fetches book records from the archive.org search and
// metadata APIs.
type ArchiveClient struct {
	Client *http.Client
	Config types.SourceConfig
	Log    io.Writer
}

// NewArchiveClient builds a client with a per-call timeout from cfg.
func NewArchiveClient(cfg types.SourceConfig, log io.Writer) *ArchiveClient {
	return &ArchiveClient{
		Client: &http.Client{Timeout: cfg.Timeout},
		Config: cfg,
		Log:    log,
	}
}

// Search walks result pages ordered by download count until target
// unique records have been resolved or the source is exhausted.
// Identifiers in excluded (and identifiers already seen during this
// call) are skipped without a detail fetch. A page-level failure stops
// pagination and returns what was collected; an item-level failure
// skips just that item. Search never returns an error: shortfall is the
// caller's concern.
func (c *ArchiveClient) Search(target int, excluded map[string]bool) []*types.Book {
	fmt.Fprintf(c.Log, "archive.org: searching for %d books\n", target)

	var books []*types.Book
	seen := make(map[string]bool)

	for page := 1; len(books) < target; page++ {
		ids, err := c.searchPage(page)
		if err != nil {
			fmt.Fprintf(c.Log, "warning: archive.org page %d: %v\n", page, err)
			break
		}
		if len(ids) == 0 {
			break
		}

		for _, id := range ids {
			if len(books) >= target {
				break
			}
			if id == "" || seen[id] || excluded[id] {
				continue
			}
			book, err := c.BookDetails(id)
			if err != nil {
				fmt.Fprintf(c.Log, "warning: archive.org item %s: %v\n", id, err)
				continue
			}
			if book == nil {
				continue
			}
			books = append(books, book)
			seen[id] = true
			fmt.Fprintf(c.Log, "archive.org %d/%d: %s\n", len(books), target, book.Title)
		}

		if c.Config.PageDelay > 0 {
			time.Sleep(c.Config.PageDelay)
		}
	}
	return books
}

type archiveSearchResponse struct {
	Response struct {
		Docs []struct {
			Identifier string `json:"identifier"`
		} `json:"docs"`
	} `json:"response"`
}

// searchPage fetches one page of search results and returns the item
// identifiers in rank order.
func (c *ArchiveClient) searchPage(page int) ([]string, error) {
	pageSize := c.Config.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}

	params := url.Values{}
	params.Set("q", archiveQuery)
	for _, field := range []string{"identifier", "title", "description", "creator", "date", "subject", "download_count"} {
		params.Add("fl[]", field)
	}
	params.Add("sort[]", "downloads desc")
	params.Set("rows", strconv.Itoa(pageSize))
	params.Set("page", strconv.Itoa(page))
	params.Set("output", "json")

	body, err := httputil.Get(c.Client, archiveSearchURL+"?"+params.Encode(), c.Config.UserAgent)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var sr archiveSearchResponse
	if err := json.NewDecoder(body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("parsing search response: %w", err)
	}

	ids := make([]string, 0, len(sr.Response.Docs))
	for _, d := range sr.Response.Docs {
		ids = append(ids, d.Identifier)
	}
	return ids, nil
}

// archiveItem is the metadata API response. Many metadata fields come
// back as either a scalar or an array depending on the item, so the
// field types tolerate both.
type archiveItem struct {
	Metadata archiveMetadata `json:"metadata"`
	Files    []archiveFile   `json:"files"`
}

type archiveMetadata struct {
	Title         flexString `json:"title"`
	Creator       stringList `json:"creator"`
	Description   flexString `json:"description"`
	Date          flexString `json:"date"`
	Publisher     flexString `json:"publisher"`
	Language      stringList `json:"language"`
	Subject       stringList `json:"subject"`
	DownloadCount flexInt    `json:"download_count"`
	ISBN          stringList `json:"identifier-isbn"`
	Pages         flexString `json:"pages"`
}

type archiveFile struct {
	Name string  `json:"name"`
	Size flexInt `json:"size"`
}

// BookDetails fetches an item's full metadata record and maps it to a
// Book. It returns (nil, nil) when the item has no usable title, which
// the caller treats as a silent skip.
func (c *ArchiveClient) BookDetails(identifier string) (*types.Book, error) {
	body, err := httputil.Get(c.Client, archiveMetadataURL+identifier, c.Config.UserAgent)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var item archiveItem
	if err := json.NewDecoder(body).Decode(&item); err != nil {
		return nil, fmt.Errorf("parsing metadata: %w", err)
	}

	md := item.Metadata
	if md.Title == "" {
		return nil, nil
	}

	subjects := cleanStrings(md.Subject)
	book := &types.Book{
		Source:        types.SourceArchive,
		Identifier:    identifier,
		Title:         string(md.Title),
		Author:        md.Creator.First(),
		Description:   string(md.Description),
		Date:          string(md.Date),
		Publisher:     string(md.Publisher),
		Language:      md.Language.FirstOr(defaultLanguage),
		Subjects:      strings.Join(subjects, ", "),
		Categories:    types.JoinCategories(subjects),
		DownloadCount: int(md.DownloadCount),
		ISBN:          md.ISBN.First(),
		Pages:         string(md.Pages),
		AddedAt:       time.Now(),
	}

	c.resolveFileURLs(book, item.Files)
	return book, nil
}

// resolveFileURLs picks the document and cover URLs from an item's file
// list. These are ordered string-matching rules, not an exact
// algorithm: the first PDF whose name is not cover-like wins, and the
// first cover-like image wins.
func (c *ArchiveClient) resolveFileURLs(book *types.Book, files []archiveFile) {
	for _, f := range files {
		name := strings.ToLower(f.Name)

		if book.DocumentURL == "" && strings.HasSuffix(name, ".pdf") {
			if strings.Contains(name, "full text") || strings.Contains(name, "text") ||
				(!strings.Contains(name, "cover") && !strings.Contains(name, "thumb")) {
				book.DocumentURL = archiveDownloadURL + book.Identifier + "/" + f.Name
				book.FileSize = int64(f.Size)
			}
		}

		if book.CoverURL == "" &&
			(strings.Contains(name, "cover") || strings.Contains(name, "thumb")) &&
			hasImageSuffix(name) {
			book.CoverURL = archiveDownloadURL + book.Identifier + "/" + f.Name
		}
	}
}

func hasImageSuffix(name string) bool {
	return strings.HasSuffix(name, ".jpg") ||
		strings.HasSuffix(name, ".jpeg") ||
		strings.HasSuffix(name, ".png")
}
