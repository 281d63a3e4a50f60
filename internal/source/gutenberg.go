// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/bookharvest/internal/httputil"
	"github.com/pdiddy/bookharvest/pkg/types"
)

// Project Gutenberg endpoints. Vars so tests can substitute an httptest
// server.
var (
	gutenbergFeedURL = "https://www.gutenberg.org/cache/epub/feeds/today.rss"
	gutenbergBaseURL = "https://www.gutenberg.org"
)

// GutenbergClient discovers book records through Project Gutenberg's
// daily RSS feed and per-item RDF descriptors.
type GutenbergClient struct {
	Client *http.Client
	// Probes handles the lightweight file-existence checks with a
	// shorter timeout than regular requests.
	Probes *http.Client
	Config types.SourceConfig
	Log    io.Writer
}

// NewGutenbergClient builds a client with timeouts from cfg.
func NewGutenbergClient(cfg types.SourceConfig, log io.Writer) *GutenbergClient {
	probeTimeout := cfg.ProbeTimeout
	if probeTimeout <= 0 {
		probeTimeout = 10 * time.Second
	}
	return &GutenbergClient{
		Client: &http.Client{Timeout: cfg.Timeout},
		Probes: &http.Client{Timeout: probeTimeout},
		Config: cfg,
		Log:    log,
	}
}

// Discover reads at most target items from the feed and resolves each
// into a Book. A feed-level failure returns what was collected so far;
// per-item failures are logged and skipped. Deduplication across
// sources is the aggregator's job, so Discover applies none of its own.
func (c *GutenbergClient) Discover(target int) []*types.Book {
	fmt.Fprintf(c.Log, "gutenberg.org: discovering up to %d books\n", target)

	items, err := c.feedItems()
	if err != nil {
		fmt.Fprintf(c.Log, "warning: gutenberg.org feed: %v\n", err)
		return nil
	}
	if len(items) > target {
		items = items[:target]
	}

	var books []*types.Book
	for _, item := range items {
		id := itemID(item.Link)
		if id == "" {
			continue
		}
		book, err := c.BookDetails(id)
		if err != nil {
			fmt.Fprintf(c.Log, "warning: gutenberg.org item %s: %v\n", id, err)
			continue
		}
		books = append(books, book)
		fmt.Fprintf(c.Log, "gutenberg.org %d/%d: %s\n", len(books), len(items), book.Title)
	}
	return books
}

type rssFeed struct {
	Items []rssItem `xml:"channel>item"`
}

type rssItem struct {
	Title string `xml:"title"`
	Link  string `xml:"link"`
}

func (c *GutenbergClient) feedItems() ([]rssItem, error) {
	body, err := httputil.Get(c.Client, gutenbergFeedURL, c.Config.UserAgent)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var feed rssFeed
	if err := xml.NewDecoder(body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}
	return feed.Items, nil
}

// itemID extracts the numeric book ID from a feed link's trailing path
// segment. Non-numeric segments yield "".
func itemID(link string) string {
	seg := link[strings.LastIndex(link, "/")+1:]
	if seg == "" {
		return ""
	}
	for _, r := range seg {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return seg
}

// Gutenberg RDF descriptor structures. encoding/xml matches on local
// names, so dcterms:/pgterms: prefixes need no special handling.
type rdfFile struct {
	XMLName xml.Name `xml:"RDF"`
	Ebook   rdfEbook `xml:"ebook"`
}

type rdfEbook struct {
	Title       string     `xml:"title"`
	Creators    []rdfAgent `xml:"creator>agent"`
	Description string     `xml:"description"`
	Publisher   string     `xml:"publisher"`
	Language    []rdfValue `xml:"language>Description"`
	Subjects    []rdfValue `xml:"subject>Description"`
}

type rdfAgent struct {
	Name string `xml:"name"`
}

type rdfValue struct {
	Value string `xml:"value"`
}

// BookDetails fetches an item's RDF descriptor and probes the two
// well-known file URLs. Probe misses leave the URL fields empty without
// an error.
func (c *GutenbergClient) BookDetails(id string) (*types.Book, error) {
	descriptorURL := fmt.Sprintf("%s/cache/epub/%s/pg%s.rdf", gutenbergBaseURL, id, id)
	body, err := httputil.Get(c.Client, descriptorURL, c.Config.UserAgent)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var doc rdfFile
	if err := xml.NewDecoder(body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parsing descriptor: %w", err)
	}

	ebook := doc.Ebook
	var subjects []string
	for _, s := range ebook.Subjects {
		subjects = append(subjects, s.Value)
	}
	subjects = cleanStrings(subjects)

	publisher := strings.TrimSpace(ebook.Publisher)
	if publisher == "" {
		publisher = "Project Gutenberg"
	}
	language := defaultLanguage
	if len(ebook.Language) > 0 && strings.TrimSpace(ebook.Language[0].Value) != "" {
		language = strings.TrimSpace(ebook.Language[0].Value)
	}
	author := ""
	if len(ebook.Creators) > 0 {
		author = strings.TrimSpace(ebook.Creators[0].Name)
	}

	book := &types.Book{
		Source:      types.SourceGutenberg,
		Identifier:  id,
		Title:       strings.TrimSpace(ebook.Title),
		Author:      author,
		Description: strings.TrimSpace(ebook.Description),
		Publisher:   publisher,
		Language:    language,
		Subjects:    strings.Join(subjects, ", "),
		Categories:  types.JoinCategories(subjects),
		AddedAt:     time.Now(),
	}

	documentURL := fmt.Sprintf("%s/files/%s/%s-pdf.pdf", gutenbergBaseURL, id, id)
	if httputil.Probe(c.Probes, documentURL, c.Config.UserAgent) {
		book.DocumentURL = documentURL
	}
	coverURL := fmt.Sprintf("%s/cache/epub/%s/pg%s.cover.medium.jpg", gutenbergBaseURL, id, id)
	if httputil.Probe(c.Probes, coverURL, c.Config.UserAgent) {
		book.CoverURL = coverURL
	}

	return book, nil
}
