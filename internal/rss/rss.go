// Package rss reads external feeds through an rss2json-compatible proxy and
// normalises their items for the blog's reading list.
package rss

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/koukeneko/blogd/internal/apperr"
)

// DefaultEndpoint is the public rss2json API.
const DefaultEndpoint = "https://api.rss2json.com/v1/api.json"

const userAgent = "Mozilla/5.0 (compatible; RSS Reader)"

// Item is a normalised feed entry.
type Item struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Link        string `json:"link"`
	PubDate     string `json:"pubDate"`
	Author      string `json:"author"`
	Category    string `json:"category"`
	Source      string `json:"source"`
}

// FeedInfo describes the feed itself.
type FeedInfo struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Link        string `json:"link"`
}

// Feed is the result of Fetch.
type Feed struct {
	Items    []Item   `json:"items"`
	FeedInfo FeedInfo `json:"feedInfo"`
}

// Client fetches feeds through the proxy endpoint.
type Client struct {
	httpClient *http.Client
	endpoint   string
	source     string
}

// New returns a Client. Items are labelled with source.
func New(httpClient *http.Client, endpoint, source string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{httpClient: httpClient, endpoint: endpoint, source: source}
}

type proxyResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Feed    struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Link        string `json:"link"`
	} `json:"feed"`
	Items []struct {
		Title       string   `json:"title"`
		Description string   `json:"description"`
		Link        string   `json:"link"`
		PubDate     string   `json:"pubDate"`
		Author      string   `json:"author"`
		Categories  []string `json:"categories"`
	} `json:"items"`
}

// Fetch loads feedURL through the proxy.
func (c *Client) Fetch(ctx context.Context, feedURL string) (*Feed, error) {
	if strings.TrimSpace(feedURL) == "" {
		return nil, fmt.Errorf("rss: feed url is required: %w", apperr.ErrInvalidInput)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?rss_url="+url.QueryEscape(feedURL), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("rss: fetch: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rss: fetch: %w: %w", apperr.ErrUpstream, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("rss: fetch: %w: %s", apperr.ErrUpstream, resp.Status)
	}

	var pr proxyResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, fmt.Errorf("rss: decode: %w", err)
	}
	if pr.Status != "ok" {
		msg := pr.Message
		if msg == "" {
			msg = "failed to fetch RSS feed"
		}
		return nil, fmt.Errorf("rss: %w: %s", apperr.ErrUpstream, msg)
	}

	feed := &Feed{
		Items: make([]Item, 0, len(pr.Items)),
		FeedInfo: FeedInfo{
			Title:       orDefault(pr.Feed.Title, "RSS Feed"),
			Description: pr.Feed.Description,
			Link:        pr.Feed.Link,
		},
	}
	for i, it := range pr.Items {
		author := it.Author
		if author == "" {
			author = orDefault(pr.Feed.Title, "Unknown")
		}
		feed.Items = append(feed.Items, Item{
			ID:          i + 1,
			Title:       orDefault(it.Title, "No title"),
			Description: StripHTML(it.Description),
			Link:        it.Link,
			PubDate:     it.PubDate,
			Author:      author,
			Category:    orDefault(strings.Join(it.Categories, ", "), "General"),
			Source:      c.source,
		})
	}
	return feed, nil
}

// StripHTML returns the text content of an HTML fragment.
func StripHTML(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(doc.Text())
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
