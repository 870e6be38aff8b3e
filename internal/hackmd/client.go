// Package hackmd fetches notes from HackMD, through the v1 API when a token is
// configured and through the public download endpoint otherwise.
package hackmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/koukeneko/blogd/internal/apperr"
)

// Defaults match the public HackMD service.
const (
	DefaultBaseURL         = "https://api.hackmd.io/v1"
	DefaultDownloadBaseURL = "https://hackmd.io"
	DefaultUsername        = "KoukeNeko"

	downloadUserAgent = "Mozilla/5.0 (compatible; HackMD Reader)"
	apiUserAgent      = "blogd-hackmd/1.0"
)

// ErrTokenRequired is returned by calls that only work through the API.
var ErrTokenRequired = errors.New("hackmd: api token required")

// Config configures a Client.
type Config struct {
	Token           string
	BaseURL         string
	DownloadBaseURL string
	Username        string
	HTTPClient      *http.Client
	Logger          *slog.Logger
}

// Client talks to HackMD.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	downloadBase string
	token        string
	username     string
	logger       *slog.Logger
}

// New builds a Client, filling unset fields with defaults.
func New(cfg Config) *Client {
	c := &Client{
		httpClient:   cfg.HTTPClient,
		baseURL:      strings.TrimSuffix(cfg.BaseURL, "/"),
		downloadBase: strings.TrimSuffix(cfg.DownloadBaseURL, "/"),
		token:        cfg.Token,
		username:     cfg.Username,
		logger:       cfg.Logger,
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.downloadBase == "" {
		c.downloadBase = DefaultDownloadBaseURL
	}
	if c.username == "" {
		c.username = DefaultUsername
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// NoteURL is the public page of a note.
func (c *Client) NoteURL(id string) string {
	return c.downloadBase + "/" + id
}

// GetNote fetches a note. With a token the API is tried first, retrying a 404
// under the configured user's namespace; any API failure falls back to the
// download endpoint, which only yields the raw markdown.
func (c *Client) GetNote(ctx context.Context, id string) (*Note, error) {
	if c.token != "" {
		n, err := c.apiNote(ctx, id)
		if err == nil {
			return n, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Warn("hackmd: api failed, falling back to download",
			slog.String("id", id),
			slog.String("error", err.Error()))
	}

	content, err := c.download(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Note{ID: id, Content: content}, nil
}

func (c *Client) apiNote(ctx context.Context, id string) (*Note, error) {
	var n Note
	err := c.getJSON(ctx, "/notes/"+id, &n)
	if errors.Is(err, apperr.ErrNotFound) {
		err = c.getJSON(ctx, "/notes/@"+c.username+"/"+id, &n)
	}
	if err != nil {
		return nil, err
	}
	n.FromAPI = true
	if n.ID == "" {
		n.ID = id
	}
	return &n, nil
}

func (c *Client) download(ctx context.Context, id string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.downloadBase+"/"+id+"/download", http.NoBody)
	if err != nil {
		return "", fmt.Errorf("hackmd: download %s: %w", id, err)
	}
	req.Header.Set("User-Agent", downloadUserAgent)
	req.Header.Set("Accept", "text/markdown,text/plain,*/*")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("hackmd: download %s: %w: %w", id, apperr.ErrUpstream, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := statusError(resp); err != nil {
		return "", fmt.Errorf("hackmd: download %s: %w", id, err)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("hackmd: download %s: read body: %w", id, err)
	}
	return string(data), nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, http.NoBody)
	if err != nil {
		return fmt.Errorf("hackmd: GET %s: %w", endpoint, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", apiUserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("hackmd: GET %s: %w: %w", endpoint, apperr.ErrUpstream, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := statusError(resp); err != nil {
		return fmt.Errorf("hackmd: GET %s: %w", endpoint, err)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("hackmd: GET %s: decode: %w", endpoint, err)
	}
	return nil
}

// statusError maps a non-2xx response to a sentinel, keeping a short excerpt
// of the body for diagnostics.
func statusError(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	body := strings.ReplaceAll(strings.TrimSpace(string(excerpt)), "\n", " ")

	sentinel := apperr.ErrUpstream
	if resp.StatusCode == http.StatusNotFound {
		sentinel = apperr.ErrNotFound
	}
	if body == "" {
		return fmt.Errorf("%w: %s", sentinel, resp.Status)
	}
	return fmt.Errorf("%w: %s: %s", sentinel, resp.Status, body)
}
