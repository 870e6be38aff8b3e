package hackmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/koukeneko/blogd/internal/catalogue"
)

// Note is a HackMD note as returned by the API. Notes fetched through the
// download endpoint only carry ID and Content.
type Note struct {
	ID            string   `json:"id"`
	ShortID       string   `json:"shortId"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Content       string   `json:"content"`
	Tags          []string `json:"tags"`
	PublishType   string   `json:"publishType"`
	Permalink     string   `json:"permalink"`
	CreatedAt     Millis   `json:"createdAt"`
	UpdatedAt     Millis   `json:"updatedAt"`
	PublishedAt   Millis   `json:"publishedAt"`
	LastChangedAt Millis   `json:"lastChangedAt"`

	FromAPI bool `json:"-"`
}

// Modified is the most specific modification time the note carries.
func (n *Note) Modified() time.Time {
	if !n.UpdatedAt.IsZero() {
		return n.UpdatedAt.Time
	}
	return n.LastChangedAt.Time
}

// IsPublic reports whether the note is readable without signing in.
func (n *Note) IsPublic() bool {
	switch n.PublishType {
	case "edit", "view", "both":
		return true
	}
	return false
}

// NoteSummary is a note listing entry.
type NoteSummary struct {
	ID               string             `json:"id"`
	ShortID          string             `json:"shortId"`
	Title            string             `json:"title"`
	Description      string             `json:"description"`
	Tags             []string           `json:"tags"`
	CreatedAt        Millis             `json:"createdAt"`
	UpdatedAt        Millis             `json:"updatedAt"`
	PublishedAt      Millis             `json:"publishedAt"`
	PublishType      string             `json:"publishType"`
	Permalink        string             `json:"permalink"`
	URL              string             `json:"url"`
	EditURL          string             `json:"editUrl"`
	IsPublic         bool               `json:"isPublic"`
	ConfigSuggestion catalogue.Document `json:"configSuggestion"`
}

// NoteList is the result of ListNotes.
type NoteList struct {
	Username        string               `json:"username"`
	TotalNotes      int                  `json:"totalNotes"`
	PublicNotes     int                  `json:"publicNotes"`
	Notes           []NoteSummary        `json:"notes"`
	SuggestedConfig []catalogue.Document `json:"suggestedConfig"`
}

// ListNotes lists the token owner's notes, newest first, with ready-made
// catalogue entries for the public ones. username only labels the result and
// defaults to the configured user.
func (c *Client) ListNotes(ctx context.Context, username string) (*NoteList, error) {
	if c.token == "" {
		return nil, ErrTokenRequired
	}
	if username == "" {
		username = c.username
	}

	var notes []Note
	if err := c.getJSON(ctx, "/notes", &notes); err != nil {
		return nil, fmt.Errorf("hackmd: list notes: %w", err)
	}

	out := &NoteList{
		Username:        username,
		Notes:           make([]NoteSummary, 0, len(notes)),
		SuggestedConfig: []catalogue.Document{},
	}
	for i := range notes {
		out.Notes = append(out.Notes, c.summarize(&notes[i]))
	}
	slices.SortStableFunc(out.Notes, func(a, b NoteSummary) int {
		return b.UpdatedAt.Compare(a.UpdatedAt.Time)
	})

	out.TotalNotes = len(out.Notes)
	for _, n := range out.Notes {
		if n.IsPublic {
			out.PublicNotes++
			out.SuggestedConfig = append(out.SuggestedConfig, n.ConfigSuggestion)
		}
	}
	return out, nil
}

func (c *Client) summarize(n *Note) NoteSummary {
	title := n.Title
	if title == "" {
		title = "Untitled"
	}
	tags := n.Tags
	if tags == nil {
		tags = []string{}
	}
	return NoteSummary{
		ID:          n.ID,
		ShortID:     n.ShortID,
		Title:       title,
		Description: n.Description,
		Tags:        tags,
		CreatedAt:   n.CreatedAt,
		UpdatedAt:   n.UpdatedAt,
		PublishedAt: n.PublishedAt,
		PublishType: n.PublishType,
		Permalink:   n.Permalink,
		URL:         c.NoteURL(n.ShortID),
		EditURL:     c.NoteURL(n.ShortID) + "/edit",
		IsPublic:    n.IsPublic(),
		ConfigSuggestion: catalogue.Document{
			ID:          n.ShortID,
			Title:       title,
			Description: n.Description,
			Category:    catalogue.DefaultCategory,
			Tags:        tags,
		},
	}
}

// Millis is a HackMD timestamp. The API sends epoch milliseconds; RFC 3339
// strings and null are accepted as well.
type Millis struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Millis) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		m.Time = time.Time{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			m.Time = time.Time{}
			return nil
		}
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			m.Time = time.UnixMilli(ms).UTC()
			return nil
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("hackmd: timestamp %q: %w", s, err)
		}
		m.Time = t
		return nil
	}
	ms, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("hackmd: timestamp %s: %w", data, err)
	}
	m.Time = time.UnixMilli(int64(ms)).UTC()
	return nil
}

// MarshalJSON writes RFC 3339, or null for the zero time.
func (m Millis) MarshalJSON() ([]byte, error) {
	if m.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(m.Time.UTC().Format(time.RFC3339Nano))
}
