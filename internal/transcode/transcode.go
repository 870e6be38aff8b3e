// Package transcode runs the markdown pipeline shared by the HTTP API, the
// MCP tools and the CLI: call-out rewriting, outline extraction and optional
// HTML rendering.
package transcode

import (
	"fmt"

	"github.com/koukeneko/blogd/internal/markdown"
	"github.com/koukeneko/blogd/internal/render"
)

// Callout is a call-out found in the source, with its type resolved.
type Callout struct {
	Type  markdown.CalloutType `json:"type"`
	Title string               `json:"title"`
}

// Result is the output of Run.
type Result struct {
	Content     string             `json:"content"`
	Callouts    []Callout          `json:"callouts"`
	TOC         []markdown.Heading `json:"toc"`
	ReadingTime int                `json:"readingTime"`
	HTML        string             `json:"html,omitempty"`
}

// Options tune Run.
type Options struct {
	// UniqueIDs suffixes repeated heading ids.
	UniqueIDs bool
	// Renderer, when set, also renders the transcoded content to HTML.
	Renderer *render.Renderer
}

// Run transcodes src and derives its outline and reading time.
func Run(src string, opts Options) (*Result, error) {
	content := markdown.Transcode(src)
	toc := markdown.Headings(content)
	if opts.UniqueIDs {
		toc = markdown.UniqueIDs(toc)
	}
	if toc == nil {
		toc = []markdown.Heading{}
	}

	res := &Result{
		Content:     content,
		Callouts:    Callouts(src),
		TOC:         toc,
		ReadingTime: markdown.ReadingTime(content),
	}
	if opts.Renderer != nil {
		html, err := opts.Renderer.Render(content)
		if err != nil {
			return nil, fmt.Errorf("transcode: render: %w", err)
		}
		res.HTML = html
	}
	return res, nil
}

// Callouts lists the call-out blocks of src in order.
func Callouts(src string) []Callout {
	out := []Callout{}
	for _, seg := range markdown.Extract(src) {
		if seg.Block == nil {
			continue
		}
		t := markdown.ResolveCalloutType(seg.Block.Type)
		title := seg.Block.Title
		if title == "" {
			title = t.Title()
		}
		out = append(out, Callout{Type: t, Title: title})
	}
	return out
}
