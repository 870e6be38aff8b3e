// Package render turns canonical markdown into HTML. Call-out blockquotes get
// type classes and a title paragraph, and headings get stable anchor ids that
// match the outline produced by markdown.Headings.
package render

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

// Option configures a Renderer.
type Option func(*options)

type options struct {
	uniqueIDs bool
	rawHTML   bool
}

// WithUniqueIDs suffixes repeated heading ids with -2, -3, ...
func WithUniqueIDs(on bool) Option {
	return func(o *options) { o.uniqueIDs = on }
}

// WithRawHTML passes raw HTML in the source through to the output.
func WithRawHTML(on bool) Option {
	return func(o *options) { o.rawHTML = on }
}

// Renderer converts markdown to HTML. It is safe for concurrent use.
type Renderer struct {
	md goldmark.Markdown
}

// New builds a Renderer with GFM and the call-out transformer enabled.
func New(opts ...Option) *Renderer {
	var o options
	for _, fn := range opts {
		fn(&o)
	}

	rendererOptions := []renderer.Option{}
	if o.rawHTML {
		rendererOptions = append(rendererOptions, html.WithUnsafe())
	}

	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(
			parser.WithASTTransformers(
				util.Prioritized(&calloutTransformer{uniqueIDs: o.uniqueIDs}, 100),
			),
		),
		goldmark.WithRendererOptions(rendererOptions...),
	)
	return &Renderer{md: md}
}

// Render converts src to HTML.
func (r *Renderer) Render(src string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("render: convert: %w", err)
	}
	return buf.String(), nil
}
