package render

import (
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"github.com/koukeneko/blogd/internal/markdown"
)

type calloutTransformer struct {
	uniqueIDs bool
}

func (t *calloutTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	source := reader.Source()
	ids := markdown.NewIDSet()

	var quotes []*ast.Blockquote
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := n.(type) {
		case *ast.Heading:
			id := markdown.Slugify(markdown.PlainText(toNode(v, source)))
			if t.uniqueIDs {
				id = ids.Claim(id)
			}
			v.SetAttributeString("id", []byte(id))
		case *ast.Blockquote:
			quotes = append(quotes, v)
		}
		return ast.WalkContinue, nil
	})

	// Rewriting during the walk would disturb its sibling traversal.
	for _, q := range quotes {
		decorate(q, source)
	}
}

// decorate marks q as a call-out. An explicit "[!TYPE] title" first line wins;
// otherwise the type is guessed from the quote's text.
func decorate(q *ast.Blockquote, source []byte) {
	if p, ok := q.FirstChild().(*ast.Paragraph); ok {
		first, _, _ := strings.Cut(markdown.PlainText(toNode(p, source)), "\n")
		if ct, title, ok := markdown.ParseMarker(first); ok {
			if title == "" {
				title = ct.Title()
			}
			dropFirstLine(p)
			if p.ChildCount() == 0 {
				q.RemoveChild(q, p)
			}

			heading := ast.NewParagraph()
			heading.SetAttributeString("class", []byte("callout-title"))
			heading.AppendChild(heading, ast.NewString([]byte(title)))
			if fc := q.FirstChild(); fc != nil {
				q.InsertBefore(q, fc, heading)
			} else {
				q.AppendChild(q, heading)
			}

			setCallout(q, ct)
			return
		}
	}

	var parts []string
	for c := q.FirstChild(); c != nil; c = c.NextSibling() {
		parts = append(parts, markdown.PlainText(toNode(c, source)))
	}
	setCallout(q, markdown.Classify(strings.Join(parts, " ")))
	q.SetAttributeString("data-callout-auto", []byte("true"))
}

// setCallout applies the style of ct: its border and background classes and
// the icon name.
func setCallout(q *ast.Blockquote, ct markdown.CalloutType) {
	st := ct.Style()
	q.SetAttributeString("class", []byte("callout callout-"+string(st.Type)+" "+st.Border+" "+st.Background))
	q.SetAttributeString("data-callout", []byte(st.Type))
	q.SetAttributeString("data-icon", []byte(st.Icon))
}

// dropFirstLine removes the inline children of p up to and including the
// first soft or hard line break.
func dropFirstLine(p *ast.Paragraph) {
	for c := p.FirstChild(); c != nil; {
		next := c.NextSibling()
		p.RemoveChild(p, c)
		if txt, ok := c.(*ast.Text); ok && (txt.SoftLineBreak() || txt.HardLineBreak()) {
			return
		}
		c = next
	}
}

// toNode converts a goldmark subtree into a markdown.Node. Line breaks become
// "\n" so callers can split on them.
func toNode(n ast.Node, source []byte) markdown.Node {
	switch v := n.(type) {
	case *ast.Text:
		s := string(v.Segment.Value(source))
		if v.SoftLineBreak() || v.HardLineBreak() {
			s += "\n"
		}
		return markdown.Text(s)
	case *ast.String:
		return markdown.Text(v.Value)
	case *ast.AutoLink:
		return markdown.Text(v.Label(source))
	case *ast.RawHTML:
		return markdown.Text("")
	}

	el := &markdown.Element{Tag: n.Kind().String()}
	if n.Type() == ast.TypeBlock && !n.HasChildren() {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			el.Children = append(el.Children, markdown.Text(seg.Value(source)))
		}
		return el
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		el.Children = append(el.Children, toNode(c, source))
	}
	return el
}
