package markdown

import "strings"

// Node is a minimal document tree: either Text or an Element with children.
// Renderers convert their own trees into Node to recover plain text.
type Node interface {
	isNode()
}

// Text is a leaf holding literal text.
type Text string

// Element is an inner node.
type Element struct {
	Tag      string
	Children []Node
}

func (Text) isNode()    {}
func (Element) isNode() {}

// PlainText concatenates every Text leaf under n in order.
func PlainText(n Node) string {
	var b strings.Builder
	writeText(&b, n)
	return b.String()
}

func writeText(b *strings.Builder, n Node) {
	switch v := n.(type) {
	case Text:
		b.WriteString(string(v))
	case Element:
		for _, c := range v.Children {
			writeText(b, c)
		}
	case *Element:
		if v != nil {
			for _, c := range v.Children {
				writeText(b, c)
			}
		}
	}
}
