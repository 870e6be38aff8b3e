package markdown

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	lineSplitRe   = regexp.MustCompile(`\r?\n`)
	markerRe      = regexp.MustCompile(`(?i)^\s*\[!(\w+)\]\s*(.*)$`)
	colonOpenRe   = regexp.MustCompile(`^:::(\w+)\s*(.*)$`)
	colonInlineRe = regexp.MustCompile(`^(.*?)\s*:::\s*$`)
	quoteLineRe   = regexp.MustCompile(`^ {0,3}>`)
)

// Block is a call-out found in the source, before its type is resolved.
type Block struct {
	Type  string
	Title string
	Body  []string

	// raw holds the source lines of a block already in canonical form.
	raw []string
}

// Emit renders b in canonical notation: a "> [!TYPE] Title" heading, a bare
// ">" separator and "> "-prefixed body lines when there is a body, and a
// closing blank line.
//
// A blockquote that was already canonical is emitted as it was written.
func (b Block) Emit() []string {
	if b.raw != nil {
		return append(append([]string(nil), b.raw...), "")
	}

	t := ResolveCalloutType(b.Type)
	title := b.Title
	if title == "" {
		title = t.Title()
	}

	out := []string{"> [!" + strings.ToUpper(string(t)) + "] " + title}
	body := strings.TrimRightFunc(strings.Join(b.Body, "\n"), unicode.IsSpace)
	if body != "" {
		out = append(out, ">")
		for _, line := range lineSplitRe.Split(body, -1) {
			out = append(out, "> "+line)
		}
	}
	return append(out, "")
}

// Segment is either a call-out block or a line copied through unchanged.
type Segment struct {
	Block *Block
	Line  string
}

type scanState int

const (
	outsideBlock scanState = iota
	insideColonBlock
)

// Extract splits content into call-out blocks and pass-through lines.
//
// Stray "[!TYPE]" lines outside a blockquote are dropped before scanning. A
// "[!TYPE]" marker only opens a call-out on the first line of a blockquote.
// A marked blockquote ends at the first line without a ">" prefix, so a lazy
// continuation line after it is left outside the call-out and separated from
// it by the blank line that closes every emitted block.
// Colon fences do not nest: a ":::" line inside a block always closes it, and a
// block left open at the end of input is closed there.
func Extract(content string) []Segment {
	lines := stripStandaloneMarkers(lineSplitRe.Split(content, -1))
	segs := make([]Segment, 0, len(lines))

	state := outsideBlock
	var cur *Block
	for i := 0; i < len(lines); i++ {
		line := lines[i]

		if state == insideColonBlock {
			if strings.TrimSpace(line) == ":::" {
				segs = append(segs, Segment{Block: cur})
				cur, state = nil, outsideBlock
				continue
			}
			cur.Body = append(cur.Body, line)
			continue
		}

		if m := colonOpenRe.FindStringSubmatch(line); m != nil {
			cur = &Block{Type: strings.ToLower(m[1])}
			if im := colonInlineRe.FindStringSubmatch(m[2]); im != nil {
				cur.Title = strings.TrimSpace(im[1])
				segs = append(segs, Segment{Block: cur})
				cur = nil
				continue
			}
			cur.Title = strings.TrimSpace(m[2])
			state = insideColonBlock
			continue
		}

		if i == 0 || !quoteLineRe.MatchString(lines[i-1]) {
			if b, next, ok := scanQuoteBlock(lines, i); ok {
				segs = append(segs, Segment{Block: b})
				i = next - 1
				continue
			}
		}

		segs = append(segs, Segment{Line: line})
	}

	if state == insideColonBlock {
		segs = append(segs, Segment{Block: cur})
	}
	return segs
}

// Transcode rewrites every call-out in content into canonical blockquote
// notation. Other lines are kept verbatim and in order. The result ends with a
// single newline unless it is empty.
func Transcode(content string) string {
	if content == "" {
		return ""
	}

	var out []string
	for _, seg := range Extract(content) {
		if seg.Block != nil {
			out = append(out, seg.Block.Emit()...)
			continue
		}
		out = append(out, seg.Line)
	}

	result := strings.TrimRightFunc(strings.Join(out, "\n"), unicode.IsSpace)
	if result == "" {
		return ""
	}
	return result + "\n"
}

// scanQuoteBlock reads a blockquote starting at lines[start] whose first line
// carries a "[!TYPE]" marker. It returns the index of the first line after the
// block. A blank line directly after the quote is consumed, since Emit closes
// every block with one.
func scanQuoteBlock(lines []string, start int) (*Block, int, bool) {
	first, ok := quoteContent(lines[start])
	if !ok {
		return nil, start, false
	}
	m := markerRe.FindStringSubmatch(first)
	if m == nil {
		return nil, start, false
	}

	b := &Block{Type: strings.ToLower(m[1]), Title: strings.TrimSpace(m[2])}
	i := start + 1
	for ; i < len(lines); i++ {
		c, ok := quoteContent(lines[i])
		if !ok {
			break
		}
		// The bare ">" written by Emit between heading and body.
		if i == start+1 && strings.TrimLeft(lines[i], " ") == ">" {
			continue
		}
		b.Body = append(b.Body, c)
	}
	if isCanonical(lines[start:i]) {
		b.raw = lines[start:i]
	}
	if i < len(lines) && strings.TrimSpace(lines[i]) == "" {
		i++
	}
	return b, i, true
}

// isCanonical reports whether block is exactly what Emit would write for a
// known type with an explicit title: the heading, a bare ">" separator and
// "> "-prefixed body lines. Bare ">" lines may appear inside the body.
func isCanonical(block []string) bool {
	if len(block) < 3 || block[1] != ">" {
		return false
	}
	m := markerRe.FindStringSubmatch(strings.TrimPrefix(block[0], "> "))
	if m == nil {
		return false
	}
	t, ok := ParseCalloutType(m[1])
	title := strings.TrimSpace(m[2])
	if !ok || title == "" || block[0] != "> [!"+strings.ToUpper(string(t))+"] "+title {
		return false
	}
	body := block[2:]
	if strings.TrimSpace(strings.TrimPrefix(body[len(body)-1], ">")) == "" {
		return false
	}
	for _, line := range body {
		if line != ">" && !strings.HasPrefix(line, "> ") {
			return false
		}
	}
	return true
}

// quoteContent strips the blockquote prefix and one optional space.
func quoteContent(line string) (string, bool) {
	loc := quoteLineRe.FindStringIndex(line)
	if loc == nil {
		return "", false
	}
	return strings.TrimPrefix(line[loc[1]:], " "), true
}

func stripStandaloneMarkers(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if markerRe.MatchString(line) {
			continue
		}
		out = append(out, line)
	}
	return out
}

// ParseMarker reports whether line is a "[!TYPE] title" marker naming a known
// call-out type. The title is trimmed and may be empty.
func ParseMarker(line string) (CalloutType, string, bool) {
	m := markerRe.FindStringSubmatch(line)
	if m == nil {
		return "", "", false
	}
	t, ok := ParseCalloutType(m[1])
	if !ok {
		return "", "", false
	}
	return t, strings.TrimSpace(m[2]), true
}
