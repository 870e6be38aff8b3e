package markdown

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	headingRe   = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)
	fenceRe     = regexp.MustCompile("^ {0,3}(`{3,}|~{3,})")
	slugStripRe = regexp.MustCompile(`[^\w\x{4e00}-\x{9fff}\s\p{Z}-]`)
	slugSpaceRe = regexp.MustCompile(`[\s\p{Z}]+`)

	inlineImageRe = regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`)
	inlineLinkRe  = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	autoLinkRe    = regexp.MustCompile(`<([a-zA-Z][\w+.-]*:[^<>\s]*)>`)
	inlineHTMLRe  = regexp.MustCompile(`</?[a-zA-Z][^<>]*>`)
	codeSpanRe    = regexp.MustCompile("`+([^`]*)`+")
	underscoreRe  = regexp.MustCompile(`(^|\W)_{1,2}([^_]+?)_{1,2}(\W|$)`)
)

// Heading is one entry of a document outline.
type Heading struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Level int    `json:"level"`
	Line  int    `json:"line"`
}

// Headings returns the ATX headings of content in document order. Lines inside
// fenced code blocks are skipped. Ids are slugged from the text with inline
// markup removed, so they match the rendered anchors. Ids are not deduplicated;
// see UniqueIDs.
func Headings(content string) []Heading {
	var out []Heading
	var fence string
	for i, line := range lineSplitRe.Split(content, -1) {
		if m := fenceRe.FindStringSubmatch(line); m != nil {
			switch {
			case fence == "":
				fence = m[1]
			case m[1][0] == fence[0] && len(m[1]) >= len(fence):
				fence = ""
			}
			continue
		}
		if fence != "" {
			continue
		}

		m := headingRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		text := strings.TrimSpace(m[2])
		out = append(out, Heading{
			ID:    Slugify(inlineText(text)),
			Text:  text,
			Level: len(m[1]),
			Line:  i,
		})
	}
	return out
}

// inlineText drops inline markup from heading text the way the rendered
// heading shows it: links and images keep their label, code spans their
// content, and raw HTML tags vanish.
func inlineText(s string) string {
	s = inlineImageRe.ReplaceAllString(s, "$1")
	s = inlineLinkRe.ReplaceAllString(s, "$1")
	s = autoLinkRe.ReplaceAllString(s, "$1")
	s = inlineHTMLRe.ReplaceAllString(s, "")
	s = codeSpanRe.ReplaceAllString(s, "$1")
	return underscoreRe.ReplaceAllString(s, "$1$2$3")
}

// Slugify turns heading text into an anchor id. Word characters, CJK
// ideographs and hyphens survive; whitespace runs become a single hyphen.
// Text that slugifies to nothing yields "heading".
func Slugify(text string) string {
	s := strings.ToLower(text)
	s = slugStripRe.ReplaceAllString(s, "")
	s = slugSpaceRe.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "heading"
	}
	return s
}

// UniqueIDs returns a copy of hs where repeated ids get "-2", "-3", ...
// suffixes in document order.
func UniqueIDs(hs []Heading) []Heading {
	out := make([]Heading, len(hs))
	seen := NewIDSet()
	for i, h := range hs {
		h.ID = seen.Claim(h.ID)
		out[i] = h
	}
	return out
}

// IDSet hands out unique anchor ids. The renderer and UniqueIDs share it so
// both number duplicates the same way.
type IDSet struct {
	counts map[string]int
}

// NewIDSet returns an empty IDSet.
func NewIDSet() *IDSet {
	return &IDSet{counts: make(map[string]int)}
}

// Claim returns id on first use and id-N on the Nth use.
func (s *IDSet) Claim(id string) string {
	s.counts[id]++
	n := s.counts[id]
	if n == 1 {
		return id
	}
	candidate := id + "-" + strconv.Itoa(n)
	for s.counts[candidate] > 0 {
		n++
		s.counts[id] = n
		candidate = id + "-" + strconv.Itoa(n)
	}
	s.counts[candidate]++
	return candidate
}
