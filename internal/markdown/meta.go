package markdown

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

const (
	untitled          = "Untitled"
	descriptionLines  = 3
	descriptionLength = 200
)

// Summary is the metadata derived from a note's markdown.
type Summary struct {
	Frontmatter map[string]any
	Body        string
	Title       string
	Description string
	Tags        []string
}

// Summarize extracts frontmatter, title, description and tags from a note.
// It never fails: broken frontmatter is treated as body text.
func Summarize(content string) Summary {
	fm, body := splitFrontmatter([]byte(content))
	return Summary{
		Frontmatter: fm,
		Body:        body,
		Title:       deriveTitle(fm, body),
		Description: deriveDescription(body),
		Tags:        collectTags(fm, content),
	}
}

// splitFrontmatter separates YAML frontmatter (between leading --- delimiters)
// from the markdown body. Without frontmatter the entire content is body.
func splitFrontmatter(data []byte) (map[string]any, string) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data)
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, string(data)
	}

	block := rest[:idx]
	body := strings.TrimLeft(string(rest[idx+1+len(delim):]), "\n\r")

	var fm map[string]any
	if err := yaml.Unmarshal(block, &fm); err != nil || fm == nil {
		return nil, string(data)
	}
	return fm, body
}

// deriveTitle returns the frontmatter "title", else the first H1, else
// "Untitled".
func deriveTitle(fm map[string]any, body string) string {
	if s, ok := fm["title"].(string); ok && s != "" {
		return s
	}
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(line[2:])
		}
	}
	return untitled
}

// deriveDescription joins the first few prose lines and cuts the result at
// descriptionLength runes.
func deriveDescription(body string) string {
	var picked []string
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.HasPrefix(line, "#") || strings.HasPrefix(line, "---") || strings.TrimSpace(line) == "" {
			continue
		}
		picked = append(picked, line)
		if len(picked) == descriptionLines {
			break
		}
	}
	desc := strings.Join(picked, " ")
	if utf8.RuneCountInString(desc) > descriptionLength {
		desc = string([]rune(desc)[:descriptionLength])
	}
	return desc
}

// collectTags merges frontmatter tags with the HackMD tags line, first
// occurrence wins.
func collectTags(fm map[string]any, content string) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(t string) {
		t = strings.TrimSpace(t)
		if t == "" {
			return
		}
		if _, dup := seen[t]; dup {
			return
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}

	if raw, ok := fm["tags"].([]any); ok {
		for _, item := range raw {
			if s, ok := item.(string); ok {
				add(s)
			}
		}
	}
	for _, t := range HackMDTags(content) {
		add(t)
	}
	return out
}
