package markdown

import (
	"strings"
	"testing"
)

func TestSummarize_FrontmatterAndBody(t *testing.T) {
	s := Summarize("---\ntitle: Hello\ntags:\n  - go\n  - blog\n---\n# Heading\nBody text.\n")
	if s.Title != "Hello" {
		t.Errorf("title = %q, want %q", s.Title, "Hello")
	}
	if len(s.Tags) != 2 || s.Tags[0] != "go" || s.Tags[1] != "blog" {
		t.Errorf("tags = %v, want [go blog]", s.Tags)
	}
	if s.Body != "# Heading\nBody text.\n" {
		t.Errorf("body = %q", s.Body)
	}
	if s.Description != "Body text." {
		t.Errorf("description = %q", s.Description)
	}
}

func TestSummarize_NoFrontmatter(t *testing.T) {
	s := Summarize("# Just a heading\nSome text.\n")
	if s.Frontmatter != nil {
		t.Errorf("expected nil frontmatter, got %v", s.Frontmatter)
	}
	if s.Title != "Just a heading" {
		t.Errorf("title = %q, want %q", s.Title, "Just a heading")
	}
}

func TestSummarize_InvalidYAMLFallback(t *testing.T) {
	s := Summarize("---\n: invalid: yaml: {{{\n---\nBody\n")
	// Invalid YAML falls back to treating everything as body.
	if s.Frontmatter != nil {
		t.Errorf("expected nil frontmatter on invalid YAML")
	}
	if s.Title != "Untitled" {
		t.Errorf("title = %q, want Untitled", s.Title)
	}
}

func TestSummarize_DescriptionTakesThreeLines(t *testing.T) {
	s := Summarize("# T\n\nfirst\n## sub\nsecond\n---\nthird\nfourth\n")
	if s.Description != "first second third" {
		t.Errorf("description = %q", s.Description)
	}
}

func TestSummarize_DescriptionCutAtLimit(t *testing.T) {
	s := Summarize(strings.Repeat("字", 250))
	if n := len([]rune(s.Description)); n != 200 {
		t.Errorf("description runes = %d, want 200", n)
	}
}

func TestSummarize_HackMDTagsMerged(t *testing.T) {
	s := Summarize("---\ntags: [go]\n---\n# T\n###### tags: `go` `hackmd`\n")
	if len(s.Tags) != 2 || s.Tags[0] != "go" || s.Tags[1] != "hackmd" {
		t.Errorf("tags = %v, want [go hackmd]", s.Tags)
	}
}

func TestDeriveTitle_FrontmatterOverH1(t *testing.T) {
	got := deriveTitle(map[string]any{"title": "FM"}, "# H1\n")
	if got != "FM" {
		t.Errorf("title = %q, want FM", got)
	}
}
