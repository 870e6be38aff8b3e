package markdown

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestHeadings(t *testing.T) {
	content := "# Title\n\nintro\n## Hello, World! 測試\n> # quoted\n```go\n# not a heading\n```\n###### Deep\n#NoSpace\n"
	want := []Heading{
		{ID: "title", Text: "Title", Level: 1, Line: 0},
		{ID: "hello-world-測試", Text: "Hello, World! 測試", Level: 2, Line: 3},
		{ID: "deep", Text: "Deep", Level: 6, Line: 8},
	}
	if diff := cmp.Diff(want, Headings(content)); diff != "" {
		t.Errorf("Headings mismatch (-want +got):\n%s", diff)
	}
}

func TestHeadings_TildeFence(t *testing.T) {
	content := "~~~~\n# hidden\n~~~\n# still hidden\n~~~~\n# Shown"
	want := []Heading{{ID: "shown", Text: "Shown", Level: 1, Line: 5}}
	if diff := cmp.Diff(want, Headings(content)); diff != "" {
		t.Errorf("Headings mismatch (-want +got):\n%s", diff)
	}
}

func TestHeadings_InlineMarkup(t *testing.T) {
	hs := Headings("# See [docs](http://x)\n## Use `go test`\n## ![logo](a.png) Brand\n## Visit <https://example.com>\n## An _emphasised_ word\n## snake_case_name\n")
	var ids []string
	for _, h := range hs {
		ids = append(ids, h.ID)
	}
	assert.Equal(t, []string{"see-docs", "use-go-test", "logo-brand", "visit-httpsexamplecom", "an-emphasised-word", "snake_case_name"}, ids)
	assert.Equal(t, "See [docs](http://x)", hs[0].Text)
}

func TestHeadings_DuplicatesKept(t *testing.T) {
	hs := Headings("# Intro\n# Intro\n")
	assert.Equal(t, "intro", hs[0].ID)
	assert.Equal(t, "intro", hs[1].ID)
}

func TestUniqueIDs(t *testing.T) {
	hs := []Heading{{ID: "intro"}, {ID: "intro"}, {ID: "intro-2"}, {ID: "intro"}}
	got := UniqueIDs(hs)

	var ids []string
	for _, h := range got {
		ids = append(ids, h.ID)
	}
	assert.Equal(t, []string{"intro", "intro-2", "intro-2-2", "intro-3"}, ids)
	assert.Equal(t, "intro", hs[1].ID, "input must not be modified")
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Hello, World! 測試": "hello-world-測試",
		"Already-slugged":  "already-slugged",
		"  padded  ":       "padded",
		"!!!":              "heading",
		"":                 "heading",
		"snake_case 123":   "snake_case-123",
		"全形　空白":            "全形-空白",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), "Slugify(%q)", in)
	}
}

func TestSlugify_Deterministic(t *testing.T) {
	assert.Equal(t, Slugify("Some Heading"), Slugify("Some Heading"))
}
