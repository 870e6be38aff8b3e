package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadingTime(t *testing.T) {
	assert.Equal(t, 0, ReadingTime(""))
	assert.Equal(t, 1, ReadingTime("hello"))
	assert.Equal(t, 1, ReadingTime(strings.Repeat("字", 350)))
	assert.Equal(t, 2, ReadingTime(strings.Repeat("字", 351)))
	assert.Equal(t, 2, ReadingTime(strings.Repeat("word ", 300)))
	// 350 CJK (1 min) + 225 words (1 min)
	assert.Equal(t, 2, ReadingTime(strings.Repeat("字", 350)+" "+strings.Repeat("w ", 225)))
}

func TestCleanHackMD(t *testing.T) {
	in := "<!-- {%hackmd theme-dark %} -->\n# Title\n\n\n\nBody\n<!-- dark theme -->\n###### tags: `go` `blog`\n"
	assert.Equal(t, "# Title\n\nBody", CleanHackMD(in))
	assert.Equal(t, "", CleanHackMD(""))
}

func TestHackMDTags(t *testing.T) {
	assert.Equal(t, []string{"go", "blog"}, HackMDTags("x\n###### tags: `go` `blog`\n"))
	assert.Nil(t, HackMDTags("no tags here"))
}

func TestPlainText(t *testing.T) {
	n := Element{Tag: "p", Children: []Node{
		Text("Hello "),
		&Element{Tag: "strong", Children: []Node{Text("bold")}},
		Element{Tag: "em", Children: []Node{Text(" world")}},
	}}
	assert.Equal(t, "Hello bold world", PlainText(n))
	assert.Equal(t, "", PlainText(Element{}))
}
