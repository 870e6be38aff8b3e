package markdown

import (
	"math"
	"strings"
)

// Reading speeds, per minute.
const (
	cjkCharsPerMinute     = 350
	englishWordsPerMinute = 225
)

// ReadingTime estimates minutes to read content. CJK ideographs are counted
// per character and everything else per whitespace-separated word. Non-empty
// content takes at least one minute.
func ReadingTime(content string) int {
	if content == "" {
		return 0
	}

	var cjk int
	rest := strings.Map(func(r rune) rune {
		if isCJK(r) {
			cjk++
			return -1
		}
		return r
	}, content)
	words := len(strings.Fields(rest))

	minutes := math.Ceil(float64(cjk)/cjkCharsPerMinute + float64(words)/englishWordsPerMinute)
	return max(1, int(minutes))
}

func isCJK(r rune) bool {
	return r >= 0x4e00 && r <= 0x9fff
}
