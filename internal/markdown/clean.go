package markdown

import (
	"regexp"
	"strings"
)

var hackmdNoise = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<!--\s*\{%hackmd[^%]*%\}\s*-->`),
	regexp.MustCompile(`(?i)<!--[^>]*為地球橢球[^>]*-->`),
	regexp.MustCompile(`(?i)<!--\s*dark\s*theme\s*-->`),
	regexp.MustCompile(`(?i)<!--\s*a\s*為[^>]*-->`),
	tagsLineRe,
}

var (
	tagsLineRe = regexp.MustCompile("(?im)^#{1,6}\\s*tags:\\s*(`[^`]*`\\s*)*$")
	tagValueRe = regexp.MustCompile("`([^`]*)`")
	blankRunRe = regexp.MustCompile(`\n\s*\n\s*\n`)
)

// CleanHackMD removes HackMD embed comments and the "###### tags:" line, then
// collapses the blank runs they leave behind.
func CleanHackMD(content string) string {
	if content == "" {
		return ""
	}
	for _, re := range hackmdNoise {
		content = re.ReplaceAllString(content, "")
	}
	content = blankRunRe.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}

// HackMDTags returns the tags listed on a "###### tags: `a` `b`" line.
func HackMDTags(content string) []string {
	line := tagsLineRe.FindString(content)
	if line == "" {
		return nil
	}
	var out []string
	for _, m := range tagValueRe.FindAllStringSubmatch(line, -1) {
		if t := strings.TrimSpace(m[1]); t != "" {
			out = append(out, t)
		}
	}
	return out
}
