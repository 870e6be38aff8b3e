package markdown

import "strings"

type keywordRule struct {
	Type     CalloutType
	Priority int
	Keywords []string
}

// keywordRules is ordered by descending priority.
var keywordRules = []keywordRule{
	{Type: CalloutError, Priority: 10, Keywords: []string{"錯誤", "error", "失敗", "fail", "崩潰", "crash"}},
	{Type: CalloutDanger, Priority: 9, Keywords: []string{"危險", "danger", "嚴重", "critical", "致命"}},
	{Type: CalloutWarning, Priority: 8, Keywords: []string{"警告", "warning", "小心", "caution"}},
	{Type: CalloutCaution, Priority: 7, Keywords: []string{"注意", "attention", "提醒", "notice", "留意"}},
	{Type: CalloutSuccess, Priority: 6, Keywords: []string{"成功", "success", "完成", "complete", "達成"}},
	{Type: CalloutTip, Priority: 5, Keywords: []string{"技巧", "tip", "建議", "suggestion", "訣竅", "妙招"}},
	{Type: CalloutQuote, Priority: 4, Keywords: []string{"引用", "quote", "摘要", "summary"}},
	{Type: CalloutNote, Priority: 3, Keywords: []string{"附註", "note", "備註", "說明"}},
}

// Classify guesses the call-out type of an unmarked blockquote from its text.
// The highest-priority rule with a keyword hit wins; with no hit it is info.
func Classify(text string) CalloutType {
	lower := strings.ToLower(text)

	best, priority := CalloutInfo, 0
	for _, rule := range keywordRules {
		if rule.Priority <= priority {
			continue
		}
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, kw) {
				best, priority = rule.Type, rule.Priority
				break
			}
		}
	}
	return best
}
