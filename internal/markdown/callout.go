// Package markdown rewrites HackMD-flavoured markdown into a canonical form and
// derives metadata (outline, reading time, summary) from it.
package markdown

import "strings"

// CalloutType is the severity tag of a call-out block.
type CalloutType string

// Supported call-out types.
const (
	CalloutInfo    CalloutType = "info"
	CalloutNote    CalloutType = "note"
	CalloutCaution CalloutType = "caution"
	CalloutWarning CalloutType = "warning"
	CalloutDanger  CalloutType = "danger"
	CalloutError   CalloutType = "error"
	CalloutSuccess CalloutType = "success"
	CalloutTip     CalloutType = "tip"
	CalloutQuote   CalloutType = "quote"
)

// CalloutStyle is the presentation of a call-out type. The renderer owns it;
// the transcoder only needs the title.
type CalloutStyle struct {
	Type       CalloutType `json:"type"`
	Title      string      `json:"title"`
	Border     string      `json:"border"`
	Background string      `json:"background"`
	Icon       string      `json:"icon"`
}

var calloutStyles = []CalloutStyle{
	{Type: CalloutInfo, Title: "資訊", Border: "border-blue-500", Background: "bg-blue-500/15", Icon: "info"},
	{Type: CalloutNote, Title: "附註", Border: "border-sky-500", Background: "bg-sky-500/15", Icon: "info"},
	{Type: CalloutCaution, Title: "提醒", Border: "border-yellow-500", Background: "bg-yellow-500/15", Icon: "alert-triangle"},
	{Type: CalloutWarning, Title: "警告", Border: "border-amber-500", Background: "bg-amber-500/15", Icon: "alert-octagon"},
	{Type: CalloutDanger, Title: "注意", Border: "border-red-500", Background: "bg-red-500/15", Icon: "alert-circle"},
	{Type: CalloutError, Title: "錯誤", Border: "border-red-600", Background: "bg-red-600/15", Icon: "x-circle"},
	{Type: CalloutSuccess, Title: "成功", Border: "border-emerald-500", Background: "bg-emerald-500/15", Icon: "check-circle"},
	{Type: CalloutTip, Title: "小技巧", Border: "border-purple-500", Background: "bg-purple-500/15", Icon: "lightbulb"},
	{Type: CalloutQuote, Title: "引用", Border: "border-zinc-500", Background: "bg-zinc-500/15", Icon: "info"},
}

var calloutIndex = func() map[CalloutType]CalloutStyle {
	m := make(map[CalloutType]CalloutStyle, len(calloutStyles))
	for _, s := range calloutStyles {
		m[s.Type] = s
	}
	return m
}()

// CalloutStyles returns the style table in declaration order.
func CalloutStyles() []CalloutStyle {
	out := make([]CalloutStyle, len(calloutStyles))
	copy(out, calloutStyles)
	return out
}

// ParseCalloutType looks s up case-insensitively.
func ParseCalloutType(s string) (CalloutType, bool) {
	t := CalloutType(strings.ToLower(strings.TrimSpace(s)))
	_, ok := calloutIndex[t]
	return t, ok
}

// ResolveCalloutType is ParseCalloutType with unknown input mapped to info.
func ResolveCalloutType(s string) CalloutType {
	if t, ok := ParseCalloutType(s); ok {
		return t
	}
	return CalloutInfo
}

// Style returns the presentation of t, falling back to info.
func (t CalloutType) Style() CalloutStyle {
	if s, ok := calloutIndex[t]; ok {
		return s
	}
	return calloutIndex[CalloutInfo]
}

// Title returns the default display title of t.
func (t CalloutType) Title() string {
	return t.Style().Title
}
