package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranscode(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "colon block with title",
			in:   ":::warning Heads up\nSomething happened.\n:::",
			want: "> [!WARNING] Heads up\n>\n> Something happened.\n",
		},
		{
			name: "colon block default title",
			in:   ":::danger\nBody.\n:::",
			want: "> [!DANGER] 注意\n>\n> Body.\n",
		},
		{
			name: "unknown type falls back to info",
			in:   ":::potato\nText\n:::",
			want: "> [!INFO] 資訊\n>\n> Text\n",
		},
		{
			name: "single line colon block",
			in:   ":::tip Try this :::",
			want: "> [!TIP] Try this\n",
		},
		{
			name: "unterminated colon block closes at end",
			in:   "intro\n:::note\nstill open",
			want: "intro\n> [!NOTE] 附註\n>\n> still open\n",
		},
		{
			name: "bracket blockquote is normalised",
			in:   "> [!success]\n> done\nafter",
			want: "> [!SUCCESS] 成功\n>\n> done\n\nafter\n",
		},
		{
			name: "standalone marker dropped",
			in:   "before\n[!NOTE] something\nafter",
			want: "before\nafter\n",
		},
		{
			name: "plain blockquote untouched",
			in:   "> just a quote\n> more",
			want: "> just a quote\n> more\n",
		},
		{
			name: "crlf input",
			in:   ":::info\r\nline\r\n:::\r\n",
			want: "> [!INFO] 資訊\n>\n> line\n",
		},
		{
			name: "empty body emits heading only",
			in:   ":::caution Careful\n\n:::",
			want: "> [!CAUTION] Careful\n",
		},
		{
			name: "empty input",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Transcode(tt.in))
		})
	}
}

func TestTranscode_Idempotent(t *testing.T) {
	inputs := []string{
		":::warning Heads up\nSomething happened.\n:::",
		"# Title\n\n:::tip\n- a\n- b\n\n  indented\n:::\n\ntext\n\n> [!quote] Who\n> said it\n>\n> twice\n\n> plain\n",
		":::note\n\nleading blank\n:::\nnext",
		"> [!ERROR]\n>\n> > nested quote\n",
		":::info :::\n:::potato x\n:::",
	}
	for _, in := range inputs {
		once := Transcode(in)
		assert.Equal(t, once, Transcode(once), "input %q", in)
	}
}

func TestTranscode_CanonicalUnchanged(t *testing.T) {
	canonical := "intro\n\n> [!WARNING] Heads up\n>\n> Something happened.\n\noutro\n"
	assert.Equal(t, canonical, Transcode(canonical))
}

func TestTranscode_CanonicalWithBareQuoteLines(t *testing.T) {
	canonical := "> [!NOTE] T\n>\n> a\n>\n> b\n"
	assert.Equal(t, canonical, Transcode(canonical))

	// Not canonical: lower-case type, so the block is rewritten.
	assert.Equal(t, "> [!NOTE] T\n>\n> a\n> \n> b\n", Transcode("> [!note] T\n>\n> a\n>\n> b\n"))
}

func TestTranscode_MarkerOnlyOnFirstQuoteLine(t *testing.T) {
	in := "> hello\n> [!WARNING] mid\n> body\n"
	assert.Equal(t, in, Transcode(in))
	for _, seg := range Extract(in) {
		assert.Nil(t, seg.Block)
	}

	// A new blockquote after a blank line still opens a call-out.
	assert.Equal(t, "> hello\n\n> [!WARNING] mid\n>\n> body\n", Transcode("> hello\n\n> [!WARNING] mid\n> body\n"))
}

func TestTranscode_LazyLineLeavesCallout(t *testing.T) {
	assert.Equal(t, "> [!TIP] T\n>\n> body\n\nlazy\n", Transcode("> [!TIP] T\n> body\nlazy"))
}

func TestBlockEmit(t *testing.T) {
	b := Block{Type: "Tip", Body: []string{"one", "", "two", "  "}}
	assert.Equal(t, []string{"> [!TIP] 小技巧", ">", "> one", "> ", "> two", ""}, b.Emit())

	empty := Block{Type: "quote", Title: "Said"}
	assert.Equal(t, []string{"> [!QUOTE] Said", ""}, empty.Emit())
}

func TestExtract_Segments(t *testing.T) {
	segs := Extract("a\n:::tip T\nbody\n:::\nb")
	require.Len(t, segs, 3)
	assert.Equal(t, "a", segs[0].Line)
	require.NotNil(t, segs[1].Block)
	assert.Equal(t, Block{Type: "tip", Title: "T", Body: []string{"body"}}, *segs[1].Block)
	assert.Equal(t, "b", segs[2].Line)
}

func TestCalloutTypes(t *testing.T) {
	ct, ok := ParseCalloutType("WARNING")
	require.True(t, ok)
	assert.Equal(t, CalloutWarning, ct)

	_, ok = ParseCalloutType("potato")
	assert.False(t, ok)
	assert.Equal(t, CalloutInfo, ResolveCalloutType("potato"))
	assert.Equal(t, "小技巧", CalloutTip.Title())
	assert.Len(t, CalloutStyles(), 9)
}

func TestParseMarker(t *testing.T) {
	ct, title, ok := ParseMarker("[!Warning]  Heads up ")
	require.True(t, ok)
	assert.Equal(t, CalloutWarning, ct)
	assert.Equal(t, "Heads up", title)

	_, _, ok = ParseMarker("[!potato] x")
	assert.False(t, ok)
	_, _, ok = ParseMarker("plain text")
	assert.False(t, ok)
}
