package mcpserver

import (
	"fmt"
	"strings"

	"github.com/koukeneko/blogd/internal/markdown"
)

// CalloutSyntax describes the two call-out notations blogd accepts and the
// canonical form it rewrites them into.
var CalloutSyntax = calloutSyntaxHead + calloutTypeTable() + calloutSyntaxTail

const calloutSyntaxHead = `# blogd Call-out Syntax

blogd accepts call-outs in two source notations and rewrites both into one
canonical blockquote form.

## Colon fences (HackMD)

` + "```" + `markdown
:::warning Optional title
Body text.
:::
` + "```" + `

- The opening line is ` + "`" + `:::TYPE` + "`" + ` followed by an optional title.
- A line that is exactly ` + "`" + `:::` + "`" + ` closes the block. A block left open runs to the end
  of the document.
- Fences do not nest.

## Blockquote markers (GitHub style)

` + "```" + `markdown
> [!TIP] Optional title
> Body text.
` + "```" + `

- The first quoted line carries ` + "`" + `[!TYPE]` + "`" + `, case-insensitive.
- The block ends at the first line that does not start with ` + "`" + `>` + "`" + `.

## Canonical form

` + "```" + `markdown
> [!WARNING] Optional title
>
> Body text.
` + "```" + `

- The type is upper-case. Unknown types become ` + "`" + `INFO` + "`" + `.
- A missing title is replaced by the type's default title.
- Transcoding canonical output again leaves it unchanged.

## Types

`

const calloutSyntaxTail = `
Plain blockquotes without a marker are classified from their wording when
rendered to HTML (see the classify_callout tool).
`

// calloutTypeTable renders the style table used by the HTML renderer.
func calloutTypeTable() string {
	var b strings.Builder
	b.WriteString("| Type | Default title | Border | Background | Icon |\n")
	b.WriteString("|------|---------------|--------|------------|------|\n")
	for _, st := range markdown.CalloutStyles() {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n", st.Type, st.Title, st.Border, st.Background, st.Icon)
	}
	return b.String()
}
