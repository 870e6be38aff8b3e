package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = "# Guide\n\n:::tip\nUse it.\n:::\n\n## Step\n\n## Step\n"

func runCLI(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := newCommand()
	cmd.Writer = &out
	cmd.Reader = strings.NewReader(stdin)
	require.NoError(t, cmd.Run(context.Background(), append([]string{"blogd"}, args...)))
	return out.String()
}

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "note.md")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))
	return path
}

func TestTranscodeCommand(t *testing.T) {
	out := runCLI(t, "", "transcode", writeSample(t))
	assert.Contains(t, out, "> [!TIP] 小技巧\n>\n> Use it.\n")
	assert.NotContains(t, out, ":::")
}

func TestTranscodeCommand_Stdin(t *testing.T) {
	out := runCLI(t, ":::warning Careful\nHot.\n:::\n", "transcode")
	assert.Contains(t, out, "> [!WARNING] Careful")
}

func TestTranscodeCommand_HTMLWithTOC(t *testing.T) {
	out := runCLI(t, "", "transcode", "--html", "--toc", "--unique-ids", writeSample(t))
	assert.True(t, strings.HasPrefix(out, "- [Guide](#guide)\n"))
	assert.Contains(t, out, "  - [Step](#step-2)\n")
	assert.Contains(t, out, `data-callout="tip"`)
}

func TestTOCCommand(t *testing.T) {
	out := runCLI(t, "", "toc", writeSample(t))
	assert.Equal(t, "- [Guide](#guide)\n  - [Step](#step)\n  - [Step](#step)\n", out)

	out = runCLI(t, "", "toc", "--json", "--unique-ids", writeSample(t))
	assert.Contains(t, out, `"id":"step-2"`)
}

func TestTranscodeCommand_MissingFile(t *testing.T) {
	cmd := newCommand()
	cmd.Writer = &bytes.Buffer{}
	err := cmd.Run(context.Background(), []string{"blogd", "transcode", filepath.Join(t.TempDir(), "nope.md")})
	assert.Error(t, err)
}
