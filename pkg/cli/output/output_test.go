package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	noColor := color.NoColor
	color.NoColor = true
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(nil)
		color.NoColor = noColor
	})
	return &buf
}

func TestTable_Render(t *testing.T) {
	buf := capture(t)

	table := NewTable([]string{"ID", "NAME"})
	table.AddRow([]string{"0", "Сборка"})
	table.AddRow([]string{"12", "Deploy", "ignored"})
	table.Render()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "ID  NAME    ", lines[0])
	assert.Equal(t, "--  ------  ", lines[1])
	assert.Equal(t, "0   Сборка  ", lines[2])
	assert.Equal(t, "12  Deploy  ", lines[3])
	assert.Equal(t, 2, table.Len())
}

func TestMessages(t *testing.T) {
	buf := capture(t)

	Success("saved %d", 2)
	Error("failed: %s", "boom")
	Info("info")
	Warning("careful")

	s := buf.String()
	assert.Contains(t, s, "✅ saved 2")
	assert.Contains(t, s, "❌ failed: boom")
	assert.Contains(t, s, "info")
	assert.Contains(t, s, "careful")
}

func TestPrintJSON(t *testing.T) {
	buf := capture(t)
	require.NoError(t, PrintJSON(map[string]int{"a": 1}))
	assert.JSONEq(t, `{"a":1}`, buf.String())
}
