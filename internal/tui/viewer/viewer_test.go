package viewer

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/hay-kot/pakagent/internal/core/archive"
	"github.com/hay-kot/pakagent/internal/core/pakdiff"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testFix = `FILE: calc.py
FIND_METHOD: def add(self, a, b)
REPLACE_WITH:
def add(self, a, b):
    return a + b
FIND_METHOD:
REPLACE_WITH:
def mul(self, a, b):
    return a * b
`

func answerContent() Content {
	return AnswerContent("Added logging.", pakdiff.Parse(testFix), nil)
}

func sized(t *testing.T, c Content) Model {
	t.Helper()
	next, _ := New(c).Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return next.(Model)
}

func press(m Model, key string) (Model, tea.Cmd) {
	var msg tea.KeyMsg
	switch key {
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	case "down":
		msg = tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		msg = tea.KeyMsg{Type: tea.KeyUp}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func TestAnswerContent(t *testing.T) {
	c := answerContent()
	assert.Equal(t, []string{"Added logging."}, c.Info)
	require.Len(t, c.Items, 2)
	assert.Equal(t, []string{"calc.py: def add(self, a, b)"}, c.Items[0].Lines)
	assert.Equal(t, []string{"calc.py: [NEW METHOD]"}, c.Items[1].Lines)
	assert.Equal(t, []string{"def mul(self, a, b):", "    return a * b"}, c.Items[1].Detail)
}

func TestArchiveContent(t *testing.T) {
	a := archive.Parse("archive.txt", []byte(`{"metadata":{"total_files":1},"files":[{"path":"a.py","original_size_bytes":10,"compressed_size_bytes":5,"estimated_tokens":3,"content":"x = 1"}]}`))
	c := ArchiveContent(a)

	require.Len(t, c.Items, 1)
	assert.Equal(t, "a.py", c.Items[0].Lines[0])
	assert.Len(t, c.Items[0].Lines, 3)
	assert.Equal(t, []string{"=== a.py ===", "", "x = 1"}, c.Items[0].Detail)
	assert.Contains(t, c.Info, "Files: 1")
}

func TestModel_SelectionMovesDetail(t *testing.T) {
	m := sized(t, answerContent())
	assert.Equal(t, paneList, m.focus)
	assert.Contains(t, m.View(), "return a + b")

	m, _ = press(m, "down")
	assert.Equal(t, 1, m.selected)
	assert.Contains(t, m.View(), "return a * b")

	m, _ = press(m, "down")
	assert.Equal(t, 1, m.selected, "selection stops at the last item")

	m, _ = press(m, "g")
	assert.Equal(t, 0, m.selected)

	m, _ = press(m, "G")
	assert.Equal(t, 1, m.selected)
}

func TestModel_FocusCycles(t *testing.T) {
	m := sized(t, answerContent())
	m, _ = press(m, "tab")
	assert.Equal(t, paneDetail, m.focus)
	m, _ = press(m, "tab")
	assert.Equal(t, paneInfo, m.focus)

	m, _ = press(m, "down")
	assert.Equal(t, 0, m.selected, "scrolling another pane keeps the selection")
}

func TestModel_Quit(t *testing.T) {
	m := sized(t, answerContent())
	_, cmd := press(m, "q")
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestModel_CopyDetail(t *testing.T) {
	orig := copyFunc
	t.Cleanup(func() { copyFunc = orig })

	var copied string
	copyFunc = func(s string) error {
		copied = s
		return nil
	}

	m := sized(t, answerContent())
	m, cmd := press(m, "y")
	require.NotNil(t, cmd)
	next, _ := m.Update(cmd())
	m = next.(Model)

	assert.Equal(t, "def add(self, a, b):\n    return a + b", copied)
	assert.Equal(t, "copied to clipboard", m.status)

	copyFunc = func(string) error { return errors.New("no clipboard") }
	_, cmd = press(m, "y")
	assert.Equal(t, statusMsg("copy failed: no clipboard"), cmd())
}

func TestModel_EmptyContent(t *testing.T) {
	m := sized(t, AnswerContent("Just an answer", pakdiff.Parse(""), nil))
	m, _ = press(m, "down")
	assert.Equal(t, 0, m.selected)
	assert.Contains(t, m.View(), "No pakdiff changes")
}

func TestPlain(t *testing.T) {
	var buf bytes.Buffer
	Plain(&buf, answerContent(), PlainOptions{})
	out := buf.String()

	assert.Contains(t, out, "=== Answer ===")
	assert.Contains(t, out, "PAKDIFF SUMMARY:")
	assert.Contains(t, out, "  calc.py: def add(self, a, b)")
	assert.Contains(t, out, "METHOD DETAIL (calc.py: def add(self, a, b)):")
	assert.NotContains(t, out, "return a * b")
	assert.Contains(t, out, "Total entries: 2")
}

func TestPlain_FullAndTruncated(t *testing.T) {
	info := make([]string, 25)
	for i := range info {
		info[i] = "line"
	}
	c := Content{Title: "T", InfoTitle: "Info", ListTitle: "List", DetailTitle: "Detail", Info: info, Empty: "none"}

	var buf bytes.Buffer
	Plain(&buf, c, PlainOptions{})
	assert.Contains(t, buf.String(), "... and 15 more lines")
	assert.Contains(t, buf.String(), "  none")

	buf.Reset()
	Plain(&buf, c, PlainOptions{Full: true})
	assert.NotContains(t, buf.String(), "more lines")
	assert.Equal(t, 25, strings.Count(buf.String(), "  line\n"))
}
