package viewer

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/hay-kot/pakagent/internal/core/archive"
	"github.com/hay-kot/pakagent/internal/core/pakdiff"
	"github.com/hay-kot/pakagent/internal/core/styles"
)

// Item is one selectable entry of the list pane.
type Item struct {
	// Lines are shown in the list pane; the first one is the label.
	Lines []string
	// Detail is shown in the detail pane while the item is selected.
	Detail []string
}

// Content is what the three panes display.
type Content struct {
	Title       string
	InfoTitle   string
	ListTitle   string
	DetailTitle string
	Info        []string
	Items       []Item
	// Empty is shown in the list pane when there are no items.
	Empty string
}

// ArchiveContent shows archive metadata, the file list and file content.
func ArchiveContent(a *archive.Archive) Content {
	c := Content{
		Title:       "PakView: " + a.Path,
		InfoTitle:   "Archive Info",
		ListTitle:   "Files",
		DetailTitle: "File Content",
		Info:        a.MetadataLines(),
		Empty:       "No files in archive",
	}

	// FileListLines is a two-line header followed by four lines per file.
	listing := a.FileListLines()
	for i := range a.Files {
		start := 2 + i*4
		c.Items = append(c.Items, Item{
			Lines:  listing[start : start+3],
			Detail: a.ContentLines(i),
		})
	}
	return c
}

// AnswerContent shows the answer, one entry per pakdiff selector and the
// replacement body of the selected entry. render formats the answer and may
// be nil.
func AnswerContent(answer string, doc *pakdiff.Document, render func(string) string) Content {
	text := answer
	if render != nil {
		text = render(answer)
	}

	c := Content{
		Title:       "Answer",
		InfoTitle:   "Answer",
		ListTitle:   "Pakdiff Summary",
		DetailTitle: "Method Detail",
		Info:        strings.Split(strings.TrimRight(text, "\n"), "\n"),
		Empty:       "No pakdiff changes",
	}
	for _, e := range doc.Summary() {
		c.Items = append(c.Items, Item{
			Lines:  []string{e.Key},
			Detail: e.Body,
		})
	}
	return c
}

// MarkdownRenderer returns a glamour renderer for the active theme wrapped at
// width. Rendering errors fall back to the raw text.
func MarkdownRenderer(width int) func(string) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(styles.CurrentPalette.GlamourStyle),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	return func(s string) string {
		out, err := r.Render(s)
		if err != nil {
			return s
		}
		return out
	}
}
