// Package pakdiff parses the line-oriented pakdiff change format.
//
// A pakdiff document is a sequence of blocks:
//
//	FILE: path/to/file.py
//	FIND_METHOD: def add(self, a, b)
//	UNTIL_EXCLUDE: def subtract(self, a, b)
//	REPLACE_WITH:
//	def add(self, a, b):
//	    return a + b
//
// A block may use SECTION: <name> instead of FIND_METHOD. An empty
// FIND_METHOD value appends a new method to the file.
package pakdiff

import (
	"strings"
)

// Directive prefixes recognized by the parser.
const (
	DirectiveFile         = "FILE:"
	DirectiveFindMethod   = "FIND_METHOD:"
	DirectiveSection      = "SECTION:"
	DirectiveUntilExclude = "UNTIL_EXCLUDE:"
	DirectiveReplaceWith  = "REPLACE_WITH:"
)

// NewMethodPlaceholder is the summary label for an empty FIND_METHOD.
const NewMethodPlaceholder = "[NEW METHOD]"

// SelectorKind tells a method selector from a section selector.
type SelectorKind int

const (
	SelectorMethod SelectorKind = iota
	SelectorSection
)

// Selector identifies the region of a file a record replaces.
type Selector struct {
	Kind         SelectorKind
	Value        string
	UntilExclude string
}

// Label renders the selector the way summaries display it.
func (s Selector) Label() string {
	if s.Kind == SelectorSection {
		return "[" + s.Value + "]"
	}
	if s.Value == "" {
		return NewMethodPlaceholder
	}
	return s.Value
}

// ChangeRecord is one replacement inside one file.
type ChangeRecord struct {
	FilePath string
	Selector Selector
	Body     []string
}

// Key is the summary key "<file>: <selector>".
func (r ChangeRecord) Key() string {
	return r.FilePath + ": " + r.Selector.Label()
}

// Document is the ordered list of records parsed from pakdiff text.
type Document struct {
	Records []ChangeRecord
}

// SummaryEntry pairs a summary key with the body that applies to it.
type SummaryEntry struct {
	Key  string
	Body []string
}

// Parse splits text into lines and parses them.
func Parse(text string) *Document {
	return ParseLines(strings.Split(text, "\n"))
}

// ParseLines scans lines for directives. Unknown lines outside a
// REPLACE_WITH region are ignored, and blank lines are never part of a body.
// Selectors that appear before any FILE directive are dropped along with
// their bodies.
func ParseLines(lines []string) *Document {
	doc := &Document{}

	var (
		file      string
		current   *ChangeRecord
		inReplace bool
	)

	flush := func() {
		if current != nil {
			doc.Records = append(doc.Records, *current)
			current = nil
		}
	}

	for _, raw := range lines {
		line := strings.TrimRight(raw, " \t\r")

		switch {
		case strings.HasPrefix(line, DirectiveFile):
			flush()
			inReplace = false
			file = directiveValue(line, DirectiveFile)
		case strings.HasPrefix(line, DirectiveFindMethod):
			flush()
			inReplace = false
			if file == "" {
				continue
			}
			current = &ChangeRecord{
				FilePath: file,
				Selector: Selector{Kind: SelectorMethod, Value: directiveValue(line, DirectiveFindMethod)},
			}
		case strings.HasPrefix(line, DirectiveSection):
			flush()
			inReplace = false
			if file == "" {
				continue
			}
			current = &ChangeRecord{
				FilePath: file,
				Selector: Selector{Kind: SelectorSection, Value: directiveValue(line, DirectiveSection)},
			}
		case strings.HasPrefix(line, DirectiveUntilExclude):
			inReplace = false
			if current != nil {
				current.Selector.UntilExclude = directiveValue(line, DirectiveUntilExclude)
			}
		case strings.HasPrefix(line, DirectiveReplaceWith):
			inReplace = current != nil
		case inReplace && strings.TrimSpace(line) != "":
			current.Body = append(current.Body, line)
		}
	}
	flush()

	return doc
}

func directiveValue(line, directive string) string {
	return strings.TrimSpace(strings.TrimPrefix(line, directive))
}

// Summary returns one entry per selector directive in encounter order. Keys
// may repeat; every entry of a repeated key carries the body of its last
// occurrence.
func (d *Document) Summary() []SummaryEntry {
	last := make(map[string][]string, len(d.Records))
	for _, r := range d.Records {
		last[r.Key()] = r.Body
	}
	entries := make([]SummaryEntry, 0, len(d.Records))
	for _, r := range d.Records {
		key := r.Key()
		entries = append(entries, SummaryEntry{Key: key, Body: last[key]})
	}
	return entries
}

// Files returns the distinct file paths in encounter order.
func (d *Document) Files() []string {
	seen := make(map[string]bool)
	var files []string
	for _, r := range d.Records {
		if r.FilePath == "" || seen[r.FilePath] {
			continue
		}
		seen[r.FilePath] = true
		files = append(files, r.FilePath)
	}
	return files
}

// Methods returns the non-empty FIND_METHOD values in encounter order.
func (d *Document) Methods() []string {
	var out []string
	for _, r := range d.Records {
		if r.Selector.Kind == SelectorMethod && r.Selector.Value != "" {
			out = append(out, r.Selector.Value)
		}
	}
	return out
}

// Empty reports whether the document has no records.
func (d *Document) Empty() bool {
	return len(d.Records) == 0
}
