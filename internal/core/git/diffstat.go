package git

import (
	"fmt"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
)

// FileChange is the per-file line count of a unified diff.
type FileChange struct {
	Path      string
	Additions int
	Deletions int
	New       bool
	Deleted   bool
}

// Summarize parses a unified diff and counts changed lines per file.
func Summarize(diff string) ([]FileChange, error) {
	if strings.TrimSpace(diff) == "" {
		return nil, nil
	}

	files, _, err := gitdiff.Parse(strings.NewReader(diff))
	if err != nil {
		return nil, fmt.Errorf("parse diff: %w", err)
	}

	changes := make([]FileChange, 0, len(files))
	for _, f := range files {
		fc := FileChange{
			Path:    f.NewName,
			New:     f.IsNew,
			Deleted: f.IsDelete,
		}
		if f.IsDelete {
			fc.Path = f.OldName
		}
		for _, frag := range f.TextFragments {
			fc.Additions += int(frag.LinesAdded)
			fc.Deletions += int(frag.LinesDeleted)
		}
		changes = append(changes, fc)
	}
	return changes, nil
}

// Totals sums additions and deletions across changes.
func Totals(changes []FileChange) (additions, deletions int) {
	for _, c := range changes {
		additions += c.Additions
		deletions += c.Deletions
	}
	return additions, deletions
}
