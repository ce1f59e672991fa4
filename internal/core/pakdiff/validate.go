package pakdiff

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hay-kot/pakagent/internal/core/sanitize"
)

var (
	ErrEmpty          = errors.New("pakdiff content is empty")
	ErrNoFileSections = errors.New("no FILE sections found")
	ErrOrphanSelector = errors.New("selector appears before any FILE directive")
)

// dangerousPatterns flag replacement code worth a second look. They only
// produce warnings.
var dangerousPatterns = []string{
	"eval(",
	"exec(",
	"os.system(",
	"subprocess.",
	"__import__(",
	"open('/etc",
	`open("/etc`,
}

// Validate checks pakdiff text before it is handed to pak. It fails on empty
// input, on text without any FILE directive, on selectors that precede the
// first FILE and on unsafe FILE paths.
// Suspicious replacement code is reported through warnings only.
func Validate(text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmpty
	}

	var (
		warnings  []string
		hasFile   bool
		inReplace bool
		file      string
		// first selector seen before any FILE, 1-based
		orphanLine int
	)

	for n, raw := range strings.Split(text, "\n") {
		line := strings.TrimRight(raw, " \t\r")

		switch {
		case strings.HasPrefix(line, DirectiveFile):
			hasFile = true
			inReplace = false
			file = directiveValue(line, DirectiveFile)
			if _, err := sanitize.FilePath(file); err != nil {
				return warnings, fmt.Errorf("line %d: %w", n+1, err)
			}
		case strings.HasPrefix(line, DirectiveReplaceWith):
			inReplace = true
		case strings.HasPrefix(line, DirectiveFindMethod),
			strings.HasPrefix(line, DirectiveSection):
			if !hasFile && orphanLine == 0 {
				orphanLine = n + 1
			}
			inReplace = false
		case strings.HasPrefix(line, DirectiveUntilExclude):
			inReplace = false
		case inReplace:
			for _, p := range dangerousPatterns {
				if strings.Contains(line, p) {
					warnings = append(warnings, fmt.Sprintf("line %d (%s): potentially dangerous code %q", n+1, file, p))
				}
			}
		}
	}

	if !hasFile {
		return warnings, ErrNoFileSections
	}
	if orphanLine > 0 {
		return warnings, fmt.Errorf("line %d: %w", orphanLine, ErrOrphanSelector)
	}
	return warnings, nil
}
