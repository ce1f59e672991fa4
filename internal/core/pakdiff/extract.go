package pakdiff

import (
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var markerBlock = regexp.MustCompile(`(?s)PAKDIFF_START\s*(.*?)\s*PAKDIFF_END`)

var md = goldmark.New()

// Extract returns the pakdiff body found in an LLM response. The first fenced
// block tagged `pakdiff` or left untagged wins. Without one, all
// PAKDIFF_START/PAKDIFF_END blocks are joined by newlines. The boolean is
// false when nothing was found.
func Extract(response string) (string, bool) {
	if body, ok := firstFencedBlock(response); ok {
		return body, true
	}

	matches := markerBlock.FindAllStringSubmatch(response, -1)
	parts := make([]string, 0, len(matches))
	for _, m := range matches {
		if b := strings.TrimSpace(m[1]); b != "" {
			parts = append(parts, b)
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, "\n"), true
	}
	return "", false
}

func firstFencedBlock(response string) (string, bool) {
	source := []byte(response)
	doc := md.Parser().Parse(text.NewReader(source))

	var (
		body  string
		found bool
	)
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || found {
			return ast.WalkContinue, nil
		}
		block, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}
		lang := ""
		if block.Info != nil {
			lang = strings.TrimSpace(string(block.Language(source)))
		}
		if lang != "" && lang != "pakdiff" {
			return ast.WalkSkipChildren, nil
		}

		var sb strings.Builder
		lines := block.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			sb.Write(seg.Value(source))
		}
		body = strings.TrimSpace(sb.String())
		found = true
		return ast.WalkStop, nil
	})
	return body, found
}
