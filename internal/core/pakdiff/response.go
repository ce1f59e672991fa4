package pakdiff

import "strings"

const (
	implementationHeading = "## IMPLEMENTATION"
	analysisHeading       = "## ANALYSIS AND PLAN"
)

// Response is an LLM reply split into the part shown to the user and the
// pakdiff to apply.
type Response struct {
	Answer  string
	Pakdiff string
	// Found is false when a code-change reply carried no fenced or marked
	// pakdiff. Pakdiff then holds the whole implementation text.
	Found bool
}

// SplitResponse separates analysis from implementation. In question mode the
// whole reply is the answer and no pakdiff is expected.
func SplitResponse(reply string, question bool) Response {
	if question {
		return Response{Answer: strings.TrimSpace(reply)}
	}

	analysis, implementation := reply, reply
	if before, after, ok := strings.Cut(reply, implementationHeading); ok {
		analysis = strings.TrimSpace(strings.ReplaceAll(before, analysisHeading, ""))
		implementation = after
	}

	body, found := Extract(implementation)
	if !found {
		body = strings.TrimSpace(implementation)
	}
	return Response{Answer: analysis, Pakdiff: body, Found: found}
}
