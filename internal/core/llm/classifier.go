package llm

import (
	"context"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog"
)

// Classifier decides whether a request asks for a textual answer rather
// than a code change.
type Classifier interface {
	IsQuestion(ctx context.Context, instruction string) bool
}

// questionWords mark a request as a question when they appear as a whole
// word. questionStems match any word that starts with them.
var (
	questionWords = map[string]bool{
		"what": true, "why": true, "how": true, "think": true, "opinion": true,
		"cosa": true, "quale": true, "perché": true, "come": true,
		"ascii": true, "schema": true, "draw": true, "documentation": true, "docs": true,
	}
	questionStems = []string{"explain", "describ", "pensi", "diagram", "visuali"}
)

// KeywordClassifier matches request words against a fixed keyword list.
type KeywordClassifier struct{}

func (KeywordClassifier) IsQuestion(_ context.Context, instruction string) bool {
	return MatchesKeywords(instruction)
}

// MatchesKeywords reports whether s contains a question keyword. Matching is
// case-insensitive and on word boundaries, so "showcase" does not match "how".
func MatchesKeywords(s string) bool {
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		if questionWords[w] {
			return true
		}
		for _, stem := range questionStems {
			if strings.HasPrefix(w, stem) {
				return true
			}
		}
	}
	return false
}

// RemoteClassifier asks the model to label a request. Any failure falls back
// to keyword matching.
type RemoteClassifier struct {
	completer Completer
	prompts   *Prompts
	timeout   time.Duration
	fallback  KeywordClassifier
	log       zerolog.Logger
}

// NewRemoteClassifier builds a RemoteClassifier. completer may be nil, in
// which case keyword matching is always used.
func NewRemoteClassifier(completer Completer, prompts *Prompts, timeout time.Duration, log zerolog.Logger) *RemoteClassifier {
	return &RemoteClassifier{
		completer: completer,
		prompts:   prompts,
		timeout:   timeout,
		log:       log,
	}
}

func (r *RemoteClassifier) IsQuestion(ctx context.Context, instruction string) bool {
	if r.completer == nil {
		return r.fallback.IsQuestion(ctx, instruction)
	}

	prompt, err := r.prompts.Render(PromptClassify, instruction, "")
	if err != nil {
		r.log.Warn().Err(err).Msg("classify prompt failed, using keywords")
		return r.fallback.IsQuestion(ctx, instruction)
	}

	reply, err := r.completer.Complete(ctx, Request{
		Prompt:      prompt,
		MaxTokens:   10,
		Temperature: 0,
		Timeout:     r.timeout,
	})
	if err != nil {
		r.log.Warn().Err(err).Msg("remote classification failed, using keywords")
		return r.fallback.IsQuestion(ctx, instruction)
	}

	label := strings.ToUpper(strings.TrimSpace(reply))
	r.log.Debug().Str("label", label).Msg("request classified")
	return strings.Contains(label, "TEXT_RESPONSE")
}
