package llm

import (
	"embed"
	"fmt"

	"github.com/hay-kot/pakagent/internal/core/config"
	"github.com/hay-kot/pakagent/pkg/tmpl"
)

//go:embed prompts/*.tmpl
var promptFS embed.FS

// PromptKind names a built-in prompt.
type PromptKind string

const (
	PromptModify   PromptKind = "modify"
	PromptQuestion PromptKind = "question"
	PromptClassify PromptKind = "classify"
	PromptLoop     PromptKind = "loop"
)

// Prompts renders prompt templates, preferring configured overrides.
type Prompts struct {
	overrides config.Prompts
	vars      map[string]any
}

// NewPrompts creates a renderer using overrides from cfg.
func NewPrompts(overrides config.Prompts, vars map[string]any) *Prompts {
	return &Prompts{overrides: overrides, vars: vars}
}

// Render builds the prompt of the given kind.
func (p *Prompts) Render(kind PromptKind, instruction, codebase string) (string, error) {
	text, err := p.source(kind)
	if err != nil {
		return "", err
	}
	out, err := tmpl.Render(text, config.PromptData{
		Instruction: instruction,
		Codebase:    codebase,
		Vars:        p.vars,
	})
	if err != nil {
		return "", fmt.Errorf("render %s prompt: %w", kind, err)
	}
	return out, nil
}

func (p *Prompts) source(kind PromptKind) (string, error) {
	var override string
	switch kind {
	case PromptModify:
		override = p.overrides.Modify
	case PromptQuestion:
		override = p.overrides.Question
	case PromptClassify:
		override = p.overrides.Classify
	case PromptLoop:
		override = p.overrides.Loop
	default:
		return "", fmt.Errorf("unknown prompt %q", kind)
	}
	if override != "" {
		return override, nil
	}

	data, err := promptFS.ReadFile("prompts/" + string(kind) + ".tmpl")
	if err != nil {
		return "", fmt.Errorf("read %s prompt: %w", kind, err)
	}
	return string(data), nil
}
