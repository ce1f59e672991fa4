package config

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/hay-kot/criterio"
	"github.com/hay-kot/pakagent/internal/core/validate"
	"github.com/hay-kot/pakagent/pkg/tmpl"
)

// PromptData defines the fields available to prompt templates.
type PromptData struct {
	Instruction string // User request
	Codebase    string // Archive contents
	Vars        map[string]any
}

// ValidationWarning represents a non-fatal configuration issue.
type ValidationWarning struct {
	Category string `json:"category"`
	Item     string `json:"item,omitempty"`
	Message  string `json:"message"`
}

var compressionLevels = []string{"0", "1", "2", "3", "4", "none", "light", "medium", "aggressive", "smart"}

// Validate checks that the configuration is structurally valid.
func (c *Config) Validate() error {
	return criterio.ValidateStruct(
		criterio.Run("pak_path", c.PakPath, notEmpty),
		criterio.Run("git_path", c.GitPath, notEmpty),
		criterio.Run("data_dir", c.DataDir, notEmpty),
		criterio.Run("llm.model", c.LLM.Model, notEmpty),
		criterio.Run("prepare.compression", c.Prepare.Compression, oneOf(compressionLevels)),
		criterio.Run("loop.compression", c.Loop.Compression, oneOf(compressionLevels)),
		c.validateNumbers(),
		c.validatePatterns(),
		validate.Instructions("loop.instructions", c.Loop.Instructions),
	)
}

func (c *Config) validateNumbers() error {
	var errs criterio.FieldErrorsBuilder
	if c.LLM.MaxTokens < 1 {
		errs = errs.Append("llm.max_tokens", errors.New("must be at least 1"))
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errs = errs.Append("llm.temperature", fmt.Errorf("must be between 0 and 2, got %v", c.LLM.Temperature))
	}
	if c.LLM.MaxRetries < 0 {
		errs = errs.Append("llm.max_retries", errors.New("cannot be negative"))
	}
	if c.Prepare.PreviewLines < 0 {
		errs = errs.Append("prepare.preview_lines", errors.New("cannot be negative"))
	}
	return errs.ToError()
}

// ValidateDeep performs Validate and then checks file access, executables
// and prompt template syntax. configPath may be empty.
func (c *Config) ValidateDeep(configPath string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	return criterio.ValidateStruct(
		validateConfigFile(configPath),
		criterio.Run("pak_path", c.PakPath, executableExists),
		criterio.Run("git_path", c.GitPath, executableExists),
		criterio.Run("data_dir", c.DataDir, isDirectoryOrNotExist),
		c.validatePromptTemplates(),
	)
}

// Warnings returns non-fatal configuration issues.
func (c *Config) Warnings() []ValidationWarning {
	var warnings []ValidationWarning

	if !c.HasAPIKey() {
		warnings = append(warnings, ValidationWarning{
			Category: "LLM",
			Item:     EnvAPIKey,
			Message:  "API key not set; modify and loop commands will fail",
		})
	}
	if c.LLM.RemoteClassifier && !c.HasAPIKey() {
		warnings = append(warnings, ValidationWarning{
			Category: "LLM",
			Item:     "llm.remote_classifier",
			Message:  "remote classifier falls back to keywords without an API key",
		})
	}
	if len(c.Apply.PostHooks) > 0 {
		warnings = append(warnings, ValidationWarning{
			Category: "Apply",
			Item:     "apply.post_hooks",
			Message:  fmt.Sprintf("%d post-apply hook(s) run with sh -c", len(c.Apply.PostHooks)),
		})
	}

	return warnings
}

func (c *Config) validatePatterns() error {
	var errs criterio.FieldErrorsBuilder
	for i, p := range c.Prepare.Patterns {
		if strings.TrimSpace(p) == "" {
			errs = errs.Append(fmt.Sprintf("prepare.patterns[%d]", i), errors.New("pattern cannot be empty"))
		}
	}
	return errs.ToError()
}

func (c *Config) validatePromptTemplates() error {
	data := PromptData{Instruction: "example", Codebase: "example", Vars: c.Vars}

	var errs criterio.FieldErrorsBuilder
	for field, text := range map[string]string{
		"prompts.modify":   c.Prompts.Modify,
		"prompts.question": c.Prompts.Question,
		"prompts.classify": c.Prompts.Classify,
		"prompts.loop":     c.Prompts.Loop,
	} {
		if text == "" {
			continue
		}
		if _, err := tmpl.Render(text, data); err != nil {
			errs = errs.Append(field, fmt.Errorf("template error: %w", err))
		}
	}
	return errs.ToError()
}

func validateConfigFile(configPath string) error {
	if configPath == "" {
		return nil
	}

	info, err := os.Stat(configPath)
	if os.IsNotExist(err) {
		return nil // not found is fine, using defaults
	}
	if err != nil {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("cannot access: %w", err))
	}
	if info.IsDir() {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("%s is a directory, not a file", configPath))
	}
	return nil
}

func notEmpty(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("cannot be empty")
	}
	return nil
}

func oneOf(allowed []string) func(string) error {
	return func(s string) error {
		for _, a := range allowed {
			if s == a {
				return nil
			}
		}
		return fmt.Errorf("must be one of %s", strings.Join(allowed, ", "))
	}
}

// executableExists validates that the path resolves to an executable.
func executableExists(path string) error {
	if path == "" {
		return nil
	}
	if _, err := exec.LookPath(path); err != nil {
		return fmt.Errorf("executable not found: %s", path)
	}
	return nil
}

// isDirectoryOrNotExist validates that a path is a directory or doesn't exist.
func isDirectoryOrNotExist(path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil // will be created
	}
	if err != nil {
		return fmt.Errorf("cannot access: %w", err)
	}
	if !info.IsDir() {
		return errors.New("exists but is not a directory")
	}
	return nil
}
