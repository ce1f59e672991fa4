// Package config handles configuration loading and validation for pakagent.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables that override file configuration.
const (
	EnvAPIKey      = "OPENROUTER_API_KEY"
	EnvModel       = "OPENROUTER_MODEL"
	EnvMaxTokens   = "OPENROUTER_MAX_TOKENS"
	EnvTemperature = "OPENROUTER_TEMPERATURE"
	EnvBaseURL     = "OPENROUTER_BASE_URL"
	EnvPakCommand  = "PAK_COMMAND"
	EnvWorkflowDir = "PAK_WORKFLOW_DIR"
	EnvSourceDir   = "PAK_SOURCE_DIR"
)

// Config holds the application configuration.
type Config struct {
	PakPath   string        `yaml:"pak_path"`
	GitPath   string        `yaml:"git_path"`
	Theme     string        `yaml:"theme"`
	LLM       LLMConfig     `yaml:"llm"`
	Prepare   PrepareConfig `yaml:"prepare"`
	Apply     ApplyConfig   `yaml:"apply"`
	Loop      LoopConfig    `yaml:"loop"`
	Timeouts  Timeouts      `yaml:"timeouts"`
	Prompts   Prompts       `yaml:"prompts"`
	VarsFiles []string      `yaml:"vars_files"`
	// Vars are extra values exposed to prompt templates as .Vars.
	Vars    map[string]any `yaml:"vars"`
	DataDir string         `yaml:"-"` // set by caller, not from config file
}

// LLMConfig configures the chat-completion endpoint.
type LLMConfig struct {
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
	// Timeout bounds a single request.
	Timeout time.Duration `yaml:"timeout"`
	// ClassifierTimeout bounds the request/question classification call.
	ClassifierTimeout time.Duration `yaml:"classifier_timeout"`
	// MaxRetries is the number of retries for transient failures.
	MaxRetries int `yaml:"max_retries"`
	// RetryBase is the first backoff delay; later delays double.
	RetryBase time.Duration `yaml:"retry_base"`
	// RemoteClassifier asks the model whether a request is a question.
	RemoteClassifier bool `yaml:"remote_classifier"`
	// APIKey is read from the environment only.
	APIKey string `yaml:"-"`
}

// PrepareConfig configures archive creation.
type PrepareConfig struct {
	Patterns     []string `yaml:"patterns"`
	Compression  string   `yaml:"compression"`
	PreviewLines int      `yaml:"preview_lines"`
}

// ApplyConfig configures pakdiff application.
type ApplyConfig struct {
	CommitMessage string `yaml:"commit_message"`
	// PostHooks are shell commands run in the working tree after a
	// successful apply. Failures are reported but do not undo the apply.
	PostHooks []string `yaml:"post_hooks"`
}

// LoopConfig configures the producer/consumer workflow.
type LoopConfig struct {
	Dir            string        `yaml:"dir"`
	SourceDir      string        `yaml:"source_dir"`
	Extensions     string        `yaml:"extensions"`
	Compression    string        `yaml:"compression"`
	Interval       time.Duration `yaml:"interval"`
	FailureBackoff time.Duration `yaml:"failure_backoff"`
	PollInterval   time.Duration `yaml:"poll_interval"`
	Instructions   []string      `yaml:"instructions"`
}

// Timeouts bound external tool invocations.
type Timeouts struct {
	Pack    time.Duration `yaml:"pack"`
	Apply   time.Duration `yaml:"apply"`
	Verify  time.Duration `yaml:"verify"`
	Extract time.Duration `yaml:"extract"`
	Git     time.Duration `yaml:"git"`
}

// Prompts override the built-in prompt templates. Empty keeps the default.
type Prompts struct {
	Modify   string `yaml:"modify"`
	Question string `yaml:"question"`
	Classify string `yaml:"classify"`
	Loop     string `yaml:"loop"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		PakPath: "pak",
		GitPath: "git",
		Theme:   "tokyo-night",
		LLM: LLMConfig{
			BaseURL:           "https://openrouter.ai/api/v1",
			Model:             "anthropic/claude-3-haiku:beta",
			MaxTokens:         4000,
			Temperature:       0.1,
			Timeout:           120 * time.Second,
			ClassifierTimeout: 30 * time.Second,
			MaxRetries:        3,
			RetryBase:         time.Second,
		},
		Prepare: PrepareConfig{
			Patterns:     []string{"*.py", "*.md"},
			Compression:  "medium",
			PreviewLines: 10,
		},
		Apply: ApplyConfig{
			CommitMessage: "Apply pakdiff changes",
		},
		Loop: LoopConfig{
			Extensions:     "py,js,ts",
			Compression:    "2",
			Interval:       60 * time.Second,
			FailureBackoff: 30 * time.Second,
			PollInterval:   2 * time.Second,
			Instructions: []string{
				"Add logging to the add method in calculator.py",
				"Add input validation to all calculator methods",
				"Create a new multiply_with_precision method",
				"Add error handling to prevent division by zero",
				"Add unit tests for the calculator class",
			},
		},
		Timeouts: Timeouts{
			Pack:    300 * time.Second,
			Apply:   300 * time.Second,
			Verify:  60 * time.Second,
			Extract: 60 * time.Second,
			Git:     5 * time.Second,
		},
	}
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns defaults with the provided dataDir.
// Environment variables are applied on top of the file.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.DataDir = dataDir

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}

			// Re-set dataDir since Unmarshal may have cleared it
			cfg.DataDir = dataDir
		}

		if len(cfg.VarsFiles) > 0 {
			vars, err := promptVars(filepath.Dir(configPath), cfg.VarsFiles)
			if err != nil {
				return nil, err
			}
			overlay(vars, cfg.Vars)
			cfg.Vars = vars
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyEnv overlays OPENROUTER_* and PAK_* variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get(EnvAPIKey); ok {
		c.LLM.APIKey = v
	}
	if v, ok := get(EnvModel); ok {
		c.LLM.Model = v
	}
	if v, ok := get(EnvBaseURL); ok {
		c.LLM.BaseURL = v
	}
	if v, ok := get(EnvMaxTokens); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMaxTokens, err)
		}
		c.LLM.MaxTokens = n
	}
	if v, ok := get(EnvTemperature); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTemperature, err)
		}
		c.LLM.Temperature = f
	}
	if v, ok := get(EnvPakCommand); ok {
		c.PakPath = v
	}
	if v, ok := get(EnvWorkflowDir); ok {
		c.Loop.Dir = v
	}
	if v, ok := get(EnvSourceDir); ok {
		c.Loop.SourceDir = v
	}
	return nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	d := DefaultConfig()

	setDuration := func(v *time.Duration, def time.Duration) {
		if *v == 0 {
			*v = def
		}
	}
	setString := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}

	setString(&c.PakPath, d.PakPath)
	setString(&c.GitPath, d.GitPath)
	setString(&c.Theme, d.Theme)
	setString(&c.LLM.BaseURL, d.LLM.BaseURL)
	setString(&c.LLM.Model, d.LLM.Model)
	setString(&c.Prepare.Compression, d.Prepare.Compression)
	setString(&c.Apply.CommitMessage, d.Apply.CommitMessage)
	setString(&c.Loop.Extensions, d.Loop.Extensions)
	setString(&c.Loop.Compression, d.Loop.Compression)

	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = d.LLM.MaxTokens
	}
	if c.Prepare.PreviewLines == 0 {
		c.Prepare.PreviewLines = d.Prepare.PreviewLines
	}
	if len(c.Prepare.Patterns) == 0 {
		c.Prepare.Patterns = d.Prepare.Patterns
	}
	if len(c.Loop.Instructions) == 0 {
		c.Loop.Instructions = d.Loop.Instructions
	}

	setDuration(&c.LLM.Timeout, d.LLM.Timeout)
	setDuration(&c.LLM.ClassifierTimeout, d.LLM.ClassifierTimeout)
	setDuration(&c.LLM.RetryBase, d.LLM.RetryBase)
	setDuration(&c.Loop.Interval, d.Loop.Interval)
	setDuration(&c.Loop.FailureBackoff, d.Loop.FailureBackoff)
	setDuration(&c.Loop.PollInterval, d.Loop.PollInterval)
	setDuration(&c.Timeouts.Pack, d.Timeouts.Pack)
	setDuration(&c.Timeouts.Apply, d.Timeouts.Apply)
	setDuration(&c.Timeouts.Verify, d.Timeouts.Verify)
	setDuration(&c.Timeouts.Extract, d.Timeouts.Extract)
	setDuration(&c.Timeouts.Git, d.Timeouts.Git)
}

// HistoryDB returns the path to the operation history database.
func (c *Config) HistoryDB() string {
	return filepath.Join(c.DataDir, "pakagent.db")
}

// HasAPIKey reports whether an LLM API key is configured.
func (c *Config) HasAPIKey() bool {
	return c.LLM.APIKey != ""
}
