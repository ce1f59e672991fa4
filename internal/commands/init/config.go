package initcmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hay-kot/pakagent/internal/core/config"
	"gopkg.in/yaml.v3"
)

const configHeader = `# pakagent configuration
# Environment variables (OPENROUTER_API_KEY, OPENROUTER_MODEL, PAK_COMMAND,
# PAK_WORKFLOW_DIR, PAK_SOURCE_DIR) override the values below.
# Run 'pakagent config validate' after editing.

`

// ConfigOptions are the values collected by the wizard.
type ConfigOptions struct {
	PakPath     string
	Model       string
	Theme       string
	Patterns    []string
	Compression string
	LoopDir     string
	SourceDir   string
}

// DefaultConfigOptions mirrors config.DefaultConfig.
func DefaultConfigOptions() ConfigOptions {
	d := config.DefaultConfig()
	return ConfigOptions{
		PakPath:     d.PakPath,
		Model:       d.LLM.Model,
		Theme:       d.Theme,
		Patterns:    d.Prepare.Patterns,
		Compression: d.Prepare.Compression,
	}
}

type fileConfig struct {
	PakPath string `yaml:"pak_path"`
	Theme   string `yaml:"theme"`
	LLM     struct {
		Model       string  `yaml:"model"`
		MaxTokens   int     `yaml:"max_tokens"`
		Temperature float64 `yaml:"temperature"`
	} `yaml:"llm"`
	Prepare struct {
		Patterns    []string `yaml:"patterns"`
		Compression string   `yaml:"compression"`
	} `yaml:"prepare"`
	Loop struct {
		Dir       string `yaml:"dir,omitempty"`
		SourceDir string `yaml:"source_dir,omitempty"`
	} `yaml:"loop"`
}

// GenerateConfig renders the config file for opts.
func GenerateConfig(opts ConfigOptions) ([]byte, error) {
	d := config.DefaultConfig()

	var fc fileConfig
	fc.PakPath = opts.PakPath
	fc.Theme = opts.Theme
	fc.LLM.Model = opts.Model
	fc.LLM.MaxTokens = d.LLM.MaxTokens
	fc.LLM.Temperature = d.LLM.Temperature
	fc.Prepare.Patterns = opts.Patterns
	fc.Prepare.Compression = opts.Compression
	fc.Loop.Dir = opts.LoopDir
	fc.Loop.SourceDir = opts.SourceDir

	var buf bytes.Buffer
	buf.WriteString(configHeader)

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(fc); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteConfig writes data to path, creating parent directories.
func WriteConfig(data []byte, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
