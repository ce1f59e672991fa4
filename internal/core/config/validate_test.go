package config

import (
	"testing"

	"github.com/hay-kot/criterio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.PakPath = "sh"
	cfg.GitPath = "sh"
	return &cfg
}

func TestValidate_Valid(t *testing.T) {
	require.NoError(t, validConfig(t).Validate())
}

func TestValidate_Fields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		field  string
	}{
		{name: "empty pak path", mutate: func(c *Config) { c.PakPath = "" }, field: "pak_path"},
		{name: "empty data dir", mutate: func(c *Config) { c.DataDir = "" }, field: "data_dir"},
		{name: "zero max tokens", mutate: func(c *Config) { c.LLM.MaxTokens = 0 }, field: "llm.max_tokens"},
		{name: "temperature too high", mutate: func(c *Config) { c.LLM.Temperature = 3 }, field: "llm.temperature"},
		{name: "unknown compression", mutate: func(c *Config) { c.Prepare.Compression = "ultra" }, field: "prepare.compression"},
		{name: "blank pattern", mutate: func(c *Config) { c.Prepare.Patterns = []string{"*.py", " "} }, field: "prepare.patterns[1]"},
		{name: "blank loop instruction", mutate: func(c *Config) { c.Loop.Instructions = []string{"add tests", ""} }, field: "loop.instructions[1]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)

			err := cfg.Validate()

			var fieldErrs criterio.FieldErrors
			require.ErrorAs(t, err, &fieldErrs)
			require.Len(t, fieldErrs, 1)
			assert.Equal(t, tt.field, fieldErrs[0].Field)
		})
	}
}

func TestValidateDeep_MissingExecutable(t *testing.T) {
	cfg := validConfig(t)
	cfg.PakPath = "pak-binary-that-does-not-exist"

	err := cfg.ValidateDeep("")

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	require.Len(t, fieldErrs, 1)
	assert.Equal(t, "pak_path", fieldErrs[0].Field)
	assert.Contains(t, fieldErrs[0].Err.Error(), "executable not found")
}

func TestValidateDeep_InvalidPromptTemplate(t *testing.T) {
	cfg := validConfig(t)
	cfg.Prompts.Modify = "Task: {{ .Instruction }"
	cfg.Prompts.Loop = "{{ .Missing }}"

	err := cfg.ValidateDeep("")

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Len(t, fieldErrs, 2)
	for _, fe := range fieldErrs {
		assert.Contains(t, fe.Field, "prompts.")
		assert.Contains(t, fe.Err.Error(), "template error")
	}
}

func TestValidateDeep_ConfigPathIsDir(t *testing.T) {
	cfg := validConfig(t)

	err := cfg.ValidateDeep(t.TempDir())

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Equal(t, "config_file", fieldErrs[0].Field)
}

func TestWarnings(t *testing.T) {
	cfg := validConfig(t)
	cfg.LLM.RemoteClassifier = true

	warnings := cfg.Warnings()
	require.Len(t, warnings, 2)
	assert.Equal(t, EnvAPIKey, warnings[0].Item)

	cfg.LLM.APIKey = "sk-test"
	cfg.LLM.RemoteClassifier = false
	assert.Empty(t, cfg.Warnings())
}
