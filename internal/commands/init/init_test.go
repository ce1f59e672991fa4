package initcmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/huh"
	"github.com/hay-kot/pakagent/internal/core/config"
	"github.com/hay-kot/pakagent/internal/printer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCtx() (context.Context, *bytes.Buffer) {
	var buf bytes.Buffer
	return printer.NewContext(context.Background(), printer.New(&buf, &buf)), &buf
}

func TestGenerateConfig_RoundTrip(t *testing.T) {
	opts := DefaultConfigOptions()
	opts.PakPath = "/opt/bin/pak"
	opts.Model = "openai/gpt-4o-mini"
	opts.Patterns = []string{"*.go", "cmd"}
	opts.LoopDir = "/tmp/mailbox"

	data, err := GenerateConfig(opts)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("# pakagent configuration")))

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, WriteConfig(data, path))

	for _, env := range []string{config.EnvAPIKey, "OPENROUTER_MODEL", "PAK_COMMAND", "PAK_WORKFLOW_DIR", "PAK_SOURCE_DIR"} {
		t.Setenv(env, "")
	}

	cfg, err := config.Load(path, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "/opt/bin/pak", cfg.PakPath)
	assert.Equal(t, "openai/gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, []string{"*.go", "cmd"}, cfg.Prepare.Patterns)
	assert.Equal(t, "/tmp/mailbox", cfg.Loop.Dir)
}

func TestBackupConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	backup, err := BackupConfig(path)
	require.NoError(t, err)
	assert.Empty(t, backup, "nothing to back up")

	require.NoError(t, os.WriteFile(path, []byte("theme: nord\n"), 0o600))
	backup, err = BackupConfig(path)
	require.NoError(t, err)
	assert.Equal(t, path+".bak", backup)

	got, err := os.ReadFile(backup)
	require.NoError(t, err)
	assert.Equal(t, "theme: nord\n", string(got))

	info, err := os.Stat(backup)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestWizard_Yes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	ctx, out := testCtx()

	w := NewWizard(WizardOptions{ConfigPath: path, Yes: true})
	w.form = func(*ConfigOptions) error {
		t.Fatal("form should not run with --yes")
		return nil
	}

	require.NoError(t, w.Run(ctx))
	assert.FileExists(t, path)
	assert.Contains(t, out.String(), "Created config")
	assert.Contains(t, out.String(), "Next Steps")
}

func TestWizard_ExistingConfigNeedsForce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("theme: nord\n"), 0o644))
	ctx, _ := testCtx()

	err := NewWizard(WizardOptions{ConfigPath: path, Yes: true}).Run(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--force")

	require.NoError(t, NewWizard(WizardOptions{ConfigPath: path, Yes: true, Force: true}).Run(ctx))
	assert.FileExists(t, path+".bak")
}

func TestWizard_FormValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	ctx, _ := testCtx()

	w := NewWizard(WizardOptions{ConfigPath: path})
	w.form = func(o *ConfigOptions) error {
		o.Model = "anthropic/claude-3.5-haiku"
		o.SourceDir = "/src/app"
		return nil
	}
	require.NoError(t, w.Run(ctx))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "model: anthropic/claude-3.5-haiku")
	assert.Contains(t, string(data), "source_dir: /src/app")
}

func TestWizard_FormAborted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	ctx, out := testCtx()

	w := NewWizard(WizardOptions{ConfigPath: path})
	w.form = func(*ConfigOptions) error { return huh.ErrUserAborted }

	require.NoError(t, w.Run(ctx))
	assert.NoFileExists(t, path)
	assert.Contains(t, out.String(), "Init cancelled")
}
