// Package initcmd implements the first-run configuration wizard.
package initcmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/hay-kot/pakagent/internal/core/config"
	"github.com/hay-kot/pakagent/internal/core/doctor"
	"github.com/hay-kot/pakagent/internal/core/styles"
	"github.com/hay-kot/pakagent/internal/printer"
)

// WizardOptions configures the wizard behavior.
type WizardOptions struct {
	ConfigPath string
	Yes        bool // skip prompts, use defaults
	Force      bool // overwrite existing config
}

// Wizard orchestrates the init process.
type Wizard struct {
	opts WizardOptions

	// form runs the interactive prompts. Tests replace it.
	form func(opts *ConfigOptions) error
}

// NewWizard creates a new init wizard.
func NewWizard(opts WizardOptions) *Wizard {
	return &Wizard{opts: opts, form: promptUser}
}

// Run executes the wizard.
func (w *Wizard) Run(ctx context.Context) error {
	p := printer.Ctx(ctx)

	if ConfigExists(w.opts.ConfigPath) && !w.opts.Force {
		if w.opts.Yes {
			return fmt.Errorf("config exists at %s; use --force to overwrite", w.opts.ConfigPath)
		}

		var overwrite bool
		err := huh.NewConfirm().
			Title("Config file already exists").
			Description(w.opts.ConfigPath + "\nOverwrite? (a backup will be created)").
			Value(&overwrite).
			Run()
		if err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				p.Infof("Init cancelled")
				return nil
			}
			return err
		}
		if !overwrite {
			p.Infof("Init cancelled")
			return nil
		}
	}

	opts := DefaultConfigOptions()
	if !w.opts.Yes {
		if err := w.form(&opts); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				p.Infof("Init cancelled")
				return nil
			}
			return err
		}
	}

	if ConfigExists(w.opts.ConfigPath) {
		backupPath, err := BackupConfig(w.opts.ConfigPath)
		if err != nil {
			return fmt.Errorf("backup config: %w", err)
		}
		if backupPath != "" {
			p.Successf("Backed up config to: %s", backupPath)
		}
	}

	data, err := GenerateConfig(opts)
	if err != nil {
		return err
	}
	if err := WriteConfig(data, w.opts.ConfigPath); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	p.Successf("Created config: %s", w.opts.ConfigPath)

	p.Printf("")
	result := doctor.NewToolsCheck(opts.PakPath, "git").Run(ctx)
	p.Header(result.Name)
	for _, item := range result.Items {
		switch item.Status {
		case doctor.StatusPass:
			p.Successf("%s %s", item.Label, item.Detail)
		case doctor.StatusWarn:
			p.Warnf("%s %s", item.Label, item.Detail)
		case doctor.StatusFail:
			p.Errorf("%s %s", item.Label, item.Detail)
		}
	}

	w.printNextSteps(p)
	return nil
}

func promptUser(opts *ConfigOptions) error {
	patterns := strings.Join(opts.Patterns, " ")

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("pak command").
				Description("Path or name of the pak binary").
				Value(&opts.PakPath),
			huh.NewInput().
				Title("Model").
				Description("OpenRouter model used by modify and loop").
				Value(&opts.Model),
			huh.NewInput().
				Title("Default patterns").
				Description("Space-separated patterns packed by 'pakagent prepare'").
				Value(&patterns),
			huh.NewSelect[string]().
				Title("Theme").
				Options(huh.NewOptions(styles.ThemeNames()...)...).
				Value(&opts.Theme),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Loop mailbox directory").
				Description("Optional; used by 'pakagent loop'").
				Value(&opts.LoopDir),
			huh.NewInput().
				Title("Loop source directory").
				Description("Optional; the tree the loop packs and changes").
				Value(&opts.SourceDir),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}

	opts.Patterns = strings.Fields(patterns)
	if len(opts.Patterns) == 0 {
		opts.Patterns = config.DefaultConfig().Prepare.Patterns
	}
	return nil
}

func (w *Wizard) printNextSteps(p *printer.Printer) {
	p.Printf("")
	p.Header("Next Steps")
	p.Printf("  1. Set %s in your environment or a .env file", config.EnvAPIKey)
	p.Printf("  2. Run 'pakagent doctor' to check your setup")
	p.Printf("  3. Run 'pakagent prepare' in your project")
}
