package commands

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/hay-kot/pakagent/internal/core/doctor"
	"github.com/hay-kot/pakagent/internal/core/styles"
	"github.com/hay-kot/pakagent/internal/pakagent"
	"github.com/hay-kot/pakagent/internal/printer"
	"github.com/hay-kot/pakagent/pkg/iojson"
	"github.com/urfave/cli/v3"
)

type DoctorCmd struct {
	flags  *Flags
	app    *pakagent.App
	format string
	checks []string
}

func NewDoctorCmd(flags *Flags, app *pakagent.App) *DoctorCmd {
	return &DoctorCmd{flags: flags, app: app}
}

func (cmd *DoctorCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "doctor",
		Usage:     "Check that pak, git, the session directories and the API key are ready",
		UsageText: "pakagent doctor [options]",
		Description: `Runs the Tools, Directories and Environment checks. Failing items come
with a hint. Exits 1 when any item fails; warnings do not change the exit code.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "format",
				Usage:       "output format (text, json)",
				Value:       "text",
				Destination: &cmd.format,
			},
			&cli.StringSliceFlag{
				Name:        "check",
				Usage:       "run only this check (" + strings.Join(pakagent.CheckNames, ", ") + "); repeatable",
				Destination: &cmd.checks,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *DoctorCmd) run(ctx context.Context, c *cli.Command) error {
	only := make([]string, 0, len(cmd.checks))
	for _, name := range cmd.checks {
		name = strings.ToLower(strings.TrimSpace(name))
		if !slices.Contains(pakagent.CheckNames, name) {
			return fmt.Errorf("unknown check %q (want one of %s)", name, strings.Join(pakagent.CheckNames, ", "))
		}
		only = append(only, name)
	}

	results := cmd.app.Doctor.RunChecks(ctx, only...)
	_, _, failed := doctor.Summary(results)

	var err error
	if cmd.format == "json" {
		err = cmd.outputJSON(c, results)
	} else {
		cmd.outputText(printer.Ctx(ctx), results)
	}
	if err != nil {
		return err
	}
	if failed > 0 {
		return cli.Exit("", 1)
	}
	return nil
}

func (cmd *DoctorCmd) outputJSON(c *cli.Command, results []doctor.Result) error {
	passed, warned, failed := doctor.Summary(results)

	out := struct {
		Healthy bool            `json:"healthy"`
		Summary summaryJSON     `json:"summary"`
		Checks  []doctor.Result `json:"checks"`
	}{
		Healthy: failed == 0,
		Summary: summaryJSON{Passed: passed, Warned: warned, Failed: failed},
		Checks:  results,
	}

	return iojson.WriteWith(c.Root().Writer, os.Stderr, out)
}

type summaryJSON struct {
	Passed int `json:"passed"`
	Warned int `json:"warned"`
	Failed int `json:"failed"`
}

func (cmd *DoctorCmd) outputText(p *printer.Printer, results []doctor.Result) {
	for _, result := range results {
		p.Header(result.Name)

		for _, item := range result.Items {
			line := item.Label
			if item.Detail != "" {
				line += " " + styles.MutedStyle.Render(item.Detail)
			}

			switch item.Status {
			case doctor.StatusPass:
				p.Printf("  %s %s", styles.SuccessStyle.Render("✔"), line)
			case doctor.StatusWarn:
				p.Printf("  %s %s", styles.WarnStyle.Render("●"), line)
			case doctor.StatusFail:
				p.Printf("  %s %s", styles.ErrorStyle.Render("✘"), line)
			}
			if item.Hint != "" && item.Status != doctor.StatusPass {
				p.Printf("      %s", styles.MutedStyle.Render("→ "+item.Hint))
			}
		}
		p.Printf("")
	}

	passed, warned, failed := doctor.Summary(results)
	p.Printf("%s  %s  %s",
		styles.SuccessStyle.Render(fmt.Sprintf("%d passed", passed)),
		styles.WarnStyle.Render(fmt.Sprintf("%d warnings", warned)),
		styles.ErrorStyle.Render(fmt.Sprintf("%d failed", failed)),
	)
}
