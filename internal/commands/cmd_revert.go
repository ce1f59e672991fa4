package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hay-kot/pakagent/internal/core/history"
	"github.com/hay-kot/pakagent/internal/core/logging"
	"github.com/hay-kot/pakagent/internal/core/session"
	"github.com/hay-kot/pakagent/internal/pakagent"
	"github.com/hay-kot/pakagent/internal/printer"
	"github.com/urfave/cli/v3"
)

type RevertCmd struct {
	flags *Flags
	app   *pakagent.App

	force bool
}

func NewRevertCmd(flags *Flags, app *pakagent.App) *RevertCmd {
	return &RevertCmd{flags: flags, app: app}
}

func (cmd *RevertCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:        "revert",
		Usage:       "Restore files to their state in the session archive",
		UsageText:   "pakagent revert [options]",
		Description: "Extracts the session archive over the working tree with pak -x. Changes made after prepare are lost.",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "force",
				Aliases:     []string{"f"},
				Usage:       "skip the confirmation prompt",
				Destination: &cmd.force,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *RevertCmd) run(ctx context.Context, c *cli.Command) error {
	ctx = logging.WithStage(ctx, "revert")
	p := printer.Ctx(ctx)
	paths := cmd.app.Session.Paths()
	start := time.Now()

	if err := session.RequireFiles(paths.Archive); err != nil {
		p.Errorf("Archive file %s not found", paths.Archive)
		p.Printf("Run 'pakagent prepare' first to create the archive.")
		return cli.Exit("", 1)
	}

	if info, err := os.Stat(paths.Archive); err == nil {
		p.Infof("Archive found: %s bytes", humanize.Comma(info.Size()))
	}

	if cmd.app.GitContext.IsRepo {
		if status, err := cmd.app.Git.Status(ctx, cmd.app.WorkDir); err == nil && !status.Clean {
			p.Warnf("Working tree has uncommitted changes:")
			p.Block(strings.TrimRight(status.Porcelain, "\n"))
		}
	}

	ok, err := confirm(cmd.force,
		"Restore all files to their original state?",
		"Any changes made after creating the archive will be LOST.\nCommit important changes to git first.",
	)
	if err != nil {
		return fmt.Errorf("confirm: %w", err)
	}
	if !ok {
		p.Infof("Revert cancelled")
		cmd.record(ctx, start, history.StatusCancelled, "declined")
		return nil
	}

	p.Infof("Reverting files from archive...")
	res := cmd.app.Pak().Extract(ctx, paths.Archive)
	if !res.OK() {
		p.Errorf("Pak extraction failed: %s", res.Message())
		cmd.record(ctx, start, history.StatusFailed, res.Message())
		return cli.Exit("", 1)
	}

	p.Successf("Files successfully reverted to original state")
	if out := strings.TrimSpace(res.Output); out != "" {
		p.Block(out)
	}
	cmd.record(ctx, start, history.StatusSuccess, "")
	return nil
}

func (cmd *RevertCmd) record(ctx context.Context, start time.Time, status history.Status, detail string) {
	cmd.app.Record(ctx, history.Entry{
		Stage:     "revert",
		Status:    status,
		Detail:    detail,
		StartedAt: start,
	})
}
