package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/hay-kot/pakagent/internal/core/history"
	"github.com/hay-kot/pakagent/internal/core/logging"
	"github.com/hay-kot/pakagent/internal/pakagent"
	"github.com/hay-kot/pakagent/internal/printer"
	"github.com/hay-kot/pakagent/pkg/iojson"
	"github.com/urfave/cli/v3"
)

type SessionCmd struct {
	flags *Flags
	app   *pakagent.App

	// flags
	jsonOutput bool
}

// NewSessionCmd creates a new session command
func NewSessionCmd(flags *Flags, app *pakagent.App) *SessionCmd {
	return &SessionCmd{flags: flags, app: app}
}

// Register adds the session command to the application
func (cmd *SessionCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "session",
		Usage: "Session directory commands",
		Description: `The session directory holds the archive, answer and fix files shared by
the pipeline stages. It is taken from --session-dir, then from
~/.pakagent_session, and otherwise created in the temp directory.`,
		Commands: []*cli.Command{
			cmd.pathCmd(),
			cmd.resetCmd(),
			cmd.cleanupCmd(),
		},
	})
	return app
}

func (cmd *SessionCmd) pathCmd() *cli.Command {
	return &cli.Command{
		Name:  "path",
		Usage: "Show the session directory and its files",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON",
				Destination: &cmd.jsonOutput,
			},
		},
		Action: cmd.runPath,
	}
}

func (cmd *SessionCmd) resetCmd() *cli.Command {
	return &cli.Command{
		Name:        "reset",
		Usage:       "Delete the session directory and start a new one",
		Description: "Removes the current session files and records a fresh directory in ~/.pakagent_session.",
		Action:      cmd.runReset,
	}
}

func (cmd *SessionCmd) cleanupCmd() *cli.Command {
	return &cli.Command{
		Name:        "cleanup",
		Usage:       "Delete the session directory and the session pointer",
		Description: "Removes the current session files and ~/.pakagent_session. The next command starts a new session.",
		Action:      cmd.runCleanup,
	}
}

func (cmd *SessionCmd) runPath(ctx context.Context, c *cli.Command) error {
	paths := cmd.app.Session.Paths()

	if cmd.jsonOutput {
		return iojson.WriteWith(c.Root().Writer, os.Stderr, paths)
	}

	_, _ = fmt.Fprintln(c.Root().Writer, paths.Dir)
	return nil
}

func (cmd *SessionCmd) runReset(ctx context.Context, c *cli.Command) error {
	ctx = logging.WithStage(ctx, "session")
	p := printer.Ctx(ctx)
	old := cmd.app.Session.Paths().Dir

	if err := cmd.app.Session.Reset(); err != nil {
		p.Errorf("Reset failed: %v", err)
		return cli.Exit("", 1)
	}

	dir := cmd.app.Session.Paths().Dir
	cmd.app.Record(ctx, history.Entry{
		Stage:      "session-reset",
		Status:     history.StatusSuccess,
		SessionDir: dir,
		Detail:     "previous: " + old,
	})
	p.Successf("New session: %s", dir)
	return nil
}

func (cmd *SessionCmd) runCleanup(ctx context.Context, c *cli.Command) error {
	ctx = logging.WithStage(ctx, "session")
	p := printer.Ctx(ctx)
	dir := cmd.app.Session.Paths().Dir

	if err := cmd.app.Session.Cleanup(); err != nil {
		p.Errorf("Cleanup failed: %v", err)
		return cli.Exit("", 1)
	}

	cmd.app.Record(ctx, history.Entry{
		Stage:      "session-cleanup",
		Status:     history.StatusSuccess,
		SessionDir: dir,
	})
	p.Successf("Removed session %s", dir)
	return nil
}
