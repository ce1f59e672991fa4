package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/atotto/clipboard"
	"github.com/hay-kot/pakagent/internal/core/archive"
	"github.com/hay-kot/pakagent/internal/core/logging"
	"github.com/hay-kot/pakagent/internal/core/pakdiff"
	"github.com/hay-kot/pakagent/internal/core/session"
	"github.com/hay-kot/pakagent/internal/pakagent"
	"github.com/hay-kot/pakagent/internal/printer"
	"github.com/hay-kot/pakagent/internal/tui/viewer"
	"github.com/urfave/cli/v3"
)

const markdownWidth = 80

// Swapped in tests.
var (
	runViewer      = viewer.Run
	writeClipboard = clipboard.WriteAll
)

type ViewCmd struct {
	flags *Flags
	app   *pakagent.App

	archive bool
	plain   bool
	full    bool
	copy    bool
}

func NewViewCmd(flags *Flags, app *pakagent.App) *ViewCmd {
	return &ViewCmd{flags: flags, app: app}
}

func (cmd *ViewCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "view",
		Usage:     "Browse the session answer and pakdiff, or the archive",
		UsageText: "pakagent view [options]",
		Description: `Opens a three-pane viewer. By default it shows the answer, one entry per
pakdiff change and the replacement code of the selected change. With
--archive it shows the archive metadata, file list and file content.

Falls back to plain text when stdout is not a terminal.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "archive",
				Usage:       "show the session archive instead of the answer",
				Destination: &cmd.archive,
			},
			&cli.BoolFlag{
				Name:        "plain",
				Usage:       "print plain text instead of opening the viewer",
				Destination: &cmd.plain,
			},
			&cli.BoolFlag{
				Name:        "full",
				Usage:       "do not truncate plain output",
				Destination: &cmd.full,
			},
			&cli.BoolFlag{
				Name:        "copy",
				Usage:       "copy the pakdiff to the clipboard and exit",
				Destination: &cmd.copy,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *ViewCmd) run(ctx context.Context, c *cli.Command) error {
	ctx = logging.WithStage(ctx, "view")
	p := printer.Ctx(ctx)
	paths := cmd.app.Session.Paths()

	if cmd.copy {
		fix, err := os.ReadFile(paths.Fix)
		if err != nil {
			p.Errorf("No pakdiff to copy: %s not found", paths.Fix)
			return cli.Exit("", 1)
		}
		if err := writeClipboard(string(fix)); err != nil {
			p.Errorf("Copy failed: %v", err)
			return cli.Exit("", 1)
		}
		p.Successf("Copied pakdiff to clipboard")
		return nil
	}

	var content viewer.Content
	if cmd.archive {
		a, err := archive.Load(paths.Archive)
		if err != nil {
			p.Errorf("Archive file %s not found", paths.Archive)
			p.Printf("Run 'pakagent prepare' first to create the archive.")
			return cli.Exit("", 1)
		}
		content = viewer.ArchiveContent(a)
	} else {
		var err error
		content, err = answerContent(paths, !cmd.plain)
		if err != nil {
			p.Errorf("%v", err)
			p.Printf("Run 'pakagent modify' first.")
			return cli.Exit("", 1)
		}
	}

	return show(ctx, c, content, cmd.plain, cmd.full)
}

// answerContent loads the answer and pakdiff. A missing fix file is treated
// as an empty pakdiff.
func answerContent(paths session.Paths, markdown bool) (viewer.Content, error) {
	if err := session.RequireFiles(paths.Answer); err != nil {
		return viewer.Content{}, err
	}
	answer, err := os.ReadFile(paths.Answer)
	if err != nil {
		return viewer.Content{}, fmt.Errorf("read answer: %w", err)
	}
	fix, _ := os.ReadFile(paths.Fix)

	var render func(string) string
	if markdown {
		render = viewer.MarkdownRenderer(markdownWidth)
	}
	return viewer.AnswerContent(string(answer), pakdiff.Parse(string(fix)), render), nil
}

func show(ctx context.Context, c *cli.Command, content viewer.Content, plain, full bool) error {
	if plain || !viewer.Interactive(os.Stdout) {
		viewer.Plain(c.Root().Writer, content, viewer.PlainOptions{Full: full})
		return nil
	}
	return runViewer(ctx, content)
}
