package commands

import (
	"context"

	"github.com/hay-kot/pakagent/internal/core/logging"
	"github.com/hay-kot/pakagent/internal/pakagent"
	"github.com/hay-kot/pakagent/internal/printer"
	"github.com/urfave/cli/v3"
)

type ShowAnswerCmd struct {
	flags *Flags
	app   *pakagent.App

	plain bool
	full  bool
}

func NewShowAnswerCmd(flags *Flags, app *pakagent.App) *ShowAnswerCmd {
	return &ShowAnswerCmd{flags: flags, app: app}
}

func (cmd *ShowAnswerCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:        "show-answer",
		Usage:       "Review the LLM answer and the pending pakdiff changes",
		UsageText:   "pakagent show-answer [options]",
		Description: "Shows the Answer, Pakdiff Summary and Method Detail panes for the current session.",
		Flags: []cli.Flag{
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
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *ShowAnswerCmd) run(ctx context.Context, c *cli.Command) error {
	ctx = logging.WithStage(ctx, "show-answer")
	p := printer.Ctx(ctx)

	content, err := answerContent(cmd.app.Session.Paths(), !cmd.plain)
	if err != nil {
		p.Errorf("%v", err)
		p.Printf("Run 'pakagent modify' first.")
		return cli.Exit("", 1)
	}

	return show(ctx, c, content, cmd.plain, cmd.full)
}
