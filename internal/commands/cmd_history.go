package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hay-kot/pakagent/internal/core/history"
	"github.com/hay-kot/pakagent/internal/pakagent"
	"github.com/hay-kot/pakagent/internal/printer"
	"github.com/hay-kot/pakagent/pkg/iojson"
	"github.com/hay-kot/pakagent/pkg/textutil"
	"github.com/urfave/cli/v3"
)

const historyDetailWidth = 60

type HistoryCmd struct {
	flags *Flags
	app   *pakagent.App

	// flags
	limit      int
	jsonOutput bool
	force      bool
}

// NewHistoryCmd creates a new history command
func NewHistoryCmd(flags *Flags, app *pakagent.App) *HistoryCmd {
	return &HistoryCmd{flags: flags, app: app}
}

// Register adds the history command to the application
func (cmd *HistoryCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "history",
		Usage:     "List recorded pipeline operations",
		UsageText: "pakagent history [--limit N] [--json]",
		Description: `Displays the most recent prepare, modify, apply, revert and loop operations
with their outcome, newest first.`,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:        "limit",
				Aliases:     []string{"n"},
				Usage:       "number of entries to show (0 for all)",
				Value:       20,
				Destination: &cmd.limit,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON",
				Destination: &cmd.jsonOutput,
			},
		},
		Action: cmd.run,
		Commands: []*cli.Command{
			{
				Name:  "clear",
				Usage: "Delete all recorded operations",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:        "force",
						Aliases:     []string{"f"},
						Usage:       "skip the confirmation prompt",
						Destination: &cmd.force,
					},
				},
				Action: cmd.runClear,
			},
		},
	})

	return app
}

func (cmd *HistoryCmd) run(ctx context.Context, c *cli.Command) error {
	if cmd.app.History == nil {
		return fmt.Errorf("history is unavailable")
	}

	entries, err := cmd.app.History.List(ctx, cmd.limit)
	if err != nil {
		return fmt.Errorf("list history: %w", err)
	}

	out := c.Root().Writer

	if cmd.jsonOutput {
		if entries == nil {
			entries = []history.Entry{}
		}
		return iojson.WriteWith(out, os.Stderr, entries)
	}

	if len(entries) == 0 {
		fmt.Fprintf(os.Stderr, "No operations recorded\n")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "WHEN\tSTAGE\tSTATUS\tDURATION\tDETAIL")

	for _, e := range entries {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			humanize.Time(e.StartedAt),
			e.Stage,
			e.Status,
			e.Duration.Round(time.Millisecond),
			entryDetail(e),
		)
	}

	return w.Flush()
}

func (cmd *HistoryCmd) runClear(ctx context.Context, c *cli.Command) error {
	p := printer.Ctx(ctx)
	if cmd.app.History == nil {
		return fmt.Errorf("history is unavailable")
	}

	ok, err := confirm(cmd.force, "Delete all recorded operations?", "")
	if err != nil {
		return fmt.Errorf("confirm: %w", err)
	}
	if !ok {
		p.Infof("Nothing deleted")
		return nil
	}

	if err := cmd.app.History.Clear(ctx); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	p.Successf("History cleared")
	return nil
}

func entryDetail(e history.Entry) string {
	detail := strings.ReplaceAll(e.Detail, "\n", " ")
	if e.Branch != "" {
		detail = "[" + e.Branch + "] " + detail
	}
	if _, cut := textutil.Truncate(detail, historyDetailWidth); cut {
		head, _ := textutil.Truncate(detail, historyDetailWidth-3)
		detail = head + "..."
	}
	return detail
}
