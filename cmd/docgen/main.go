// Command docgen generates CLI reference documentation from the pakagent
// command definitions. Output is written to docs/cli-reference.md.
package main

import (
	"fmt"
	"os"

	docs "github.com/urfave/cli-docs/v3"
	"github.com/urfave/cli/v3"

	"github.com/hay-kot/pakagent/internal/commands"
	"github.com/hay-kot/pakagent/internal/pakagent"
)

func main() {
	flags := &commands.Flags{}
	app := &pakagent.App{}

	root := &cli.Command{
		Name:      "pakagent",
		Usage:     "Request code changes in natural language and apply them as pakdiffs",
		UsageText: "pakagent [global options] command [command options]",
		Description: `pakagent chains the pak archiver, an LLM and git into a small pipeline.

Run 'pakagent prepare' to bundle files, 'pakagent modify' to request a change
and 'pakagent apply' to write it back. 'pakagent loop run' automates the same
cycle through a mailbox directory.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "log level (debug, info, warn, error, fatal, panic)",
				Sources: cli.EnvVars("PAKAGENT_LOG_LEVEL"),
				Value:   "warn",
			},
			&cli.StringFlag{
				Name:    "log-file",
				Usage:   "path to log file (defaults to stderr)",
				Sources: cli.EnvVars("PAKAGENT_LOG_FILE"),
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to config file",
				Sources: cli.EnvVars("PAKAGENT_CONFIG"),
				Value:   "~/.config/pakagent/config.yaml",
			},
			&cli.StringFlag{
				Name:    "data-dir",
				Usage:   "path to data directory",
				Sources: cli.EnvVars("PAKAGENT_DATA_DIR"),
				Value:   "~/.local/share/pakagent",
			},
			&cli.StringFlag{
				Name:    "session-dir",
				Usage:   "pin the session directory instead of using ~/.pakagent_session",
				Sources: cli.EnvVars("PAKAGENT_SESSION_DIR"),
			},
		},
	}

	root = commands.RegisterAll(root, flags, app)

	md, err := docs.ToMarkdown(root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error generating docs: %v\n", err)
		os.Exit(1)
	}

	outPath := "docs/cli-reference.md"
	if len(os.Args) > 1 {
		outPath = os.Args[1]
	}

	if err := os.WriteFile(outPath, []byte(md), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "error writing %s: %v\n", outPath, err)
		os.Exit(1)
	}

	fmt.Printf("Generated %s\n", outPath)
}
