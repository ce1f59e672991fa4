package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime/debug"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/hay-kot/pakagent/internal/commands"
	"github.com/hay-kot/pakagent/internal/core/config"
	"github.com/hay-kot/pakagent/internal/core/git"
	"github.com/hay-kot/pakagent/internal/core/history"
	"github.com/hay-kot/pakagent/internal/core/logging"
	"github.com/hay-kot/pakagent/internal/core/session"
	"github.com/hay-kot/pakagent/internal/core/styles"
	"github.com/hay-kot/pakagent/internal/data/db"
	"github.com/hay-kot/pakagent/internal/data/stores"
	"github.com/hay-kot/pakagent/internal/pakagent"
	"github.com/hay-kot/pakagent/internal/printer"
	"github.com/hay-kot/pakagent/pkg/executil"
	"github.com/hay-kot/pakagent/pkg/logutils"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	// When installed via `go install module@version`, init() populates
	// these from runtime/debug.BuildInfo instead.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	v, c, d := version, commit, date

	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	short := c
	if len(c) > 7 {
		short = c[:7]
	}

	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

func main() {
	ctx := context.Background()

	var (
		logCloser func()
		app       = &pakagent.App{}
		database  *db.DB
	)

	flags := &commands.Flags{}

	root := &cli.Command{
		Name:      "pakagent",
		Usage:     "Request code changes in natural language and apply them as pakdiffs",
		UsageText: "pakagent [global options] command [command options]",
		Description: `pakagent chains the pak archiver, an LLM and git into a small pipeline:

  pakagent prepare '*.py'           bundle source files into the session archive
  pakagent modify "add logging"     ask the LLM for a pakdiff (or an answer)
  pakagent show-answer              review the answer and the pending changes
  pakagent apply                    validate and apply the pakdiff
  pakagent revert                   restore the files from the archive

Each stage reads and writes files in the session directory
(see 'pakagent session path').`,
		Version:               build(),
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("PAKAGENT_LOG_LEVEL"),
				Value:       "warn",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to stderr)",
				Sources:     cli.EnvVars("PAKAGENT_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("PAKAGENT_CONFIG"),
				Value:       commands.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory",
				Sources:     cli.EnvVars("PAKAGENT_DATA_DIR"),
				Value:       commands.DefaultDataDir(),
				Destination: &flags.DataDir,
			},
			&cli.StringFlag{
				Name:        "session-dir",
				Usage:       "pin the session directory instead of using ~/.pakagent_session",
				Sources:     cli.EnvVars("PAKAGENT_SESSION_DIR"),
				Destination: &flags.SessionDir,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			// A missing .env is normal
			if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return ctx, fmt.Errorf("load .env: %w", err)
			}

			logger, closer, err := logutils.New(flags.LogLevel, flags.LogFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			logging.Install(logger)
			logCloser = closer

			cfg, err := config.Load(flags.ConfigPath, flags.DataDir)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			flags.Config = cfg

			// Apply configured theme, falling back to the default for unknown names
			palette, ok := styles.GetPalette(cfg.Theme)
			if !ok {
				log.Warn().Str("theme", cfg.Theme).Msg("unknown theme")
				palette, _ = styles.GetPalette(styles.DefaultTheme)
			}
			styles.SetTheme(palette)

			sess := session.Resolve(session.Options{
				Dir:         flags.SessionDir,
				PointerFile: session.DefaultPointerFile(),
			}, logging.Component("session"))

			// History is auxiliary; the pipeline runs without it
			var hist history.Store
			database, err = stores.OpenWithRecovery(cfg.DataDir, db.DefaultOpenOptions())
			if err != nil {
				log.Warn().Err(err).Str("data_dir", cfg.DataDir).Msg("history database unavailable")
			} else {
				hist = stores.NewHistoryStore(database)
			}

			workDir, err := os.Getwd()
			if err != nil {
				return ctx, fmt.Errorf("get working directory: %w", err)
			}

			var (
				exec    = &executil.RealExecutor{}
				gitExec = git.NewExecutor(cfg.GitPath, exec, cfg.Timeouts.Git)
			)

			// Populate the pre-allocated App struct (commands already hold a pointer to it)
			*app = *pakagent.NewApp(
				cfg,
				sess,
				gitExec,
				git.NewContext(ctx, gitExec, workDir),
				exec,
				hist,
				workDir,
				logging.Component("pakagent"),
			)

			ctx = printer.NewContext(ctx, printer.New(os.Stdout, os.Stderr))
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if database != nil {
				if err := database.Close(); err != nil {
					log.Error().Err(err).Msg("failed to close database")
					return err
				}
			}

			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	root = commands.RegisterAll(root, flags, app)

	exitCode := 0
	runErr := root.Run(ctx, os.Args)
	if runErr != nil {
		fmt.Println()
		fmt.Println(runErr.Error())
		exitCode = 1
	}

	os.Exit(exitCode)
}
