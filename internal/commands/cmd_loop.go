package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/hay-kot/pakagent/internal/core/history"
	"github.com/hay-kot/pakagent/internal/core/llm"
	"github.com/hay-kot/pakagent/internal/core/logging"
	"github.com/hay-kot/pakagent/internal/core/mailbox"
	"github.com/hay-kot/pakagent/internal/core/pak"
	"github.com/hay-kot/pakagent/internal/core/validate"
	"github.com/hay-kot/pakagent/internal/pakagent"
	"github.com/hay-kot/pakagent/internal/printer"
	"github.com/hay-kot/pakagent/pkg/iojson"
	"github.com/urfave/cli/v3"
)

type LoopCmd struct {
	flags *Flags
	app   *pakagent.App

	dir          string
	source       string
	target       string
	instructions []string
	instrFile    iojson.FileReader[[]string]
	interval     time.Duration
	maxCycles    int
}

func NewLoopCmd(flags *Flags, app *pakagent.App) *LoopCmd {
	return &LoopCmd{
		flags: flags,
		app:   app,
		instrFile: iojson.FileReader[[]string]{
			Name:  "instructions-file",
			Usage: "JSON array of instructions to rotate through (- reads stdin)",
		},
	}
}

func (cmd *LoopCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "loop",
		Usage: "Continuously generate and apply pakdiffs through a mailbox directory",
		Description: `The producer packs the source tree, asks the LLM for a pakdiff using the
next instruction in rotation, and publishes it into the mailbox directory.
The consumer validates and applies every published pakdiff, then moves it
into applied/ or failed/.

'loop run' runs both in one process. 'loop producer' and 'loop consumer'
run them separately against a shared directory.`,
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Run the producer and the consumer together",
				Flags:  cmd.commonFlags(true, true),
				Action: cmd.runBoth,
			},
			{
				Name:   "producer",
				Usage:  "Generate pakdiffs into the mailbox directory",
				Flags:  cmd.commonFlags(true, false),
				Action: cmd.runProducer,
			},
			{
				Name:   "consumer",
				Usage:  "Apply pakdiffs published in the mailbox directory",
				Flags:  cmd.commonFlags(false, true),
				Action: cmd.runConsumer,
			},
		},
	})
	return app
}

func (cmd *LoopCmd) commonFlags(producer, consumer bool) []cli.Flag {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "dir",
			Usage:       "mailbox directory (defaults to loop.dir or PAK_WORKFLOW_DIR)",
			Destination: &cmd.dir,
		},
		&cli.StringFlag{
			Name:        "source",
			Usage:       "source directory (defaults to loop.source_dir or PAK_SOURCE_DIR)",
			Destination: &cmd.source,
		},
	}
	if producer {
		flags = append(flags,
			&cli.StringSliceFlag{
				Name:        "instruction",
				Usage:       "instruction to rotate through (repeatable, defaults to loop.instructions)",
				Destination: &cmd.instructions,
			},
			cmd.instrFile.Flag(),
			&cli.DurationFlag{
				Name:        "interval",
				Usage:       "wait between cycles (defaults to loop.interval)",
				Destination: &cmd.interval,
			},
			&cli.IntFlag{
				Name:        "max-cycles",
				Usage:       "stop after this many cycles (0 runs until interrupted)",
				Destination: &cmd.maxCycles,
			},
		)
	}
	if consumer {
		flags = append(flags, &cli.StringFlag{
			Name:        "target",
			Usage:       "tree the pakdiffs are applied to (defaults to the source directory)",
			Destination: &cmd.target,
		})
	}
	return flags
}

func (cmd *LoopCmd) runBoth(ctx context.Context, c *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logging.WithStage(ctx, "loop")

	producer, err := cmd.producer(ctx)
	if err != nil {
		return err
	}
	consumer, err := cmd.consumer(ctx)
	if err != nil {
		return err
	}

	p := printer.Ctx(ctx)
	p.Infof("Mailbox: %s", cmd.dir)
	p.Infof("Source:  %s", cmd.source)
	p.Infof("Press Ctrl+C to stop")

	if err := mailbox.Run(ctx, producer, consumer); err != nil {
		return fmt.Errorf("loop: %w", err)
	}
	return nil
}

func (cmd *LoopCmd) runProducer(ctx context.Context, c *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logging.WithStage(ctx, "loop-producer")

	producer, err := cmd.producer(ctx)
	if err != nil {
		return err
	}

	printer.Ctx(ctx).Infof("Producing pakdiffs into %s", cmd.dir)
	return producer.Run(ctx)
}

func (cmd *LoopCmd) runConsumer(ctx context.Context, c *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logging.WithStage(ctx, "loop-consumer")

	consumer, err := cmd.consumer(ctx)
	if err != nil {
		return err
	}

	printer.Ctx(ctx).Infof("Watching %s", cmd.dir)
	return consumer.Run(ctx)
}

// resolveDirs fills dir and source from flags, then config, and makes them
// absolute.
func (cmd *LoopCmd) resolveDirs(needSource bool) error {
	cfg := cmd.app.Config.Loop
	if cmd.dir == "" {
		cmd.dir = cfg.Dir
	}
	if cmd.source == "" {
		cmd.source = cfg.SourceDir
	}

	if cmd.dir == "" {
		return fmt.Errorf("mailbox directory required: use --dir or set PAK_WORKFLOW_DIR")
	}
	if needSource && cmd.source == "" {
		return fmt.Errorf("source directory required: use --source or set PAK_SOURCE_DIR")
	}

	var err error
	if cmd.dir, err = filepath.Abs(cmd.dir); err != nil {
		return fmt.Errorf("resolve mailbox dir: %w", err)
	}
	if cmd.source != "" {
		if cmd.source, err = filepath.Abs(cmd.source); err != nil {
			return fmt.Errorf("resolve source dir: %w", err)
		}
	}
	return nil
}

func (cmd *LoopCmd) producer(ctx context.Context) (*mailbox.Producer, error) {
	if err := cmd.resolveDirs(true); err != nil {
		return nil, err
	}

	cfg := cmd.app.Config
	log := logging.Component("producer")

	completer, err := newCompleter(cfg.LLM, log)
	if err != nil {
		return nil, err
	}

	instructions := cmd.instructions
	if cmd.instrFile.Provided() {
		fromFile, err := cmd.instrFile.Read()
		if err != nil {
			return nil, fmt.Errorf("read instructions: %w", err)
		}
		instructions = append(instructions, fromFile...)
	}
	if len(instructions) == 0 {
		instructions = cfg.Loop.Instructions
	}
	if err := validate.Instructions("instruction", instructions); err != nil {
		return nil, err
	}
	interval := cmd.interval
	if interval <= 0 {
		interval = cfg.Loop.Interval
	}

	var exts []string
	for _, e := range strings.Split(cfg.Loop.Extensions, ",") {
		if e = strings.TrimSpace(e); e != "" {
			exts = append(exts, e)
		}
	}

	codebase := filepath.Join(cmd.dir, mailbox.CodebaseFile)
	return mailbox.NewProducer(mailbox.ProducerOptions{
		Dir:            cmd.dir,
		SourceDir:      cmd.source,
		Extensions:     exts,
		Compression:    cfg.Loop.Compression,
		Instructions:   instructions,
		Interval:       interval,
		FailureBackoff: cfg.Loop.FailureBackoff,
		MaxCycles:      cmd.maxCycles,
		MaxTokens:      cfg.LLM.MaxTokens,
		Temperature:    cfg.LLM.Temperature,
	}, cmd.app.Pak(cmd.dir, cmd.source, codebase), completer, llm.NewPrompts(cfg.Prompts, cfg.Vars), log), nil
}

func (cmd *LoopCmd) consumer(ctx context.Context) (*mailbox.Consumer, error) {
	if err := cmd.resolveDirs(false); err != nil {
		return nil, err
	}

	target := cmd.target
	if target == "" {
		target = cmd.source
	}
	if target == "" {
		target = cmd.app.WorkDir
	}

	c := mailbox.NewConsumer(mailbox.ConsumerOptions{
		Dir:          cmd.dir,
		TargetDir:    target,
		PollInterval: cmd.app.Config.Loop.PollInterval,
	}, loopApplier{app: cmd.app}, logging.Component("consumer"))

	p := printer.Ctx(ctx)
	c.OnOutcome = func(ctx context.Context, o mailbox.Outcome) {
		status := history.StatusSuccess
		if o.Applied {
			p.Successf("Applied %s", o.File)
		} else {
			status = history.StatusFailed
			p.Errorf("Failed %s: %s", o.File, o.Detail)
		}
		cmd.app.Record(ctx, history.Entry{
			Stage:      "loop-apply",
			Status:     status,
			SessionDir: cmd.dir,
			Detail:     o.File + ": " + o.Detail,
			StartedAt:  time.Now().Add(-o.Duration),
			Duration:   o.Duration,
		})
	}
	return c, nil
}

// loopApplier trusts the mailbox file and target directory it is handed,
// both of which the consumer resolved itself.
type loopApplier struct {
	app *pakagent.App
}

func (a loopApplier) ApplyDiff(ctx context.Context, fix, dir string) pak.Result {
	return a.app.Pak(fix, dir).ApplyDiff(ctx, fix, dir)
}
