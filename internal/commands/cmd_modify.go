package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/dustin/go-humanize"
	"github.com/hay-kot/pakagent/internal/core/config"
	"github.com/hay-kot/pakagent/internal/core/history"
	"github.com/hay-kot/pakagent/internal/core/llm"
	"github.com/hay-kot/pakagent/internal/core/logging"
	"github.com/hay-kot/pakagent/internal/core/pakdiff"
	"github.com/hay-kot/pakagent/internal/core/session"
	"github.com/hay-kot/pakagent/internal/pakagent"
	"github.com/hay-kot/pakagent/internal/printer"
	"github.com/hay-kot/pakagent/internal/tui/viewer"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"
)

// newCompleter builds the LLM client. Tests replace it.
var newCompleter = func(cfg config.LLMConfig, log zerolog.Logger) (llm.Completer, error) {
	return llm.NewClient(cfg, log)
}

type ModifyCmd struct {
	flags *Flags
	app   *pakagent.App

	forcePakdiff  bool
	forceQuestion bool
}

func NewModifyCmd(flags *Flags, app *pakagent.App) *ModifyCmd {
	return &ModifyCmd{flags: flags, app: app}
}

func (cmd *ModifyCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "modify",
		Usage:     "Ask the LLM to change the archived code or answer a question about it",
		UsageText: "pakagent modify [options] [instruction...]",
		Description: `Sends the session archive and the instruction to the LLM. Code change
requests store the analysis in the answer file and the pakdiff in the fix
file. Questions store the reply in the answer file and leave the fix empty.

Without an instruction an interactive prompt is shown.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "pakdiff",
				Usage:       "treat the instruction as a code change request",
				Destination: &cmd.forcePakdiff,
			},
			&cli.BoolFlag{
				Name:        "question",
				Usage:       "treat the instruction as a question",
				Destination: &cmd.forceQuestion,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *ModifyCmd) run(ctx context.Context, c *cli.Command) error {
	ctx = logging.WithStage(ctx, "modify")
	p := printer.Ctx(ctx)
	cfg := cmd.app.Config
	paths := cmd.app.Session.Paths()
	log := logging.Component("modify")
	start := time.Now()

	if cmd.forcePakdiff && cmd.forceQuestion {
		return fmt.Errorf("--pakdiff and --question are mutually exclusive")
	}

	if err := session.RequireFiles(paths.Archive); err != nil {
		p.Errorf("Archive file %s not found", paths.Archive)
		p.Printf("Run 'pakagent prepare' first to create the archive.")
		return cli.Exit("", 1)
	}

	instruction := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if instruction == "" {
		if !viewer.Interactive(os.Stdin) {
			p.Errorf("No modification request given")
			p.Printf("Usage: pakagent modify \"add logging to all methods\"")
			return cli.Exit("", 1)
		}
		var err error
		instruction, err = instructionFunc()
		if err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return nil
			}
			return fmt.Errorf("form: %w", err)
		}
	}

	data, err := os.ReadFile(paths.Archive)
	if err != nil {
		p.Errorf("Error reading archive: %v", err)
		return cli.Exit("", 1)
	}
	codebase := string(data)
	p.Infof("Loaded archive: %s characters", humanize.Comma(int64(len(codebase))))

	completer, err := newCompleter(cfg.LLM, log)
	if err != nil {
		p.Errorf("%v", err)
		p.Printf("Set it in a .env file or the environment.")
		return cli.Exit("", 1)
	}

	prompts := llm.NewPrompts(cfg.Prompts, cfg.Vars)
	question := cmd.classify(ctx, completer, prompts, instruction, log)

	kind := llm.PromptModify
	if question {
		kind = llm.PromptQuestion
		p.Infof("Question: %s", instruction)
	} else {
		p.Infof("Task: %s", instruction)
	}

	prompt, err := prompts.Render(kind, instruction, codebase)
	if err != nil {
		return fmt.Errorf("render prompt: %w", err)
	}

	p.Infof("Sending request to LLM (%s)...", cfg.LLM.Model)
	reply, err := completer.Complete(ctx, llm.Request{
		Prompt:      prompt,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
	})
	if err != nil {
		p.Errorf("Failed to get response from LLM: %v", err)
		cmd.record(ctx, start, history.StatusFailed, err.Error(), nil)
		return cli.Exit("", 1)
	}

	resp := pakdiff.SplitResponse(reply, question)
	if !question {
		if resp.Found {
			p.Successf("Extracted pakdiff from response")
		} else {
			p.Warnf("No pakdiff block found in response; saving the full implementation section")
		}
	}

	if err := os.WriteFile(paths.Answer, []byte(resp.Answer), 0o644); err != nil {
		p.Errorf("Error saving answer: %v", err)
		return cli.Exit("", 1)
	}
	p.Successf("Saved answer to %s", paths.Answer)

	if err := os.WriteFile(paths.Fix, []byte(resp.Pakdiff), 0o644); err != nil {
		p.Errorf("Error saving pakdiff: %v", err)
		return cli.Exit("", 1)
	}
	if !question {
		p.Successf("Saved pakdiff to %s", paths.Fix)
	}

	files := pakdiff.Parse(resp.Pakdiff).Files()
	detail := instruction
	if question {
		detail = "question: " + instruction
	}
	cmd.record(ctx, start, history.StatusSuccess, detail, files)

	p.Printf("")
	if question {
		p.Infof("Next: pakagent show-answer")
	} else {
		p.Infof("Next steps:")
		p.Printf("  pakagent show-answer  # Review the changes")
		p.Printf("  pakagent apply        # Apply the changes")
	}
	return nil
}

func (cmd *ModifyCmd) classify(ctx context.Context, completer llm.Completer, prompts *llm.Prompts, instruction string, log zerolog.Logger) bool {
	switch {
	case cmd.forcePakdiff:
		return false
	case cmd.forceQuestion:
		return true
	}

	var classifier llm.Classifier = llm.KeywordClassifier{}
	if cmd.app.Config.LLM.RemoteClassifier {
		classifier = llm.NewRemoteClassifier(completer, prompts, cmd.app.Config.LLM.ClassifierTimeout, log)
	}
	return classifier.IsQuestion(ctx, instruction)
}

func (cmd *ModifyCmd) record(ctx context.Context, start time.Time, status history.Status, detail string, files []string) {
	cmd.app.Record(ctx, history.Entry{
		Stage:     "modify",
		Status:    status,
		Detail:    detail,
		Files:     files,
		StartedAt: start,
	})
}
