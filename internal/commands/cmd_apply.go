package commands

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/hay-kot/pakagent/internal/core/git"
	"github.com/hay-kot/pakagent/internal/core/history"
	"github.com/hay-kot/pakagent/internal/core/logging"
	"github.com/hay-kot/pakagent/internal/core/pak"
	"github.com/hay-kot/pakagent/internal/core/pakdiff"
	"github.com/hay-kot/pakagent/internal/core/session"
	"github.com/hay-kot/pakagent/internal/core/styles"
	"github.com/hay-kot/pakagent/internal/pakagent"
	"github.com/hay-kot/pakagent/internal/printer"
	"github.com/hay-kot/pakagent/pkg/executil"
	"github.com/hay-kot/pakagent/pkg/textutil"
	"github.com/hay-kot/pakagent/pkg/tmpl"
	"github.com/urfave/cli/v3"
)

const (
	previewAnswerChars = 500
	previewMethodLimit = 5
)

// runHook executes a post-apply hook. Tests replace it.
var runHook = executil.RunSh

type ApplyCmd struct {
	flags *Flags
	app   *pakagent.App

	force         bool
	branch        string
	commitMessage string
}

func NewApplyCmd(flags *Flags, app *pakagent.App) *ApplyCmd {
	return &ApplyCmd{flags: flags, app: app}
}

func (cmd *ApplyCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "apply",
		Usage:     "Validate and apply the session pakdiff to the working tree",
		UsageText: "pakagent apply [options]",
		Description: `Shows a preview of the pending changes, validates the pakdiff, verifies it
with pak and applies it to the current directory.

With --git-branch the changes are applied on that branch (created when
missing), staged and committed, and the original branch is restored.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "force",
				Aliases:     []string{"f"},
				Usage:       "skip confirmation and apply despite validation failures",
				Destination: &cmd.force,
			},
			&cli.StringFlag{
				Name:        "git-branch",
				Usage:       "apply and commit on this branch",
				Destination: &cmd.branch,
			},
			&cli.StringFlag{
				Name:        "commit-message",
				Aliases:     []string{"m"},
				Usage:       "commit message used with --git-branch (defaults to apply.commit_message)",
				Destination: &cmd.commitMessage,
			},
		},
		Action: cmd.run,
	})
	return app
}

// hookData is exposed to post-apply hook templates.
type hookData struct {
	Dir        string
	SessionDir string
	Fix        string
	Branch     string
	Files      []string
}

func (cmd *ApplyCmd) run(ctx context.Context, c *cli.Command) error {
	ctx = logging.WithStage(ctx, "apply")
	p := printer.Ctx(ctx)
	paths := cmd.app.Session.Paths()
	start := time.Now()

	if err := session.RequireFiles(paths.Answer, paths.Fix); err != nil {
		p.Errorf("%v", err)
		p.Printf("Run 'pakagent modify \"your request\"' first to generate these files.")
		return cli.Exit("", 1)
	}

	answer, err := os.ReadFile(paths.Answer)
	if err != nil {
		return fmt.Errorf("read answer: %w", err)
	}
	fix, err := os.ReadFile(paths.Fix)
	if err != nil {
		return fmt.Errorf("read fix: %w", err)
	}

	doc := pakdiff.Parse(string(fix))
	cmd.preview(p, string(answer), doc)

	warnings, verr := pakdiff.Validate(string(fix))
	for _, w := range warnings {
		p.Warnf("%s", w)
	}
	if verr != nil {
		if !cmd.force {
			p.Errorf("Pakdiff validation failed: %v", verr)
			cmd.record(ctx, start, history.StatusFailed, verr.Error(), "", doc)
			return cli.Exit("", 1)
		}
		p.Warnf("Continuing despite validation failure (--force used): %v", verr)
	}

	ok, err := confirm(cmd.force, "Apply these changes?", paths.Fix+" will be applied to "+cmd.app.WorkDir)
	if err != nil {
		return fmt.Errorf("confirm: %w", err)
	}
	if !ok {
		p.Infof("Application cancelled")
		cmd.record(ctx, start, history.StatusCancelled, "declined", "", doc)
		return nil
	}

	bridge := cmd.app.Pak()

	p.Infof("Verifying pakdiff format...")
	if res := bridge.VerifyDiff(ctx, paths.Fix); res.OK() {
		p.Successf("Pakdiff format is valid")
	} else if res.Err.Kind == pak.KindNotFound {
		p.Warnf("pak verify is not available, skipping verification")
	} else if !cmd.force {
		p.Errorf("Pakdiff verification failed: %s", res.Message())
		p.Printf("Use --force to skip verification.")
		cmd.record(ctx, start, history.StatusFailed, res.Message(), "", doc)
		return cli.Exit("", 1)
	} else {
		p.Warnf("Continuing despite verification failure (--force used)")
	}

	var scope *git.BranchScope
	applyFailed := false
	if cmd.branch != "" {
		scope, err = git.AcquireBranch(ctx, cmd.app.Git, cmd.app.GitContext, cmd.app.WorkDir, cmd.branch, git.ScopeOptions{
			ConfirmDelete: func(branch string) bool {
				if !applyFailed {
					return false
				}
				ok, _ := confirm(false, "Delete branch "+branch+"?", "The branch was created for a failed apply")
				return ok
			},
			Log: logging.Component("git"),
		})
		if err != nil {
			p.Errorf("Could not switch to branch %s: %v", cmd.branch, err)
			cmd.record(ctx, start, history.StatusFailed, err.Error(), cmd.branch, doc)
			return cli.Exit("", 1)
		}
		p.Infof("Working on branch %s", scope.Branch())
		defer cmd.release(ctx, p, scope)
	}

	p.Infof("Applying pakdiff to codebase...")
	res := bridge.ApplyDiff(ctx, paths.Fix, ".")
	if !res.OK() {
		applyFailed = true
		p.Errorf("Pakdiff application failed: %s", res.Message())
		cmd.record(ctx, start, history.StatusFailed, res.Message(), cmd.branch, doc)
		return cli.Exit("", 1)
	}
	if out := strings.TrimSpace(res.Output); out != "" {
		p.Block(out)
	}
	p.Successf("Changes have been applied to your codebase")

	cmd.summarizeChanges(ctx, p)
	cmd.runHooks(ctx, p, hookData{
		Dir:        cmd.app.WorkDir,
		SessionDir: paths.Dir,
		Fix:        paths.Fix,
		Branch:     cmd.branch,
		Files:      doc.Files(),
	})

	if scope != nil {
		if err := cmd.commit(ctx); err != nil {
			p.Errorf("Commit failed: %v", err)
			cmd.record(ctx, start, history.StatusFailed, "commit: "+err.Error(), cmd.branch, doc)
			return cli.Exit("", 1)
		}
		p.Successf("Committed changes on %s", scope.Branch())
	}

	cmd.record(ctx, start, history.StatusSuccess, fmt.Sprintf("%d file(s)", len(doc.Files())), cmd.branch, doc)

	if scope == nil {
		p.Printf("")
		p.Infof("Don't forget to:")
		p.Printf("   - Review the changes with 'git diff'")
		p.Printf("   - Test your code")
		p.Printf("   - Commit the changes if satisfied")
	}
	return nil
}

func (cmd *ApplyCmd) preview(p *printer.Printer, answer string, doc *pakdiff.Document) {
	p.Printf("")
	p.Header("CHANGES PREVIEW")
	p.Printf("")
	p.Printf("ANALYSIS:")
	if head, cut := textutil.Truncate(answer, previewAnswerChars); cut {
		p.Printf("%s...", head)
	} else {
		p.Printf("%s", answer)
	}

	p.Printf("")
	p.Printf("PAKDIFF SUMMARY:")
	files := slices.Sorted(slices.Values(doc.Files()))
	p.Printf("Files to modify: %d", len(files))
	for _, f := range files {
		p.Printf("  - %s", f)
	}

	methods := doc.Methods()
	if len(methods) > 0 {
		p.Printf("Methods to modify: %d", len(methods))
		for i, m := range methods {
			if i == previewMethodLimit {
				p.Printf("  ... and %d more", len(methods)-previewMethodLimit)
				break
			}
			p.Printf("  - %s", m)
		}
	}
	p.Printf("")
}

// summarizeChanges prints per-file line counts of the working tree diff.
func (cmd *ApplyCmd) summarizeChanges(ctx context.Context, p *printer.Printer) {
	if !cmd.app.GitContext.IsRepo {
		return
	}

	diff, err := cmd.app.Git.GetDiff(ctx, cmd.app.WorkDir, git.DiffOptions{})
	if err != nil {
		log := logging.Component("apply")
		log.Debug().Err(err).Msg("diff for summary")
		return
	}
	changes, err := git.Summarize(diff)
	if err != nil || len(changes) == 0 {
		return
	}

	p.Printf("")
	for _, ch := range changes {
		p.Printf("  %s %s %s",
			styles.GitAdditionsStyle.Render(fmt.Sprintf("+%d", ch.Additions)),
			styles.GitDeletionsStyle.Render(fmt.Sprintf("-%d", ch.Deletions)),
			ch.Path,
		)
	}
	add, del := git.Totals(changes)
	p.Printf("  %d file(s) changed, %d insertion(s), %d deletion(s)", len(changes), add, del)
}

func (cmd *ApplyCmd) runHooks(ctx context.Context, p *printer.Printer, data hookData) {
	for _, hook := range cmd.app.Config.Apply.PostHooks {
		rendered, err := tmpl.Render(hook, data)
		if err != nil {
			p.Warnf("Hook template error: %v", err)
			continue
		}
		p.Infof("Running hook: %s", rendered)
		if err := runHook(ctx, cmd.app.WorkDir, rendered); err != nil {
			p.Warnf("Hook failed: %v", err)
		}
	}
}

func (cmd *ApplyCmd) commit(ctx context.Context) error {
	msg := cmd.commitMessage
	if msg == "" {
		msg = cmd.app.Config.Apply.CommitMessage
	}
	if err := cmd.app.Git.AddAll(ctx, cmd.app.WorkDir); err != nil {
		return err
	}
	return cmd.app.Git.Commit(ctx, cmd.app.WorkDir, msg)
}

func (cmd *ApplyCmd) release(ctx context.Context, p *printer.Printer, scope *git.BranchScope) {
	report := scope.Release(ctx)
	switch {
	case report.RestoreErr != nil:
		p.Warnf("Could not return to branch %s: %v", cmd.app.GitContext.OriginalBranch, report.RestoreErr)
	case report.Restored && cmd.app.GitContext.OriginalBranch != "":
		p.Infof("Returned to branch %s", cmd.app.GitContext.OriginalBranch)
	}
	if report.DeletedBranch {
		p.Infof("Deleted branch %s", scope.Branch())
	}
	if report.DeleteErr != nil {
		p.Warnf("Could not delete branch %s: %v", scope.Branch(), report.DeleteErr)
	}
}

func (cmd *ApplyCmd) record(ctx context.Context, start time.Time, status history.Status, detail, branch string, doc *pakdiff.Document) {
	cmd.app.Record(ctx, history.Entry{
		Stage:     "apply",
		Status:    status,
		Detail:    detail,
		Branch:    branch,
		Files:     doc.Files(),
		StartedAt: start,
	})
}
