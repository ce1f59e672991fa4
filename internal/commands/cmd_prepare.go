package commands

import (
	"bufio"
	"context"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/dustin/go-humanize"
	"github.com/hay-kot/pakagent/internal/core/history"
	"github.com/hay-kot/pakagent/internal/core/logging"
	"github.com/hay-kot/pakagent/internal/core/pak"
	"github.com/hay-kot/pakagent/internal/pakagent"
	"github.com/hay-kot/pakagent/internal/printer"
	"github.com/urfave/cli/v3"
)

const previewFileLimit = 10

type PrepareCmd struct {
	flags *Flags
	app   *pakagent.App

	compression string
}

func NewPrepareCmd(flags *Flags, app *pakagent.App) *PrepareCmd {
	return &PrepareCmd{flags: flags, app: app}
}

func (cmd *PrepareCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "prepare",
		Usage:     "Bundle source files into the session archive",
		UsageText: "pakagent prepare [options] [patterns...]",
		Description: `Packages files matching the given patterns with pak. Patterns of the form
*.ext select files by extension; anything else is passed to pak as a path.
Defaults to the patterns in the config file (*.py *.md).`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "compression",
				Aliases:     []string{"c"},
				Usage:       "pak compression level (defaults to prepare.compression)",
				Destination: &cmd.compression,
			},
		},
		ShellComplete: PatternCompleter("."),
		Action:        cmd.run,
	})
	return app
}

func (cmd *PrepareCmd) run(ctx context.Context, c *cli.Command) error {
	ctx = logging.WithStage(ctx, "prepare")
	p := printer.Ctx(ctx)
	cfg := cmd.app.Config
	paths := cmd.app.Session.Paths()
	start := time.Now()

	patterns := c.Args().Slice()
	if len(patterns) == 0 {
		patterns = cfg.Prepare.Patterns
	}
	compression := cmd.compression
	if compression == "" {
		compression = cfg.Prepare.Compression
	}

	pakPaths, exts, err := pak.PatternArgs(patterns)
	if err != nil {
		p.Errorf("Invalid file pattern: %v", err)
		return cli.Exit("", 1)
	}

	p.Infof("Collecting files matching: %s", strings.Join(patterns, ", "))
	cmd.suggestGitWorkflow(ctx, p)
	cmd.previewMatches(p, patterns)

	res := cmd.app.Pak().Pack(ctx, pak.PackOptions{
		Paths:       pakPaths,
		Extensions:  exts,
		Compression: compression,
		Output:      paths.Archive,
	})
	if !res.OK() {
		p.Errorf("Failed to create archive: %s", res.Message())
		cmd.record(ctx, start, history.StatusFailed, res.Message())
		return cli.Exit("", 1)
	}

	info, err := os.Stat(paths.Archive)
	if err != nil {
		p.Errorf("Archive file was not created")
		cmd.record(ctx, start, history.StatusFailed, "archive missing after pack")
		return cli.Exit("", 1)
	}

	p.Successf("Archive created: %s (%s bytes)", paths.Archive, humanize.Comma(info.Size()))
	cmd.printPreview(p, paths.Archive, cfg.Prepare.PreviewLines)
	cmd.record(ctx, start, history.StatusSuccess, humanize.Bytes(uint64(info.Size())))

	p.Printf("")
	p.Infof("Ready for next step: pakagent modify \"your modification request\"")
	p.Infof("Session directory: %s", paths.Dir)
	return nil
}

// previewMatches lists the files the patterns select in the working tree.
// pak walks directories recursively, so extension patterns match at any depth.
func (cmd *PrepareCmd) previewMatches(p *printer.Printer, patterns []string) {
	fsys := os.DirFS(cmd.app.WorkDir)

	seen := make(map[string]bool)
	var matches []string
	for _, pattern := range patterns {
		glob := pattern
		if strings.HasPrefix(pattern, "*.") {
			glob = "**/" + pattern
		} else if info, err := fs.Stat(fsys, pattern); err == nil && info.IsDir() {
			glob = strings.TrimSuffix(pattern, "/") + "/**"
		}

		found, err := doublestar.Glob(fsys, glob, doublestar.WithFilesOnly())
		if err != nil {
			continue
		}
		for _, f := range found {
			if !seen[f] {
				seen[f] = true
				matches = append(matches, f)
			}
		}
	}

	if len(matches) == 0 {
		p.Warnf("No files in %s match the given patterns", cmd.app.WorkDir)
		return
	}

	p.Infof("Matched %d file(s)", len(matches))
	for i, f := range matches {
		if i == previewFileLimit {
			p.Printf("    ... and %d more", len(matches)-previewFileLimit)
			break
		}
		p.Printf("    %s", f)
	}
}

func (cmd *PrepareCmd) printPreview(p *printer.Printer, path string, limit int) {
	if limit <= 0 {
		return
	}
	f, err := os.Open(path)
	if err != nil {
		p.Warnf("Could not preview archive: %v", err)
		return
	}
	defer func() { _ = f.Close() }()

	p.Printf("")
	p.Printf("Archive preview (first %d lines):", limit)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	n := 0
	for n < limit && scanner.Scan() {
		n++
		p.Printf("%2d: %s", n, strings.TrimRight(scanner.Text(), " \t\r"))
	}
	if n == limit && scanner.Scan() {
		p.Printf("    ...")
	}
}

func (cmd *PrepareCmd) suggestGitWorkflow(ctx context.Context, p *printer.Printer) {
	gc := cmd.app.GitContext
	if !gc.IsRepo {
		p.Infof("Consider initializing git: git init")
		return
	}

	status, err := cmd.app.Git.Status(ctx, cmd.app.WorkDir)
	if err == nil && !status.Clean {
		p.Warnf("Working tree has uncommitted changes; consider committing first")
	}
}

func (cmd *PrepareCmd) record(ctx context.Context, start time.Time, status history.Status, detail string) {
	cmd.app.Record(ctx, history.Entry{
		Stage:     "prepare",
		Status:    status,
		Detail:    detail,
		StartedAt: start,
	})
}
