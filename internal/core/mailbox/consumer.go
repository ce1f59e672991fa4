package mailbox

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/hay-kot/pakagent/internal/core/pakdiff"
	"github.com/rs/zerolog"
)

// ConsumerOptions configure the apply loop.
type ConsumerOptions struct {
	Dir string
	// TargetDir is the tree the pakdiffs are applied to.
	TargetDir string
	// PollInterval rescans the directory in case a watch event was missed.
	PollInterval time.Duration
}

// Outcome describes one processed mailbox file.
type Outcome struct {
	File     string
	Applied  bool
	Detail   string
	Warnings []string
	Duration time.Duration
}

// Consumer validates and applies published pakdiffs, then moves each file
// into applied/ or failed/.
type Consumer struct {
	opts    ConsumerOptions
	applier Applier
	log     zerolog.Logger

	// OnOutcome, when set, is called after every processed file.
	OnOutcome func(ctx context.Context, o Outcome)
}

// NewConsumer creates a consumer.
func NewConsumer(opts ConsumerOptions, applier Applier, log zerolog.Logger) *Consumer {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 2 * time.Second
	}
	return &Consumer{opts: opts, applier: applier, log: log}
}

// Run processes pending files, then reacts to watch events and the poll
// ticker until ctx is done.
func (c *Consumer) Run(ctx context.Context) error {
	for _, d := range []string{c.opts.Dir, filepath.Join(c.opts.Dir, AppliedDir), filepath.Join(c.opts.Dir, FailedDir)} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return fmt.Errorf("create mailbox dir: %w", err)
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(c.opts.Dir); err != nil {
		return fmt.Errorf("watch %s: %w", c.opts.Dir, err)
	}

	c.log.Info().Str("dir", c.opts.Dir).Str("target", c.opts.TargetDir).Msg("consumer started")

	ticker := time.NewTicker(c.opts.PollInterval)
	defer ticker.Stop()

	if _, err := c.Drain(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) && !event.Has(fsnotify.Write) {
				continue
			}
			if !IsPending(event.Name) {
				continue
			}
			if _, err := c.Drain(ctx); err != nil {
				return err
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			c.log.Warn().Err(err).Msg("watcher error")
		case <-ticker.C:
			if _, err := c.Drain(ctx); err != nil {
				return err
			}
		}
	}
}

// Pending lists published pakdiffs, oldest first.
func (c *Consumer) Pending() ([]string, error) {
	entries, err := os.ReadDir(c.opts.Dir)
	if err != nil {
		return nil, fmt.Errorf("read mailbox: %w", err)
	}

	type item struct {
		path string
		mod  time.Time
	}
	var items []item
	for _, e := range entries {
		if e.IsDir() || !IsPending(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		items = append(items, item{path: filepath.Join(c.opts.Dir, e.Name()), mod: info.ModTime()})
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].mod.Equal(items[j].mod) {
			return items[i].path < items[j].path
		}
		return items[i].mod.Before(items[j].mod)
	})

	paths := make([]string, len(items))
	for i, it := range items {
		paths[i] = it.path
	}
	return paths, nil
}

// Drain processes every pending file and returns how many were handled.
func (c *Consumer) Drain(ctx context.Context) (int, error) {
	paths, err := c.Pending()
	if err != nil {
		return 0, err
	}

	for i, p := range paths {
		if ctx.Err() != nil {
			return i, nil
		}
		o := c.Process(ctx, p)
		if c.OnOutcome != nil {
			c.OnOutcome(ctx, o)
		}
	}
	return len(paths), nil
}

// Process validates and applies one file and moves it out of the inbox.
func (c *Consumer) Process(ctx context.Context, path string) (o Outcome) {
	start := time.Now()
	o = Outcome{File: filepath.Base(path)}

	defer func() {
		o.Duration = time.Since(start)
		c.archive(path, o)
	}()

	data, err := os.ReadFile(path)
	if err != nil {
		o.Detail = fmt.Sprintf("read: %v", err)
		return o
	}

	warnings, err := pakdiff.Validate(string(data))
	o.Warnings = warnings
	for _, w := range warnings {
		c.log.Warn().Str("file", o.File).Msg(w)
	}
	if err != nil {
		o.Detail = fmt.Sprintf("invalid pakdiff: %v", err)
		c.log.Error().Str("file", o.File).Err(err).Msg("rejected pakdiff")
		return o
	}

	res := c.applier.ApplyDiff(ctx, path, c.opts.TargetDir)
	if !res.OK() {
		o.Detail = res.Message()
		c.log.Error().Str("file", o.File).Str("detail", o.Detail).Msg("apply failed")
		return o
	}

	o.Applied = true
	o.Detail = strings.TrimSpace(res.Output)
	c.log.Info().Str("file", o.File).Msg("pakdiff applied")
	return o
}

// archive moves a processed file into applied/ or failed/. Failed files get
// a .err companion holding the reason.
func (c *Consumer) archive(path string, o Outcome) {
	sub := AppliedDir
	if !o.Applied {
		sub = FailedDir
	}
	dest := filepath.Join(c.opts.Dir, sub, o.File)

	if err := os.Rename(path, dest); err != nil {
		c.log.Error().Err(err).Str("file", o.File).Msg("move processed file")
		// Drop it so it is not retried forever.
		_ = os.Remove(path)
		return
	}
	if !o.Applied {
		_ = os.WriteFile(dest+".err", []byte(o.Detail+"\n"), 0o644)
	}
}
