// Package mailbox implements the producer/consumer workflow that hands
// pakdiff files from an LLM loop to an apply loop through a shared directory.
//
// Files are published atomically: the producer writes <name>.tmp and renames
// it into place, and the consumer ignores anything that does not end in
// .diff.
package mailbox

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hay-kot/pakagent/internal/core/pak"
	"golang.org/x/sync/errgroup"
)

const (
	// CodebaseFile is the archive the producer packs each cycle.
	CodebaseFile = "current_codebase.pak"
	// DiffExt marks a published pakdiff.
	DiffExt = ".diff"
	// AppliedDir and FailedDir receive processed files.
	AppliedDir = "applied"
	FailedDir  = "failed"

	tmpExt = ".tmp"
)

// Packer bundles source files into an archive.
type Packer interface {
	Pack(ctx context.Context, opts pak.PackOptions) pak.Result
}

// Applier applies a pakdiff file to a directory.
type Applier interface {
	ApplyDiff(ctx context.Context, fix, dir string) pak.Result
}

// IsPending reports whether name is a published pakdiff waiting to be
// consumed.
func IsPending(name string) bool {
	base := filepath.Base(name)
	return strings.HasSuffix(base, DiffExt) && !strings.HasPrefix(base, ".")
}

// publish writes data to dir/name through a temporary file and a rename.
func publish(dir, name string, data []byte) (string, error) {
	final := filepath.Join(dir, name)
	tmp := final + tmpExt

	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, final); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("publish %s: %w", name, err)
	}
	return final, nil
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Run runs the producer and consumer together. When the producer stops on
// its own (max cycles reached), the consumer drains what is left and Run
// returns. Cancelling ctx stops both.
func Run(ctx context.Context, p *Producer, c *Consumer) error {
	g, gctx := errgroup.WithContext(ctx)
	cctx, stopConsumer := context.WithCancel(gctx)
	defer stopConsumer()

	g.Go(func() error {
		defer stopConsumer()
		return p.Run(gctx)
	})
	g.Go(func() error {
		return c.Run(cctx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	if ctx.Err() != nil {
		return nil
	}

	_, err := c.Drain(ctx)
	return err
}
