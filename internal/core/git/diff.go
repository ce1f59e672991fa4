package git

import (
	"context"
	"fmt"
	"strings"
)

// DiffOptions narrows GetDiff. The zero value diffs the working tree
// (staged and unstaged) against HEAD.
type DiffOptions struct {
	// Base is the ref the working tree is compared with.
	Base string
	// Paths limits the diff to these files or directories.
	Paths []string
}

func (o DiffOptions) args() ([]string, error) {
	base := o.Base
	if base == "" {
		base = "HEAD"
	}
	if strings.HasPrefix(base, "-") {
		return nil, fmt.Errorf("invalid diff base %q", base)
	}

	args := []string{"diff", "--no-color", "--no-ext-diff", base}
	if len(o.Paths) > 0 {
		args = append(args, "--")
		args = append(args, o.Paths...)
	}
	return args, nil
}

// GetDiff returns the unified diff described by opts.
func (e *Executor) GetDiff(ctx context.Context, dir string, opts DiffOptions) (string, error) {
	args, err := opts.args()
	if err != nil {
		return "", err
	}

	out, err := e.run(ctx, dir, args...)
	if err != nil {
		return "", fmt.Errorf("git diff: %w", err)
	}
	return string(out), nil
}
