package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/urfave/cli/v3"
)

// PatternCompleter returns a ShellCompleteFunc that suggests "*.ext"
// patterns for the file extensions present under dir.
//
// When the user's last typed argument starts with "-", it falls back to the
// default flag completion behavior.
func PatternCompleter(dir string) cli.ShellCompleteFunc {
	return func(ctx context.Context, cmd *cli.Command) {
		if args := cmd.Args(); args.Present() {
			last := args.Slice()[args.Len()-1]
			if len(last) > 0 && last[0] == '-' {
				cli.DefaultCompleteWithFlags(ctx, cmd)
				return
			}
		}

		w := cmd.Root().Writer
		for _, p := range extensionPatterns(dir) {
			_, _ = fmt.Fprintln(w, p)
		}
	}
}

func extensionPatterns(dir string) []string {
	files, err := doublestar.Glob(os.DirFS(dir), "**/*.*", doublestar.WithFilesOnly())
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)
	var out []string
	for _, f := range files {
		if hidden(f) {
			continue
		}
		ext := filepath.Ext(f)
		if ext == "" || seen[ext] {
			continue
		}
		seen[ext] = true
		out = append(out, "*"+ext)
	}
	slices.Sort(out)
	return out
}

// hidden reports whether any path element starts with a dot.
func hidden(path string) bool {
	for dir := path; dir != "." && dir != "/" && dir != ""; dir = filepath.Dir(dir) {
		if base := filepath.Base(dir); len(base) > 1 && base[0] == '.' {
			return true
		}
	}
	return false
}
