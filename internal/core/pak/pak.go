// Package pak invokes the external pak archiver and reports outcomes as
// tagged results instead of raised errors.
package pak

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hay-kot/pakagent/internal/core/sanitize"
	"github.com/hay-kot/pakagent/pkg/executil"
	"github.com/hay-kot/pakagent/pkg/redact"
	"github.com/rs/zerolog"
)

// Kind classifies a failed run.
type Kind int

const (
	KindNotFound Kind = iota + 1
	KindNonZeroExit
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindNonZeroExit:
		return "non_zero_exit"
	case KindTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// RunError describes why a run failed.
type RunError struct {
	Kind   Kind
	Detail string
}

func (e *RunError) Error() string { return e.Detail }

// Result is the outcome of one pak invocation: Output on success, Err set on
// failure.
type Result struct {
	Output string
	Err    *RunError
}

// OK reports whether the run succeeded.
func (r Result) OK() bool { return r.Err == nil }

// Message returns the output on success and the error detail otherwise.
func (r Result) Message() string {
	if r.Err != nil {
		return r.Err.Detail
	}
	return r.Output
}

// Timeouts bound each kind of pak call.
type Timeouts struct {
	Pack    time.Duration
	Apply   time.Duration
	Verify  time.Duration
	Extract time.Duration
}

// DefaultTimeouts are used for zero fields.
var DefaultTimeouts = Timeouts{
	Pack:    300 * time.Second,
	Apply:   300 * time.Second,
	Verify:  60 * time.Second,
	Extract: 60 * time.Second,
}

// Bridge runs pak through an executor.
type Bridge struct {
	path     string
	exec     executil.Executor
	timeouts Timeouts
	trusted  []string
	log      zerolog.Logger
}

// NewBridge creates a bridge calling the pak binary at path. Trusted paths
// (session files resolved by the program) bypass argument sanitization.
func NewBridge(path string, exec executil.Executor, timeouts Timeouts, log zerolog.Logger, trusted ...string) *Bridge {
	if timeouts.Pack == 0 {
		timeouts.Pack = DefaultTimeouts.Pack
	}
	if timeouts.Apply == 0 {
		timeouts.Apply = DefaultTimeouts.Apply
	}
	if timeouts.Verify == 0 {
		timeouts.Verify = DefaultTimeouts.Verify
	}
	if timeouts.Extract == 0 {
		timeouts.Extract = DefaultTimeouts.Extract
	}
	return &Bridge{path: path, exec: exec, timeouts: timeouts, trusted: trusted, log: log}
}

// Run sanitizes args and runs pak with the given timeout. It never returns
// an error; failures are reported through Result.Err.
func (b *Bridge) Run(ctx context.Context, timeout time.Duration, args ...string) Result {
	clean, err := sanitize.Args(args, b.trusted...)
	if err != nil {
		b.log.Error().Err(err).Msg("rejected pak arguments")
		return Result{Err: &RunError{Kind: KindNonZeroExit, Detail: "invalid argument: " + err.Error()}}
	}

	echo := redact.String(b.path + " " + strings.Join(clean, " "))
	b.log.Info().Str("cmd", echo).Dur("timeout", timeout).Msg("running pak")

	rctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, err := b.exec.Run(rctx, b.path, clean...)
	if err == nil {
		return Result{Output: string(out)}
	}

	var res Result
	switch executil.Classify(rctx, err) {
	case executil.KindNotFound:
		res.Err = &RunError{Kind: KindNotFound, Detail: fmt.Sprintf("pak command not found (%s); make sure pak is installed and in PATH", b.path)}
	case executil.KindTimeout:
		res.Err = &RunError{Kind: KindTimeout, Detail: fmt.Sprintf("pak command timed out after %s", timeout)}
	default:
		res.Err = &RunError{Kind: KindNonZeroExit, Detail: redact.String(err.Error())}
	}

	b.log.Error().Str("cmd", echo).Str("kind", res.Err.Kind.String()).Str("detail", res.Err.Detail).Msg("pak failed")
	return res
}

// PackOptions select the files bundled into an archive.
type PackOptions struct {
	Paths       []string
	Extensions  []string
	Compression string
	Output      string
}

// Args builds the pak argument list for opts.
func (o PackOptions) Args() []string {
	args := append([]string{}, o.Paths...)
	if len(args) == 0 {
		args = append(args, ".")
	}
	if len(o.Extensions) > 0 {
		args = append(args, "-t", strings.Join(o.Extensions, ","))
	}
	if o.Compression != "" {
		args = append(args, "-c", o.Compression)
	}
	return append(args, "-o", o.Output)
}

// Pack bundles source files into an archive.
func (b *Bridge) Pack(ctx context.Context, opts PackOptions) Result {
	return b.Run(ctx, b.timeouts.Pack, opts.Args()...)
}

// ApplyDiff applies a pakdiff file to dir.
func (b *Bridge) ApplyDiff(ctx context.Context, fix, dir string) Result {
	return b.Run(ctx, b.timeouts.Apply, "-ad", fix, dir)
}

// VerifyDiff checks a pakdiff file without applying it.
func (b *Bridge) VerifyDiff(ctx context.Context, fix string) Result {
	return b.Run(ctx, b.timeouts.Verify, "-vd", fix)
}

// Extract restores the files stored in an archive.
func (b *Bridge) Extract(ctx context.Context, archive string) Result {
	return b.Run(ctx, b.timeouts.Extract, "-x", archive)
}

// PatternArgs splits prepare patterns into pak paths and extensions. Each
// `*.ext` pattern contributes ext to the -t list; anything else is a path.
// With no paths, the current directory is packed.
func PatternArgs(patterns []string) (paths, extensions []string, err error) {
	for _, p := range patterns {
		clean, err := sanitize.FilePattern(p)
		if err != nil {
			return nil, nil, err
		}
		if ext, ok := strings.CutPrefix(clean, "*."); ok && !strings.ContainsAny(ext, "*/") {
			extensions = append(extensions, ext)
			continue
		}
		paths = append(paths, clean)
	}
	if len(paths) == 0 {
		paths = []string{"."}
	}
	return paths, extensions, nil
}
