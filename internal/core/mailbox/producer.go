package mailbox

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hay-kot/pakagent/internal/core/llm"
	"github.com/hay-kot/pakagent/internal/core/logging"
	"github.com/hay-kot/pakagent/internal/core/pak"
	"github.com/hay-kot/pakagent/internal/core/pakdiff"
	"github.com/hay-kot/pakagent/pkg/textutil"
	"github.com/rs/zerolog"
)

var (
	ErrPackFailed = errors.New("packaging failed")
	ErrNoPakdiff  = errors.New("no pakdiff found in response")
)

// ProducerOptions configure the LLM loop.
type ProducerOptions struct {
	Dir         string
	SourceDir   string
	Extensions  []string
	Compression string
	// Instructions are used in rotation, one per cycle.
	Instructions []string
	// Interval is the wait between cycles and after an LLM failure.
	Interval time.Duration
	// FailureBackoff is the wait after a packaging failure.
	FailureBackoff time.Duration
	// MaxCycles stops the loop after that many cycles. Zero runs forever.
	MaxCycles   int
	MaxTokens   int
	Temperature float64
}

// Producer packs the source tree, asks the LLM for a pakdiff and publishes it
// into the mailbox directory.
type Producer struct {
	opts      ProducerOptions
	packer    Packer
	completer llm.Completer
	prompts   *llm.Prompts
	log       zerolog.Logger

	now   func() time.Time
	newID func() string
}

// NewProducer creates a producer.
func NewProducer(opts ProducerOptions, packer Packer, completer llm.Completer, prompts *llm.Prompts, log zerolog.Logger) *Producer {
	return &Producer{
		opts:      opts,
		packer:    packer,
		completer: completer,
		prompts:   prompts,
		log:       log,
		now:       time.Now,
		newID: func() string {
			return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
		},
	}
}

// Instruction returns the task for cycle n (1-based).
func (p *Producer) Instruction(n int) string {
	if len(p.opts.Instructions) == 0 {
		return ""
	}
	return p.opts.Instructions[(n-1)%len(p.opts.Instructions)]
}

// Run loops until ctx is done or MaxCycles is reached. Cycle failures are
// logged and followed by a back-off; they never stop the loop.
func (p *Producer) Run(ctx context.Context) error {
	if err := os.MkdirAll(p.opts.Dir, 0o755); err != nil {
		return fmt.Errorf("create mailbox dir: %w", err)
	}

	p.log.Info().Str("dir", p.opts.Dir).Str("source", p.opts.SourceDir).Msg("producer started")

	for n := 1; p.opts.MaxCycles == 0 || n <= p.opts.MaxCycles; n++ {
		cctx := logging.WithCycle(ctx, n)
		wait := p.opts.Interval

		path, err := p.Cycle(cctx, n)
		switch {
		case err == nil:
			p.log.Info().Ctx(cctx).Str("file", filepath.Base(path)).Msg("pakdiff published")
		case ctx.Err() != nil:
			return nil
		case errors.Is(err, ErrPackFailed):
			p.log.Warn().Ctx(cctx).Err(err).Dur("backoff", p.opts.FailureBackoff).Msg("cycle failed")
			wait = p.opts.FailureBackoff
		default:
			p.log.Warn().Ctx(cctx).Err(err).Msg("cycle produced no pakdiff")
		}

		if p.opts.MaxCycles != 0 && n == p.opts.MaxCycles {
			break
		}

		p.log.Debug().Ctx(cctx).Dur("wait", wait).Msg("cycle complete")
		if err := sleep(ctx, wait); err != nil {
			return nil
		}
	}
	return nil
}

// Cycle runs one pack/ask/publish round and returns the published file.
func (p *Producer) Cycle(ctx context.Context, n int) (string, error) {
	codebase := filepath.Join(p.opts.Dir, CodebaseFile)

	res := p.packer.Pack(ctx, pak.PackOptions{
		Paths:       []string{p.opts.SourceDir},
		Extensions:  p.opts.Extensions,
		Compression: p.opts.Compression,
		Output:      codebase,
	})
	if !res.OK() {
		return "", fmt.Errorf("%w: %s", ErrPackFailed, res.Message())
	}

	content, err := os.ReadFile(codebase)
	if err != nil {
		return "", fmt.Errorf("%w: read archive: %w", ErrPackFailed, err)
	}

	instruction := p.Instruction(n)
	p.log.Info().Ctx(ctx).Str("task", instruction).Msg("requesting pakdiff")

	prompt, err := p.prompts.Render(llm.PromptLoop, instruction, string(content))
	if err != nil {
		return "", err
	}

	reply, err := p.completer.Complete(ctx, llm.Request{
		Prompt:      prompt,
		MaxTokens:   p.opts.MaxTokens,
		Temperature: p.opts.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("ask llm: %w", err)
	}

	body, ok := pakdiff.Extract(reply)
	if !ok {
		preview, _ := textutil.Truncate(reply, 200)
		p.log.Debug().Ctx(ctx).Str("response", preview).Msg("response without pakdiff")
		return "", ErrNoPakdiff
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# Generated pakdiff for: %s\n", instruction)
	fmt.Fprintf(&sb, "# Cycle: %d, Time: %s\n\n", n, p.now().Format("2006-01-02 15:04:05"))
	sb.WriteString(body)
	sb.WriteString("\n")

	name := fmt.Sprintf("change_%s_%03d%s", p.newID(), n, DiffExt)
	return publish(p.opts.Dir, name, []byte(sb.String()))
}
