// Package llm talks to an OpenAI-compatible chat-completion endpoint and
// classifies user requests.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hay-kot/pakagent/internal/core/config"
	"github.com/hay-kot/pakagent/pkg/redact"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
)

var (
	ErrNoAPIKey      = errors.New(config.EnvAPIKey + " not found in environment")
	ErrEmptyResponse = errors.New("model returned no choices")
)

// Completer sends a single prompt and returns the first choice's text.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Request is one chat completion call.
type Request struct {
	Prompt      string
	MaxTokens   int
	Temperature float64
	// Timeout bounds each attempt. Zero uses the client default.
	Timeout time.Duration
}

// Client is a Completer backed by openai-go.
type Client struct {
	api        openai.Client
	model      string
	maxTokens  int
	temp       float64
	timeout    time.Duration
	maxRetries uint64
	retryBase  time.Duration
	log        zerolog.Logger
}

// NewClient builds a client from cfg. It fails when no API key is configured.
func NewClient(cfg config.LLMConfig, log zerolog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}

	api := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
		option.WithMaxRetries(0),
	)

	retries := cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}
	base := cfg.RetryBase
	if base <= 0 {
		base = time.Second
	}

	return &Client{
		api:        api,
		model:      cfg.Model,
		maxTokens:  cfg.MaxTokens,
		temp:       cfg.Temperature,
		timeout:    cfg.Timeout,
		maxRetries: uint64(retries),
		retryBase:  base,
		log:        log,
	}, nil
}

// Request returns a Request using the client's configured limits.
func (c *Client) Request(prompt string) Request {
	return Request{Prompt: prompt, MaxTokens: c.maxTokens, Temperature: c.temp, Timeout: c.timeout}
}

// Complete sends req, retrying transient failures with exponential backoff.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}

	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{OfString: openai.String(req.Prompt)},
				},
			},
		},
		MaxTokens:   openai.Int(int64(req.MaxTokens)),
		Temperature: openai.Float(req.Temperature),
	}

	var (
		content string
		attempt int
	)
	backoff := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(c.retryBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		attemptCtx := ctx
		if timeout > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		c.log.Debug().Str("model", c.model).Int("attempt", attempt).Int("prompt_chars", len(req.Prompt)).Msg("sending completion")

		resp, err := c.api.Chat.Completions.New(attemptCtx, params)
		if err != nil {
			if ctx.Err() == nil && IsTransient(err) {
				c.log.Warn().Int("attempt", attempt).Str("err", redact.String(err.Error())).Msg("transient llm error, retrying")
				return retry.RetryableError(err)
			}
			return err
		}
		if resp == nil || len(resp.Choices) == 0 {
			return ErrEmptyResponse
		}
		content = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("llm request: %s: %w", redact.String(errorSummary(err)), err)
	}
	return content, nil
}

// transientStatus are HTTP statuses worth retrying.
var transientStatus = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// IsTransient reports whether err is a retryable status or a connection
// failure.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return transientStatus[apiErr.StatusCode]
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	// Anything else failed before a response arrived: DNS, refused
	// connections, resets and per-attempt deadlines.
	return true
}

// StatusCode returns the HTTP status of an API error, or 0.
func StatusCode(err error) int {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

func errorSummary(err error) string {
	if code := StatusCode(err); code != 0 {
		return fmt.Sprintf("api error %d", code)
	}
	msg := err.Error()
	if i := strings.IndexByte(msg, '\n'); i > 0 {
		msg = msg[:i]
	}
	return msg
}
