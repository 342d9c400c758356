// Package llm turns a streaming provider into a simple prompt-in, text-out
// completer and extracts structured payloads from model replies.
package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/julianshen/repodoc/internal/log"
	"github.com/julianshen/repodoc/internal/provider"
	"github.com/julianshen/repodoc/internal/store"
)

// EmptyResponse is returned in place of a reply that is empty once
// reasoning sections are removed.
const EmptyResponse = "Prázdna odpoveď od AI"

// ErrNoOutputBudget is returned when a prompt leaves no room for a reply.
var ErrNoOutputBudget = errors.New("prompt leaves no output token budget")

// Options are the per-call generation settings. MaxTokens must be positive;
// providers treat a missing cap as unbounded.
type Options struct {
	MaxTokens   int
	Temperature float64
}

// Completer sends a single prompt and returns the model's reply.
type Completer interface {
	Complete(ctx context.Context, prompt string, opts Options) (string, error)
}

// Cache stores completions across runs. *store.Store satisfies it.
type Cache interface {
	GetCachedResponse(key string) (*store.CachedResponse, error)
	CacheResponse(key, model, response string) error
}

// Client is the default Completer: it rate-limits calls, consults the
// cache and collects the streamed reply of the underlying provider.
type Client struct {
	provider provider.LLMProvider
	model    string
	limiter  *rate.Limiter
	cache    Cache
	timeout  time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithRateLimit allows at most perMinute calls per minute with the given burst.
// A non-positive perMinute disables limiting.
func WithRateLimit(perMinute, burst int) ClientOption {
	return func(c *Client) {
		if perMinute <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), max(1, burst))
	}
}

// WithCache enables response caching.
func WithCache(cache Cache) ClientOption {
	return func(c *Client) { c.cache = cache }
}

// WithTimeout bounds each call.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.timeout = d }
}

// NewClient creates a Client for model on top of p.
func NewClient(p provider.LLMProvider, model string, opts ...ClientOption) *Client {
	c := &Client{
		provider: p,
		model:    model,
		limiter:  rate.NewLimiter(rate.Inf, 0),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model returns the model name requests are sent to.
func (c *Client) Model() string { return c.model }

// Complete sends prompt as a single user message and returns the reply
// with <think> sections removed.
func (c *Client) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	logger := log.WithComponent("llm")
	if opts.MaxTokens <= 0 {
		return "", ErrNoOutputBudget
	}
	key := c.cacheKey(prompt, opts)

	if c.cache != nil {
		hit, err := c.cache.GetCachedResponse(key)
		if err != nil {
			logger.Warn().Err(err).Msg("reading response cache")
		} else if hit != nil {
			logger.Debug().Str("key", key[:12]).Msg("cache hit")
			return hit.Response, nil
		}
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("llm rate limit: %w", err)
	}

	start := time.Now()
	raw, usage, err := c.stream(ctx, prompt, opts)
	if err != nil {
		return "", err
	}
	logger.Info().
		Str("model", c.model).
		Int("max_tokens", opts.MaxTokens).
		Int("input_tokens", usage.InputTokens).
		Int("output_tokens", usage.OutputTokens).
		Dur("elapsed", time.Since(start)).
		Msg("completion")

	reply := StripThinking(raw)
	if reply == "" {
		return EmptyResponse, nil
	}

	if c.cache != nil {
		if err := c.cache.CacheResponse(key, c.model, reply); err != nil {
			logger.Warn().Err(err).Msg("writing response cache")
		}
	}
	return reply, nil
}

func (c *Client) stream(ctx context.Context, prompt string, opts Options) (string, provider.StreamEvent, error) {
	req := provider.CompletionRequest{
		Model:       c.model,
		Messages:    []provider.Message{provider.NewUserMessage(prompt)},
		MaxTokens:   opts.MaxTokens,
		Temperature: provider.Temperature(opts.Temperature),
	}

	ch, err := c.provider.Stream(ctx, req)
	if err != nil {
		return "", provider.StreamEvent{}, fmt.Errorf("llm complete: %w", err)
	}

	var sb strings.Builder
	var usage provider.StreamEvent
	var streamErr error
	for evt := range ch {
		switch evt.Type {
		case provider.EventTextDelta:
			sb.WriteString(evt.Text)
		case provider.EventUsage:
			usage = evt
		case provider.EventError:
			// Keep draining so the producer goroutine can finish.
			if streamErr == nil {
				streamErr = evt.Error
			}
		}
	}
	if streamErr != nil {
		return "", usage, fmt.Errorf("llm stream error: %w", streamErr)
	}
	// Providers may close the stream without an error event once ctx is
	// done, so the collected text can be truncated.
	if err := ctx.Err(); err != nil {
		return "", usage, fmt.Errorf("llm stream interrupted: %w", err)
	}
	return sb.String(), usage, nil
}

func (c *Client) cacheKey(prompt string, opts Options) string {
	h := sha256.New()
	h.Write([]byte(c.model))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(opts.MaxTokens)))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatFloat(opts.Temperature, 'g', -1, 64)))
	h.Write([]byte{0})
	h.Write([]byte(prompt))
	return hex.EncodeToString(h.Sum(nil))
}

var thinkRe = regexp.MustCompile(`(?s)<think>.*?</think>`)

// StripThinking removes every <think>...</think> section and trims the rest.
func StripThinking(text string) string {
	return strings.TrimSpace(thinkRe.ReplaceAllString(text, ""))
}
