package llm

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"academic-backend/internal/shared/metrics"
)

const breakerThreshold = 3

// CompletionClient turns a template invocation into validated completion text.
// Every call flows through the shared Limiter, honors the per-request timeout,
// and retries transient failures with jittered exponential backoff.
type CompletionClient struct {
	Provider Provider
	Renderer Renderer
	Limiter  *Limiter

	MaxRetries  int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
	Timeout     time.Duration

	// sleep and jitter are injectable for tests.
	sleep  func(ctx context.Context, d time.Duration) error
	jitter func(d time.Duration) time.Duration
}

// NewCompletionClient wires a client with defaults for any zero-valued knob.
func NewCompletionClient(provider Provider, renderer Renderer, limiter *Limiter, maxRetries int, baseBackoff, maxBackoff, timeout time.Duration) *CompletionClient {
	c := &CompletionClient{
		Provider:    provider,
		Renderer:    renderer,
		Limiter:     limiter,
		MaxRetries:  maxRetries,
		BaseBackoff: baseBackoff,
		MaxBackoff:  maxBackoff,
		Timeout:     timeout,
		sleep:       sleepContext,
		jitter:      defaultJitter,
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.BaseBackoff <= 0 {
		c.BaseBackoff = 300 * time.Millisecond
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 10 * time.Second
	}
	if c.Timeout <= 0 {
		c.Timeout = 120 * time.Second
	}
	return c
}

// attemptState is the explicit lifecycle of a single Complete call.
type attemptState int

const (
	stateIdle attemptState = iota
	stateWaiting
	stateAttempting
	stateDone
)

// Complete renders templateID with sourceText and vars, then drives the
// attempt loop. Rendering failures surface as configuration errors without
// consuming a rate-limit slot.
func (c *CompletionClient) Complete(ctx context.Context, templateID, sourceText string, vars map[string]string) (string, error) {
	if c.Provider == nil {
		return "", &Error{Kind: KindConfiguration, Op: "complete", Message: "no provider configured"}
	}
	if c.Renderer == nil {
		return "", &Error{Kind: KindConfiguration, Op: "complete", Message: "no renderer configured"}
	}

	merged := make(map[string]string, len(vars)+1)
	for k, v := range vars {
		merged[k] = v
	}
	merged["SourceText"] = sourceText

	prompt, err := c.Renderer.Render(templateID, merged)
	if err != nil {
		var lerr *Error
		if errors.As(err, &lerr) {
			return "", err
		}
		return "", &Error{Kind: KindConfiguration, Op: "render " + templateID, Err: err}
	}

	if pause := c.breakerPause(); pause > 0 {
		if err := c.sleep(ctx, pause); err != nil {
			return "", &Error{Kind: KindTimeout, Op: "breaker wait", Err: err}
		}
	}

	var (
		state   = stateIdle
		attempt int
		lastErr error
		text    string
	)
	for state != stateDone {
		switch state {
		case stateIdle:
			state = stateWaiting
		case stateWaiting:
			if err := c.Limiter.Acquire(ctx); err != nil {
				return "", &Error{Kind: KindTimeout, Op: "rate limit wait", Err: err}
			}
			state = stateAttempting
		case stateAttempting:
			metrics.IncCompletionRequest()
			text, lastErr = c.attempt(ctx, prompt)
			if lastErr == nil {
				c.Limiter.RecordSuccess()
				return text, nil
			}
			kind := KindOf(lastErr)
			if !retryable(kind) || attempt >= c.MaxRetries {
				c.Limiter.RecordFailure()
				state = stateDone
				continue
			}
			metrics.IncCompletionRetry()
			backoff := c.backoffFor(attempt, kind)
			attempt++
			if err := c.sleep(ctx, backoff); err != nil {
				c.Limiter.RecordFailure()
				return "", &Error{Kind: KindTimeout, Op: "retry wait", Err: err}
			}
			state = stateWaiting
		}
	}
	return "", lastErr
}

// attempt runs one provider call under the per-request timeout. A deadline
// hit is reported as a timeout kind even when the provider wraps it
// differently.
func (c *CompletionClient) attempt(ctx context.Context, prompt string) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	text, err := c.Provider.Complete(attemptCtx, prompt)
	if err != nil {
		if attemptCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			return "", &Error{Kind: KindTimeout, Op: "provider call", Err: err}
		}
		return "", err
	}
	return text, nil
}

// backoffFor computes the jittered exponential delay before the next attempt.
// Rate-limit rejections start from a full window fraction rather than the
// base backoff so repeated 429s back off harder.
func (c *CompletionClient) backoffFor(attempt int, kind Kind) time.Duration {
	base := c.BaseBackoff
	if kind == KindRateLimited {
		base = 2 * c.BaseBackoff
	}
	d := base << uint(attempt)
	if d > c.MaxBackoff || d <= 0 {
		d = c.MaxBackoff
	}
	return c.jitter(d)
}

// breakerPause returns the pre-call pause once consecutive terminal failures
// cross the threshold. The pause grows with the failure count and caps at
// MaxBackoff.
func (c *CompletionClient) breakerPause() time.Duration {
	failures := c.Limiter.ConsecutiveFailures()
	if failures < breakerThreshold {
		return 0
	}
	pause := 2 * c.BaseBackoff * time.Duration(failures)
	if pause > c.MaxBackoff {
		pause = c.MaxBackoff
	}
	return pause
}

// defaultJitter spreads a delay uniformly across [d/2, d).
func defaultJitter(d time.Duration) time.Duration {
	if d <= 1 {
		return d
	}
	half := d / 2
	return half + time.Duration(rand.Int63n(int64(half)))
}
