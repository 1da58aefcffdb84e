package llm

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubProvider struct {
	calls   int
	results []func() (string, error)
}

func (s *stubProvider) Complete(ctx context.Context, prompt string) (string, error) {
	idx := s.calls
	s.calls++
	if idx >= len(s.results) {
		idx = len(s.results) - 1
	}
	return s.results[idx]()
}

type stubRenderer struct {
	err error
}

func (s stubRenderer) Render(templateID string, vars map[string]string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "prompt for " + templateID, nil
}

func newTestClient(p Provider) *CompletionClient {
	c := NewCompletionClient(p, stubRenderer{}, NewLimiter(0, time.Minute, nil), 3, 10*time.Millisecond, 100*time.Millisecond, time.Second)
	c.sleep = func(ctx context.Context, d time.Duration) error { return ctx.Err() }
	c.jitter = func(d time.Duration) time.Duration { return d }
	return c
}

func TestCompleteSucceedsFirstAttempt(t *testing.T) {
	p := &stubProvider{results: []func() (string, error){
		func() (string, error) { return "analysis text", nil },
	}}
	c := newTestClient(p)

	got, err := c.Complete(context.Background(), "summary", "source", nil)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if got != "analysis text" {
		t.Fatalf("text = %q", got)
	}
	if p.calls != 1 {
		t.Fatalf("provider calls = %d, want 1", p.calls)
	}
}

func TestCompleteRetriesTransientFailures(t *testing.T) {
	p := &stubProvider{results: []func() (string, error){
		func() (string, error) { return "", &Error{Kind: KindRateLimited, Message: "429"} },
		func() (string, error) { return "", &Error{Kind: KindTimeout, Message: "deadline"} },
		func() (string, error) { return "recovered", nil },
	}}
	c := newTestClient(p)

	got, err := c.Complete(context.Background(), "summary", "source", nil)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if got != "recovered" {
		t.Fatalf("text = %q", got)
	}
	if p.calls != 3 {
		t.Fatalf("provider calls = %d, want 3", p.calls)
	}
}

func TestCompleteExhaustsRetries(t *testing.T) {
	p := &stubProvider{results: []func() (string, error){
		func() (string, error) { return "", &Error{Kind: KindProvider, Message: "boom"} },
	}}
	c := newTestClient(p)

	_, err := c.Complete(context.Background(), "summary", "source", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if KindOf(err) != KindProvider {
		t.Fatalf("kind = %s, want %s", KindOf(err), KindProvider)
	}
	// Initial attempt plus MaxRetries.
	if p.calls != 4 {
		t.Fatalf("provider calls = %d, want 4", p.calls)
	}
}

func TestCompleteDoesNotRetryInvalidResponse(t *testing.T) {
	for _, kind := range []Kind{KindInvalidResponse, KindConfiguration} {
		p := &stubProvider{results: []func() (string, error){
			func() (string, error) { return "", &Error{Kind: kind, Message: "bad"} },
		}}
		c := newTestClient(p)

		_, err := c.Complete(context.Background(), "summary", "source", nil)
		if err == nil {
			t.Fatalf("%s: expected error", kind)
		}
		if KindOf(err) != kind {
			t.Fatalf("kind = %s, want %s", KindOf(err), kind)
		}
		if p.calls != 1 {
			t.Fatalf("%s: provider calls = %d, want 1", kind, p.calls)
		}
	}
}

func TestCompleteRenderFailureSkipsProvider(t *testing.T) {
	p := &stubProvider{results: []func() (string, error){
		func() (string, error) { return "never", nil },
	}}
	c := newTestClient(p)
	c.Renderer = stubRenderer{err: errors.New("no such template")}

	_, err := c.Complete(context.Background(), "missing", "source", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if KindOf(err) != KindConfiguration {
		t.Fatalf("kind = %s, want %s", KindOf(err), KindConfiguration)
	}
	if p.calls != 0 {
		t.Fatalf("provider calls = %d, want 0", p.calls)
	}
}

func TestCompleteBackoffGrowsPerAttempt(t *testing.T) {
	p := &stubProvider{results: []func() (string, error){
		func() (string, error) { return "", &Error{Kind: KindProvider, Message: "boom"} },
	}}
	c := newTestClient(p)

	var delays []time.Duration
	c.sleep = func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}

	_, _ = c.Complete(context.Background(), "summary", "source", nil)

	want := []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 40 * time.Millisecond}
	if len(delays) != len(want) {
		t.Fatalf("delays = %v, want %v", delays, want)
	}
	for i := range want {
		if delays[i] != want[i] {
			t.Fatalf("delay %d = %v, want %v", i, delays[i], want[i])
		}
	}
}

func TestCompleteBreakerPausesAfterConsecutiveFailures(t *testing.T) {
	p := &stubProvider{results: []func() (string, error){
		func() (string, error) { return "ok", nil },
	}}
	c := newTestClient(p)
	c.MaxRetries = 0

	for i := 0; i < breakerThreshold; i++ {
		c.Limiter.RecordFailure()
	}

	var delays []time.Duration
	c.sleep = func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}

	got, err := c.Complete(context.Background(), "summary", "source", nil)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if got != "ok" {
		t.Fatalf("text = %q", got)
	}
	if len(delays) != 1 || delays[0] != 60*time.Millisecond {
		t.Fatalf("breaker delays = %v, want one pause of 60ms", delays)
	}
	if c.Limiter.ConsecutiveFailures() != 0 {
		t.Fatalf("failures after success = %d, want 0", c.Limiter.ConsecutiveFailures())
	}
}

func TestCompleteMergesSourceTextIntoVars(t *testing.T) {
	var seen string
	p := &stubProvider{results: []func() (string, error){
		func() (string, error) { return "ok", nil },
	}}
	c := newTestClient(p)
	c.Renderer = rendererFunc(func(templateID string, vars map[string]string) (string, error) {
		seen = vars["SourceText"]
		return "prompt", nil
	})

	if _, err := c.Complete(context.Background(), "summary", "the document body", map[string]string{"NumCards": "10"}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if seen != "the document body" {
		t.Fatalf("SourceText = %q", seen)
	}
}

type rendererFunc func(templateID string, vars map[string]string) (string, error)

func (f rendererFunc) Render(templateID string, vars map[string]string) (string, error) {
	return f(templateID, vars)
}
