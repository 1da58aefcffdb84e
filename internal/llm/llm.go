package llm

import "context"

// Completer is the completion contract consumed by the orchestrator and tools:
// render the template, respect the shared rate limit, retry transient provider
// failures, return the validated text.
type Completer interface {
	Complete(ctx context.Context, templateID, sourceText string, vars map[string]string) (string, error)
}

// Provider abstracts a hosted completion endpoint (Groq, Gemini, ...).
// Implementations map provider failures onto *Error kinds.
type Provider interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Renderer produces the final prompt for a template ID and variable set.
// Rendering failures are configuration errors, never retried.
type Renderer interface {
	Render(templateID string, vars map[string]string) (string, error)
}

// PlaceholderProvider is a stub used when no provider is configured.
type PlaceholderProvider struct{}

// Complete always fails with a configuration error.
func (PlaceholderProvider) Complete(ctx context.Context, prompt string) (string, error) {
	_ = ctx
	_ = prompt
	return "", &Error{Kind: KindConfiguration, Op: "placeholder", Message: "llm provider not configured"}
}
