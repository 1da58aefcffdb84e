package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"academic-backend/internal/llm"
	"academic-backend/internal/shared/metrics"
)

// ErrUnknownTool marks a request for a tool that is not registered. It is
// fatal to that single invocation and triggers no provider call.
var ErrUnknownTool = errors.New("unknown tool")

// ErrEmptyText marks an invocation with no source text to work on.
var ErrEmptyText = errors.New("source text is required")

// descriptor binds a tool name to its prompt template and the parameters the
// template understands.
type descriptor struct {
	promptTemplateID string
	parameters       []string
}

// toolRegistry is the fixed set of ad hoc research and study tools.
var toolRegistry = map[string]descriptor{
	"related_papers":     {promptTemplateID: "tool/related_papers"},
	"research_questions": {promptTemplateID: "tool/research_questions"},
	"build_hypothesis":   {promptTemplateID: "tool/build_hypothesis", parameters: []string{"topicName"}},
	"research_proposal":  {promptTemplateID: "tool/research_proposal"},
	"flashcards":         {promptTemplateID: "tool/flashcards", parameters: []string{"numCards", "difficulty"}},
	"practice_questions": {promptTemplateID: "tool/practice_questions", parameters: []string{"questionTypes", "difficulty"}},
	"study_guide":        {promptTemplateID: "tool/study_guide"},
}

// Names returns the registered tool names in no particular order.
func Names() []string {
	out := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		out = append(out, name)
	}
	return out
}

// Invoker executes a single ad hoc tool through the shared completion client.
type Invoker struct {
	Completer llm.Completer
}

// Invoke renders the named tool's prompt with the supplied parameters merged
// into the template context and performs one completion. Retry behavior is
// whatever the completion client already does.
func (i *Invoker) Invoke(ctx context.Context, toolName, text string, parameters map[string]string) (string, error) {
	desc, ok := toolRegistry[normalizeName(toolName)]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, toolName)
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}

	vars := make(map[string]string, len(desc.parameters))
	for _, param := range desc.parameters {
		if v, ok := parameters[param]; ok && strings.TrimSpace(v) != "" {
			vars[templateVar(param)] = strings.TrimSpace(v)
		}
	}

	metrics.IncToolInvocation()
	return i.Completer.Complete(ctx, desc.promptTemplateID, text, vars)
}

func normalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.ReplaceAll(name, "-", "_")
}

// templateVar maps a camelCase request parameter onto its template variable.
func templateVar(param string) string {
	switch param {
	case "numCards":
		return "NumCards"
	case "questionTypes":
		return "QuestionTypes"
	case "topicName":
		return "TopicName"
	case "difficulty":
		return "Difficulty"
	default:
		return param
	}
}
