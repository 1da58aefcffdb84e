package prompts

import (
	"fmt"
	"strings"
	"sync"
	"text/template"
)

// Registry holds the parsed prompt templates, keyed by template ID. Task
// templates receive SourceText; tool templates additionally receive caller
// parameters such as NumCards or Difficulty. Content is static and parsed
// once at construction.
type Registry struct {
	mu        sync.RWMutex
	templates map[string]*template.Template
}

// NewRegistry parses the built-in template set. A parse failure is a
// programmer error and surfaces immediately.
func NewRegistry() (*Registry, error) {
	r := &Registry{templates: make(map[string]*template.Template, len(builtin))}
	for id, text := range builtin {
		tmpl, err := template.New(id).Option("missingkey=error").Parse(text)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", id, err)
		}
		r.templates[id] = tmpl
	}
	return r, nil
}

// MustNewRegistry is NewRegistry for wiring paths where the built-in set is
// known good.
func MustNewRegistry() *Registry {
	r, err := NewRegistry()
	if err != nil {
		panic(err)
	}
	return r
}

// Render executes the template for templateID with vars.
func (r *Registry) Render(templateID string, vars map[string]string) (string, error) {
	r.mu.RLock()
	tmpl, ok := r.templates[templateID]
	r.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("unknown prompt template %q", templateID)
	}

	data := make(map[string]string, len(vars))
	for k, v := range vars {
		data[k] = v
	}
	applyDefaults(data)

	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render template %s: %w", templateID, err)
	}
	return b.String(), nil
}

// Has reports whether templateID is registered.
func (r *Registry) Has(templateID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.templates[templateID]
	return ok
}

// applyDefaults fills the optional tool parameters so templates never hit a
// missing key.
func applyDefaults(data map[string]string) {
	defaults := map[string]string{
		"SourceText":    "",
		"NumCards":      "10",
		"QuestionTypes": "multiple choice, short answer",
		"TopicName":     "the document's main topic",
		"Difficulty":    "mixed",
	}
	for k, v := range defaults {
		if _, ok := data[k]; !ok {
			data[k] = v
		}
	}
}

const preamble = "You are an expert academic analyst. Base every statement strictly on the document below. Be specific and concise.\n\n"

const sourceBlock = "Document:\n\"\"\"\n{{.SourceText}}\n\"\"\"\n"

var builtin = map[string]string{
	// Per-document-type analysis sections.
	"task/summary": preamble +
		"Write a comprehensive summary of the document covering its purpose, scope, and main conclusions in 2-4 paragraphs.\n\n" + sourceBlock,
	"task/keywords": preamble +
		"List the 10-15 most important keywords and key phrases in the document, one per line, most significant first.\n\n" + sourceBlock,
	"task/detailed_analysis": preamble +
		"Provide a detailed section-by-section analysis of the document: what each part contributes, how the parts connect, and where the argument or evidence is strongest and weakest.\n\n" + sourceBlock,
	"task/methodology": preamble +
		"Describe the research methodology used: study design, data collection, sample, analysis techniques, and any stated limitations.\n\n" + sourceBlock,
	"task/citations": preamble +
		"Identify the key references and citations in the document and explain the role each plays in supporting the work.\n\n" + sourceBlock,
	"task/research_questions": preamble +
		"State the research questions or hypotheses the document addresses, explicitly or implicitly, and how well each is answered.\n\n" + sourceBlock,
	"task/gaps": preamble +
		"Identify gaps, unanswered questions, and limitations in the work that future research could address.\n\n" + sourceBlock,
	"task/future_directions": preamble +
		"Suggest concrete future research directions that build on this document's findings.\n\n" + sourceBlock,
	"task/concepts": preamble +
		"Extract the core concepts and definitions a student must master from this material, each with a one-sentence explanation.\n\n" + sourceBlock,
	"task/examples": preamble +
		"List the worked examples and illustrations in the material and what each demonstrates. If none exist, propose suitable ones.\n\n" + sourceBlock,
	"task/questions": preamble +
		"Write review questions that test understanding of this material, ordered from recall to application.\n\n" + sourceBlock,
	"task/difficulty": preamble +
		"Assess the difficulty level of this material, the background knowledge it assumes, and the topics most likely to confuse a learner.\n\n" + sourceBlock,
	"task/structure": preamble +
		"Analyze the document's structure and organization: how it is laid out, whether the flow serves the content, and what restructuring would help.\n\n" + sourceBlock,
	"task/arguments": preamble +
		"Identify the main arguments, the evidence offered for each, and any counterarguments the document raises or ignores.\n\n" + sourceBlock,
	"task/improvements": preamble +
		"Suggest specific improvements to the writing, argumentation, and evidence, ordered by impact.\n\n" + sourceBlock,
	"task/sources": preamble +
		"Evaluate the sources used: their variety, credibility, recency, and how well they support the claims made.\n\n" + sourceBlock,
	"task/findings": preamble +
		"Summarize the key findings and results reported in the document, quantifying them where the text allows.\n\n" + sourceBlock,
	"task/recommendations": preamble +
		"List the recommendations the document makes and the evidence behind each. Note recommendations implied but not stated.\n\n" + sourceBlock,
	"task/main_points": preamble +
		"List the main points of the document in order of importance, each with a short supporting note.\n\n" + sourceBlock,
	"task/context": preamble +
		"Place the document in its broader academic context: the field it belongs to, the conversation it joins, and its likely audience.\n\n" + sourceBlock,

	// Ad hoc tools.
	"tool/related_papers": preamble +
		"Suggest 5-8 published papers related to this document. For each give title, likely authors or venue, and one sentence on its relevance. Flag any suggestion you are unsure exists.\n\n" + sourceBlock,
	"tool/research_questions": preamble +
		"Generate novel research questions inspired by this document, grouped by how directly they extend the work.\n\n" + sourceBlock,
	"tool/build_hypothesis": preamble +
		"Formulate testable hypotheses grounded in this document about {{.TopicName}}. For each, state the variables, the expected relationship, and a feasible test.\n\n" + sourceBlock,
	"tool/research_proposal": preamble +
		"Draft a short research proposal that extends this document: title, motivation, research questions, method sketch, and expected contribution.\n\n" + sourceBlock,
	"tool/flashcards": preamble +
		"Create {{.NumCards}} flashcards from this material at {{.Difficulty}} difficulty. Format each as:\nQ: <question>\nA: <answer>\n\n" + sourceBlock,
	"tool/practice_questions": preamble +
		"Create practice questions from this material using these question types: {{.QuestionTypes}}. Target {{.Difficulty}} difficulty and include an answer key at the end.\n\n" + sourceBlock,
	"tool/study_guide": preamble +
		"Create a structured study guide for this material: key topics in learning order, what to memorize versus understand, and a self-check list.\n\n" + sourceBlock,
}
