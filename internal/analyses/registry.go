package analyses

import (
	"fmt"

	"academic-backend/internal/classify"
)

// taskRegistry maps each document type to its ordered section list. Content
// is fixed at process start; TasksFor hands out copies so callers cannot
// mutate it.
var taskRegistry = map[classify.DocumentType][]TaskDescriptor{
	classify.ResearchPaper: {
		{Name: "summary", PromptTemplateID: "task/summary", Required: true},
		{Name: "keywords", PromptTemplateID: "task/keywords", Required: true},
		{Name: "detailed_analysis", PromptTemplateID: "task/detailed_analysis", Required: true},
		{Name: "methodology", PromptTemplateID: "task/methodology", Required: true},
		{Name: "citations", PromptTemplateID: "task/citations", Required: true},
		{Name: "research_questions", PromptTemplateID: "task/research_questions", Required: true},
		{Name: "gaps", PromptTemplateID: "task/gaps", Required: true},
		{Name: "future_directions", PromptTemplateID: "task/future_directions", Required: true},
	},
	classify.StudyMaterial: {
		{Name: "summary", PromptTemplateID: "task/summary", Required: true},
		{Name: "keywords", PromptTemplateID: "task/keywords", Required: true},
		{Name: "detailed_analysis", PromptTemplateID: "task/detailed_analysis", Required: true},
		{Name: "concepts", PromptTemplateID: "task/concepts", Required: true},
		{Name: "examples", PromptTemplateID: "task/examples", Required: true},
		{Name: "questions", PromptTemplateID: "task/questions", Required: true},
		{Name: "difficulty", PromptTemplateID: "task/difficulty", Required: true},
	},
	classify.Essay: {
		{Name: "summary", PromptTemplateID: "task/summary", Required: true},
		{Name: "keywords", PromptTemplateID: "task/keywords", Required: true},
		{Name: "detailed_analysis", PromptTemplateID: "task/detailed_analysis", Required: true},
		{Name: "structure", PromptTemplateID: "task/structure", Required: true},
		{Name: "arguments", PromptTemplateID: "task/arguments", Required: true},
		{Name: "improvements", PromptTemplateID: "task/improvements", Required: true},
		{Name: "sources", PromptTemplateID: "task/sources", Required: true},
	},
	classify.Report: {
		{Name: "summary", PromptTemplateID: "task/summary", Required: true},
		{Name: "keywords", PromptTemplateID: "task/keywords", Required: true},
		{Name: "detailed_analysis", PromptTemplateID: "task/detailed_analysis", Required: true},
		{Name: "structure", PromptTemplateID: "task/structure", Required: true},
		{Name: "findings", PromptTemplateID: "task/findings", Required: true},
		{Name: "recommendations", PromptTemplateID: "task/recommendations", Required: true},
		{Name: "citations", PromptTemplateID: "task/citations", Required: true},
	},
	classify.GeneralAcademic: {
		{Name: "summary", PromptTemplateID: "task/summary", Required: true},
		{Name: "keywords", PromptTemplateID: "task/keywords", Required: true},
		{Name: "detailed_analysis", PromptTemplateID: "task/detailed_analysis", Required: true},
		{Name: "structure", PromptTemplateID: "task/structure", Required: true},
		{Name: "main_points", PromptTemplateID: "task/main_points", Required: true},
		{Name: "context", PromptTemplateID: "task/context", Required: true},
	},
}

// TasksFor returns the ordered descriptor list for a document type. An
// unregistered type is a programming-invariant violation; the classifier
// cannot produce one.
func TasksFor(docType classify.DocumentType) ([]TaskDescriptor, error) {
	descriptors, ok := taskRegistry[docType]
	if !ok {
		return nil, fmt.Errorf("no task registry entry for document type %q", docType)
	}
	out := make([]TaskDescriptor, len(descriptors))
	copy(out, descriptors)
	return out, nil
}
