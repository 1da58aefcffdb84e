package analyses

import (
	"context"
	"strings"

	"academic-backend/internal/classify"
	"academic-backend/internal/extract"
	"academic-backend/internal/llm"
	"academic-backend/internal/shared/metrics"
	"academic-backend/internal/shared/telemetry"
)

// Orchestrator drives the ordered task list for one document through the
// completion client and assembles the outcomes into a Report. Tasks run
// sequentially so the shared rate limit stays simple to reason about.
type Orchestrator struct {
	Completer llm.Completer
}

// AnalyzeText classifies text, runs every registered task for the resulting
// document type, and returns the aggregated report. A single task failure
// never aborts the run; the section is recorded as failed and the loop
// continues. Cancellation stops dispatching and marks remaining tasks
// skipped, returning the partial report.
func (o *Orchestrator) AnalyzeText(ctx context.Context, text string) (Report, error) {
	if strings.TrimSpace(text) == "" {
		return Report{}, &extract.ExtractionError{Reason: "empty extracted text"}
	}

	docType := classify.Classify(text)
	return o.AnalyzeTyped(ctx, text, docType)
}

// AnalyzeTyped runs the task list for an already-classified document.
func (o *Orchestrator) AnalyzeTyped(ctx context.Context, text string, docType classify.DocumentType) (Report, error) {
	if strings.TrimSpace(text) == "" {
		return Report{}, &extract.ExtractionError{Reason: "empty extracted text"}
	}

	descriptors, err := TasksFor(docType)
	if err != nil {
		return Report{}, err
	}

	report := Report{
		DocumentType: docType,
		Tasks:        make([]TaskResult, 0, len(descriptors)),
	}

	cancelled := false
	for _, desc := range descriptors {
		if cancelled || ctx.Err() != nil {
			cancelled = true
			report.Tasks = append(report.Tasks, TaskResult{
				Name:     desc.Name,
				Required: desc.Required,
				Status:   TaskSkipped,
			})
			continue
		}

		result, err := o.Completer.Complete(ctx, desc.PromptTemplateID, text, nil)
		if err != nil {
			kind := llm.KindOf(err)
			metrics.IncTaskFailed()
			telemetry.Warn("analysis.task", map[string]any{
				"task":       desc.Name,
				"status":     TaskFailed,
				"error_kind": string(kind),
			})
			report.Tasks = append(report.Tasks, TaskResult{
				Name:         desc.Name,
				Required:     desc.Required,
				Status:       TaskFailed,
				ErrorKind:    string(kind),
				ErrorMessage: trimMessage(err.Error()),
			})
			continue
		}

		metrics.IncTaskSucceeded()
		report.Tasks = append(report.Tasks, TaskResult{
			Name:     desc.Name,
			Required: desc.Required,
			Status:   TaskSucceeded,
			Result:   result,
		})
	}

	report.OverallStatus = overallStatus(report.Tasks)
	return report, nil
}

// overallStatus folds section outcomes into the report status. A run with no
// successful section is a total failure even if everything was skipped.
func overallStatus(tasks []TaskResult) ReportStatus {
	succeeded, unsucceeded := 0, 0
	for _, task := range tasks {
		switch task.Status {
		case TaskSucceeded:
			succeeded++
		default:
			unsucceeded++
		}
	}
	switch {
	case unsucceeded == 0:
		return ReportComplete
	case succeeded == 0:
		return ReportTotalFailure
	default:
		return ReportPartialFailure
	}
}

func trimMessage(msg string) string {
	msg = strings.ReplaceAll(msg, "\n", " ")
	msg = strings.TrimSpace(msg)
	const maxLen = 500
	if len(msg) > maxLen {
		msg = msg[:maxLen]
	}
	return msg
}
