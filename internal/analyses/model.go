package analyses

import (
	"time"

	"academic-backend/internal/classify"
)

// TaskStatus is the lifecycle state of one analysis section.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskSucceeded TaskStatus = "succeeded"
	TaskFailed    TaskStatus = "failed"
	TaskSkipped   TaskStatus = "skipped"
)

// TaskDescriptor names one analysis section and the prompt template backing
// it. Descriptors are static registry content, never mutated.
type TaskDescriptor struct {
	Name             string `json:"name"`
	PromptTemplateID string `json:"promptTemplateId"`
	Required         bool   `json:"required"`
}

// TaskResult is the terminal outcome of one section within a report.
type TaskResult struct {
	Name         string     `json:"name"`
	Required     bool       `json:"required"`
	Status       TaskStatus `json:"status"`
	Result       string     `json:"result,omitempty"`
	ErrorKind    string     `json:"errorKind,omitempty"`
	ErrorMessage string     `json:"errorMessage,omitempty"`
}

// ReportStatus aggregates section outcomes.
type ReportStatus string

const (
	ReportComplete       ReportStatus = "complete"
	ReportPartialFailure ReportStatus = "partial_failure"
	ReportTotalFailure   ReportStatus = "total_failure"
)

// Report is the immutable result of one analysis run. Tasks appear in
// registry order, one entry per descriptor, failed sections included.
type Report struct {
	DocumentType  classify.DocumentType `json:"documentType"`
	Tasks         []TaskResult          `json:"tasks"`
	OverallStatus ReportStatus          `json:"overallStatus"`
}

// Analysis represents one document analysis job.
type Analysis struct {
	ID           string     `json:"id"`
	DocumentID   string     `json:"documentId"`
	UserID       string     `json:"userId"`
	DocumentType string     `json:"documentType,omitempty"`
	Provider     string     `json:"provider"`
	Model        string     `json:"model"`
	Status       string     `json:"status"`
	Report       *Report    `json:"report,omitempty"`
	ErrorCode    string     `json:"errorCode,omitempty"`
	ErrorMessage string     `json:"errorMessage,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	StartedAt    *time.Time `json:"startedAt,omitempty"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
}
