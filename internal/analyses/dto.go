package analyses

import "github.com/gin-gonic/gin"

// toAnalysisResponse is the full single-analysis payload, report included
// once terminal. A failed run still carries any partial report so the
// consumer can retry just the failed sections.
func toAnalysisResponse(a Analysis) gin.H {
	resp := gin.H{
		"id":         a.ID,
		"documentId": a.DocumentID,
		"provider":   a.Provider,
		"model":      a.Model,
		"status":     a.Status,
		"createdAt":  a.CreatedAt,
	}
	if a.DocumentType != "" {
		resp["documentType"] = a.DocumentType
	}
	if a.Report != nil {
		resp["report"] = a.Report
	}
	if a.Status == StatusFailed {
		resp["errorCode"] = a.ErrorCode
		resp["errorMessage"] = a.ErrorMessage
	}
	if a.StartedAt != nil {
		resp["startedAt"] = a.StartedAt
	}
	if a.CompletedAt != nil {
		resp["completedAt"] = a.CompletedAt
	}
	return resp
}

// toAnalysisSummary is the list-view payload: status and headline fields
// only, never the full report.
func toAnalysisSummary(a Analysis) gin.H {
	item := gin.H{
		"analysisId": a.ID,
		"documentId": a.DocumentID,
		"status":     a.Status,
		"createdAt":  a.CreatedAt,
	}
	if a.DocumentType != "" {
		item["documentType"] = a.DocumentType
	}
	if a.Report != nil {
		item["overallStatus"] = a.Report.OverallStatus
	}
	if a.Status == StatusFailed {
		item["errorCode"] = a.ErrorCode
	}
	return item
}
