package analyses

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new analysis.
func (r *PGRepo) Create(ctx context.Context, analysis Analysis) error {
	const query = `
INSERT INTO analyses (id, document_id, user_id, document_type, provider, model, status, report, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	reportPayload, err := marshalReport(analysis.Report)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, query,
		analysis.ID,
		analysis.DocumentID,
		analysis.UserID,
		nullString(analysis.DocumentType),
		analysis.Provider,
		analysis.Model,
		analysis.Status,
		reportPayload,
		analysis.CreatedAt,
	)
	return err
}

// GetByID returns an analysis by ID.
func (r *PGRepo) GetByID(ctx context.Context, analysisID string) (Analysis, error) {
	const query = `
SELECT id, document_id, user_id, document_type, provider, model, status, report,
       error_code, error_message, started_at, completed_at, created_at
FROM analyses
WHERE id = $1
LIMIT 1`
	return scanAnalysis(r.DB.QueryRowContext(ctx, query, analysisID))
}

// MarkProcessing transitions an analysis to processing.
func (r *PGRepo) MarkProcessing(ctx context.Context, analysisID string, startedAt time.Time) error {
	const query = `UPDATE analyses SET status = $2, started_at = $3, updated_at = now() WHERE id = $1`
	return r.exec(ctx, query, analysisID, StatusProcessing, startedAt)
}

// CompleteWithReport stores the finished report and transitions to completed.
func (r *PGRepo) CompleteWithReport(ctx context.Context, analysisID string, docType string, report *Report, completedAt time.Time) error {
	reportPayload, err := marshalReport(report)
	if err != nil {
		return err
	}
	const query = `
UPDATE analyses
SET status = $2, document_type = $3, report = $4, completed_at = $5, updated_at = now()
WHERE id = $1`
	return r.exec(ctx, query, analysisID, StatusCompleted, docType, reportPayload, completedAt)
}

// Fail records a terminal failure, keeping any partial report.
func (r *PGRepo) Fail(ctx context.Context, analysisID, errorCode, errorMessage string, report *Report, completedAt time.Time) error {
	reportPayload, err := marshalReport(report)
	if err != nil {
		return err
	}
	const query = `
UPDATE analyses
SET status = $2, error_code = $3, error_message = $4,
    report = COALESCE($5, report), completed_at = $6, updated_at = now()
WHERE id = $1`
	return r.exec(ctx, query, analysisID, StatusFailed, errorCode, errorMessage, reportPayload, completedAt)
}

// ListByUser returns analyses for a user, newest first, with limit/offset.
func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Analysis, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
SELECT id, document_id, user_id, document_type, provider, model, status, report,
       error_code, error_message, started_at, completed_at, created_at
FROM analyses
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`
	rows, err := r.DB.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Analysis{}
	for rows.Next() {
		analysis, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, analysis)
	}
	return out, rows.Err()
}

func (r *PGRepo) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(row rowScanner) (Analysis, error) {
	var (
		a            Analysis
		docType      sql.NullString
		reportRaw    sql.NullString
		errorCode    sql.NullString
		errorMessage sql.NullString
		startedAt    sql.NullTime
		completedAt  sql.NullTime
	)
	err := row.Scan(
		&a.ID, &a.DocumentID, &a.UserID, &docType, &a.Provider, &a.Model, &a.Status,
		&reportRaw, &errorCode, &errorMessage, &startedAt, &completedAt, &a.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Analysis{}, ErrNotFound
	}
	if err != nil {
		return Analysis{}, err
	}
	a.DocumentType = docType.String
	a.ErrorCode = errorCode.String
	a.ErrorMessage = errorMessage.String
	if startedAt.Valid {
		t := startedAt.Time
		a.StartedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		a.CompletedAt = &t
	}
	if reportRaw.Valid && reportRaw.String != "" {
		var report Report
		if err := json.Unmarshal([]byte(reportRaw.String), &report); err != nil {
			return Analysis{}, err
		}
		a.Report = &report
	}
	return a, nil
}

func marshalReport(report *Report) (any, error) {
	if report == nil {
		return nil, nil
	}
	data, err := json.Marshal(report)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
