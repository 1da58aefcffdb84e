package analyses

import (
	"bytes"
	"context"
	"testing"
	"time"

	"academic-backend/internal/classify"
	"academic-backend/internal/documents"
	"academic-backend/internal/llm"
	"academic-backend/internal/shared/storage/object/local"
)

const extractedNotes = "Lecture notes on thermodynamics.\n\nHeat flows from hot to cold bodies."

func setupServiceWithDoc(t *testing.T, completer llm.Completer) (*Service, *MemoryRepo, *documents.MemoryRepo, string) {
	t.Helper()
	store := local.New(t.TempDir())
	docRepo := documents.NewMemoryRepo()
	analysisRepo := NewMemoryRepo()

	userID := "user-1"
	extractedKey, _, _, err := store.Save(context.Background(), userID, "notes.txt", bytes.NewReader([]byte(extractedNotes)))
	if err != nil {
		t.Fatalf("save extracted text: %v", err)
	}

	doc := documents.Document{
		ID:               "doc-1",
		UserID:           userID,
		FileName:         "notes.txt",
		MimeType:         "text/plain",
		SizeBytes:        int64(len(extractedNotes)),
		StorageKey:       "original",
		ExtractedTextKey: extractedKey,
		CreatedAt:        time.Now().UTC(),
	}
	if err := docRepo.Create(context.Background(), doc); err != nil {
		t.Fatalf("create doc: %v", err)
	}

	svc := &Service{
		Repo:         analysisRepo,
		DocRepo:      docRepo,
		Store:        store,
		Orchestrator: &Orchestrator{Completer: completer},
		Provider:     "groq",
		Model:        "test-model",
	}

	return svc, analysisRepo, docRepo, doc.ID
}

func queueAnalysis(t *testing.T, repo *MemoryRepo, id, docID string) Analysis {
	t.Helper()
	analysis := Analysis{
		ID:         id,
		DocumentID: docID,
		UserID:     "user-1",
		Provider:   "groq",
		Model:      "test-model",
		Status:     StatusQueued,
		CreatedAt:  time.Now().UTC(),
	}
	if err := repo.Create(context.Background(), analysis); err != nil {
		t.Fatalf("create analysis: %v", err)
	}
	return analysis
}

func TestCompleteAsyncStoresReportOnSuccess(t *testing.T) {
	svc, repo, _, docID := setupServiceWithDoc(t, &fakeCompleter{})
	analysis := queueAnalysis(t, repo, "analysis-success", docID)

	svc.completeAsync(context.Background(), analysis.ID)

	got, err := repo.GetByID(context.Background(), analysis.ID)
	if err != nil {
		t.Fatalf("get analysis: %v", err)
	}
	if got.Status != StatusCompleted {
		t.Fatalf("status = %s, want %s (error: %s %s)", got.Status, StatusCompleted, got.ErrorCode, got.ErrorMessage)
	}
	if got.Report == nil {
		t.Fatal("expected report to be stored")
	}
	if got.Report.OverallStatus != ReportComplete {
		t.Fatalf("overall status = %s, want %s", got.Report.OverallStatus, ReportComplete)
	}
	if got.DocumentType != string(classify.GeneralAcademic) {
		t.Fatalf("document type = %s, want %s", got.DocumentType, classify.GeneralAcademic)
	}
	if got.StartedAt == nil || got.CompletedAt == nil {
		t.Fatal("expected started and completed timestamps")
	}
}

func TestCompleteAsyncAllTasksFailingStillCompletes(t *testing.T) {
	fc := &fakeCompleter{fn: func(string) (string, error) {
		return "", &llm.Error{Kind: llm.KindProvider, Message: "provider down"}
	}}
	svc, repo, _, docID := setupServiceWithDoc(t, fc)
	analysis := queueAnalysis(t, repo, "analysis-total-failure", docID)

	svc.completeAsync(context.Background(), analysis.ID)

	got, err := repo.GetByID(context.Background(), analysis.ID)
	if err != nil {
		t.Fatalf("get analysis: %v", err)
	}
	// Per-task failures live in the report; the run itself succeeded.
	if got.Status != StatusCompleted {
		t.Fatalf("status = %s, want %s", got.Status, StatusCompleted)
	}
	if got.Report == nil || got.Report.OverallStatus != ReportTotalFailure {
		t.Fatalf("report = %+v, want overall status %s", got.Report, ReportTotalFailure)
	}
}

func TestCompleteAsyncLazyExtraction(t *testing.T) {
	store := local.New(t.TempDir())
	docRepo := documents.NewMemoryRepo()
	analysisRepo := NewMemoryRepo()

	userID := "user-1"
	storageKey, size, _, err := store.Save(context.Background(), userID, "notes.txt", bytes.NewReader([]byte(extractedNotes)))
	if err != nil {
		t.Fatalf("save original: %v", err)
	}

	doc := documents.Document{
		ID:         "doc-raw",
		UserID:     userID,
		FileName:   "notes.txt",
		MimeType:   "text/plain",
		SizeBytes:  size,
		StorageKey: storageKey,
		CreatedAt:  time.Now().UTC(),
	}
	if err := docRepo.Create(context.Background(), doc); err != nil {
		t.Fatalf("create doc: %v", err)
	}

	svc := &Service{
		Repo:         analysisRepo,
		DocRepo:      docRepo,
		Store:        store,
		Orchestrator: &Orchestrator{Completer: &fakeCompleter{}},
	}
	analysis := queueAnalysis(t, analysisRepo, "analysis-lazy", doc.ID)

	svc.completeAsync(context.Background(), analysis.ID)

	got, err := analysisRepo.GetByID(context.Background(), analysis.ID)
	if err != nil {
		t.Fatalf("get analysis: %v", err)
	}
	if got.Status != StatusCompleted {
		t.Fatalf("status = %s, want %s (error: %s %s)", got.Status, StatusCompleted, got.ErrorCode, got.ErrorMessage)
	}

	updated, err := docRepo.GetByID(context.Background(), userID, doc.ID)
	if err != nil {
		t.Fatalf("get doc: %v", err)
	}
	if updated.ExtractedTextKey != storageKey+".extracted.txt" {
		t.Fatalf("extracted key = %s", updated.ExtractedTextKey)
	}
	if updated.ExtractedAt == nil {
		t.Fatal("expected extractedAt to be set")
	}
}

func TestCompleteAsyncEmptyTextFailsWithExtractionCode(t *testing.T) {
	store := local.New(t.TempDir())
	docRepo := documents.NewMemoryRepo()
	analysisRepo := NewMemoryRepo()

	userID := "user-1"
	extractedKey, _, _, err := store.Save(context.Background(), userID, "empty.txt", bytes.NewReader([]byte("   \n\t ")))
	if err != nil {
		t.Fatalf("save extracted text: %v", err)
	}
	doc := documents.Document{
		ID:               "doc-empty",
		UserID:           userID,
		FileName:         "empty.txt",
		MimeType:         "text/plain",
		StorageKey:       "original",
		ExtractedTextKey: extractedKey,
		CreatedAt:        time.Now().UTC(),
	}
	if err := docRepo.Create(context.Background(), doc); err != nil {
		t.Fatalf("create doc: %v", err)
	}

	fc := &fakeCompleter{}
	svc := &Service{
		Repo:         analysisRepo,
		DocRepo:      docRepo,
		Store:        store,
		Orchestrator: &Orchestrator{Completer: fc},
	}
	analysis := queueAnalysis(t, analysisRepo, "analysis-empty", doc.ID)

	svc.completeAsync(context.Background(), analysis.ID)

	got, err := analysisRepo.GetByID(context.Background(), analysis.ID)
	if err != nil {
		t.Fatalf("get analysis: %v", err)
	}
	if got.Status != StatusFailed {
		t.Fatalf("status = %s, want %s", got.Status, StatusFailed)
	}
	if got.ErrorCode != ErrorCodeExtraction {
		t.Fatalf("error code = %s, want %s", got.ErrorCode, ErrorCodeExtraction)
	}
	if len(fc.calls) != 0 {
		t.Fatalf("completer calls = %d, want 0", len(fc.calls))
	}
}

func TestCompleteAsyncMissingDocumentFailsWithStorageCode(t *testing.T) {
	svc, repo, _, _ := setupServiceWithDoc(t, &fakeCompleter{})
	analysis := queueAnalysis(t, repo, "analysis-no-doc", "doc-missing")

	svc.completeAsync(context.Background(), analysis.ID)

	got, err := repo.GetByID(context.Background(), analysis.ID)
	if err != nil {
		t.Fatalf("get analysis: %v", err)
	}
	if got.Status != StatusFailed {
		t.Fatalf("status = %s, want %s", got.Status, StatusFailed)
	}
	if got.ErrorCode != ErrorCodeStorage {
		t.Fatalf("error code = %s, want %s", got.ErrorCode, ErrorCodeStorage)
	}
}

func TestCreateValidatesInput(t *testing.T) {
	svc := &Service{Repo: NewMemoryRepo()}
	if _, err := svc.Create(context.Background(), "", "user-1"); err == nil {
		t.Fatal("expected error for empty document id")
	}
	if _, err := svc.Create(context.Background(), "doc-1", ""); err == nil {
		t.Fatal("expected error for empty user id")
	}
}

func TestCreateQueuesAnalysis(t *testing.T) {
	svc, repo, _, docID := setupServiceWithDoc(t, &fakeCompleter{})

	analysis, err := svc.Create(context.Background(), docID, "user-1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if analysis.ID == "" {
		t.Fatal("expected analysis id")
	}
	if analysis.Status != StatusQueued {
		t.Fatalf("status = %s, want %s", analysis.Status, StatusQueued)
	}

	// Async completion should eventually land in a terminal state.
	deadline := time.Now().Add(2 * time.Second)
	for {
		got, err := repo.GetByID(context.Background(), analysis.ID)
		if err != nil {
			t.Fatalf("get analysis: %v", err)
		}
		if got.Status == StatusCompleted || got.Status == StatusFailed {
			if got.Status != StatusCompleted {
				t.Fatalf("status = %s (error: %s %s)", got.Status, got.ErrorCode, got.ErrorMessage)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("analysis stuck in status %s", got.Status)
		}
		time.Sleep(10 * time.Millisecond)
	}
}
