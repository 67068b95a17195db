package ingest_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/annolab/corpus-manager/internal/ingest"
	"github.com/annolab/corpus-manager/internal/models"
	"github.com/annolab/corpus-manager/internal/repository"
	"github.com/annolab/corpus-manager/internal/testhelpers"
)

type fakeDocumentStore struct {
	created   *models.Document
	finished  *models.Document
	createErr error
	finishErr error
}

func (f *fakeDocumentStore) Create(_ context.Context, doc *models.Document) error {
	if f.createErr != nil {
		return f.createErr
	}
	doc.ID = "doc-test"
	doc.Status = models.DocumentProcessing
	f.created = doc
	return nil
}

func (f *fakeDocumentStore) Finish(_ context.Context, doc *models.Document) error {
	if f.finishErr != nil {
		return f.finishErr
	}
	snapshot := *doc
	f.finished = &snapshot
	return nil
}

type fakeSentenceStore struct {
	result     repository.BulkInsertResult
	resultFunc func(sentences []models.Sentence) repository.BulkInsertResult
	attempted  []models.Sentence
}

func (f *fakeSentenceStore) InsertBatch(_ context.Context, sentences []models.Sentence, _ string) repository.BulkInsertResult {
	f.attempted = sentences
	if f.resultFunc != nil {
		return f.resultFunc(sentences)
	}
	return f.result
}

func newService(docs *fakeDocumentStore, sentences *fakeSentenceStore, existing map[string]string) *ingest.Service {
	log := testhelpers.NewTestLogger()
	detector := ingest.NewDetector(&fakeChecker{existing: existing}, log)
	return ingest.NewService(docs, sentences, detector, nil, nil, log, time.Minute)
}

func uploadCSV(rows ...string) ingest.Upload {
	header := "text,language,country,source_type,domain,theme"
	return ingest.Upload{
		Filename: "batch.csv",
		Data:     []byte(header + "\n" + strings.Join(rows, "\n")),
		UserID:   "user-1",
		MimeType: "text/csv",
	}
}

func TestProcessUpload_Success(t *testing.T) {
	docs := &fakeDocumentStore{}
	sentences := &fakeSentenceStore{
		resultFunc: func(s []models.Sentence) repository.BulkInsertResult {
			return repository.BulkInsertResult{Inserted: s, Errors: []repository.InsertError{}}
		},
	}
	svc := newService(docs, sentences, map[string]string{})

	result, err := svc.ProcessUpload(context.Background(), uploadCSV(
		"one,en,KE,news,general,neutral",
		"two,sw,TZ,blog,culture,stereotype",
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.DocumentID != "doc-test" {
		t.Errorf("unexpected document id: %q", result.DocumentID)
	}
	if result.Status != models.DocumentCompleted {
		t.Errorf("expected completed, got %q", result.Status)
	}
	if result.TotalRows != 2 || result.InsertedCount != 2 || result.DuplicatesFound != 0 || result.ErrorsFound != 0 {
		t.Errorf("unexpected counters: %+v", result)
	}
	if docs.finished == nil || docs.finished.Status != models.DocumentCompleted {
		t.Fatalf("tracking record not closed: %+v", docs.finished)
	}
}

func TestProcessUpload_DuplicatesAndValidationErrors(t *testing.T) {
	docs := &fakeDocumentStore{}
	sentences := &fakeSentenceStore{
		resultFunc: func(s []models.Sentence) repository.BulkInsertResult {
			return repository.BulkInsertResult{Inserted: s, Errors: []repository.InsertError{}}
		},
	}
	svc := newService(docs, sentences, map[string]string{"known sentence": "doc-9"})

	result, err := svc.ProcessUpload(context.Background(), uploadCSV(
		"fresh sentence,en,KE,news,general,neutral",
		"known sentence,en,KE,news,general,neutral",
		",en,KE,news,general,neutral",
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Status != models.DocumentCompleted {
		t.Errorf("partial failure still completes, got %q", result.Status)
	}
	if result.InsertedCount != 1 {
		t.Errorf("expected 1 insert, got %d", result.InsertedCount)
	}
	if result.DuplicatesFound != 1 || result.Duplicates[0].ExistingDocumentID != "doc-9" {
		t.Errorf("unexpected duplicates: %+v", result.Duplicates)
	}
	if result.ErrorsFound != 1 || result.Errors[0].Row != 3 {
		t.Errorf("validation error should carry row 3: %+v", result.Errors)
	}
	if len(sentences.attempted) != 1 {
		t.Errorf("only valid rows reach the insert, got %d", len(sentences.attempted))
	}
}

func TestProcessUpload_ParseFailureStillTerminal(t *testing.T) {
	docs := &fakeDocumentStore{}
	sentences := &fakeSentenceStore{}
	svc := newService(docs, sentences, map[string]string{})

	result, err := svc.ProcessUpload(context.Background(), ingest.Upload{
		Filename: "notes.txt",
		Data:     []byte("whatever"),
		UserID:   "user-1",
	})
	if err == nil {
		t.Fatal("expected error for unsupported extension")
	}
	if result == nil {
		t.Fatal("a tracking record exists, result must be returned")
	}
	if result.Status != models.DocumentFailed {
		t.Errorf("expected failed, got %q", result.Status)
	}
	if docs.finished == nil || docs.finished.Status != models.DocumentFailed {
		t.Fatalf("failed upload must still close the tracking record: %+v", docs.finished)
	}
	if len(docs.finished.Errors) != 1 || !strings.Contains(docs.finished.Errors[0].Message, ".txt") {
		t.Errorf("failure reason should be recorded: %+v", docs.finished.Errors)
	}
}

func TestProcessUpload_TotalInsertFailure(t *testing.T) {
	docs := &fakeDocumentStore{}
	sentences := &fakeSentenceStore{
		result: repository.BulkInsertResult{
			Inserted: []models.Sentence{},
			Errors:   []repository.InsertError{{Index: -1, Message: "bulk insert failed: connection reset"}},
		},
	}
	svc := newService(docs, sentences, map[string]string{})

	result, err := svc.ProcessUpload(context.Background(), uploadCSV(
		"one,en,KE,news,general,neutral",
	))
	if err == nil {
		t.Fatal("expected error on total insert failure")
	}
	if result.Status != models.DocumentFailed {
		t.Errorf("expected failed, got %q", result.Status)
	}
	if docs.finished == nil || docs.finished.Status != models.DocumentFailed {
		t.Fatalf("tracking record must be terminal: %+v", docs.finished)
	}
	if result.InsertedCount != 0 {
		t.Errorf("nothing was committed, got %d", result.InsertedCount)
	}
}

func TestProcessUpload_ConflictMappedToSourceRow(t *testing.T) {
	docs := &fakeDocumentStore{}
	sentences := &fakeSentenceStore{
		resultFunc: func(s []models.Sentence) repository.BulkInsertResult {
			// Second attempted record loses a race and conflicts.
			return repository.BulkInsertResult{
				Inserted: s[:1],
				Errors:   []repository.InsertError{{Index: 1, Message: "uniqueness conflict on text"}},
			}
		},
	}
	svc := newService(docs, sentences, map[string]string{})

	result, err := svc.ProcessUpload(context.Background(), uploadCSV(
		"one,en,KE,news,general,neutral",
		"two,en,KE,news,general,neutral",
	))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != models.DocumentCompleted {
		t.Errorf("per-record conflict does not fail the upload, got %q", result.Status)
	}
	if result.ErrorsFound != 1 || result.Errors[0].Row != 2 {
		t.Errorf("conflict should map back to source row 2: %+v", result.Errors)
	}
}

func TestProcessUpload_CreateFailure(t *testing.T) {
	docs := &fakeDocumentStore{createErr: errors.New("db down")}
	svc := newService(docs, &fakeSentenceStore{}, map[string]string{})

	result, err := svc.ProcessUpload(context.Background(), uploadCSV("one,en,KE,news,general,neutral"))
	if err == nil {
		t.Fatal("expected error when the tracking record cannot be created")
	}
	if result != nil {
		t.Errorf("no tracking record, no result: %+v", result)
	}
}

func TestProcessUpload_FinishFailureDoesNotPanic(t *testing.T) {
	docs := &fakeDocumentStore{finishErr: fmt.Errorf("write timeout")}
	sentences := &fakeSentenceStore{
		resultFunc: func(s []models.Sentence) repository.BulkInsertResult {
			return repository.BulkInsertResult{Inserted: s, Errors: []repository.InsertError{}}
		},
	}
	svc := newService(docs, sentences, map[string]string{})

	result, err := svc.ProcessUpload(context.Background(), uploadCSV("one,en,KE,news,general,neutral"))
	if err != nil {
		t.Fatalf("finish failure is logged, not returned: %v", err)
	}
	if result.InsertedCount != 1 {
		t.Errorf("pipeline outcome unaffected by ledger close failure: %+v", result)
	}
}
