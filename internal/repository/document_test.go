package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/annolab/corpus-manager/internal/models"
	"github.com/annolab/corpus-manager/internal/repository"
	"github.com/annolab/corpus-manager/internal/testhelpers"
)

func newDocumentRepo(t *testing.T) (*repository.DocumentRepository, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	repo := repository.NewDocumentRepository(db, testhelpers.NewTestLogger())
	return repo, mock, func() { db.Close() }
}

func TestDocumentRepository_Create(t *testing.T) {
	repo, mock, cleanup := newDocumentRepo(t)
	defer cleanup()

	mock.ExpectExec("INSERT INTO documents").
		WillReturnResult(sqlmock.NewResult(0, 1))

	doc := &models.Document{
		UserID:           "user-1",
		OriginalFilename: "batch.csv",
		FileSize:         1024,
		MimeType:         "text/csv",
	}
	if err := repo.Create(context.Background(), doc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if doc.ID == "" {
		t.Error("create must assign an id")
	}
	if doc.Status != models.DocumentProcessing {
		t.Errorf("new documents start processing, got %q", doc.Status)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestDocumentRepository_Finish(t *testing.T) {
	t.Run("terminal update", func(t *testing.T) {
		repo, mock, cleanup := newDocumentRepo(t)
		defer cleanup()

		mock.ExpectExec("UPDATE documents").
			WillReturnResult(sqlmock.NewResult(0, 1))

		doc := &models.Document{
			ID:                "doc-1",
			TotalRows:         10,
			SuccessfulInserts: 8,
			FailedInserts:     1,
			DuplicateCount:    1,
			Status:            models.DocumentCompleted,
		}
		if err := repo.Finish(context.Background(), doc); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("missing document", func(t *testing.T) {
		repo, mock, cleanup := newDocumentRepo(t)
		defer cleanup()

		mock.ExpectExec("UPDATE documents").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Finish(context.Background(), &models.Document{ID: "missing"})
		if !errors.Is(err, repository.ErrDocumentNotFound) {
			t.Fatalf("expected ErrDocumentNotFound, got %v", err)
		}
	})
}

func TestDocumentRepository_GetStats(t *testing.T) {
	repo, mock, cleanup := newDocumentRepo(t)
	defer cleanup()

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"total", "completed", "failed", "processing",
			"rows", "inserts", "errors", "duplicates",
		}).AddRow(4, 3, 1, 0, 120, 100, 5, 15))

	stats, err := repo.GetStats(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.TotalDocuments != 4 || stats.CompletedCount != 3 || stats.FailedCount != 1 {
		t.Errorf("unexpected counts: %+v", stats)
	}
	if stats.SuccessfulInserts != 100 || stats.DuplicateCount != 15 {
		t.Errorf("unexpected sums: %+v", stats)
	}
}

func TestDocumentRepository_GetDuplicateReport(t *testing.T) {
	repo, mock, cleanup := newDocumentRepo(t)
	defer cleanup()

	duplicates := `[{"row":3,"text":"already known","existing_document_id":"doc-0"}]`
	now := time.Now()

	mock.ExpectQuery("FROM documents WHERE duplicate_count > 0").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "original_filename", "storage_key", "file_size", "mime_type",
			"total_rows", "successful_inserts", "failed_inserts", "duplicate_count",
			"duplicates", "errors", "processing_time_ms", "status", "created_at", "updated_at",
		}).AddRow(
			"doc-1", "user-1", "batch.csv", nil, 1024, "text/csv",
			10, 9, 0, 1,
			[]byte(duplicates), []byte(`[]`), 250, "completed",
			now, now,
		))

	docs, err := repo.GetDuplicateReport(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}
	if docs[0].DuplicateCount != 1 || len(docs[0].Duplicates) != 1 {
		t.Errorf("duplicate detail lost in scan: %+v", docs[0])
	}
	if docs[0].Duplicates[0].ExistingDocumentID != "doc-0" {
		t.Errorf("unexpected duplicate detail: %+v", docs[0].Duplicates[0])
	}
}
