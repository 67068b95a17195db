package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/annolab/corpus-manager/internal/logger"
	"github.com/annolab/corpus-manager/internal/models"
)

// ErrDocumentNotFound is returned by point lookups on missing documents.
var ErrDocumentNotFound = errors.New("document not found")

const documentColumns = `id, user_id, original_filename, storage_key, file_size, mime_type,
	       total_rows, successful_inserts, failed_inserts, duplicate_count,
	       duplicates, errors, processing_time_ms, status, created_at, updated_at`

type DocumentRepository struct {
	db     *sql.DB
	logger logger.Logger
}

func NewDocumentRepository(db *sql.DB, log logger.Logger) *DocumentRepository {
	return &DocumentRepository{
		db:     db,
		logger: log,
	}
}

// Create opens the tracking record for an upload attempt. Counters start at
// zero and status at "processing"; the terminal update fills them in.
func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	doc.ID = uuid.New().String()
	doc.Status = models.DocumentProcessing
	doc.CreatedAt = time.Now()
	doc.UpdatedAt = doc.CreatedAt

	query := `
		INSERT INTO documents (
			id, user_id, original_filename, storage_key, file_size, mime_type,
			total_rows, successful_inserts, failed_inserts, duplicate_count,
			duplicates, errors, processing_time_ms, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, 0, 0, 0, 0, $7, $8, 0, $9, $10, $11)
	`

	_, err := r.db.ExecContext(ctx,
		query,
		doc.ID,
		doc.UserID,
		doc.OriginalFilename,
		doc.StorageKey,
		doc.FileSize,
		doc.MimeType,
		models.DuplicateList{},
		models.RowErrorList{},
		doc.Status,
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}

	return nil
}

// Finish writes the terminal state of an upload attempt: status plus all
// counters and detail lists in one update. Its semantics are overwrite, not
// accumulate; it is called exactly once per attempt.
func (r *DocumentRepository) Finish(ctx context.Context, doc *models.Document) error {
	doc.UpdatedAt = time.Now()

	query := `
		UPDATE documents
		SET total_rows = $2, successful_inserts = $3, failed_inserts = $4,
		    duplicate_count = $5, duplicates = $6, errors = $7,
		    processing_time_ms = $8, status = $9, updated_at = $10
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx,
		query,
		doc.ID,
		doc.TotalRows,
		doc.SuccessfulInserts,
		doc.FailedInserts,
		doc.DuplicateCount,
		doc.Duplicates,
		doc.Errors,
		doc.ProcessingTimeMs,
		doc.Status,
		doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrDocumentNotFound
	}

	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`

	doc, err := scanDocument(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query document: %w", err)
	}
	return doc, nil
}

// List returns documents newest first, scoped to an owner when userID is
// non-empty.
func (r *DocumentRepository) List(ctx context.Context, userID string) ([]models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents`
	args := []any{}
	if userID != "" {
		query += ` WHERE user_id = $1`
		args = append(args, userID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	return scanDocumentRows(rows)
}

func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM documents WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

// GetStats sums ledger counters, across all owners when userID is empty.
func (r *DocumentRepository) GetStats(ctx context.Context, userID string) (*models.DocumentStats, error) {
	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'completed'),
		       COUNT(*) FILTER (WHERE status = 'failed'),
		       COUNT(*) FILTER (WHERE status = 'processing'),
		       COALESCE(SUM(total_rows), 0),
		       COALESCE(SUM(successful_inserts), 0),
		       COALESCE(SUM(failed_inserts), 0),
		       COALESCE(SUM(duplicate_count), 0)
		FROM documents
	`
	args := []any{}
	if userID != "" {
		query += ` WHERE user_id = $1`
		args = append(args, userID)
	}

	var stats models.DocumentStats
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&stats.TotalDocuments,
		&stats.CompletedCount,
		&stats.FailedCount,
		&stats.ProcessingCount,
		&stats.TotalRows,
		&stats.SuccessfulInserts,
		&stats.FailedInserts,
		&stats.DuplicateCount,
	)
	if err != nil {
		return nil, fmt.Errorf("query document stats: %w", err)
	}

	return &stats, nil
}

// GetHistory buckets completed uploads by day over the trailing `days` window.
func (r *DocumentRepository) GetHistory(ctx context.Context, userID string, days int) ([]models.DailyUploadStat, error) {
	query := `
		SELECT date_trunc('day', created_at) AS day,
		       COUNT(*),
		       COALESCE(SUM(successful_inserts), 0),
		       COALESCE(SUM(duplicate_count), 0),
		       COALESCE(SUM(failed_inserts), 0)
		FROM documents
		WHERE created_at >= $1
	`
	args := []any{time.Now().AddDate(0, 0, -days)}
	if userID != "" {
		query += ` AND user_id = $2`
		args = append(args, userID)
	}
	query += ` GROUP BY day ORDER BY day`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query processing history: %w", err)
	}
	defer rows.Close()

	history := make([]models.DailyUploadStat, 0)
	for rows.Next() {
		var stat models.DailyUploadStat
		if scanErr := rows.Scan(
			&stat.Day,
			&stat.Uploads,
			&stat.SuccessfulInserts,
			&stat.DuplicateCount,
			&stat.FailedInserts,
		); scanErr != nil {
			return nil, fmt.Errorf("scan history bucket: %w", scanErr)
		}
		history = append(history, stat)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("iterate history buckets: %w", rowsErr)
	}

	return history, nil
}

// GetDuplicateReport lists documents that hit at least one duplicate.
func (r *DocumentRepository) GetDuplicateReport(ctx context.Context, userID string) ([]models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE duplicate_count > 0`
	args := []any{}
	if userID != "" {
		query += ` AND user_id = $1`
		args = append(args, userID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query duplicate report: %w", err)
	}
	defer rows.Close()

	return scanDocumentRows(rows)
}

func scanDocumentRows(rows *sql.Rows) ([]models.Document, error) {
	documents := make([]models.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		documents = append(documents, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return documents, nil
}

func scanDocument(row rowScanner) (*models.Document, error) {
	var doc models.Document
	var storageKey, mimeType sql.NullString

	err := row.Scan(
		&doc.ID,
		&doc.UserID,
		&doc.OriginalFilename,
		&storageKey,
		&doc.FileSize,
		&mimeType,
		&doc.TotalRows,
		&doc.SuccessfulInserts,
		&doc.FailedInserts,
		&doc.DuplicateCount,
		&doc.Duplicates,
		&doc.Errors,
		&doc.ProcessingTimeMs,
		&doc.Status,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	doc.StorageKey = storageKey.String
	doc.MimeType = mimeType.String

	return &doc, nil
}
