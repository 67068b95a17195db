package ingest

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/annolab/corpus-manager/internal/events"
	"github.com/annolab/corpus-manager/internal/importer"
	"github.com/annolab/corpus-manager/internal/logger"
	"github.com/annolab/corpus-manager/internal/metrics"
	"github.com/annolab/corpus-manager/internal/models"
	"github.com/annolab/corpus-manager/internal/repository"
)

// finishTimeout bounds the terminal ledger update. It uses its own context so
// the tracking record reaches a terminal state even when the pipeline context
// has already expired.
const finishTimeout = 10 * time.Second

// DocumentStore is the slice of the document ledger the pipeline needs.
type DocumentStore interface {
	Create(ctx context.Context, doc *models.Document) error
	Finish(ctx context.Context, doc *models.Document) error
}

// SentenceStore is the slice of the corpus store the pipeline needs.
type SentenceStore interface {
	InsertBatch(ctx context.Context, sentences []models.Sentence, documentID string) repository.BulkInsertResult
}

// Upload is one file submitted for ingestion.
type Upload struct {
	Filename string
	Data     []byte
	UserID   string
	MimeType string
}

// UploadResult is the per-upload report returned to the caller and mirrored
// into the document ledger.
type UploadResult struct {
	DocumentID       string                   `json:"documentId"`
	Status           models.DocumentStatus    `json:"status"`
	TotalRows        int                      `json:"totalRows"`
	InsertedCount    int                      `json:"insertedCount"`
	DuplicatesFound  int                      `json:"duplicatesFound"`
	ErrorsFound      int                      `json:"errorsFound"`
	ProcessingTimeMs int64                    `json:"processingTimeMs"`
	Duplicates       []models.DuplicateDetail `json:"duplicates"`
	Errors           []models.RowError        `json:"errors"`
}

// Service orchestrates the upload pipeline.
type Service struct {
	documents DocumentStore
	sentences SentenceStore
	detector  *Detector
	publisher *events.Publisher
	metrics   *metrics.Metrics
	logger    logger.Logger
	timeout   time.Duration
}

func NewService(
	documents DocumentStore,
	sentences SentenceStore,
	detector *Detector,
	publisher *events.Publisher,
	m *metrics.Metrics,
	log logger.Logger,
	timeout time.Duration,
) *Service {
	return &Service{
		documents: documents,
		sentences: sentences,
		detector:  detector,
		publisher: publisher,
		metrics:   m,
		logger:    log,
		timeout:   timeout,
	}
}

// ProcessUpload runs one upload end to end. The tracking record is created
// before parsing begins and is driven to a terminal state on every path,
// including parse failures and total insert failures. The returned error is
// non-nil when the upload terminally failed; the result is non-nil whenever a
// tracking record exists.
func (s *Service) ProcessUpload(ctx context.Context, up Upload) (*UploadResult, error) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	doc := &models.Document{
		UserID:           up.UserID,
		OriginalFilename: up.Filename,
		FileSize:         int64(len(up.Data)),
		MimeType:         up.MimeType,
	}
	if err := s.documents.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create tracking record: %w", err)
	}

	rows, err := importer.Parse(up.Data, up.Filename)
	if err != nil {
		return s.fail(doc, start, err)
	}

	if s.metrics != nil {
		s.metrics.RowsParsed.Add(float64(len(rows)))
	}

	part := s.detector.Partition(ctx, rows)

	sentences := make([]models.Sentence, len(part.Valid))
	for i, row := range part.Valid {
		sentences[i] = row.ToSentence()
	}

	insert := s.sentences.InsertBatch(ctx, sentences, doc.ID)

	doc.TotalRows = len(rows)
	doc.SuccessfulInserts = len(insert.Inserted)
	doc.DuplicateCount = len(part.Duplicates)
	doc.Duplicates = part.Duplicates
	doc.Errors = part.Errors
	doc.Status = models.DocumentCompleted

	var batchFailure error
	for _, insErr := range insert.Errors {
		if insErr.Index < 0 {
			// The whole statement failed; no sentence was committed.
			doc.Status = models.DocumentFailed
			doc.Errors = append(doc.Errors, models.RowError{Row: 0, Message: insErr.Message})
			batchFailure = fmt.Errorf("bulk insert: %s", insErr.Message)
			continue
		}
		doc.Errors = append(doc.Errors, models.RowError{
			Row:     part.Valid[insErr.Index].Row,
			Message: insErr.Message,
		})
	}
	sort.Slice(doc.Errors, func(i, j int) bool { return doc.Errors[i].Row < doc.Errors[j].Row })
	doc.FailedInserts = len(doc.Errors)

	s.finish(doc, start)
	s.report(doc, up.Filename, batchFailure)

	result := s.result(doc)
	if batchFailure != nil {
		return result, batchFailure
	}
	return result, nil
}

// fail closes out the tracking record for an upload that never reached the
// insert stage.
func (s *Service) fail(doc *models.Document, start time.Time, cause error) (*UploadResult, error) {
	doc.Status = models.DocumentFailed
	doc.Errors = models.RowErrorList{{Row: 0, Message: cause.Error()}}
	doc.FailedInserts = len(doc.Errors)

	s.finish(doc, start)
	s.report(doc, doc.OriginalFilename, cause)

	return s.result(doc), fmt.Errorf("process upload: %w", cause)
}

func (s *Service) finish(doc *models.Document, start time.Time) {
	doc.ProcessingTimeMs = time.Since(start).Milliseconds()

	ctx, cancel := context.WithTimeout(context.Background(), finishTimeout)
	defer cancel()

	if err := s.documents.Finish(ctx, doc); err != nil {
		s.logger.Error("Failed to close tracking record",
			logger.String("document_id", doc.ID),
			logger.String("status", string(doc.Status)),
			logger.Error(err),
		)
	}
}

func (s *Service) report(doc *models.Document, filename string, cause error) {
	if s.metrics != nil {
		s.metrics.UploadsTotal.WithLabelValues(string(doc.Status)).Inc()
		s.metrics.SentencesInserted.Add(float64(doc.SuccessfulInserts))
		s.metrics.DuplicatesDetected.Add(float64(doc.DuplicateCount))
		s.metrics.RowErrors.Add(float64(doc.FailedInserts))
		s.metrics.UploadDuration.Observe(float64(doc.ProcessingTimeMs) / 1000)
	}

	if doc.Status == models.DocumentFailed {
		reason := ""
		if cause != nil {
			reason = cause.Error()
		}
		s.publisher.PublishAsync(events.Event{
			EventType: events.DocumentFailed,
			SubjectID: doc.ID,
			Payload: events.DocumentFailedPayload{
				Filename: filename,
				Reason:   reason,
			},
		})
		return
	}

	s.publisher.PublishAsync(events.Event{
		EventType: events.DocumentCompleted,
		SubjectID: doc.ID,
		Payload: events.DocumentCompletedPayload{
			Filename:          filename,
			TotalRows:         doc.TotalRows,
			SuccessfulInserts: doc.SuccessfulInserts,
			DuplicateCount:    doc.DuplicateCount,
			FailedInserts:     doc.FailedInserts,
		},
	})

	s.logger.Info("Upload processed",
		logger.String("document_id", doc.ID),
		logger.Int("total_rows", doc.TotalRows),
		logger.Int("inserted", doc.SuccessfulInserts),
		logger.Int("duplicates", doc.DuplicateCount),
		logger.Int("errors", doc.FailedInserts),
		logger.Int64("processing_time_ms", doc.ProcessingTimeMs),
	)
}

func (s *Service) result(doc *models.Document) *UploadResult {
	return &UploadResult{
		DocumentID:       doc.ID,
		Status:           doc.Status,
		TotalRows:        doc.TotalRows,
		InsertedCount:    doc.SuccessfulInserts,
		DuplicatesFound:  doc.DuplicateCount,
		ErrorsFound:      doc.FailedInserts,
		ProcessingTimeMs: doc.ProcessingTimeMs,
		Duplicates:       doc.Duplicates,
		Errors:           doc.Errors,
	}
}
