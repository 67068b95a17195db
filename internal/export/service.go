// Package export renders annotated sentences into downloadable files and
// records each export in the owning session's ledger.
package export

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/annolab/corpus-manager/internal/events"
	"github.com/annolab/corpus-manager/internal/logger"
	"github.com/annolab/corpus-manager/internal/metrics"
	"github.com/annolab/corpus-manager/internal/models"
	"github.com/annolab/corpus-manager/internal/repository"
	"github.com/annolab/corpus-manager/internal/storage"
)

var (
	// ErrNothingToExport is returned when the resolved candidate set is empty:
	// every annotated sentence has already been exported, or the explicit
	// selection filtered down to nothing.
	ErrNothingToExport = errors.New("no sentences eligible for export")
	// ErrNotAnnotated rejects an explicit selection containing a sentence the
	// session never annotated.
	ErrNotAnnotated = errors.New("sentence is not annotated in this session")
	// ErrForbidden rejects operations on a session owned by someone else.
	ErrForbidden = errors.New("session belongs to another user")
	// ErrExportObjectGone marks a historical export whose stored file no
	// longer exists; its retrieval reference cannot be refreshed.
	ErrExportObjectGone = errors.New("export object no longer exists")
)

// SessionStore is the slice of the session ledger the exporter needs.
type SessionStore interface {
	GetByID(ctx context.Context, id string) (*models.AnnotationSession, error)
	AppendExport(ctx context.Context, sessionID string, event models.ExportEvent, sentenceIDs []string) error
	UpdateExportURL(ctx context.Context, sessionID string, exportIndex int, url string) error
}

// SentenceStore is the slice of the corpus store the exporter needs.
type SentenceStore interface {
	GetByIDs(ctx context.Context, ids []string) ([]models.Sentence, error)
	MarkExported(ctx context.Context, ids []string, exportedAt time.Time) error
}

// Directory resolves annotator ids to display names for export metadata.
type Directory interface {
	DisplayName(ctx context.Context, userID string) (string, error)
}

// IdentityDirectory is the fallback directory: the id is the name.
type IdentityDirectory struct{}

func (IdentityDirectory) DisplayName(_ context.Context, userID string) (string, error) {
	return userID, nil
}

// Request selects what to export from a session. An empty SentenceIDs list
// means everything annotated but not yet exported. Format is "csv" (default)
// or "xlsx".
type Request struct {
	SessionID   string
	UserID      string
	SentenceIDs []string
	Format      string
}

// Result reports one completed export.
type Result struct {
	SessionID     string    `json:"sessionId"`
	SentenceCount int       `json:"sentenceCount"`
	FileName      string    `json:"fileName"`
	StorageKey    string    `json:"storageKey"`
	DownloadURL   string    `json:"downloadUrl"`
	ExportedAt    time.Time `json:"exportedAt"`
}

// Service runs session exports against the object store and both ledgers.
type Service struct {
	sessions  SessionStore
	sentences SentenceStore
	store     storage.ObjectStore
	directory Directory
	publisher *events.Publisher
	metrics   *metrics.Metrics
	logger    logger.Logger
	urlTTL    time.Duration
}

func NewService(
	sessions SessionStore,
	sentences SentenceStore,
	store storage.ObjectStore,
	directory Directory,
	publisher *events.Publisher,
	m *metrics.Metrics,
	log logger.Logger,
	urlTTL time.Duration,
) *Service {
	if directory == nil {
		directory = IdentityDirectory{}
	}
	return &Service{
		sessions:  sessions,
		sentences: sentences,
		store:     store,
		directory: directory,
		publisher: publisher,
		metrics:   m,
		logger:    log,
		urlTTL:    urlTTL,
	}
}

// ExportSession resolves the candidate set, renders the file, writes it to
// storage, and only then mutates the ledgers. A storage failure therefore
// leaves the session exactly as it was.
func (s *Service) ExportSession(ctx context.Context, req Request) (*Result, error) {
	session, err := s.sessions.GetByID(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID != req.UserID {
		return nil, ErrForbidden
	}

	ids, err := resolveCandidates(session, req.SentenceIDs)
	if err != nil {
		return nil, err
	}

	sentences, err := s.sentences.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load sentences: %w", err)
	}
	if len(sentences) == 0 {
		return nil, ErrNothingToExport
	}

	format := strings.ToLower(req.Format)
	if format == "" {
		format = "csv"
	}

	exportedAt := time.Now().UTC()
	fileName := fmt.Sprintf("%s_%s.%s",
		exportedAt.Format("20060102T150405"), uuid.New().String()[:8], format)
	key := fmt.Sprintf("exports/%s/%s/%s", session.UserID, session.ID, fileName)

	data, contentType, err := render(sentences, format)
	if err != nil {
		return nil, err
	}

	if err := s.store.Put(ctx, key, data, contentType); err != nil {
		if s.metrics != nil {
			s.metrics.ExportsTotal.WithLabelValues("failed").Inc()
		}
		return nil, fmt.Errorf("write export to storage: %w", err)
	}

	url, err := s.store.RetrievalURL(ctx, key, s.urlTTL)
	if err != nil {
		return nil, fmt.Errorf("build retrieval url: %w", err)
	}

	exportedBy, err := s.directory.DisplayName(ctx, req.UserID)
	if err != nil {
		exportedBy = req.UserID
	}

	exported := make([]string, len(sentences))
	for i, sentence := range sentences {
		exported[i] = sentence.ID
	}

	event := models.ExportEvent{
		ExportedAt:    exportedAt,
		ExportedBy:    exportedBy,
		SentenceCount: len(exported),
		FileName:      fileName,
		StorageKey:    key,
		DownloadURL:   url,
	}
	if err := s.sessions.AppendExport(ctx, session.ID, event, exported); err != nil {
		return nil, fmt.Errorf("record export: %w", err)
	}

	// Corpus-level exported_at is a projection of the session ledgers; a
	// failure here is logged, not fatal.
	if err := s.sentences.MarkExported(ctx, exported, exportedAt); err != nil {
		s.logger.Error("Failed to stamp exported sentences",
			logger.String("session_id", session.ID),
			logger.Int("sentence_count", len(exported)),
			logger.Error(err),
		)
	}

	if s.metrics != nil {
		s.metrics.ExportsTotal.WithLabelValues("completed").Inc()
		s.metrics.SentencesExported.Add(float64(len(exported)))
	}
	s.publisher.PublishAsync(events.Event{
		EventType: events.SessionExported,
		SubjectID: session.ID,
		Payload: events.SessionExportedPayload{
			UserID:        session.UserID,
			SentenceCount: len(exported),
			FileName:      fileName,
			StorageKey:    key,
		},
	})

	return &Result{
		SessionID:     session.ID,
		SentenceCount: len(exported),
		FileName:      fileName,
		StorageKey:    key,
		DownloadURL:   url,
		ExportedAt:    exportedAt,
	}, nil
}

// RegenerateURL issues a fresh retrieval URL for a historical export, after
// confirming the stored object still exists.
func (s *Service) RegenerateURL(ctx context.Context, sessionID, userID string, exportIndex int) (string, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if session.UserID != userID {
		return "", ErrForbidden
	}
	if exportIndex < 0 || exportIndex >= len(session.Exports) {
		return "", fmt.Errorf("%w: index %d", repository.ErrExportNotFound, exportIndex)
	}

	key := session.Exports[exportIndex].StorageKey
	exists, err := s.store.Exists(ctx, key)
	if err != nil {
		return "", fmt.Errorf("check export object: %w", err)
	}
	if !exists {
		return "", fmt.Errorf("%w: %s", ErrExportObjectGone, key)
	}

	url, err := s.store.RetrievalURL(ctx, key, s.urlTTL)
	if err != nil {
		return "", fmt.Errorf("build retrieval url: %w", err)
	}

	if err := s.sessions.UpdateExportURL(ctx, sessionID, exportIndex, url); err != nil {
		return "", err
	}
	return url, nil
}

// resolveCandidates computes the ids to export. Explicit selections must be
// annotated in this session; already-exported ids are silently skipped so the
// exported set stays a subset of the annotated set and files never overlap.
func resolveCandidates(session *models.AnnotationSession, requested []string) ([]string, error) {
	annotated := make(map[string]bool, len(session.AnnotatedIDs))
	for _, id := range session.AnnotatedIDs {
		annotated[id] = true
	}
	alreadyExported := make(map[string]bool, len(session.ExportedIDs))
	for _, id := range session.ExportedIDs {
		alreadyExported[id] = true
	}

	var ids []string
	if len(requested) > 0 {
		ids = make([]string, 0, len(requested))
		for _, id := range requested {
			if !annotated[id] {
				return nil, fmt.Errorf("%w: %s", ErrNotAnnotated, id)
			}
			if alreadyExported[id] {
				continue
			}
			ids = append(ids, id)
		}
	} else {
		ids = make([]string, 0, len(session.AnnotatedIDs))
		for _, id := range session.AnnotatedIDs {
			if !alreadyExported[id] {
				ids = append(ids, id)
			}
		}
	}

	if len(ids) == 0 {
		return nil, ErrNothingToExport
	}
	return ids, nil
}
