package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/annolab/corpus-manager/internal/logger"
	"github.com/annolab/corpus-manager/internal/models"
)

var (
	// ErrSessionNotFound is returned by lookups on missing sessions.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSentenceExportLocked rejects removal of a sentence that has been
	// exported; exported membership is permanent within a session.
	ErrSentenceExportLocked = errors.New("sentence already exported from session")
	// ErrNotSessionMember rejects operations on a sentence the session never
	// annotated.
	ErrNotSessionMember = errors.New("sentence is not a session member")
	// ErrSessionHasExports rejects deletion of a session with a non-empty
	// export log; such sessions are archived instead.
	ErrSessionHasExports = errors.New("session has exports and cannot be deleted")
	// ErrExportNotFound is returned when an export-log index is out of range.
	ErrExportNotFound = errors.New("export event not found")
)

const sessionColumns = `id, user_id, name, description, status, annotated_ids, exported_ids,
	       total_annotated, total_exported, started_at, last_activity_at,
	       completed_at, exports, language_filter`

type SessionRepository struct {
	db     *sql.DB
	logger logger.Logger
}

func NewSessionRepository(db *sql.DB, log logger.Logger) *SessionRepository {
	return &SessionRepository{
		db:     db,
		logger: log,
	}
}

func (r *SessionRepository) Create(ctx context.Context, session *models.AnnotationSession) error {
	session.ID = uuid.New().String()
	session.Status = models.SessionActive
	session.StartedAt = time.Now()
	session.LastActivityAt = session.StartedAt

	query := `
		INSERT INTO annotation_sessions (
			id, user_id, name, description, status, annotated_ids, exported_ids,
			total_annotated, total_exported, started_at, last_activity_at,
			exports, language_filter
		) VALUES ($1, $2, $3, $4, $5, '{}', '{}', 0, 0, $6, $7, '[]', $8)
	`

	_, err := r.db.ExecContext(ctx,
		query,
		session.ID,
		session.UserID,
		session.Name,
		session.Description,
		session.Status,
		session.StartedAt,
		session.LastActivityAt,
		session.LanguageFilter,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	return nil
}

func (r *SessionRepository) GetByID(ctx context.Context, id string) (*models.AnnotationSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM annotation_sessions WHERE id = $1`

	session, err := scanSession(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query session: %w", err)
	}
	return session, nil
}

func (r *SessionRepository) List(ctx context.Context, userID string) ([]models.AnnotationSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM annotation_sessions
		WHERE user_id = $1 ORDER BY last_activity_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]models.AnnotationSession, 0)
	for rows.Next() {
		session, scanErr := scanSession(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan session: %w", scanErr)
		}
		sessions = append(sessions, *session)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("iterate sessions: %w", rowsErr)
	}

	return sessions, nil
}

// UpdateStatus applies a caller-driven status transition. completed_at is
// stamped the first time the status becomes "completed" and never reset.
func (r *SessionRepository) UpdateStatus(ctx context.Context, id string, status models.SessionStatus) error {
	query := `
		UPDATE annotation_sessions
		SET status = $2,
		    completed_at = CASE
		        WHEN $2 = 'completed' AND completed_at IS NULL THEN $3
		        ELSE completed_at
		    END,
		    last_activity_at = $3
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, status, time.Now())
	if err != nil {
		return fmt.Errorf("update session status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// AddAnnotated appends a sentence id to the annotated set in one guarded
// update, so two concurrent writers cannot double-count. Adding an id that is
// already present only refreshes last_activity_at.
func (r *SessionRepository) AddAnnotated(ctx context.Context, sessionID, sentenceID string) error {
	now := time.Now()

	query := `
		UPDATE annotation_sessions
		SET annotated_ids = array_append(annotated_ids, $2),
		    total_annotated = total_annotated + 1,
		    last_activity_at = $3
		WHERE id = $1 AND NOT ($2 = ANY(annotated_ids))
	`

	result, err := r.db.ExecContext(ctx, query, sessionID, sentenceID, now)
	if err != nil {
		return fmt.Errorf("add annotated sentence: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}

	// Already a member (idempotent add) or session missing: touch to tell apart.
	touch, err := r.db.ExecContext(ctx,
		`UPDATE annotation_sessions SET last_activity_at = $2 WHERE id = $1`, sessionID, now)
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	touched, err := touch.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if touched == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// RemoveAnnotated removes a sentence id from the annotated set unless it has
// been exported, in which case the removal is a policy violation and the
// session is left untouched.
func (r *SessionRepository) RemoveAnnotated(ctx context.Context, sessionID, sentenceID string) error {
	query := `
		UPDATE annotation_sessions
		SET annotated_ids = array_remove(annotated_ids, $2),
		    total_annotated = GREATEST(total_annotated - 1, 0),
		    last_activity_at = $3
		WHERE id = $1
		  AND $2 = ANY(annotated_ids)
		  AND NOT ($2 = ANY(exported_ids))
	`

	result, err := r.db.ExecContext(ctx, query, sessionID, sentenceID, time.Now())
	if err != nil {
		return fmt.Errorf("remove annotated sentence: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}

	// Classify the refusal.
	var isMember, isExported bool
	classify := `
		SELECT $2 = ANY(annotated_ids), $2 = ANY(exported_ids)
		FROM annotation_sessions WHERE id = $1
	`
	err = r.db.QueryRowContext(ctx, classify, sessionID, sentenceID).Scan(&isMember, &isExported)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrSessionNotFound
	}
	if err != nil {
		return fmt.Errorf("classify removal refusal: %w", err)
	}
	if isExported {
		return ErrSentenceExportLocked
	}
	if !isMember {
		return ErrNotSessionMember
	}
	return nil
}

// AppendExport atomically records one export: the event is appended to the
// log, the exported set is unioned with the exported ids, and the exported
// count is recomputed, all in a single statement. It is called only after the
// rendered file has been written to storage.
func (r *SessionRepository) AppendExport(ctx context.Context, sessionID string, event models.ExportEvent, sentenceIDs []string) error {
	eventJSON, err := json.Marshal([]models.ExportEvent{event})
	if err != nil {
		return fmt.Errorf("marshal export event: %w", err)
	}

	query := `
		UPDATE annotation_sessions
		SET exported_ids = (
		        SELECT COALESCE(array_agg(DISTINCT e), '{}')
		        FROM unnest(exported_ids || $2::text[]) AS e
		    ),
		    total_exported = (
		        SELECT COUNT(DISTINCT e)
		        FROM unnest(exported_ids || $2::text[]) AS e
		    ),
		    exports = exports || $3::jsonb,
		    last_activity_at = $4
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, sessionID, pq.Array(sentenceIDs), eventJSON, time.Now())
	if err != nil {
		return fmt.Errorf("append export: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrSessionNotFound
	}

	r.logger.Info("Export recorded",
		logger.String("session_id", sessionID),
		logger.Int("sentence_count", event.SentenceCount),
		logger.String("file_name", event.FileName),
	)

	return nil
}

// UpdateExportURL replaces the download reference of one historical export
// event without touching the exported set.
func (r *SessionRepository) UpdateExportURL(ctx context.Context, sessionID string, exportIndex int, url string) error {
	query := `
		UPDATE annotation_sessions
		SET exports = jsonb_set(exports, ARRAY[$2::text, 'download_url'], to_jsonb($3::text))
		WHERE id = $1 AND jsonb_array_length(exports) > $2
	`

	result, err := r.db.ExecContext(ctx, query, sessionID, exportIndex, url)
	if err != nil {
		return fmt.Errorf("update export url: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrExportNotFound
	}
	return nil
}

// Delete removes a session, refusing when its export log is non-empty.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM annotation_sessions WHERE id = $1 AND jsonb_array_length(exports) = 0`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}

	var hasExports bool
	err = r.db.QueryRowContext(ctx,
		`SELECT jsonb_array_length(exports) > 0 FROM annotation_sessions WHERE id = $1`, id,
	).Scan(&hasExports)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrSessionNotFound
	}
	if err != nil {
		return fmt.Errorf("classify delete refusal: %w", err)
	}
	if hasExports {
		return ErrSessionHasExports
	}
	return ErrSessionNotFound
}

// IsSentenceExported reports whether any session owned by userID lists the
// sentence in its exported set.
func (r *SessionRepository) IsSentenceExported(ctx context.Context, userID, sentenceID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM annotation_sessions
			WHERE user_id = $1 AND $2 = ANY(exported_ids)
		)
	`

	var exported bool
	if err := r.db.QueryRowContext(ctx, query, userID, sentenceID).Scan(&exported); err != nil {
		return false, fmt.Errorf("query exported membership: %w", err)
	}
	return exported, nil
}

func scanSession(row rowScanner) (*models.AnnotationSession, error) {
	var s models.AnnotationSession
	var description, languageFilter sql.NullString
	var completedAt sql.NullTime

	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.Name,
		&description,
		&s.Status,
		&s.AnnotatedIDs,
		&s.ExportedIDs,
		&s.TotalAnnotated,
		&s.TotalExported,
		&s.StartedAt,
		&s.LastActivityAt,
		&completedAt,
		&s.Exports,
		&languageFilter,
	)
	if err != nil {
		return nil, err
	}

	s.Description = description.String
	s.LanguageFilter = languageFilter.String
	if completedAt.Valid {
		s.CompletedAt = &completedAt.Time
	}

	return &s, nil
}
