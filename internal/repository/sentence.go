package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/annolab/corpus-manager/internal/logger"
	"github.com/annolab/corpus-manager/internal/models"
)

// ErrSentenceNotFound is returned by point lookups on missing sentences.
var ErrSentenceNotFound = errors.New("sentence not found")

const sentenceColumns = `id, text, original_text, language, script, country, region_dialect,
	       source_type, source_ref, collection_date, domain, topic, theme,
	       sensitive_characteristic, safety_flag, pii_removed, notes,
	       document_id, annotation, exported_at, created_at, updated_at`

const sentenceInsertColumnCount = 20

type SentenceRepository struct {
	db     *sql.DB
	logger logger.Logger
}

func NewSentenceRepository(db *sql.DB, log logger.Logger) *SentenceRepository {
	return &SentenceRepository{
		db:     db,
		logger: log,
	}
}

// InsertError reports one record that failed during a bulk insert. Index is
// the record's position within the attempted batch, not the source file row;
// the caller re-maps it to the original row numbering.
type InsertError struct {
	Index   int    `json:"index"`
	Message string `json:"message"`
}

// BulkInsertResult separates committed records from per-record failures.
type BulkInsertResult struct {
	Inserted []models.Sentence
	Errors   []InsertError
}

// ExistingByText answers the bulk existence query for duplicate detection:
// one round trip for the whole candidate set, mapping each already-present
// text to the upload batch that owns it (empty string for pre-batch records).
func (r *SentenceRepository) ExistingByText(ctx context.Context, texts []string) (map[string]string, error) {
	if len(texts) == 0 {
		return map[string]string{}, nil
	}

	query := `SELECT text, document_id FROM sentences WHERE text = ANY($1)`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(texts))
	if err != nil {
		return nil, fmt.Errorf("query existing sentences: %w", err)
	}
	defer rows.Close()

	existing := make(map[string]string)
	for rows.Next() {
		var text string
		var documentID sql.NullString
		if scanErr := rows.Scan(&text, &documentID); scanErr != nil {
			return nil, fmt.Errorf("scan existing sentence: %w", scanErr)
		}
		existing[text] = documentID.String
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("iterate existing sentences: %w", rowsErr)
	}

	return existing, nil
}

// InsertBatch commits the batch in a single unordered multi-row insert.
// A uniqueness conflict on one record does not abort its siblings: conflicting
// rows are skipped by the database and surface as per-record errors. On total
// failure the result carries zero inserted records and one synthetic error.
// Every inserted record is stamped with documentID, regardless of any batch
// reference the candidate already carried.
func (r *SentenceRepository) InsertBatch(ctx context.Context, sentences []models.Sentence, documentID string) BulkInsertResult {
	if len(sentences) == 0 {
		return BulkInsertResult{Inserted: []models.Sentence{}, Errors: []InsertError{}}
	}

	now := time.Now()
	args := make([]any, 0, len(sentences)*sentenceInsertColumnCount)
	placeholders := make([]string, 0, len(sentences))

	for i := range sentences {
		s := &sentences[i]
		s.ID = uuid.New().String()
		s.DocumentID = &documentID
		s.CreatedAt = now
		s.UpdatedAt = now

		base := i * sentenceInsertColumnCount
		group := make([]string, sentenceInsertColumnCount)
		for j := range group {
			group[j] = fmt.Sprintf("$%d", base+j+1)
		}
		placeholders = append(placeholders, "("+strings.Join(group, ", ")+")")

		args = append(args,
			s.ID, s.Text, s.OriginalText, s.Language, string(s.Script), s.Country,
			s.RegionDialect, string(s.SourceType), s.SourceRef, s.CollectionDate,
			string(s.Domain), s.Topic, string(s.Theme), string(s.Characteristic),
			string(s.SafetyFlag), s.PIIRemoved, s.Notes, documentID, now, now,
		)
	}

	// ON CONFLICT DO NOTHING keeps the batch unordered and partial-failure
	// tolerant; RETURNING identifies exactly which records were committed.
	query := `
		INSERT INTO sentences (
			id, text, original_text, language, script, country, region_dialect,
			source_type, source_ref, collection_date, domain, topic, theme,
			sensitive_characteristic, safety_flag, pii_removed, notes,
			document_id, created_at, updated_at
		) VALUES ` + strings.Join(placeholders, ", ") + `
		ON CONFLICT (text) DO NOTHING
		RETURNING text
	`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return BulkInsertResult{
			Inserted: []models.Sentence{},
			Errors: []InsertError{
				{Index: -1, Message: fmt.Sprintf("bulk insert failed: %v", err)},
			},
		}
	}
	defer rows.Close()

	committed := make(map[string]bool, len(sentences))
	for rows.Next() {
		var text string
		if scanErr := rows.Scan(&text); scanErr != nil {
			return BulkInsertResult{
				Inserted: []models.Sentence{},
				Errors: []InsertError{
					{Index: -1, Message: fmt.Sprintf("scan inserted sentence: %v", scanErr)},
				},
			}
		}
		committed[text] = true
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return BulkInsertResult{
			Inserted: []models.Sentence{},
			Errors: []InsertError{
				{Index: -1, Message: fmt.Sprintf("iterate inserted sentences: %v", rowsErr)},
			},
		}
	}

	result := BulkInsertResult{
		Inserted: make([]models.Sentence, 0, len(committed)),
		Errors:   make([]InsertError, 0),
	}
	for i := range sentences {
		if committed[sentences[i].Text] {
			result.Inserted = append(result.Inserted, sentences[i])
		} else {
			result.Errors = append(result.Errors, InsertError{
				Index:   i,
				Message: "uniqueness conflict on text",
			})
		}
	}

	r.logger.Info("Bulk insert finished",
		logger.String("document_id", documentID),
		logger.Int("attempted", len(sentences)),
		logger.Int("inserted", len(result.Inserted)),
		logger.Int("failed", len(result.Errors)),
	)

	return result
}

func (r *SentenceRepository) GetByID(ctx context.Context, id string) (*models.Sentence, error) {
	query := `SELECT ` + sentenceColumns + ` FROM sentences WHERE id = $1`

	s, err := scanSentence(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSentenceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query sentence: %w", err)
	}
	return s, nil
}

// GetByIDs fetches sentences for an export, preserving no particular order.
func (r *SentenceRepository) GetByIDs(ctx context.Context, ids []string) ([]models.Sentence, error) {
	if len(ids) == 0 {
		return []models.Sentence{}, nil
	}

	query := `SELECT ` + sentenceColumns + ` FROM sentences WHERE id = ANY($1)`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("query sentences: %w", err)
	}
	defer rows.Close()

	sentences := make([]models.Sentence, 0, len(ids))
	for rows.Next() {
		s, scanErr := scanSentence(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan sentence: %w", scanErr)
		}
		sentences = append(sentences, *s)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("iterate sentences: %w", rowsErr)
	}

	return sentences, nil
}

// UpdateAnnotation attaches labels to a sentence (point update by id).
func (r *SentenceRepository) UpdateAnnotation(ctx context.Context, id string, annotation *models.Annotation) error {
	query := `UPDATE sentences SET annotation = $2, updated_at = $3 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, annotation, time.Now())
	if err != nil {
		return fmt.Errorf("update annotation: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrSentenceNotFound
	}
	return nil
}

// MarkExported stamps exported_at on the given sentences. The marker is set
// exactly once: records already carrying one keep their original timestamp.
func (r *SentenceRepository) MarkExported(ctx context.Context, ids []string, exportedAt time.Time) error {
	if len(ids) == 0 {
		return nil
	}

	query := `
		UPDATE sentences
		SET exported_at = $2, updated_at = $2
		WHERE id = ANY($1) AND exported_at IS NULL
	`

	if _, err := r.db.ExecContext(ctx, query, pq.Array(ids), exportedAt); err != nil {
		return fmt.Errorf("mark sentences exported: %w", err)
	}
	return nil
}

// DeleteByDocumentID removes a whole upload batch from the corpus.
func (r *SentenceRepository) DeleteByDocumentID(ctx context.Context, documentID string) (int64, error) {
	query := `DELETE FROM sentences WHERE document_id = $1`

	result, err := r.db.ExecContext(ctx, query, documentID)
	if err != nil {
		return 0, fmt.Errorf("delete sentences by document: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}

	r.logger.Info("Deleted upload batch",
		logger.String("document_id", documentID),
		logger.Int64("sentences_removed", affected),
	)

	return affected, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSentence(row rowScanner) (*models.Sentence, error) {
	var s models.Sentence
	var originalText, regionDialect, sourceRef, collectionDate sql.NullString
	var topic, notes, script, characteristic, safetyFlag sql.NullString
	var documentID sql.NullString
	var annotation models.Annotation
	var annotated sql.NullString
	var exportedAt sql.NullTime

	err := row.Scan(
		&s.ID, &s.Text, &originalText, &s.Language, &script, &s.Country,
		&regionDialect, &s.SourceType, &sourceRef, &collectionDate,
		&s.Domain, &topic, &s.Theme, &characteristic, &safetyFlag,
		&s.PIIRemoved, &notes, &documentID, &annotated, &exportedAt,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	s.OriginalText = originalText.String
	s.RegionDialect = regionDialect.String
	s.SourceRef = sourceRef.String
	s.CollectionDate = collectionDate.String
	s.Topic = topic.String
	s.Notes = notes.String
	s.Script = models.Script(script.String)
	s.Characteristic = models.SensitiveCharacteristic(characteristic.String)
	s.SafetyFlag = models.SafetyFlag(safetyFlag.String)

	if documentID.Valid {
		s.DocumentID = &documentID.String
	}
	if annotated.Valid && annotated.String != "" {
		if unmarshalErr := annotation.Scan([]byte(annotated.String)); unmarshalErr == nil {
			s.Annotation = &annotation
		}
	}
	if exportedAt.Valid {
		s.ExportedAt = &exportedAt.Time
	}

	return &s, nil
}
