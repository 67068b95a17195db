// Package ingest runs the upload pipeline: parse, detect duplicates, bulk
// insert, and close out the tracking record.
package ingest

import (
	"context"

	"github.com/annolab/corpus-manager/internal/importer"
	"github.com/annolab/corpus-manager/internal/logger"
	"github.com/annolab/corpus-manager/internal/models"
)

// ExistenceChecker answers the bulk duplicate query for a candidate set.
type ExistenceChecker interface {
	ExistingByText(ctx context.Context, texts []string) (map[string]string, error)
}

// Partition is the outcome of duplicate detection over one candidate batch.
// Every input row lands in exactly one bucket.
type Partition struct {
	Valid      []importer.SentenceRow
	Duplicates []models.DuplicateDetail
	Errors     []models.RowError
}

// Detector partitions parsed rows into insertable candidates, duplicates of
// existing corpus sentences, and rows with validation errors.
type Detector struct {
	checker ExistenceChecker
	logger  logger.Logger
}

func NewDetector(checker ExistenceChecker, log logger.Logger) *Detector {
	return &Detector{
		checker: checker,
		logger:  log,
	}
}

// Partition validates required fields, then resolves the whole batch against
// the corpus in one existence query keyed on sentence text. Repeats within the
// file count as duplicates of their first occurrence.
//
// When the existence query itself fails the batch is treated as all-new: the
// uniqueness constraint still rejects true corpus duplicates at insert time,
// so failing open loses that detail but never corrupts the corpus. In-file
// repeats need no query and are still deduplicated, keeping the per-row
// counters consistent.
func (d *Detector) Partition(ctx context.Context, rows []importer.SentenceRow) Partition {
	part := Partition{
		Valid:      make([]importer.SentenceRow, 0, len(rows)),
		Duplicates: make([]models.DuplicateDetail, 0),
		Errors:     make([]models.RowError, 0),
	}

	candidates := make([]importer.SentenceRow, 0, len(rows))
	texts := make([]string, 0, len(rows))
	for _, row := range rows {
		if msg, ok := validateRequired(row); !ok {
			part.Errors = append(part.Errors, models.RowError{Row: row.Row, Message: msg})
			continue
		}
		candidates = append(candidates, row)
		texts = append(texts, row.Text)
	}

	existing, err := d.checker.ExistingByText(ctx, texts)
	if err != nil {
		d.logger.Error("Existence query failed, treating batch as new",
			logger.Int("candidates", len(candidates)),
			logger.Error(err),
		)
		existing = map[string]string{}
	}

	seen := make(map[string]bool, len(candidates))
	for _, row := range candidates {
		if docID, dup := existing[row.Text]; dup {
			part.Duplicates = append(part.Duplicates, models.DuplicateDetail{
				Row:                row.Row,
				Text:               row.Text,
				ExistingDocumentID: docID,
			})
			continue
		}
		if seen[row.Text] {
			// Repeat within the same file; the first occurrence is inserted.
			part.Duplicates = append(part.Duplicates, models.DuplicateDetail{
				Row:  row.Row,
				Text: row.Text,
			})
			continue
		}
		seen[row.Text] = true
		part.Valid = append(part.Valid, row)
	}

	return part
}

// validateRequired checks presence of the fields every corpus sentence must
// carry. Enum values were already resolved by the parser; only presence is
// checked here.
func validateRequired(row importer.SentenceRow) (string, bool) {
	switch {
	case row.Text == "":
		return "missing required field: text", false
	case row.Language == "":
		return "missing required field: language", false
	case row.Country == "":
		return "missing required field: country", false
	case row.SourceType == "":
		return "missing required field: source_type", false
	case row.Domain == "":
		return "missing required field: domain", false
	case row.Theme == "":
		return "missing required field: theme", false
	}
	return "", true
}
