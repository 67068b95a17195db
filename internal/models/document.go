package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// DocumentStatus is the lifecycle state of one upload attempt.
type DocumentStatus string

const (
	// DocumentProcessing is the initial state, set before parsing begins.
	DocumentProcessing DocumentStatus = "processing"
	// DocumentCompleted is the terminal state of a finished upload.
	DocumentCompleted DocumentStatus = "completed"
	// DocumentFailed is the terminal state of an upload that could not finish.
	DocumentFailed DocumentStatus = "failed"
)

// Document tracks one upload attempt end to end. It is created with zero
// counters and status "processing", then updated exactly once with the
// terminal status and final counts.
type Document struct {
	ID                string         `json:"id" db:"id"`
	UserID            string         `json:"user_id" db:"user_id"`
	OriginalFilename  string         `json:"original_filename" db:"original_filename"`
	StorageKey        string         `json:"storage_key,omitempty" db:"storage_key"`
	FileSize          int64          `json:"file_size" db:"file_size"`
	MimeType          string         `json:"mime_type,omitempty" db:"mime_type"`
	TotalRows         int            `json:"total_rows" db:"total_rows"`
	SuccessfulInserts int            `json:"successful_inserts" db:"successful_inserts"`
	FailedInserts     int            `json:"failed_inserts" db:"failed_inserts"`
	DuplicateCount    int            `json:"duplicate_count" db:"duplicate_count"`
	Duplicates        DuplicateList  `json:"duplicates" db:"duplicates"`
	Errors            RowErrorList   `json:"errors" db:"errors"`
	ProcessingTimeMs  int64          `json:"processing_time_ms" db:"processing_time_ms"`
	Status            DocumentStatus `json:"status" db:"status"`
	CreatedAt         time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at" db:"updated_at"`
}

// DuplicateDetail records one candidate row that matched an existing corpus
// sentence, with the batch that originally inserted it.
type DuplicateDetail struct {
	Row                int    `json:"row"`
	Text               string `json:"text"`
	ExistingDocumentID string `json:"existing_document_id"`
}

// RowError records a validation or insert failure for one source row.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// DuplicateList is a JSONB-stored list of duplicate details.
type DuplicateList []DuplicateDetail

// Value implements driver.Valuer for JSONB storage.
func (l DuplicateList) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal([]DuplicateDetail{})
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner for JSONB retrieval.
func (l *DuplicateList) Scan(value any) error {
	if value == nil {
		*l = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, l)
}

// RowErrorList is a JSONB-stored list of row errors.
type RowErrorList []RowError

// Value implements driver.Valuer for JSONB storage.
func (l RowErrorList) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal([]RowError{})
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner for JSONB retrieval.
func (l *RowErrorList) Scan(value any) error {
	if value == nil {
		*l = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, l)
}

// DocumentStats aggregates ledger counters, optionally scoped to one owner.
type DocumentStats struct {
	TotalDocuments    int `json:"total_documents"`
	CompletedCount    int `json:"completed_count"`
	FailedCount       int `json:"failed_count"`
	ProcessingCount   int `json:"processing_count"`
	TotalRows         int `json:"total_rows"`
	SuccessfulInserts int `json:"successful_inserts"`
	FailedInserts     int `json:"failed_inserts"`
	DuplicateCount    int `json:"duplicate_count"`
}

// DailyUploadStat is one day's bucket in the processing history projection.
type DailyUploadStat struct {
	Day               time.Time `json:"day"`
	Uploads           int       `json:"uploads"`
	SuccessfulInserts int       `json:"successful_inserts"`
	DuplicateCount    int       `json:"duplicate_count"`
	FailedInserts     int       `json:"failed_inserts"`
}
