package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/lib/pq"
)

// SessionStatus is the caller-driven state of an annotation session.
type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionPaused    SessionStatus = "paused"
	SessionCompleted SessionStatus = "completed"
	SessionExported  SessionStatus = "exported"
	// SessionArchived replaces deletion for sessions with a non-empty export log.
	SessionArchived SessionStatus = "archived"
)

// AnnotationSession groups the sentences a user annotated in one working
// session and tracks which of them have been exported. The exported set is
// always a subset of the annotated set, and ids never leave the exported set.
type AnnotationSession struct {
	ID             string          `json:"id" db:"id"`
	UserID         string          `json:"user_id" db:"user_id"`
	Name           string          `json:"name" db:"name"`
	Description    string          `json:"description,omitempty" db:"description"`
	Status         SessionStatus   `json:"status" db:"status"`
	AnnotatedIDs   pq.StringArray  `json:"annotated_sentence_ids" db:"annotated_ids"`
	ExportedIDs    pq.StringArray  `json:"exported_sentence_ids" db:"exported_ids"`
	TotalAnnotated int             `json:"total_annotated" db:"total_annotated"`
	TotalExported  int             `json:"total_exported" db:"total_exported"`
	StartedAt      time.Time       `json:"started_at" db:"started_at"`
	LastActivityAt time.Time       `json:"last_activity_at" db:"last_activity_at"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty" db:"completed_at"`
	Exports        ExportEventList `json:"exports" db:"exports"`
	LanguageFilter string          `json:"language_filter,omitempty" db:"language_filter"`
}

// ExportEvent is one append-only entry in a session's export log.
type ExportEvent struct {
	ExportedAt    time.Time `json:"exported_at"`
	ExportedBy    string    `json:"exported_by"`
	SentenceCount int       `json:"sentence_count"`
	FileName      string    `json:"file_name"`
	StorageKey    string    `json:"storage_key"`
	DownloadURL   string    `json:"download_url"`
}

// ExportEventList is a JSONB-stored export log.
type ExportEventList []ExportEvent

// Value implements driver.Valuer for JSONB storage.
func (l ExportEventList) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal([]ExportEvent{})
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner for JSONB retrieval.
func (l *ExportEventList) Scan(value any) error {
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
