package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// Sentence is a persisted corpus record. Rows accepted from an upload batch
// start with collection fields only; the annotation workflow attaches the
// Annotation sub-object later, and the export path sets ExportedAt exactly once.
type Sentence struct {
	ID             string                  `json:"id" db:"id"`
	Text           string                  `json:"text" db:"text"`
	OriginalText   string                  `json:"original_text,omitempty" db:"original_text"`
	Language       string                  `json:"language" db:"language"`
	Script         Script                  `json:"script,omitempty" db:"script"`
	Country        string                  `json:"country" db:"country"`
	RegionDialect  string                  `json:"region_dialect,omitempty" db:"region_dialect"`
	SourceType     SourceType              `json:"source_type" db:"source_type"`
	SourceRef      string                  `json:"source_ref,omitempty" db:"source_ref"`
	CollectionDate string                  `json:"collection_date,omitempty" db:"collection_date"`
	Domain         Domain                  `json:"domain" db:"domain"`
	Topic          string                  `json:"topic,omitempty" db:"topic"`
	Theme          Theme                   `json:"theme" db:"theme"`
	Characteristic SensitiveCharacteristic `json:"sensitive_characteristic,omitempty" db:"sensitive_characteristic"`
	SafetyFlag     SafetyFlag              `json:"safety_flag,omitempty" db:"safety_flag"`
	PIIRemoved     bool                    `json:"pii_removed" db:"pii_removed"`
	Notes          string                  `json:"notes,omitempty" db:"notes"`
	DocumentID     *string                 `json:"document_id,omitempty" db:"document_id"`
	Annotation     *Annotation             `json:"annotation,omitempty" db:"annotation"`
	ExportedAt     *time.Time              `json:"exported_at,omitempty" db:"exported_at"`
	CreatedAt      time.Time               `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time               `json:"updated_at" db:"updated_at"`
}

// Annotation carries the labels attached to a sentence by an annotator.
type Annotation struct {
	Labels      []string  `json:"labels"`
	AnnotatorID string    `json:"annotator_id"`
	AnnotatedAt time.Time `json:"annotated_at"`
}

// ErrNilAnnotation is returned when valuing a nil annotation.
var ErrNilAnnotation = errors.New("annotation is nil")

// Value implements driver.Valuer for JSONB storage.
func (a *Annotation) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	return json.Marshal(a)
}

// Scan implements sql.Scanner for JSONB retrieval.
func (a *Annotation) Scan(value any) error {
	if value == nil {
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, a)
}
