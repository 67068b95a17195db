// Package events publishes corpus lifecycle events to Redis Streams.
package events

import (
	"time"

	"github.com/google/uuid"
)

// StreamName is the Redis stream all corpus events are appended to.
const StreamName = "corpus:events"

// EventType identifies the kind of corpus event.
type EventType string

const (
	DocumentCompleted EventType = "document.completed"
	DocumentFailed    EventType = "document.failed"
	SessionExported   EventType = "session.exported"
)

// Event is the envelope written to the stream.
type Event struct {
	EventID   uuid.UUID `json:"event_id"`
	EventType EventType `json:"event_type"`
	SubjectID string    `json:"subject_id"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

// DocumentCompletedPayload carries the terminal counters of an upload.
type DocumentCompletedPayload struct {
	Filename          string `json:"filename"`
	TotalRows         int    `json:"total_rows"`
	SuccessfulInserts int    `json:"successful_inserts"`
	DuplicateCount    int    `json:"duplicate_count"`
	FailedInserts     int    `json:"failed_inserts"`
}

// DocumentFailedPayload carries the failure reason of an upload.
type DocumentFailedPayload struct {
	Filename string `json:"filename"`
	Reason   string `json:"reason"`
}

// SessionExportedPayload carries the outcome of a session export.
type SessionExportedPayload struct {
	UserID        string `json:"user_id"`
	SentenceCount int    `json:"sentence_count"`
	FileName      string `json:"file_name"`
	StorageKey    string `json:"storage_key"`
}
