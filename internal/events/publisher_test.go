package events_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/annolab/corpus-manager/internal/events"
)

func TestPublisher_NewPublisher_RequiresClient(t *testing.T) {
	t.Helper()

	pub := events.NewPublisher(nil, nil)
	if pub != nil {
		t.Error("expected nil publisher when client is nil")
	}
}

func TestPublisher_Publish_NilReceiverIsNoOp(t *testing.T) {
	t.Helper()

	var pub *events.Publisher
	event := events.Event{
		EventType: events.DocumentCompleted,
		SubjectID: uuid.New().String(),
		Payload:   events.DocumentCompletedPayload{Filename: "batch.csv"},
	}

	// Should not panic and return nil
	err := pub.Publish(context.Background(), event)
	if err != nil {
		t.Errorf("expected nil error for nil receiver, got: %v", err)
	}
}

func TestPublisher_PublishAsync_NilReceiverIsNoOp(t *testing.T) {
	t.Helper()

	var pub *events.Publisher
	event := events.Event{
		EventType: events.SessionExported,
		SubjectID: uuid.New().String(),
		Payload:   events.SessionExportedPayload{UserID: "user-1"},
	}

	// Should not panic
	pub.PublishAsync(event)

	// Give the goroutine a chance to run (though it should return immediately)
	time.Sleep(10 * time.Millisecond)
}
