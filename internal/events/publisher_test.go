package events

import (
	"context"
	"log/slog"
	"os"
	"testing"
)

func TestNewEvent(t *testing.T) {
	event := NewEvent(EventTicketCreated, map[string]int{"ticket_id": 7})

	if event.ID == "" {
		t.Error("event must carry a generated ID")
	}
	if event.Type != EventTicketCreated {
		t.Errorf("type = %s, want %s", event.Type, EventTicketCreated)
	}
	if event.Source != eventSource {
		t.Errorf("source = %s, want %s", event.Source, eventSource)
	}
	if event.Timestamp.IsZero() {
		t.Error("event must carry a timestamp")
	}
}

func TestMockEventPublisher(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	publisher := NewMockEventPublisher(logger)
	ctx := context.Background()

	t.Run("records published events in order", func(t *testing.T) {
		if err := publisher.Publish(ctx, NewEvent(EventTicketCreated, nil)); err != nil {
			t.Fatalf("Publish() error = %v", err)
		}
		if err := publisher.Publish(ctx, NewEvent(EventTicketEscalated, nil)); err != nil {
			t.Fatalf("Publish() error = %v", err)
		}

		published := publisher.GetPublishedEvents()
		if len(published) != 2 {
			t.Fatalf("expected 2 events, got %d", len(published))
		}
		if published[0].Type != EventTicketCreated || published[1].Type != EventTicketEscalated {
			t.Errorf("events out of order: %s, %s", published[0].Type, published[1].Type)
		}
	})

	t.Run("clear empties the log", func(t *testing.T) {
		publisher.ClearEvents()
		if got := publisher.GetPublishedEvents(); len(got) != 0 {
			t.Errorf("expected empty log after clear, got %d events", len(got))
		}
	})

	t.Run("close is a no-op", func(t *testing.T) {
		if err := publisher.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
}
