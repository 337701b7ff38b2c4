package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"trivia-game-service/internal/domain"
)

func TestRelayRoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	relay := NewRelay(newClient(mr), "test:events")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type delivery struct {
		room    string
		event   string
		payload json.RawMessage
	}
	got := make(chan delivery, 1)

	done := make(chan error, 1)
	go func() {
		done <- relay.Run(ctx, func(roomID, eventType string, payload json.RawMessage) {
			got <- delivery{room: roomID, event: eventType, payload: payload}
		})
	}()

	// Give the subscriber a moment to attach before publishing.
	time.Sleep(50 * time.Millisecond)

	relay.Broadcast(ctx, "room-1", domain.QuestionEnded{
		QuestionID:      "q1",
		CorrectChoiceID: "c2",
	})

	select {
	case d := <-got:
		if d.room != "room-1" || d.event != "questionEnded" {
			t.Fatalf("unexpected delivery: %+v", d)
		}
		var payload domain.QuestionEnded
		if err := json.Unmarshal(d.payload, &payload); err != nil {
			t.Fatalf("unmarshal payload: %v", err)
		}
		if payload.CorrectChoiceID != "c2" {
			t.Fatalf("payload lost in transit: %+v", payload)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no delivery received")
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run returned error: %v", err)
	}
}
