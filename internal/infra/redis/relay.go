package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/redis/go-redis/v9"

	"trivia-game-service/internal/domain"
)

// Relay is a Redis pub/sub implementation of the broadcast gateway. Events
// are published to a shared channel and every service instance, including
// the publisher, re-delivers them to its local websocket hub. This keeps
// room fan-out consistent when more than one instance serves the same room.
type Relay struct {
	client  *redis.Client
	channel string
}

func NewRelay(client *redis.Client, channel string) *Relay {
	if channel == "" {
		channel = "game:events"
	}
	return &Relay{client: client, channel: channel}
}

type envelope struct {
	Room    string          `json:"room"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Broadcast publishes a room event. Delivery to local connections happens
// through the subscription loop in Run, not here.
func (r *Relay) Broadcast(ctx context.Context, roomID string, event domain.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("relay: marshal %s event: %v", event.Name(), err)
		return
	}
	raw, err := json.Marshal(envelope{Room: roomID, Type: event.Name(), Payload: payload})
	if err != nil {
		log.Printf("relay: marshal envelope: %v", err)
		return
	}
	if err := r.client.Publish(ctx, r.channel, raw).Err(); err != nil {
		log.Printf("relay: publish %s event: %v", event.Name(), err)
	}
}

// Run subscribes to the relay channel and forwards each event to deliver
// until ctx is canceled.
func (r *Relay) Run(ctx context.Context, deliver func(roomID, eventType string, payload json.RawMessage)) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				log.Printf("relay: bad envelope: %v", err)
				continue
			}
			deliver(env.Room, env.Type, env.Payload)
		}
	}
}
