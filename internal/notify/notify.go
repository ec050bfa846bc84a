// Package notify publishes new-order events to interested collaborators.
// Publishing is best-effort: the caller fires it after commit and logs
// failures without ever failing the order itself.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/cheapshop/backend/internal/order"
)

const EventOrderCreated = "OrderCreated"

// Envelope wraps every published event with routing metadata.
type Envelope struct {
	EventID      string          `json:"event_id"`
	EventType    string          `json:"event_type"`
	EventVersion int             `json:"event_version"`
	OccurredAt   time.Time       `json:"occurred_at"`
	Producer     string          `json:"producer"`
	Payload      json.RawMessage `json:"payload"`
}

type Redis struct {
	client  *redis.Client
	channel string
}

func NewRedis(addr, channel string) *Redis {
	client := redis.NewClient(&redis.Options{Addr: addr})
	return &Redis{client: client, channel: channel}
}

func (n *Redis) NotifyNewOrder(ctx context.Context, o *order.Order) error {
	payload, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("notify: failed to marshal order %d: %w", o.ID, err)
	}

	eventID, err := uuid.NewV4()
	if err != nil {
		return fmt.Errorf("notify: failed to generate event id: %w", err)
	}

	env := Envelope{
		EventID:      eventID.String(),
		EventType:    EventOrderCreated,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Producer:     "cheapshop-backend",
		Payload:      payload,
	}
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("notify: failed to marshal envelope: %w", err)
	}

	if err := n.client.Publish(ctx, n.channel, body).Err(); err != nil {
		return fmt.Errorf("notify: failed to publish order %d: %w", o.ID, err)
	}

	log.Debug().Int64("order_id", o.ID).Str("channel", n.channel).Msg("notify: order event published")
	return nil
}

func (n *Redis) Close() error {
	return n.client.Close()
}

// Noop is used when no notification transport is configured.
type Noop struct{}

func (Noop) NotifyNewOrder(ctx context.Context, o *order.Order) error {
	return nil
}
