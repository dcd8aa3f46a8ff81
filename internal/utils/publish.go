package utils

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"
)

// Каналы событий, которые слушает notification service
const (
	BookingEventsChannel = "booking_events"
	PaymentEventsChannel = "payment_events"
	ReviewEventsChannel  = "review_events"
	SupportEventsChannel = "support_events"
)

type EventPayload struct {
	UserID    string            `json:"user_id"`
	Role      string            `json:"role"`
	EventType string            `json:"event_type,omitempty"`
	Title     string            `json:"title,omitempty"`
	Message   string            `json:"message"`
	ExtraData map[string]string `json:"extra_data,omitempty"`
}

func PublishEvent(ctx context.Context, rdb *redis.Client, channel string, payload EventPayload) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Failed to marshal event for %s: %v", channel, err)
		return
	}
	if err := rdb.Publish(ctx, channel, data).Err(); err != nil {
		log.Printf("Failed to publish event to %s: %v", channel, err)
	}
}
