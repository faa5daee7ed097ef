package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/theleywin/talentnest-connections/src/models"
)

// RealtimeEvent is pushed to the notification channel of its recipient
type RealtimeEvent struct {
	EventID        string                  `json:"eventId"`
	Type           models.NotificationType `json:"type"`
	NotificationID primitive.ObjectID      `json:"notificationId"`
	RequestID      primitive.ObjectID      `json:"requestId"`
	RelatedUser    primitive.ObjectID      `json:"relatedUser"`
	CreatedAt      time.Time               `json:"createdAt"`
}

func newConnectionAcceptedEvent(n *models.Notification, requestID primitive.ObjectID) RealtimeEvent {
	return RealtimeEvent{
		EventID:        uuid.NewString(),
		Type:           n.Type,
		NotificationID: n.Id,
		RequestID:      requestID,
		RelatedUser:    n.RelatedUser,
		CreatedAt:      n.CreatedAt,
	}
}

type Publisher interface {
	Publish(ctx context.Context, recipient primitive.ObjectID, event RealtimeEvent) error
}

// NotificationChannel is the pub/sub channel a user's clients subscribe to
func NotificationChannel(user primitive.ObjectID) string {
	return "notifications:" + user.Hex()
}

// RedisPublisher publishes realtime events over Redis pub/sub
type RedisPublisher struct {
	client *redis.Client
}

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) Publish(ctx context.Context, recipient primitive.ObjectID, event RealtimeEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal realtime event: %w", err)
	}
	if err := p.client.Publish(ctx, NotificationChannel(recipient), payload).Err(); err != nil {
		return fmt.Errorf("publish realtime event: %w", err)
	}
	return nil
}
