package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultEventTTL outlasts the redelivery window of both supported processors.
const DefaultEventTTL = 72 * time.Hour

// EventLog records processed billing webhook events in Redis.
type EventLog struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

// NewEventLog returns an EventLog keyed under prefix. A zero ttl uses DefaultEventTTL.
func NewEventLog(client redis.Cmdable, prefix string, ttl time.Duration) *EventLog {
	if client == nil {
		panic("store: redis client is required")
	}
	if ttl <= 0 {
		ttl = DefaultEventTTL
	}
	return &EventLog{client: client, prefix: prefix, ttl: ttl}
}

// MarkProcessed sets the event key only if absent and reports whether it was set.
func (l *EventLog) MarkProcessed(ctx context.Context, provider, eventID string) (bool, error) {
	return l.client.SetNX(ctx, l.key(provider, eventID), time.Now().UTC().Format(time.RFC3339), l.ttl).Result()
}

func (l *EventLog) Forget(ctx context.Context, provider, eventID string) error {
	return l.client.Del(ctx, l.key(provider, eventID)).Err()
}

func (l *EventLog) key(provider, eventID string) string {
	k := "billing:event:" + provider + ":" + eventID
	if l.prefix == "" {
		return k
	}
	return l.prefix + ":" + k
}
