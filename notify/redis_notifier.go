// notify/redis_notifier.go
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisNotifier hands notification intents to the delivery worker through
// Redis: LPUSH onto a per-recipient outbox list (durable until consumed)
// plus a PUBLISH so an online worker picks it up immediately. Rendering
// and actual delivery live entirely on the consumer side.
type RedisNotifier struct {
	rdb *redis.Client
}

func NewRedisNotifier(rdb *redis.Client) *RedisNotifier { return &RedisNotifier{rdb: rdb} }

type envelope struct {
	Recipient string          `json:"recipient"`
	Intent    string          `json:"intent"`
	Payload   json.RawMessage `json:"payload"`
	QueuedAt  int64           `json:"queuedAt"`
}

func outboxKey(recipient string) string { return fmt.Sprintf("notify:outbox:%s", recipient) }

const notifyChannel = "notify:pending"

func (n *RedisNotifier) Send(ctx context.Context, recipient, intent string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	b, _ := json.Marshal(envelope{
		Recipient: recipient,
		Intent:    intent,
		Payload:   raw,
		QueuedAt:  time.Now().Unix(),
	})

	pipe := n.rdb.TxPipeline()
	pipe.LPush(ctx, outboxKey(recipient), b)
	pipe.Publish(ctx, notifyChannel, recipient)
	_, err = pipe.Exec(ctx)
	return err
}
