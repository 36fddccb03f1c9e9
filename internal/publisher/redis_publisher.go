package publisher

import (
	"context"
	"fmt"
	"time"

	"github.com/segyhp/rental-engine/internal/domain"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// PayloadField is the stream entry field holding the JSON message.
const PayloadField = "payload"

type RedisPublisher struct {
	client *redis.Client
	prefix string
	maxLen int64
	now    func() time.Time
}

// NewRedisPublisher appends messages to Redis streams named "<prefix>.<stream>".
// maxLen caps each stream approximately; zero leaves them unbounded.
func NewRedisPublisher(client *redis.Client, prefix string, maxLen int64) *RedisPublisher {
	return &RedisPublisher{
		client: client,
		prefix: prefix,
		maxLen: maxLen,
		now:    time.Now,
	}
}

func (p *RedisPublisher) NotifyBookAvailability(ctx context.Context, bookID int64, status domain.BookAvailability) error {
	return p.publish(ctx, StreamBookStatus, BookStatusMessage{
		BookID:     bookID,
		BookStatus: string(status),
		OccurredAt: p.now(),
	})
}

func (p *RedisPublisher) NotifyCatalogEvent(ctx context.Context, bookID int64, eventType domain.CatalogEventType) error {
	return p.publish(ctx, StreamCatalog, CatalogMessage{
		BookID:     bookID,
		EventType:  string(eventType),
		OccurredAt: p.now(),
	})
}

func (p *RedisPublisher) CreditPoints(ctx context.Context, userID int64, amount decimal.Decimal) error {
	return p.publish(ctx, StreamPoints, PointsMessage{
		UserID:     userID,
		Points:     amount,
		OccurredAt: p.now(),
	})
}

// StreamName returns the full key for stream.
func (p *RedisPublisher) StreamName(stream string) string {
	return p.prefix + "." + stream
}

func (p *RedisPublisher) publish(ctx context.Context, stream string, message interface{}) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("encode %s message: %w", stream, err)
	}

	args := &redis.XAddArgs{
		Stream: p.StreamName(stream),
		Values: map[string]interface{}{PayloadField: payload},
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}

	if err = p.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("xadd %s: %w", args.Stream, err)
	}

	return nil
}
