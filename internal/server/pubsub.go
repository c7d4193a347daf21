package server

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/reelmatch/chat-service/internal/types"
)

// RoomEvent is the wire format of the cross-process event bridge. All
// broadcasts (messages, read receipts, typing, moderation changes) go
// through the bus, so any gateway instance can reach a room's
// subscribers wherever they are connected.
type RoomEvent struct {
	RoomId       string         `json:"room_id"`
	Message      *types.Message `json:"message,omitempty"`
	Notification *Notification  `json:"notification,omitempty"`
}

type EventBus interface {
	Publish(event RoomEvent) error
	Events() <-chan RoomEvent
	Close() error
}

// RedisEventBus bridges room events between processes over a Redis
// pub/sub channel. Each subscriber instance fans received events out to
// its locally connected clients.
type RedisEventBus struct {
	log     *log.Logger
	rdb     *redis.Client
	channel string
	events  chan RoomEvent
	cancel  context.CancelFunc
}

func NewRedisEventBus(logger *log.Logger, rdb *redis.Client, channel string) *RedisEventBus {
	ctx, cancel := context.WithCancel(context.Background())

	b := &RedisEventBus{
		log:     logger,
		rdb:     rdb,
		channel: channel,
		events:  make(chan RoomEvent, 256),
		cancel:  cancel,
	}

	go b.listen(ctx)
	return b
}

func (b *RedisEventBus) listen(ctx context.Context) {
	pubsub := b.rdb.Subscribe(ctx, b.channel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			close(b.events)
			return
		case msg, ok := <-ch:
			if !ok {
				close(b.events)
				return
			}

			var ev RoomEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				b.log.Printf("unmarshal bus event: %v", err)
				continue
			}

			select {
			case b.events <- ev:
			default:
				b.log.Printf("event channel full, dropping event for room %q", ev.RoomId)
			}
		}
	}
}

func (b *RedisEventBus) Publish(event RoomEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return b.rdb.Publish(context.Background(), b.channel, payload).Err()
}

func (b *RedisEventBus) Events() <-chan RoomEvent {
	return b.events
}

func (b *RedisEventBus) Close() error {
	b.cancel()
	return nil
}

// LocalEventBus loops events back in process. Used when the server runs
// as a single instance without Redis, and in tests.
type LocalEventBus struct {
	events chan RoomEvent
}

func NewLocalEventBus() *LocalEventBus {
	return &LocalEventBus{events: make(chan RoomEvent, 256)}
}

func (b *LocalEventBus) Publish(event RoomEvent) error {
	b.events <- event
	return nil
}

func (b *LocalEventBus) Events() <-chan RoomEvent {
	return b.events
}

func (b *LocalEventBus) Close() error {
	close(b.events)
	return nil
}
