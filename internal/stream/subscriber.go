package stream

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mbeoliero/kit/log"
	"github.com/mbeoliero/stayline/internal/entity"
	"github.com/mbeoliero/stayline/pkg/constant"
	"github.com/redis/go-redis/v9"
)

// Subscriber delivers message insert events for one user. Two filtered
// feeds exist per user, inbound (receiver == user) and outbound (echo of
// own sends); both are merged into a single channel here since the
// downstream classify step does not care which feed a row arrived on.
type Subscriber interface {
	Subscribe(ctx context.Context, userId string) (<-chan *entity.Message, func(), error)
}

// RedisSubscriber implements Subscriber over Redis pub/sub
type RedisSubscriber struct {
	rdb       *redis.Client
	queueSize int
}

// NewRedisSubscriber creates a new RedisSubscriber
func NewRedisSubscriber(rdb *redis.Client, queueSize int) *RedisSubscriber {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &RedisSubscriber{rdb: rdb, queueSize: queueSize}
}

// Subscribe opens both per-user event channels and streams decoded rows.
// The returned cancel func closes the subscription and the channel.
func (s *RedisSubscriber) Subscribe(ctx context.Context, userId string) (<-chan *entity.Message, func(), error) {
	inChan := fmt.Sprintf(constant.RedisChanInbound(), userId)
	outChan := fmt.Sprintf(constant.RedisChanOutbound(), userId)

	sub := s.rdb.Subscribe(ctx, inChan, outChan)
	// Force the subscription to establish before events can be missed
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, err
	}

	events := make(chan *entity.Message, s.queueSize)
	go func() {
		defer close(events)
		for raw := range sub.Channel() {
			var msg entity.Message
			if err := json.Unmarshal([]byte(raw.Payload), &msg); err != nil {
				log.CtxWarn(ctx, "decode message event failed, chan: %s, err: %v", raw.Channel, err)
				continue
			}
			select {
			case events <- &msg:
			case <-ctx.Done():
				return
			}
		}
	}()

	cancel := func() {
		if err := sub.Close(); err != nil {
			log.Warn("close subscription failed, user: %s, err: %v", userId, err)
		}
	}
	return events, cancel, nil
}
