// Package bus relays snapshots between server instances over Redis pub/sub.
package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/hppanpaliya/FairShare-AI/internal/models"
	"github.com/hppanpaliya/FairShare-AI/internal/realtime"
)

// DefaultChannel is used when no channel is configured.
const DefaultChannel = "fairshare-events"

// RedisRelay publishes snapshots to a Redis channel and feeds every snapshot
// received on it into the local hub. With a relay in place the billing
// service publishes to the relay, never to the hub directly, so each
// instance delivers each snapshot exactly once.
type RedisRelay struct {
	rdb     *goredis.Client
	channel string
	hub     *realtime.Hub
}

// NewRedisRelay connects to addr and verifies the connection.
func NewRedisRelay(ctx context.Context, addr, channel string, hub *realtime.Hub) (*RedisRelay, error) {
	if addr == "" {
		return nil, errors.New("missing redis address")
	}
	if hub == nil {
		return nil, errors.New("hub required")
	}
	if channel == "" {
		channel = DefaultChannel
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisRelay{rdb: rdb, channel: channel, hub: hub}, nil
}

// Publish sends the snapshot to every instance, this one included. If Redis
// is unreachable the snapshot is still delivered to local subscribers and
// the error is returned for logging.
func (r *RedisRelay) Publish(ctx context.Context, snapshot *models.Aggregate) error {
	msg := realtime.Message{Type: realtime.TypeEventUpdated, EventID: snapshot.Event.ID, Snapshot: snapshot}
	raw, err := encode(msg)
	if err != nil {
		return err
	}
	if err := r.rdb.Publish(ctx, r.channel, raw).Err(); err != nil {
		r.hub.Deliver(msg)
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// Start subscribes to the channel and forwards messages into the hub until
// ctx is cancelled. It returns once the subscription is confirmed.
func (r *RedisRelay) Start(ctx context.Context) error {
	sub := r.rdb.Subscribe(ctx, r.channel)

	// ensures subscription actually started
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}
	slog.Info("Redis relay subscribed", "channel", r.channel)

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					return
				}
				msg, err := decode([]byte(m.Payload))
				if err != nil {
					slog.Warn("Bad redis relay payload", "error", err)
					continue
				}
				r.hub.Deliver(msg)
			}
		}
	}()
	return nil
}

// Close closes the Redis client.
func (r *RedisRelay) Close() error {
	return r.rdb.Close()
}

func encode(msg realtime.Message) ([]byte, error) {
	return json.Marshal(msg)
}

func decode(raw []byte) (realtime.Message, error) {
	var msg realtime.Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return msg, err
	}
	if msg.EventID == "" {
		return msg, errors.New("message without event id")
	}
	return msg, nil
}
