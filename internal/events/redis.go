package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultChannel is the pub/sub channel events are published on.
const DefaultChannel = "oracle.events"

// RedisSink publishes events as JSON on a Redis pub/sub channel.
type RedisSink struct {
	client  *redis.Client
	channel string
}

// NewRedisSink creates a sink backed by a new Redis client for addr.
func NewRedisSink(addr, password string, db int, channel string) *RedisSink {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  2 * time.Second,
		WriteTimeout: time.Second,
	})
	return NewRedisSinkFromClient(rdb, channel)
}

// NewRedisSinkFromClient wraps an existing client.
func NewRedisSinkFromClient(client *redis.Client, channel string) *RedisSink {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisSink{client: client, channel: channel}
}

// Channel returns the channel events are published on.
func (s *RedisSink) Channel() string {
	return s.channel
}

// Publish implements Sink.
func (s *RedisSink) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := s.client.Publish(ctx, s.channel, payload).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", s.channel, err)
	}
	return nil
}

// Close closes the underlying client.
func (s *RedisSink) Close() error {
	return s.client.Close()
}
