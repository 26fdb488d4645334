package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const DefaultTopic = "availability"

// RedisPublisher PUBLISHes events on "<topic>:<entity>" channels, which a
// push gateway can PSUBSCRIBE to with "<topic>:*".
type RedisPublisher struct {
	client *redis.Client
	topic  string
}

func NewRedisPublisher(ctx context.Context, url, topic string) (*RedisPublisher, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return NewRedisPublisherFromClient(client, topic), nil
}

func NewRedisPublisherFromClient(client *redis.Client, topic string) *RedisPublisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &RedisPublisher{client: client, topic: topic}
}

func (p *RedisPublisher) Channel(entity string) string {
	return p.topic + ":" + entity
}

func (p *RedisPublisher) Publish(ctx context.Context, evt ChangeEvent) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, p.Channel(evt.Entity), body).Err()
}

func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
