package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type failingPublisher struct{ calls int }

func (f *failingPublisher) Publish(context.Context, ChangeEvent) error {
	f.calls++
	return errors.New("broker down")
}

func (f *failingPublisher) Close() error { return nil }

func TestEmitterPublishes(t *testing.T) {
	pub := &MemoryPublisher{}
	emitter := NewEmitter(pub)
	emitter.now = func() time.Time { return time.Date(2030, 1, 1, 10, 0, 0, 0, time.FixedZone("CET", 3600)) }

	emitter.Emit(context.Background(), "schedule", ActionUpdated, "s1", map[string]string{"status": "Booked"})

	got := pub.Events()
	if len(got) != 1 {
		t.Fatalf("expected one event, got %d", len(got))
	}
	if got[0].RoutingKey() != "schedule.updated" || got[0].ID != "s1" {
		t.Errorf("unexpected event %+v", got[0])
	}
	if got[0].OccurredAt.Location() != time.UTC || got[0].OccurredAt.Hour() != 9 {
		t.Errorf("expected UTC stamp, got %v", got[0].OccurredAt)
	}
}

func TestEmitterSwallowsPublishFailure(t *testing.T) {
	pub := &failingPublisher{}
	NewEmitter(pub).Emit(context.Background(), "user", ActionDeleted, "u1", nil)
	if pub.calls != 1 {
		t.Fatalf("expected one publish attempt, got %d", pub.calls)
	}
}

func TestNilPublisherFallsBackToNop(t *testing.T) {
	NewEmitter(nil).Emit(context.Background(), "user", ActionCreated, "u1", nil)
}

func TestRedisChannels(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 200 * time.Millisecond})
	pub := NewRedisPublisherFromClient(client, "")
	defer pub.Close()

	if got := pub.Channel("appointment"); got != "availability:appointment" {
		t.Errorf("unexpected channel %s", got)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := pub.Publish(ctx, ChangeEvent{Entity: "appointment", Action: ActionCreated, ID: "a1"}); err == nil {
		t.Fatal("expected publish to an unreachable server to fail")
	}
}

func TestAMQPPublishWithoutConnection(t *testing.T) {
	pub := &AMQPPublisher{exchange: DefaultExchange}
	if err := pub.Publish(context.Background(), ChangeEvent{Entity: "schedule", Action: ActionCreated}); err == nil {
		t.Fatal("expected an error without a connection")
	}
	if err := pub.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestKafkaMessage(t *testing.T) {
	at := time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)
	msg, err := kafkaMessage(ChangeEvent{Entity: "schedule", Action: ActionUpdated, ID: "s1", OccurredAt: at})
	if err != nil {
		t.Fatal(err)
	}
	if string(msg.Key) != "s1" || !msg.Time.Equal(at) {
		t.Errorf("unexpected message %+v", msg)
	}
	if len(msg.Headers) == 0 || msg.Headers[0].Key != "routing-key" || string(msg.Headers[0].Value) != "schedule.updated" {
		t.Errorf("unexpected headers %+v", msg.Headers)
	}
}

func TestKafkaPublisherNeedsBrokers(t *testing.T) {
	if _, err := NewKafkaPublisher(" , ", ""); err == nil {
		t.Fatal("expected an error for an empty broker list")
	}
	pub, err := NewKafkaPublisher("127.0.0.1:1", "")
	if err != nil {
		t.Fatal(err)
	}
	if pub.writer.Topic != DefaultTopic {
		t.Errorf("topic = %s, want %s", pub.writer.Topic, DefaultTopic)
	}
	if pub.writer.BatchSize != 1 || pub.writer.BatchTimeout > 10*time.Millisecond {
		t.Errorf("writer must flush each event immediately, got size %d timeout %v", pub.writer.BatchSize, pub.writer.BatchTimeout)
	}
	if err := pub.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
