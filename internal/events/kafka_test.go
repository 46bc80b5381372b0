package events

import (
	"context"
	"testing"
	"time"
)

func TestNewKafkaPublisher_RequiresBrokers(t *testing.T) {
	if _, err := NewKafkaPublisher(nil); err == nil {
		t.Fatalf("expected error without brokers")
	}
}

func TestKafkaPublisher_UnreachableBroker(t *testing.T) {
	pub, err := NewKafkaPublisher([]string{"127.0.0.1:1"})
	if err != nil {
		t.Fatalf("creating publisher: %v", err)
	}
	defer pub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := pub.Publish(ctx, TopicEventAdded, EventAdded{Seq: 1}); err == nil {
		t.Fatalf("expected publish to fail without a broker")
	}
}
