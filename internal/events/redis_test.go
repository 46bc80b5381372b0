package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestRedisPublisher_Publish(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	pub, err := NewRedisPublisher(ctx, "redis://"+mr.Addr())
	if err != nil {
		t.Fatalf("creating publisher: %v", err)
	}
	defer pub.Close()

	sc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { sc.Close() })
	sub := sc.Subscribe(ctx, TopicEventAdded)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatalf("subscribe confirm: %v", err)
	}

	if err := pub.Publish(ctx, TopicEventAdded, EventAdded{Seq: 7, Payload: []byte("gm fam!"), InsertedAt: 300}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case msg := <-sub.Channel():
		var got EventAdded
		if err := json.Unmarshal([]byte(msg.Payload), &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if got.Seq != 7 || string(got.Payload) != "gm fam!" || got.InsertedAt != 300 {
			t.Fatalf("unexpected event: %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for redis message")
	}
}

func TestNewRedisPublisher_BadURL(t *testing.T) {
	if _, err := NewRedisPublisher(context.Background(), "not-a-url"); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestNewRedisPublisher_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := NewRedisPublisher(ctx, "redis://"+addr); err == nil {
		t.Fatalf("expected ping error against closed server")
	}
}
