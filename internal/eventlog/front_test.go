package eventlog

import (
	"context"
	"testing"
)

type captureHook struct {
	calls [][]Record
}

func (c *captureHook) OnEvict(queue string, recs []Record) {
	c.calls = append(c.calls, recs)
}

func expiredAt(now, period uint64) FrontPredicate {
	return func(r Record, decoded bool) bool { return !decoded || r.ExpiredAt(now, period) }
}

func TestPopFrontEmptyPanics(t *testing.T) {
	l := newTestLog(t)
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on empty PopFront")
		}
	}()
	_ = l.PopFront(context.Background())
}

func TestPopFrontRemovesOldest(t *testing.T) {
	l := newTestLog(t)
	hook := &captureHook{}
	l.SetEvictionHook(hook)
	mustAppend(t, l, "a", 1)
	mustAppend(t, l, "b", 2)

	if err := l.PopFront(context.Background()); err != nil {
		t.Fatalf("pop: %v", err)
	}
	front, _ := l.FrontPayload()
	if string(front) != "b" || l.Len() != 1 {
		t.Fatalf("front=%q len=%d", front, l.Len())
	}
	if len(hook.calls) != 1 || string(hook.calls[0][0].Payload) != "a" {
		t.Fatalf("hook calls: %+v", hook.calls)
	}
}

func TestPopFrontWhileStopsAtFirstFresh(t *testing.T) {
	l := newTestLog(t)
	for i, at := range []uint64{0, 10, 20, 5000, 20} {
		mustAppend(t, l, string(rune('a'+i)), at)
	}
	n, err := l.PopFrontWhile(context.Background(), expiredAt(3615, 3600), 0)
	if err != nil {
		t.Fatalf("pop while: %v", err)
	}
	if n != 2 {
		t.Fatalf("want 2 removed, got %d", n)
	}
	front, _ := l.Front()
	if front.InsertedAt != 20 || front.Seq != 3 {
		t.Fatalf("unexpected front after prune: %+v", front)
	}
}

func TestPopFrontWhileBatches(t *testing.T) {
	l := newTestLog(t)
	hook := &captureHook{}
	l.SetEvictionHook(hook)
	for i := 0; i < 5; i++ {
		mustAppend(t, l, "x", uint64(i))
	}
	n, err := l.PopFrontWhile(context.Background(), func(Record, bool) bool { return true }, 2)
	if err != nil {
		t.Fatalf("pop while: %v", err)
	}
	if n != 5 || l.Len() != 0 {
		t.Fatalf("removed=%d len=%d", n, l.Len())
	}
	if len(hook.calls) != 3 {
		t.Fatalf("want 3 hook batches, got %d", len(hook.calls))
	}
	if hook.calls[0][0].Seq != 1 || hook.calls[2][0].Seq != 5 {
		t.Fatalf("hook batches out of order: %+v", hook.calls)
	}
	if _, ok := l.Front(); ok {
		t.Fatalf("drained queue should have no front")
	}
}

func TestPopFrontWhileOnEmptyIsNoop(t *testing.T) {
	l := newTestLog(t)
	n, err := l.PopFrontWhile(context.Background(), func(Record, bool) bool { return true }, 10)
	if err != nil || n != 0 {
		t.Fatalf("n=%d err=%v", n, err)
	}
}

func TestCorruptFrontIsRemovable(t *testing.T) {
	l := newTestLog(t)
	mustAppend(t, l, "bad", 100)
	mustAppend(t, l, "good", 100)
	if err := l.db.Set(KeyEntry(l.name, 1), []byte{0xde, 0xad}); err != nil {
		t.Fatalf("corrupt: %v", err)
	}
	if _, ok := l.Front(); ok {
		t.Fatalf("corrupt front should not decode")
	}
	if run := l.FrontExpiredRun(0, 3600); run != 1 {
		t.Fatalf("corrupt front counts as expired, run=%d", run)
	}

	hook := &captureHook{}
	l.SetEvictionHook(hook)
	n, err := l.PopFrontWhile(context.Background(), expiredAt(0, 3600), 10)
	if err != nil || n != 1 {
		t.Fatalf("n=%d err=%v", n, err)
	}
	if len(hook.calls) != 0 {
		t.Fatalf("undecodable records are not reported to the hook")
	}
	front, ok := l.FrontPayload()
	if !ok || string(front) != "good" {
		t.Fatalf("unexpected front %q", front)
	}
}

func TestFrontExpiredRun(t *testing.T) {
	l := newTestLog(t)
	if l.FrontExpiredRun(100, 10) != 0 {
		t.Fatalf("empty queue run must be 0")
	}
	mustAppend(t, l, "a", 0)
	mustAppend(t, l, "b", 300)
	cases := []struct {
		now  uint64
		want int
	}{
		{3600, 0},
		{3601, 1},
		{3900, 1},
		{3901, 2},
	}
	for _, c := range cases {
		if got := l.FrontExpiredRun(c.now, 3600); got != c.want {
			t.Fatalf("now=%d: want %d got %d", c.now, c.want, got)
		}
	}
	if l.Len() != 2 {
		t.Fatalf("FrontExpiredRun must not remove records")
	}
}
