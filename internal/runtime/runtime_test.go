package runtime

import (
	"context"
	"testing"
	"time"

	cfgpkg "github.com/rzbill/eventfeed/internal/config"
	"github.com/rzbill/eventfeed/internal/eventlog"
	pebblestore "github.com/rzbill/eventfeed/internal/storage/pebble"
)

func TestOpenCloseHealth(t *testing.T) {
	dir := t.TempDir()
	rt, err := Open(Options{DataDir: dir, Fsync: pebblestore.FsyncModeAlways, Config: cfgpkg.Default()})
	if err != nil {
		t.Fatalf("open runtime: %v", err)
	}
	defer rt.Close()
	if err := rt.CheckHealth(context.Background()); err != nil {
		t.Fatalf("health: %v", err)
	}
	if rt.Config().Feed.Queue != "events" {
		t.Fatalf("config not carried")
	}
}

func TestHealthCanceledContext(t *testing.T) {
	rt, err := Open(Options{DataDir: t.TempDir(), Fsync: pebblestore.FsyncModeAlways})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rt.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := rt.CheckHealth(ctx); err == nil {
		t.Fatalf("expected canceled context error")
	}
}

func TestOpenLogAcrossRestart(t *testing.T) {
	dir := t.TempDir()
	opts := Options{DataDir: dir, Fsync: pebblestore.FsyncModeInterval, FsyncInterval: 5 * time.Millisecond}
	rt, err := Open(opts)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	q, err := rt.OpenLog("events")
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	if _, err := q.Append(context.Background(), eventlog.Record{Payload: []byte("hello"), InsertedAt: 7}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := rt.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	rt, err = Open(opts)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer rt.Close()
	q, err = rt.OpenLog("events")
	if err != nil {
		t.Fatalf("reopen log: %v", err)
	}
	back, ok := q.Back()
	if !ok || string(back.Payload) != "hello" || back.InsertedAt != 7 {
		t.Fatalf("unexpected back after restart: %+v ok=%v", back, ok)
	}
	if _, err := rt.OpenLog(""); err == nil {
		t.Fatalf("expected error for empty queue name")
	}
}
