// Package runtime wires storage and config into a single-node eventfeed
// instance. It exposes Open/Close, a basic health check, and OpenLog for
// the queue the feed service owns.
//
// Example:
//
//	cfg := config.Default()
//	rt, _ := runtime.Open(runtime.Options{DataDir: "./data", Fsync: pebblestore.FsyncModeAlways, Config: cfg})
//	defer rt.Close()
//	_ = rt.CheckHealth(context.Background())
//	q, _ := rt.OpenLog(cfg.Feed.Queue)
//	_, _ = q.Append(context.Background(), eventlog.Record{Payload: []byte("hello"), InsertedAt: 1})
package runtime
