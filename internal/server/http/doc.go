// Package httpserver provides the REST gateway for eventfeed: the bearer
// authenticated write endpoint, paged and filtered reads, SSE tail, and the
// websocket notification stream.
//
// Example:
//
//	rt, _ := runtime.Open(runtime.Options{DataDir: "./data", Fsync: pebblestore.FsyncModeAlways, Config: config.Default()})
//	s := httpserver.New(rt, svc, httpserver.Options{Hub: hub, Logger: logger})
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	_ = s.ListenAndServe(ctx, ":8080")
package httpserver
