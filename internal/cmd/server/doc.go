// Package serverrun exposes the Run entrypoint used by the CLI to start the
// feed, its tick driver, and the gRPC and HTTP servers, handling lifecycle
// and shutdown.
//
// Example:
//
//	cfg := config.Default()
//	cfg.Feed.AuthorizedIdentity = "alice"
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	_ = serverrun.Run(ctx, serverrun.Options{Config: cfg})
package serverrun
