package transports

import "context"

// Record is one feed entry as the CLI sees it.
type Record struct {
	Seq        uint64
	Payload    []byte
	InsertedAt uint64
}

// FeedTransport abstracts the transport used by the CLI (gRPC/HTTP).
type FeedTransport interface {
	Submit(ctx context.Context, identity string, payload []byte) (Record, error)
	List(ctx context.Context) ([]Record, error)
	Stats(ctx context.Context) (map[string]any, error)
}
