// Package client provides the `eventfeed` command-line client.
//
// The CLI talks to the eventfeed gRPC and HTTP endpoints to write to and
// inspect the feed from a terminal.
//
// # Address configuration
//
// The HTTP base URL is discovered by the application that embeds the
// commands via a BaseURLFunc. When using the standalone binary, it
// defaults to http://127.0.0.1:8080 (FEED_HTTP). The gRPC address is read
// from the FEED_GRPC environment variable (default 127.0.0.1:50051).
//
// Usage
//
//	eventfeed feed submit --identity alice --data 'moshimoshi'
//	echo '{"hello":"world"}' | eventfeed feed submit --identity alice --file -
//
//	eventfeed feed list
//	eventfeed feed list --reverse
//	eventfeed feed stats
//
//	# Print notifications as they happen
//	eventfeed feed watch --limit 5
//
// Notes
//
//   - submit, list and stats use the gRPC FeedService; the identity travels
//     as "authorization: Bearer <identity>" metadata.
//   - watch connects to the HTTP server's /v1/feed/ws websocket.
package client
