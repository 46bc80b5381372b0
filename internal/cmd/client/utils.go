package client

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"os"
	"unicode/utf8"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/rzbill/eventfeed/internal/cmd/client/transports"
)

// grpcAddrFromEnv returns the gRPC server address from FEED_GRPC or a default.
func grpcAddrFromEnv() string {
	if addr := os.Getenv("FEED_GRPC"); addr != "" {
		return addr
	}
	return "127.0.0.1:50051"
}

// dialGRPCContext creates a client for the eventfeed gRPC endpoint with
// insecure transport for local/dev. The connection is established lazily.
func dialGRPCContext(_ context.Context) (*grpc.ClientConn, error) {
	return grpc.NewClient(grpcAddrFromEnv(), grpc.WithTransportCredentials(insecure.NewCredentials()))
}

func getTransport() transports.FeedTransport {
	// For now, only gRPC transport; HTTP is used for watch.
	return transports.NewGrpcTransport(dialGRPCContext)
}

// decodedRecord returns a map with seq, inserted_at and one of
// payload_json, payload_text, or payload_b64.
func decodedRecord(seq, insertedAt uint64, payload []byte) map[string]any {
	out := map[string]any{
		"seq":         seq,
		"inserted_at": insertedAt,
	}
	// Try JSON first if it looks like JSON
	if len(payload) > 0 && (payload[0] == '{' || payload[0] == '[') {
		var v any
		if json.Unmarshal(payload, &v) == nil {
			out["payload_json"] = v
			return out
		}
	}
	if utf8.Valid(payload) {
		out["payload_text"] = string(payload)
		return out
	}
	out["payload_b64"] = base64.StdEncoding.EncodeToString(payload)
	return out
}
