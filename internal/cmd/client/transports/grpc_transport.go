// Package transports provides pluggable transport implementations for the CLI.
package transports

import (
	"context"
	"encoding/base64"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	feedv1 "github.com/rzbill/eventfeed/api/eventfeed/v1"
	"github.com/rzbill/eventfeed/internal/auth"
)

// GrpcTransport implements FeedTransport over gRPC.
type GrpcTransport struct {
	dial func(ctx context.Context) (*grpc.ClientConn, error)
}

// NewGrpcTransport constructs a new GrpcTransport using the provided dialer.
func NewGrpcTransport(dial func(ctx context.Context) (*grpc.ClientConn, error)) *GrpcTransport {
	return &GrpcTransport{dial: dial}
}

func (t *GrpcTransport) withClient(ctx context.Context, fn func(cli feedv1.FeedServiceClient) error) error {
	conn, err := t.dial(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()
	return fn(feedv1.NewFeedServiceClient(conn))
}

// Submit appends payload as identity.
func (t *GrpcTransport) Submit(ctx context.Context, identity string, payload []byte) (Record, error) {
	var rec Record
	err := t.withClient(ctx, func(cli feedv1.FeedServiceClient) error {
		octx := metadata.AppendToOutgoingContext(ctx, "authorization", auth.BearerHeader(identity))
		res, err := cli.Submit(octx, wrapperspb.Bytes(payload))
		if err != nil {
			return err
		}
		rec, err = recordFromStruct(res)
		return err
	})
	return rec, err
}

// List returns every held record front to back.
func (t *GrpcTransport) List(ctx context.Context) ([]Record, error) {
	var out []Record
	err := t.withClient(ctx, func(cli feedv1.FeedServiceClient) error {
		res, err := cli.List(ctx, &emptypb.Empty{})
		if err != nil {
			return err
		}
		for _, v := range res.GetValues() {
			rec, err := recordFromStruct(v.GetStructValue())
			if err != nil {
				return err
			}
			out = append(out, rec)
		}
		return nil
	})
	return out, err
}

// Stats returns the server's stats document.
func (t *GrpcTransport) Stats(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	err := t.withClient(ctx, func(cli feedv1.FeedServiceClient) error {
		res, err := cli.Stats(ctx, &emptypb.Empty{})
		if err != nil {
			return err
		}
		out = res.AsMap()
		return nil
	})
	return out, err
}

func recordFromStruct(s *structpb.Struct) (Record, error) {
	f := s.GetFields()
	payload, err := base64.StdEncoding.DecodeString(f["payload"].GetStringValue())
	if err != nil {
		return Record{}, fmt.Errorf("decode payload: %w", err)
	}
	return Record{
		Seq:        uint64(f["seq"].GetNumberValue()),
		Payload:    payload,
		InsertedAt: uint64(f["inserted_at"].GetNumberValue()),
	}, nil
}
