package grpcserver

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	feedv1 "github.com/rzbill/eventfeed/api/eventfeed/v1"
	"github.com/rzbill/eventfeed/internal/auth"
	"github.com/rzbill/eventfeed/internal/eventlog"
	"github.com/rzbill/eventfeed/internal/feed"
	logpkg "github.com/rzbill/eventfeed/pkg/log"
)

const listPageSize = 512

type feedSvc struct {
	svc    *feed.Service
	logger logpkg.Logger
}

var _ feedv1.FeedServiceServer = (*feedSvc)(nil)

func (f *feedSvc) Submit(ctx context.Context, in *wrapperspb.BytesValue) (*structpb.Struct, error) {
	identity := auth.IdentityFromContext(ctx)
	if identity == "" {
		return nil, status.Error(codes.Unauthenticated, "missing authorization metadata")
	}
	rec, err := f.svc.Submit(ctx, identity, in.GetValue())
	switch {
	case errors.Is(err, feed.ErrUnauthorized):
		return nil, status.Error(codes.PermissionDenied, "not authorized")
	case errors.Is(err, feed.ErrPayloadTooLarge):
		return nil, status.Error(codes.InvalidArgument, err.Error())
	case err != nil:
		f.logger.Error("submit failed", logpkg.Err(err))
		return nil, status.Error(codes.Internal, "append failed")
	}
	return structpb.NewStruct(recordFields(rec))
}

func (f *feedSvc) List(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	out := &structpb.ListValue{}
	opts := eventlog.ReadOptions{Limit: listPageSize}
	for {
		if err := ctx.Err(); err != nil {
			return nil, status.FromContextError(err).Err()
		}
		recs, next, err := f.svc.Snapshot(opts, "")
		if err != nil {
			return nil, status.Error(codes.Internal, err.Error())
		}
		for _, r := range recs {
			s, err := structpb.NewStruct(recordFields(r))
			if err != nil {
				return nil, status.Error(codes.Internal, err.Error())
			}
			out.Values = append(out.Values, structpb.NewStructValue(s))
		}
		if next.IsZero() {
			return out, nil
		}
		opts.Start = next
	}
}

func (f *feedSvc) Stats(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	st := f.svc.Stats()
	return structpb.NewStruct(map[string]any{
		"len":                st.Len,
		"head_seq":           st.HeadSeq,
		"last_seq":           st.LastSeq,
		"oldest_inserted_at": st.OldestInsertedAt,
		"newest_inserted_at": st.NewestInsertedAt,
		"retention_period":   st.RetentionPeriod,
		"submitted":          st.Submitted,
		"rejected":           st.Rejected,
		"evicted":            st.Evicted,
		"last_tick_at":       st.LastTickAt,
	})
}

// recordFields renders a record for structpb; the payload becomes base64.
func recordFields(r eventlog.Record) map[string]any {
	return map[string]any{
		"seq":         r.Seq,
		"payload":     r.Payload,
		"inserted_at": r.InsertedAt,
	}
}
