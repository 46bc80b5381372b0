package client

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	feedv1 "github.com/rzbill/eventfeed/api/eventfeed/v1"
	"github.com/rzbill/eventfeed/internal/auth"
)

type feedStub struct {
	mu         sync.Mutex
	payloads   [][]byte
	identities []string
}

func (s *feedStub) Submit(ctx context.Context, in *wrapperspb.BytesValue) (*structpb.Struct, error) {
	id := auth.IdentityFromContext(ctx)
	if id != "alice" {
		return nil, status.Error(codes.PermissionDenied, "not authorized")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identities = append(s.identities, id)
	s.payloads = append(s.payloads, in.GetValue())
	return structpb.NewStruct(map[string]any{"seq": len(s.payloads), "payload": in.GetValue(), "inserted_at": 3600})
}

func (s *feedStub) List(context.Context, *emptypb.Empty) (*structpb.ListValue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := &structpb.ListValue{}
	for i, p := range s.payloads {
		st, err := structpb.NewStruct(map[string]any{"seq": i + 1, "payload": p, "inserted_at": 3600 + i})
		if err != nil {
			return nil, err
		}
		out.Values = append(out.Values, structpb.NewStructValue(st))
	}
	return out, nil
}

func (s *feedStub) Stats(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return structpb.NewStruct(map[string]any{"len": len(s.payloads), "retention_period": 3600})
}

func startGRPCStub(t *testing.T, svc feedv1.FeedServiceServer) (addr string, stop func()) {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	gs := grpc.NewServer()
	feedv1.RegisterFeedServiceServer(gs, svc)
	done := make(chan struct{})
	go func() {
		_ = gs.Serve(l)
		close(done)
	}()
	stop = func() {
		gs.GracefulStop()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			gs.Stop()
		}
	}
	return l.Addr().String(), stop
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRoot(func() string { return "http://127.0.0.1:1" })
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestSubmitListStats(t *testing.T) {
	stub := &feedStub{}
	addr, stop := startGRPCStub(t, stub)
	defer stop()
	t.Setenv("FEED_GRPC", addr)

	out, err := execute(t, "feed", "submit", "--identity", "alice", "--data", "moshimoshi")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(out)), &rec); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if rec["payload_text"] != "moshimoshi" || rec["seq"] != float64(1) {
		t.Fatalf("unexpected output: %v", rec)
	}

	if _, err := execute(t, "feed", "submit", "--identity", "alice", "--data", `{"gm":"fam!"}`); err != nil {
		t.Fatalf("submit: %v", err)
	}

	out, err = execute(t, "feed", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %s", len(lines), out)
	}
	if !strings.Contains(lines[0], "moshimoshi") || !strings.Contains(lines[1], `"payload_json"`) {
		t.Fatalf("unexpected list output: %s", out)
	}

	out, err = execute(t, "feed", "list", "--reverse")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.HasPrefix(out, `{"inserted_at":3601`) {
		t.Fatalf("expected newest first, got %s", out)
	}

	out, err = execute(t, "feed", "stats")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if !strings.Contains(out, `"len":2`) {
		t.Fatalf("unexpected stats: %s", out)
	}
}

func TestSubmitRejected(t *testing.T) {
	addr, stop := startGRPCStub(t, &feedStub{})
	defer stop()
	t.Setenv("FEED_GRPC", addr)

	_, err := execute(t, "feed", "submit", "--identity", "mallory", "--data", "hi")
	if status.Code(err) != codes.PermissionDenied {
		t.Fatalf("expected PermissionDenied, got %v", err)
	}
}

func TestSubmitFlagValidation(t *testing.T) {
	t.Setenv("FEED_IDENTITY", "")
	if _, err := execute(t, "feed", "submit", "--data", "hi"); err == nil {
		t.Fatalf("expected error without identity")
	}
	if _, err := execute(t, "feed", "submit", "--identity", "alice", "--data", "hi", "--file", "x"); err == nil {
		t.Fatalf("expected error for conflicting flags")
	}
}

func TestWatchPrintsNotifications(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/feed/ws" {
			http.NotFound(w, r)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for i := 0; i < 3; i++ {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"topic":"eventfeed.event.added","event":{}}`))
		}
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}))
	defer srv.Close()

	cmd := NewFeedCommand(func() string { return srv.URL })
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"watch", "--limit", "2"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("watch: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 || !strings.Contains(lines[0], "eventfeed.event.added") {
		t.Fatalf("unexpected watch output: %q", buf.String())
	}
}

func TestWsURL(t *testing.T) {
	cases := map[string]string{
		"http://127.0.0.1:8080": "ws://127.0.0.1:8080",
		"https://feed.example":  "wss://feed.example",
		"ws://already":          "ws://already",
	}
	for in, want := range cases {
		if got := wsURL(in); got != want {
			t.Errorf("wsURL(%q) = %q, want %q", in, got, want)
		}
	}
}
