package httpserver

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rzbill/eventfeed/internal/auth"
	cfgpkg "github.com/rzbill/eventfeed/internal/config"
	"github.com/rzbill/eventfeed/internal/eventlog"
	"github.com/rzbill/eventfeed/internal/events"
	"github.com/rzbill/eventfeed/internal/feed"
	"github.com/rzbill/eventfeed/internal/runtime"
	pebblestore "github.com/rzbill/eventfeed/internal/storage/pebble"
	"github.com/rzbill/eventfeed/pkg/clock"
	logpkg "github.com/rzbill/eventfeed/pkg/log"
)

const writer = "alice"

type fixture struct {
	rt    *runtime.Runtime
	svc   *feed.Service
	clock *clock.Manual
	srv   *Server
}

func newFixture(t *testing.T, pub events.Publisher, hub *events.Hub) *fixture {
	t.Helper()
	rt, err := runtime.Open(runtime.Options{DataDir: t.TempDir(), Fsync: pebblestore.FsyncModeAlways, Config: cfgpkg.Default()})
	if err != nil {
		t.Fatalf("rt open: %v", err)
	}
	t.Cleanup(func() { _ = rt.Close() })
	q, err := rt.OpenLog("events")
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	clk := clock.NewManual(1000)
	svc, err := feed.New(q, feed.Options{
		Gate:            auth.StaticIdentity(writer),
		Clock:           clk,
		RetentionPeriod: 3600,
		Publisher:       pub,
		MaxPayloadBytes: 16,
		Logger:          logpkg.NewNopLogger(),
	})
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	return &fixture{rt: rt, svc: svc, clock: clk, srv: New(rt, svc, Options{Hub: hub, Logger: logpkg.NewNopLogger()})}
}

func (f *fixture) do(method, target, identity, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if identity != "" {
		req.Header.Set("Authorization", auth.BearerHeader(identity))
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func TestHealthHandler(t *testing.T) {
	f := newFixture(t, nil, nil)
	w := f.do(http.MethodGet, "/v1/healthz", "", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d", w.Code)
	}
}

func TestSubmitStatusMapping(t *testing.T) {
	f := newFixture(t, nil, nil)

	tests := []struct {
		name     string
		identity string
		body     string
		want     int
	}{
		{"missing identity", "", "hi", http.StatusUnauthorized},
		{"wrong identity", "mallory", "hi", http.StatusForbidden},
		{"too large", writer, strings.Repeat("x", 17), http.StatusRequestEntityTooLarge},
		{"accepted", writer, "moshimoshi", http.StatusAccepted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(http.MethodPost, "/v1/feed/events", tt.identity, "text/plain", tt.body)
			if w.Code != tt.want {
				t.Fatalf("status: got %d want %d (%s)", w.Code, tt.want, w.Body.String())
			}
		})
	}
	if f.svc.Len() != 1 {
		t.Fatalf("only the accepted write may land, len=%d", f.svc.Len())
	}
}

func TestSubmitRawAndJSON(t *testing.T) {
	f := newFixture(t, nil, nil)

	w := f.do(http.MethodPost, "/v1/feed/events", writer, "application/octet-stream", "moshimoshi")
	if w.Code != http.StatusAccepted {
		t.Fatalf("status: %d", w.Code)
	}
	rec := decode[eventlog.Record](t, w)
	if rec.Seq != 1 || string(rec.Payload) != "moshimoshi" || rec.InsertedAt != 1000 {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if w.Header().Get("X-Feed-Seq") != "1" {
		t.Fatalf("missing seq header")
	}

	f.clock.Set(1005)
	// "Z20gZmFtIQ==" is base64 for "gm fam!"
	w = f.do(http.MethodPost, "/v1/feed/events", writer, "application/json", `{"payload":"Z20gZmFtIQ=="}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("status: %d", w.Code)
	}
	rec = decode[eventlog.Record](t, w)
	if string(rec.Payload) != "gm fam!" || rec.InsertedAt != 1005 {
		t.Fatalf("unexpected record: %+v", rec)
	}

	w = f.do(http.MethodPost, "/v1/feed/events", writer, "application/json", `{"payload":`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad json status: %d", w.Code)
	}
}

type listBody struct {
	Records []eventlog.Record `json:"records"`
	Next    uint64            `json:"next"`
}

func TestListPagingReverseAndFilter(t *testing.T) {
	f := newFixture(t, nil, nil)
	for _, p := range []string{"a", "bb", "ccc"} {
		if w := f.do(http.MethodPost, "/v1/feed/events", writer, "", p); w.Code != http.StatusAccepted {
			t.Fatalf("submit %q: %d", p, w.Code)
		}
	}

	page := decode[listBody](t, f.do(http.MethodGet, "/v1/feed/events?limit=2", "", "", ""))
	if len(page.Records) != 2 || string(page.Records[0].Payload) != "a" || page.Next != 3 {
		t.Fatalf("unexpected first page: %+v", page)
	}
	page = decode[listBody](t, f.do(http.MethodGet, "/v1/feed/events?limit=2&start=3", "", "", ""))
	if len(page.Records) != 1 || string(page.Records[0].Payload) != "ccc" || page.Next != 0 {
		t.Fatalf("unexpected second page: %+v", page)
	}

	page = decode[listBody](t, f.do(http.MethodGet, "/v1/feed/events?reverse=true", "", "", ""))
	if len(page.Records) != 3 || string(page.Records[0].Payload) != "ccc" {
		t.Fatalf("unexpected reverse page: %+v", page)
	}

	page = decode[listBody](t, f.do(http.MethodGet, "/v1/feed/events?filter=size+%3E+1", "", "", ""))
	if len(page.Records) != 2 || string(page.Records[0].Payload) != "bb" {
		t.Fatalf("unexpected filtered page: %+v", page)
	}

	if w := f.do(http.MethodGet, "/v1/feed/events?filter=seq+%3E%3E", "", "", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("invalid filter status: %d", w.Code)
	}
	if w := f.do(http.MethodGet, "/v1/feed/events?filter="+strings.Repeat("a", 3000), "", "", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("long filter status: %d", w.Code)
	}
}

func TestListWaitForAppend(t *testing.T) {
	f := newFixture(t, nil, nil)
	go func() {
		time.Sleep(50 * time.Millisecond)
		_, _ = f.svc.Submit(context.Background(), writer, []byte("late"))
	}()
	page := decode[listBody](t, f.do(http.MethodGet, "/v1/feed/events?wait_ms=5000", "", "", ""))
	if len(page.Records) != 1 || string(page.Records[0].Payload) != "late" {
		t.Fatalf("expected the late record, got %+v", page)
	}
}

func TestListHugeWaitStillReturns(t *testing.T) {
	f := newFixture(t, nil, nil)
	go func() {
		time.Sleep(50 * time.Millisecond)
		f.do(http.MethodPost, "/v1/feed/events", writer, "", "late")
	}()
	page := decode[listBody](t, f.do(http.MethodGet, "/v1/feed/events?wait_ms=18446744073709551615", "", "", ""))
	if len(page.Records) != 1 {
		t.Fatalf("expected the late record, got %+v", page)
	}
}

func TestListenAndServeThenClose(t *testing.T) {
	f := newFixture(t, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- f.srv.ListenAndServe(ctx, "127.0.0.1:0") }()

	deadline := time.Now().Add(2 * time.Second)
	for f.srv.Addr() == nil {
		if time.Now().After(deadline) {
			t.Fatalf("server did not bind")
		}
		time.Sleep(5 * time.Millisecond)
	}
	resp, err := http.Get("http://" + f.srv.Addr().String() + "/v1/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status: %d", resp.StatusCode)
	}

	cancel()
	f.srv.Close()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("ListenAndServe did not return")
	}
}

func TestFrontBackStats(t *testing.T) {
	f := newFixture(t, nil, nil)
	if w := f.do(http.MethodGet, "/v1/feed/front", "", "", ""); w.Code != http.StatusNotFound {
		t.Fatalf("empty front status: %d", w.Code)
	}
	if w := f.do(http.MethodGet, "/v1/feed/back", "", "", ""); w.Code != http.StatusNotFound {
		t.Fatalf("empty back status: %d", w.Code)
	}

	f.do(http.MethodPost, "/v1/feed/events", writer, "", "first")
	f.clock.Set(2000)
	f.do(http.MethodPost, "/v1/feed/events", writer, "", "second")

	front := decode[eventlog.Record](t, f.do(http.MethodGet, "/v1/feed/front", "", "", ""))
	back := decode[eventlog.Record](t, f.do(http.MethodGet, "/v1/feed/back", "", "", ""))
	if string(front.Payload) != "first" || string(back.Payload) != "second" {
		t.Fatalf("front=%+v back=%+v", front, back)
	}

	st := decode[feed.Stats](t, f.do(http.MethodGet, "/v1/feed/stats", "", "", ""))
	if st.Len != 2 || st.OldestInsertedAt != 1000 || st.NewestInsertedAt != 2000 || st.RetentionPeriod != 3600 {
		t.Fatalf("unexpected stats: %+v", st)
	}
}

func TestTailSSE(t *testing.T) {
	f := newFixture(t, nil, nil)
	for _, p := range []string{"one", "two", "three"} {
		f.do(http.MethodPost, "/v1/feed/events", writer, "", p)
	}
	w := f.do(http.MethodGet, "/v1/feed/tail?start=2&limit=2", "", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type: %s", ct)
	}
	var got []string
	sc := bufio.NewScanner(strings.NewReader(w.Body.String()))
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var rec eventlog.Record
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &rec); err != nil {
			t.Fatalf("decode event: %v", err)
		}
		got = append(got, string(rec.Payload))
	}
	if strings.Join(got, ",") != "two,three" {
		t.Fatalf("unexpected tail: %v", got)
	}

	if w := f.do(http.MethodGet, "/v1/feed/tail?filter=(((", "", "", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("bad filter status: %d", w.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t, nil, nil)
	w := f.do(http.MethodOptions, "/v1/feed/events", "", "", "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("status: %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("missing CORS header")
	}
}

func TestWebSocketReceivesEventAdded(t *testing.T) {
	hub := events.NewHub(logpkg.NewNopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	f := newFixture(t, hub, hub)
	ts := httptest.NewServer(f.srv.Handler())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/v1/feed/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if _, err := f.svc.Submit(context.Background(), writer, []byte("moshimoshi")); err != nil {
		t.Fatalf("submit: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var env struct {
		Topic string          `json:"topic"`
		Event json.RawMessage `json:"event"`
	}
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read: %v", err)
	}
	if env.Topic != events.TopicEventAdded {
		t.Fatalf("unexpected topic: %s", env.Topic)
	}
}
