package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rzbill/eventfeed/internal/auth"
	"github.com/rzbill/eventfeed/internal/eventlog"
	"github.com/rzbill/eventfeed/internal/events"
	"github.com/rzbill/eventfeed/internal/feed"
	logpkg "github.com/rzbill/eventfeed/pkg/log"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
	maxFilterLen     = 2048
	maxWait          = 30 * time.Second
	tailPollInterval = time.Second
	// maxBodyBytes leaves room for base64 expansion of a max-size payload.
	maxBodyBytes = 8 << 20
)

// FeedController serves the write entry point and the read surface of the feed.
type FeedController struct {
	svc    *feed.Service
	hub    *events.Hub
	logger logpkg.Logger
}

// NewFeedController creates a new feed controller.
func NewFeedController(svc *feed.Service, hub *events.Hub, logger logpkg.Logger) *FeedController {
	if logger == nil {
		logger = logpkg.NewNopLogger()
	}
	return &FeedController{svc: svc, hub: hub, logger: logger}
}

// RegisterRoutes registers feed routes:
// - POST /feed/events (write)
// - GET /feed/events, /feed/front, /feed/back, /feed/stats (read)
// - GET /feed/tail (SSE) and /feed/ws (websocket notifications)
func (c *FeedController) RegisterRoutes(r chi.Router) {
	r.Route("/feed", func(r chi.Router) {
		r.Post("/events", c.handleSubmit)
		r.Get("/events", c.handleList)
		r.Get("/front", c.handleFront)
		r.Get("/back", c.handleBack)
		r.Get("/stats", c.handleStats)
		r.Get("/tail", c.handleTailSSE)
		if c.hub != nil {
			r.Get("/ws", c.hub.HandleWebSocket)
		}
	})
}

// handleSubmit appends the request body for the bearer identity.
// Content-Type application/json bodies carry {"payload": "<base64>"}; any
// other body is the payload itself.
func (c *FeedController) handleSubmit(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromRequest(r)
	if identity == "" {
		writeError(w, http.StatusUnauthorized, "missing bearer identity")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeError(w, http.StatusRequestEntityTooLarge, "payload too large")
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	payload := body
	if mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mt == "application/json" {
		var req submitReq
		if err := json.Unmarshal(body, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		payload = req.Payload
	}

	rec, err := c.svc.Submit(r.Context(), identity, payload)
	switch {
	case errors.Is(err, feed.ErrUnauthorized):
		writeError(w, http.StatusForbidden, "not authorized")
		return
	case errors.Is(err, feed.ErrPayloadTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	case err != nil:
		c.logger.Error("submit failed", logpkg.Err(err))
		writeError(w, http.StatusInternalServerError, "Failed to append event")
		return
	}
	w.Header().Set("X-Feed-Seq", formatSeq(rec.Seq))
	writeJSONStatus(w, http.StatusAccepted, rec)
}

// handleList returns an ordered page of the feed.
// Query params: limit, start (seq), reverse, filter (CEL), wait_ms.
// wait_ms long-polls when a forward read finds nothing.
func (c *FeedController) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := q.Get("filter")
	if len(filter) > maxFilterLen {
		writeError(w, http.StatusBadRequest, "Filter too long")
		return
	}
	limit := parseLimit(q.Get("limit"))
	if limit == 0 {
		limit = defaultListLimit
	}
	limit = min(limit, maxListLimit)

	opts := eventlog.ReadOptions{
		Start:   eventlog.TokenFromSeq(parseUint(q.Get("start"))),
		Limit:   limit,
		Reverse: parseBool(q.Get("reverse")),
	}
	recs, next, err := c.svc.Snapshot(opts, filter)
	if err != nil {
		if errors.Is(err, feed.ErrInvalidFilter) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to read feed")
		return
	}

	if d := parseWait(q.Get("wait_ms")); d > 0 && len(recs) == 0 && !opts.Reverse {
		if c.svc.WaitForAppend(d) {
			recs, next, _ = c.svc.Snapshot(opts, filter)
		}
	}

	writeJSON(w, listResp{Records: recs, Next: next.Seq()})
}

func (c *FeedController) handleFront(w http.ResponseWriter, r *http.Request) {
	rec, ok := c.svc.Front()
	if !ok {
		writeError(w, http.StatusNotFound, "feed is empty")
		return
	}
	writeJSON(w, rec)
}

func (c *FeedController) handleBack(w http.ResponseWriter, r *http.Request) {
	rec, ok := c.svc.Back()
	if !ok {
		writeError(w, http.StatusNotFound, "feed is empty")
		return
	}
	writeJSON(w, rec)
}

func (c *FeedController) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, c.svc.Stats())
}

// handleTailSSE streams records over SSE from start (default: the front),
// then follows new appends. Query params: start, filter, limit (total
// records before the stream ends).
func (c *FeedController) handleTailSSE(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := q.Get("filter")
	if len(filter) > maxFilterLen {
		writeError(w, http.StatusBadRequest, "Filter too long")
		return
	}
	total := parseLimit(q.Get("limit"))
	start := parseUint(q.Get("start"))

	// Compile once up front so a bad filter is a 400, not a broken stream.
	if _, _, err := c.svc.Snapshot(eventlog.ReadOptions{Limit: 1}, filter); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	sink := sseSink{w: w, r: r}
	_ = sink.Flush()
	sent := 0
	for {
		if sink.Context().Err() != nil {
			return
		}
		page := defaultListLimit
		if total > 0 {
			page = min(page, total-sent)
		}
		recs, _, _ := c.svc.Snapshot(eventlog.ReadOptions{Start: eventlog.TokenFromSeq(start), Limit: page}, filter)
		for _, rec := range recs {
			if err := sink.Send(rec); err != nil {
				return
			}
			start = rec.Seq + 1
			sent++
		}
		_ = sink.Flush()
		if total > 0 && sent >= total {
			return
		}
		if len(recs) == 0 {
			c.svc.WaitForAppend(tailPollInterval)
		}
	}
}

// formatSeq is used for the X-Feed-Seq header on writes.
func formatSeq(seq uint64) string { return strconv.FormatUint(seq, 10) }
