package controllers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rzbill/eventfeed/internal/eventlog"
)

// sseSink writes feed records as Server-Sent Events.
type sseSink struct {
	w http.ResponseWriter
	r *http.Request
}

// Send writes one record as a "data: " event.
func (s sseSink) Send(rec eventlog.Record) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if _, err := s.w.Write([]byte("data: ")); err != nil {
		return err
	}
	if _, err := s.w.Write(b); err != nil {
		return err
	}
	if _, err := s.w.Write([]byte("\n\n")); err != nil {
		return err
	}
	return nil
}

// Context returns the request context for cancellation.
func (s sseSink) Context() context.Context {
	return s.r.Context()
}

// Flush flushes the HTTP response writer if it supports flushing.
func (s sseSink) Flush() error {
	if f, ok := s.w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}
