package controllers

import "github.com/rzbill/eventfeed/internal/eventlog"

// submitReq is the JSON form of a write; raw bodies are accepted too.
type submitReq struct {
	Payload []byte `json:"payload"`
}

// listResp is a page of the feed. Next is the seq to resume from, 0 when exhausted.
type listResp struct {
	Records []eventlog.Record `json:"records"`
	Next    uint64            `json:"next"`
}
