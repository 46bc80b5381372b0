package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sync/atomic"

	"github.com/rzbill/eventfeed/internal/eventlog"
	"github.com/rzbill/eventfeed/pkg/log"
)

const defaultQueueSize = 64

type batch struct {
	key  string
	data []byte
	n    int
}

// line is the JSONL shape of one archived record.
type line struct {
	Queue      string `json:"queue"`
	Seq        uint64 `json:"seq"`
	InsertedAt uint64 `json:"inserted_at"`
	Payload    []byte `json:"payload"`
}

// Archiver exports evicted records to a Sink. OnEvict only encodes and
// enqueues; uploads happen on the Run goroutine. When the queue is full the
// batch is dropped and counted.
type Archiver struct {
	sink    Sink
	prefix  string
	logger  log.Logger
	pending chan batch

	written atomic.Uint64
	dropped atomic.Uint64
	failed  atomic.Uint64
}

// New returns an Archiver writing object keys under prefix.
func New(sink Sink, prefix string, queueSize int, logger log.Logger) *Archiver {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Archiver{
		sink:    sink,
		prefix:  prefix,
		logger:  logger,
		pending: make(chan batch, queueSize),
	}
}

// ObjectKey names the object for a contiguous run of sequences.
func ObjectKey(prefix, queue string, firstSeq, lastSeq uint64) string {
	return path.Join(prefix, queue, fmt.Sprintf("%020d-%020d.jsonl", firstSeq, lastSeq))
}

// OnEvict implements eventlog.EvictionHook.
func (a *Archiver) OnEvict(queue string, recs []eventlog.Record) {
	if len(recs) == 0 {
		return
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, r := range recs {
		if err := enc.Encode(line{Queue: queue, Seq: r.Seq, InsertedAt: r.InsertedAt, Payload: r.Payload}); err != nil {
			a.logger.Error("archive encode failed", log.Err(err))
			return
		}
	}
	b := batch{
		key:  ObjectKey(a.prefix, queue, recs[0].Seq, recs[len(recs)-1].Seq),
		data: buf.Bytes(),
		n:    len(recs),
	}
	select {
	case a.pending <- b:
	default:
		a.dropped.Add(uint64(b.n))
		a.logger.Warn("archive queue full, dropping batch", log.Str("key", b.key), log.Int("records", b.n))
	}
}

// Run uploads queued batches until ctx is done, then drains what is left
// with a fresh context.
func (a *Archiver) Run(ctx context.Context) {
	for {
		select {
		case b := <-a.pending:
			a.upload(ctx, b)
		case <-ctx.Done():
			a.drain()
			return
		}
	}
}

func (a *Archiver) drain() {
	for {
		select {
		case b := <-a.pending:
			a.upload(context.Background(), b)
		default:
			return
		}
	}
}

func (a *Archiver) upload(ctx context.Context, b batch) {
	if err := a.sink.Write(ctx, b.key, b.data); err != nil {
		a.failed.Add(uint64(b.n))
		a.logger.Error("archive upload failed", log.Str("key", b.key), log.Err(err))
		return
	}
	a.written.Add(uint64(b.n))
	a.logger.Debug("archived evicted records", log.Str("key", b.key), log.Int("records", b.n))
}

// Stats reports record counts written, dropped and failed.
type Stats struct {
	Written uint64 `json:"written"`
	Dropped uint64 `json:"dropped"`
	Failed  uint64 `json:"failed"`
}

func (a *Archiver) Stats() Stats {
	return Stats{Written: a.written.Load(), Dropped: a.dropped.Load(), Failed: a.failed.Load()}
}
