package eventlog

import (
	"context"
	"errors"
	"fmt"
	"sync"

	pebblestore "github.com/rzbill/eventfeed/internal/storage/pebble"
)

// Log is the feed's ordered event queue: records are appended at the back
// and removed only from the front. Sequences are contiguous between headSeq
// and lastSeq, so the length never needs a scan.
type Log struct {
	db   *pebblestore.DB
	name string

	mu       sync.Mutex
	lastSeq  uint64
	headSeq  uint64
	notifyCh chan struct{}
	hook     EvictionHook
}

// OpenLog initializes a Log and loads head/tail sequences from metadata (if any).
func OpenLog(db *pebblestore.DB, name string) (*Log, error) {
	if name == "" {
		return nil, errors.New("eventlog: empty queue name")
	}
	l := &Log{db: db, name: name, headSeq: 1, notifyCh: make(chan struct{}), hook: noopHook{}}
	meta, err := db.Get(KeyMeta(name))
	switch {
	case err == nil:
		last, head, ok := decodeMeta(meta)
		if !ok || head == 0 || head > last+1 {
			return nil, fmt.Errorf("eventlog: corrupt metadata for %q", name)
		}
		l.lastSeq, l.headSeq = last, head
	case pebblestore.IsNotFound(err):
	default:
		return nil, fmt.Errorf("eventlog: load metadata: %w", err)
	}
	return l, nil
}

// Name returns the queue name the log was opened with.
func (l *Log) Name() string { return l.name }

// SetEvictionHook installs h; nil restores the no-op hook.
func (l *Log) SetEvictionHook(h EvictionHook) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if h == nil {
		h = noopHook{}
	}
	l.hook = h
}

// Append pushes rec to the back and returns its assigned sequence. rec.Seq is ignored.
func (l *Log) Append(ctx context.Context, rec Record) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	seq := l.lastSeq + 1
	b := l.db.NewBatch()
	defer b.Close()

	if err := b.Set(KeyEntry(l.name, seq), EncodeRecord(rec.InsertedAt, rec.Payload), nil); err != nil {
		return 0, err
	}
	if err := b.Set(KeyMeta(l.name), encodeMeta(seq, l.headSeq), nil); err != nil {
		return 0, err
	}
	if err := l.db.CommitBatch(ctx, b); err != nil {
		return 0, fmt.Errorf("eventlog: append: %w", err)
	}
	l.lastSeq = seq

	close(l.notifyCh)
	l.notifyCh = make(chan struct{})
	return seq, nil
}

// Len returns the number of records in the queue.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lenLocked()
}

func (l *Log) lenLocked() int {
	return int(l.lastSeq + 1 - l.headSeq)
}

// Bounds returns the sequences of the front and back records. Both are zero
// when the queue is empty.
func (l *Log) Bounds() (head, last uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.lenLocked() == 0 {
		return 0, 0
	}
	return l.headSeq, l.lastSeq
}

// Front returns the oldest record. ok is false when the queue is empty or the
// stored entry fails to decode.
func (l *Log) Front() (Record, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.lenLocked() == 0 {
		return Record{}, false
	}
	return l.getLocked(l.headSeq)
}

// Back returns the newest record.
func (l *Log) Back() (Record, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.lenLocked() == 0 {
		return Record{}, false
	}
	return l.getLocked(l.lastSeq)
}

// FrontPayload returns the payload of the oldest record.
func (l *Log) FrontPayload() ([]byte, bool) {
	r, ok := l.Front()
	return r.Payload, ok
}

// BackPayload returns the payload of the newest record.
func (l *Log) BackPayload() ([]byte, bool) {
	r, ok := l.Back()
	return r.Payload, ok
}

func (l *Log) getLocked(seq uint64) (Record, bool) {
	val, err := l.db.Get(KeyEntry(l.name, seq))
	if err != nil {
		return Record{}, false
	}
	dec, ok := DecodeRecord(val)
	if !ok {
		return Record{}, false
	}
	return Record{Seq: seq, Payload: dec.Payload, InsertedAt: dec.InsertedAt}, true
}
