package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rzbill/eventfeed/internal/auth"
	"github.com/rzbill/eventfeed/internal/eventlog"
	"github.com/rzbill/eventfeed/internal/events"
	"github.com/rzbill/eventfeed/internal/retention"
	"github.com/rzbill/eventfeed/pkg/clock"
	"github.com/rzbill/eventfeed/pkg/id"
	logpkg "github.com/rzbill/eventfeed/pkg/log"
)

// DefaultMaxPayloadBytes caps a single payload unless overridden.
const DefaultMaxPayloadBytes = 1 << 20

const defaultPublishTimeout = 2 * time.Second

var (
	// ErrUnauthorized is returned by Submit when the gate rejects the caller.
	ErrUnauthorized = fmt.Errorf("feed: write rejected: %w", auth.ErrNotAuthorized)
	// ErrPayloadTooLarge is returned by Submit when the payload exceeds the limit.
	ErrPayloadTooLarge = errors.New("feed: payload too large")
	// ErrInvalidFilter is returned by Snapshot when the CEL filter does not compile.
	ErrInvalidFilter = errors.New("feed: invalid filter")
)

// Options configures a Service. Zero values pick defaults where noted.
type Options struct {
	Gate auth.Gate
	// Clock defaults to clock.System.
	Clock clock.Clock
	// RetentionPeriod is how long, in seconds, a record stays in the feed.
	RetentionPeriod uint64
	// Publisher defaults to a no-op.
	Publisher events.Publisher
	// PublishTimeout bounds each notification. Default 2s.
	PublishTimeout time.Duration
	// MaxPayloadBytes defaults to DefaultMaxPayloadBytes; negative disables the check.
	MaxPayloadBytes int
	// PruneBatch bounds deletes per storage commit during a tick.
	PruneBatch int
	Logger     logpkg.Logger
}

// Service is the single writer of the feed. Submit and OnTick are serialized
// by one mutex so timestamps stay non-decreasing front to back.
type Service struct {
	queue     *eventlog.Log
	gate      auth.Gate
	clock     clock.Clock
	pruner    *retention.Pruner
	publisher events.Publisher
	ids       *id.Generator
	logger    logpkg.Logger

	maxPayload     int
	publishTimeout time.Duration

	mu     sync.Mutex
	newest uint64
	hasAny bool

	submitted  atomic.Uint64
	rejected   atomic.Uint64
	evicted    atomic.Uint64
	lastTickAt atomic.Uint64
}

// New returns a Service owning queue.
func New(queue *eventlog.Log, opts Options) (*Service, error) {
	if queue == nil {
		return nil, errors.New("feed: nil queue")
	}
	if opts.Gate == nil {
		return nil, errors.New("feed: nil gate")
	}
	if opts.Clock == nil {
		opts.Clock = clock.System{}
	}
	if opts.Publisher == nil {
		opts.Publisher = &events.NoopPublisher{}
	}
	if opts.PublishTimeout <= 0 {
		opts.PublishTimeout = defaultPublishTimeout
	}
	if opts.MaxPayloadBytes == 0 {
		opts.MaxPayloadBytes = DefaultMaxPayloadBytes
	}
	if opts.Logger == nil {
		opts.Logger = logpkg.NewLogger().With(logpkg.Component("feed"))
	}

	s := &Service{
		queue:          queue,
		gate:           opts.Gate,
		clock:          opts.Clock,
		pruner:         retention.NewPruner(opts.Clock, opts.RetentionPeriod, opts.PruneBatch),
		publisher:      opts.Publisher,
		ids:            id.NewGenerator(),
		logger:         opts.Logger,
		maxPayload:     opts.MaxPayloadBytes,
		publishTimeout: opts.PublishTimeout,
	}
	if back, ok := queue.Back(); ok {
		s.newest, s.hasAny = back.InsertedAt, true
	}
	return s, nil
}

// Submit appends payload on behalf of identity and returns the stored record.
// A rejected caller leaves the queue untouched and triggers no notification.
func (s *Service) Submit(ctx context.Context, identity string, payload []byte) (eventlog.Record, error) {
	if err := s.gate.CheckAuthorized(identity); err != nil {
		s.rejected.Add(1)
		s.logger.Warn("write rejected", logpkg.Str("identity", identity))
		return eventlog.Record{}, ErrUnauthorized
	}
	if s.maxPayload > 0 && len(payload) > s.maxPayload {
		s.rejected.Add(1)
		return eventlog.Record{}, fmt.Errorf("%w: %d > %d bytes", ErrPayloadTooLarge, len(payload), s.maxPayload)
	}

	rec, err := s.appendLocked(ctx, payload)
	if err != nil {
		return eventlog.Record{}, err
	}
	s.submitted.Add(1)

	s.notify(ctx, events.TopicEventAdded, events.EventAdded{
		ID:         s.ids.Next(),
		Seq:        rec.Seq,
		Payload:    rec.Payload,
		InsertedAt: rec.InsertedAt,
	})
	return rec, nil
}

func (s *Service) appendLocked(ctx context.Context, payload []byte) (eventlog.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	if s.hasAny && now < s.newest {
		s.logger.Debug("clock behind newest record, clamping",
			logpkg.Uint64("now", now), logpkg.Uint64("newest", s.newest))
		now = s.newest
	}
	rec := eventlog.Record{Payload: append([]byte(nil), payload...), InsertedAt: now}
	seq, err := s.queue.Append(ctx, rec)
	if err != nil {
		return eventlog.Record{}, fmt.Errorf("feed: append: %w", err)
	}
	rec.Seq = seq
	s.newest, s.hasAny = now, true
	return rec, nil
}

// OnTick runs one eviction pass with a fresh clock sample and returns the
// number of records removed. Storage failures are logged; the next tick
// retries from wherever this one stopped.
func (s *Service) OnTick(ctx context.Context) int {
	s.mu.Lock()
	now := s.clock.Now()
	n, err := s.pruner.PruneAt(ctx, s.queue, now)
	s.mu.Unlock()

	s.lastTickAt.Store(now)
	if err != nil {
		s.logger.Error("eviction pass failed", logpkg.Err(err), logpkg.Int("evicted", n))
	}
	if n == 0 {
		return 0
	}
	s.evicted.Add(uint64(n))
	s.logger.Debug("evicted expired records", logpkg.Int("count", n), logpkg.Uint64("now", now))
	s.notify(ctx, events.TopicEventsEvicted, events.EventsEvicted{ID: s.ids.Next(), Count: n, Now: now})
	return n
}

func (s *Service) notify(ctx context.Context, topic string, event any) {
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.publishTimeout)
	defer cancel()
	if err := s.publisher.Publish(pctx, topic, event); err != nil {
		s.logger.Warn("notification publish failed", logpkg.Str("topic", topic), logpkg.Err(err))
	}
}

// Snapshot returns records in queue order, optionally filtered by a CEL
// expression over seq, inserted_at, size, text, json and now.
func (s *Service) Snapshot(opts eventlog.ReadOptions, filter string) ([]eventlog.Record, eventlog.Token, error) {
	f, err := newCELFilter(filter)
	if err != nil {
		return nil, eventlog.Token{}, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}
	if !f.enabled {
		recs, next := s.queue.Read(opts)
		return recs, next, nil
	}

	now := s.clock.Now()
	limit := opts.Limit
	out := make([]eventlog.Record, 0, max(1, limit))
	page := opts
	page.Limit = max(limit, 64)
	for {
		recs, next := s.queue.Read(page)
		for i, r := range recs {
			if !f.Eval(r, now) {
				continue
			}
			out = append(out, r)
			if limit > 0 && len(out) == limit {
				if i+1 < len(recs) {
					return out, eventlog.TokenFromSeq(recs[i+1].Seq), nil
				}
				return out, next, nil
			}
		}
		if next.IsZero() {
			return out, next, nil
		}
		page.Start = next
	}
}

// WaitForAppend blocks until the next append or timeout; see eventlog.Log.WaitForAppend.
func (s *Service) WaitForAppend(timeout time.Duration) bool {
	return s.queue.WaitForAppend(timeout)
}

// Front returns the oldest record.
func (s *Service) Front() (eventlog.Record, bool) { return s.queue.Front() }

// Back returns the newest record.
func (s *Service) Back() (eventlog.Record, bool) { return s.queue.Back() }

// Len returns the number of records held.
func (s *Service) Len() int { return s.queue.Len() }

// RetentionPeriod returns the configured retention in seconds.
func (s *Service) RetentionPeriod() uint64 { return s.pruner.Period() }

// Stats is a point-in-time summary of the feed.
type Stats struct {
	Len              int    `json:"len"`
	HeadSeq          uint64 `json:"head_seq"`
	LastSeq          uint64 `json:"last_seq"`
	OldestInsertedAt uint64 `json:"oldest_inserted_at,omitempty"`
	NewestInsertedAt uint64 `json:"newest_inserted_at,omitempty"`
	RetentionPeriod  uint64 `json:"retention_period"`
	Submitted        uint64 `json:"submitted"`
	Rejected         uint64 `json:"rejected"`
	Evicted          uint64 `json:"evicted"`
	LastTickAt       uint64 `json:"last_tick_at,omitempty"`
}

func (s *Service) Stats() Stats {
	st := Stats{
		Len:             s.queue.Len(),
		RetentionPeriod: s.pruner.Period(),
		Submitted:       s.submitted.Load(),
		Rejected:        s.rejected.Load(),
		Evicted:         s.evicted.Load(),
		LastTickAt:      s.lastTickAt.Load(),
	}
	st.HeadSeq, st.LastSeq = s.queue.Bounds()
	if r, ok := s.queue.Front(); ok {
		st.OldestInsertedAt = r.InsertedAt
	}
	if r, ok := s.queue.Back(); ok {
		st.NewestInsertedAt = r.InsertedAt
	}
	return st
}
