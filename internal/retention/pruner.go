package retention

import (
	"context"

	"github.com/rzbill/eventfeed/internal/eventlog"
	"github.com/rzbill/eventfeed/pkg/clock"
)

// Queue is the part of the event queue the pruner needs.
type Queue interface {
	PopFrontWhile(ctx context.Context, pred eventlog.FrontPredicate, batchLimit int) (int, error)
}

// Pruner evicts records whose retention window has strictly elapsed.
type Pruner struct {
	clock      clock.Clock
	period     uint64
	batchLimit int
}

// NewPruner returns a Pruner keeping records for period seconds.
func NewPruner(c clock.Clock, period uint64, batchLimit int) *Pruner {
	return &Pruner{clock: c, period: period, batchLimit: batchLimit}
}

// Period returns the retention period in seconds.
func (p *Pruner) Period() uint64 { return p.period }

// Prune samples the clock once and removes expired records from the front
// of q, stopping at the first one still inside its window. Because
// timestamps are non-decreasing front to back, nothing behind that record
// can be expired either. Records that no longer decode are removed too.
func (p *Pruner) Prune(ctx context.Context, q Queue) (int, error) {
	return p.PruneAt(ctx, q, p.clock.Now())
}

// PruneAt is Prune against an explicit time sample.
func (p *Pruner) PruneAt(ctx context.Context, q Queue, now uint64) (int, error) {
	return q.PopFrontWhile(ctx, func(r eventlog.Record, decoded bool) bool {
		return !decoded || r.ExpiredAt(now, p.period)
	}, p.batchLimit)
}
