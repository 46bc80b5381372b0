package eventlog

import (
	"context"
	"fmt"

	"github.com/cockroachdb/pebble"
)

const defaultBatchLimit = 1024

// FrontPredicate decides whether the front entry should be removed. decoded
// is false when the stored bytes fail version or checksum validation; rec then
// carries only Seq.
type FrontPredicate func(rec Record, decoded bool) bool

// PopFront removes the oldest record. Calling it on an empty queue is a
// programming error and panics.
func (l *Log) PopFront(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.lenLocked() == 0 {
		panic("eventlog: PopFront on empty queue")
	}

	seq := l.headSeq
	rec, decoded := l.getLocked(seq)
	b := l.db.NewBatch()
	defer b.Close()
	if err := b.Delete(KeyEntry(l.name, seq), nil); err != nil {
		return err
	}
	if err := b.Set(KeyMeta(l.name), encodeMeta(l.lastSeq, seq+1), nil); err != nil {
		return err
	}
	if err := l.db.CommitBatch(ctx, b); err != nil {
		return fmt.Errorf("eventlog: pop front: %w", err)
	}
	l.headSeq = seq + 1
	if decoded {
		l.hook.OnEvict(l.name, []Record{rec})
	}
	return nil
}

// PopFrontWhile removes records from the front for as long as pred accepts
// them, stopping at the first rejected record. Deletes are committed in
// batches of up to batchLimit keys together with the updated head, and the
// EvictionHook sees each committed batch. Returns the number removed.
func (l *Log) PopFrontWhile(ctx context.Context, pred FrontPredicate, batchLimit int) (int, error) {
	if batchLimit <= 0 {
		batchLimit = defaultBatchLimit
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.lenLocked() == 0 {
		return 0, nil
	}

	_, hi := entryBounds(l.name)
	iter, err := l.db.NewIter(&pebble.IterOptions{LowerBound: KeyEntry(l.name, l.headSeq), UpperBound: hi})
	if err != nil {
		return 0, err
	}
	defer iter.Close()

	removed := 0
	for ok := iter.First(); ok; {
		b := l.db.NewBatch()
		evicted := make([]Record, 0, 16)
		n := 0
		head := l.headSeq
		for ok && n < batchLimit {
			seq := seqFromKey(iter.Key())
			rec := Record{Seq: seq}
			dec, decoded := DecodeRecord(iter.Value())
			if decoded {
				rec.Payload, rec.InsertedAt = dec.Payload, dec.InsertedAt
			}
			if !pred(rec, decoded) {
				ok = false
				break
			}
			if err := b.Delete(iter.Key(), nil); err != nil {
				b.Close()
				return removed, err
			}
			if decoded {
				evicted = append(evicted, rec)
			}
			head = seq + 1
			n++
			ok = iter.Next()
		}
		if n == 0 {
			b.Close()
			break
		}
		if err := b.Set(KeyMeta(l.name), encodeMeta(l.lastSeq, head), nil); err != nil {
			b.Close()
			return removed, err
		}
		if err := l.db.CommitBatch(ctx, b); err != nil {
			b.Close()
			return removed, fmt.Errorf("eventlog: pop front batch: %w", err)
		}
		b.Close()
		l.headSeq = head
		removed += n
		if len(evicted) > 0 {
			l.hook.OnEvict(l.name, evicted)
		}
	}
	return removed, nil
}

// FrontExpiredRun counts the leading records whose retention window has
// elapsed at now without removing them. Undecodable entries count as expired.
func (l *Log) FrontExpiredRun(now, period uint64) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.lenLocked() == 0 {
		return 0
	}
	_, hi := entryBounds(l.name)
	iter, err := l.db.NewIter(&pebble.IterOptions{LowerBound: KeyEntry(l.name, l.headSeq), UpperBound: hi})
	if err != nil {
		return 0
	}
	defer iter.Close()

	n := 0
	for ok := iter.First(); ok; ok = iter.Next() {
		dec, decoded := DecodeRecord(iter.Value())
		if decoded && !(Record{InsertedAt: dec.InsertedAt}).ExpiredAt(now, period) {
			break
		}
		n++
	}
	return n
}
