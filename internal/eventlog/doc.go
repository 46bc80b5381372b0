// Package eventlog implements the feed's persistent event queue.
//
// # Overview
//
// Each queue is a FIFO of Records persisted in Pebble. Records are appended at
// the back with a contiguous sequence and leave only through the front.
// Keys are lexicographically ordered for efficient range scans:
//   - feed/{name}/m             (metadata: lastSeq | headSeq)
//   - feed/{name}/e/{seq_be8}   (entries)
//
// Records are stored as: version(1B) | insertedAt(8B BE) | payload | crc32c.
//
//	l, _ := OpenLog(db, "events")
//	seq, _ := l.Append(ctx, Record{Payload: p, InsertedAt: now})
//
//	// Ordered reads with an optional start token and limit
//	recs, next := l.Read(ReadOptions{Start: TokenFromSeq(seq), Limit: 100})
//	_ = next // resume position
//
//	// Front removal, batched, stopping at the first record pred rejects
//	n, _ := l.PopFrontWhile(ctx, func(r Record, ok bool) bool { return !ok || r.ExpiredAt(now, period) }, 1024)
//
//	// Blocking wait/notify
//	woke := l.WaitForAppend(200 * time.Millisecond)
//
// # Eviction hook
//
// Every committed batch of front removals is reported to the EvictionHook with
// the records that left the queue. The default hook is a no-op.
package eventlog
