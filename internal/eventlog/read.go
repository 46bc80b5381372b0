package eventlog

import (
	"encoding/binary"

	"github.com/cockroachdb/pebble"
)

// Token encodes the starting position as seq (8 bytes big-endian).
type Token [8]byte

func TokenFromSeq(seq uint64) Token { var t Token; binary.BigEndian.PutUint64(t[:], seq); return t }
func (t Token) Seq() uint64         { return binary.BigEndian.Uint64(t[:]) }

// IsZero reports whether the token carries no position.
func (t Token) IsZero() bool { return t.Seq() == 0 }

type ReadOptions struct {
	Start   Token // if zero, begin from the front (or back when Reverse)
	Limit   int
	Reverse bool
}

// Read returns up to Limit records starting at Start (inclusive). Reverse
// scans from back to front. Entries that fail to decode are skipped. The
// returned token is the position to resume from, zero when exhausted.
func (l *Log) Read(opts ReadOptions) ([]Record, Token) {
	startSeq := opts.Start.Seq()
	low, hi := entryBounds(l.name)

	recs := make([]Record, 0, max(1, opts.Limit))
	var next Token
	iter, err := l.db.NewIter(&pebble.IterOptions{LowerBound: low, UpperBound: hi})
	if err != nil {
		return recs, next
	}
	defer iter.Close()

	var valid bool
	switch {
	case opts.Reverse && (startSeq == 0 || startSeq == ^uint64(0)):
		valid = iter.Last()
	case opts.Reverse:
		valid = iter.SeekLT(KeyEntry(l.name, startSeq+1))
	case startSeq == 0:
		valid = iter.First()
	default:
		valid = iter.SeekGE(KeyEntry(l.name, startSeq))
	}

	for valid && (opts.Limit == 0 || len(recs) < opts.Limit) {
		seq := seqFromKey(iter.Key())
		if dec, ok := DecodeRecord(iter.Value()); ok {
			recs = append(recs, Record{Seq: seq, Payload: dec.Payload, InsertedAt: dec.InsertedAt})
		}
		if opts.Reverse {
			valid = iter.Prev()
		} else {
			valid = iter.Next()
		}
	}
	if valid {
		next = TokenFromSeq(seqFromKey(iter.Key()))
	}
	return recs, next
}
