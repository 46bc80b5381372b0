package eventlog

import (
	"testing"
)

func seedLog(t *testing.T, n int) (*Log, []uint64) {
	t.Helper()
	l := newTestLog(t)
	seqs := make([]uint64, n)
	for i := 0; i < n; i++ {
		seqs[i] = mustAppend(t, l, string([]byte{byte('a' + i)}), uint64(i))
	}
	return l, seqs
}

func TestReadForward(t *testing.T) {
	l, seqs := seedLog(t, 5)
	recs, next := l.Read(ReadOptions{Limit: 3})
	if len(recs) != 3 {
		t.Fatalf("want 3 records, got %d", len(recs))
	}
	if recs[0].Seq != seqs[0] || recs[2].Seq != seqs[2] {
		t.Fatalf("unexpected seqs")
	}
	if next.Seq() != seqs[3] {
		t.Fatalf("next token: got %d want %d", next.Seq(), seqs[3])
	}
	rest, next := l.Read(ReadOptions{Start: next})
	if len(rest) != 2 || !next.IsZero() {
		t.Fatalf("resume: got %d records, next=%d", len(rest), next.Seq())
	}
}

func TestReadReverse(t *testing.T) {
	l, seqs := seedLog(t, 4)
	recs, next := l.Read(ReadOptions{Reverse: true, Limit: 2})
	if len(recs) != 2 {
		t.Fatalf("want 2, got %d", len(recs))
	}
	if !(recs[0].Seq == seqs[3] && recs[1].Seq == seqs[2]) {
		t.Fatalf("unexpected reverse order")
	}
	if next.Seq() != seqs[1] {
		t.Fatalf("reverse next: %d", next.Seq())
	}
	tail, _ := l.Read(ReadOptions{Reverse: true, Start: next})
	if len(tail) != 2 || tail[0].Seq != seqs[1] {
		t.Fatalf("reverse resume failed: %+v", tail)
	}
}

func TestSeekByToken(t *testing.T) {
	l, seqs := seedLog(t, 4)
	recs, _ := l.Read(ReadOptions{Start: TokenFromSeq(seqs[2]), Limit: 2})
	if len(recs) == 0 || recs[0].Seq != seqs[2] {
		t.Fatalf("seek failed")
	}
	if string(recs[0].Payload) != "c" || recs[0].InsertedAt != 2 {
		t.Fatalf("unexpected record: %+v", recs[0])
	}
}

func TestReadSkipsCorruptEntries(t *testing.T) {
	l, _ := seedLog(t, 3)
	if err := l.db.Set(KeyEntry(l.name, 2), []byte("junk")); err != nil {
		t.Fatalf("corrupt: %v", err)
	}
	recs, _ := l.Read(ReadOptions{})
	if len(recs) != 2 || recs[0].Seq != 1 || recs[1].Seq != 3 {
		t.Fatalf("unexpected records: %+v", recs)
	}
}
