package eventlog

import (
	"encoding/binary"
)

// Keyspace helpers for Pebble keys.
//
// Layout (byte-wise, lexicographically sortable):
// - feed/{name}/m
// - feed/{name}/e/{seq_be8}

var (
	feedPrefix = []byte("feed/")
	metaSuffix = []byte("/m")
	entrySeg   = []byte("/e/")
)

func appendBE8(dst []byte, v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return append(dst, b[:]...)
}

// KeyMeta builds the queue metadata key.
func KeyMeta(name string) []byte {
	k := make([]byte, 0, len(feedPrefix)+len(name)+len(metaSuffix))
	k = append(k, feedPrefix...)
	k = append(k, name...)
	k = append(k, metaSuffix...)
	return k
}

// KeyEntry builds the entry key with a big-endian sequence for proper ordering.
func KeyEntry(name string, seq uint64) []byte {
	k := make([]byte, 0, len(feedPrefix)+len(name)+len(entrySeg)+8)
	k = append(k, feedPrefix...)
	k = append(k, name...)
	k = append(k, entrySeg...)
	k = appendBE8(k, seq)
	return k
}

// entryBounds returns iterator bounds covering every entry of the queue.
func entryBounds(name string) (low, high []byte) {
	low = KeyEntry(name, 0)
	high = append(KeyEntry(name, ^uint64(0)), 0x00)
	return low, high
}

// seqFromKey extracts the trailing big-endian sequence of an entry key.
func seqFromKey(k []byte) uint64 {
	return binary.BigEndian.Uint64(k[len(k)-8:])
}

// meta is persisted as lastSeq(8B BE) | headSeq(8B BE).
func encodeMeta(lastSeq, headSeq uint64) []byte {
	out := make([]byte, 0, 16)
	out = appendBE8(out, lastSeq)
	out = appendBE8(out, headSeq)
	return out
}

func decodeMeta(b []byte) (lastSeq, headSeq uint64, ok bool) {
	if len(b) < 16 {
		return 0, 0, false
	}
	return binary.BigEndian.Uint64(b[:8]), binary.BigEndian.Uint64(b[8:16]), true
}
