package eventlog

import (
	"encoding/binary"
	"hash/crc32"
)

// Record is one entry of the feed: an opaque payload and the Unix second at
// which it was appended. Seq is its storage position and is assigned by Append.
type Record struct {
	Seq        uint64 `json:"seq"`
	Payload    []byte `json:"payload"`
	InsertedAt uint64 `json:"inserted_at"`
}

// ExpiredAt reports whether the record's retention window has strictly
// elapsed at now: now > InsertedAt + period. A record exactly at the
// boundary is retained. The sum is never formed so it cannot overflow.
func (r Record) ExpiredAt(now, period uint64) bool {
	return now > r.InsertedAt && now-r.InsertedAt > period
}

// Record encoding: version(1B) | insertedAt(8B BE) | payload | crc32c(all previous bytes)

const recordVersion byte = 1

const recordOverhead = 1 + 8 + 4

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

func EncodeRecord(insertedAt uint64, payload []byte) []byte {
	out := make([]byte, 0, recordOverhead+len(payload))
	out = append(out, recordVersion)
	out = appendBE8(out, insertedAt)
	out = append(out, payload...)

	var crcb [4]byte
	binary.BigEndian.PutUint32(crcb[:], crc32.Checksum(out, castagnoli))
	return append(out, crcb[:]...)
}

type Decoded struct {
	InsertedAt uint64
	Payload    []byte
}

// DecodeRecord validates version and checksum and copies the payload out.
func DecodeRecord(b []byte) (Decoded, bool) {
	if len(b) < recordOverhead {
		return Decoded{}, false
	}
	if b[0] != recordVersion {
		return Decoded{}, false
	}
	body := b[:len(b)-4]
	expect := binary.BigEndian.Uint32(b[len(b)-4:])
	if crc32.Checksum(body, castagnoli) != expect {
		return Decoded{}, false
	}
	return Decoded{
		InsertedAt: binary.BigEndian.Uint64(b[1:9]),
		Payload:    append([]byte(nil), body[9:]...),
	}, true
}
