package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
)

const (
	version       byte = 1
	kindFound     byte = 1
	kindNotFound  byte = 2
	headerLen          = 4 + 1 + 1 + 8 + 4
	maxPayloadLen      = 1<<32 - 1
)

var (
	ErrCorrupt  = errors.New("fetchcache: corrupt tier entry")
	ErrTooLarge = errors.New("fetchcache: tier payload too large")
	magic4      = [...]byte{'F', 'C', 'H', 'C'}
)

// Entry is one framed tier value.
type Entry struct {
	Gen     uint64
	Found   bool
	Payload []byte // empty when !Found
}

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// Encode frames e as: magic(4) | ver(1) | kind(1=found,2=notfound) | gen(u64 be) | vlen(u32 be) | payload(vlen)
func Encode(e Entry) ([]byte, error) {
	payload := e.Payload
	kind := kindFound
	if !e.Found {
		kind = kindNotFound
		payload = nil
	}
	if uint64(len(payload)) > maxPayloadLen {
		return nil, ErrTooLarge
	}

	var buf bytes.Buffer
	buf.Grow(headerLen + len(payload))

	buf.Write(magic4[:])
	buf.WriteByte(version)
	buf.WriteByte(kind)

	var u8 [8]byte
	var u4 [4]byte

	binary.BigEndian.PutUint64(u8[:], e.Gen)
	buf.Write(u8[:])

	binary.BigEndian.PutUint32(u4[:], uint32(len(payload)))
	buf.Write(u4[:])

	buf.Write(payload)
	return buf.Bytes(), nil
}

// Decode parses a frame produced by Encode. Trailing bytes, unknown kinds and
// not-found frames with a payload are rejected as corrupt.
func Decode(b []byte) (Entry, error) {
	if len(b) < headerLen || !hasMagic(b) || b[4] != version {
		return Entry{}, ErrCorrupt
	}
	kind := b[5]
	if kind != kindFound && kind != kindNotFound {
		return Entry{}, ErrCorrupt
	}

	off := 6
	gen := binary.BigEndian.Uint64(b[off : off+8])
	off += 8

	vlen := uint64(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if vlen != uint64(len(b)-off) {
		return Entry{}, ErrCorrupt
	}
	if kind == kindNotFound {
		if vlen != 0 {
			return Entry{}, ErrCorrupt
		}
		return Entry{Gen: gen}, nil
	}
	return Entry{Gen: gen, Found: true, Payload: b[off:]}, nil
}
