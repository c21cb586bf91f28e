package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

func mustEncode(t *testing.T, e Entry) []byte {
	t.Helper()
	b, err := Encode(e)
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	return b
}

func TestRoundTripFoundAndNotFound(t *testing.T) {
	cases := []Entry{
		{Gen: 0, Found: true, Payload: nil},
		{Gen: 42, Found: true, Payload: []byte(`{"blockhash":"abc"}`)},
		{Gen: math.MaxUint64, Found: true, Payload: []byte{0, 1, 2, 3, 4}},
		{Gen: 7, Found: false},
	}
	for _, tc := range cases {
		got, err := Decode(mustEncode(t, tc))
		if err != nil {
			t.Fatalf("Decode(%+v): %v", tc, err)
		}
		if got.Gen != tc.Gen || got.Found != tc.Found {
			t.Fatalf("header mismatch: got %+v want %+v", got, tc)
		}
		if !bytes.Equal(got.Payload, tc.Payload) && !(len(got.Payload) == 0 && len(tc.Payload) == 0) {
			t.Fatalf("payload mismatch: got %x want %x", got.Payload, tc.Payload)
		}
	}
}

func TestNotFoundDropsPayload(t *testing.T) {
	b := mustEncode(t, Entry{Gen: 3, Found: false, Payload: []byte("ignored")})
	got, err := Decode(b)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Found || len(got.Payload) != 0 {
		t.Fatalf("not-found frame should carry no payload, got %+v", got)
	}
}

func TestRejectsTrailingBytes(t *testing.T) {
	b := mustEncode(t, Entry{Gen: 7, Found: true, Payload: []byte("x")})
	b = append(b, 0xDE, 0xAD)
	if _, err := Decode(b); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt on trailing bytes, got %v", err)
	}
}

func TestCorruptHeadersAndLengths(t *testing.T) {
	good := mustEncode(t, Entry{Gen: 1, Found: true, Payload: []byte("abc")})

	mutate := func(f func(b []byte) []byte) []byte {
		cp := append([]byte(nil), good...)
		return f(cp)
	}

	cases := map[string][]byte{
		"empty":     nil,
		"short":     good[:headerLen-1],
		"bad_magic": mutate(func(b []byte) []byte { b[0] = 'X'; return b }),
		"bad_ver":   mutate(func(b []byte) []byte { b[4] = 9; return b }),
		"bad_kind":  mutate(func(b []byte) []byte { b[5] = 9; return b }),
		"truncated": good[:len(good)-1],
		"vlen_overflow": mutate(func(b []byte) []byte {
			binary.BigEndian.PutUint32(b[14:18], math.MaxUint32)
			return b
		}),
		"notfound_with_payload": mutate(func(b []byte) []byte { b[5] = kindNotFound; return b }),
	}
	for name, b := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Decode(b); !errors.Is(err, ErrCorrupt) {
				t.Fatalf("expected ErrCorrupt, got %v", err)
			}
		})
	}
}
