package codec

import (
	"encoding/json"
	"strings"
	"testing"

	"google.golang.org/protobuf/types/known/wrapperspb"
)

type block struct {
	Blockhash string          `json:"blockhash"`
	Slot      uint64          `json:"parentSlot"`
	Rewards   json.RawMessage `json:"rewards,omitempty"`
}

func TestStructCodecs(t *testing.T) {
	in := block{Blockhash: "abc", Slot: 41, Rewards: json.RawMessage(`[{"lamports":5}]`)}
	codecs := map[string]Codec[block]{
		"json":    JSON[block]{},
		"msgpack": Msgpack[block]{},
		"cbor":    MustCBOR[block](true),
	}
	for name, c := range codecs {
		t.Run(name, func(t *testing.T) {
			b, err := c.Encode(in)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			out, err := c.Decode(b)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if out.Blockhash != in.Blockhash || out.Slot != in.Slot || string(out.Rewards) != string(in.Rewards) {
				t.Fatalf("got %+v", out)
			}
		})
	}
}

func TestMsgpackUsesJSONTags(t *testing.T) {
	b, err := Msgpack[block]{}.Encode(block{Blockhash: "abc"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), "blockhash") || strings.Contains(string(b), "Blockhash") {
		t.Fatalf("field name not taken from json tag: %q", b)
	}
}

func TestCBORDeterministic(t *testing.T) {
	c := MustCBOR[map[string]int](true)
	a, _ := c.Encode(map[string]int{"b": 2, "a": 1, "c": 3})
	b, _ := c.Encode(map[string]int{"c": 3, "a": 1, "b": 2})
	if string(a) != string(b) {
		t.Fatal("deterministic mode produced different bytes")
	}
}

func TestLimit(t *testing.T) {
	c := Limit[string]{Inner: String{}, MaxDecode: 4}
	if _, err := c.Decode([]byte("12345")); err == nil {
		t.Fatal("expected size error")
	}
	v, err := c.Decode([]byte("1234"))
	if err != nil || v != "1234" {
		t.Fatalf("got %q, %v", v, err)
	}
	if _, err := (Limit[string]{Inner: String{}}).Decode(make([]byte, 1<<20)); err != nil {
		t.Fatalf("zero limit should disable the check: %v", err)
	}
}

func TestBytesDecodeCopies(t *testing.T) {
	src := []byte{1, 2, 3}
	out, _ := Bytes{}.Decode(src)
	src[0] = 9
	if out[0] != 1 {
		t.Fatal("Decode must not alias its input")
	}
}

func TestProtobuf(t *testing.T) {
	c := NewProtobuf(func() *wrapperspb.UInt64Value { return &wrapperspb.UInt64Value{} })
	b, err := c.Encode(wrapperspb.UInt64(250_000_000))
	if err != nil {
		t.Fatal(err)
	}
	v, err := c.Decode(b)
	if err != nil || v.GetValue() != 250_000_000 {
		t.Fatalf("got %v, %v", v, err)
	}
	if _, err := c.Decode([]byte{0xff}); err == nil {
		t.Fatal("expected error on garbage")
	}
}
