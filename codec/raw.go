package codec

// Bytes is an identity codec for []byte values, e.g. raw base64-decoded account data.
type Bytes struct{}

var _ Codec[[]byte] = Bytes{}

func (Bytes) Encode(b []byte) ([]byte, error) { return b, nil }
func (Bytes) Decode(b []byte) ([]byte, error) { return append([]byte(nil), b...), nil }

// String stores Go strings as their UTF-8 bytes.
type String struct{}

var _ Codec[string] = String{}

func (String) Encode(s string) ([]byte, error) { return []byte(s), nil }
func (String) Decode(b []byte) (string, error) { return string(b), nil }
