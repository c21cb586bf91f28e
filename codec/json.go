package codec

import "encoding/json"

// JSON uses encoding/json. It is the default tier encoding: RPC payloads already
// carry json tags and json.RawMessage fields pass through untouched.
type JSON[V any] struct{}

var _ Codec[struct{}] = JSON[struct{}]{}

func (JSON[V]) Encode(v V) ([]byte, error) { return json.Marshal(v) }
func (JSON[V]) Decode(b []byte) (V, error) {
	var v V
	err := json.Unmarshal(b, &v)
	return v, err
}
