package relay

import (
	"encoding/json"
	"errors"
)

// Decoder turns a raw upstream message into a keyed payload.
// source is the channel or queue name the message arrived on.
type Decoder[K comparable, V any] func(source string, data []byte) (K, V, error)

// JSONDecoder decodes data as JSON into V and derives the key with keyOf.
func JSONDecoder[K comparable, V any](keyOf func(V) K) Decoder[K, V] {
	return func(_ string, data []byte) (K, V, error) {
		var (
			key K
			v   V
		)
		if err := json.Unmarshal(data, &v); err != nil {
			return key, v, errors.Join(ErrDecode, err)
		}
		return keyOf(v), v, nil
	}
}
