package taskcache

import "github.com/goccy/go-json"

// Codec serializes values for the durable result store.
type Codec[V any] struct {
	Marshal   func(V) ([]byte, error)
	Unmarshal func([]byte) (V, error)
}

// JSONCodec is the codec used for every domain type we cache.
func JSONCodec[V any]() Codec[V] {
	return Codec[V]{
		Marshal: func(v V) ([]byte, error) { return json.Marshal(v) },
		Unmarshal: func(b []byte) (V, error) {
			var v V
			err := json.Unmarshal(b, &v)
			return v, err
		},
	}
}
