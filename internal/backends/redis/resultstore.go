package redis

import (
	"context"
	"errors"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/redis/go-redis/v9"
)

const resultKeyPrefix = "_ld_result_"

var enc, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
var dec, _ = zstd.NewReader(nil)

// ResultStore implements ports.ResultStore on Redis. Values are
// zstd-compressed: cached LLM feedback is verbose and highly compressible.
type ResultStore struct {
	cli *redis.Client
}

func NewResultStore(cli *redis.Client) *ResultStore {
	return &ResultStore{cli: cli}
}

func (s *ResultStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	out := s.cli.Get(ctx, resultKeyPrefix+key)
	if out.Err() != nil {
		if errors.Is(out.Err(), redis.Nil) {
			return nil, false, nil
		}
		return nil, false, out.Err()
	}
	raw, err := out.Bytes()
	if err != nil {
		return nil, false, err
	}
	val, err := dec.DecodeAll(raw, nil)
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (s *ResultStore) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	compressed := enc.EncodeAll(val, nil)
	return s.cli.Set(ctx, resultKeyPrefix+key, compressed, ttl).Err()
}
