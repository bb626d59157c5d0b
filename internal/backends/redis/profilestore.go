package redis

import (
	"context"
	"errors"
	"fmt"

	"lingodrill/internal/types"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

const profileKeyTemplate = "_ld_profile_%d_%s"

// ProfileStore keeps one JSON document per (user, bot). Updates go through a
// WATCH/MULTI transaction so each Apply* is a single atomic commit; on
// contention the transaction is retried a few times and the last writer wins.
type ProfileStore struct {
	cli *redis.Client
}

func NewProfileStore(cli *redis.Client) *ProfileStore {
	return &ProfileStore{cli: cli}
}

func (s *ProfileStore) Get(ctx context.Context, userID int64, botID string) (types.Profile, error) {
	out := s.cli.Get(ctx, profileKey(userID, botID))
	if out.Err() != nil {
		if errors.Is(out.Err(), redis.Nil) {
			return types.Profile{}, types.ErrNotFound
		}
		return types.Profile{}, types.Err(types.ErrStoreAccess, out.Err(), "")
	}
	var p types.Profile
	if err := json.Unmarshal([]byte(out.Val()), &p); err != nil {
		return types.Profile{}, err
	}
	return p, nil
}

func (s *ProfileStore) Create(ctx context.Context, p types.Profile) (types.Profile, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return types.Profile{}, err
	}
	ok, err := s.cli.SetNX(ctx, profileKey(p.UserID, p.BotID), string(b), 0).Result()
	if err != nil {
		return types.Profile{}, types.Err(types.ErrStoreAccess, err, "")
	}
	if !ok {
		return types.Profile{}, fmt.Errorf("profile %d/%s already exists", p.UserID, p.BotID)
	}
	return p, nil
}

func (s *ProfileStore) ApplySession(ctx context.Context, userID int64, botID string, u types.SessionUpdate) (types.Profile, error) {
	return s.apply(ctx, userID, botID, u.Apply)
}

func (s *ProfileStore) ApplyProfile(ctx context.Context, userID int64, botID string, u types.ProfileUpdate) (types.Profile, error) {
	return s.apply(ctx, userID, botID, u.Apply)
}

func (s *ProfileStore) ApplyStatus(ctx context.Context, userID int64, botID string, status types.UserStatus) (types.Profile, error) {
	return s.apply(ctx, userID, botID, func(p types.Profile) types.Profile {
		p.Status = status
		return p
	})
}

const applyRetries = 3

func (s *ProfileStore) apply(ctx context.Context, userID int64, botID string, mutate func(types.Profile) types.Profile) (types.Profile, error) {
	key := profileKey(userID, botID)
	var result types.Profile

	txn := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return types.ErrNotFound
			}
			return err
		}
		var p types.Profile
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return err
		}
		result = mutate(p)
		b, err := json.Marshal(result)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, string(b), 0)
			return nil
		})
		return err
	}

	for i := 0; i < applyRetries; i++ {
		err := s.cli.Watch(ctx, txn, key)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if errors.Is(err, types.ErrNotFound) {
			return types.Profile{}, err
		}
		return types.Profile{}, types.Err(types.ErrStoreAccess, err, "")
	}
	return types.Profile{}, types.Err(types.ErrStoreAccess, redis.TxFailedErr, "profile %d/%s update contention", userID, botID)
}

func profileKey(userID int64, botID string) string {
	return fmt.Sprintf(profileKeyTemplate, userID, botID)
}
