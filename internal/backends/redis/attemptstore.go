package redis

import (
	"context"
	"errors"
	"fmt"

	"lingodrill/internal/types"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const (
	attemptKeyTemplate = "_ld_attempt_%d"
	attemptSeqKey      = "_ld_attempt_seq"

	answerKeyTemplate      = "_ld_answer_%d"
	answerSeqKey           = "_ld_answer_seq"
	answerIndexKeyTemplate = "_ld_answer_idx_%d_%s" // (exerciseID, answer text)
)

// AttemptStore persists attempts as JSON documents with ids from an INCR
// counter. Create and Update are each one write.
type AttemptStore struct {
	cli *redis.Client
}

func NewAttemptStore(cli *redis.Client) *AttemptStore {
	return &AttemptStore{cli: cli}
}

func (s *AttemptStore) Create(ctx context.Context, a types.Attempt) (types.Attempt, error) {
	id, err := s.cli.Incr(ctx, attemptSeqKey).Result()
	if err != nil {
		return types.Attempt{}, types.Err(types.ErrStoreAccess, err, "")
	}
	a.AttemptID = id
	b, err := json.Marshal(a)
	if err != nil {
		return types.Attempt{}, err
	}
	if err := s.cli.Set(ctx, attemptKey(id), string(b), 0).Err(); err != nil {
		return types.Attempt{}, types.Err(types.ErrStoreAccess, err, "")
	}
	return a, nil
}

func (s *AttemptStore) Update(ctx context.Context, attemptID int64, r types.AttemptResolution) (types.Attempt, error) {
	key := attemptKey(attemptID)
	raw, err := s.cli.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return types.Attempt{}, types.ErrNotFound
		}
		return types.Attempt{}, types.Err(types.ErrStoreAccess, err, "")
	}
	var a types.Attempt
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		return types.Attempt{}, err
	}
	a.IsCorrect = &r.IsCorrect
	a.Feedback = &r.Feedback
	a.AnswerID = &r.AnswerID
	b, err := json.Marshal(a)
	if err != nil {
		return types.Attempt{}, err
	}
	if err := s.cli.Set(ctx, key, string(b), 0).Err(); err != nil {
		return types.Attempt{}, types.Err(types.ErrStoreAccess, err, "")
	}
	return a, nil
}

// AnswerStore persists stored answers plus a per-(exercise, answer text) set
// of ids used for lookup.
type AnswerStore struct {
	cli *redis.Client
}

func NewAnswerStore(cli *redis.Client) *AnswerStore {
	return &AnswerStore{cli: cli}
}

func (s *AnswerStore) Create(ctx context.Context, a types.StoredAnswer) (types.StoredAnswer, error) {
	id, err := s.cli.Incr(ctx, answerSeqKey).Result()
	if err != nil {
		return types.StoredAnswer{}, types.Err(types.ErrStoreAccess, err, "")
	}
	a.AnswerID = id
	b, err := json.Marshal(a)
	if err != nil {
		return types.StoredAnswer{}, err
	}
	if err := s.cli.Set(ctx, answerKey(id), string(b), 0).Err(); err != nil {
		return types.StoredAnswer{}, types.Err(types.ErrStoreAccess, err, "")
	}
	if err := s.cli.SAdd(ctx, answerIndexKey(a.ExerciseID, a.Answer), id).Err(); err != nil {
		// The row exists; a missing index entry only costs a cache miss later.
		log.WithError(err).WithField("answer", id).Warn("answer index update failed")
	}
	return a, nil
}

func (s *AnswerStore) GetAllByAnswer(ctx context.Context, exerciseID int64, answerText string) ([]types.StoredAnswer, error) {
	ids, err := s.cli.SMembers(ctx, answerIndexKey(exerciseID, answerText)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, types.Err(types.ErrStoreAccess, err, "")
	}
	out := make([]types.StoredAnswer, 0, len(ids))
	for _, idStr := range ids {
		raw, err := s.cli.Get(ctx, answerKeyPrefixed(idStr)).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return nil, types.Err(types.ErrStoreAccess, err, "")
		}
		var a types.StoredAnswer
		if err := json.Unmarshal([]byte(raw), &a); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func attemptKey(id int64) string { return fmt.Sprintf(attemptKeyTemplate, id) }

func answerKey(id int64) string { return fmt.Sprintf(answerKeyTemplate, id) }

func answerKeyPrefixed(id string) string {
	return fmt.Sprintf("_ld_answer_%s", id)
}

func answerIndexKey(exerciseID int64, answerText string) string {
	return fmt.Sprintf(answerIndexKeyTemplate, exerciseID, answerText)
}
