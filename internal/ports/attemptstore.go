package ports

import (
	"context"
	"lingodrill/internal/types"
)

// AttemptStore persists attempt rows. Create and Update MUST each be a single
// atomic persistence call: the placeholder row written by Create must be
// durably visible even if the resolution that follows never arrives.
type AttemptStore interface {
	// Create assigns AttemptID and persists the attempt (possibly a
	// placeholder with null resolution).
	Create(ctx context.Context, a types.Attempt) (types.Attempt, error)

	// Update resolves a placeholder in place. MUST return types.ErrNotFound
	// for an unknown attempt id.
	Update(ctx context.Context, attemptID int64, r types.AttemptResolution) (types.Attempt, error)
}

// AnswerStore persists canonical resolved answers. Rows are immutable: a new
// feedback-language variant is a new row.
type AnswerStore interface {
	// Create assigns AnswerID and persists the answer.
	Create(ctx context.Context, a types.StoredAnswer) (types.StoredAnswer, error)

	// GetAllByAnswer returns every stored answer for (exerciseID, exact
	// answer text), any language, any correctness. Empty slice when none.
	GetAllByAnswer(ctx context.Context, exerciseID int64, answerText string) ([]types.StoredAnswer, error)
}
