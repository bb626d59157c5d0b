package ports

import (
	"context"
	"lingodrill/internal/types"
)

// ExerciseSource supplies exercises for the orchestrator. "None available" is
// not an error: implementations return (nil, nil) and the orchestrator maps
// that to a user-facing error action.
type ExerciseSource interface {
	// GetNew returns an unseen exercise matching the criteria exactly.
	GetNew(ctx context.Context, c types.ExerciseCriteria) (*types.Exercise, error)

	// GetAnyNew relaxes the topic/type constraints, keeping language fields.
	GetAnyNew(ctx context.Context, c types.ExerciseCriteria) (*types.Exercise, error)

	// GetForRepetition returns an exercise the user has seen before.
	GetForRepetition(ctx context.Context, userID int64) (*types.Exercise, error)

	// GetByID returns the exercise with the given id, or (nil, nil) when
	// unknown.
	GetByID(ctx context.Context, exerciseID int64) (*types.Exercise, error)
}
