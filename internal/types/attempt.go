package types

import (
	"fmt"
	"time"
)

// Attempt records one user submission for one exercise. It is created in two
// phases: a placeholder row with null resolution is written before any slow
// validation work, then updated in place once, when resolution completes.
// After resolution an attempt is never mutated again.
type Attempt struct {
	AttemptID  int64   `json:"attempt_id" dynamodbav:"attempt_id"`
	UserID     int64   `json:"user_id" dynamodbav:"user_id"`
	ExerciseID int64   `json:"exercise_id" dynamodbav:"exercise_id"`
	Answer     string  `json:"answer" dynamodbav:"answer"`
	IsCorrect  *bool   `json:"is_correct,omitempty" dynamodbav:"is_correct"`
	Feedback   *string `json:"feedback,omitempty" dynamodbav:"feedback"`
	AnswerID   *int64  `json:"answer_id,omitempty" dynamodbav:"answer_id"`
}

// Resolved reports whether the attempt carries a resolution.
func (a Attempt) Resolved() bool { return a.IsCorrect != nil }

// AttemptResolution is the single in-place update applied to a placeholder.
type AttemptResolution struct {
	IsCorrect bool
	Feedback  string
	AnswerID  int64
}

// StoredAnswer is a canonical resolved answer text for an exercise,
// independent of who submitted it. Immutable once created; a new language
// variant is a new row, never an update.
type StoredAnswer struct {
	AnswerID         int64     `json:"answer_id" dynamodbav:"answer_id"`
	ExerciseID       int64     `json:"exercise_id" dynamodbav:"exercise_id"`
	Answer           string    `json:"answer" dynamodbav:"answer"`
	IsCorrect        bool      `json:"is_correct" dynamodbav:"is_correct"`
	Feedback         string    `json:"feedback" dynamodbav:"feedback"`
	FeedbackLanguage string    `json:"feedback_language" dynamodbav:"feedback_language"`
	CreatedBy        string    `json:"created_by" dynamodbav:"created_by"`
	CreatedAt        time.Time `json:"created_at" dynamodbav:"created_at"`
}

// Provenance tags for StoredAnswer.CreatedBy.
func CreatedByLLM(userID int64) string { return fmt.Sprintf("LLM:user:%d", userID) }

func CreatedByUser(userID int64) string { return fmt.Sprintf("user:%d", userID) }

func CreatedByTranslation(srcAnswerID int64) string {
	return fmt.Sprintf("translated_answer:%d", srcAnswerID)
}
