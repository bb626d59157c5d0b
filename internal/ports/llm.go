package ports

import (
	"context"
	"lingodrill/internal/types"
)

// LLMProvider judges free-form answers. Calls are slow and billed; callers
// dedupe them through the task cache and carry their own deadline on ctx.
type LLMProvider interface {
	// ValidateAttempt returns correctness and user-facing feedback in the
	// given language.
	ValidateAttempt(ctx context.Context, language string, ex types.Exercise, answerText string) (bool, string, error)
}

// TranslateProvider translates stored feedback into another language.
type TranslateProvider interface {
	TranslateFeedback(ctx context.Context, feedback, targetLanguage string, ex types.Exercise, answerText, exerciseLanguage string) (string, error)
}
