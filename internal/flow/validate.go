package flow

import (
	"context"
	"strings"

	"lingodrill/internal/ports"
	"lingodrill/internal/taskcache"
	"lingodrill/internal/texts"
	"lingodrill/internal/types"

	log "github.com/sirupsen/logrus"
)

// Validator resolves whether a submitted answer is correct and produces
// feedback in the user's language, preferring stored knowledge over new LLM
// calls. Two caches dedupe the expensive work under concurrency: attempts
// dedupes whole submissions per (user, exercise, answer text), answers
// dedupes the LLM/translation step per (exercise, answer text) or
// (answer, language). Exactly one new attempt is persisted per submission.
type Validator struct {
	attempts   ports.AttemptStore
	answers    ports.AnswerStore
	llm        ports.LLMProvider
	translator ports.TranslateProvider

	attemptCache *taskcache.Cache[types.Attempt]
	answerCache  *taskcache.Cache[types.StoredAnswer]
}

func NewValidator(
	attempts ports.AttemptStore,
	answers ports.AnswerStore,
	llm ports.LLMProvider,
	translator ports.TranslateProvider,
	attemptCache *taskcache.Cache[types.Attempt],
	answerCache *taskcache.Cache[types.StoredAnswer],
) *Validator {
	return &Validator{
		attempts:     attempts,
		answers:      answers,
		llm:          llm,
		translator:   translator,
		attemptCache: attemptCache,
		answerCache:  answerCache,
	}
}

// Validate resolves one submission and returns the persisted attempt.
// Near-simultaneous identical submissions share one resolution: the second
// caller waits on the first one's computation instead of triggering another
// LLM call.
func (v *Validator) Validate(ctx context.Context, user types.Profile, ex types.Exercise, answerText string) (types.Attempt, error) {
	if ex.ExerciseID == 0 {
		return types.Attempt{}, types.Err(types.ErrInvalidState, nil, "cannot validate an exercise without an id")
	}
	key := attemptKey(user.UserID, ex.ExerciseID, answerText)
	return v.attemptCache.GetOrCompute(ctx, key, 0, func(ctx context.Context) (types.Attempt, error) {
		return v.handleAttempt(ctx, user, ex, answerText)
	})
}

func (v *Validator) handleAttempt(ctx context.Context, user types.Profile, ex types.Exercise, answerText string) (types.Attempt, error) {
	known, err := v.chooseStoredAnswer(ctx, ex.ExerciseID, answerText, user.UserLanguage)
	if err != nil {
		return types.Attempt{}, err
	}

	// A correct match, or one already in the user's language, resolves the
	// attempt immediately: no cache, no LLM.
	if known != nil && (known.IsCorrect || known.FeedbackLanguage == user.UserLanguage) {
		return v.attempts.Create(ctx, types.Attempt{
			UserID:     user.UserID,
			ExerciseID: ex.ExerciseID,
			Answer:     answerText,
			IsCorrect:  &known.IsCorrect,
			Feedback:   &known.Feedback,
			AnswerID:   &known.AnswerID,
		})
	}

	// Slow work follows. Persist the placeholder first so the submission is
	// durably visible even if validation fails; it stays unresolved in that
	// case and the user's resubmission is the retry.
	placeholder, err := v.attempts.Create(ctx, types.Attempt{
		UserID:     user.UserID,
		ExerciseID: ex.ExerciseID,
		Answer:     answerText,
	})
	if err != nil {
		return types.Attempt{}, err
	}
	log.WithFields(log.Fields{"attempt": placeholder.AttemptID, "exercise": ex.ExerciseID}).
		Debug("placeholder attempt persisted")

	var resolved types.StoredAnswer
	switch {
	case known != nil:
		// Same answer, wrong feedback language.
		resolved, err = v.translateAnswer(ctx, *known, user.UserLanguage, ex)
	case ex.Type.ClosedChoice():
		resolved, err = v.resolveClosedChoice(ctx, user, ex, answerText)
	default:
		resolved, err = v.llmValidate(ctx, user, ex, answerText)
		if err == nil && resolved.FeedbackLanguage != user.UserLanguage {
			resolved, err = v.translateAnswer(ctx, resolved, user.UserLanguage, ex)
		}
	}
	if err != nil {
		return types.Attempt{}, err
	}
	if resolved.AnswerID == 0 {
		return types.Attempt{}, types.Err(types.ErrInvalidState, nil, "stored answer without an id")
	}

	return v.attempts.Update(ctx, placeholder.AttemptID, types.AttemptResolution{
		IsCorrect: resolved.IsCorrect,
		Feedback:  resolved.Feedback,
		AnswerID:  resolved.AnswerID,
	})
}

// chooseStoredAnswer returns the best prior resolution for this exact answer
// text: any correct one, else one in the user's language, else any other.
func (v *Validator) chooseStoredAnswer(ctx context.Context, exerciseID int64, answerText, userLanguage string) (*types.StoredAnswer, error) {
	all, err := v.answers.GetAllByAnswer(ctx, exerciseID, answerText)
	if err != nil {
		return nil, err
	}
	var userLang, otherLang *types.StoredAnswer
	for i := range all {
		a := &all[i]
		if a.IsCorrect {
			return a, nil
		}
		if a.FeedbackLanguage == userLanguage {
			if userLang == nil {
				userLang = a
			}
		} else if otherLang == nil {
			otherLang = a
		}
	}
	if userLang != nil {
		return userLang, nil
	}
	return otherLang, nil
}

// llmValidate runs the LLM validation once per (exercise, answer text),
// persisting the resolution as a new stored answer.
func (v *Validator) llmValidate(ctx context.Context, user types.Profile, ex types.Exercise, answerText string) (types.StoredAnswer, error) {
	key := validationKey(ex.ExerciseID, answerText)
	return v.answerCache.GetOrCompute(ctx, key, 0, func(ctx context.Context) (types.StoredAnswer, error) {
		correct, feedback, err := v.llm.ValidateAttempt(ctx, user.UserLanguage, ex, answerText)
		if err != nil {
			return types.StoredAnswer{}, err
		}
		return v.answers.Create(ctx, types.StoredAnswer{
			ExerciseID:       ex.ExerciseID,
			Answer:           answerText,
			IsCorrect:        correct,
			Feedback:         feedback,
			FeedbackLanguage: user.UserLanguage,
			CreatedBy:        types.CreatedByLLM(user.UserID),
			CreatedAt:        timeNow().UTC(),
		})
	})
}

// translateAnswer copies a stored answer into the target language, keeping
// its correctness and translating only the feedback text. One translation per
// (source answer, language) under concurrency.
func (v *Validator) translateAnswer(ctx context.Context, src types.StoredAnswer, targetLanguage string, ex types.Exercise) (types.StoredAnswer, error) {
	log.WithFields(log.Fields{"answer": src.AnswerID, "lang": targetLanguage}).
		Info("translating stored answer feedback")
	key := translationKey(src.AnswerID, targetLanguage)
	return v.answerCache.GetOrCompute(ctx, key, 0, func(ctx context.Context) (types.StoredAnswer, error) {
		feedback, err := v.translator.TranslateFeedback(ctx, src.Feedback, targetLanguage, ex, src.Answer, ex.TargetLanguage)
		if err != nil {
			return types.StoredAnswer{}, err
		}
		return v.answers.Create(ctx, types.StoredAnswer{
			ExerciseID:       src.ExerciseID,
			Answer:           src.Answer,
			IsCorrect:        src.IsCorrect,
			Feedback:         feedback,
			FeedbackLanguage: targetLanguage,
			CreatedBy:        types.CreatedByTranslation(src.AnswerID),
			CreatedAt:        timeNow().UTC(),
		})
	})
}

// resolveClosedChoice decides choose-type exercises structurally from the
// exercise's own correct-options list. No LLM involved.
func (v *Validator) resolveClosedChoice(ctx context.Context, user types.Profile, ex types.Exercise, answerText string) (types.StoredAnswer, error) {
	options := ex.CorrectOptions()
	correct := false
	for _, opt := range options {
		if strings.EqualFold(strings.TrimSpace(opt), strings.TrimSpace(answerText)) {
			correct = true
			break
		}
	}
	var feedback string
	if correct {
		feedback = texts.Get(texts.ChoiceCorrect, user.UserLanguage)
	} else {
		feedback = texts.Get(texts.ChoiceIncorrect, user.UserLanguage, strings.Join(options, ", "))
	}
	return v.answers.Create(ctx, types.StoredAnswer{
		ExerciseID:       ex.ExerciseID,
		Answer:           answerText,
		IsCorrect:        correct,
		Feedback:         feedback,
		FeedbackLanguage: user.UserLanguage,
		CreatedBy:        types.CreatedByUser(user.UserID),
		CreatedAt:        timeNow().UTC(),
	})
}
