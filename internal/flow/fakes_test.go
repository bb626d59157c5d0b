package flow

import (
	"context"
	"fmt"
	"sync"

	"lingodrill/internal/types"
)

// In-memory test doubles for the store and provider ports.

type fakeProfileStore struct {
	mu       sync.Mutex
	profiles map[string]types.Profile
}

func newFakeProfileStore() *fakeProfileStore {
	return &fakeProfileStore{profiles: make(map[string]types.Profile)}
}

func profileKey(userID int64, botID string) string {
	return fmt.Sprintf("%d#%s", userID, botID)
}

func (f *fakeProfileStore) Get(_ context.Context, userID int64, botID string) (types.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[profileKey(userID, botID)]
	if !ok {
		return types.Profile{}, types.ErrNotFound
	}
	return p, nil
}

func (f *fakeProfileStore) Create(_ context.Context, p types.Profile) (types.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := profileKey(p.UserID, p.BotID)
	if _, ok := f.profiles[k]; ok {
		return types.Profile{}, types.ErrInvalidState
	}
	f.profiles[k] = p
	return p, nil
}

func (f *fakeProfileStore) ApplySession(_ context.Context, userID int64, botID string, u types.SessionUpdate) (types.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := profileKey(userID, botID)
	p, ok := f.profiles[k]
	if !ok {
		return types.Profile{}, types.ErrNotFound
	}
	p = u.Apply(p)
	f.profiles[k] = p
	return p, nil
}

func (f *fakeProfileStore) ApplyProfile(_ context.Context, userID int64, botID string, u types.ProfileUpdate) (types.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := profileKey(userID, botID)
	p, ok := f.profiles[k]
	if !ok {
		return types.Profile{}, types.ErrNotFound
	}
	p = u.Apply(p)
	f.profiles[k] = p
	return p, nil
}

func (f *fakeProfileStore) ApplyStatus(_ context.Context, userID int64, botID string, status types.UserStatus) (types.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := profileKey(userID, botID)
	p, ok := f.profiles[k]
	if !ok {
		return types.Profile{}, types.ErrNotFound
	}
	p.Status = status
	f.profiles[k] = p
	return p, nil
}

func (f *fakeProfileStore) put(p types.Profile) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profiles[profileKey(p.UserID, p.BotID)] = p
}

type fakeExerciseSource struct {
	mu         sync.Mutex
	next       *types.Exercise
	anyNext    *types.Exercise
	repetition *types.Exercise
	lastCrit   types.ExerciseCriteria
}

func (f *fakeExerciseSource) GetNew(_ context.Context, c types.ExerciseCriteria) (*types.Exercise, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastCrit = c
	return f.next, nil
}

func (f *fakeExerciseSource) GetAnyNew(_ context.Context, c types.ExerciseCriteria) (*types.Exercise, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.anyNext, nil
}

func (f *fakeExerciseSource) GetForRepetition(_ context.Context, _ int64) (*types.Exercise, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.repetition, nil
}

func (f *fakeExerciseSource) GetByID(_ context.Context, id int64) (*types.Exercise, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.next != nil && f.next.ExerciseID == id {
		return f.next, nil
	}
	return nil, nil
}

type fakeAttemptStore struct {
	mu       sync.Mutex
	seq      int64
	attempts map[int64]types.Attempt
	creates  int
}

func newFakeAttemptStore() *fakeAttemptStore {
	return &fakeAttemptStore{attempts: make(map[int64]types.Attempt)}
}

func (f *fakeAttemptStore) Create(_ context.Context, a types.Attempt) (types.Attempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	f.creates++
	a.AttemptID = f.seq
	f.attempts[a.AttemptID] = a
	return a, nil
}

func (f *fakeAttemptStore) Update(_ context.Context, attemptID int64, r types.AttemptResolution) (types.Attempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.attempts[attemptID]
	if !ok {
		return types.Attempt{}, types.ErrNotFound
	}
	a.IsCorrect = &r.IsCorrect
	a.Feedback = &r.Feedback
	a.AnswerID = &r.AnswerID
	f.attempts[attemptID] = a
	return a, nil
}

type fakeAnswerStore struct {
	mu      sync.Mutex
	seq     int64
	answers []types.StoredAnswer
}

func (f *fakeAnswerStore) Create(_ context.Context, a types.StoredAnswer) (types.StoredAnswer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	a.AnswerID = f.seq
	f.answers = append(f.answers, a)
	return a, nil
}

func (f *fakeAnswerStore) GetAllByAnswer(_ context.Context, exerciseID int64, answerText string) ([]types.StoredAnswer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []types.StoredAnswer
	for _, a := range f.answers {
		if a.ExerciseID == exerciseID && a.Answer == answerText {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeLLM struct {
	mu           sync.Mutex
	calls        int
	correct      bool
	feedback     string
	lastLanguage string
	err          error
	block        chan struct{}
}

func (f *fakeLLM) ValidateAttempt(_ context.Context, language string, _ types.Exercise, _ string) (bool, string, error) {
	f.mu.Lock()
	f.calls++
	f.lastLanguage = language
	block := f.block
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	if f.err != nil {
		return false, "", f.err
	}
	return f.correct, f.feedback, nil
}

func (f *fakeLLM) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeTranslator struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeTranslator) TranslateFeedback(_ context.Context, feedback, targetLanguage string, _ types.Exercise, _ string, _ string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return "[" + targetLanguage + "] " + feedback, nil
}

type fakeNotifier struct {
	mu       sync.Mutex
	topics   []string
	payloads [][]byte
	err      error
}

func (f *fakeNotifier) Publish(_ context.Context, topic string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.topics = append(f.topics, topic)
	f.payloads = append(f.payloads, payload)
	return nil
}
