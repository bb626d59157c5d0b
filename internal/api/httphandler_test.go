package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lingodrill/internal/flow"
	"lingodrill/internal/taskcache"
	"lingodrill/internal/types"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/suite"
)

type stubProfiles struct {
	profiles map[int64]types.Profile
}

func (s *stubProfiles) Get(_ context.Context, userID int64, _ string) (types.Profile, error) {
	p, ok := s.profiles[userID]
	if !ok {
		return types.Profile{}, types.ErrNotFound
	}
	return p, nil
}

func (s *stubProfiles) Create(_ context.Context, p types.Profile) (types.Profile, error) {
	s.profiles[p.UserID] = p
	return p, nil
}

func (s *stubProfiles) ApplySession(_ context.Context, userID int64, _ string, u types.SessionUpdate) (types.Profile, error) {
	p := u.Apply(s.profiles[userID])
	s.profiles[userID] = p
	return p, nil
}

func (s *stubProfiles) ApplyProfile(_ context.Context, userID int64, _ string, u types.ProfileUpdate) (types.Profile, error) {
	p := u.Apply(s.profiles[userID])
	s.profiles[userID] = p
	return p, nil
}

func (s *stubProfiles) ApplyStatus(_ context.Context, userID int64, _ string, st types.UserStatus) (types.Profile, error) {
	p := s.profiles[userID]
	p.Status = st
	s.profiles[userID] = p
	return p, nil
}

type stubExercises struct {
	ex *types.Exercise
}

func (s *stubExercises) GetNew(_ context.Context, _ types.ExerciseCriteria) (*types.Exercise, error) {
	return s.ex, nil
}

func (s *stubExercises) GetAnyNew(_ context.Context, _ types.ExerciseCriteria) (*types.Exercise, error) {
	return s.ex, nil
}

func (s *stubExercises) GetForRepetition(_ context.Context, _ int64) (*types.Exercise, error) {
	return s.ex, nil
}

func (s *stubExercises) GetByID(_ context.Context, id int64) (*types.Exercise, error) {
	if s.ex != nil && s.ex.ExerciseID == id {
		return s.ex, nil
	}
	return nil, nil
}

type stubAttempts struct{ seq int64 }

func (s *stubAttempts) Create(_ context.Context, a types.Attempt) (types.Attempt, error) {
	s.seq++
	a.AttemptID = s.seq
	return a, nil
}

func (s *stubAttempts) Update(_ context.Context, attemptID int64, r types.AttemptResolution) (types.Attempt, error) {
	return types.Attempt{
		AttemptID: attemptID,
		IsCorrect: &r.IsCorrect,
		Feedback:  &r.Feedback,
		AnswerID:  &r.AnswerID,
	}, nil
}

type stubAnswers struct{ seq int64 }

func (s *stubAnswers) Create(_ context.Context, a types.StoredAnswer) (types.StoredAnswer, error) {
	s.seq++
	a.AnswerID = s.seq
	return a, nil
}

func (s *stubAnswers) GetAllByAnswer(_ context.Context, _ int64, _ string) ([]types.StoredAnswer, error) {
	return nil, nil
}

type stubLLM struct{}

func (stubLLM) ValidateAttempt(_ context.Context, _ string, _ types.Exercise, _ string) (bool, string, error) {
	return true, "correct", nil
}

func (stubLLM) TranslateFeedback(_ context.Context, feedback, _ string, _ types.Exercise, _ string, _ string) (string, error) {
	return feedback, nil
}

type HandlerTestSuite struct {
	suite.Suite

	profiles  *stubProfiles
	exercises *stubExercises
	server    *httptest.Server
}

func TestHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(HandlerTestSuite))
}

func (s *HandlerTestSuite) SetupTest() {
	s.profiles = &stubProfiles{profiles: make(map[int64]types.Profile)}
	s.exercises = &stubExercises{
		ex: &types.Exercise{ExerciseID: 7, Type: types.FillInTheBlank, TargetLanguage: "de"},
	}
	orch := flow.NewOrchestrator(s.profiles, s.exercises, types.DefaultSessionConfig())
	validator := flow.NewValidator(
		&stubAttempts{}, &stubAnswers{}, stubLLM{}, stubLLM{},
		taskcache.New[types.Attempt](time.Minute, 0),
		taskcache.New[types.StoredAnswer](time.Minute, 0),
	)
	h := NewHandler(orch, validator, s.profiles, s.exercises)
	s.server = httptest.NewServer(h.Router())
}

func (s *HandlerTestSuite) TearDownTest() {
	s.server.Close()
}

func (s *HandlerTestSuite) postJSON(path string, body any) *http.Response {
	b, err := json.Marshal(body)
	s.Require().NoError(err)
	resp, err := http.Post(s.server.URL+path, "application/json", bytes.NewReader(b))
	s.Require().NoError(err)
	return resp
}

func (s *HandlerTestSuite) TestHealth() {
	resp, err := http.Get(s.server.URL + "/health")
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)
}

func (s *HandlerTestSuite) TestNextActionIssuesExercise() {
	resp := s.postJSON("/next-action", map[string]any{"user_id": 1, "bot_id": "de"})
	defer resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)

	var na types.NextAction
	s.NoError(json.NewDecoder(resp.Body).Decode(&na))
	s.Equal(types.ActionNewExercise, na.Action)
	s.NotNil(na.Exercise)
	s.EqualValues(7, na.Exercise.ExerciseID)
}

func (s *HandlerTestSuite) TestNextActionRequiresIdentity() {
	resp := s.postJSON("/next-action", map[string]any{"user_id": 0})
	defer resp.Body.Close()
	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *HandlerTestSuite) TestNextActionRejectsGet() {
	resp, err := http.Get(s.server.URL + "/next-action")
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Equal(http.StatusMethodNotAllowed, resp.StatusCode)
}

func (s *HandlerTestSuite) TestValidateUnknownUser() {
	resp := s.postJSON("/attempts/validate", map[string]any{
		"user_id": 9, "bot_id": "de", "exercise_id": 7, "answer": "gehe",
	})
	defer resp.Body.Close()
	s.Equal(http.StatusNotFound, resp.StatusCode)
}

func (s *HandlerTestSuite) TestValidateUnknownExercise() {
	s.profiles.profiles[1] = types.Profile{UserID: 1, BotID: "de", UserLanguage: "en"}
	resp := s.postJSON("/attempts/validate", map[string]any{
		"user_id": 1, "bot_id": "de", "exercise_id": 99, "answer": "gehe",
	})
	defer resp.Body.Close()
	s.Equal(http.StatusNotFound, resp.StatusCode)
}

func (s *HandlerTestSuite) TestValidateResolvesAttempt() {
	s.profiles.profiles[1] = types.Profile{UserID: 1, BotID: "de", UserLanguage: "en"}
	resp := s.postJSON("/attempts/validate", map[string]any{
		"user_id": 1, "bot_id": "de", "exercise_id": 7, "answer": "gehe",
	})
	defer resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)

	var a types.Attempt
	s.NoError(json.NewDecoder(resp.Body).Decode(&a))
	s.NotNil(a.IsCorrect)
	s.True(*a.IsCorrect)
	s.Equal("correct", *a.Feedback)
}
