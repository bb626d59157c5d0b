package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type ProfileTestSuite struct {
	suite.Suite
}

func TestProfileTestSuite(t *testing.T) {
	suite.Run(t, new(ProfileTestSuite))
}

func (s *ProfileTestSuite) TestSessionUpdateLeavesUnsetFieldsAlone() {
	started := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	p := Profile{
		ExercisesInSession: 7,
		ExercisesInSet:     2,
		ErrorsInSet:        1,
		CurrentStreakDays:  4,
		SessionStartedAt:   &started,
	}

	got := SessionUpdate{ExercisesInSet: Int(3)}.Apply(p)
	s.Equal(3, got.ExercisesInSet)
	s.Equal(7, got.ExercisesInSession)
	s.Equal(1, got.ErrorsInSet)
	s.Equal(4, got.CurrentStreakDays)
	s.Equal(&started, got.SessionStartedAt)
}

func (s *ProfileTestSuite) TestSessionUpdateClearFlags() {
	until := time.Date(2025, 6, 10, 15, 0, 0, 0, time.UTC)
	remindAt := until.Add(-time.Hour)
	wants := true
	p := Profile{
		SessionFrozenUntil:    &until,
		WantsReminders:        &wants,
		LastBreakReminderType: "gentle",
		LastBreakReminderAt:   &remindAt,
	}

	got := SessionUpdate{ClearFrozenUntil: true, ClearReminders: true}.Apply(p)
	s.Nil(got.SessionFrozenUntil)
	s.Nil(got.WantsReminders)
	s.Empty(got.LastBreakReminderType)
	s.Nil(got.LastBreakReminderAt)
}

func (s *ProfileTestSuite) TestSessionUpdateSetThenClearFrozenPrefersClear() {
	until := time.Date(2025, 6, 10, 15, 0, 0, 0, time.UTC)
	got := SessionUpdate{
		SessionFrozenUntil: &until,
		ClearFrozenUntil:   true,
	}.Apply(Profile{})
	s.Nil(got.SessionFrozenUntil)
}

func (s *ProfileTestSuite) TestProfileUpdate() {
	p := Profile{UserLanguage: "en", Level: A2}
	got := ProfileUpdate{
		UserLanguage: Str("ru"),
		Level:        Level(B1),
		TypeWeights:  map[ExerciseType]float64{ChooseAccent: 2},
	}.Apply(p)
	s.Equal("ru", got.UserLanguage)
	s.Equal(B1, got.Level)
	s.Equal(2.0, got.TypeWeights[ChooseAccent])

	// Nil update is a no-op.
	s.Equal(got, ProfileUpdate{}.Apply(got))
}

func (s *ProfileTestSuite) TestLevelParseAndClamp() {
	s.Equal(B2, ParseLevel("b2"))
	s.Equal(A1, ParseLevel("unknown"))
	s.Equal(C2, (C2 + 3).Clamp())
	s.Equal(A1, (A1 - 1).Clamp())
	s.Equal("C1", C1.String())
}
