package types

import "time"

// UserStatus is the user's standing within one bot.
type UserStatus string

const (
	StatusActive   UserStatus = "active"
	StatusBlocked  UserStatus = "blocked"
	StatusInactive UserStatus = "inactive"
)

// Profile is the mutable per-(user, bot) learning-session state.
// Identity is (UserID, BotID); created on first interaction, never deleted.
// Session and streak fields are mutated only by the session orchestrator
// through the typed update commands below, one atomic store call per update.
type Profile struct {
	UserID int64  `json:"user_id" dynamodbav:"user_id"`
	BotID  string `json:"bot_id" dynamodbav:"bot_id"`

	Status       UserStatus    `json:"status" dynamodbav:"status"`
	UserLanguage string        `json:"user_language" dynamodbav:"user_language"`
	Level        LanguageLevel `json:"language_level" dynamodbav:"language_level"`

	ExercisesInSession int `json:"exercises_in_session" dynamodbav:"exercises_in_session"`
	ExercisesInSet     int `json:"exercises_in_set" dynamodbav:"exercises_in_set"`
	ErrorsInSet        int `json:"errors_in_set" dynamodbav:"errors_in_set"`

	LastExerciseAt     *time.Time `json:"last_exercise_at,omitempty" dynamodbav:"last_exercise_at"`
	SessionStartedAt   *time.Time `json:"session_started_at,omitempty" dynamodbav:"session_started_at"`
	SessionFrozenUntil *time.Time `json:"session_frozen_until,omitempty" dynamodbav:"session_frozen_until"`

	CurrentStreakDays int `json:"current_streak_days" dynamodbav:"current_streak_days"`

	WantsReminders        *bool      `json:"wants_reminders,omitempty" dynamodbav:"wants_reminders"`
	LastBreakReminderType string     `json:"last_break_reminder_type,omitempty" dynamodbav:"last_break_reminder_type"`
	LastBreakReminderAt   *time.Time `json:"last_break_reminder_at,omitempty" dynamodbav:"last_break_reminder_at"`

	// TypeWeights overrides the exercise type distribution when non-empty.
	TypeWeights map[ExerciseType]float64 `json:"type_weights,omitempty" dynamodbav:"type_weights"`
}

// SessionUpdate carries the session/streak fields the orchestrator is allowed
// to change. Nil pointer fields are left untouched; Clear* flags force the
// matching nullable field back to null. The struct replaces a string-keyed
// allow-list: a field that is not here cannot be written through this path.
type SessionUpdate struct {
	ExercisesInSession *int
	ExercisesInSet     *int
	ErrorsInSet        *int
	CurrentStreakDays  *int

	LastExerciseAt     *time.Time
	SessionStartedAt   *time.Time
	SessionFrozenUntil *time.Time
	ClearFrozenUntil   bool

	ClearReminders bool
}

// Apply mutates a copy of p with the update and returns it.
// Store implementations share this so every backend resolves an update the
// same way.
func (u SessionUpdate) Apply(p Profile) Profile {
	if u.ExercisesInSession != nil {
		p.ExercisesInSession = *u.ExercisesInSession
	}
	if u.ExercisesInSet != nil {
		p.ExercisesInSet = *u.ExercisesInSet
	}
	if u.ErrorsInSet != nil {
		p.ErrorsInSet = *u.ErrorsInSet
	}
	if u.CurrentStreakDays != nil {
		p.CurrentStreakDays = *u.CurrentStreakDays
	}
	if u.LastExerciseAt != nil {
		p.LastExerciseAt = u.LastExerciseAt
	}
	if u.SessionStartedAt != nil {
		p.SessionStartedAt = u.SessionStartedAt
	}
	if u.SessionFrozenUntil != nil {
		p.SessionFrozenUntil = u.SessionFrozenUntil
	}
	if u.ClearFrozenUntil {
		p.SessionFrozenUntil = nil
	}
	if u.ClearReminders {
		p.WantsReminders = nil
		p.LastBreakReminderType = ""
		p.LastBreakReminderAt = nil
	}
	return p
}

// ProfileUpdate changes the user-controlled profile fields.
type ProfileUpdate struct {
	UserLanguage *string
	Level        *LanguageLevel
	TypeWeights  map[ExerciseType]float64
}

func (u ProfileUpdate) Apply(p Profile) Profile {
	if u.UserLanguage != nil {
		p.UserLanguage = *u.UserLanguage
	}
	if u.Level != nil {
		p.Level = *u.Level
	}
	if u.TypeWeights != nil {
		p.TypeWeights = u.TypeWeights
	}
	return p
}

// Pointer helpers for building update commands.
func Int(v int) *int { return &v }

func Time(t time.Time) *time.Time { return &t }

func Str(s string) *string { return &s }

func Level(l LanguageLevel) *LanguageLevel { return &l }
