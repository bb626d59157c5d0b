package flow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lingodrill/internal/ports"
	"lingodrill/internal/texts"
	"lingodrill/internal/types"

	"github.com/goccy/go-json"
	log "github.com/sirupsen/logrus"
)

// Orchestrator decides the user's next action and is the only writer of the
// session/streak fields on a profile. Every mutation for a single call is one
// ApplySession command; there is no application-level lock around concurrent
// calls for the same user. The store's row-level atomicity is the guarantee,
// and the last writer for a field wins.
type Orchestrator struct {
	profiles  ports.ProfileStore
	exercises ports.ExerciseSource
	cfg       types.SessionConfig

	// notifier is optional; session lifecycle events are best effort.
	notifier   ports.Notifier
	eventTopic string
}

func NewOrchestrator(profiles ports.ProfileStore, exercises ports.ExerciseSource, cfg types.SessionConfig) *Orchestrator {
	return &Orchestrator{profiles: profiles, exercises: exercises, cfg: cfg}
}

// WithNotifier attaches a session-event notifier publishing to topic.
func (o *Orchestrator) WithNotifier(n ports.Notifier, topic string) *Orchestrator {
	o.notifier = n
	o.eventTopic = topic
	return o
}

// GetNextAction computes what happens next for (userID, botID): a new
// exercise, praise between sets, a forced pause, or an error action when no
// exercise is available. Check order is fixed: freeze wins over session age,
// session age wins over the session limit.
func (o *Orchestrator) GetNextAction(ctx context.Context, userID int64, botID string) (types.NextAction, error) {
	profile, err := o.getOrCreate(ctx, userID, botID)
	if err != nil {
		return types.NextAction{}, err
	}

	// Reaching out to the bot implies intent to resume.
	if profile.Status == types.StatusBlocked {
		profile, err = o.profiles.ApplyStatus(ctx, userID, botID, types.StatusActive)
		if err != nil {
			return types.NextAction{}, err
		}
	}

	now := timeNow()

	// Committed only when an exercise is actually issued below.
	newStreak := ComputeStreak(profile, now)

	if until := profile.SessionFrozenUntil; until != nil {
		if now.Before(*until) {
			log.WithFields(log.Fields{"user": userID, "bot": botID, "until": *until}).
				Info("session frozen")
			remaining := until.Sub(now)
			return types.NextAction{
				Action:  types.ActionLimitReached,
				Message: texts.Get(texts.LimitReached, profile.UserLanguage, formatPause(remaining)),
				Pause:   remaining,
				Payment: o.skipPauseOffer(profile),
			}, nil
		}
		log.WithFields(log.Fields{"user": userID, "bot": botID}).Info("freeze elapsed, new session")
		profile, err = o.startNewSession(ctx, profile, now)
		if err != nil {
			return types.NextAction{}, err
		}
	}

	var elapsed time.Duration
	if profile.SessionStartedAt == nil {
		profile, err = o.startNewSession(ctx, profile, now)
		if err != nil {
			return types.NextAction{}, err
		}
	} else {
		elapsed = now.Sub(*profile.SessionStartedAt)
	}
	if elapsed > o.cfg.MaxSessionLength {
		profile, err = o.startNewSession(ctx, profile, now)
		if err != nil {
			return types.NextAction{}, err
		}
		elapsed = 0
	}

	// The allowance renews as a session stays open.
	renewedSets := int(elapsed / o.cfg.RenewedSetPeriod)
	setLimit := o.cfg.SetsInSession
	if renewedSets > setLimit {
		setLimit = renewedSets
	}
	exerciseLimit := setLimit * o.cfg.ExercisesInSet

	if profile.ExercisesInSession >= exerciseLimit {
		return o.freezeSession(ctx, profile, now)
	}

	if profile.ExercisesInSet < o.cfg.ExercisesInSet {
		return o.issueExercise(ctx, profile, now, newStreak)
	}

	// Set complete, session not yet full.
	_, err = o.profiles.ApplySession(ctx, userID, botID, types.SessionUpdate{
		ExercisesInSet: types.Int(0),
		ErrorsInSet:    types.Int(0),
	})
	if err != nil {
		return types.NextAction{}, err
	}
	return types.NextAction{
		Action:  types.ActionPraiseAndNextSet,
		Message: texts.Get(texts.PraiseAndNextSet, profile.UserLanguage),
	}, nil
}

func (o *Orchestrator) getOrCreate(ctx context.Context, userID int64, botID string) (types.Profile, error) {
	p, err := o.profiles.Get(ctx, userID, botID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, types.ErrNotFound) {
		return types.Profile{}, err
	}
	p, err = o.profiles.Create(ctx, types.Profile{
		UserID:       userID,
		BotID:        botID,
		Status:       types.StatusActive,
		UserLanguage: o.cfg.DefaultUserLanguage,
		Level:        o.cfg.DefaultLevel,
	})
	if err == nil {
		log.WithFields(log.Fields{"user": userID, "bot": botID}).Info("profile created")
		return p, nil
	}
	// Lost a creation race; the winner's row is the profile.
	return o.profiles.Get(ctx, userID, botID)
}

func (o *Orchestrator) startNewSession(ctx context.Context, p types.Profile, now time.Time) (types.Profile, error) {
	return o.profiles.ApplySession(ctx, p.UserID, p.BotID, types.SessionUpdate{
		ExercisesInSession: types.Int(0),
		ExercisesInSet:     types.Int(0),
		ErrorsInSet:        types.Int(0),
		SessionStartedAt:   types.Time(now),
		ClearFrozenUntil:   true,
		ClearReminders:     true,
	})
}

func (o *Orchestrator) freezeSession(ctx context.Context, p types.Profile, now time.Time) (types.NextAction, error) {
	frozen, err := o.profiles.ApplySession(ctx, p.UserID, p.BotID, types.SessionUpdate{
		SessionFrozenUntil: types.Time(now.Add(o.cfg.PauseBetweenSessions)),
		ClearReminders:     true,
	})
	if err != nil {
		return types.NextAction{}, err
	}
	o.publishEvent(ctx, "session_completed", frozen)

	pause := o.cfg.PauseBetweenSessions
	var msg string
	if frozen.CurrentStreakDays >= 2 {
		msg = texts.Get(texts.CongratulationsStreak, frozen.UserLanguage,
			frozen.ExercisesInSession, frozen.CurrentStreakDays, formatPause(pause))
	} else {
		msg = texts.Get(texts.CongratulationsWait, frozen.UserLanguage,
			frozen.ExercisesInSession, formatPause(pause))
	}
	return types.NextAction{
		Action:  types.ActionCongratulationsWait,
		Message: msg,
		Pause:   pause,
		Payment: o.skipPauseOffer(frozen),
	}, nil
}

func (o *Orchestrator) issueExercise(ctx context.Context, p types.Profile, now time.Time, newStreak int) (types.NextAction, error) {
	criteria := types.ExerciseCriteria{
		UserID:         p.UserID,
		TargetLanguage: p.BotID,
		UserLanguage:   p.UserLanguage,
		Type:           nextExerciseType(p.TypeWeights),
		Topic:          nextTopic(),
		LanguageLevel:  NextExerciseLevel(p.Level),
	}

	ex, err := o.findExercise(ctx, criteria)
	if err != nil {
		return types.NextAction{}, err
	}
	if ex == nil {
		log.WithFields(log.Fields{"user": p.UserID, "bot": p.BotID}).
			Warn("no suitable exercise found")
		return types.NextAction{
			Action:  types.ActionError,
			Message: texts.Get(texts.ErrorGettingExercise, p.UserLanguage),
		}, nil
	}

	_, err = o.profiles.ApplySession(ctx, p.UserID, p.BotID, types.SessionUpdate{
		ExercisesInSession: types.Int(p.ExercisesInSession + 1),
		ExercisesInSet:     types.Int(p.ExercisesInSet + 1),
		LastExerciseAt:     types.Time(now),
		CurrentStreakDays:  types.Int(newStreak),
		ClearReminders:     true,
	})
	if err != nil {
		return types.NextAction{}, err
	}
	return types.NextAction{Action: types.ActionNewExercise, Exercise: ex}, nil
}

// findExercise widens the search in stages: exact criteria, any new exercise
// in the language pair, then something seen before for repetition.
func (o *Orchestrator) findExercise(ctx context.Context, c types.ExerciseCriteria) (*types.Exercise, error) {
	ex, err := o.exercises.GetNew(ctx, c)
	if err != nil {
		return nil, err
	}
	if ex != nil {
		return ex, nil
	}
	ex, err = o.exercises.GetAnyNew(ctx, c)
	if err != nil {
		return nil, err
	}
	if ex != nil {
		return ex, nil
	}
	return o.exercises.GetForRepetition(ctx, c.UserID)
}

func (o *Orchestrator) skipPauseOffer(p types.Profile) *types.PaymentOffer {
	return &types.PaymentOffer{
		ButtonText: "Skip the wait",
		Title:      "Unfreeze session",
		Amount:     100,
		Currency:   "XTR",
		Payload:    fmt.Sprintf("skip_pause:%d:%s", p.UserID, p.BotID),
	}
}

func (o *Orchestrator) publishEvent(ctx context.Context, event string, p types.Profile) {
	if o.notifier == nil {
		return
	}
	payload, err := json.Marshal(map[string]any{
		"event":       event,
		"user_id":     p.UserID,
		"bot_id":      p.BotID,
		"streak_days": p.CurrentStreakDays,
		"at":          timeNow().UTC(),
	})
	if err != nil {
		return
	}
	if err := o.notifier.Publish(ctx, o.eventTopic, payload); err != nil {
		log.WithError(err).WithField("event", event).Warn("session event not published")
	}
}
