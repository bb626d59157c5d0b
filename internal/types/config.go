package types

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
)

// SessionConfig drives the quota and pacing behavior of the orchestrator.
// A set is a small batch of exercises (praise on completion); a session is a
// batch of sets, after which the user is frozen until the pause elapses.
// The exercise allowance renews while a session stays open: the effective
// limit is max(SetsInSession, elapsed/RenewedSetPeriod) * ExercisesInSet.
type SessionConfig struct {
	ExercisesInSet       int           `yaml:"exercises_in_set"`
	SetsInSession        int           `yaml:"sets_in_session"`
	MaxSessionLength     time.Duration `yaml:"max_session_length"`
	PauseBetweenSessions time.Duration `yaml:"pause_between_sessions"`
	// RenewedSetPeriod defaults to PauseBetweenSessions / SetsInSession.
	RenewedSetPeriod time.Duration `yaml:"renewed_set_period"`

	DefaultUserLanguage string        `yaml:"default_user_language"`
	DefaultLevel        LanguageLevel `yaml:"-"`
	DefaultLevelName    string        `yaml:"default_level"`

	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// DefaultSessionConfig mirrors the production defaults: 5-exercise sets,
// 3 sets per session, 3h sessions with a 3h pause, 2m result cache.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		ExercisesInSet:       5,
		SetsInSession:        3,
		MaxSessionLength:     3 * time.Hour,
		PauseBetweenSessions: 3 * time.Hour,
		RenewedSetPeriod:     time.Hour,
		DefaultUserLanguage:  "en",
		DefaultLevel:         A2,
		CacheTTL:             2 * time.Minute,
	}
}

// SessionLimit is the base number of exercises per session.
func (c SessionConfig) SessionLimit() int {
	return c.ExercisesInSet * c.SetsInSession
}

func (c SessionConfig) Validate() error {
	if c.ExercisesInSet <= 0 {
		return fmt.Errorf("exercises_in_set must be positive")
	}
	if c.SetsInSession <= 0 {
		return fmt.Errorf("sets_in_session must be positive")
	}
	if c.MaxSessionLength <= 0 {
		return fmt.Errorf("max_session_length must be positive")
	}
	if c.PauseBetweenSessions <= 0 {
		return fmt.Errorf("pause_between_sessions must be positive")
	}
	if c.RenewedSetPeriod <= 0 {
		return fmt.Errorf("renewed_set_period must be positive")
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("cache_ttl must be non-negative")
	}
	return nil
}

// LoadSessionConfig reads a YAML config file, filling unset fields from the
// defaults.
func LoadSessionConfig(path string) (SessionConfig, error) {
	cfg := DefaultSessionConfig()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse session config: %w", err)
	}
	if cfg.DefaultLevelName != "" {
		cfg.DefaultLevel = ParseLevel(cfg.DefaultLevelName)
	}
	if cfg.RenewedSetPeriod <= 0 && cfg.SetsInSession > 0 {
		cfg.RenewedSetPeriod = cfg.PauseBetweenSessions / time.Duration(cfg.SetsInSession)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, Err(ErrInvalidState, err, "session config %s", path)
	}
	return cfg, nil
}
