package types

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type ConfigTestSuite struct {
	suite.Suite
}

func TestConfigTestSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (s *ConfigTestSuite) TestDefaultsAreValid() {
	cfg := DefaultSessionConfig()
	s.NoError(cfg.Validate())
	s.Equal(15, cfg.SessionLimit())
}

func (s *ConfigTestSuite) TestValidateRejectsZeroSets() {
	cfg := DefaultSessionConfig()
	cfg.SetsInSession = 0
	s.Error(cfg.Validate())
}

func (s *ConfigTestSuite) TestLoadOverridesDefaults() {
	dir := s.T().TempDir()
	path := filepath.Join(dir, "session.yaml")
	s.NoError(os.WriteFile(path, []byte(`
exercises_in_set: 4
sets_in_session: 2
max_session_length: 2h
pause_between_sessions: 4h
renewed_set_period: 45m
default_user_language: ru
default_level: B1
cache_ttl: 30s
`), 0o600))

	cfg, err := LoadSessionConfig(path)
	s.NoError(err)
	s.Equal(4, cfg.ExercisesInSet)
	s.Equal(2, cfg.SetsInSession)
	s.Equal(2*time.Hour, cfg.MaxSessionLength)
	s.Equal(4*time.Hour, cfg.PauseBetweenSessions)
	s.Equal(45*time.Minute, cfg.RenewedSetPeriod)
	s.Equal("ru", cfg.DefaultUserLanguage)
	s.Equal(B1, cfg.DefaultLevel)
	s.Equal(30*time.Second, cfg.CacheTTL)
}

func (s *ConfigTestSuite) TestLoadRejectsInvalidValues() {
	dir := s.T().TempDir()
	path := filepath.Join(dir, "session.yaml")
	s.NoError(os.WriteFile(path, []byte("exercises_in_set: -1\n"), 0o600))

	_, err := LoadSessionConfig(path)
	s.ErrorIs(err, ErrInvalidState)
}

func (s *ConfigTestSuite) TestLoadMissingFileReturnsError() {
	_, err := LoadSessionConfig(filepath.Join(s.T().TempDir(), "absent.yaml"))
	s.Error(err)
}
