package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLoad_Defaults(t *testing.T) {
	s, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, &Settings{
		Timeout:        30 * time.Second,
		MinDelay:       time.Second,
		UserAgent:      "Mozilla/5.0",
		MaxRetries:     0,
		MaxConcurrency: 6,
		LogLevel:       "info",
		ListenAddr:     ":8080",
	}, s)
}

func TestLoad_ConfigFileEnvAndFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "newsharvest.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
min_delay: 2s
max_retries: 2
user_agent: file-agent
log_level: debug
`), 0o644))

	t.Setenv("NEWSHARVEST_MAX_RETRIES", "5")
	t.Setenv("NEWSHARVEST_STORE_DSN", "sqlite://news.db")

	v := New()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String(KeyUserAgent, "", "")
	require.NoError(t, flags.Parse([]string{"--user_agent=flag-agent"}))
	require.NoError(t, v.BindPFlag(KeyUserAgent, flags.Lookup(KeyUserAgent)))

	s, err := Load(v, path)
	require.NoError(t, err)

	assert.Equal(t, 2*time.Second, s.MinDelay, "設定ファイル")
	assert.Equal(t, 5, s.MaxRetries, "環境変数はファイルより優先")
	assert.Equal(t, "sqlite://news.db", s.StoreDSN)
	assert.Equal(t, "flag-agent", s.UserAgent, "フラグは最優先")

	level, err := s.ZapLevel()
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, level)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSettings_Validate(t *testing.T) {
	base := Settings{Timeout: time.Second, MaxConcurrency: 1, LogLevel: "info"}

	tests := []struct {
		name    string
		mutate  func(s *Settings)
		wantErr error
	}{
		{"valid", func(s *Settings) {}, nil},
		{"zero timeout", func(s *Settings) { s.Timeout = 0 }, ErrInvalidTimeout},
		{"negative delay", func(s *Settings) { s.MinDelay = -time.Second }, ErrInvalidMinDelay},
		{"negative retries", func(s *Settings) { s.MaxRetries = -1 }, ErrInvalidMaxRetries},
		{"zero concurrency", func(s *Settings) { s.MaxConcurrency = 0 }, ErrInvalidMaxConcurrency},
		{"bad log level", func(s *Settings) { s.LogLevel = "verbose" }, ErrInvalidLogLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := base
			tt.mutate(&s)
			err := s.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
