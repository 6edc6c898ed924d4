package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson(t *testing.T) {
	dir := t.TempDir()
	full := writeTempJSON(t, dir, "full.json", map[string]any{
		"http_addr":                       ":8000",
		"metrics_addr":                    ":9000",
		"database_dsn":                    "postgres://x",
		"redis_url":                       "redis://cache:6379/1",
		"secret_key":                      "my_secret_key",
		"access_token_validity_duration":  "15m",
		"refresh_token_validity_duration": "24h",
		"otp_validity_duration":           "5m",
		"otp_max_attempts":                3,
		"otp_resend_window":               30000000000,
		"smtp_host":                       "smtp.example.org",
		"smtp_port":                       2525,
		"smtp_user":                       "mailer",
		"smtp_password":                   "pw",
		"smtp_from":                       "noreply@example.org",
		"s3_root_user":                    "user",
		"s3_root_password":                "password",
		"s3_bucket":                       "bucket",
		"s3_region":                       "region",
		"s3_base_endpoint":                "base_endpoint",
		"public_base_url":                 "https://api.example.org",
		"site_url":                        "https://impacthands.org",
		"redirect_allow_list":             []string{"https://app.impacthands.org"},
	})

	t.Run("loads every field", func(t *testing.T) {
		cfg := &Config{}
		parseJson(cfg, []string{"-config", full})

		assert.Equal(t, ":8000", cfg.HTTPAddr)
		assert.Equal(t, ":9000", cfg.MetricsAddr)
		assert.Equal(t, "postgres://x", cfg.DatabaseDSN)
		assert.Equal(t, "redis://cache:6379/1", cfg.RedisURL)
		assert.Equal(t, "my_secret_key", cfg.SecretKey)
		assert.Equal(t, 15*time.Minute, cfg.AccessTokenValidityDuration)
		assert.Equal(t, 24*time.Hour, cfg.RefreshTokenValidityDuration)
		assert.Equal(t, 5*time.Minute, cfg.OTPValidityDuration)
		assert.Equal(t, 3, cfg.OTPMaxAttempts)
		assert.Equal(t, 30*time.Second, cfg.OTPResendWindow)
		assert.Equal(t, "smtp.example.org", cfg.SMTPHost)
		assert.Equal(t, 2525, cfg.SMTPPort)
		assert.Equal(t, "mailer", cfg.SMTPUser)
		assert.Equal(t, "pw", cfg.SMTPPassword)
		assert.Equal(t, "noreply@example.org", cfg.SMTPFrom)
		assert.Equal(t, "user", cfg.S3RootUser)
		assert.Equal(t, "password", cfg.S3RootPassword)
		assert.Equal(t, "bucket", cfg.S3Bucket)
		assert.Equal(t, "region", cfg.S3Region)
		assert.Equal(t, "base_endpoint", cfg.S3BaseEndpoint)
		assert.Equal(t, "https://api.example.org", cfg.PublicBaseURL)
		assert.Equal(t, "https://impacthands.org", cfg.SiteURL)
		assert.Equal(t, []string{"https://app.impacthands.org"}, cfg.RedirectAllowList)
	})

	t.Run("absent keys keep current values", func(t *testing.T) {
		partial := writeTempJSON(t, dir, "partial.json", map[string]any{"redis_url": "redis://other"})
		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg, []string{"-c", partial})

		assert.Equal(t, "redis://other", cfg.RedisURL)
		assert.Equal(t, ":8080", cfg.HTTPAddr)
		assert.Equal(t, 5, cfg.OTPMaxAttempts)
		assert.Equal(t, "http://localhost:5173", cfg.SiteURL)
	})

	t.Run("no config flag leaves config untouched", func(t *testing.T) {
		cfg := &Config{HTTPAddr: "defaults:1234"}
		parseJson(cfg, []string{"-a", ":1"})
		assert.Equal(t, "defaults:1234", cfg.HTTPAddr)
	})

	t.Run("invalid JSON panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))
		require.Panics(t, func() { parseJson(&Config{}, []string{"-config", bad}) })
	})

	t.Run("missing file panics", func(t *testing.T) {
		require.Panics(t, func() { parseJson(&Config{}, []string{"-c", filepath.Join(dir, "nope.json")}) })
	})
}
