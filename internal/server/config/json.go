package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/impacthands/internal/flagx"
	"github.com/dmitrijs2005/impacthands/internal/timex"
)

// JsonConfig mirrors Config for decoding. Durations accept "10m" style
// strings or integer nanoseconds. Absent keys leave the current value alone.
type JsonConfig struct {
	HTTPAddr                     string         `json:"http_addr"`
	MetricsAddr                  string         `json:"metrics_addr"`
	DatabaseDSN                  string         `json:"database_dsn"`
	RedisURL                     string         `json:"redis_url"`
	SecretKey                    string         `json:"secret_key"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`
	OTPValidityDuration          timex.Duration `json:"otp_validity_duration"`
	OTPMaxAttempts               int            `json:"otp_max_attempts"`
	OTPResendWindow              timex.Duration `json:"otp_resend_window"`
	SMTPHost                     string         `json:"smtp_host"`
	SMTPPort                     int            `json:"smtp_port"`
	SMTPUser                     string         `json:"smtp_user"`
	SMTPPassword                 string         `json:"smtp_password"`
	SMTPFrom                     string         `json:"smtp_from"`
	S3RootUser                   string         `json:"s3_root_user"`
	S3RootPassword               string         `json:"s3_root_password"`
	S3Bucket                     string         `json:"s3_bucket"`
	S3Region                     string         `json:"s3_region"`
	S3BaseEndpoint               string         `json:"s3_base_endpoint"`
	PublicBaseURL                string         `json:"public_base_url"`
	SiteURL                      string         `json:"site_url"`
	RedirectAllowList            []string       `json:"redirect_allow_list"`
}

// parseJson overlays the file named by -c/-config onto config. A missing
// flag is a no-op; an unreadable or malformed file panics, as startup
// cannot continue with a half-read configuration.
func parseJson(config *Config, args []string) {
	path := flagx.ConfigPath(args)
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.MetricsAddr, c.MetricsAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.RedisURL, c.RedisURL)
	setString(&config.SecretKey, c.SecretKey)
	setDuration(&config.AccessTokenValidityDuration, c.AccessTokenValidityDuration)
	setDuration(&config.RefreshTokenValidityDuration, c.RefreshTokenValidityDuration)
	setDuration(&config.OTPValidityDuration, c.OTPValidityDuration)
	setDuration(&config.OTPResendWindow, c.OTPResendWindow)
	if c.OTPMaxAttempts > 0 {
		config.OTPMaxAttempts = c.OTPMaxAttempts
	}
	setString(&config.SMTPHost, c.SMTPHost)
	if c.SMTPPort > 0 {
		config.SMTPPort = c.SMTPPort
	}
	setString(&config.SMTPUser, c.SMTPUser)
	setString(&config.SMTPPassword, c.SMTPPassword)
	setString(&config.SMTPFrom, c.SMTPFrom)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.PublicBaseURL, c.PublicBaseURL)
	setString(&config.SiteURL, c.SiteURL)
	if len(c.RedirectAllowList) > 0 {
		config.RedirectAllowList = c.RedirectAllowList
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration > 0 {
		*dst = v.Duration
	}
}
