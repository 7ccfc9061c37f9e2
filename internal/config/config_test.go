package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_RequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	cfg, err := LoadConfig()

	assert.Nil(t, cfg)
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("HTTP_PORT", "")
	t.Setenv("ACCESS_TOKEN_TTL", "")
	t.Setenv("MAIL_TIMEOUT", "")
	t.Setenv("SMTP_HOST", "")
	t.Setenv("GO_ENV", "")
	t.Setenv("REQUEST_TIMEOUT", "")
	t.Setenv("TRUSTED_PROXIES", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, 24*time.Hour, cfg.AccessTokenTTL)
	assert.Equal(t, 4*time.Second, cfg.MailTimeout)
	assert.Less(t, cfg.MailTimeout, cfg.RequestTimeout)
	assert.Empty(t, cfg.TrustedProxies)
	assert.False(t, cfg.MailEnabled())
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")

	t.Run("BadPort", func(t *testing.T) {
		t.Setenv("HTTP_PORT", "eighty")
		_, err := LoadConfig()
		assert.ErrorContains(t, err, "HTTP_PORT")
	})

	t.Run("BadDuration", func(t *testing.T) {
		t.Setenv("MAIL_TIMEOUT", "soon")
		_, err := LoadConfig()
		assert.ErrorContains(t, err, "MAIL_TIMEOUT")
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			HTTPPort:            8080,
			RequestTimeout:      5 * time.Second,
			JWTSecret:           "0123456789abcdef0123456789abcdef",
			AccessTokenTTL:      time.Hour,
			ConfirmationCodeTTL: time.Hour,
			MailTimeout:         time.Second,
			RateLimitPerMinute:  10,
			RateLimitBurst:      2,
			LogLevel:            "info",
			LogFormat:           "json",
		}
	}

	assert.NoError(t, valid().Validate())

	short := valid()
	short.JWTSecret = "short"
	assert.ErrorContains(t, short.Validate(), "JWT_SECRET")

	multi := valid()
	multi.HTTPPort = 0
	multi.LogFormat = "xml"
	err := multi.Validate()
	assert.ErrorContains(t, err, "HTTP_PORT")
	assert.ErrorContains(t, err, "LOG_FORMAT")
}

func TestValidate_ProductionRequiresSMTP(t *testing.T) {
	cfg := &Config{
		GoEnv:               "production",
		HTTPPort:            8080,
		RequestTimeout:      5 * time.Second,
		JWTSecret:           "0123456789abcdef0123456789abcdef",
		AccessTokenTTL:      time.Hour,
		ConfirmationCodeTTL: time.Hour,
		MailTimeout:         time.Second,
		RateLimitPerMinute:  10,
		RateLimitBurst:      2,
		LogLevel:            "info",
		LogFormat:           "json",
	}
	assert.ErrorContains(t, cfg.Validate(), "SMTP_HOST")

	cfg.SMTPHost = "smtp.example.com"
	cfg.SMTPPort = 587
	assert.NoError(t, cfg.Validate())
}

func TestValidate_MailTimeoutWithinRequest(t *testing.T) {
	cfg := &Config{
		HTTPPort:            8080,
		RequestTimeout:      5 * time.Second,
		JWTSecret:           "0123456789abcdef0123456789abcdef",
		AccessTokenTTL:      time.Hour,
		ConfirmationCodeTTL: time.Hour,
		MailTimeout:         10 * time.Second,
		RateLimitPerMinute:  10,
		RateLimitBurst:      2,
		LogLevel:            "info",
		LogFormat:           "json",
	}
	assert.ErrorContains(t, cfg.Validate(), "MAIL_TIMEOUT must be shorter than REQUEST_TIMEOUT")
}

func TestLoadConfig_TrustedProxies(t *testing.T) {
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.1, 10.1.0.0/16,,")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.1", "10.1.0.0/16"}, cfg.TrustedProxies)

	cfg.TrustedProxies = append(cfg.TrustedProxies, "proxy.internal")
	assert.ErrorContains(t, cfg.Validate(), "TRUSTED_PROXIES")
}
