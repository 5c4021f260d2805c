package config

import (
	"strings"
	"testing"
	"time"
)

func validLocal() Config {
	return Config{
		App:     AppConfig{Env: "local", Port: 8080},
		DB:      DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "appointments"},
		Auth:    AuthConfig{JWTSecret: "secret"},
		Voice:   VoiceConfig{APIKey: "voice-key"},
		LLM:     LLMConfig{APIKey: "llm-key"},
		Webhook: WebhookConfig{URL: "https://hooks.example.com/calendar"},
	}
}

func TestValidate_ReportsMissingRequired(t *testing.T) {
	c := Config{}
	err := c.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, key := range []string{"APP_ENV", "DB_HOST", "JWT_SECRET", "VOICE_API_KEY", "LLM_API_KEY", "WEBHOOK_URL"} {
		if !strings.Contains(err.Error(), key) {
			t.Fatalf("expected %s in %q", key, err.Error())
		}
	}
}

func TestValidate_LocalDefaults(t *testing.T) {
	c := validLocal()
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.DB.SSLMode != "disable" {
		t.Fatalf("expected sslmode disable default, got %q", c.DB.SSLMode)
	}
	if c.LLM.Model != "gpt-4" || c.LLM.MaxTokens != 100 {
		t.Fatalf("unexpected llm defaults: %+v", c.LLM)
	}
	if c.Poll.InitialInterval != 2*time.Second || c.Poll.MaxAttempts != 120 || c.Poll.Timeout != 20*time.Minute {
		t.Fatalf("unexpected poll defaults: %+v", c.Poll)
	}
	if c.Calendar != (CalendarConfig{}) {
		t.Fatalf("expected calendar overrides to stay unset, got %+v", c.Calendar)
	}
	if c.RedisAddr() != "" {
		t.Fatalf("expected redis disabled, got %q", c.RedisAddr())
	}
}

func TestValidate_ProductionRequiresSSLModeAndRedis(t *testing.T) {
	c := validLocal()
	c.App.Env = "production"
	c.Auth.JWTIssuer = "issuer"
	c.Auth.JWTAudience = "aud"

	err := c.Validate()
	if err == nil {
		t.Fatalf("expected error for production without DB_SSLMODE and REDIS_HOST")
	}
	if !strings.Contains(err.Error(), "DB_SSLMODE") || !strings.Contains(err.Error(), "REDIS_HOST") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_RejectsBadValues(t *testing.T) {
	c := validLocal()
	c.Webhook.URL = "not a url"
	c.Calendar.TimeZone = "Mars/Olympus"
	c.Poll.InitialInterval = time.Minute
	c.Poll.MaxInterval = time.Second
	c.Broker.RabbitMQURL = "http://broker"

	err := c.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, key := range []string{"WEBHOOK_URL", "CALENDAR_TIMEZONE", "POLL_MAX_INTERVAL", "RABBITMQ_URL"} {
		if !strings.Contains(err.Error(), key) {
			t.Fatalf("expected %s in %q", key, err.Error())
		}
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("DB_USER", "u")
	t.Setenv("DB_NAME", "n")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("VOICE_API_KEY", "v")
	t.Setenv("LLM_API_KEY", "l")
	t.Setenv("WEBHOOK_URL", "https://hooks.example.com/x")
	t.Setenv("POLL_TIMEOUT", "90s")
	t.Setenv("POLL_MAX_ATTEMPTS", "12")

	c, err := Load()
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if c.HTTPAddr() != ":9090" {
		t.Fatalf("unexpected addr %q", c.HTTPAddr())
	}
	if c.RedisAddr() != "cache:6379" {
		t.Fatalf("unexpected redis addr %q", c.RedisAddr())
	}
	if c.Poll.Timeout != 90*time.Second || c.Poll.MaxAttempts != 12 {
		t.Fatalf("unexpected poll config: %+v", c.Poll)
	}
}

func TestLoad_RejectsNonIntegerPort(t *testing.T) {
	t.Setenv("APP_PORT", "eighty")
	t.Setenv("DB_PORT", "5432")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "APP_PORT must be an integer") {
		t.Fatalf("expected APP_PORT parse error, got %v", err)
	}
}

func TestLoad_RejectsMalformedDuration(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("POLL_TIMEOUT", "20mins")
	t.Setenv("WEBHOOK_TIMEOUT", "x")

	_, err := Load()
	if err == nil {
		t.Fatalf("expected duration parse errors")
	}
	for _, key := range []string{"POLL_TIMEOUT", "WEBHOOK_TIMEOUT"} {
		if !strings.Contains(err.Error(), key+" must be a duration") {
			t.Fatalf("expected %s parse error in %q", key, err.Error())
		}
	}
}
