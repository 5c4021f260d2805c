package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration required by the API process and the CLI.
// All values come from env (optionally seeded from a .env file by the caller).
// Components receive the section they need at construction; nothing reads env after Load.
type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Voice    VoiceConfig
	LLM      LLMConfig
	Webhook  WebhookConfig
	Poll     PollConfig
	Calendar CalendarConfig
	Broker   BrokerConfig
}

type AppConfig struct {
	Env  string
	Port int
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string

	// Accepts: disable, require, verify-ca, verify-full
	SSLMode string
}

// RedisConfig is optional. An empty Host disables the per-number call lock.
type RedisConfig struct {
	Host string
	Port int
}

type AuthConfig struct {
	JWTSecret      string
	JWTIssuer      string
	JWTAudience    string
	AccessTokenTTL time.Duration
}

// VoiceConfig configures the outbound voice-call provider.
type VoiceConfig struct {
	APIKey         string
	BaseURL        string
	RequestTimeout time.Duration
}

// LLMConfig configures the chat-completion service used for transcript extraction.
type LLMConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	MaxTokens      int
	RequestTimeout time.Duration
}

type WebhookConfig struct {
	URL     string
	Timeout time.Duration
}

// PollConfig bounds call-status polling. Whichever of MaxAttempts or Timeout
// is hit first ends polling.
type PollConfig struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxAttempts     int
	Timeout         time.Duration
}

// CalendarConfig holds the fixed presentation fields of the emitted event.
type CalendarConfig struct {
	Name        string
	TimeZone    string
	Location    string
	Title       string
	Description string
}

// BrokerConfig is optional. An empty RabbitMQURL disables result notifications.
type BrokerConfig struct {
	RabbitMQURL string
}

func Load() (Config, error) {
	c := Config{}
	var parseErrs []error

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	{
		n, err := mustInt("APP_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.App.Port = n
	}

	c.DB.Host = strings.TrimSpace(os.Getenv("DB_HOST"))
	{
		n, err := mustInt("DB_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.DB.Port = n
	}
	c.DB.User = strings.TrimSpace(os.Getenv("DB_USER"))
	c.DB.Password = os.Getenv("DB_PASSWORD")
	c.DB.Name = strings.TrimSpace(os.Getenv("DB_NAME"))
	c.DB.SSLMode = strings.TrimSpace(os.Getenv("DB_SSLMODE"))

	c.Redis.Host = strings.TrimSpace(os.Getenv("REDIS_HOST"))
	{
		n, err := optionalInt("REDIS_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Redis.Port = n
	}

	c.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	c.Auth.JWTIssuer = strings.TrimSpace(os.Getenv("JWT_ISSUER"))
	c.Auth.JWTAudience = strings.TrimSpace(os.Getenv("JWT_AUDIENCE"))
	c.Auth.AccessTokenTTL, parseErrs = appendDuration(parseErrs, "JWT_ACCESS_TTL")

	c.Voice.APIKey = os.Getenv("VOICE_API_KEY")
	c.Voice.BaseURL = strings.TrimSpace(os.Getenv("VOICE_BASE_URL"))
	c.Voice.RequestTimeout, parseErrs = appendDuration(parseErrs, "VOICE_REQUEST_TIMEOUT")

	c.LLM.APIKey = os.Getenv("LLM_API_KEY")
	c.LLM.BaseURL = strings.TrimSpace(os.Getenv("LLM_BASE_URL"))
	c.LLM.Model = strings.TrimSpace(os.Getenv("LLM_MODEL"))
	{
		n, err := optionalInt("LLM_MAX_TOKENS")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.LLM.MaxTokens = n
	}
	c.LLM.RequestTimeout, parseErrs = appendDuration(parseErrs, "LLM_REQUEST_TIMEOUT")

	c.Webhook.URL = strings.TrimSpace(os.Getenv("WEBHOOK_URL"))
	c.Webhook.Timeout, parseErrs = appendDuration(parseErrs, "WEBHOOK_TIMEOUT")

	c.Poll.InitialInterval, parseErrs = appendDuration(parseErrs, "POLL_INITIAL_INTERVAL")
	c.Poll.MaxInterval, parseErrs = appendDuration(parseErrs, "POLL_MAX_INTERVAL")
	{
		n, err := optionalInt("POLL_MAX_ATTEMPTS")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Poll.MaxAttempts = n
	}
	c.Poll.Timeout, parseErrs = appendDuration(parseErrs, "POLL_TIMEOUT")

	c.Calendar.Name = strings.TrimSpace(os.Getenv("CALENDAR_NAME"))
	c.Calendar.TimeZone = strings.TrimSpace(os.Getenv("CALENDAR_TIMEZONE"))
	c.Calendar.Location = strings.TrimSpace(os.Getenv("CALENDAR_LOCATION"))
	c.Calendar.Title = strings.TrimSpace(os.Getenv("CALENDAR_EVENT_TITLE"))
	c.Calendar.Description = strings.TrimSpace(os.Getenv("CALENDAR_EVENT_DESCRIPTION"))

	c.Broker.RabbitMQURL = strings.TrimSpace(os.Getenv("RABBITMQ_URL"))

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate reports every problem at once and fills defaults for optional values.
func (c *Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}

	if c.DB.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.DB.Port <= 0 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Errorf("DB_PORT must be a valid port, got %d", c.DB.Port))
	}
	if c.DB.User == "" {
		errs = append(errs, errors.New("DB_USER is required"))
	}
	if c.DB.Name == "" {
		errs = append(errs, errors.New("DB_NAME is required"))
	}
	if c.DB.SSLMode == "" {
		if c.IsProduction() {
			errs = append(errs, errors.New("DB_SSLMODE is required in production"))
		} else {
			// Local-friendly default; production must be explicit.
			c.DB.SSLMode = "disable"
		}
	}
	if c.DB.SSLMode != "" && !isValidSSLMode(c.DB.SSLMode) {
		errs = append(errs, fmt.Errorf("DB_SSLMODE must be one of disable, require, verify-ca, verify-full, got %q", c.DB.SSLMode))
	}

	if c.Redis.Host != "" {
		if c.Redis.Port == 0 {
			c.Redis.Port = 6379
		}
		if c.Redis.Port < 0 || c.Redis.Port > 65535 {
			errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
		}
	} else if c.IsProduction() {
		// Without the lock two concurrent requests for one number both dial.
		errs = append(errs, errors.New("REDIS_HOST is required in production"))
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.IsProduction() {
		if c.Auth.JWTIssuer == "" {
			errs = append(errs, errors.New("JWT_ISSUER is required in production"))
		}
		if c.Auth.JWTAudience == "" {
			errs = append(errs, errors.New("JWT_AUDIENCE is required in production"))
		}
	}
	if c.Auth.AccessTokenTTL <= 0 {
		c.Auth.AccessTokenTTL = 12 * time.Hour
	}

	if c.Voice.APIKey == "" {
		errs = append(errs, errors.New("VOICE_API_KEY is required"))
	}
	if c.Voice.BaseURL == "" {
		c.Voice.BaseURL = "https://api.bland.ai"
	}
	if err := validateURL("VOICE_BASE_URL", c.Voice.BaseURL); err != nil {
		errs = append(errs, err)
	}
	if c.Voice.RequestTimeout <= 0 {
		c.Voice.RequestTimeout = 15 * time.Second
	}

	if c.LLM.APIKey == "" {
		errs = append(errs, errors.New("LLM_API_KEY is required"))
	}
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = "https://api.openai.com/v1"
	}
	if err := validateURL("LLM_BASE_URL", c.LLM.BaseURL); err != nil {
		errs = append(errs, err)
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "gpt-4"
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 100
	}
	if c.LLM.MaxTokens < 0 {
		errs = append(errs, fmt.Errorf("LLM_MAX_TOKENS must be > 0, got %d", c.LLM.MaxTokens))
	}
	if c.LLM.RequestTimeout <= 0 {
		c.LLM.RequestTimeout = 30 * time.Second
	}

	if c.Webhook.URL == "" {
		errs = append(errs, errors.New("WEBHOOK_URL is required"))
	} else if err := validateURL("WEBHOOK_URL", c.Webhook.URL); err != nil {
		errs = append(errs, err)
	}
	if c.Webhook.Timeout <= 0 {
		c.Webhook.Timeout = 10 * time.Second
	}

	if c.Poll.InitialInterval <= 0 {
		c.Poll.InitialInterval = 2 * time.Second
	}
	if c.Poll.MaxInterval <= 0 {
		c.Poll.MaxInterval = 30 * time.Second
	}
	if c.Poll.MaxInterval < c.Poll.InitialInterval {
		errs = append(errs, errors.New("POLL_MAX_INTERVAL must be >= POLL_INITIAL_INTERVAL"))
	}
	if c.Poll.MaxAttempts == 0 {
		c.Poll.MaxAttempts = 120
	}
	if c.Poll.MaxAttempts < 0 {
		errs = append(errs, fmt.Errorf("POLL_MAX_ATTEMPTS must be > 0, got %d", c.Poll.MaxAttempts))
	}
	if c.Poll.Timeout <= 0 {
		c.Poll.Timeout = 20 * time.Minute
	}

	// Presentation defaults live in calendar.DefaultTemplate; only the zone is checked here.
	if c.Calendar.TimeZone != "" {
		if _, err := time.LoadLocation(c.Calendar.TimeZone); err != nil {
			errs = append(errs, fmt.Errorf("CALENDAR_TIMEZONE is not a known zone: %q", c.Calendar.TimeZone))
		}
	}

	if c.Broker.RabbitMQURL != "" {
		if u, err := url.Parse(c.Broker.RabbitMQURL); err != nil || (u.Scheme != "amqp" && u.Scheme != "amqps") {
			errs = append(errs, errors.New("RABBITMQ_URL must be an amqp:// or amqps:// URL"))
		}
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func (c Config) PostgresDSN() string {
	// Avoid logging this string; it contains secrets.
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		c.DB.SSLMode,
	)
}

// RedisAddr is empty when Redis is not configured.
func (c Config) RedisAddr() string {
	if c.Redis.Host == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func mustInt(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func optionalInt(key string) (int, error) {
	if strings.TrimSpace(os.Getenv(key)) == "" {
		return 0, nil
	}
	return mustInt(key)
}

// optionalDuration returns 0 for an unset key so Validate can apply the default.
func optionalDuration(key string) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration like 30s or 5m, got %q", key, v)
	}
	return d, nil
}

func appendDuration(errs []error, key string) (time.Duration, []error) {
	d, err := optionalDuration(key)
	if err != nil {
		errs = append(errs, err)
	}
	return d, errs
}

func appendParseErr(errs []error, n int, err error) (int, []error) {
	if err != nil {
		errs = append(errs, err)
	}
	return n, errs
}

func validateURL(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%s must be an absolute http(s) URL, got %q", key, raw)
	}
	return nil
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func isValidSSLMode(v string) bool {
	switch v {
	case "disable", "require", "verify-ca", "verify-full":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
