package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"alert-monitor/internal/models"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Telegram struct {
		BotToken  string
		ChannelID int64
		RateLimit int
	}
	Notify struct {
		ChatID      int64
		Backends    []string
		SMSToNumber string
	}
	Monitor struct {
		City          string
		CityVariants  []string
		OtherCities   []string
		CheckInterval time.Duration
		FetchLimit    int
	}
	Stream struct {
		Source      string
		BufferSize  int
		KafkaBroker string
		KafkaTopic  string
	}
	Call struct {
		Enabled       bool
		ToNumber      string
		MaxRetries    int
		RetryInterval time.Duration
		Timeout       time.Duration
		PollInterval  time.Duration
	}
	Twilio struct {
		AccountSID string
		AuthToken  string
		FromNumber string
	}
	AI struct {
		APIKey  string
		BaseURL string
		Model   string
		Timeout time.Duration
	}
	Cursor struct {
		Backend  string
		File     string
		RedisURL string
	}
	DB struct {
		DSN string
	}
	API struct {
		Port string
	}
	Logging struct {
		Dir    string
		Level  string
		Format string
	}
}

const (
	SourceTelegram = "telegram"
	SourceKafka    = "kafka"

	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

var (
	defaultCityVariants = "дніпро,днепр,днипро,дніпр,dnipro"
	defaultOtherCities  = "київ,киев,харків,харьков,запоріжжя,запорожье,одеса,одесса,кривий ріг,кривой рог," +
		"павлоград,кам'янське,каменское,нікополь,никополь,полтава,суми,сумы,чернігів,чернигов,миколаїв,николаев,херсон"
)

// Load reads environment variables, applies defaults, and returns a Config.
func Load() (Config, error) {
	// Load .env if present
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("failed to load .env file: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the current process environment only.
func FromEnv() (Config, error) {
	var cfg Config

	// Telegram
	cfg.Telegram.BotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.Telegram.ChannelID = getEnvInt64("TELEGRAM_CHANNEL_ID", 0)
	cfg.Telegram.RateLimit = getEnvInt("TELEGRAM_RATE_LIMIT", 1)

	// Notification recipient
	cfg.Notify.ChatID = getEnvInt64("NOTIFY_CHAT_ID", 0)
	cfg.Notify.Backends = getEnvList("NOTIFY_BACKENDS", "telegram")
	cfg.Notify.SMSToNumber = os.Getenv("SMS_TO_NUMBER")

	// Monitoring
	cfg.Monitor.City = getEnv("MONITORED_CITY", "Дніпро")
	cfg.Monitor.CityVariants = getEnvList("CITY_VARIANTS", defaultCityVariants)
	cfg.Monitor.OtherCities = getEnvList("OTHER_CITIES", defaultOtherCities)
	cfg.Monitor.CheckInterval = getEnvDuration("CHECK_INTERVAL", time.Minute)
	cfg.Monitor.FetchLimit = getEnvInt("FETCH_LIMIT", 20)

	// Stream source
	cfg.Stream.Source = strings.ToLower(getEnv("STREAM_SOURCE", SourceTelegram))
	cfg.Stream.BufferSize = getEnvInt("STREAM_BUFFER_SIZE", 500)
	cfg.Stream.KafkaBroker = os.Getenv("KAFKA_BROKER")
	cfg.Stream.KafkaTopic = os.Getenv("KAFKA_TOPIC")

	// Calls
	cfg.Call.Enabled = getEnvBool("CALL_ENABLED", true)
	cfg.Call.ToNumber = os.Getenv("CALL_TO_NUMBER")
	cfg.Call.MaxRetries = getEnvInt("CALL_MAX_RETRIES", 3)
	cfg.Call.RetryInterval = getEnvDuration("CALL_RETRY_INTERVAL", 2*time.Minute)
	cfg.Call.Timeout = getEnvDuration("CALL_TIMEOUT", 40*time.Second)
	cfg.Call.PollInterval = getEnvDuration("CALL_POLL_INTERVAL", 2*time.Second)

	cfg.Twilio.AccountSID = os.Getenv("TWILIO_ACCOUNT_SID")
	cfg.Twilio.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	cfg.Twilio.FromNumber = os.Getenv("TWILIO_FROM_NUMBER")

	// Classifier
	cfg.AI.APIKey = os.Getenv("AI_API_KEY")
	cfg.AI.BaseURL = getEnv("AI_BASE_URL", "https://openrouter.ai/api/v1")
	cfg.AI.Model = getEnv("AI_MODEL", "openai/gpt-4o-mini")
	cfg.AI.Timeout = getEnvDuration("AI_TIMEOUT", 30*time.Second)

	// Persistence
	cfg.Cursor.Backend = strings.ToLower(getEnv("CURSOR_BACKEND", BackendFile))
	cfg.Cursor.File = getEnv("CURSOR_FILE", "storage.json")
	cfg.Cursor.RedisURL = os.Getenv("REDIS_URL")
	cfg.DB.DSN = os.Getenv("DB_DSN")

	// API and logging
	cfg.API.Port = getEnv("API_PORT", ":8080")
	cfg.Logging.Dir = getEnv("LOG_DIR", "logs")
	cfg.Logging.Level = getEnv("LOG_LEVEL", "info")
	cfg.Logging.Format = getEnv("LOG_FORMAT", "text")

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every missing or inconsistent setting at once.
func (c Config) Validate() error {
	missing := []string{}
	if c.Telegram.BotToken == "" {
		missing = append(missing, "TELEGRAM_BOT_TOKEN")
	}
	if c.Notify.ChatID == 0 {
		missing = append(missing, "NOTIFY_CHAT_ID")
	}

	switch c.Stream.Source {
	case SourceTelegram:
		if c.Telegram.ChannelID == 0 {
			missing = append(missing, "TELEGRAM_CHANNEL_ID")
		}
	case SourceKafka:
		if c.Stream.KafkaBroker == "" {
			missing = append(missing, "KAFKA_BROKER")
		}
		if c.Stream.KafkaTopic == "" {
			missing = append(missing, "KAFKA_TOPIC")
		}
	default:
		return fmt.Errorf("%w: unknown STREAM_SOURCE %q", models.ErrConfiguration, c.Stream.Source)
	}

	if c.Call.Enabled || c.hasBackend("sms") {
		if c.Twilio.AccountSID == "" {
			missing = append(missing, "TWILIO_ACCOUNT_SID")
		}
		if c.Twilio.AuthToken == "" {
			missing = append(missing, "TWILIO_AUTH_TOKEN")
		}
		if c.Twilio.FromNumber == "" {
			missing = append(missing, "TWILIO_FROM_NUMBER")
		}
	}
	if c.Call.Enabled && c.Call.ToNumber == "" {
		missing = append(missing, "CALL_TO_NUMBER")
	}
	if c.hasBackend("sms") && c.Notify.SMSToNumber == "" && c.Call.ToNumber == "" {
		missing = append(missing, "SMS_TO_NUMBER")
	}

	switch c.Cursor.Backend {
	case BackendFile:
	case BackendRedis:
		if c.Cursor.RedisURL == "" {
			missing = append(missing, "REDIS_URL")
		}
	case BackendPostgres:
		if c.DB.DSN == "" {
			missing = append(missing, "DB_DSN")
		}
	default:
		return fmt.Errorf("%w: unknown CURSOR_BACKEND %q", models.ErrConfiguration, c.Cursor.Backend)
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required configurations: %v", models.ErrConfiguration, missing)
	}
	if c.Call.MaxRetries < 1 {
		return fmt.Errorf("%w: CALL_MAX_RETRIES must be at least 1", models.ErrConfiguration)
	}
	if c.Monitor.CheckInterval <= 0 {
		return fmt.Errorf("%w: CHECK_INTERVAL must be positive", models.ErrConfiguration)
	}
	return nil
}

// AIEnabled reports whether the AI-backed classifier should be used.
func (c Config) AIEnabled() bool {
	return c.AI.APIKey != ""
}

// APIEnabled reports whether the status API should be served.
func (c Config) APIEnabled() bool {
	return c.API.Port != "" && c.API.Port != "off"
}

func (c Config) hasBackend(name string) bool {
	for _, b := range c.Notify.Backends {
		if b == name {
			return true
		}
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go duration syntax ("40s") or a bare integer in milliseconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if ms, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return defaultValue
}

func getEnvList(key, defaultValue string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, defaultValue), ",") {
		part = strings.TrimSpace(strings.ToLower(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
