package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"basegraph.app/studiobot/core/db"
)

type Config struct {
	OTel      OTelConfig
	GitHub    GitHubConfig
	Airtable  AirtableConfig
	Slack     SlackConfig
	Drive     DriveConfig
	Team      TeamConfig
	Schedule  ScheduleConfig
	Retry     RetryConfig
	Queue     QueueConfig
	Env       string
	Port      string
	LogLevel  string
	DB        db.Config
	ServiceID int64
}

type OTelConfig struct {
	Endpoint       string
	Headers        string
	ServiceName    string
	ServiceVersion string
	SampleRatio    float64
}

type GitHubConfig struct {
	Token         string
	WebhookSecret string
	Owner         string
	Repository    string
	GraphQLURL    string
}

type AirtableConfig struct {
	APIKey       string
	Base         string
	ViewEndpoint string // record links are ViewEndpoint + recordID
	RequestTable string
	StaffTable   string
	OwnerField   string
}

type SlackConfig struct {
	Token    string // user token, owns groups
	BotToken string // posts messages
}

type DriveConfig struct {
	Enabled         bool
	CredentialsJSON string
	WorkDir         string
	URL             string
}

type TeamConfig struct {
	Managers  []string
	Namespace string
}

type ScheduleConfig struct {
	SettleDelay   time.Duration // opened, closed
	DebounceDelay time.Duration // labeled, assigned
	PollInterval  time.Duration
	SweepSchedule string
	Timezone      string
	CardRetention time.Duration
}

type RetryConfig struct {
	MaxAttempts     uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

type QueueConfig struct {
	Backend   string // "redis" or "memory"
	RedisURL  string
	KeyPrefix string
}

type ServiceType string

const (
	ServiceTypeServer ServiceType = "server"
	ServiceTypeWorker ServiceType = "worker"
)

// Load loads configuration from environment variables.
// In development, it loads from service-specific .env files:
//   - .env.server for the webhook server
//   - .env.worker for the scheduler and sweeper
//
// Falls back to .env if service-specific file doesn't exist.
func Load(serviceType ServiceType) (Config, error) {
	if getEnv("STUDIOBOT_ENV", "development") == "development" {
		envFile := fmt.Sprintf(".env.%s", serviceType)
		if err := godotenv.Load(envFile); err != nil {
			_ = godotenv.Load(".env")
		}
	}

	serviceID := int64(1)
	if serviceType == ServiceTypeWorker {
		serviceID = 2
	}

	cfg := Config{
		Env:       getEnv("STUDIOBOT_ENV", "development"),
		Port:      getEnv("PORT", "3000"),
		LogLevel:  getEnv("LOG_LEVEL", ""),
		ServiceID: serviceID,
		DB: db.Config{
			DSN:      getEnv("DATABASE_URL", ""),
			MaxConns: getEnvInt32("DB_MAX_CONNS", 4),
			MinConns: getEnvInt32("DB_MIN_CONNS", 1),
		},
		OTel: OTelConfig{
			Endpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:        getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "studiobot-"+string(serviceType)),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "dev"),
			SampleRatio:    getEnvFloat("OTEL_TRACES_SAMPLE_RATIO", 1),
		},
		GitHub: GitHubConfig{
			Token:         getEnv("GH_TOKEN", ""),
			WebhookSecret: getEnv("GH_WEBHOOK_SECRET", ""),
			Owner:         getEnv("GH_OWNER", ""),
			Repository:    getEnv("GH_REPOSITORY", ""),
			GraphQLURL:    getEnv("GH_ENDPOINT", "https://api.github.com/graphql"),
		},
		Airtable: AirtableConfig{
			APIKey:       getEnv("AIRTABLE_API_KEY", ""),
			Base:         getEnv("AIRTABLE_BASE", ""),
			ViewEndpoint: getEnv("AIRTABLE_VIEW_ENDPOINT", ""),
			RequestTable: getEnv("AIRTABLE_REQUEST_TABLE", "request"),
			StaffTable:   getEnv("AIRTABLE_STAFF_TABLE", "staff"),
			OwnerField:   getEnv("AIRTABLE_OWNER_FIELD", "owner"),
		},
		Slack: SlackConfig{
			Token:    getEnv("SLACK_TOKEN", ""),
			BotToken: getEnv("SLACK_BOT_TOKEN", ""),
		},
		Drive: DriveConfig{
			Enabled:         getEnvBool("GDRIVE_ENABLED", false),
			CredentialsJSON: getEnv("GDRIVE_CREDENTIALS_JSON", ""),
			WorkDir:         getEnv("GDRIVE_WORK_DIR", ""),
			URL:             getEnv("GDRIVE_URL", "https://drive.google.com/drive/folders"),
		},
		Team: TeamConfig{
			Managers:  splitList(getEnv("MANAGERS", "")),
			Namespace: getEnv("NAMESPACE", "studio"),
		},
		Schedule: ScheduleConfig{
			SettleDelay:   getEnvDuration("SETTLE_DELAY", 15*time.Minute),
			DebounceDelay: getEnvDuration("DEBOUNCE_DELAY", time.Minute),
			PollInterval:  getEnvDuration("SCHEDULER_POLL_INTERVAL", 5*time.Second),
			SweepSchedule: getEnv("SWEEP_SCHEDULE", "0 0 23 * * *"),
			Timezone:      getEnv("TIMEZONE", "America/New_York"),
			CardRetention: getEnvDuration("CARD_RETENTION", 14*24*time.Hour),
		},
		Retry: RetryConfig{
			MaxAttempts:     uint(getEnvInt("RECORD_LOOKUP_ATTEMPTS", 10)),
			InitialInterval: getEnvDuration("RECORD_LOOKUP_INITIAL_INTERVAL", 2*time.Second),
			MaxInterval:     getEnvDuration("RECORD_LOOKUP_MAX_INTERVAL", 30*time.Second),
		},
		Queue: QueueConfig{
			Backend:   getEnv("QUEUE_BACKEND", "redis"),
			RedisURL:  getEnv("REDIS_URL", "redis://localhost:6379/0"),
			KeyPrefix: getEnv("QUEUE_KEY_PREFIX", "studiobot:tasks"),
		},
	}

	if err := cfg.validate(serviceType); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) validate(serviceType ServiceType) error {
	var missing []string
	require := func(key, value string) {
		if value == "" {
			missing = append(missing, key)
		}
	}

	require("GH_WEBHOOK_SECRET", c.GitHub.WebhookSecret)
	if serviceType == ServiceTypeWorker || c.Queue.InProcess() {
		require("GH_TOKEN", c.GitHub.Token)
		require("GH_OWNER", c.GitHub.Owner)
		require("GH_REPOSITORY", c.GitHub.Repository)
		require("AIRTABLE_API_KEY", c.Airtable.APIKey)
		require("AIRTABLE_BASE", c.Airtable.Base)
		require("AIRTABLE_VIEW_ENDPOINT", c.Airtable.ViewEndpoint)
		require("SLACK_TOKEN", c.Slack.Token)
		require("SLACK_BOT_TOKEN", c.Slack.BotToken)
		if len(c.Team.Managers) == 0 {
			missing = append(missing, "MANAGERS")
		}
		if c.Drive.Enabled {
			require("GDRIVE_CREDENTIALS_JSON", c.Drive.CredentialsJSON)
			require("GDRIVE_WORK_DIR", c.Drive.WorkDir)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}

	if c.Queue.Backend != "redis" && c.Queue.Backend != "memory" {
		return fmt.Errorf("QUEUE_BACKEND must be redis or memory, got %q", c.Queue.Backend)
	}

	if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Schedule.Timezone, err)
	}

	return nil
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Location returns the configured timezone. Load has already validated it.
func (c ScheduleConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c OTelConfig) Enabled() bool {
	return c.Endpoint != ""
}

func (c DriveConfig) Ready() bool {
	return c.Enabled && c.CredentialsJSON != "" && c.WorkDir != ""
}

// InProcess reports whether the server drains the queue itself.
func (c QueueConfig) InProcess() bool {
	return c.Backend == "memory"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt32(key string, fallback int32) int32 {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(i)
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
