package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	OTel        OTelConfig
	WorkOS      WorkOSConfig
	Redis       RedisConfig
	LLM         LLMConfig
	ArangoDB    ArangoDBConfig
	Workflow    WorkflowConfig
	Scheduler   SchedulerConfig
	Backup      BackupConfig
	Search      SearchConfig
	Env         string
	Port        string
	RoutePrefix string
	CORSOrigins string
	AdminAPIKey string
}

type WorkOSConfig struct {
	APIKey   string
	ClientID string
	// JWKSURL overrides the key set derived from ClientID.
	JWKSURL string
	// AdminEmails are promoted to admin on first sign-in.
	AdminEmails string
}

type OTelConfig struct {
	Endpoint       string
	Headers        string
	ServiceName    string
	ServiceVersion string
	SampleRatio    float64
}

// RedisConfig holds the stream settings shared by the API (producer) and
// the worker (consumer group).
type RedisConfig struct {
	URL              string
	AssignmentStream string
	Group            string
	Consumer         string
	DLQStream        string
	PushStream       string
	MaxAttempts      int
}

type LLMConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	EmbeddingModel string
}

type ArangoDBConfig struct {
	URL      string
	Username string
	Password string
	Database string
}

type WorkflowConfig struct {
	ExpiryWindow          time.Duration
	NotificationRetention time.Duration
	ApprovalThreshold     int
	DefaultPageSize       int
	MaxPageSize           int
}

type SchedulerConfig struct {
	Timezone             string
	ExpirySchedule       string
	NotificationSchedule string
	UnblockSchedule      string
	BackupSchedule       string
	BalanceSchedule      string
}

type BackupConfig struct {
	Dir string
}

type SearchConfig struct {
	// IndexPath of the on-disk question index. Empty keeps the index in memory.
	IndexPath string
}

type ServiceType string

const (
	ServiceTypeServer ServiceType = "server"
	ServiceTypeWorker ServiceType = "worker"
)

// Load loads configuration from environment variables.
// In development, it loads from service-specific .env files:
//   - .env.server for the API server
//   - .env.worker for the background worker
//
// Falls back to .env if service-specific file doesn't exist.
func Load(serviceType ServiceType) (Config, error) {
	if getEnv("APP_ENV", "development") == "development" {
		envFile := fmt.Sprintf(".env.%s", serviceType)
		if err := godotenv.Load(envFile); err != nil {
			_ = godotenv.Load(".env")
		}
	}

	cfg := Config{
		Env:         getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		RoutePrefix: getEnv("ROUTE_PREFIX", "/api/v1"),
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:5173"),
		AdminAPIKey: getEnv("ADMIN_API_KEY", ""),
		OTel: OTelConfig{
			Endpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:        getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "ajrasakha-"+string(serviceType)),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "dev"),
			SampleRatio:    getEnvFloat("OTEL_TRACES_SAMPLE_RATIO", 1),
		},
		WorkOS: WorkOSConfig{
			APIKey:      getEnv("WORKOS_API_KEY", ""),
			ClientID:    getEnv("WORKOS_CLIENT_ID", ""),
			JWKSURL:     getEnv("AUTH_JWKS_URL", ""),
			AdminEmails: getEnv("ADMIN_EMAILS", ""),
		},
		Redis: RedisConfig{
			URL:              getEnv("REDIS_URL", "redis://localhost:6379/0"),
			AssignmentStream: getEnv("REDIS_ASSIGNMENT_STREAM", "workload_assignments"),
			Group:            getEnv("REDIS_CONSUMER_GROUP", "workload_balancers"),
			Consumer:         getEnv("REDIS_CONSUMER_NAME", "balancer"),
			DLQStream:        getEnv("REDIS_DLQ_STREAM", "workload_assignments_dlq"),
			PushStream:       getEnv("REDIS_PUSH_STREAM", "push_notifications"),
			MaxAttempts:      getEnvInt("REDIS_MAX_ATTEMPTS", 3),
		},
		LLM: LLMConfig{
			APIKey:         getEnv("OPENAI_API_KEY", ""),
			BaseURL:        getEnv("OPENAI_BASE_URL", ""),
			Model:          getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			EmbeddingModel: getEnv("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
		},
		ArangoDB: ArangoDBConfig{
			URL:      getEnv("ARANGO_URL", "http://localhost:8529"),
			Username: getEnv("ARANGO_USERNAME", "root"),
			Password: getEnv("ARANGO_PASSWORD", ""),
			Database: getEnv("ARANGO_DATABASE", "ajrasakha"),
		},
		Workflow: WorkflowConfig{
			ExpiryWindow:          getEnvDuration("QUESTION_EXPIRY_WINDOW", 4*time.Hour),
			NotificationRetention: getEnvDuration("NOTIFICATION_RETENTION", 30*24*time.Hour),
			ApprovalThreshold:     getEnvInt("ANSWER_APPROVAL_THRESHOLD", 3),
			DefaultPageSize:       getEnvInt("DEFAULT_PAGE_SIZE", 10),
			MaxPageSize:           getEnvInt("MAX_PAGE_SIZE", 100),
		},
		Scheduler: SchedulerConfig{
			Timezone:             getEnv("SCHEDULER_TIMEZONE", "Asia/Kolkata"),
			ExpirySchedule:       getEnv("EXPIRY_SCHEDULE", "* * * * *"),
			NotificationSchedule: getEnv("NOTIFICATION_CLEANUP_SCHEDULE", "0 0 * * *"),
			UnblockSchedule:      getEnv("UNBLOCK_SCHEDULE", "*/30 * * * *"),
			BackupSchedule:       getEnv("BACKUP_SCHEDULE", "0 2,14 * * *"),
			BalanceSchedule:      getEnv("BALANCE_SCHEDULE", "*/15 * * * *"),
		},
		Backup: BackupConfig{
			Dir: getEnv("BACKUP_DIR", "./backups"),
		},
		Search: SearchConfig{
			IndexPath: getEnv("SEARCH_INDEX_PATH", ""),
		},
	}

	if !cfg.ArangoDB.Enabled() {
		return Config{}, fmt.Errorf("ARANGO_URL, ARANGO_USERNAME and ARANGO_DATABASE are required")
	}

	if serviceType == ServiceTypeServer && cfg.WorkOS.ClientID == "" && cfg.WorkOS.JWKSURL == "" {
		return Config{}, fmt.Errorf("WORKOS_CLIENT_ID or AUTH_JWKS_URL is required")
	}

	if cfg.Workflow.ApprovalThreshold < 1 {
		return Config{}, fmt.Errorf("ANSWER_APPROVAL_THRESHOLD must be positive")
	}

	if _, err := time.LoadLocation(cfg.Scheduler.Timezone); err != nil {
		return Config{}, fmt.Errorf("invalid SCHEDULER_TIMEZONE %q: %w", cfg.Scheduler.Timezone, err)
	}

	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c Config) CORSOriginList() []string {
	return splitList(c.CORSOrigins)
}

func splitList(raw string) []string {
	var out []string
	for _, v := range strings.Split(raw, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func (c OTelConfig) Enabled() bool {
	return c.Endpoint != ""
}

func (c WorkOSConfig) Enabled() bool {
	return c.APIKey != "" && c.ClientID != ""
}

func (c WorkOSConfig) AdminEmailList() []string {
	return splitList(c.AdminEmails)
}

func (c LLMConfig) Enabled() bool {
	return c.APIKey != ""
}

func (c ArangoDBConfig) Enabled() bool {
	return c.URL != "" && c.Username != "" && c.Database != ""
}

// Location returns the scheduler timezone. Load has already validated it.
func (c SchedulerConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
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

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
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
