package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	// HTTP Server
	HTTPPort         string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	ShutdownTimeout  time.Duration

	// LLM Provider (NVIDIA-hosted, OpenAI-compatible)
	LLMAPIKey      string
	LLMBaseURL     string
	LLMModel       string
	LLMTemperature float64

	// Google Custom Search. Empty key or engine id disables research.
	GoogleAPIKey  string
	GoogleCSEID   string
	SearchResults int
	SearchMonths  int

	// Pipeline
	CompanyName     string
	OutputDir       string
	PipelineTimeout time.Duration
	ManifestPath    string

	// Worker Pool
	WorkerCount int
	QueueSize   int

	// Archive (optional persistence). Empty MongoURI disables archiving.
	MongoURI      string
	MongoDatabase string
	MongoTimeout  time.Duration

	// Completion webhook. Empty URL disables notification.
	WebhookURL          string
	WebhookTimeout      time.Duration
	WebhookMaxAttempts  int
	WebhookInitialDelay time.Duration
	WebhookMaxDelay     time.Duration
	WebhookMultiplier   float64

	// Retention. Zero max age keeps jobs for the life of the process.
	RetentionMaxAge   time.Duration
	RetentionSchedule string

	// Logging
	LogLevel  string
	LogFormat string

	// CORS
	CORSAllowedOrigins   string
	CORSAllowedMethods   string
	CORSAllowedHeaders   string
	CORSAllowCredentials bool
	CORSMaxAge           int
}

// Load reads configuration from environment variables with sensible
// defaults and fails fast when a required credential is missing.
func Load() (*Config, error) {
	cfg := &Config{
		// HTTP Server
		HTTPPort:         getEnv("PORT", "8080"),
		HTTPReadTimeout:  getDurationEnv("HTTP_READ_TIMEOUT_SEC", 15) * time.Second,
		HTTPWriteTimeout: getDurationEnv("HTTP_WRITE_TIMEOUT_SEC", 30) * time.Second,
		ShutdownTimeout:  getDurationEnv("SHUTDOWN_TIMEOUT_SEC", 30) * time.Second,

		// LLM Provider
		LLMAPIKey:      getEnv("NVIDIA_API_KEY", ""),
		LLMBaseURL:     getEnv("NVIDIA_BASE_URL", "https://integrate.api.nvidia.com/v1"),
		LLMModel:       getEnv("DEFAULT_MODEL", "minimaxai/minimax-m2"),
		LLMTemperature: getFloatEnv("OPENAI_TEMPERATURE", 0.7),

		// Google Custom Search
		GoogleAPIKey:  getEnv("GOOGLE_API_KEY", ""),
		GoogleCSEID:   getEnv("GOOGLE_CSE_ID", ""),
		SearchResults: getIntEnv("SEARCH_RESULTS", 8),
		SearchMonths:  getIntEnv("RECENT_MONTHS", 6),

		// Pipeline
		CompanyName:     getEnv("COMPANY_NAME", "Myrealtrip OTA Company"),
		OutputDir:       getEnv("OUTPUT_DIR", "output"),
		PipelineTimeout: getDurationEnv("PIPELINE_TIMEOUT_SEC", 600) * time.Second,
		ManifestPath:    getEnv("CREW_MANIFEST_PATH", ""),

		// Worker Pool
		WorkerCount: getIntEnv("WORKER_COUNT", 2),
		QueueSize:   getIntEnv("QUEUE_SIZE", 32),

		// Archive
		MongoURI:      getEnv("MONGO_URI", ""),
		MongoDatabase: getEnv("MONGO_DATABASE", "crucible"),
		MongoTimeout:  getDurationEnv("MONGO_TIMEOUT_SEC", 10) * time.Second,

		// Completion webhook
		WebhookURL:          getEnv("WEBHOOK_URL", ""),
		WebhookTimeout:      getDurationEnv("WEBHOOK_TIMEOUT_SEC", 10) * time.Second,
		WebhookMaxAttempts:  getIntEnv("WEBHOOK_MAX_ATTEMPTS", 3),
		WebhookInitialDelay: getDurationEnv("WEBHOOK_RETRY_DELAY_SEC", 2) * time.Second,
		WebhookMaxDelay:     getDurationEnv("WEBHOOK_RETRY_MAX_DELAY_SEC", 30) * time.Second,
		WebhookMultiplier:   getFloatEnv("WEBHOOK_RETRY_MULTIPLIER", 2.0),

		// Retention
		RetentionMaxAge:   getDurationEnv("RETENTION_MAX_AGE_SEC", 0) * time.Second,
		RetentionSchedule: getEnv("RETENTION_SCHEDULE", "*/10 * * * *"),

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		// CORS
		CORSAllowedOrigins:   getEnv("CORS_ALLOWED_ORIGINS", "*"),
		CORSAllowedMethods:   getEnv("CORS_ALLOWED_METHODS", "GET, POST, OPTIONS"),
		CORSAllowedHeaders:   getEnv("CORS_ALLOWED_HEADERS", "*"),
		CORSAllowCredentials: getBoolEnv("CORS_ALLOW_CREDENTIALS", true),
		CORSMaxAge:           getIntEnv("CORS_MAX_AGE", 3600),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate rejects configurations that would otherwise fail mid-job.
func (c *Config) validate() error {
	if c.LLMAPIKey == "" {
		return fmt.Errorf("NVIDIA_API_KEY is required")
	}
	if c.WorkerCount < 1 {
		return fmt.Errorf("WORKER_COUNT must be at least 1")
	}
	if c.QueueSize < 1 {
		return fmt.Errorf("QUEUE_SIZE must be at least 1")
	}
	if c.PipelineTimeout <= 0 {
		return fmt.Errorf("PIPELINE_TIMEOUT_SEC must be positive")
	}
	if c.SearchResults < 1 || c.SearchResults > 10 {
		return fmt.Errorf("SEARCH_RESULTS must be between 1 and 10")
	}
	return nil
}

// String renders the configuration for startup logging with secrets
// redacted.
func (c *Config) String() string {
	return fmt.Sprintf(
		"port=%s workers=%d queue=%d model=%s pipeline_timeout=%s output_dir=%s search=%t archive=%t webhook=%t retention_max_age=%s",
		c.HTTPPort, c.WorkerCount, c.QueueSize, c.LLMModel, c.PipelineTimeout,
		c.OutputDir, c.SearchEnabled(), c.ArchiveEnabled(), c.WebhookURL != "",
		c.RetentionMaxAge,
	)
}

// SearchEnabled reports whether Google Custom Search credentials are set.
func (c *Config) SearchEnabled() bool {
	return c.GoogleAPIKey != "" && c.GoogleCSEID != ""
}

// ArchiveEnabled reports whether terminal jobs are persisted to MongoDB.
func (c *Config) ArchiveEnabled() bool {
	return c.MongoURI != ""
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		log.Printf("Warning: Invalid integer value for %s, using default %d", key, defaultValue)
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue int) time.Duration {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return time.Duration(intVal)
		}
		log.Printf("Warning: Invalid duration value for %s, using default %d", key, defaultValue)
	}
	return time.Duration(defaultValue)
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
		log.Printf("Warning: Invalid float value for %s, using default %g", key, defaultValue)
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
		log.Printf("Warning: Invalid boolean value for %s, using default %t", key, defaultValue)
	}
	return defaultValue
}
