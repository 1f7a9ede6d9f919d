package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// AWS wiring (LocalStack overrides supported via AWSEndpointOverride)
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	// Safety incident persistence
	IncidentsTable       string
	IncidentsByUserIndex string
	ArchiveBucket        string

	// Redis analysis/incident cache
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Agent dispatch
	AgentTransport    string // "lambda" or "http"
	AgentBaseURL      string
	AgentLambdaPrefix string
	AgentTimeout      time.Duration
	AgentMaxRetries   int

	// Circuit breaker
	BreakerFailureThreshold int
	BreakerRecoveryTimeout  time.Duration

	// Degraded-mode incident reads
	DegradedScanLimit int

	// Review pipeline
	ReviewQueueURL  string
	ModerationEmail string
	AlertFromEmail  string
	AlertFromName   string
	BedrockModelID  string

	// HTTP surface
	AdminJWTSecret     string
	RateLimitRPS       float64
	RateLimitBurst     int
	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		IncidentsTable:       getEnv("SAFETY_INCIDENTS_TABLE", "safety-incidents"),
		IncidentsByUserIndex: getEnv("SAFETY_INCIDENTS_USER_INDEX", "userId-createdAt-index"),
		ArchiveBucket:        getEnv("SAFETY_ARCHIVE_BUCKET", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		AgentTransport:    strings.ToLower(strings.TrimSpace(getEnv("AGENT_TRANSPORT", "http"))),
		AgentBaseURL:      getEnv("AGENT_BASE_URL", ""),
		AgentLambdaPrefix: getEnv("AGENT_LAMBDA_PREFIX", "brightbuddy-agent-"),
		AgentTimeout:      getEnvAsDuration("AGENT_TIMEOUT", 5*time.Second),
		AgentMaxRetries:   getEnvAsInt("AGENT_MAX_RETRIES", 1),

		BreakerFailureThreshold: getEnvAsInt("BREAKER_FAILURE_THRESHOLD", 3),
		BreakerRecoveryTimeout:  getEnvAsDuration("BREAKER_RECOVERY_TIMEOUT", 30*time.Second),

		DegradedScanLimit: getEnvAsInt("DEGRADED_SCAN_LIMIT", 500),

		ReviewQueueURL:  getEnv("REVIEW_QUEUE_URL", ""),
		ModerationEmail: getEnv("MODERATION_EMAIL", ""),
		AlertFromEmail:  getEnv("ALERT_FROM_EMAIL", "alerts@brightbuddy.ai"),
		AlertFromName:   getEnv("ALERT_FROM_NAME", "BrightBuddy Safety"),
		BedrockModelID:  getEnv("BEDROCK_MODEL_ID", ""),

		AdminJWTSecret:     getEnv("ADMIN_JWT_SECRET", ""),
		RateLimitRPS:       getEnvAsFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 20),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
