package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.BreakerFailureThreshold != 3 {
		t.Errorf("expected default failure threshold 3, got %d", cfg.BreakerFailureThreshold)
	}
	if cfg.BreakerRecoveryTimeout != 30*time.Second {
		t.Errorf("expected default recovery timeout 30s, got %s", cfg.BreakerRecoveryTimeout)
	}
	if cfg.DegradedScanLimit != 500 {
		t.Errorf("expected default degraded scan limit 500, got %d", cfg.DegradedScanLimit)
	}
	if cfg.AgentTransport != "http" {
		t.Errorf("expected default agent transport http, got %s", cfg.AgentTransport)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("BREAKER_FAILURE_THRESHOLD", "5")
	t.Setenv("BREAKER_RECOVERY_TIMEOUT", "10s")
	t.Setenv("REDIS_TLS", "true")
	t.Setenv("AGENT_TRANSPORT", "Lambda")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.brightbuddy.ai, https://admin.brightbuddy.ai")

	cfg := Load()

	if cfg.BreakerFailureThreshold != 5 {
		t.Errorf("expected failure threshold 5, got %d", cfg.BreakerFailureThreshold)
	}
	if cfg.BreakerRecoveryTimeout != 10*time.Second {
		t.Errorf("expected recovery timeout 10s, got %s", cfg.BreakerRecoveryTimeout)
	}
	if !cfg.RedisTLS {
		t.Error("expected RedisTLS true")
	}
	if cfg.AgentTransport != "lambda" {
		t.Errorf("expected normalized transport lambda, got %s", cfg.AgentTransport)
	}
	if cfg.RateLimitRPS != 2.5 {
		t.Errorf("expected rate limit 2.5, got %f", cfg.RateLimitRPS)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://admin.brightbuddy.ai" {
		t.Errorf("expected trimmed origin list, got %v", cfg.CORSAllowedOrigins)
	}
}

func TestGetEnvAsIntInvalid(t *testing.T) {
	t.Setenv("BREAKER_FAILURE_THRESHOLD", "not-a-number")
	cfg := Load()
	if cfg.BreakerFailureThreshold != 3 {
		t.Errorf("expected fallback to default 3, got %d", cfg.BreakerFailureThreshold)
	}
}
