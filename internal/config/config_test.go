package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("HTTP_ADDR", ":18090")
	t.Setenv("GRPC_ADDR", ":19090")
	t.Setenv("ADMIN_API_BASE_URL", "http://backend:8080/api/v1/admin/")
	t.Setenv("SESSION_STORE", "Redis")
	t.Setenv("SESSION_COOKIE_SECURE", "true")
	t.Setenv("BACKEND_TIMEOUT", "3s")
	t.Setenv("SESSION_TTL_SECONDS", "3600")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")

	cfg := Load()
	if cfg.HTTPAddr != ":18090" {
		t.Fatalf("expected HTTP_ADDR override, got %s", cfg.HTTPAddr)
	}
	if cfg.GRPCAddr != ":19090" {
		t.Fatalf("expected GRPC_ADDR override, got %s", cfg.GRPCAddr)
	}
	if cfg.AdminAPIBaseURL != "http://backend:8080/api/v1/admin" {
		t.Fatalf("expected trimmed ADMIN_API_BASE_URL, got %s", cfg.AdminAPIBaseURL)
	}
	if cfg.SessionStore != "redis" {
		t.Fatalf("expected SESSION_STORE redis, got %s", cfg.SessionStore)
	}
	if !cfg.SessionCookieSecure {
		t.Fatalf("expected SESSION_COOKIE_SECURE true")
	}
	if cfg.BackendTimeout != 3*time.Second {
		t.Fatalf("expected BACKEND_TIMEOUT 3s, got %s", cfg.BackendTimeout)
	}
	if cfg.SessionTTL != time.Hour {
		t.Fatalf("expected SESSION_TTL 1h, got %s", cfg.SessionTTL)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "kafka-2:9092" {
		t.Fatalf("unexpected KAFKA_BROKERS %v", cfg.KafkaBrokers)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("AUTH_API_BASE_URL", "")
	t.Setenv("SESSION_STORE", "")

	cfg := Load()
	if cfg.AuthAPIBaseURL != "http://localhost:8080/api/v1" {
		t.Fatalf("unexpected auth base url %s", cfg.AuthAPIBaseURL)
	}
	if cfg.SessionStore != "memory" {
		t.Fatalf("expected memory session store, got %s", cfg.SessionStore)
	}
}

func TestLoadConfigDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("KAFKA_TOPIC=dotenv.topic\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("ENV_FILE", path)
	// godotenv never overrides variables that are already present.
	t.Setenv("KAFKA_TOPIC", "")
	os.Unsetenv("KAFKA_TOPIC")

	cfg := Load()
	if cfg.KafkaTopic != "dotenv.topic" {
		t.Fatalf("expected KAFKA_TOPIC from .env, got %s", cfg.KafkaTopic)
	}
}

func TestGetenvKeyNormalizesEscapedNewlines(t *testing.T) {
	t.Setenv("JWT_PUBLIC_KEY", "-----BEGIN PUBLIC KEY-----\\nabc\\n-----END PUBLIC KEY-----")
	got := getenvKey("JWT_PUBLIC_KEY", "")
	if got != "-----BEGIN PUBLIC KEY-----\nabc\n-----END PUBLIC KEY-----" {
		t.Fatalf("unexpected key %q", got)
	}
}
