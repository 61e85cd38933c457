package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr            string
	GRPCAddr            string
	AdminAPIBaseURL     string
	AuthAPIBaseURL      string
	BackendTimeout      time.Duration
	BackendProbePath    string
	SessionStore        string
	SessionCookie       string
	SessionCookieSecure bool
	SessionTTL          time.Duration
	SessionPurge        time.Duration
	HydrateTimeout      time.Duration
	RedisAddr           string
	RedisPassword       string
	DatabaseURL         string
	JWTPublicKey        string
	JWTIssuer           string
	ConsulAddr          string
	BackendServiceName  string
	DiscoveryInterval   time.Duration
	DiscoveryTimeout    time.Duration
	KafkaBrokers        []string
	KafkaTopic          string
	LogLevel            string
	LogFormat           string
	LogOutput           string
	LogFile             string
}

// Load reads the environment, after merging an optional .env file.
func Load() Config {
	_ = godotenv.Load(getenv("ENV_FILE", ".env"))

	return Config{
		HTTPAddr:            getenv("HTTP_ADDR", ":8090"),
		GRPCAddr:            getenv("GRPC_ADDR", ":9090"),
		AdminAPIBaseURL:     strings.TrimRight(getenv("ADMIN_API_BASE_URL", "http://localhost:8080/api/v1/admin"), "/"),
		AuthAPIBaseURL:      strings.TrimRight(getenv("AUTH_API_BASE_URL", "http://localhost:8080/api/v1"), "/"),
		BackendTimeout:      getenvDuration("BACKEND_TIMEOUT", 15*time.Second),
		BackendProbePath:    getenv("BACKEND_PROBE_PATH", ""),
		SessionStore:        strings.ToLower(getenv("SESSION_STORE", "memory")),
		SessionCookie:       getenv("SESSION_COOKIE", "admin_session"),
		SessionCookieSecure: getenvBool("SESSION_COOKIE_SECURE", false),
		SessionTTL:          getenvDuration("SESSION_TTL", 24*time.Hour),
		SessionPurge:        getenvDuration("SESSION_PURGE_INTERVAL", 10*time.Minute),
		HydrateTimeout:      getenvDuration("SESSION_HYDRATE_TIMEOUT", 10*time.Second),
		RedisAddr:           getenv("REDIS_ADDR", ""),
		RedisPassword:       getenv("REDIS_PASSWORD", ""),
		DatabaseURL:         getenv("DATABASE_URL", ""),
		JWTPublicKey:        getenvKey("JWT_PUBLIC_KEY", ""),
		JWTIssuer:           getenv("JWT_ISSUER", ""),
		ConsulAddr:          getenv("CONSUL_ADDR", ""),
		BackendServiceName:  getenv("BACKEND_SERVICE_NAME", "admin-service"),
		DiscoveryInterval:   getenvDuration("DISCOVERY_INTERVAL", 30*time.Second),
		DiscoveryTimeout:    getenvDuration("DISCOVERY_TIMEOUT", 5*time.Second),
		KafkaBrokers:        getenvList("KAFKA_BROKERS"),
		KafkaTopic:          getenv("KAFKA_TOPIC", "admin.actions"),
		LogLevel:            getenv("LOG_LEVEL", "info"),
		LogFormat:           getenv("LOG_FORMAT", "text"),
		LogOutput:           getenv("LOG_OUTPUT", "stdout"),
		LogFile:             getenv("LOG_FILE", "logs/admin.log"),
	}
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getenvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getenvList(key string) []string {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	if val := os.Getenv(key + "_SECONDS"); val != "" {
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}

func getenvKey(key, fallback string) string {
	if file := os.Getenv(key + "_FILE"); file != "" {
		if data, err := os.ReadFile(file); err == nil {
			return normalizePEM(string(data))
		}
	}
	if val := os.Getenv(key); val != "" {
		return normalizePEM(val)
	}
	return fallback
}

func normalizePEM(value string) string {
	value = strings.TrimSpace(value)
	if strings.Contains(value, "\\n") && !strings.Contains(value, "\n") {
		value = strings.ReplaceAll(value, "\\n", "\n")
	}
	return value
}
