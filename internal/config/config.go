package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all client configuration, loaded from environment variables
// with local-development defaults.
type Config struct {
	// Ordered WebSocket endpoint candidates, tried in sequence on rejection
	WSEndpoints []string

	// Base URL of the REST backend
	APIBaseURL string

	// Timeout for REST requests
	HTTPTimeout time.Duration

	// WebSocket dial handshake timeout
	DialTimeout time.Duration

	// Keepalive ping interval while connected
	PingInterval time.Duration

	// Reconnect delay after the endpoint rejected us (selector advances)
	RejectedRetryDelay time.Duration

	// Reconnect delay after an abnormal or other closure (endpoint unchanged)
	ClosedRetryDelay time.Duration

	// Inactivity delay before the local typing indicator is cleared
	TypingStopDelay time.Duration

	// How long a server-reported typing user stays in the typing set
	TypingTTL time.Duration

	// Page size for message history loads
	HistoryPageSize int
}

// Load reads configuration from the environment. A .env file is honored when
// present.
func Load() *Config {
	// Ignore error if .env file doesn't exist (e.g. in production)
	_ = godotenv.Load()

	return &Config{
		WSEndpoints:        getEnvList("CHARCHA_WS_ENDPOINTS", []string{"ws://localhost:8080/ws"}),
		APIBaseURL:         getEnv("CHARCHA_API_URL", "http://localhost:8080"),
		HTTPTimeout:        getEnvDuration("CHARCHA_HTTP_TIMEOUT", 10*time.Second),
		DialTimeout:        getEnvDuration("CHARCHA_DIAL_TIMEOUT", 20*time.Second),
		PingInterval:       getEnvDuration("CHARCHA_PING_INTERVAL", 30*time.Second),
		RejectedRetryDelay: getEnvDuration("CHARCHA_REJECTED_RETRY_DELAY", time.Second),
		ClosedRetryDelay:   getEnvDuration("CHARCHA_CLOSED_RETRY_DELAY", 5*time.Second),
		TypingStopDelay:    getEnvDuration("CHARCHA_TYPING_STOP_DELAY", 2*time.Second),
		TypingTTL:          getEnvDuration("CHARCHA_TYPING_TTL", 10*time.Second),
		HistoryPageSize:    getEnvInt("CHARCHA_HISTORY_PAGE_SIZE", 20),
	}
}

// getEnv returns the value of an environment variable or a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the value of an environment variable as an integer or a default value
func getEnvInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

// getEnvDuration returns the value of an environment variable as a duration or a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

// getEnvList splits a comma-separated environment variable, dropping empty entries
func getEnvList(key string, defaultValue []string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	var values []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}
