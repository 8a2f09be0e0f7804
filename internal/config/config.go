package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Session store backends.
const (
	SessionStoreFile  = "file"
	SessionStoreRedis = "redis"
)

// Config holds all application configuration.
type Config struct {
	APIBaseURL  string
	HTTPTimeout time.Duration
	LogLevel    string
	LogFormat   string
	// ConsoleLogLevel applies to the console, whose log lines share the
	// terminal with the UI.
	ConsoleLogLevel string

	// SessionStore selects where the login token and user are kept: "file" or "redis".
	SessionStore     string
	SessionFile      string
	SessionNamespace string
	RedisURL         string

	Autosave          bool
	AutosaveQueueSize int

	// Stub backend settings.
	StubPort   string
	GinMode    string
	JWTSecret  string
	JWTExpiry  time.Duration
	BcryptCost int
	// AllowedOrigins controls stub CORS.
	// Empty slice means all origins are permitted (dev default).
	AllowedOrigins []string
}

// Load reads configuration from environment variables with sensible defaults.
// It loads .env file if present but does not fail if missing.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		APIBaseURL:        getEnv("API_BASE_URL", "http://localhost:5000"),
		HTTPTimeout:       time.Duration(getEnvInt("HTTP_TIMEOUT_SECONDS", 10)) * time.Second,
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "pretty"),
		ConsoleLogLevel:   getEnv("CONSOLE_LOG_LEVEL", "warn"),
		SessionStore:      strings.ToLower(getEnv("SESSION_STORE", SessionStoreFile)),
		SessionFile:       getEnv("SESSION_FILE", defaultSessionFile()),
		SessionNamespace:  getEnv("SESSION_NAMESPACE", "default"),
		RedisURL:          getEnv("REDIS_URL", "redis://localhost:6379/0"),
		Autosave:          getEnvBool("AUTOSAVE", true),
		AutosaveQueueSize: getEnvInt("AUTOSAVE_QUEUE_SIZE", 64),
		StubPort:          getEnv("STUB_PORT", "5000"),
		GinMode:           getEnv("GIN_MODE", "debug"),
		JWTSecret:         getEnv("JWT_SECRET", "change-this-to-a-secure-random-string"),
		JWTExpiry:         time.Duration(getEnvInt("JWT_EXPIRY_HOURS", 48)) * time.Hour,
		BcryptCost:        getEnvInt("BCRYPT_COST", 6),
		AllowedOrigins:    parseOrigins(getEnv("ALLOWED_ORIGINS", "")),
	}
}

func defaultSessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".quickquiz-session.json"
	}
	return filepath.Join(home, ".quickquiz", "session.json")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

// parseOrigins splits a comma-separated origins string into a trimmed slice.
// Returns nil (allow-all) if the input is empty.
func parseOrigins(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
