package app

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Issuer               string        // Issuer identifier (default: http://localhost:<port>)
	UsersFile            string        // Path to the users registry, JSON or YAML (default: users.json)
	ClientsFile          string        // Path to the clients registry, JSON or YAML (default: clients.json)
	StoreDriver          string        // Artifact store driver (memory, sqlite) (default: memory)
	InternalClientSecret string        // Secret of the first-party client (default: random per process)
	SigningKeyFile       string        // Optional: Ed25519 PKCS8 PEM; an ephemeral key is generated otherwise
	PepperFile           string        // Optional: argon2id pepper file
	TOTPSkew             uint          // TOTP steps accepted either side of now (default: 1)
	TrustProxy           bool          // Take the client IP from X-Forwarded-For (default: false)
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 3000)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Expired artifact sweep interval (default: 5m)
}

func LoadConfig() Config {
	cfg := Config{
		UsersFile:            getEnvOrDefault("SSOP_USERS_FILE", "users.json"),
		ClientsFile:          getEnvOrDefault("SSOP_CLIENTS_FILE", "clients.json"),
		StoreDriver:          getEnvOrDefault("SSOP_STORE_DRIVER", "memory"),
		InternalClientSecret: os.Getenv("SSOP_INTERNAL_CLIENT_SECRET"),
		SigningKeyFile:       os.Getenv("SSOP_SIGNING_KEY_FILE"),
		PepperFile:           os.Getenv("SSOP_PEPPER_FILE"),
		TOTPSkew:             uint(max(getEnvIntOrDefault("SSOP_TOTP_SKEW", 1), 0)),
		TrustProxy:           getEnvBoolOrDefault("SSOP_TRUST_PROXY", false),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 3000),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 5*time.Minute),
	}

	cfg.Issuer = getEnvOrDefault("SSOP_ISSUER", fmt.Sprintf("http://localhost:%d", cfg.Port))

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
