// Package config provides application-wide configuration.
// Defaults < optional YAML file (DISSOCIATED_CONFIG) < environment variables.
// All fields have safe defaults so the binary runs locally without any setup.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds runtime configuration for dissociated.
type Config struct {
	// Storage
	DBPath string `yaml:"db_path"` // DISSOCIATED_DB_PATH, default: "dissociated.db"

	// HTTP
	HTTPHost string `yaml:"http_host"` // DISSOCIATED_HTTP_HOST, default: "0.0.0.0"
	HTTPPort int    `yaml:"http_port"` // DISSOCIATED_HTTP_PORT, default: 8080

	// Logging
	LogLevel string `yaml:"log_level"` // DISSOCIATED_LOG_LEVEL, default: "info"
	LogJSON  bool   `yaml:"log_json"`  // DISSOCIATED_LOG_JSON, default: false

	// Generation defaults
	ChunkSize int  `yaml:"chunk_size"` // DISSOCIATED_CHUNK_SIZE, default: 2
	Chunks    int  `yaml:"chunks"`     // DISSOCIATED_CHUNKS, default: 50
	MaxChunks int  `yaml:"max_chunks"` // DISSOCIATED_MAX_CHUNKS, default: 10000
	Strict    bool `yaml:"strict"`     // DISSOCIATED_STRICT, default: false (dead ends stop gracefully)

	// Auth. An empty JWTSecret disables authentication on /api/v1.
	JWTSecret         string `yaml:"-"`                   // JWT_SECRET, env only
	JWTExpiryHours    int    `yaml:"jwt_expiry_hours"`    // JWT_EXPIRY, default: 24
	AdminPasswordHash string `yaml:"admin_password_hash"` // DISSOCIATED_ADMIN_PASSWORD_HASH (bcrypt)
}

const (
	envKeyConfigFile        = "DISSOCIATED_CONFIG"
	envKeyDBPath            = "DISSOCIATED_DB_PATH"
	envKeyHTTPHost          = "DISSOCIATED_HTTP_HOST"
	envKeyHTTPPort          = "DISSOCIATED_HTTP_PORT"
	envKeyLogLevel          = "DISSOCIATED_LOG_LEVEL"
	envKeyLogJSON           = "DISSOCIATED_LOG_JSON"
	envKeyChunkSize         = "DISSOCIATED_CHUNK_SIZE"
	envKeyChunks            = "DISSOCIATED_CHUNKS"
	envKeyMaxChunks         = "DISSOCIATED_MAX_CHUNKS"
	envKeyStrict            = "DISSOCIATED_STRICT"
	envKeyJWTSecret         = "JWT_SECRET"
	envKeyJWTExpiry         = "JWT_EXPIRY"
	envKeyAdminPasswordHash = "DISSOCIATED_ADMIN_PASSWORD_HASH"
)

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid config")

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		DBPath:         "dissociated.db",
		HTTPHost:       "0.0.0.0",
		HTTPPort:       8080,
		LogLevel:       "info",
		ChunkSize:      2,
		Chunks:         50,
		MaxChunks:      10000,
		JWTExpiryHours: 24,
	}
}

// Load reads the optional YAML file named by DISSOCIATED_CONFIG, then applies
// environment overrides. A missing or malformed file is an error; unset env
// vars keep the current value.
func Load() (Config, error) {
	cfg := Defaults()
	if path := os.Getenv(envKeyConfigFile); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	cfg.DBPath = envOr(envKeyDBPath, cfg.DBPath)
	cfg.HTTPHost = envOr(envKeyHTTPHost, cfg.HTTPHost)
	cfg.HTTPPort = envIntOr(envKeyHTTPPort, cfg.HTTPPort)
	cfg.LogLevel = envOr(envKeyLogLevel, cfg.LogLevel)
	cfg.LogJSON = envBoolOr(envKeyLogJSON, cfg.LogJSON)
	cfg.ChunkSize = envIntOr(envKeyChunkSize, cfg.ChunkSize)
	cfg.Chunks = envIntOr(envKeyChunks, cfg.Chunks)
	cfg.MaxChunks = envIntOr(envKeyMaxChunks, cfg.MaxChunks)
	cfg.Strict = envBoolOr(envKeyStrict, cfg.Strict)
	cfg.JWTSecret = envOr(envKeyJWTSecret, cfg.JWTSecret)
	cfg.JWTExpiryHours = envIntOr(envKeyJWTExpiry, cfg.JWTExpiryHours)
	cfg.AdminPasswordHash = envOr(envKeyAdminPasswordHash, cfg.AdminPasswordHash)

	return cfg, nil
}

// Validate reports the first out-of-range value.
func (c Config) Validate() error {
	switch {
	case c.ChunkSize < 1:
		return fmt.Errorf("%w: chunk_size must be >= 1, got %d", ErrInvalidConfig, c.ChunkSize)
	case c.Chunks < 0:
		return fmt.Errorf("%w: chunks must be >= 0, got %d", ErrInvalidConfig, c.Chunks)
	case c.MaxChunks < 1:
		return fmt.Errorf("%w: max_chunks must be >= 1, got %d", ErrInvalidConfig, c.MaxChunks)
	case c.HTTPPort < 1 || c.HTTPPort > 65535:
		return fmt.Errorf("%w: http_port out of range: %d", ErrInvalidConfig, c.HTTPPort)
	}
	return nil
}

// AuthEnabled reports whether /api/v1 requires a bearer token.
func (c Config) AuthEnabled() bool {
	return c.JWTSecret != ""
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

// envOr returns the value of the environment variable key, or fallback if not set.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envIntOr is envOr for integers; unparsable values keep fallback.
func envIntOr(key string, fallback int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return n
}

// envBoolOr is envOr for booleans ("1", "true", "false", ...).
func envBoolOr(key string, fallback bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return b
}
