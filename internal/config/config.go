package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

// Supported cache backends
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendBolt     = "bolt"
	BackendPostgres = "postgres"
)

// maxSeconds is the largest number of seconds a time.Duration can hold
const maxSeconds = math.MaxInt64 / int64(time.Second)

// Config holds all application configurations
// All sensitive values are loaded from .env
type Config struct {
	// Server Configuration
	Environment    string
	ServerPort     string
	RequestTimeout time.Duration

	// Namespace configuration
	CacheBackend    string
	CachePrefix     string
	CacheDefaultTTL *time.Duration // nil defers to the store's own default

	// Store configuration
	StoreTTL        time.Duration // Expiry the store applies when no TTL reaches it (0 = never)
	CleanupInterval time.Duration // Janitor interval for memory, bolt and postgres stores

	// Redis configuration
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Bolt configuration
	BoltPath   string
	BoltBucket string

	// DB configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Application settings
	AllowedOrigins       []string // CORS origins allowed outside development
	RateLimitPerMinute   int      // Rate limit per IP address
	EnableAuthentication bool     // Enable API key authentication
	APIKey               string   // API key for protected endpoints
}

// LoadConfig loads configuration from environment variables
// Returns error if required environment variables are missing
func LoadConfig() (*Config, error) {
	requestTimeout, errTimeout := getEnvAsSeconds("REQUEST_TIMEOUT_SECONDS", 10)
	defaultTTL, errDefaultTTL := getEnvAsOptionalSeconds("CACHE_DEFAULT_TTL_SECONDS")
	storeTTL, errStoreTTL := getEnvAsSeconds("CACHE_STORE_TTL_SECONDS", 0)
	cleanupInterval, errCleanup := getEnvAsSeconds("CACHE_CLEANUP_INTERVAL_SECONDS", 600)

	if err := errors.Join(errTimeout, errDefaultTTL, errStoreTTL, errCleanup); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	cfg := &Config{
		// Server defaults
		Environment:    getEnv("ENVIRONMENT", "development"),
		ServerPort:     getEnv("SERVER_PORT", "8081"),
		RequestTimeout: requestTimeout,

		// Namespace configuration
		CacheBackend:    strings.ToLower(getEnv("CACHE_BACKEND", BackendMemory)),
		CachePrefix:     getEnv("CACHE_PREFIX", "app"),
		CacheDefaultTTL: defaultTTL,

		StoreTTL:        storeTTL,
		CleanupInterval: cleanupInterval,

		// Redis configuration
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		// Bolt configuration
		BoltPath:   getEnv("BOLT_PATH", "data/cache.db"),
		BoltBucket: getEnv("BOLT_BUCKET", "cache"),

		// Database configuration
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "cache"),
		DBSSLMode:  getEnv("DB_SSL_MODE", "disable"),

		// Application settings
		AllowedOrigins:       getEnvAsList("CORS_ALLOWED_ORIGINS"),
		RateLimitPerMinute:   getEnvAsInt("RATE_LIMIT_PER_MINUTE", 600),
		EnableAuthentication: getEnvAsBool("ENABLE_AUTHENTICATION", false),
		APIKey:               getEnv("API_KEY", ""),
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if all required configuration is present and valid
func (c *Config) Validate() error {
	switch c.CacheBackend {
	case BackendMemory, BackendRedis, BackendBolt, BackendPostgres:
	default:
		return fmt.Errorf("CACHE_BACKEND must be one of memory, redis, bolt, postgres, got %q", c.CacheBackend)
	}

	if c.CachePrefix == "" {
		return fmt.Errorf("CACHE_PREFIX is required")
	}

	if c.CacheDefaultTTL != nil && *c.CacheDefaultTTL < 0 {
		return fmt.Errorf("CACHE_DEFAULT_TTL_SECONDS must not be negative, got %s", *c.CacheDefaultTTL)
	}

	if c.BoltPath == "" && c.CacheBackend == BackendBolt {
		return fmt.Errorf("BOLT_PATH is required for the bolt backend")
	}

	// Validate database password in production
	if c.CacheBackend == BackendPostgres && c.Environment == "production" && c.DBPassword == "" {
		return fmt.Errorf("DB_PASSWORD is required in production")
	}

	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive, got %d", c.RateLimitPerMinute)
	}

	// Validate API key if authentication is enabled
	if c.EnableAuthentication && c.APIKey == "" {
		return fmt.Errorf("API_KEY is required when ENABLE_AUTHENTICATION is true")
	}

	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsAllowedOrigin reports whether CORS headers may be sent for origin
func (c *Config) IsAllowedOrigin(origin string) bool {
	if c.IsDevelopment() {
		return true
	}
	for _, allowed := range c.AllowedOrigins {
		if allowed == origin {
			return true
		}
	}
	return false
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// PostgresDSN builds the connection string for the postgres backend
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode,
	)
}

// Helper functions for reading environment variables

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt reads an environment variable as integer or returns default
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsBool reads an environment variable as boolean or returns default
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsSeconds reads a whole number of seconds as a duration
// Unlike getEnvAsInt, a malformed value is an error rather than a silent default
func getEnvAsSeconds(key string, defaultSeconds int64) (time.Duration, error) {
	d, err := getEnvAsOptionalSeconds(key)
	if err != nil {
		return 0, err
	}
	if d == nil {
		return time.Duration(defaultSeconds) * time.Second, nil
	}
	return *d, nil
}

// getEnvAsOptionalSeconds reads a number of seconds, nil when unset
func getEnvAsOptionalSeconds(key string) (*time.Duration, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return nil, nil
	}

	seconds, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%s must be a whole number of seconds, got %q", key, valueStr)
	}
	if seconds > maxSeconds || seconds < -maxSeconds {
		return nil, fmt.Errorf("%s must be within %d seconds, got %d", key, maxSeconds, seconds)
	}

	d := time.Duration(seconds) * time.Second
	return &d, nil
}

// getEnvAsList reads a comma-separated environment variable, skipping blanks
func getEnvAsList(key string) []string {
	var values []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			values = append(values, part)
		}
	}
	return values
}
