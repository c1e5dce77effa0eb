package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/text/language"
)

type Config struct {
	Database DatabaseConfig
	JWT      JWTConfig
	App      AppConfig
	Rollup   RollupConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
	StreamExpiration time.Duration
}

// AppConfig holds application configuration
type AppConfig struct {
	Port           int
	Env            string
	LogLevel       string
	AllowedOrigins []string
}

// RollupConfig tunes the snapshot cache and the views built from it
type RollupConfig struct {
	Locale             string
	SnapshotTTL        time.Duration
	RefreshInterval    time.Duration
	RefreshConcurrency int
	LeaderboardLimit   int
}

// Load reads configuration from the environment. A .env file is loaded first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file loaded, using process environment", "reason", err.Error())
	}

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	maxConns, err := strconv.Atoi(getEnv("DB_MAX_CONNS", "25"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}
	minConns, err := strconv.Atoi(getEnv("DB_MIN_CONNS", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "cmlabs-hris"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		MaxConns: int32(maxConns),
		MinConns: int32(minConns),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:           appPort,
		Env:            getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AllowedOrigins: getEnvSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
	}

	// JWT configuration
	streamExpiration, err := time.ParseDuration(getEnv("JWT_STREAM_EXPIRATION_TIME", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_STREAM_EXPIRATION_TIME: %w", err)
	}

	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
		StreamExpiration: streamExpiration,
	}

	// Rollup configuration
	snapshotTTL, err := time.ParseDuration(getEnv("ROLLUP_SNAPSHOT_TTL", "10m"))
	if err != nil {
		return nil, fmt.Errorf("invalid ROLLUP_SNAPSHOT_TTL: %w", err)
	}
	refreshInterval, err := time.ParseDuration(getEnv("ROLLUP_REFRESH_INTERVAL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid ROLLUP_REFRESH_INTERVAL: %w", err)
	}
	refreshConcurrency, err := strconv.Atoi(getEnv("ROLLUP_REFRESH_CONCURRENCY", "4"))
	if err != nil {
		return nil, fmt.Errorf("invalid ROLLUP_REFRESH_CONCURRENCY: %w", err)
	}
	leaderboardLimit, err := strconv.Atoi(getEnv("ROLLUP_LEADERBOARD_MAX_LIMIT", "500"))
	if err != nil {
		return nil, fmt.Errorf("invalid ROLLUP_LEADERBOARD_MAX_LIMIT: %w", err)
	}

	config.Rollup = RollupConfig{
		Locale:             getEnv("ROLLUP_LOCALE", "tr"),
		SnapshotTTL:        snapshotTTL,
		RefreshInterval:    refreshInterval,
		RefreshConcurrency: refreshConcurrency,
		LeaderboardLimit:   leaderboardLimit,
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	var errs []error

	if c.Database.Password == "" {
		errs = append(errs, errors.New("DB_PASSWORD is required"))
	}
	if c.Database.MinConns < 0 || c.Database.MaxConns <= 0 || c.Database.MinConns > c.Database.MaxConns {
		errs = append(errs, errors.New("DB_MIN_CONNS and DB_MAX_CONNS must satisfy 0 <= min <= max and max > 0"))
	}
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("JWT_SECRET_KEY is required"))
	}
	if _, err := time.ParseDuration(c.JWT.AccessExpiration); err != nil {
		errs = append(errs, fmt.Errorf("JWT_ACCESS_EXPIRATION_TIME is invalid: %w", err))
	}
	if c.JWT.StreamExpiration <= 0 {
		errs = append(errs, errors.New("JWT_STREAM_EXPIRATION_TIME must be positive"))
	}
	if _, err := language.Parse(c.Rollup.Locale); err != nil {
		errs = append(errs, fmt.Errorf("ROLLUP_LOCALE is invalid: %w", err))
	}
	if c.Rollup.SnapshotTTL < 0 {
		errs = append(errs, errors.New("ROLLUP_SNAPSHOT_TTL must not be negative"))
	}
	if c.Rollup.RefreshInterval <= 0 {
		errs = append(errs, errors.New("ROLLUP_REFRESH_INTERVAL must be positive"))
	}
	if c.Rollup.RefreshConcurrency <= 0 {
		errs = append(errs, errors.New("ROLLUP_REFRESH_CONCURRENCY must be positive"))
	}
	if c.Rollup.LeaderboardLimit <= 0 {
		errs = append(errs, errors.New("ROLLUP_LEADERBOARD_MAX_LIMIT must be positive"))
	}

	return errors.Join(errs...)
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     fmt.Sprintf("%s:%d", c.Database.Host, c.Database.Port),
		Path:     c.Database.Name,
		RawQuery: url.Values{"sslmode": []string{c.Database.SSLMode}}.Encode(),
	}
	return u.String()
}

// SlogLevel maps LOG_LEVEL to a slog level, defaulting to info
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.App.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}

	var result []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
