package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config captures all runtime configuration derived from environment variables.
type Config struct {
	DBURL             string
	DBMaxConns        int
	DBMinConns        int
	DBMaxIdleSecs     int
	DBMaxLifeSecs     int
	DBConnTimeoutSecs int
	DBStatementCache  int

	JustWatchURL         string
	JustWatchCountry     string
	JustWatchLanguage    string
	JustWatchResultLimit int
	JustWatchBestOnly    bool
	JustWatchTimeoutSecs int
	LookupConcurrency    int

	BackupDir string
	LogLevel  string
	LogFormat string

	Port             string
	AuthToken        string
	ReadTimeoutSecs  int
	WriteTimeoutSecs int
	IdleTimeoutSecs  int
}

// Load reads configuration from environment variables, applying defaults and validation.
// A .env file in the working directory is loaded first when present; variables already
// set in the environment win.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		DBURL:             os.Getenv("DB_URL"),
		DBMaxConns:        getEnvInt("DB_MAX_CONNS", 8),
		DBMinConns:        getEnvInt("DB_MIN_CONNS", 1),
		DBMaxIdleSecs:     getEnvInt("DB_MAX_CONN_IDLE_SECS", 300),
		DBMaxLifeSecs:     getEnvInt("DB_MAX_CONN_LIFETIME_SECS", 3600),
		DBConnTimeoutSecs: getEnvInt("DB_CONN_TIMEOUT_SECS", 10),
		DBStatementCache:  getEnvInt("DB_STATEMENT_CACHE_CAPACITY", 256),

		JustWatchURL:         getEnv("JUSTWATCH_URL", "https://apis.justwatch.com/graphql"),
		JustWatchCountry:     getEnv("JUSTWATCH_COUNTRY", "US"),
		JustWatchLanguage:    getEnv("JUSTWATCH_LANGUAGE", "en"),
		JustWatchResultLimit: getEnvInt("JUSTWATCH_RESULT_LIMIT", 15),
		JustWatchBestOnly:    getEnvBool("JUSTWATCH_BEST_ONLY", false),
		JustWatchTimeoutSecs: getEnvInt("JUSTWATCH_TIMEOUT_SECS", 10),
		LookupConcurrency:    getEnvInt("LOOKUP_CONCURRENCY", 4),

		BackupDir: getEnv("BACKUP_DIR", "db_backup"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		Port:             getEnv("PORT", "8080"),
		AuthToken:        os.Getenv("AUTH_TOKEN"),
		ReadTimeoutSecs:  getEnvInt("SERVER_READ_TIMEOUT", 15),
		WriteTimeoutSecs: getEnvInt("SERVER_WRITE_TIMEOUT", 120),
		IdleTimeoutSecs:  getEnvInt("SERVER_IDLE_TIMEOUT", 60),
	}

	if cfg.DBURL == "" {
		return Config{}, fmt.Errorf("DB_URL is required")
	}
	if cfg.DBMaxConns <= 0 {
		return Config{}, fmt.Errorf("DB_MAX_CONNS must be positive")
	}
	if cfg.DBMinConns < 0 {
		return Config{}, fmt.Errorf("DB_MIN_CONNS must be non-negative")
	}
	if cfg.DBMinConns > cfg.DBMaxConns {
		return Config{}, fmt.Errorf("DB_MIN_CONNS cannot exceed DB_MAX_CONNS")
	}
	if cfg.DBStatementCache < 0 {
		return Config{}, fmt.Errorf("DB_STATEMENT_CACHE_CAPACITY must be non-negative")
	}
	if cfg.JustWatchURL == "" {
		return Config{}, fmt.Errorf("JUSTWATCH_URL is required")
	}
	if cfg.JustWatchResultLimit <= 0 {
		return Config{}, fmt.Errorf("JUSTWATCH_RESULT_LIMIT must be positive")
	}
	if cfg.JustWatchTimeoutSecs <= 0 {
		return Config{}, fmt.Errorf("JUSTWATCH_TIMEOUT_SECS must be positive")
	}
	if cfg.LookupConcurrency <= 0 {
		return Config{}, fmt.Errorf("LOOKUP_CONCURRENCY must be positive")
	}
	switch strings.ToLower(cfg.LogFormat) {
	case "text", "json":
	default:
		return Config{}, fmt.Errorf("LOG_FORMAT must be text or json")
	}

	return cfg, nil
}

// ValidateServer checks the settings only the HTTP server needs.
func (c Config) ValidateServer() error {
	if c.AuthToken == "" {
		return fmt.Errorf("AUTH_TOKEN is required")
	}
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}
