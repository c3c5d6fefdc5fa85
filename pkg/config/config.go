package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	CORS      CORSConfig
	Log       LogConfig
	Dashboard DashboardConfig
	Reminders RemindersConfig
	Exports   ExportsConfig
	Uploads   UploadsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// DashboardConfig governs dashboard caching and the review-year default.
// DefaultYear of zero means "derive from the wall clock at the entry point";
// a fixed value pins every year-scoped computation, which tests rely on.
type DashboardConfig struct {
	Enabled     bool
	CacheTTL    time.Duration
	DefaultYear int
}

// RemindersConfig drives the outstanding-review email flow.
type RemindersConfig struct {
	Enabled     bool
	SendGridKey string
	FromName    string
	FromEmail   string
	Workers     int
}

// ExportsConfig controls table export rendering output.
type ExportsConfig struct {
	StorageDir string
}

// UploadsConfig controls review evidence/feedback attachment storage.
type UploadsConfig struct {
	StorageDir       string
	MaxFileSizeBytes int64
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	// SetConfigFile bypasses viper's search path, so a missing .env would
	// be a plain *fs.PathError rather than ConfigFileNotFoundError. Stat
	// first: no file is fine, an unreadable or malformed one is not.
	if _, err := os.Stat(".env"); err == nil {
		v.SetConfigFile(".env")
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read .env: %w", err)
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Dashboard = DashboardConfig{
		Enabled:     v.GetBool("ENABLE_DASHBOARD_CACHE"),
		CacheTTL:    parseDuration(v.GetString("DASHBOARD_CACHE_TTL"), 5*time.Minute),
		DefaultYear: v.GetInt("REVIEW_DEFAULT_YEAR"),
	}

	cfg.Reminders = RemindersConfig{
		Enabled:     v.GetBool("ENABLE_REMINDERS"),
		SendGridKey: v.GetString("SENDGRID_API_KEY"),
		FromName:    v.GetString("REMINDER_FROM_NAME"),
		FromEmail:   v.GetString("REMINDER_FROM_EMAIL"),
		Workers:     v.GetInt("REMINDER_WORKERS"),
	}

	cfg.Exports = ExportsConfig{
		StorageDir: v.GetString("EXPORTS_STORAGE_DIR"),
	}

	maxUploadSize := v.GetInt64("UPLOADS_MAX_FILE_SIZE")
	if maxUploadSize <= 0 {
		maxUploadSize = 10 * 1024 * 1024
	}
	cfg.Uploads = UploadsConfig{
		StorageDir:       v.GetString("UPLOADS_STORAGE_DIR"),
		MaxFileSizeBytes: maxUploadSize,
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "module_reviews")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_DASHBOARD_CACHE", false)
	v.SetDefault("DASHBOARD_CACHE_TTL", "5m")
	v.SetDefault("REVIEW_DEFAULT_YEAR", 0)

	v.SetDefault("ENABLE_REMINDERS", false)
	v.SetDefault("SENDGRID_API_KEY", "")
	v.SetDefault("REMINDER_FROM_NAME", "Module Review Tracker")
	v.SetDefault("REMINDER_FROM_EMAIL", "no-reply@localhost")
	v.SetDefault("REMINDER_WORKERS", 2)

	v.SetDefault("EXPORTS_STORAGE_DIR", "./exports")
	v.SetDefault("UPLOADS_STORAGE_DIR", "./uploads")
	v.SetDefault("UPLOADS_MAX_FILE_SIZE", 10*1024*1024)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
