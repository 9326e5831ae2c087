package config

import (
	"errors"
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

	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	CORS       CORSConfig
	Log        LogConfig
	Sync       SyncConfig
	Remote     RemoteConfig
	Drafting   DraftingConfig
	Validation ValidationConfig
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

type JWTConfig struct {
	Secret string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SyncConfig tunes the reconciliation loop and connectivity probing.
type SyncConfig struct {
	Interval       time.Duration
	ProbeInterval  time.Duration
	ProbeTimeout   time.Duration
	ConfirmWorkers int
	ConfirmRetries int
	SnapshotTTL    time.Duration
}

// RemoteConfig points at the remote authority.
type RemoteConfig struct {
	BaseURL string
	Timeout time.Duration
}

// DraftingConfig points at the AI drafting collaborator.
type DraftingConfig struct {
	BaseURL string
	Timeout time.Duration
}

// ValidationConfig points at the validation collaborator.
type ValidationConfig struct {
	BaseURL string
	Timeout time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
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

	cfg.JWT = JWTConfig{
		Secret: v.GetString("JWT_SECRET"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Sync = SyncConfig{
		Interval:       parseDuration(v.GetString("SYNC_INTERVAL"), 30*time.Second),
		ProbeInterval:  parseDuration(v.GetString("SYNC_PROBE_INTERVAL"), 10*time.Second),
		ProbeTimeout:   parseDuration(v.GetString("SYNC_PROBE_TIMEOUT"), 2*time.Second),
		ConfirmWorkers: v.GetInt("SYNC_CONFIRM_WORKERS"),
		ConfirmRetries: v.GetInt("SYNC_CONFIRM_RETRIES"),
		SnapshotTTL:    parseDuration(v.GetString("SYNC_SNAPSHOT_TTL"), 5*time.Minute),
	}

	cfg.Remote = RemoteConfig{
		BaseURL: v.GetString("REMOTE_BASE_URL"),
		Timeout: parseDuration(v.GetString("REMOTE_TIMEOUT"), 10*time.Second),
	}

	cfg.Drafting = DraftingConfig{
		BaseURL: v.GetString("DRAFTING_BASE_URL"),
		Timeout: parseDuration(v.GetString("DRAFTING_TIMEOUT"), 60*time.Second),
	}

	cfg.Validation = ValidationConfig{
		BaseURL: v.GetString("VALIDATION_BASE_URL"),
		Timeout: parseDuration(v.GetString("VALIDATION_TIMEOUT"), 30*time.Second),
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
	v.SetDefault("DB_NAME", "collab")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SYNC_CONFIRM_WORKERS", 2)
	v.SetDefault("SYNC_CONFIRM_RETRIES", 3)

	v.SetDefault("REMOTE_BASE_URL", "http://localhost:9000")
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
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
