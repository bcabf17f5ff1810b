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

	Database DatabaseConfig
	Redis    RedisConfig
	CORS     CORSConfig
	Log      LogConfig
	Schema   SchemaConfig
	Validate ValidationConfig
	Merge    MergeConfig
	Reports  ReportsConfig
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

// SchemaConfig locates the task-definition manifest and tunes schema loading.
type SchemaConfig struct {
	ManifestPath string
	SchemaDir    string
	LoadTimeout  time.Duration
}

// ValidationConfig governs validation result caching.
type ValidationConfig struct {
	CacheTTL time.Duration
}

// MergeConfig tunes reconciliation logging thresholds and grade inference.
// GradeWindows maps form submission-time intervals onto grade levels, as a
// comma-separated list of "grade:from..to" entries with YYYY-MM-DD bounds.
type MergeConfig struct {
	CrossGradeWarnLimit int
	ConflictWarnLimit   int
	GradeWindows        string
}

// ReportsConfig configures validation report export and file retention.
type ReportsConfig struct {
	Enabled         bool
	StorageDir      string
	ResultTTL       time.Duration
	CleanupInterval time.Duration
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

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Schema = SchemaConfig{
		ManifestPath: v.GetString("SCHEMA_MANIFEST_PATH"),
		SchemaDir:    v.GetString("SCHEMA_DIR"),
		LoadTimeout:  parseDuration(v.GetString("SCHEMA_LOAD_TIMEOUT"), 10*time.Second),
	}

	cfg.Validate = ValidationConfig{
		CacheTTL: parseDuration(v.GetString("VALIDATION_CACHE_TTL"), 10*time.Minute),
	}

	cfg.Merge = MergeConfig{
		CrossGradeWarnLimit: v.GetInt("MERGE_CROSS_GRADE_WARN_LIMIT"),
		ConflictWarnLimit:   v.GetInt("MERGE_CONFLICT_WARN_LIMIT"),
		GradeWindows:        v.GetString("MERGE_GRADE_WINDOWS"),
	}

	cfg.Reports = ReportsConfig{
		Enabled:         v.GetBool("ENABLE_REPORTS"),
		StorageDir:      v.GetString("REPORTS_STORAGE_DIR"),
		ResultTTL:       parseDuration(v.GetString("REPORTS_RESULT_TTL"), 24*time.Hour),
		CleanupInterval: parseDuration(v.GetString("REPORTS_CLEANUP_INTERVAL"), time.Hour),
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
	v.SetDefault("DB_NAME", "survey_recon")
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

	v.SetDefault("SCHEMA_MANIFEST_PATH", "./assets/task-manifest.json")
	v.SetDefault("SCHEMA_DIR", "./assets/schemas")
	v.SetDefault("SCHEMA_LOAD_TIMEOUT", "10s")

	v.SetDefault("VALIDATION_CACHE_TTL", "10m")

	v.SetDefault("MERGE_CROSS_GRADE_WARN_LIMIT", 0)
	v.SetDefault("MERGE_CONFLICT_WARN_LIMIT", 0)
	v.SetDefault("MERGE_GRADE_WINDOWS", "")

	v.SetDefault("ENABLE_REPORTS", false)
	v.SetDefault("REPORTS_STORAGE_DIR", "./exports")
	v.SetDefault("REPORTS_RESULT_TTL", "24h")
	v.SetDefault("REPORTS_CLEANUP_INTERVAL", "1h")
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
