package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration for the insights engine. Thresholds are
// injected into every component explicitly; nothing reads ambient settings.
type Config struct {
	AppName        string
	AppEnv         string
	KThreshold     int    `validate:"gte=1"`
	TimeWindowDays int    `validate:"gte=1"`
	RetentionDays  int    `validate:"gte=1"`
	PseudonymSalt  string `validate:"required"`
	DatabaseURL    string
	DatabasePath   string
	RedisURL       string
	ReportCacheTTL time.Duration
	DataDir        string
	ExportDir      string
}

// Load reads configuration values from environment variables and an optional
// .env file. Threshold or window values outside their valid domain are fatal.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("SAHAY")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Sahay Insights")
	v.SetDefault("app.env", "development")
	v.SetDefault("k_threshold", 5)
	v.SetDefault("time_window_days", 7)
	v.SetDefault("retention_days", 90)
	v.SetDefault("database.path", "insights.db")
	v.SetDefault("report.cache_ttl", "5m")
	v.SetDefault("data.dir", "data/input")
	v.SetDefault("export.dir", "data/output")

	ttlString := v.GetString("report.cache_ttl")
	if ttlString == "" {
		ttlString = "5m"
	}

	ttl, err := time.ParseDuration(ttlString)
	if err != nil {
		return Config{}, fmt.Errorf("invalid report cache ttl: %w", err)
	}

	cfg := Config{
		AppName:        v.GetString("app.name"),
		AppEnv:         v.GetString("app.env"),
		KThreshold:     v.GetInt("k_threshold"),
		TimeWindowDays: v.GetInt("time_window_days"),
		RetentionDays:  v.GetInt("retention_days"),
		PseudonymSalt:  v.GetString("pseudonym.salt"),
		DatabaseURL:    v.GetString("database.url"),
		DatabasePath:   v.GetString("database.path"),
		RedisURL:       v.GetString("redis.url"),
		ReportCacheTTL: ttl,
		DataDir:        v.GetString("data.dir"),
		ExportDir:      v.GetString("export.dir"),
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}
