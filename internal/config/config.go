package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName   string `mapstructure:"app_name"`
	Env       string `mapstructure:"app_env"`
	LogLevel  string `mapstructure:"log_level"`
	UserAgent string `mapstructure:"user_agent"`

	TimeoutMs int64         `mapstructure:"timeout_ms"`
	Timeout   time.Duration `mapstructure:"-"`

	RequestsFile       string        `mapstructure:"requests_file"`
	PublishersFile     string        `mapstructure:"publishers_file"`
	RunIntervalSeconds int64         `mapstructure:"run_interval_seconds"`
	RunInterval        time.Duration `mapstructure:"-"`
	RateLimitRPS       float64       `mapstructure:"rate_limit_rps"`

	JournalType            string        `mapstructure:"journal_type"`
	JournalPath            string        `mapstructure:"journal_path"`
	JournalTTLSeconds      int64         `mapstructure:"journal_ttl_seconds"`
	JournalCleanupSeconds  int64         `mapstructure:"journal_cleanup_interval_seconds"`
	JournalTTL             time.Duration `mapstructure:"-"`
	JournalCleanupInterval time.Duration `mapstructure:"-"`

	MetricsTextfile string `mapstructure:"metrics_textfile"`
}

// EnvFile is the dotenv file read before the environment is consulted.
var EnvFile = "configs/.env"

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load(EnvFile)

	v := viper.New()

	v.SetDefault("app_name", "restclient")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("user_agent", "restclient/1.0")
	v.SetDefault("timeout_ms", 15000)
	v.SetDefault("requests_file", "./configs/requests.yaml")
	v.SetDefault("publishers_file", "./configs/publishers.yaml")
	v.SetDefault("run_interval_seconds", 0) // run once
	v.SetDefault("rate_limit_rps", 0)       // unlimited
	v.SetDefault("journal_type", "bbolt")
	v.SetDefault("journal_path", "./data/journal.db")
	v.SetDefault("journal_ttl_seconds", int64((7*24*time.Hour)/time.Second))
	v.SetDefault("journal_cleanup_interval_seconds", int64((6*time.Hour)/time.Second))
	v.SetDefault("metrics_textfile", "")

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.TimeoutMs <= 0 {
		return nil, fmt.Errorf("invalid timeout_ms (must be positive milliseconds)")
	}
	cfg.Timeout = time.Duration(cfg.TimeoutMs) * time.Millisecond

	if cfg.RunIntervalSeconds < 0 {
		return nil, fmt.Errorf("invalid run_interval_seconds (must be zero or positive seconds)")
	}
	cfg.RunInterval = time.Duration(cfg.RunIntervalSeconds) * time.Second

	if cfg.RateLimitRPS < 0 {
		return nil, fmt.Errorf("invalid rate_limit_rps (must be zero or positive)")
	}

	cfg.JournalType = strings.ToLower(strings.TrimSpace(cfg.JournalType))
	if cfg.JournalTTLSeconds <= 0 {
		return nil, fmt.Errorf("invalid journal_ttl_seconds (must be positive seconds)")
	}
	if cfg.JournalCleanupSeconds <= 0 {
		return nil, fmt.Errorf("invalid journal_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.JournalTTL = time.Duration(cfg.JournalTTLSeconds) * time.Second
	cfg.JournalCleanupInterval = time.Duration(cfg.JournalCleanupSeconds) * time.Second

	return &cfg, nil
}
