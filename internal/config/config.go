package config

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the resolved process configuration. Precedence: command-line
// flags over SENTINEL_* environment variables over an optional sentinel.conf
// file over built-in defaults.
type Config struct {
	Port            int    `mapstructure:"port"`
	ModelPath       string `mapstructure:"model_path"`
	PollIntervalSec int    `mapstructure:"poll_interval_sec"`
	HistoryDSN      string `mapstructure:"history_dsn"`
	SessionTTLMin   int    `mapstructure:"session_ttl_min"`
	LogFile         string `mapstructure:"log_file"`
	RatePerMinute   int    `mapstructure:"rate_per_minute"`
	RateBurst       int    `mapstructure:"rate_burst"`
}

const (
	defaultPort          = 8080
	defaultModelPath     = "server_failure_model.json"
	defaultPollInterval  = 2
	defaultHistoryDSN    = "file:sentinel.db?_pragma=busy_timeout(5000)"
	defaultSessionTTL    = 60
	defaultRatePerMinute = 120
	defaultRateBurst     = 20
)

// Load resolves the configuration from flags, environment and an optional
// config file.
func Load(args []string) (*Config, error) {
	flags := pflag.NewFlagSet("sentinel", pflag.ContinueOnError)
	flags.Int("port", defaultPort, "HTTP listen port")
	flags.String("model-path", defaultModelPath, "Path to the serialized classifier artifact")
	flags.Int("poll-interval-sec", defaultPollInterval, "Seconds between live-monitor samples")
	flags.String("history-dsn", defaultHistoryDSN, "SQLite DSN for prediction history (empty disables)")
	flags.Int("session-ttl-min", defaultSessionTTL, "Minutes before an idle session is evicted")
	flags.String("log-file", "", "Application log file (empty logs to stdout)")
	flags.Int("rate-per-minute", defaultRatePerMinute, "Allowed requests per minute per client IP")
	flags.Int("rate-burst", defaultRateBurst, "Rate limit burst per client IP")
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetDefault("port", defaultPort)
	v.SetDefault("model_path", defaultModelPath)
	v.SetDefault("poll_interval_sec", defaultPollInterval)
	v.SetDefault("history_dsn", defaultHistoryDSN)
	v.SetDefault("session_ttl_min", defaultSessionTTL)
	v.SetDefault("log_file", "")
	v.SetDefault("rate_per_minute", defaultRatePerMinute)
	v.SetDefault("rate_burst", defaultRateBurst)

	v.SetConfigName("sentinel.conf")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("SENTINEL")
	v.AutomaticEnv()
	for env, key := range map[string]string{
		"PORT":              "port",
		"MODEL_PATH":        "model_path",
		"POLL_INTERVAL_SEC": "poll_interval_sec",
		"HISTORY_DSN":       "history_dsn",
		"SESSION_TTL_MIN":   "session_ttl_min",
		"LOG_FILE":          "log_file",
		"RATE_PER_MINUTE":   "rate_per_minute",
		"RATE_BURST":        "rate_burst",
	} {
		if err := v.BindEnv(key, "SENTINEL_"+env); err != nil {
			return nil, err
		}
	}

	// Flags the user actually set win over file and environment values.
	flagKeys := map[string]string{
		"port":              "port",
		"model-path":        "model_path",
		"poll-interval-sec": "poll_interval_sec",
		"history-dsn":       "history_dsn",
		"session-ttl-min":   "session_ttl_min",
		"log-file":          "log_file",
		"rate-per-minute":   "rate_per_minute",
		"rate-burst":        "rate_burst",
	}
	flags.Visit(func(f *pflag.Flag) {
		if key, ok := flagKeys[f.Name]; ok {
			v.Set(key, f.Value.String())
		}
	})

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("port must be between 1 and 65535, got %d", cfg.Port)
	}
	if cfg.PollIntervalSec < 1 {
		return nil, fmt.Errorf("poll interval must be at least 1 second, got %d", cfg.PollIntervalSec)
	}
	return cfg, nil
}

// PollInterval returns the live-monitor tick interval as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSec) * time.Second
}

// SessionTTL returns the idle-session eviction window.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMin) * time.Minute
}
