// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Upstream  UpstreamConfig  `mapstructure:"upstream"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	History   HistoryConfig   `mapstructure:"history"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// UpstreamConfig describes the scraped site and the fetch client's retry
// behavior against it.
type UpstreamConfig struct {
	BaseURL            string  `mapstructure:"base_url"`
	ForecastURL        string  `mapstructure:"forecast_url"`
	UserAgent          string  `mapstructure:"user_agent"`
	PageTimeoutSeconds int     `mapstructure:"page_timeout_seconds"`
	APITimeoutSeconds  int     `mapstructure:"api_timeout_seconds"`
	RetryCount         int     `mapstructure:"retry_count"`
	RetryDelayMs       int     `mapstructure:"retry_delay_ms"`
	RateLimitRPS       float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst     int     `mapstructure:"rate_limit_burst"`
}

// CacheConfig holds the per-domain TTLs.
type CacheConfig struct {
	ParkingTTLSeconds    int `mapstructure:"parking_ttl_seconds"`
	CongestionTTLSeconds int `mapstructure:"congestion_ttl_seconds"`
	ForecastTTLSeconds   int `mapstructure:"forecast_ttl_seconds"`
}

// SchedulerConfig holds the recurring-scrape cadences. Peak windows are
// fixed (05:00-08:00 and 16:00-19:00 site-local, inclusive at both bounds).
type SchedulerConfig struct {
	ParkingIntervalSeconds    int `mapstructure:"parking_interval_seconds"`
	PeakIntervalSeconds       int `mapstructure:"peak_interval_seconds"`
	CongestionIntervalSeconds int `mapstructure:"congestion_interval_seconds"`
}

// HistoryConfig controls the optional scrape-outcome journal. An empty DSN
// disables it.
type HistoryConfig struct {
	DSN string `mapstructure:"dsn"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("AIRPORT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("upstream.base_url", "https://www.airport.kr")
	v.SetDefault("upstream.forecast_url", "https://www.airport.kr/dep/ap_kr/getForecast.do")
	v.SetDefault("upstream.user_agent", "Mozilla/5.0 (compatible; airport-live/1.0)")
	v.SetDefault("upstream.page_timeout_seconds", 10)
	v.SetDefault("upstream.api_timeout_seconds", 15)
	v.SetDefault("upstream.retry_count", 3)
	v.SetDefault("upstream.retry_delay_ms", 1000)
	v.SetDefault("upstream.rate_limit_rps", 5.0)
	v.SetDefault("upstream.rate_limit_burst", 5)
	v.SetDefault("cache.parking_ttl_seconds", 60)
	v.SetDefault("cache.congestion_ttl_seconds", 120)
	v.SetDefault("cache.forecast_ttl_seconds", 1800)
	v.SetDefault("scheduler.parking_interval_seconds", 30)
	v.SetDefault("scheduler.peak_interval_seconds", 15)
	v.SetDefault("scheduler.congestion_interval_seconds", 60)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Upstream.BaseURL == "" {
		return fmt.Errorf("upstream.base_url must be set")
	}
	if c.Upstream.RetryCount <= 0 {
		return fmt.Errorf("upstream.retry_count must be > 0")
	}
	if c.Upstream.PageTimeoutSeconds <= 0 || c.Upstream.APITimeoutSeconds <= 0 {
		return fmt.Errorf("upstream timeouts must be > 0")
	}
	if c.Cache.ParkingTTLSeconds <= 0 || c.Cache.CongestionTTLSeconds <= 0 || c.Cache.ForecastTTLSeconds <= 0 {
		return fmt.Errorf("cache TTLs must be > 0")
	}
	if c.Scheduler.ParkingIntervalSeconds <= 0 || c.Scheduler.PeakIntervalSeconds <= 0 || c.Scheduler.CongestionIntervalSeconds <= 0 {
		return fmt.Errorf("scheduler intervals must be > 0")
	}
	return nil
}

// PageTimeout is the per-attempt timeout for HTML page fetches.
func (c UpstreamConfig) PageTimeout() time.Duration {
	return time.Duration(c.PageTimeoutSeconds) * time.Second
}

// APITimeout is the per-attempt timeout for AJAX/POST fetches.
func (c UpstreamConfig) APITimeout() time.Duration {
	return time.Duration(c.APITimeoutSeconds) * time.Second
}

// RetryDelay is the linear backoff base between attempts.
func (c UpstreamConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayMs) * time.Millisecond
}

// ParkingTTL is the cache lifetime for parking snapshots.
func (c CacheConfig) ParkingTTL() time.Duration {
	return time.Duration(c.ParkingTTLSeconds) * time.Second
}

// CongestionTTL is the cache lifetime for congestion snapshots.
func (c CacheConfig) CongestionTTL() time.Duration {
	return time.Duration(c.CongestionTTLSeconds) * time.Second
}

// ForecastTTL is the cache lifetime for passenger forecasts.
func (c CacheConfig) ForecastTTL() time.Duration {
	return time.Duration(c.ForecastTTLSeconds) * time.Second
}

// ParkingInterval is the base parking scrape cadence.
func (c SchedulerConfig) ParkingInterval() time.Duration {
	return time.Duration(c.ParkingIntervalSeconds) * time.Second
}

// PeakInterval is the extra parking cadence inside peak windows.
func (c SchedulerConfig) PeakInterval() time.Duration {
	return time.Duration(c.PeakIntervalSeconds) * time.Second
}

// CongestionInterval is the congestion scrape cadence.
func (c SchedulerConfig) CongestionInterval() time.Duration {
	return time.Duration(c.CongestionIntervalSeconds) * time.Second
}
