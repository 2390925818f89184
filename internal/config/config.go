// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type HTTPConfig struct {
	Port           int           `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string `yaml:"url"` // host:port; empty disables redis (in-process lock)
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type AuthConfig struct {
	JWTSecret  string `yaml:"jwt_secret"`
	CookieName string `yaml:"cookie_name"`
	Issuer     string `yaml:"issuer"` // optional; checked when set
}

type RazorpayConfig struct {
	KeyID         string        `yaml:"key_id"`
	KeySecret     string        `yaml:"key_secret"`
	WebhookSecret string        `yaml:"webhook_secret"` // defaults to key_secret
	BaseURL       string        `yaml:"base_url"`
	Timeout       time.Duration `yaml:"timeout"`
	RatePerSecond float64       `yaml:"rate_per_second"`
	Burst         int           `yaml:"burst"`
}

type PaymentConfig struct {
	Razorpay RazorpayConfig `yaml:"razorpay"`
}

type SweeperConfig struct {
	CronSecret   string        `yaml:"cron_secret"`
	Interval     time.Duration `yaml:"interval"` // 0 disables the in-process ticker
	StaleAfter   time.Duration `yaml:"stale_after"`
	AbandonAfter time.Duration `yaml:"abandon_after"`
	BatchSize    int           `yaml:"batch_size"`
	LockTTL      time.Duration `yaml:"lock_ttl"`    // defaults to run_timeout + 1m
	RunTimeout   time.Duration `yaml:"run_timeout"` // defaults to batch_size * 2 gateway calls * razorpay.timeout
}

type TelegramConfig struct {
	Token  string `yaml:"token"`
	ChatID int64  `yaml:"chat_id"`
}

type NotifyConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Auth     AuthConfig     `yaml:"auth"`
	Payment  PaymentConfig  `yaml:"payment"`
	Sweeper  SweeperConfig  `yaml:"sweeper"`
	Notify   NotifyConfig   `yaml:"notify"`
	Metrics  MetricsConfig  `yaml:"metrics"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the YAML file at path, then applies .env and environment
// overrides for secrets. A missing file is allowed in dev mode.
func LoadConfig(path string, dev bool) (*Config, error) {
	_ = godotenv.Load() // .env is optional

	var cfg Config
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist) && dev:
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)
	cfg.Runtime.Dev = dev

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	setStr := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	setStr(&cfg.Database.URL, "DATABASE_URL")
	setStr(&cfg.Redis.URL, "REDIS_URL")
	setStr(&cfg.Redis.Password, "REDIS_PASSWORD")
	setStr(&cfg.Auth.JWTSecret, "AUTH_JWT_SECRET")
	setStr(&cfg.Payment.Razorpay.KeyID, "RAZORPAY_KEY_ID")
	setStr(&cfg.Payment.Razorpay.KeySecret, "RAZORPAY_KEY_SECRET")
	setStr(&cfg.Payment.Razorpay.WebhookSecret, "RAZORPAY_WEBHOOK_SECRET")
	setStr(&cfg.Sweeper.CronSecret, "CRON_SECRET")
	setStr(&cfg.Notify.Telegram.Token, "TELEGRAM_BOT_TOKEN")
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Notify.Telegram.ChatID = id
		}
	}
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.Port = p
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.HTTP.ReadTimeout <= 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout <= 0 {
		cfg.HTTP.WriteTimeout = 30 * time.Second
	}
	if cfg.HTTP.RequestTimeout <= 0 {
		cfg.HTTP.RequestTimeout = 20 * time.Second
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	if cfg.Auth.CookieName == "" {
		cfg.Auth.CookieName = "sb-access-token"
	}

	rp := &cfg.Payment.Razorpay
	if rp.WebhookSecret == "" {
		rp.WebhookSecret = rp.KeySecret
	}
	if rp.BaseURL == "" {
		rp.BaseURL = "https://api.razorpay.com/v1"
	}
	if rp.Timeout <= 0 {
		rp.Timeout = 15 * time.Second
	}
	if rp.RatePerSecond <= 0 {
		rp.RatePerSecond = 10
	}
	if rp.Burst <= 0 {
		rp.Burst = 5
	}

	sw := &cfg.Sweeper
	if sw.StaleAfter <= 0 {
		sw.StaleAfter = 5 * time.Minute
	}
	if sw.AbandonAfter <= 0 {
		sw.AbandonAfter = 10 * time.Minute
	}
	if sw.BatchSize <= 0 {
		sw.BatchSize = 50
	}
	if sw.RunTimeout <= 0 {
		sw.RunTimeout = time.Duration(sw.BatchSize) * 2 * rp.Timeout
	}
	if sw.LockTTL <= 0 {
		sw.LockTTL = sw.RunTimeout + time.Minute
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}

// Validate checks required settings. Dev mode runs on in-memory storage and
// the sandbox gateway, so only production settings are enforced.
func (c *Config) Validate() error {
	if c.Runtime.Dev {
		if c.Auth.JWTSecret == "" {
			return errors.New("auth.jwt_secret is required")
		}
		return nil
	}
	if c.Database.URL == "" {
		return errors.New("database.url is required")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required")
	}
	if c.Payment.Razorpay.KeyID == "" || c.Payment.Razorpay.KeySecret == "" {
		return errors.New("payment.razorpay.key_id and key_secret are required")
	}
	if c.Sweeper.CronSecret == "" {
		return errors.New("sweeper.cron_secret is required")
	}
	if c.Sweeper.LockTTL < c.Sweeper.RunTimeout {
		return errors.New("sweeper.lock_ttl must not be shorter than run_timeout")
	}
	if c.Sweeper.AbandonAfter < c.Sweeper.StaleAfter {
		return errors.New("sweeper.abandon_after must not be shorter than stale_after")
	}
	return nil
}
