package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName              string
	AppEnv               string
	AppPort              string
	DatabaseURL          string
	RedisURL             string
	JWTSecret            string
	JudgeBaseURL         string
	JudgeTimeout         time.Duration
	IntegrityBaseURL     string
	IntegrityWebhookURL  string
	ProctorBaseURL       string
	NATSURL              string
	NotifySubject        string
	ContestCacheTTL      time.Duration
	IntegrityPollCount   int
	IntegrityPollBackoff time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("ARENA")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Arena API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("judge.timeout", "30s")
	v.SetDefault("contest.cache_ttl", "5m")
	v.SetDefault("integrity.poll_count", 5)
	v.SetDefault("integrity.poll_backoff", "1s")
	v.SetDefault("notify.subject", "arena.events")

	judgeTimeout, err := time.ParseDuration(v.GetString("judge.timeout"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid judge timeout: %w", err)
	}

	cacheTTL, err := time.ParseDuration(v.GetString("contest.cache_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid contest cache ttl: %w", err)
	}

	pollBackoff, err := time.ParseDuration(v.GetString("integrity.poll_backoff"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid integrity poll backoff: %w", err)
	}

	cfg := Config{
		AppName:              v.GetString("app.name"),
		AppEnv:               v.GetString("app.env"),
		AppPort:              v.GetString("app.port"),
		DatabaseURL:          v.GetString("database.url"),
		RedisURL:             v.GetString("redis.url"),
		JWTSecret:            v.GetString("jwt.secret"),
		JudgeBaseURL:         v.GetString("judge.base_url"),
		JudgeTimeout:         judgeTimeout,
		IntegrityBaseURL:     v.GetString("integrity.base_url"),
		IntegrityWebhookURL:  v.GetString("integrity.webhook_url"),
		ProctorBaseURL:       v.GetString("proctor.base_url"),
		NATSURL:              v.GetString("nats.url"),
		NotifySubject:        v.GetString("notify.subject"),
		ContestCacheTTL:      cacheTTL,
		IntegrityPollCount:   v.GetInt("integrity.poll_count"),
		IntegrityPollBackoff: pollBackoff,
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.JudgeBaseURL == "" {
		return Config{}, fmt.Errorf("judge base url must be provided")
	}

	return cfg, nil
}
