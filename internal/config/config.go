package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config carries everything main needs to wire the service.
type Config struct {
	Port string

	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	WebhookToken string

	TelegramToken   string
	TelegramTimeout time.Duration
	PrimaryChatID   int64
	DatabaseChatID  int64

	RecentWindow  int
	RetentionDays int
	SweepSchedule string
}

// Load reads configuration from the environment, with an optional
// .env file for local development.
func Load() (Config, error) {
	// .env is optional; deployments set real environment variables.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("TELEGRAM_TIMEOUT", "10s")
	v.SetDefault("RECENT_WINDOW", 100)
	v.SetDefault("RETENTION_DAYS", 30)
	v.SetDefault("SWEEP_SCHEDULE", "@every 1h")

	cfg := Config{
		Port:            v.GetString("PORT"),
		DatabaseURL:     v.GetString("DATABASE_URL"),
		RedisAddr:       v.GetString("REDIS_ADDR"),
		RedisPassword:   v.GetString("REDIS_PASSWORD"),
		RedisDB:         v.GetInt("REDIS_DB"),
		WebhookToken:    v.GetString("WEBHOOK_TOKEN"),
		TelegramToken:   v.GetString("TELEGRAM_BOT_TOKEN"),
		TelegramTimeout: v.GetDuration("TELEGRAM_TIMEOUT"),
		PrimaryChatID:   v.GetInt64("PRIMARY_CHAT_ID"),
		DatabaseChatID:  v.GetInt64("DATABASE_CHAT_ID"),
		RecentWindow:    v.GetInt("RECENT_WINDOW"),
		RetentionDays:   v.GetInt("RETENTION_DAYS"),
		SweepSchedule:   v.GetString("SWEEP_SCHEDULE"),
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.WebhookToken == "" {
		return Config{}, fmt.Errorf("WEBHOOK_TOKEN is required")
	}
	if cfg.TelegramToken == "" {
		return Config{}, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}
	if cfg.PrimaryChatID == 0 {
		return Config{}, fmt.Errorf("PRIMARY_CHAT_ID is required")
	}
	if cfg.DatabaseChatID == 0 {
		return Config{}, fmt.Errorf("DATABASE_CHAT_ID is required")
	}

	return cfg, nil
}
