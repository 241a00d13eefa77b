package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port          string `yaml:"port"`
	Env           string `yaml:"env"`
	LogLevel      string `yaml:"log_level"`
	MongoURI      string `yaml:"mongo_uri"`
	MongoDB       string `yaml:"mongo_database"`
	DefaultLocale string `yaml:"default_locale"`
	// NotifyRetrySchedule is a cron expression for the notification
	// retry sweep.
	NotifyRetrySchedule string `yaml:"notify_retry_schedule"`
}

// Load builds the config from defaults, then an optional YAML file, then
// environment variables. Env wins.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Port:                "3000",
		Env:                 "development",
		LogLevel:            "info",
		MongoURI:            "mongodb://localhost:27017",
		MongoDB:             "kolekta",
		DefaultLocale:       "en",
		NotifyRetrySchedule: "@every 1m",
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.Env = getEnv("ENV", cfg.Env)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.MongoURI = getEnv("MONGODB_URI", cfg.MongoURI)
	cfg.MongoDB = getEnv("MONGODB_DATABASE", cfg.MongoDB)
	cfg.DefaultLocale = getEnv("DEFAULT_LOCALE", cfg.DefaultLocale)
	cfg.NotifyRetrySchedule = getEnv("NOTIFY_RETRY_SCHEDULE", cfg.NotifyRetrySchedule)

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
