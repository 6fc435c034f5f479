package config

import (
	"fmt"
	"os"
	"strings"
)

type Config struct {
	DBFile     string
	APIURL     string
	ChannelURL string
	LogLevel   string
}

func Load() (*Config, error) {
	cfg := &Config{
		DBFile:     getEnv("WEBCOM_DB", "webcom.db"),
		APIURL:     getEnv("API_URL", "http://localhost:8080"),
		ChannelURL: getEnv("CHANNEL_URL", "ws://localhost:8080/hangouts"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if !strings.HasPrefix(c.APIURL, "http://") && !strings.HasPrefix(c.APIURL, "https://") {
		return fmt.Errorf("API_URL must be an http(s) URL")
	}
	if !strings.HasPrefix(c.ChannelURL, "ws://") && !strings.HasPrefix(c.ChannelURL, "wss://") {
		return fmt.Errorf("CHANNEL_URL must be a ws(s) URL")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
