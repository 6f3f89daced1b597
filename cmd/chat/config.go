package main

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// ClientConfig locates the node's UI API. Flags override it.
type ClientConfig struct {
	UIAddr     string `envconfig:"CRYPTOCHAT_UI_ADDR" default:"localhost:8080"`
	Token      string `envconfig:"CRYPTOCHAT_TOKEN"`
	Passphrase string `envconfig:"CRYPTOCHAT_PASSPHRASE"`
	LogLevel   string `envconfig:"LOG_LEVEL" default:"INFO"`
	// LogFile receives the logs of the terminal UI, which owns the screen. Empty discards them.
	LogFile string `envconfig:"CRYPTOCHAT_LOG_FILE"`
	Colours bool   `envconfig:"CRYPTOCHAT_COLOURS" default:"true"`
}

func LoadClientConfig() (ClientConfig, error) {
	_ = godotenv.Load()
	var cfg ClientConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return ClientConfig{}, fmt.Errorf("config error: %w", err)
	}
	return cfg, nil
}
