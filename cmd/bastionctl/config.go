package main

import (
	"io"
	"log/slog"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// config holds settings read from the environment.
type config struct {
	PolicyFile string `envconfig:"BASTION_POLICY_FILE"`
	LogFormat  string `envconfig:"BASTION_LOG_FORMAT" default:"text"`
	LogLevel   string `envconfig:"BASTION_LOG_LEVEL" default:"info"`
}

func loadConfig() (*config, error) {
	var cfg config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func newLogger(cfg *config, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
