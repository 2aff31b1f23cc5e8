// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
)

// Config is the optional YAML configuration file.
type Config struct {
	LogLevel string     `yaml:"log_level"`
	Metrics  bool       `yaml:"metrics"`
	Addr     string     `yaml:"addr"`
	Chat     ChatConfig `yaml:"chat"`
}

// ChatConfig configures the chat server.
type ChatConfig struct {
	// RateLimits maps a window (e.g. "1s") to the maximum number of messages
	// each client may send within it.
	RateLimits map[string]int `yaml:"rate_limits"`
}

// globalConfig is loaded by the root command, before any subcommand runs.
var globalConfig = &Config{}

func loadConfig(path string) (*Config, error) {
	cfg := &Config{}
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// rates converts the configured rate limits, for catrate.
func (c ChatConfig) rates() (map[time.Duration]int, error) {
	if len(c.RateLimits) == 0 {
		return nil, nil
	}
	rates := make(map[time.Duration]int, len(c.RateLimits))
	for k, v := range c.RateLimits {
		d, err := time.ParseDuration(k)
		if err != nil {
			return nil, fmt.Errorf("invalid rate limit window %q: %w", k, err)
		}
		if d <= 0 || v <= 0 {
			return nil, fmt.Errorf("invalid rate limit %q: %d", k, v)
		}
		rates[d] = v
	}
	return rates, nil
}
