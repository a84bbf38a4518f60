package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

// RateLimitConfig bounds how often a single user may invoke commands.
type RateLimitConfig struct {
	PerSecond float64 `env:"COMMAND_RATE_PER_SECOND, default=1"`
	Burst     int     `env:"COMMAND_RATE_BURST, default=3"`
}

func newRateLimitConfig(ctx context.Context, lookuper envconfig.Lookuper) (*RateLimitConfig, error) {
	var cfg RateLimitConfig
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, err
	}
	if cfg.PerSecond <= 0 || cfg.Burst < 1 {
		return nil, fmt.Errorf("command rate limit must allow at least one command, got %v/s burst %d", cfg.PerSecond, cfg.Burst)
	}

	return &cfg, nil
}
