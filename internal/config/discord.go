package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/sethvargo/go-envconfig"
)

type DiscordConfig struct {
	Token         string `env:"DISCORD_TOKEN, required"`
	CommandPrefix string `env:"COMMAND_PREFIX, default=!"`
}

func newDiscordConfig(ctx context.Context, lookuper envconfig.Lookuper) (*DiscordConfig, error) {
	var cfg DiscordConfig
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, fmt.Errorf("DISCORD_TOKEN must not be blank")
	}
	if strings.ContainsAny(cfg.CommandPrefix, " \t\n") {
		return nil, fmt.Errorf("COMMAND_PREFIX must not contain whitespace")
	}

	return &cfg, nil
}
