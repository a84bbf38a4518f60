package config

import (
	"context"

	"github.com/sethvargo/go-envconfig"
)

type LivenessConfig struct {
	Enabled bool   `env:"LIVENESS_ENABLED, default=true"`
	Addr    string `env:"LIVENESS_ADDR, default=0.0.0.0:8080"`
}

func newLivenessConfig(ctx context.Context, lookuper envconfig.Lookuper) (*LivenessConfig, error) {
	var cfg LivenessConfig
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, err
	}

	return &cfg, nil
}
