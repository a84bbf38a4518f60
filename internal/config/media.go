package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type MediaConfig struct {
	DownloadDir          string        `env:"MEDIA_DOWNLOAD_DIR, default=."`
	Volume               float64       `env:"MEDIA_VOLUME, default=0.5"`
	Proxy                string        `env:"MEDIA_PROXY"`
	ResolveTimeout       time.Duration `env:"MEDIA_RESOLVE_TIMEOUT, default=5m"`
	CleanupRetryInterval time.Duration `env:"MEDIA_CLEANUP_RETRY_INTERVAL, default=1s"`
	InstallYTDLP         bool          `env:"MEDIA_INSTALL_YTDLP, default=false"`
}

func NewMediaConfigFromEnv() (*MediaConfig, error) {
	return newMediaConfig(context.Background(), envconfig.OsLookuper())
}

func newMediaConfig(ctx context.Context, lookuper envconfig.Lookuper) (*MediaConfig, error) {
	var cfg MediaConfig
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, err
	}
	if cfg.Volume < 0 || cfg.Volume > 2 {
		return nil, fmt.Errorf("MEDIA_VOLUME must be within [0, 2], got %v", cfg.Volume)
	}
	if cfg.ResolveTimeout <= 0 {
		return nil, fmt.Errorf("MEDIA_RESOLVE_TIMEOUT must be positive")
	}
	if cfg.CleanupRetryInterval <= 0 {
		return nil, fmt.Errorf("MEDIA_CLEANUP_RETRY_INTERVAL must be positive")
	}

	return &cfg, nil
}
