package config

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sethvargo/go-envconfig"
)

type LogConfig struct {
	Level slog.Level `env:"LOG_LEVEL, default=info"`
}

// App is the complete bot configuration. It is built once at startup
// and passed by value; nothing mutates it afterwards.
type App struct {
	Discord   DiscordConfig
	Media     MediaConfig
	Liveness  LivenessConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

func NewAppConfigFromEnv() (App, error) {
	return NewAppConfig(context.Background(), envconfig.OsLookuper())
}

// NewAppConfig builds the configuration from any variable source.
func NewAppConfig(ctx context.Context, lookuper envconfig.Lookuper) (App, error) {
	discord, err := newDiscordConfig(ctx, lookuper)
	if err != nil {
		return App{}, fmt.Errorf("discord config: %w", err)
	}
	media, err := newMediaConfig(ctx, lookuper)
	if err != nil {
		return App{}, fmt.Errorf("media config: %w", err)
	}
	liveness, err := newLivenessConfig(ctx, lookuper)
	if err != nil {
		return App{}, fmt.Errorf("liveness config: %w", err)
	}
	rateLimit, err := newRateLimitConfig(ctx, lookuper)
	if err != nil {
		return App{}, fmt.Errorf("rate limit config: %w", err)
	}

	var logCfg LogConfig
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &logCfg,
		Lookuper: lookuper,
	}); err != nil {
		return App{}, fmt.Errorf("log config: %w", err)
	}

	return App{
		Discord:   *discord,
		Media:     *media,
		Liveness:  *liveness,
		RateLimit: *rateLimit,
		Log:       logCfg,
	}, nil
}
