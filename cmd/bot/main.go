package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/glizzus/jukebox/internal/audio"
	"github.com/glizzus/jukebox/internal/config"
	"github.com/glizzus/jukebox/internal/handler"
	"github.com/glizzus/jukebox/internal/liveness"
	"github.com/glizzus/jukebox/internal/media"
	"github.com/glizzus/jukebox/internal/player"
	"github.com/glizzus/jukebox/internal/voice"
)

const shutdownTimeout = time.Minute

func runBotForever() error {
	if err := config.LoadEnv(); err != nil {
		if os.IsNotExist(err) {
			slog.Warn("No .env file found, continuing without it")
		} else {
			return fmt.Errorf("failed to load .env file: %w", err)
		}
	}

	cfg, err := config.NewAppConfigFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	slog.SetLogLoggerLevel(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Media.InstallYTDLP {
		if err := media.InstallYTDLP(ctx); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(cfg.Media.DownloadDir, 0o755); err != nil {
		return fmt.Errorf("failed to create download dir: %w", err)
	}

	var ytdlpOpts []media.YTDLPOption
	if cfg.Media.Proxy != "" {
		ytdlpOpts = append(ytdlpOpts, media.WithProxy(cfg.Media.Proxy))
	}
	resolver := media.NewResolver(media.NewYTDLP(cfg.Media.DownloadDir, ytdlpOpts...))

	session, err := handler.NewSession(cfg.Discord.Token, handler.Handlers{
		Ready: handler.ReadyLog,
	})
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	gateway := voice.NewGateway(session)
	players := player.NewManager(gateway)
	dispatcher := handler.NewDispatcher(players, resolver, gateway, handler.DispatcherConfig{
		Prefix:         cfg.Discord.CommandPrefix,
		ResolveTimeout: cfg.Media.ResolveTimeout,
		SourceOptions: []audio.Option{
			audio.WithVolume(cfg.Media.Volume),
			audio.WithRetryInterval(cfg.Media.CleanupRetryInterval),
		},
		Limiter: handler.NewUserLimiter(cfg.RateLimit.PerSecond, cfg.RateLimit.Burst),
	})
	// The dispatcher depends on the session, so its handlers are added late.
	session.AddHandler(dispatcher.MessageCreate)
	session.AddHandler(dispatcher.VoiceStateUpdate)

	if err := session.Open(); err != nil {
		return fmt.Errorf("failed to open session: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			slog.Warn("failed to close session", "error", err)
		}
	}()

	livenessDone := make(chan error, 1)
	if cfg.Liveness.Enabled {
		go func() {
			livenessDone <- liveness.NewServer(cfg.Liveness.Addr).Run(ctx)
		}()
	} else {
		livenessDone <- nil
	}

	slog.Info("bot running", "prefix", cfg.Discord.CommandPrefix)
	select {
	case <-ctx.Done():
	case err := <-livenessDone:
		if err != nil {
			slog.Error("liveness endpoint stopped", "error", err)
		}
		livenessDone = nil
		<-ctx.Done()
	}
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if livenessDone != nil {
		if err := <-livenessDone; err != nil {
			slog.Warn("liveness endpoint stopped with error", "error", err)
		}
	}
	if err := players.Close(shutdownCtx); err != nil {
		return fmt.Errorf("failed to close players: %w", err)
	}
	return nil
}

func main() {
	if err := runBotForever(); err != nil {
		log.Fatalf("failed to run bot: %v", err)
	}
}
