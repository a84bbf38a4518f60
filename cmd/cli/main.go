package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/glizzus/jukebox/internal/audio"
	"github.com/glizzus/jukebox/internal/config"
	"github.com/glizzus/jukebox/internal/media"
)

var stdinReader = bufio.NewReader(os.Stdin)

var (
	labelColor = color.New(color.FgHiBlack)
	okColor    = color.New(color.FgHiGreen)
	warnColor  = color.New(color.FgHiYellow)
	errColor   = color.New(color.FgHiRed, color.Bold)
)

func prompt(label string) string {
	fmt.Printf("%s: ", label)
	input, _ := stdinReader.ReadString('\n')
	return strings.TrimSpace(input)
}

func field(label string, value any) {
	labelColor.Printf("%-12s", label)
	fmt.Println(value)
}

func resolve(c *cli.Context) error {
	url := c.String("url")
	if url == "" {
		url = prompt("Enter media URL")
	}
	if url == "" {
		return cli.Exit(errColor.Sprint("A URL is required"), 1)
	}

	cfg, err := config.NewMediaConfigFromEnv()
	if err != nil {
		return cli.Exit(errColor.Sprint("Invalid media configuration: "+err.Error()), 1)
	}
	if c.IsSet("dir") {
		cfg.DownloadDir = c.String("dir")
	}
	if c.IsSet("proxy") {
		cfg.Proxy = c.String("proxy")
	}
	if c.IsSet("timeout") {
		cfg.ResolveTimeout = c.Duration("timeout")
	}

	var opts []media.YTDLPOption
	if cfg.Proxy != "" {
		opts = append(opts, media.WithProxy(cfg.Proxy))
	}
	resolver := media.NewResolver(media.NewYTDLP(cfg.DownloadDir, opts...))

	ctx, cancel := context.WithTimeout(c.Context, cfg.ResolveTimeout)
	defer cancel()
	track, err := resolver.Resolve(ctx, url)
	if err != nil {
		return cli.Exit(errColor.Sprint("Failed to resolve: "+err.Error()), 1)
	}

	okColor.Println("Resolved")
	field("title", track.Title)
	field("source", track.SourceURL)
	field("stream", track.StreamURL)
	field("file", track.Path)

	if c.Bool("keep") {
		warnColor.Println("Keeping backing file")
		return nil
	}
	src := audio.NewSource(track, audio.WithRetryInterval(cfg.CleanupRetryInterval))
	if err := src.Cleanup(c.Context); err != nil {
		return cli.Exit(errColor.Sprint("Failed to delete backing file: "+err.Error()), 1)
	}
	okColor.Println("Deleted backing file")
	return nil
}

func showConfig(c *cli.Context) error {
	cfg, err := config.NewAppConfigFromEnv()
	if err != nil {
		return cli.Exit(errColor.Sprint("Invalid configuration: "+err.Error()), 1)
	}

	field("prefix", cfg.Discord.CommandPrefix)
	field("dir", cfg.Media.DownloadDir)
	field("volume", cfg.Media.Volume)
	field("proxy", cfg.Media.Proxy)
	field("timeout", cfg.Media.ResolveTimeout)
	field("retry", cfg.Media.CleanupRetryInterval)
	field("liveness", fmt.Sprintf("%t (%s)", cfg.Liveness.Enabled, cfg.Liveness.Addr))
	field("rate", fmt.Sprintf("%v/s burst %d", cfg.RateLimit.PerSecond, cfg.RateLimit.Burst))
	field("log level", cfg.Log.Level)
	return nil
}

func main() {
	if err := config.LoadEnv(); err != nil && !os.IsNotExist(err) {
		log.Fatalf("Failed to load .env file: %v", err)
	}

	app := &cli.App{
		Name:        "jukebox-cli",
		Description: "A development CLI tool for testing jukebox without Discord",
		Commands: []*cli.Command{
			{
				Name:   "resolve",
				Usage:  "Resolve and download a URL the way the play command does",
				Action: resolve,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "url",
						Usage: "URL to resolve; prompted for when missing",
					},
					&cli.StringFlag{
						Name:  "dir",
						Usage: "Directory to download into (default MEDIA_DOWNLOAD_DIR)",
					},
					&cli.StringFlag{
						Name:  "proxy",
						Usage: "Proxy for yt-dlp requests (default MEDIA_PROXY)",
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "Upper bound for extraction and download (default MEDIA_RESOLVE_TIMEOUT)",
					},
					&cli.BoolFlag{
						Name:  "keep",
						Usage: "Keep the downloaded file instead of deleting it",
					},
				},
			},
			{
				Name:   "config",
				Usage:  "Print the configuration the bot would start with",
				Action: showConfig,
			},
			{
				Name:  "install-ytdlp",
				Usage: "Download a yt-dlp binary if none is available",
				Action: func(c *cli.Context) error {
					if err := media.InstallYTDLP(c.Context); err != nil {
						return cli.Exit(errColor.Sprint(err.Error()), 1)
					}
					okColor.Println("yt-dlp is available")
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("Error running CLI: %v", err)
	}
}
