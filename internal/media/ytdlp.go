package media

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/lrstanley/go-ytdlp"
)

const (
	// Format prefers an audio-only stream in a container ffmpeg handles cheaply.
	Format = "bestaudio[ext=mp4]/bestaudio[ext=webm]/bestaudio"
	// OutputTemplate is the extractor's file naming convention.
	OutputTemplate = "%(title)s [%(id)s].%(ext)s"
	AudioCodec     = "mp3"
	AudioQuality   = "192K"

	printTemplate = "%(webpage_url)s\t%(url)s\t%(filename)s\t%(playlist_id)s\t%(title)s"
)

// YTDLP extracts and downloads media with the yt-dlp binary.
type YTDLP struct {
	dir   string
	proxy string
}

type YTDLPOption func(*YTDLP)

// WithProxy routes every yt-dlp request through proxy.
func WithProxy(proxy string) YTDLPOption {
	return func(y *YTDLP) {
		y.proxy = proxy
	}
}

// NewYTDLP returns an extractor writing backing files into dir.
func NewYTDLP(dir string, opts ...YTDLPOption) *YTDLP {
	y := &YTDLP{dir: dir}
	for _, opt := range opts {
		opt(y)
	}
	return y
}

// InstallYTDLP makes sure a yt-dlp binary is available, downloading one if needed.
func InstallYTDLP(ctx context.Context) error {
	if _, err := ytdlp.Install(ctx, nil); err != nil {
		return fmt.Errorf("failed to install yt-dlp: %w", err)
	}
	return nil
}

func (y *YTDLP) command() *ytdlp.Command {
	cmd := ytdlp.New().
		Format(Format).
		Output(filepath.Join(y.dir, OutputTemplate)).
		NoWarnings().
		IgnoreConfig()
	if y.proxy != "" {
		cmd.Proxy(y.proxy)
	}
	return cmd
}

func (y *YTDLP) Extract(ctx context.Context, url string) (*Info, error) {
	res, err := y.command().
		Print(printTemplate).
		NoPlaylist().
		PlaylistItems("1").
		NoCheckFormats().
		Run(ctx, "--skip-download", url)
	if err != nil {
		if res != nil && res.Stderr != "" {
			return nil, fmt.Errorf("yt-dlp metadata: %w: %s", err, strings.TrimSpace(res.Stderr))
		}
		return nil, fmt.Errorf("yt-dlp metadata: %w", err)
	}
	return ParsePrinted(res.Stdout), nil
}

func (y *YTDLP) Download(ctx context.Context, url string) error {
	res, err := y.command().
		NoPlaylist().
		ExtractAudio().
		AudioFormat(AudioCodec).
		AudioQuality(AudioQuality).
		NoKeepVideo().
		NoProgress().
		Quiet().
		Run(ctx, url)
	if err != nil {
		if res != nil && res.Stderr != "" {
			return fmt.Errorf("yt-dlp download: %w: %s", err, strings.TrimSpace(res.Stderr))
		}
		return fmt.Errorf("yt-dlp download: %w", err)
	}
	return nil
}

// ParsePrinted parses yt-dlp output produced with printTemplate.
// Blank output yields nil.
func ParsePrinted(stdout string) *Info {
	var info Info
	for _, line := range strings.Split(strings.TrimSpace(stdout), "\n") {
		parts := strings.SplitN(strings.TrimRight(line, "\r"), "\t", 5)
		if len(parts) < 5 {
			continue
		}
		if notAvailable(parts[3]) != "" {
			info.Playlist = true
		}
		info.Entries = append(info.Entries, Entry{
			SourceURL: notAvailable(parts[0]),
			StreamURL: notAvailable(parts[1]),
			Filename:  notAvailable(parts[2]),
			Title:     notAvailable(parts[4]),
		})
	}
	if len(info.Entries) == 0 {
		return nil
	}
	if len(info.Entries) > 1 {
		info.Playlist = true
	}
	return &info
}

// notAvailable maps yt-dlp's placeholder for missing fields to "".
func notAvailable(s string) string {
	s = strings.TrimSpace(s)
	if s == "NA" {
		return ""
	}
	return s
}

var _ Extractor = (*YTDLP)(nil)
