package media

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Info is what an Extractor knows about a URL before downloading it.
type Info struct {
	Playlist bool
	// Entries holds the single item of a plain URL, or the playlist items in order.
	Entries []Entry
}

// Entry is a single media item reported by an Extractor.
type Entry struct {
	Title     string
	SourceURL string
	StreamURL string
	// Filename is the path the extractor would write the item to,
	// before audio extraction changes its extension.
	Filename string
}

// Extractor is the media extraction library seen by the resolver.
type Extractor interface {
	// Extract reads metadata for url without downloading anything.
	// A nil Info means the extractor produced no data.
	Extract(ctx context.Context, url string) (*Info, error)
	// Download fetches url and transcodes it into the audio container.
	Download(ctx context.Context, url string) error
}

// AudioContainer is the extension of every backing file.
const AudioContainer = ".mp3"

// Resolver turns URLs into tracks with a backing file on disk.
// Resolve blocks on the network and on transcoding; callers must not
// run it on a loop that serves other work.
type Resolver struct {
	extractor Extractor
}

func NewResolver(extractor Extractor) *Resolver {
	return &Resolver{extractor: extractor}
}

// Plan is a URL whose metadata has been read but whose file has not been
// downloaded yet. Nothing exists on disk for a Plan.
type Plan struct {
	URL   string
	Entry Entry
	// Path is where Fetch will leave the backing file.
	Path string
}

// Resolve inspects url and downloads it.
func (r *Resolver) Resolve(ctx context.Context, url string) (Track, error) {
	plan, err := r.Inspect(ctx, url)
	if err != nil {
		return Track{}, err
	}
	return r.Fetch(ctx, plan)
}

// Inspect reads the metadata of url and picks the entry to play: the item
// itself, or the first item of a playlist. It writes nothing to disk.
func (r *Resolver) Inspect(ctx context.Context, url string) (*Plan, error) {
	info, err := r.extractor.Extract(ctx, url)
	if err != nil {
		return nil, &ResolutionError{URL: url, Reason: "metadata extraction failed", Err: err}
	}
	if info == nil {
		return nil, &ResolutionError{URL: url, Reason: "no data returned"}
	}
	if len(info.Entries) == 0 {
		return nil, &ResolutionError{URL: url, Reason: "no entries found"}
	}

	entry := info.Entries[0]
	path := AudioPath(entry.Filename)
	if path == "" {
		return nil, &ResolutionError{URL: url, Reason: "no output filename"}
	}
	return &Plan{URL: url, Entry: entry, Path: path}, nil
}

// Fetch downloads and transcodes the entry of plan. A failed download
// leaves no file behind.
func (r *Resolver) Fetch(ctx context.Context, plan *Plan) (Track, error) {
	target := plan.Entry.SourceURL
	if target == "" {
		target = plan.URL
	}

	slog.Debug("downloading media", "url", target, "path", plan.Path)
	if err := r.extractor.Download(ctx, target); err != nil {
		removePartial(plan.Path)
		return Track{}, &ResolutionError{URL: plan.URL, Reason: "download failed", Err: err}
	}

	title := plan.Entry.Title
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(plan.Path), AudioContainer)
	}

	return Track{
		Title:     title,
		SourceURL: target,
		StreamURL: plan.Entry.StreamURL,
		Path:      plan.Path,
	}, nil
}

// AudioPath swaps the extension of an extractor filename for AudioContainer.
// It returns "" when there is no usable filename.
func AudioPath(filename string) string {
	filename = strings.TrimSpace(filename)
	if filename == "" || filename == "NA" {
		return ""
	}
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	if base == "" || strings.HasSuffix(base, string(filepath.Separator)) {
		return ""
	}
	return base + AudioContainer
}

func removePartial(path string) {
	for _, p := range []string{path, path + ".part"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("failed to remove partial download", "path", p, "error", err)
		}
	}
}
