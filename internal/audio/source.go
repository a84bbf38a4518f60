package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/glizzus/jukebox/internal/media"
	"github.com/glizzus/jukebox/internal/opus"
)

const (
	DefaultVolume        = 0.5
	DefaultRetryInterval = time.Second
)

// ErrFileBusy marks a deletion that failed because another handle still has
// the file open. Platform errors with the same meaning are recognised too.
var ErrFileBusy = errors.New("file is busy")

// FileDeletionError reports a backing file that could not be deleted.
type FileDeletionError struct {
	Path string
	Err  error
}

func (e *FileDeletionError) Error() string {
	return fmt.Sprintf("failed to delete %s: %v", e.Path, e.Err)
}

func (e *FileDeletionError) Unwrap() error {
	return e.Err
}

var _ error = (*FileDeletionError)(nil)

// Encoder turns the raw backing file into a length-prefixed Opus frame stream.
type Encoder func(ctx context.Context, r io.Reader, opts opus.EncodeOptions) (io.ReadCloser, error)

// Source is a resolved track that can be played and then deleted.
type Source struct {
	Track media.Track

	volume        float64
	retryInterval time.Duration
	encode        Encoder
	remove        func(string) error

	mu      sync.Mutex
	deleted bool
}

type Option func(*Source)

// WithVolume sets the multiplier applied to decoded samples.
func WithVolume(volume float64) Option {
	return func(s *Source) {
		s.volume = volume
	}
}

// WithRetryInterval sets the wait between deletion attempts of a busy file.
func WithRetryInterval(d time.Duration) Option {
	return func(s *Source) {
		s.retryInterval = d
	}
}

func WithEncoder(encode Encoder) Option {
	return func(s *Source) {
		s.encode = encode
	}
}

// WithRemover replaces os.Remove.
func WithRemover(remove func(string) error) Option {
	return func(s *Source) {
		s.remove = remove
	}
}

func NewSource(track media.Track, opts ...Option) *Source {
	s := &Source{
		Track:         track,
		volume:        DefaultVolume,
		retryInterval: DefaultRetryInterval,
		encode:        opus.Encode,
		remove:        os.Remove,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Source) Title() string {
	return s.Track.Title
}

func (s *Source) Volume() float64 {
	return s.volume
}

// Open starts decoding the backing file. Closing the returned stream
// releases the file handle and stops the transcoder.
func (s *Source) Open(ctx context.Context) (io.ReadCloser, error) {
	f, err := os.Open(s.Track.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open backing file: %w", err)
	}

	opts := opus.DefaultEncodeOptions
	opts.Volume = s.volume
	frames, err := s.encode(ctx, f, opts)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to start transcoder: %w", err)
	}

	return &fileStream{ReadCloser: frames, file: f}, nil
}

// Cleanup deletes the backing file. A busy file is retried every retry
// interval until it is released or ctx ends. Other failures are logged and
// returned; a later call tries again. Once the file is gone every further
// call returns nil without touching the filesystem.
func (s *Source) Cleanup(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.deleted || s.Track.Path == "" {
		return nil
	}

	for {
		err := s.remove(s.Track.Path)
		switch {
		case err == nil:
			s.deleted = true
			slog.Info("deleted backing file", "path", s.Track.Path)
			return nil
		case errors.Is(err, fs.ErrNotExist):
			s.deleted = true
			return nil
		case isBusy(err):
			slog.Debug("backing file busy, retrying", "path", s.Track.Path, "retryIn", s.retryInterval)
			select {
			case <-time.After(s.retryInterval):
			case <-ctx.Done():
				return &FileDeletionError{Path: s.Track.Path, Err: errors.Join(err, ctx.Err())}
			}
		default:
			slog.Error("failed to delete backing file", "path", s.Track.Path, "error", err)
			return &FileDeletionError{Path: s.Track.Path, Err: err}
		}
	}
}

func isBusy(err error) bool {
	return errors.Is(err, ErrFileBusy) || platformBusy(err)
}

type fileStream struct {
	io.ReadCloser
	file *os.File
}

func (f *fileStream) Close() error {
	return errors.Join(f.ReadCloser.Close(), f.file.Close())
}
