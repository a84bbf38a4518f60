package player

import (
	"context"
	"errors"
	"io"
)

var (
	ErrNotConnected     = errors.New("not connected to a voice channel")
	ErrAlreadyConnected = errors.New("already connected to a voice channel")
	ErrNotPlaying       = errors.New("nothing is playing")
	ErrLoading          = errors.New("another track is being loaded")
	ErrClosed           = errors.New("player is closed")
)

// Playable is a resolved track backed by a local file.
type Playable interface {
	Title() string
	// Open starts decoding into length-prefixed Opus frames.
	Open(ctx context.Context) (io.ReadCloser, error)
	// Cleanup deletes the backing file; it is safe to call repeatedly.
	Cleanup(ctx context.Context) error
}

// Gateway is the part of the chat gateway that establishes voice connections.
type Gateway interface {
	Join(ctx context.Context, guildID, channelID string) (Connection, error)
}

// Connection is a live voice connection in one guild.
type Connection interface {
	// Play sends frames until they run out or ctx ends.
	Play(ctx context.Context, frames io.Reader) error
	Disconnect() error
}

// State is one of Disconnected, Idle or Playing.
type State interface {
	isState()
}

type Disconnected struct{}

type Idle struct {
	ChannelID string
}

type Playing struct {
	ChannelID string
	Handle    *Handle
}

func (Disconnected) isState() {}
func (Idle) isState()         {}
func (Playing) isState()      {}

// Handle identifies one playback of one source.
type Handle struct {
	ID     string
	Source Playable

	cancel   context.CancelFunc
	released chan struct{}
}

// Title of the source being played.
func (h *Handle) Title() string {
	return h.Source.Title()
}
