package player

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/glizzus/jukebox/internal/generator"
)

const DefaultCleanupTimeout = 30 * time.Second

// Player is the state machine of a single guild.
type Player struct {
	guildID        string
	gateway        Gateway
	ids            generator.Generator[string]
	cleanupTimeout time.Duration

	tasks    chan func()
	quit     chan struct{}
	quitOnce sync.Once
	done     chan struct{}
	lifetime context.Context
	stop     context.CancelFunc
	loading  chan struct{}

	// Owned by the loop goroutine.
	conn  Connection
	state State
}

type Option func(*Player)

func WithIDGenerator(ids generator.Generator[string]) Option {
	return func(p *Player) {
		p.ids = ids
	}
}

// WithCleanupTimeout bounds how long a busy backing file is retried.
func WithCleanupTimeout(d time.Duration) Option {
	return func(p *Player) {
		p.cleanupTimeout = d
	}
}

// New starts the loop of a guild player. Close stops it.
func New(guildID string, gateway Gateway, opts ...Option) *Player {
	lifetime, stop := context.WithCancel(context.Background())
	p := &Player{
		guildID:        guildID,
		gateway:        gateway,
		ids:            &generator.UUIDV4Generator{},
		cleanupTimeout: DefaultCleanupTimeout,
		tasks:          make(chan func()),
		quit:           make(chan struct{}),
		done:           make(chan struct{}),
		lifetime:       lifetime,
		stop:           stop,
		loading:        make(chan struct{}, 1),
		state:          Disconnected{},
	}
	for _, opt := range opts {
		opt(p)
	}

	go p.run()
	return p
}

func (p *Player) run() {
	defer close(p.done)
	for {
		select {
		case task := <-p.tasks:
			task()
		case <-p.quit:
			return
		}
	}
}

// do runs fn on the loop and waits for its result.
func (p *Player) do(ctx context.Context, fn func() error) error {
	result := make(chan error, 1)
	task := func() { result <- fn() }

	select {
	case p.tasks <- task:
	case <-p.quit:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	return <-result
}

// post queues fn on the loop without waiting. Events posted after Close are dropped.
func (p *Player) post(fn func()) {
	select {
	case p.tasks <- fn:
	case <-p.quit:
	}
}

func (p *Player) GuildID() string {
	return p.guildID
}

// State returns a snapshot of the current state.
func (p *Player) State(ctx context.Context) (State, error) {
	var st State
	err := p.do(ctx, func() error {
		st = p.state
		return nil
	})
	return st, err
}

// Join connects to channelID. It fails with ErrAlreadyConnected when the
// guild already has a voice connection.
func (p *Player) Join(ctx context.Context, channelID string) error {
	return p.do(ctx, func() error {
		if _, ok := p.state.(Disconnected); !ok {
			return ErrAlreadyConnected
		}
		return p.connect(ctx, channelID)
	})
}

// EnsureConnected connects to channelID unless a connection already exists.
// It reports whether a new connection was made. An empty channelID can only
// succeed when already connected.
func (p *Player) EnsureConnected(ctx context.Context, channelID string) (bool, error) {
	var joined bool
	err := p.do(ctx, func() error {
		if _, ok := p.state.(Disconnected); !ok {
			return nil
		}
		if channelID == "" {
			return ErrNotConnected
		}
		if err := p.connect(ctx, channelID); err != nil {
			return err
		}
		joined = true
		return nil
	})
	return joined, err
}

// Leave ends any playback and disconnects.
func (p *Player) Leave(ctx context.Context) error {
	return p.do(ctx, func() error {
		if _, ok := p.state.(Disconnected); ok {
			return ErrNotConnected
		}
		return p.disconnect()
	})
}

// Detach handles the bot being removed from channelID by someone else.
// It does nothing unless the player is connected to that channel.
func (p *Player) Detach(ctx context.Context, channelID string) error {
	return p.do(ctx, func() error {
		if current(p.state) != channelID || channelID == "" {
			return nil
		}
		slog.Info("voice connection lost", "guildID", p.guildID, "channelID", channelID)
		return p.disconnect()
	})
}

// current returns the voice channel of st, or "" when disconnected.
func current(st State) string {
	switch st := st.(type) {
	case Idle:
		return st.ChannelID
	case Playing:
		return st.ChannelID
	}
	return ""
}

// Play starts src, ending whatever was playing before. Play owns src from
// the moment it is called: when it returns an error the backing file has
// already been cleaned up.
func (p *Player) Play(ctx context.Context, src Playable) (*Handle, error) {
	var handle *Handle
	accepted := false
	err := p.do(ctx, func() error {
		accepted = true
		h, err := p.start(src)
		if err != nil {
			p.cleanup(src)
			return err
		}
		handle = h
		return nil
	})
	if !accepted {
		p.cleanup(src)
	}
	return handle, err
}

// Stop ends the current playback and deletes its backing file before returning.
func (p *Player) Stop(ctx context.Context) (*Handle, error) {
	var handle *Handle
	err := p.do(ctx, func() error {
		st, ok := p.state.(Playing)
		if !ok {
			return ErrNotPlaying
		}
		handle = st.Handle
		p.end(st)
		return nil
	})
	return handle, err
}

// Reserve claims the right to resolve the next track of this guild, so that
// only one new backing file is being produced at a time. It fails with
// ErrLoading while another reservation is held. The returned func releases it.
func (p *Player) Reserve() (release func(), err error) {
	select {
	case p.loading <- struct{}{}:
	default:
		return nil, ErrLoading
	}
	var once sync.Once
	return func() {
		once.Do(func() { <-p.loading })
	}, nil
}

// Close disconnects, cleans up and stops the loop. Further calls return ErrClosed.
func (p *Player) Close(ctx context.Context) error {
	err := p.do(ctx, func() error {
		if _, ok := p.state.(Disconnected); ok {
			return nil
		}
		return p.disconnect()
	})
	if errors.Is(err, ErrClosed) {
		return nil
	}

	p.quitOnce.Do(func() { close(p.quit) })
	<-p.done
	p.stop()
	return err
}

func (p *Player) connect(ctx context.Context, channelID string) error {
	conn, err := p.gateway.Join(ctx, p.guildID, channelID)
	if err != nil {
		return err
	}
	p.conn = conn
	p.state = Idle{ChannelID: channelID}
	return nil
}

func (p *Player) disconnect() error {
	if st, ok := p.state.(Playing); ok {
		p.end(st)
	}
	conn := p.conn
	p.conn = nil
	p.state = Disconnected{}
	if conn == nil {
		return nil
	}
	return conn.Disconnect()
}

func (p *Player) start(src Playable) (*Handle, error) {
	var channelID string
	switch st := p.state.(type) {
	case Disconnected:
		return nil, ErrNotConnected
	case Idle:
		channelID = st.ChannelID
	case Playing:
		slog.Info("superseding current track", "guildID", p.guildID, "title", st.Handle.Title())
		p.end(st)
		channelID = st.ChannelID
	}

	id, err := p.ids.Next()
	if err != nil {
		return nil, fmt.Errorf("failed to generate playback ID: %w", err)
	}

	ctx, cancel := context.WithCancel(p.lifetime)
	stream, err := src.Open(ctx)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open %q: %w", src.Title(), err)
	}

	h := &Handle{
		ID:       id,
		Source:   src,
		cancel:   cancel,
		released: make(chan struct{}),
	}
	p.state = Playing{ChannelID: channelID, Handle: h}

	conn := p.conn
	go func() {
		err := conn.Play(ctx, stream)
		if cerr := stream.Close(); cerr != nil {
			slog.Debug("failed to close stream", "playbackID", h.ID, "error", cerr)
		}
		close(h.released)
		p.post(func() { p.finished(h, err) })
	}()

	slog.Info("playback started", "guildID", p.guildID, "playbackID", h.ID, "title", src.Title())
	return h, nil
}

// end claims a playback, stops it and deletes its file once the stream has let go.
func (p *Player) end(st Playing) {
	p.state = Idle{ChannelID: st.ChannelID}
	st.Handle.cancel()
	<-st.Handle.released
	p.cleanup(st.Handle.Source)
	slog.Info("playback stopped", "guildID", p.guildID, "playbackID", st.Handle.ID)
}

// finished handles the completion event of a playback. It is a no-op if the
// playback was already ended by a command.
func (p *Player) finished(h *Handle, err error) {
	st, ok := p.state.(Playing)
	if !ok || st.Handle != h {
		return
	}
	p.state = Idle{ChannelID: st.ChannelID}
	h.cancel()
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("playback failed", "guildID", p.guildID, "playbackID", h.ID, "error", err)
	} else {
		slog.Info("playback finished", "guildID", p.guildID, "playbackID", h.ID)
	}
	p.cleanup(h.Source)
}

func (p *Player) cleanup(src Playable) {
	ctx, cancel := context.WithTimeout(context.Background(), p.cleanupTimeout)
	defer cancel()
	if err := src.Cleanup(ctx); err != nil {
		slog.Warn("backing file left behind", "guildID", p.guildID, "title", src.Title(), "error", err)
	}
}
