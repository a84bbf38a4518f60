package e2e_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/glizzus/jukebox/internal/audio"
	"github.com/glizzus/jukebox/internal/handler"
	"github.com/glizzus/jukebox/internal/media"
	"github.com/glizzus/jukebox/internal/opus"
	"github.com/glizzus/jukebox/internal/player"
)

const (
	guildID   = "guild-1"
	channelID = "text-1"
	voiceID   = "voice-1"
	botID     = "bot"
)

type mockSession struct {
	mu      sync.Mutex
	sent    []*discordgo.MessageSend
	typings int
}

func (m *mockSession) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, data)
	return &discordgo.Message{ChannelID: channelID, Content: data.Content}, nil
}

func (m *mockSession) ChannelTyping(channelID string, options ...discordgo.RequestOption) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.typings++
	return nil
}

var _ handler.DiscordSession = (*mockSession)(nil)

func (m *mockSession) messages() []*discordgo.MessageSend {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*discordgo.MessageSend(nil), m.sent...)
}

func (m *mockSession) typingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.typings
}

type fakeLocator struct {
	mu       sync.Mutex
	channels map[string]string
}

func (l *fakeLocator) UserVoiceChannel(guildID, userID string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.channels[userID], nil
}

func (l *fakeLocator) set(userID, channelID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.channels[userID] = channelID
}

// fakeConn plays until the playback is cancelled or finish is called.
type fakeConn struct {
	channelID string
	done      chan struct{}
	once      sync.Once
}

func (c *fakeConn) Play(ctx context.Context, frames io.Reader) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return nil
	}
}

func (c *fakeConn) Disconnect() error {
	return nil
}

// finish ends the current and every later playback on c.
func (c *fakeConn) finish() {
	c.once.Do(func() { close(c.done) })
}

type fakeGateway struct {
	mu    sync.Mutex
	conns []*fakeConn
}

func (g *fakeGateway) Join(ctx context.Context, guildID, channelID string) (player.Connection, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	conn := &fakeConn{channelID: channelID, done: make(chan struct{})}
	g.conns = append(g.conns, conn)
	return conn, nil
}

func (g *fakeGateway) joins() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.conns)
}

func (g *fakeGateway) last() *fakeConn {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.conns[len(g.conns)-1]
}

// catalog is an extractor that knows a fixed set of URLs. Unknown URLs
// produce no data.
type catalog struct {
	dir    string
	titles map[string]string
}

func (c *catalog) Extract(ctx context.Context, url string) (*media.Info, error) {
	title, ok := c.titles[url]
	if !ok {
		return nil, nil
	}
	return &media.Info{Entries: []media.Entry{{
		Title:     title,
		SourceURL: url,
		StreamURL: url + "/stream",
		Filename:  c.filename(url),
	}}}, nil
}

func (c *catalog) Download(ctx context.Context, url string) error {
	return os.WriteFile(media.AudioPath(c.filename(url)), []byte(c.titles[url]), 0o644)
}

func (c *catalog) filename(url string) string {
	return filepath.Join(c.dir, c.titles[url]+" ["+filepath.Base(url)+"].webm")
}

func silentEncoder(ctx context.Context, r io.Reader, opts opus.EncodeOptions) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(nil)), nil
}

type harness struct {
	t          *testing.T
	dir        string
	session    *mockSession
	locator    *fakeLocator
	gateway    *fakeGateway
	players    *player.Manager
	dispatcher *handler.Dispatcher
	nextID     int
}

func newHarness(t *testing.T, limiter *handler.UserLimiter) *harness {
	t.Helper()
	dir := t.TempDir()
	h := &harness{
		t:       t,
		dir:     dir,
		session: &mockSession{},
		locator: &fakeLocator{channels: make(map[string]string)},
		gateway: &fakeGateway{},
	}
	h.players = player.NewManager(h.gateway, player.WithCleanupTimeout(time.Second))
	t.Cleanup(func() {
		if err := h.players.Close(context.Background()); err != nil {
			t.Errorf("failed to close players: %v", err)
		}
	})

	resolver := media.NewResolver(&catalog{dir: dir, titles: map[string]string{
		"https://media.test/a": "Song A",
		"https://media.test/b": "Song B",
	}})
	h.dispatcher = handler.NewDispatcher(h.players, resolver, h.locator, handler.DispatcherConfig{
		Prefix:         "!",
		ResolveTimeout: 5 * time.Second,
		SourceOptions: []audio.Option{
			audio.WithEncoder(silentEncoder),
			audio.WithRetryInterval(time.Millisecond),
		},
		Limiter: limiter,
	})
	return h
}

// send delivers a chat message from userID and waits for the command to finish.
func (h *harness) send(userID, content string) *discordgo.Message {
	h.t.Helper()
	h.nextID++
	m := &discordgo.Message{
		ID:        "message-" + strconv.Itoa(h.nextID),
		ChannelID: channelID,
		GuildID:   guildID,
		Content:   content,
		Author:    &discordgo.User{ID: userID},
	}
	h.dispatcher.Handle(h.t.Context(), h.session, m)
	return m
}

func (h *harness) state() player.State {
	h.t.Helper()
	p, err := h.players.Get(guildID)
	if err != nil {
		h.t.Fatalf("failed to get player: %v", err)
	}
	st, err := p.State(h.t.Context())
	if err != nil {
		h.t.Fatalf("failed to get state: %v", err)
	}
	return st
}

func (h *harness) waitForState(match func(player.State) bool) player.State {
	h.t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		st := h.state()
		if match(st) {
			return st
		}
		if time.Now().After(deadline) {
			h.t.Fatalf("state never matched, last state: %#v", st)
		}
		time.Sleep(time.Millisecond)
	}
}

// files lists the backing files currently on disk.
func (h *harness) files() []string {
	h.t.Helper()
	entries, err := os.ReadDir(h.dir)
	if err != nil {
		h.t.Fatalf("failed to read download dir: %v", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}
