package player_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glizzus/jukebox/internal/audio"
	"github.com/glizzus/jukebox/internal/media"
	"github.com/glizzus/jukebox/internal/opus"
	"github.com/glizzus/jukebox/internal/player"
)

type fakeConn struct {
	channelID   string
	ends        chan error
	plays       atomic.Int32
	disconnects atomic.Int32
}

func (c *fakeConn) Play(ctx context.Context, frames io.Reader) error {
	c.plays.Add(1)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-c.ends:
		return err
	}
}

func (c *fakeConn) Disconnect() error {
	c.disconnects.Add(1)
	return nil
}

type fakeGateway struct {
	mu      sync.Mutex
	joinErr error
	conns   []*fakeConn
}

func (g *fakeGateway) Join(ctx context.Context, guildID, channelID string) (player.Connection, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.joinErr != nil {
		return nil, g.joinErr
	}
	conn := &fakeConn{channelID: channelID, ends: make(chan error, 1)}
	g.conns = append(g.conns, conn)
	return conn, nil
}

func (g *fakeGateway) last() *fakeConn {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.conns[len(g.conns)-1]
}

func silentEncoder(ctx context.Context, r io.Reader, opts opus.EncodeOptions) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(nil)), nil
}

// removals counts successful deletions across every source of a test.
type removals struct {
	n atomic.Int32
}

func (r *removals) remove(path string) error {
	if err := os.Remove(path); err != nil {
		return err
	}
	r.n.Add(1)
	return nil
}

func newSource(t *testing.T, dir, title string, rm *removals) *audio.Source {
	t.Helper()
	path := filepath.Join(dir, title+".mp3")
	if err := os.WriteFile(path, []byte(title), 0o644); err != nil {
		t.Fatalf("failed to write backing file: %v", err)
	}
	opts := []audio.Option{
		audio.WithEncoder(silentEncoder),
		audio.WithRetryInterval(time.Millisecond),
	}
	if rm != nil {
		opts = append(opts, audio.WithRemover(rm.remove))
	}
	return audio.NewSource(media.Track{Title: title, Path: path}, opts...)
}

func liveFiles(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to read dir: %v", err)
	}
	return len(entries)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, os.ErrNotExist)
}

func waitForState(t *testing.T, p *player.Player, match func(player.State) bool) player.State {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		st, err := p.State(t.Context())
		if err != nil {
			t.Fatalf("State() returned error: %v", err)
		}
		if match(st) {
			return st
		}
		if time.Now().After(deadline) {
			t.Fatalf("state never matched, last state: %#v", st)
		}
		time.Sleep(time.Millisecond)
	}
}

func isIdle(st player.State) bool {
	_, ok := st.(player.Idle)
	return ok
}

func newPlayer(t *testing.T, gateway player.Gateway) *player.Player {
	t.Helper()
	p := player.New("guild-1", gateway)
	t.Cleanup(func() {
		if err := p.Close(context.Background()); err != nil {
			t.Errorf("Close() returned error: %v", err)
		}
	})
	return p
}
