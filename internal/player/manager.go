package player

import (
	"context"
	"errors"
	"sync"
)

// Manager hands out the Player of each guild, creating it on first use.
type Manager struct {
	gateway Gateway
	opts    []Option

	mu      sync.Mutex
	players map[string]*Player
	closed  bool
}

func NewManager(gateway Gateway, opts ...Option) *Manager {
	return &Manager{
		gateway: gateway,
		opts:    opts,
		players: make(map[string]*Player),
	}
}

// Get returns the Player of guildID. After Close it returns ErrClosed.
func (m *Manager) Get(guildID string) (*Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}
	p, ok := m.players[guildID]
	if !ok {
		p = New(guildID, m.gateway, m.opts...)
		m.players[guildID] = p
	}
	return p, nil
}

// Close disconnects every guild and deletes every backing file.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	m.closed = true
	players := make([]*Player, 0, len(m.players))
	for _, p := range m.players {
		players = append(players, p)
	}
	m.players = make(map[string]*Player)
	m.mu.Unlock()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, p := range players {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := p.Close(ctx); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return errors.Join(errs...)
}
