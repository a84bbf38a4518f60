package handler

import (
	"sync"

	"golang.org/x/time/rate"
)

// maxTrackedUsers bounds the limiter map; beyond it, users whose bucket has
// refilled are forgotten.
const maxTrackedUsers = 4096

// UserLimiter is a token bucket per user.
type UserLimiter struct {
	limit rate.Limit
	burst int

	mu    sync.Mutex
	users map[string]*rate.Limiter
}

func NewUserLimiter(perSecond float64, burst int) *UserLimiter {
	return &UserLimiter{
		limit: rate.Limit(perSecond),
		burst: burst,
		users: make(map[string]*rate.Limiter),
	}
}

// Allow reports whether userID may run a command now.
func (l *UserLimiter) Allow(userID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.users[userID]
	if !ok {
		if len(l.users) >= maxTrackedUsers {
			l.prune()
		}
		lim = rate.NewLimiter(l.limit, l.burst)
		l.users[userID] = lim
	}
	return lim.Allow()
}

func (l *UserLimiter) prune() {
	for id, lim := range l.users {
		if lim.Tokens() >= float64(l.burst) {
			delete(l.users, id)
		}
	}
}
