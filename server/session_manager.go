package server

import (
	"context"
	"errors"
	"sync"

	"github.com/prairieworks/gomodbus/common"
)

// DefaultMaxSessions is the admission ceiling a new server starts with.
const DefaultMaxSessions = 4

// ErrTooManySessions is returned by admit when the session count already
// exceeds the configured maximum (see sessionManager for the off-by-one).
var ErrTooManySessions = errors.New("modbus: exceeded max sessions")

// sessionManager tracks every active per-connection session and enforces
// an admission ceiling.
//
// admit's bound check is `len(sessions) > max`, not `>= max`, which lets
// exactly one session beyond max onto the table before the NEXT admission
// is refused -- the reference implementation's tcp_session_manager checks
// its size against max_sessions_ the same way, after insertion already
// happened for every session admitted so far. Preserved bug-for-bug rather
// than tightened to `>=`.
type sessionManager struct {
	mu       sync.Mutex
	sessions map[*session]struct{}
	max      int
	logger   common.LoggerInterface
}

func newSessionManager(logger common.LoggerInterface) *sessionManager {
	return &sessionManager{
		sessions: make(map[*session]struct{}),
		max:      DefaultMaxSessions,
		logger:   logger,
	}
}

func (m *sessionManager) setMaxSessions(max int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.max = max
}

// admit registers sess and starts it running in its own goroutine, unless
// the table already holds more than max sessions, in which case sess is
// stopped and ErrTooManySessions returned.
func (m *sessionManager) admit(ctx context.Context, sess *session) error {
	m.mu.Lock()
	if len(m.sessions) > m.max {
		m.mu.Unlock()
		sess.stop()
		return ErrTooManySessions
	}
	m.sessions[sess] = struct{}{}
	m.mu.Unlock()

	go func() {
		sess.run(ctx)
		m.remove(sess)
	}()
	return nil
}

func (m *sessionManager) remove(sess *session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sess)
	sess.stop()
}

// stopAll stops every tracked session and clears the table.
func (m *sessionManager) stopAll() {
	m.logger.Info(context.Background(), "closing all connections")
	m.mu.Lock()
	defer m.mu.Unlock()
	for sess := range m.sessions {
		sess.stop()
	}
	m.sessions = make(map[*session]struct{})
}

// snapshot returns a stable copy of the currently tracked sessions'
// ConnectedClient views.
func (m *sessionManager) snapshot() []ConnectedClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ConnectedClient, 0, len(m.sessions))
	for sess := range m.sessions {
		out = append(out, sess.snapshot())
	}
	return out
}
