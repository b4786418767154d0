package server

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/prairieworks/gomodbus/common"
	"github.com/prairieworks/gomodbus/logging"
)

// TCPServer implements a MODBUS/TCP server: it accepts connections,
// hands each one to the session manager, and dispatches every request it
// reads against a shared Store.
type TCPServer struct {
	address string
	port    int

	mu       sync.RWMutex
	listener net.Listener
	running  bool
	stopChan chan struct{}

	store      *Store
	dispatch   *dispatcher
	sessions   *sessionManager
	logger     common.LoggerInterface
}

// TCPServerOption configures a TCPServer at construction.
type TCPServerOption func(*TCPServer)

// WithServerPort sets the listening port (default common.DefaultTCPPort).
func WithServerPort(port int) TCPServerOption {
	return func(s *TCPServer) { s.port = port }
}

// WithServerLogger sets the server's logger.
func WithServerLogger(logger common.LoggerInterface) TCPServerOption {
	return func(s *TCPServer) { s.logger = logger }
}

// WithServerStore installs store as the server's backing data, replacing
// the empty Store NewTCPServer builds by default.
func WithServerStore(store *Store) TCPServerOption {
	return func(s *TCPServer) { s.store = store }
}

// WithMaxSessions overrides DefaultMaxSessions.
func WithMaxSessions(max int) TCPServerOption {
	return func(s *TCPServer) { s.sessions.setMaxSessions(max) }
}

// NewTCPServer builds a server bound to address, listening on
// common.DefaultTCPPort unless WithServerPort overrides it.
func NewTCPServer(address string, options ...TCPServerOption) *TCPServer {
	logger := logging.NewLogger()
	s := &TCPServer{
		address: address,
		port:    common.DefaultTCPPort,
		store:   NewStore(),
		logger:  logger,
	}
	s.sessions = newSessionManager(logger)
	for _, option := range options {
		option(s)
	}
	s.dispatch = newDispatcher(s.store)
	return s
}

// Store returns the server's backing data store, for callers that need to
// seed fixture values before Start or inspect state afterward.
func (s *TCPServer) Store() *Store { return s.store }

// Addr returns the listener's actual bound address, including the port the
// OS assigned when constructed with WithServerPort(0). It is only valid
// after Start returns successfully.
func (s *TCPServer) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Start opens the listener and begins accepting connections in the
// background. It returns once the listener is bound.
func (s *TCPServer) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("modbus: server already running")
	}

	addr := fmt.Sprintf("%s:%d", s.address, s.port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		s.mu.Unlock()
		return err
	}

	s.listener = listener
	s.running = true
	s.stopChan = make(chan struct{})
	s.mu.Unlock()

	s.logger.Info(ctx, "modbus TCP server listening on %s", addr)
	go s.acceptLoop(ctx)
	return nil
}

// Stop closes the listener and every active session.
func (s *TCPServer) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return nil
	}

	close(s.stopChan)
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.sessions.stopAll()
	s.running = false
	s.logger.Info(ctx, "modbus TCP server stopped")
	return nil
}

// IsRunning reports whether the server is currently accepting connections.
func (s *TCPServer) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// ConnectedClients returns a snapshot of every currently active session.
func (s *TCPServer) ConnectedClients() []ConnectedClient {
	return s.sessions.snapshot()
}

func (s *TCPServer) acceptLoop(ctx context.Context) {
	for {
		select {
		case <-s.stopChan:
			return
		default:
		}

		if tcpListener, ok := s.listener.(*net.TCPListener); ok {
			_ = tcpListener.SetDeadline(time.Now().Add(time.Second))
		}

		conn, err := s.listener.Accept()
		if err != nil {
			if opErr, ok := err.(*net.OpError); ok && opErr.Timeout() {
				continue
			}
			select {
			case <-s.stopChan:
				return
			default:
				s.logger.Error(ctx, "accept: %v", err)
				continue
			}
		}

		sess := newSession(conn, s.dispatch, s.logger)
		if err := s.sessions.admit(ctx, sess); err != nil {
			s.logger.Warn(ctx, "refusing connection from %s: %v", conn.RemoteAddr(), err)
		}
	}
}
