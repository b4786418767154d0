// Package transport implements the MODBUS/TCP connection pool: a bounded
// set of TCP connections that client requests reserve exclusively, use,
// and release. Dialing is lazy -- a connection is not actually dialed
// until something reserves it -- and every state transition is reported
// through an optional callback, the idiomatic Go stand-in for the
// reference implementation's cpool::connection_pool / cpool::tcp_connection
// pairing (see SPEC_FULL.md §4.4).
package transport

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"
)

// State is a connection's position in its lifecycle.
type State uint8

const (
	StateDisconnected State = iota
	StateResolving
	StateConnecting
	StateConnected
	StateDisconnecting
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateResolving:
		return "resolving"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnecting:
		return "disconnecting"
	default:
		return "unknown"
	}
}

// StateChangeFunc is invoked whenever a pooled connection's state changes.
// It is called with the pool's logger already applied by the caller, not
// passed a logger itself -- callers needing logging supply a closure.
type StateChangeFunc func(conn *Conn, state State)

// Conn is one pool-managed connection. It is reserved by at most one
// caller at a time; reserve() and release() enforce that invariant.
type Conn struct {
	host string
	port int

	mu        sync.Mutex
	state     State
	reserved  bool
	rawConn   net.Conn
	onStateCh StateChangeFunc
}

func newConn(host string, port int, onStateCh StateChangeFunc) *Conn {
	return &Conn{host: host, port: port, onStateCh: onStateCh}
}

func (c *Conn) setState(s State) {
	c.state = s
	if c.onStateCh != nil {
		c.onStateCh(c, s)
	}
}

// ensureConnected dials if not already connected. Must be called with c.mu
// held.
func (c *Conn) ensureConnected(ctx context.Context) error {
	if c.state == StateConnected && c.rawConn != nil {
		return nil
	}
	c.setState(StateResolving)
	addr := net.JoinHostPort(c.host, fmt.Sprintf("%d", c.port))
	c.setState(StateConnecting)
	d := net.Dialer{Timeout: dialTimeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		c.setState(StateDisconnected)
		return fmt.Errorf("transport: dial %s: %w", addr, err)
	}
	c.rawConn = conn
	c.setState(StateConnected)
	return nil
}

// NetConn returns the underlying net.Conn. Only valid while the connection
// is reserved and connected.
func (c *Conn) NetConn() net.Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rawConn
}

// State reports the connection's current lifecycle state.
func (c *Conn) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Conn) disconnect() {
	if c.rawConn == nil {
		return
	}
	c.setState(StateDisconnecting)
	_ = c.rawConn.Close()
	c.rawConn = nil
	c.setState(StateDisconnected)
}

// ErrStopped is returned by Reserve when the pool has been stopped.
var ErrStopped = fmt.Errorf("transport: pool stopped")

// Pool is a bounded set of Conns, created lazily up to a configured
// maximum, handed out one at a time via Reserve/Release.
type Pool struct {
	host string
	port int
	max  int

	onStateCh StateChangeFunc

	mu       sync.Mutex
	created  []*Conn
	free     chan *Conn
	stopped  bool
}

// Option configures a Pool.
type Option func(*Pool)

// WithStateChangeFunc installs a callback invoked on every pooled
// connection's state transition -- the hook the client/server layers use
// for logging.
func WithStateChangeFunc(fn StateChangeFunc) Option {
	return func(p *Pool) { p.onStateCh = fn }
}

// NewPool builds a pool that dials host:port, allowing up to max
// concurrently reserved connections. max is clamped to at least 1.
func NewPool(host string, port int, max int, opts ...Option) *Pool {
	if max < 1 {
		max = 1
	}
	p := &Pool{host: host, port: port, max: max, free: make(chan *Conn, max)}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Reserve blocks until a connection is available (dialing lazily if the
// pool has not yet reached its configured maximum), connects it if
// necessary, and returns it exclusively reserved to the caller. Exactly one
// caller holds a given *Conn between Reserve and Release.
func (p *Pool) Reserve(ctx context.Context) (*Conn, error) {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil, ErrStopped
	}
	var c *Conn
	select {
	case c = <-p.free:
	default:
		if len(p.created) < p.max {
			c = newConn(p.host, p.port, p.onStateCh)
			p.created = append(p.created, c)
		}
	}
	p.mu.Unlock()

	if c == nil {
		// Pool exhausted: wait for a release or cancellation.
		select {
		case c = <-p.free:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	c.mu.Lock()
	err := c.ensureConnected(ctx)
	c.mu.Unlock()
	if err != nil {
		p.discard(c)
		return nil, err
	}

	c.mu.Lock()
	c.reserved = true
	c.mu.Unlock()
	return c, nil
}

// discard removes a never-connected Conn from created so a dial failure
// does not permanently consume one of the pool's max slots.
func (p *Pool) discard(c *Conn) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, created := range p.created {
		if created == c {
			p.created = append(p.created[:i], p.created[i+1:]...)
			break
		}
	}
}

// Release returns c to the free list for the next Reserve call. It does
// not close the underlying connection -- connections persist across
// reservations so repeated requests reuse an established TCP session.
func (p *Pool) Release(c *Conn) {
	c.mu.Lock()
	c.reserved = false
	c.mu.Unlock()

	p.mu.Lock()
	stopped := p.stopped
	p.mu.Unlock()
	if stopped {
		c.mu.Lock()
		c.disconnect()
		c.mu.Unlock()
		return
	}
	p.free <- c
}

// Stop disconnects every connection the pool has created and refuses
// further reservations.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	created := append([]*Conn(nil), p.created...)
	p.mu.Unlock()

	for _, c := range created {
		c.mu.Lock()
		c.disconnect()
		c.mu.Unlock()
	}
}

// Size reports how many connections the pool has created so far.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.created)
}

// DrainResidual reads and discards any bytes already waiting on c's socket,
// used before issuing a new request so a late response to an earlier,
// abandoned request cannot be mistaken for the next one. net.Conn exposes
// no portable "bytes available" query, so this works the way the reference
// implementation's clear_buffer does: set a short deadline, read whatever
// shows up, and stop at the first timeout.
func DrainResidual(c *Conn, quiet time.Duration) error {
	conn := c.NetConn()
	if conn == nil {
		return fmt.Errorf("transport: drain: connection not established")
	}
	buf := make([]byte, 256)
	for {
		_ = conn.SetReadDeadline(time.Now().Add(quiet))
		n, err := conn.Read(buf)
		if n == 0 || err != nil {
			break
		}
	}
	return conn.SetReadDeadline(time.Time{})
}

// dialTimeout bounds connection establishment; a context deadline that
// expires sooner takes precedence.
const dialTimeout = 10 * time.Second
