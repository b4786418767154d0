package transport

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLoopbackListener(t *testing.T) (net.Listener, int) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })
	return ln, ln.Addr().(*net.TCPAddr).Port
}

func acceptAndEcho(t *testing.T, ln net.Listener) {
	t.Helper()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				buf := make([]byte, 256)
				for {
					n, err := c.Read(buf)
					if err != nil {
						return
					}
					_, _ = c.Write(buf[:n])
				}
			}(conn)
		}
	}()
}

func TestPoolReserveDialsLazily(t *testing.T) {
	ln, port := newLoopbackListener(t)
	acceptAndEcho(t, ln)

	p := NewPool("127.0.0.1", port, 2)
	assert.Equal(t, 0, p.Size())

	c, err := p.Reserve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, p.Size())
	assert.Equal(t, StateConnected, c.State())

	p.Release(c)
}

func TestPoolEnforcesMaxAndReusesOnRelease(t *testing.T) {
	ln, port := newLoopbackListener(t)
	acceptAndEcho(t, ln)

	p := NewPool("127.0.0.1", port, 1)

	c1, err := p.Reserve(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = p.Reserve(ctx)
	assert.Error(t, err, "second reservation should block until the first is released")

	p.Release(c1)

	c2, err := p.Reserve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, p.Size(), "released connection should be reused, not redialed")
	p.Release(c2)
}

func TestPoolStateTransitions(t *testing.T) {
	ln, port := newLoopbackListener(t)
	acceptAndEcho(t, ln)

	var mu sync.Mutex
	var seen []State
	p := NewPool("127.0.0.1", port, 1, WithStateChangeFunc(func(_ *Conn, s State) {
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	}))

	c, err := p.Reserve(context.Background())
	require.NoError(t, err)
	p.Release(c)

	mu.Lock()
	defer mu.Unlock()
	require.GreaterOrEqual(t, len(seen), 3)
	assert.Equal(t, StateResolving, seen[0])
	assert.Equal(t, StateConnecting, seen[1])
	assert.Equal(t, StateConnected, seen[2])
}

func TestPoolStopDisconnectsAndRefusesReserve(t *testing.T) {
	ln, port := newLoopbackListener(t)
	acceptAndEcho(t, ln)

	p := NewPool("127.0.0.1", port, 1)
	c, err := p.Reserve(context.Background())
	require.NoError(t, err)
	p.Release(c)

	p.Stop()
	assert.Equal(t, StateDisconnected, c.State())

	_, err = p.Reserve(context.Background())
	assert.ErrorIs(t, err, ErrStopped)
}

func TestPoolReserveRespectsContextCancellation(t *testing.T) {
	ln, port := newLoopbackListener(t)
	acceptAndEcho(t, ln)

	p := NewPool("127.0.0.1", port, 1)
	c, err := p.Reserve(context.Background())
	require.NoError(t, err)
	defer p.Release(c)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := p.Reserve(ctx)
		done <- err
	}()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Reserve did not return after context cancellation")
	}
}
