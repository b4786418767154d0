package server

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prairieworks/gomodbus/adu"
	"github.com/prairieworks/gomodbus/common"
)

// readIdleTimeout bounds how long a session waits for the next request
// before re-checking whether it should keep running. It is not an
// inactivity disconnect -- reaching it just loops back around the read.
const readIdleTimeout = 30 * time.Second

// session owns one accepted connection: it reads requests, dispatches them,
// writes responses, and tracks per-connection traffic counters. It must not
// be copied once running (it embeds atomics and owns a net.Conn).
type session struct {
	conn        net.Conn
	remoteAddr  string
	connectedAt time.Time
	dispatch    *dispatcher
	logger      common.LoggerInterface

	rxCount atomic.Uint64
	txCount atomic.Uint64
	fcCount [256]atomic.Uint64

	stopOnce sync.Once
}

func newSession(conn net.Conn, dispatch *dispatcher, logger common.LoggerInterface) *session {
	return &session{
		conn:        conn,
		remoteAddr:  conn.RemoteAddr().String(),
		connectedAt: time.Now(),
		dispatch:    dispatch,
		logger:      logger,
	}
}

// run reads and dispatches requests until the connection errors, the peer
// disconnects, or stop is called. It always returns once the connection is
// unusable; the caller is responsible for deregistering the session.
func (s *session) run(ctx context.Context) {
	defer s.conn.Close()
	s.logger.Info(ctx, "client connected: %s", s.remoteAddr)
	defer s.logger.Info(ctx, "client disconnected: %s", s.remoteAddr)

	for {
		_ = s.conn.SetReadDeadline(time.Now().Add(readIdleTimeout))

		header := make([]byte, common.TCPHeaderSize)
		if _, err := io.ReadFull(s.conn, header); err != nil {
			if errors.Is(err, io.EOF) || strings.Contains(err.Error(), "use of closed network connection") {
				return
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			s.logger.Error(ctx, "reading header from %s: %v", s.remoteAddr, err)
			return
		}

		length := int(binary.BigEndian.Uint16(header[4:6]))
		if length == 0 {
			s.logger.Error(ctx, "zero-length MBAP message from %s", s.remoteAddr)
			continue
		}
		payload := make([]byte, length)
		if _, err := io.ReadFull(s.conn, payload); err != nil {
			s.logger.Error(ctx, "reading payload from %s: %v", s.remoteAddr, err)
			return
		}

		requestADU, err := adu.FromHeaderAndPayload(header, payload)
		if err != nil {
			s.logger.Error(ctx, "malformed request from %s: %v", s.remoteAddr, err)
			continue
		}

		s.rxCount.Add(1)
		s.fcCount[requestADU.FunctionCode().Base()].Add(1)
		s.logger.Debug(ctx, "request from %s: transaction=%d unit=%d function=%s",
			s.remoteAddr, requestADU.TransactionID(), requestADU.UnitID(), requestADU.FunctionCode())

		responseADU := s.dispatch.handle(ctx, requestADU)
		if _, err := s.conn.Write(responseADU.Bytes()); err != nil {
			s.logger.Error(ctx, "writing response to %s: %v", s.remoteAddr, err)
			return
		}
		s.txCount.Add(1)
	}
}

func (s *session) stop() {
	s.stopOnce.Do(func() { _ = s.conn.Close() })
}

// ConnectedClient is a snapshot of one session's state, safe to copy and
// store independent of the session's lifetime.
type ConnectedClient struct {
	RemoteAddr        string
	ConnectedAt       time.Time
	RxTransactions    uint64
	TxTransactions    uint64
	FunctionCodeStats map[common.FunctionCode]uint64
}

// String returns a human-readable summary of the connected client.
func (c ConnectedClient) String() string {
	duration := time.Since(c.ConnectedAt).Truncate(time.Second)
	s := fmt.Sprintf("%s | connected %s | rx: %d tx: %d", c.RemoteAddr, duration, c.RxTransactions, c.TxTransactions)
	if len(c.FunctionCodeStats) > 0 {
		codes := make([]common.FunctionCode, 0, len(c.FunctionCodeStats))
		for fc := range c.FunctionCodeStats {
			codes = append(codes, fc)
		}
		sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })

		parts := make([]string, 0, len(codes))
		for _, fc := range codes {
			parts = append(parts, fmt.Sprintf("%s=%d", fc, c.FunctionCodeStats[fc]))
		}
		s += " | fc: " + strings.Join(parts, " ")
	}
	return s
}

func (s *session) snapshot() ConnectedClient {
	stats := make(map[common.FunctionCode]uint64)
	for i := range s.fcCount {
		if v := s.fcCount[i].Load(); v > 0 {
			stats[common.FunctionCode(i)] = v
		}
	}
	return ConnectedClient{
		RemoteAddr:        s.remoteAddr,
		ConnectedAt:       s.connectedAt,
		RxTransactions:    s.rxCount.Load(),
		TxTransactions:    s.txCount.Load(),
		FunctionCodeStats: stats,
	}
}
