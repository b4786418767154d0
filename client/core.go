// Package client implements a MODBUS/TCP client: a pooled-connection
// request pipeline (reserve, drain, write, read-until-current, validate,
// release) plus one typed method per supported function code.
package client

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync/atomic"
	"time"

	"github.com/prairieworks/gomodbus/adu"
	"github.com/prairieworks/gomodbus/common"
	"github.com/prairieworks/gomodbus/logging"
	"github.com/prairieworks/gomodbus/pdu"
	"github.com/prairieworks/gomodbus/transport"
)

// defaultTimeout bounds how long a single request waits for its response
// when the caller's context carries no deadline.
const defaultTimeout = 5 * time.Second

// defaultDrainQuiet is how long DrainResidual waits for silence before
// deciding a connection's read buffer is empty.
const defaultDrainQuiet = 5 * time.Millisecond

// config holds a Client's fixed settings, snapshotted at construction.
type config struct {
	host           string
	port           int
	unitID         common.UnitID
	maxConnections int
	timeout        time.Duration
	logger         common.LoggerInterface
}

// Option configures a Client at construction time.
type Option func(*config)

// WithUnitID sets the unit id sent with every request. Default 0.
func WithUnitID(unitID common.UnitID) Option {
	return func(c *config) { c.unitID = unitID }
}

// WithMaxConnections bounds how many TCP connections the client's pool may
// open concurrently. Default 1.
func WithMaxConnections(n int) Option {
	return func(c *config) { c.maxConnections = n }
}

// WithTimeout sets the default per-request timeout used when the caller's
// context carries no deadline. Default 5s.
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// WithLogger attaches a logger. Default is a no-op logger.
func WithLogger(logger common.LoggerInterface) Option {
	return func(c *config) { c.logger = logger }
}

// Client is a MODBUS/TCP client bound to one host:port, backed by a
// transport.Pool of connections it reserves and releases around every
// request.
type Client struct {
	cfg    config
	pool   *transport.Pool
	logger common.LoggerInterface
	nextTx uint32
}

// New builds a Client targeting host:port. It does not dial until the
// first request is sent.
func New(host string, port int, opts ...Option) *Client {
	cfg := config{
		host:           host,
		port:           port,
		maxConnections: 1,
		timeout:        defaultTimeout,
		logger:         logging.NewNoopLogger(),
	}
	for _, o := range opts {
		o(&cfg)
	}

	c := &Client{cfg: cfg, logger: cfg.logger}
	c.pool = transport.NewPool(host, port, cfg.maxConnections, transport.WithStateChangeFunc(c.onStateChange))
	return c
}

func (c *Client) onStateChange(conn *transport.Conn, state transport.State) {
	c.logger.Info(context.Background(), "connection to %s:%d: %s", c.cfg.host, c.cfg.port, state)
}

// Close disconnects every pooled connection and refuses further requests.
func (c *Client) Close() {
	c.pool.Stop()
}

func (c *Client) reserveTransactionID() common.TransactionID {
	return common.TransactionID(uint16(atomic.AddUint32(&c.nextTx, 1)))
}

// sendRequest runs the full send/receive pipeline for one request PDU:
// reserve a pooled connection, drain any residual bytes left over from an
// abandoned prior exchange, write the request, read responses until one
// carries a transaction id at least as new as the request's (discarding
// stragglers from earlier, timed-out requests), validate it against the
// request, and release the connection. Mirrors the reference
// implementation's tcp_client::send_request control flow.
func (c *Client) sendRequest(ctx context.Context, p pdu.PDU) (adu.ADU, error) {
	conn, err := c.pool.Reserve(ctx)
	if err != nil {
		if errors.Is(err, transport.ErrStopped) {
			return adu.ADU{}, ErrStopped
		}
		return adu.ADU{}, err
	}
	defer c.pool.Release(conn)

	if err := transport.DrainResidual(conn, defaultDrainQuiet); err != nil {
		return adu.ADU{}, fmt.Errorf("client: draining residual bytes: %w", err)
	}

	txID := c.reserveTransactionID()
	request, err := adu.NewRequestADU(txID, c.cfg.unitID, p)
	if err != nil {
		return adu.ADU{}, err
	}

	netConn := conn.NetConn()
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.cfg.timeout)
	}
	if err := netConn.SetDeadline(deadline); err != nil {
		return adu.ADU{}, fmt.Errorf("client: setting deadline: %w", err)
	}
	defer func() { _ = netConn.SetDeadline(time.Time{}) }()

	c.logger.Debug(ctx, "sending request: transaction=%d function=%s", txID, p.FunctionCode())
	if err := writeFull(netConn, request.Bytes()); err != nil {
		return adu.ADU{}, err
	}

	var response adu.ADU
	for {
		response, err = readResponse(netConn)
		if err != nil {
			return adu.ADU{}, err
		}
		c.logger.Debug(ctx, "received response: transaction=%d", response.TransactionID())
		if response.TransactionID() >= txID {
			break
		}
		// Stale response to an earlier, already-timed-out request: discard
		// and keep reading for the one we actually sent.
	}

	if err := validateResponse(request, response); err != nil {
		return adu.ADU{}, err
	}
	return response, nil
}

func writeFull(conn net.Conn, buf []byte) error {
	n, err := conn.Write(buf)
	if err != nil {
		if os.IsTimeout(err) {
			return ErrWriteTimeout
		}
		return fmt.Errorf("%w: %v", ErrDisconnected, err)
	}
	if n != len(buf) {
		return fmt.Errorf("client: wrote %d of %d bytes", n, len(buf))
	}
	return nil
}

func readResponse(conn net.Conn) (adu.ADU, error) {
	header := make([]byte, common.TCPHeaderSize)
	if _, err := io.ReadFull(conn, header); err != nil {
		if os.IsTimeout(err) {
			return adu.ADU{}, ErrReadTimeout
		}
		// A short header read (EOF/ErrUnexpectedEOF, not a timeout) is a
		// framing problem, not necessarily a dead connection.
		return adu.ADU{}, fmt.Errorf("%w: reading header: %v", pdu.ErrMalformedMessage, err)
	}
	length := int(binary.BigEndian.Uint16(header[4:6]))
	if length+common.TCPHeaderSize > common.MaxAPUSize {
		return adu.ADU{}, ErrInvalidResponse
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(conn, payload); err != nil {
		return adu.ADU{}, fmt.Errorf("%w: reading payload: %v", ErrDisconnected, err)
	}
	return adu.FromHeaderAndPayload(header, payload)
}

// validateResponse checks a response against the request that produced it:
// matching transaction id, matching base function code, and -- for the two
// single-value writes, when the response is not an exception -- that the
// response echoes the request byte-for-byte.
func validateResponse(request, response adu.ADU) error {
	if request.TransactionID() != response.TransactionID() {
		return ErrInvalidResponse
	}
	fc := request.FunctionCode().Base()
	if fc != response.FunctionCode().Base() {
		return ErrInvalidResponse
	}
	if (fc == common.FuncWriteSingleCoil || fc == common.FuncWriteSingleRegister) && !response.IsException() {
		if !bytes.Equal(request.Bytes(), response.Bytes()) {
			return ErrInvalidResponse
		}
	}
	return nil
}

// asException converts an exception response ADU into a *common.ModbusError,
// or returns nil, false if response is not an exception.
func asException(response adu.ADU) (error, bool) {
	exc, ok := adu.Extract(response, response.FunctionCode().Base(), pdu.DirectionException, pdu.ParseExceptionResponse)
	if !ok {
		return nil, false
	}
	return common.NewModbusError(exc.FunctionCode(), exc.Code), true
}
