package client

import (
	"context"
	"encoding/binary"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prairieworks/gomodbus/common"
)

// fixtureServer accepts one connection and, for each request it reads,
// writes back the bytes produced by respond(requestBody). It stops after
// the test cleans it up.
type fixtureServer struct {
	ln net.Listener
}

func newFixtureServer(t *testing.T, respond func(unitID byte, fc common.FunctionCode, body []byte) []byte) *fixtureServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			header := make([]byte, common.TCPHeaderSize)
			if _, err := readFull(conn, header); err != nil {
				return
			}
			length := int(binary.BigEndian.Uint16(header[4:6]))
			payload := make([]byte, length)
			if _, err := readFull(conn, payload); err != nil {
				return
			}
			unitID := payload[0]
			fc := common.FunctionCode(payload[1])
			respBody := respond(unitID, fc, payload[2:])

			out := make([]byte, common.TCPHeaderSize+len(respBody))
			copy(out[0:2], header[0:2]) // echo transaction id
			binary.BigEndian.PutUint16(out[4:6], uint16(len(respBody)))
			copy(out[common.TCPHeaderSize:], respBody)
			if _, err := conn.Write(out); err != nil {
				return
			}
		}
	}()

	return &fixtureServer{ln: ln}
}

func readFull(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (s *fixtureServer) port() int {
	return s.ln.Addr().(*net.TCPAddr).Port
}

func TestClientReadHoldingRegistersSuccess(t *testing.T) {
	srv := newFixtureServer(t, func(unitID byte, fc common.FunctionCode, body []byte) []byte {
		require.Equal(t, common.FuncReadHoldingRegisters, fc)
		return []byte{unitID, byte(fc), 0x02, 0x00, 0x2A}
	})

	c := New("127.0.0.1", srv.port())
	defer c.Close()

	values, err := c.ReadHoldingRegisters(context.Background(), 100, 1)
	require.NoError(t, err)
	assert.Equal(t, []uint16{0x002A}, values)
}

func TestClientExceptionResponseSurfacesModbusError(t *testing.T) {
	srv := newFixtureServer(t, func(unitID byte, fc common.FunctionCode, body []byte) []byte {
		return []byte{unitID, byte(fc | common.ExceptionBit), byte(common.ExceptionIllegalDataAddress)}
	})

	c := New("127.0.0.1", srv.port())
	defer c.Close()

	_, err := c.ReadHoldingRegisters(context.Background(), 100, 1)
	require.Error(t, err)
	assert.True(t, common.IsExceptionError(err, common.ExceptionIllegalDataAddress))
}

func TestClientWriteSingleCoilValidatesEcho(t *testing.T) {
	srv := newFixtureServer(t, func(unitID byte, fc common.FunctionCode, body []byte) []byte {
		return append([]byte{unitID, byte(fc)}, body...)
	})

	c := New("127.0.0.1", srv.port())
	defer c.Close()

	err := c.WriteSingleCoil(context.Background(), 5, common.CoilOn)
	require.NoError(t, err)
}

func TestClientTimeoutWhenServerSilent(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		time.Sleep(time.Second)
	}()

	c := New("127.0.0.1", ln.Addr().(*net.TCPAddr).Port, WithTimeout(50*time.Millisecond))
	defer c.Close()

	_, err = c.ReadHoldingRegisters(context.Background(), 0, 1)
	assert.Error(t, err)
}
