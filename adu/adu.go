// Package adu implements the MODBUS/TCP Application Data Unit: the MBAP
// header (transaction id, protocol id, length, unit id) wrapped around a
// pdu.PDU. An ADU owns an immutable byte buffer -- copying the ADU value
// copies only the slice header, never the bytes -- and exposes typed
// extraction of its PDU body without ever panicking on a truncated buffer.
package adu

import (
	"encoding/binary"
	"fmt"

	"github.com/prairieworks/gomodbus/common"
	"github.com/prairieworks/gomodbus/pdu"
)

// ADU is the MBAP header plus PDU body, as bytes received from or destined
// for the wire. The zero value is an empty, invalid ADU.
type ADU struct {
	buf []byte
}

// NewRequestADU serializes a request PDU behind an MBAP header carrying
// transactionID and protocolID 0x0000. This is construction path 1 of
// SPEC_FULL.md §4.3: allocate TCPHeaderSize + pdu.Size() bytes, write the
// header, then let the PDU serialize itself starting at the unit id.
func NewRequestADU(transactionID common.TransactionID, unitID common.UnitID, p pdu.PDU) (ADU, error) {
	length := p.Size()
	buf := make([]byte, common.TCPHeaderSize+length)
	binary.BigEndian.PutUint16(buf[0:2], uint16(transactionID))
	binary.BigEndian.PutUint16(buf[2:4], common.ProtocolID)
	binary.BigEndian.PutUint16(buf[4:6], uint16(length))
	if err := p.Serialize(byte(unitID), buf[common.TCPHeaderSize:]); err != nil {
		return ADU{}, fmt.Errorf("adu: serializing pdu: %w", err)
	}
	return ADU{buf: buf}, nil
}

// FromBuffer wraps a single contiguous buffer already containing a full
// MBAP header and PDU body (construction path 2). The buffer is taken by
// reference, not copied; callers must not mutate it afterwards.
func FromBuffer(buf []byte) (ADU, error) {
	if len(buf) < common.TCPHeaderSize+1 {
		return ADU{}, fmt.Errorf("adu: buffer too short (%d bytes)", len(buf))
	}
	protocolID := binary.BigEndian.Uint16(buf[2:4])
	if protocolID != common.ProtocolID {
		return ADU{}, fmt.Errorf("adu: unexpected protocol id 0x%04x", protocolID)
	}
	length := binary.BigEndian.Uint16(buf[4:6])
	if int(length) != len(buf)-common.TCPHeaderSize {
		return ADU{}, fmt.Errorf("adu: length field %d does not match buffer (%d bytes of payload)", length, len(buf)-common.TCPHeaderSize)
	}
	return ADU{buf: buf}, nil
}

// FromHeaderAndPayload assembles an ADU from a separately-read 6-byte MBAP
// header and its payload (unit id + function code + body) -- construction
// path 3, used when the header and payload arrive in separate reads off a
// socket. The two buffers are concatenated into one fresh buffer so the
// resulting ADU still owns a single contiguous, immutable backing array.
func FromHeaderAndPayload(header, payload []byte) (ADU, error) {
	if len(header) != common.TCPHeaderSize {
		return ADU{}, fmt.Errorf("adu: header must be %d bytes, got %d", common.TCPHeaderSize, len(header))
	}
	protocolID := binary.BigEndian.Uint16(header[2:4])
	if protocolID != common.ProtocolID {
		return ADU{}, fmt.Errorf("adu: unexpected protocol id 0x%04x", protocolID)
	}
	length := binary.BigEndian.Uint16(header[4:6])
	if int(length) != len(payload) {
		return ADU{}, fmt.Errorf("adu: length field %d does not match payload (%d bytes)", length, len(payload))
	}
	buf := make([]byte, 0, len(header)+len(payload))
	buf = append(buf, header...)
	buf = append(buf, payload...)
	return ADU{buf: buf}, nil
}

// IsEmpty reports whether a is the zero value.
func (a ADU) IsEmpty() bool { return len(a.buf) == 0 }

// TransactionID returns the MBAP transaction id.
func (a ADU) TransactionID() common.TransactionID {
	if a.IsEmpty() {
		return 0
	}
	return common.TransactionID(binary.BigEndian.Uint16(a.buf[0:2]))
}

// Length returns the MBAP length field (unit id + PDU, in bytes).
func (a ADU) Length() uint16 {
	if a.IsEmpty() {
		return 0
	}
	return binary.BigEndian.Uint16(a.buf[4:6])
}

// UnitID returns the unit id byte.
func (a ADU) UnitID() common.UnitID {
	if a.IsEmpty() || len(a.buf) < common.TCPHeaderSize+1 {
		return 0
	}
	return common.UnitID(a.buf[common.TCPHeaderSize])
}

// FunctionCode returns the function code byte, exception bit included.
func (a ADU) FunctionCode() common.FunctionCode {
	if a.IsEmpty() || len(a.buf) < common.TCPHeaderSize+2 {
		return 0
	}
	return common.FunctionCode(a.buf[common.TCPHeaderSize+1])
}

// IsException reports whether the PDU's function code has the exception
// bit set.
func (a ADU) IsException() bool {
	return a.FunctionCode().IsException()
}

// Bytes returns the full header+PDU byte slice, suitable for writing
// directly to a net.Conn. Callers must not mutate the returned slice.
func (a ADU) Bytes() []byte { return a.buf }

// pduBody returns the bytes starting at the unit id -- the region every
// pdu.Parse* function expects.
func (a ADU) pduBody() []byte {
	if len(a.buf) < common.TCPHeaderSize {
		return nil
	}
	return a.buf[common.TCPHeaderSize:]
}

// Extract attempts to parse a's PDU body as T using parse, succeeding only
// if a's function code matches fc, a's exception bit agrees with whether
// dir is DirectionException, and parse itself succeeds. An ADU carries no
// request/response tag, so DirectionRequest and DirectionResponse are not
// told apart here: only parse decides whether the bytes fit T. It never panics, even on a truncated or empty ADU: a
// mismatch at any stage reports ok=false with the zero value of T.
func Extract[T any](a ADU, fc common.FunctionCode, dir pdu.Direction, parse func([]byte) (byte, T, error)) (value T, ok bool) {
	var zero T
	if a.IsEmpty() {
		return zero, false
	}
	wantException := dir == pdu.DirectionException
	if a.IsException() != wantException {
		return zero, false
	}
	if wantException {
		// Exception responses share one wire function code family
		// (base | 0x80); the caller names the base code it expects.
		if a.FunctionCode().Base() != fc {
			return zero, false
		}
	} else if a.FunctionCode() != fc {
		return zero, false
	}
	_, v, err := parse(a.pduBody())
	if err != nil {
		return zero, false
	}
	return v, true
}
