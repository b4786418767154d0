// Package pdu implements the MODBUS Protocol Data Unit as a tagged union of
// concrete request/response/exception types, one struct per function code,
// instead of a single generic function-code-plus-bytes envelope. Each
// variant knows its own wire size, how to serialize itself starting at the
// unit id, and how to compare itself for equality; parsing is exposed as a
// package-level function per variant so the caller (the adu package) can
// dispatch on function code before committing to a concrete type.
package pdu

import (
	"errors"
	"fmt"

	"github.com/prairieworks/gomodbus/common"
)

// Protocol-level error vocabulary (spec.md "modbus_error_code" family).
// TCP framing never exercises the CRC/LRC checks -- those belong to the
// serial transports this module explicitly excludes (see SPEC_FULL.md
// Non-goals) -- but the sentinels are kept so the vocabulary matches the
// original implementation's three-tier error split.
var (
	ErrNotSupported    = errors.New("modbus: not supported")
	ErrInternal        = errors.New("modbus: internal error")
	ErrMalformedMessage = errors.New("modbus: malformed message")
	ErrCRCCheckFailed  = errors.New("modbus: crc check failed")
	ErrLRCCheckFailed  = errors.New("modbus: lrc check failed")
)

// Direction distinguishes a request body from a normal or exception
// response body sharing the same function code.
type Direction uint8

const (
	DirectionRequest Direction = iota
	DirectionResponse
	DirectionException
)

func (d Direction) String() string {
	switch d {
	case DirectionRequest:
		return "request"
	case DirectionResponse:
		return "response"
	case DirectionException:
		return "exception"
	default:
		return "unknown"
	}
}

// PDU is implemented by every request/response/exception variant. Size and
// Serialize operate over the region of an ADU starting at the unit id (unit
// id + function code + body), matching how the MBAP length field is
// computed: length = 1 (unit id) + 1 (function code) + len(body).
type PDU interface {
	FunctionCode() common.FunctionCode
	Direction() Direction
	Size() int
	Serialize(unitID byte, dst []byte) error
	Equal(other PDU) bool
}

func malformed(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrMalformedMessage}, args...)...)
}

// requireLen checks that body has exactly n bytes, returning a malformed
// error that names the variant otherwise.
func requireLen(variant string, body []byte, n int) error {
	if len(body) != n {
		return malformed("%s: expected %d body bytes, got %d", variant, n, len(body))
	}
	return nil
}

func requireMinLen(variant string, body []byte, n int) error {
	if len(body) < n {
		return malformed("%s: expected at least %d body bytes, got %d", variant, n, len(body))
	}
	return nil
}

// splitHeader validates src starts with [unit_id, function_code] matching
// fc and returns the unit id and the remaining body bytes.
func splitHeader(variant string, src []byte, fc common.FunctionCode) (unitID byte, body []byte, err error) {
	if len(src) < 2 {
		return 0, nil, malformed("%s: cursor too short for header (%d bytes)", variant, len(src))
	}
	if common.FunctionCode(src[1]) != fc {
		return 0, nil, malformed("%s: function code mismatch: got 0x%02x, want 0x%02x", variant, src[1], uint8(fc))
	}
	return src[0], src[2:], nil
}

func putHeader(dst []byte, unitID byte, fc common.FunctionCode) {
	dst[0] = unitID
	dst[1] = byte(fc)
}
