package adu

import (
	"encoding/binary"

	"github.com/prairieworks/gomodbus/common"
)

// Accessor reads typed values out of a register-bearing response ADU's raw
// byte-count-prefixed data area, honoring a configurable byte order. It
// never panics: any out-of-range offset or truncated buffer yields the
// zero value, matching SPEC_FULL.md §4.2 and the Open Question about
// typed extraction never panicking.
type Accessor struct {
	order ByteOrder
	data  []byte // the register/coil payload, past the byte-count prefix
}

// ByteOrder mirrors common.ByteOrder for the accessor's own registers --
// kept distinct so callers can request byte_swapped decoding independent of
// the wire's own big-endian framing.
type ByteOrder = common.ByteOrder

const (
	ByteOrderNormal  = common.ByteOrderNormal
	ByteOrderSwapped = common.ByteOrderSwapped
)

// NewAccessor wraps the raw register/coil bytes (past the byte-count
// prefix) of a read response, interpreted with the given byte order.
func NewAccessor(data []byte, order ByteOrder) Accessor {
	return Accessor{order: order, data: data}
}

func (a Accessor) bytesAt(start, n int) ([]byte, bool) {
	if start < 0 || start+n > len(a.data) {
		return nil, false
	}
	return a.data[start : start+n], true
}

// Bit extracts bit index (0 = first bit of data[0], matching
// original_source's getBool: byte data[index/8], mask 1<<(index%8)).
// Returns false if out of range.
func (a Accessor) Bit(index int) bool {
	if index < 0 {
		return false
	}
	byteIdx, bit := index/8, uint(index%8)
	b, ok := a.bytesAt(byteIdx, 1)
	if !ok {
		return false
	}
	return b[0]&(1<<bit) != 0
}

// U8 returns the byte at index, or 0 if out of range.
func (a Accessor) U8(index int) uint8 {
	b, ok := a.bytesAt(index, 1)
	if !ok {
		return 0
	}
	return b[0]
}

// I8 returns U8 reinterpreted as a signed byte.
func (a Accessor) I8(index int) int8 {
	return int8(a.U8(index))
}

// U16 returns the 16-bit value at element offset 2*index, honoring byte
// order, or 0 if out of range.
func (a Accessor) U16(index int) uint16 {
	b, ok := a.bytesAt(2*index, 2)
	if !ok {
		return 0
	}
	if a.order == ByteOrderSwapped {
		return uint16(b[1])<<8 | uint16(b[0])
	}
	return binary.BigEndian.Uint16(b)
}

// I16 returns U16 reinterpreted as signed.
func (a Accessor) I16(index int) int16 {
	return int16(a.U16(index))
}

// U32 returns the 32-bit value at element offset 4*index, honoring byte
// order, or 0 if out of range.
func (a Accessor) U32(index int) uint32 {
	b, ok := a.bytesAt(4*index, 4)
	if !ok {
		return 0
	}
	if a.order == ByteOrderSwapped {
		return uint32(b[3])<<24 | uint32(b[2])<<16 | uint32(b[1])<<8 | uint32(b[0])
	}
	return binary.BigEndian.Uint32(b)
}

// I32 returns U32 reinterpreted as signed.
func (a Accessor) I32(index int) int32 {
	return int32(a.U32(index))
}
