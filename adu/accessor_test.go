package adu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccessorBitIndexesAcrossByteBoundary(t *testing.T) {
	// bit 0 = data[0] bit 0, bit 8 = data[1] bit 0, bit 15 = data[1] bit 7.
	data := []byte{0b00000001, 0b10000000}
	a := NewAccessor(data, ByteOrderNormal)

	assert.True(t, a.Bit(0))
	assert.False(t, a.Bit(1))
	assert.False(t, a.Bit(8))
	assert.True(t, a.Bit(15))
	assert.False(t, a.Bit(16)) // out of range
}

func TestAccessorU8IndexesByByteNotRegister(t *testing.T) {
	data := []byte{0x11, 0x22, 0x33, 0x44}
	a := NewAccessor(data, ByteOrderNormal)

	assert.Equal(t, uint8(0x11), a.U8(0))
	assert.Equal(t, uint8(0x22), a.U8(1))
	assert.Equal(t, uint8(0x33), a.U8(2))
	assert.Equal(t, uint8(0), a.U8(4)) // out of range
}

func TestAccessorI8ReinterpretsSignedByte(t *testing.T) {
	data := []byte{0xFF}
	a := NewAccessor(data, ByteOrderNormal)
	assert.Equal(t, int8(-1), a.I8(0))
}

func TestAccessorU16NormalAndSwapped(t *testing.T) {
	data := []byte{0x12, 0x34, 0x56, 0x78}

	normal := NewAccessor(data, ByteOrderNormal)
	assert.Equal(t, uint16(0x1234), normal.U16(0))
	assert.Equal(t, uint16(0x5678), normal.U16(1))

	swapped := NewAccessor(data, ByteOrderSwapped)
	assert.Equal(t, uint16(0x3412), swapped.U16(0))
	assert.Equal(t, uint16(0x7856), swapped.U16(1))

	assert.Equal(t, uint16(0), normal.U16(2)) // out of range
}

func TestAccessorI16ReinterpretsSigned(t *testing.T) {
	data := []byte{0xFF, 0xFF}
	a := NewAccessor(data, ByteOrderNormal)
	assert.Equal(t, int16(-1), a.I16(0))
}

func TestAccessorU32NormalAndSwapped(t *testing.T) {
	data := []byte{0x11, 0x22, 0x33, 0x44, 0xAA, 0xBB, 0xCC, 0xDD}

	normal := NewAccessor(data, ByteOrderNormal)
	assert.Equal(t, uint32(0x11223344), normal.U32(0))
	assert.Equal(t, uint32(0xAABBCCDD), normal.U32(1))

	swapped := NewAccessor(data, ByteOrderSwapped)
	assert.Equal(t, uint32(0x44332211), swapped.U32(0))

	assert.Equal(t, uint32(0), normal.U32(2)) // out of range
}

func TestAccessorI32ReinterpretsSigned(t *testing.T) {
	data := []byte{0xFF, 0xFF, 0xFF, 0xFF}
	a := NewAccessor(data, ByteOrderNormal)
	assert.Equal(t, int32(-1), a.I32(0))
}

func TestAccessorZeroValueOnEmptyBuffer(t *testing.T) {
	a := NewAccessor(nil, ByteOrderNormal)
	assert.False(t, a.Bit(0))
	assert.Equal(t, uint8(0), a.U8(0))
	assert.Equal(t, uint16(0), a.U16(0))
	assert.Equal(t, uint32(0), a.U32(0))
}
