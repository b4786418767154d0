package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/prairieworks/gomodbus/common"
)

func TestCreateRequestBitMapAlignedByte(t *testing.T) {
	bm := CreateRequestBitMap(0, 8)
	assert.Equal(t, []byte{0xFF}, bm)
}

func TestCreateRequestBitMapUnalignedSpansTwoBytes(t *testing.T) {
	bm := CreateRequestBitMap(5, 4)
	assert.Len(t, bm, 2)
}

func TestCreateRequestBitMapEmpty(t *testing.T) {
	assert.Nil(t, CreateRequestBitMap(0, 0))
}

func TestLegalAddressWithinMask(t *testing.T) {
	accessMask := []byte{0xFF, 0xFF}
	req := CreateRequestBitMap(0, 8)
	assert.True(t, LegalAddress(accessMask, req, 0))
}

func TestLegalAddressOutsideMask(t *testing.T) {
	accessMask := []byte{0x0F, 0x00}
	req := CreateRequestBitMap(0, 8)
	assert.False(t, LegalAddress(accessMask, req, 0))
}

func TestLegalAddressOutOfBounds(t *testing.T) {
	accessMask := []byte{0xFF}
	req := CreateRequestBitMap(0, 16)
	assert.False(t, LegalAddress(accessMask, req, 0))
}

func TestLegalAddressEmptyRequestIsIllegal(t *testing.T) {
	assert.False(t, LegalAddress([]byte{0xFF}, nil, 0))
}

func TestCopyDataBitsAlignedRoundTrip(t *testing.T) {
	from := []byte{0b10110101, 0x00}
	req := CreateRequestBitMap(0, 8)
	out := CopyDataBits(from, req, 0, 8)
	assert.Equal(t, []byte{0b10110101}, out)
}

func TestCopyDataBitsUnalignedRealignsToBitZero(t *testing.T) {
	from := []byte{0b11110000, 0b00001111}
	req := CreateRequestBitMap(4, 8)
	out := CopyDataBits(from, req, 4, 8)
	assert.Equal(t, []byte{0b11111111}, out)
}

func TestWriteCoilSetsAndClearsBit(t *testing.T) {
	data := []byte{0x00}
	WriteCoil(data, common.CoilOn, 3)
	assert.Equal(t, byte(0b00001000), data[0])

	WriteCoil(data, common.CoilOff, 3)
	assert.Equal(t, byte(0x00), data[0])
}

func TestWriteCoilsRespectsRequestMask(t *testing.T) {
	data := []byte{0xFF, 0xFF}
	req := CreateRequestBitMap(0, 8)
	statuses := []byte{0b00000000}
	WriteCoils(data, req, statuses, 0)
	assert.Equal(t, byte(0x00), data[0])
	assert.Equal(t, byte(0xFF), data[1], "bits outside the request bitmap must be untouched")
}

func TestCopyDataRegisters(t *testing.T) {
	from := []byte{0x00, 0x01, 0x00, 0x02, 0x00, 0x03}
	out := CopyDataRegisters(from, 1, 2)
	assert.Equal(t, []byte{0x00, 0x02, 0x00, 0x03}, out)
}

func TestWriteRegisterBigEndian(t *testing.T) {
	to := make([]byte, 4)
	WriteRegister(0x1234, to, 1)
	assert.Equal(t, []byte{0x00, 0x00, 0x12, 0x34}, to)
}

func TestWriteRegistersSequential(t *testing.T) {
	to := make([]byte, 6)
	WriteRegisters([]uint16{0x0001, 0x0002, 0x0003}, to, 0)
	assert.Equal(t, []byte{0x00, 0x01, 0x00, 0x02, 0x00, 0x03}, to)
}
