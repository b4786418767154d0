package pdu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prairieworks/gomodbus/common"
)

func serialize(t *testing.T, p PDU, unitID byte) []byte {
	t.Helper()
	buf := make([]byte, p.Size())
	require.NoError(t, p.Serialize(unitID, buf))
	return buf
}

func TestReadCoilsRequestRoundTrip(t *testing.T) {
	req, err := NewReadCoilsRequest(common.Address(100), common.Quantity(8))
	require.NoError(t, err)

	unitID, got, err := ParseReadCoilsRequest(serialize(t, req, 7))
	require.NoError(t, err)
	assert.Equal(t, byte(7), unitID)
	assert.True(t, req.Equal(got))
}

func TestNewReadCoilsRequestRejectsOutOfRangeQuantity(t *testing.T) {
	_, err := NewReadCoilsRequest(common.Address(0), common.Quantity(0))
	assert.ErrorIs(t, err, ErrMalformedMessage)

	_, err = NewReadCoilsRequest(common.Address(0), common.MaxCoilCount+1)
	assert.ErrorIs(t, err, ErrMalformedMessage)
}

func TestWriteSingleCoilRequestLenientDecode(t *testing.T) {
	// Any nonzero high byte means "on", regardless of the canonical
	// 0xFF00/0x0000 pair -- see SPEC_FULL.md §4.1 Open Question (a).
	raw := []byte{9, byte(common.FuncWriteSingleCoil), 0, 5, 0x01, 0x00}
	_, req, err := ParseWriteSingleCoilRequest(raw)
	require.NoError(t, err)
	assert.Equal(t, common.CoilValue(true), req.Value)
	assert.Equal(t, common.Address(5), req.Address)
}

func TestWriteSingleCoilRequestSerializesCanonicalWire(t *testing.T) {
	req := NewWriteSingleCoilRequest(common.Address(3), true)
	raw := serialize(t, req, 1)
	assert.Equal(t, byte(0xFF), raw[4])
	assert.Equal(t, byte(0x00), raw[5])
}

func TestReadWriteMultipleRegistersRequestDiscardsWireWriteQuantity(t *testing.T) {
	// Byte layout: unit id, function code, read addr(2), read qty(2),
	// write addr(2), write-quantity field(2, deliberately wrong), byte
	// count(1), register values. The wire's write-quantity field (99) must
	// be ignored in favor of byteCount/2 (2).
	raw := []byte{
		1, byte(common.FuncReadWriteMultipleRegisters),
		0, 10, // read address
		0, 2, // read quantity
		0, 20, // write address
		0, 99, // write-quantity field: wrong on purpose
		4,                // byte count: 4 bytes = 2 registers
		0xAA, 0xAA, 0xBB, 0xBB,
	}
	_, req, err := ParseReadWriteMultipleRegistersRequest(raw)
	require.NoError(t, err)
	assert.Equal(t, []uint16{0xAAAA, 0xBBBB}, req.WriteValues)
}

func TestExceptionResponseRoundTrip(t *testing.T) {
	resp := NewExceptionResponse(common.FuncReadHoldingRegisters, common.ExceptionIllegalDataAddress)
	raw := serialize(t, resp, 2)

	unitID, got, err := ParseExceptionResponse(raw)
	require.NoError(t, err)
	assert.Equal(t, byte(2), unitID)
	assert.Equal(t, common.FuncReadHoldingRegisters, got.RequestFunctionCode)
	assert.Equal(t, common.ExceptionIllegalDataAddress, got.Code)
	assert.True(t, got.FunctionCode()&common.ExceptionBit != 0)
}

func TestMaskWriteRegisterRequestRoundTrip(t *testing.T) {
	req := NewMaskWriteRegisterRequest(common.Address(42), 0xFF00, 0x00F0)
	_, got, err := ParseMaskWriteRegisterRequest(serialize(t, req, 1))
	require.NoError(t, err)
	assert.True(t, req.Equal(got))
}
