package adu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prairieworks/gomodbus/common"
	"github.com/prairieworks/gomodbus/pdu"
)

func TestNewRequestADURoundTripsThroughFromBuffer(t *testing.T) {
	req, err := pdu.NewReadCoilsRequest(common.Address(10), common.Quantity(5))
	require.NoError(t, err)

	a, err := NewRequestADU(common.TransactionID(42), common.UnitID(3), req)
	require.NoError(t, err)
	assert.Equal(t, common.TransactionID(42), a.TransactionID())
	assert.Equal(t, common.UnitID(3), a.UnitID())
	assert.Equal(t, common.FuncReadCoils, a.FunctionCode())
	assert.False(t, a.IsException())

	again, err := FromBuffer(a.Bytes())
	require.NoError(t, err)
	assert.Equal(t, a.TransactionID(), again.TransactionID())
	assert.Equal(t, a.Bytes(), again.Bytes())
}

func TestFromHeaderAndPayloadRejectsLengthMismatch(t *testing.T) {
	header := make([]byte, common.TCPHeaderSize)
	header[4], header[5] = 0, 5 // claims 5 bytes of payload
	_, err := FromHeaderAndPayload(header, []byte{1, 2})
	assert.Error(t, err)
}

func TestExtractFailsClosedOnFunctionCodeMismatch(t *testing.T) {
	req, err := pdu.NewReadCoilsRequest(common.Address(1), common.Quantity(1))
	require.NoError(t, err)
	a, err := NewRequestADU(1, 1, req)
	require.NoError(t, err)

	_, ok := Extract(a, common.FuncReadHoldingRegisters, pdu.DirectionRequest, pdu.ParseReadHoldingRegistersRequest)
	assert.False(t, ok)
}

func TestExtractFailsClosedOnEmptyADU(t *testing.T) {
	var empty ADU
	_, ok := Extract(empty, common.FuncReadCoils, pdu.DirectionRequest, pdu.ParseReadCoilsRequest)
	assert.False(t, ok)
}

func TestExtractSucceedsOnMatchingRequest(t *testing.T) {
	req, err := pdu.NewReadCoilsRequest(common.Address(7), common.Quantity(3))
	require.NoError(t, err)
	a, err := NewRequestADU(1, 1, req)
	require.NoError(t, err)

	got, ok := Extract(a, common.FuncReadCoils, pdu.DirectionRequest, pdu.ParseReadCoilsRequest)
	require.True(t, ok)
	assert.Equal(t, req.Address, got.Address)
	assert.Equal(t, req.Quantity, got.Quantity)
}
