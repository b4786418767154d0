package server

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prairieworks/gomodbus/adu"
	"github.com/prairieworks/gomodbus/common"
	"github.com/prairieworks/gomodbus/pdu"
)

func buildRequest(t *testing.T, txID common.TransactionID, unitID common.UnitID, p pdu.PDU) adu.ADU {
	t.Helper()
	a, err := adu.NewRequestADU(txID, unitID, p)
	require.NoError(t, err)
	return a
}

func TestDispatchReadHoldingRegisters(t *testing.T) {
	store := NewStore()
	store.SetHoldingRegister(common.Address(10), 0xCAFE)
	d := newDispatcher(store)

	req, err := pdu.NewReadHoldingRegistersRequest(common.Address(10), common.Quantity(1))
	require.NoError(t, err)
	response := d.handle(context.Background(), buildRequest(t, 1, 1, req))

	assert.False(t, response.IsException())
	_, resp, err := pdu.ParseReadHoldingRegistersResponse(response.Bytes()[common.TCPHeaderSize:], common.Quantity(1))
	require.NoError(t, err)
	assert.Equal(t, []uint16{0xCAFE}, resp.Values)
}

func TestDispatchUnknownFunctionCodeReturnsIllegalFunction(t *testing.T) {
	d := newDispatcher(NewStore())

	// Function code 0x2B (encapsulated interface transport) is not wired
	// into the dispatcher's switch at all.
	raw := []byte{0, 1, 0, 0, 0, 2, 1, 0x2B}
	request, err := adu.FromBuffer(raw)
	require.NoError(t, err)

	response := d.handle(context.Background(), request)
	assert.True(t, response.IsException())

	_, exc, err := pdu.ParseExceptionResponse(response.Bytes()[common.TCPHeaderSize:])
	require.NoError(t, err)
	assert.Equal(t, common.ExceptionIllegalFunction, exc.Code)
}

func TestDispatchReadCoilsOutOfRangeQuantityIsIllegalDataValue(t *testing.T) {
	d := newDispatcher(NewStore())

	req, err := pdu.NewReadCoilsRequest(common.Address(0), common.Quantity(1))
	require.NoError(t, err)
	req.Quantity = common.MaxCoilCount + 1 // force an out-of-spec quantity onto an otherwise valid request
	response := d.handle(context.Background(), buildRequest(t, 1, 1, req))

	require.True(t, response.IsException())
	_, exc, err := pdu.ParseExceptionResponse(response.Bytes()[common.TCPHeaderSize:])
	require.NoError(t, err)
	assert.Equal(t, common.ExceptionIllegalDataValue, exc.Code)
}

func TestDispatchIllegalAddressFromAccessMask(t *testing.T) {
	mask := make([]byte, 2) // every bit clear: no address permitted
	store := NewStore(WithHoldingRegisterAccess(mask))
	d := newDispatcher(store)

	req, err := pdu.NewReadHoldingRegistersRequest(common.Address(0), common.Quantity(1))
	require.NoError(t, err)
	response := d.handle(context.Background(), buildRequest(t, 1, 1, req))

	require.True(t, response.IsException())
	_, exc, err := pdu.ParseExceptionResponse(response.Bytes()[common.TCPHeaderSize:])
	require.NoError(t, err)
	assert.Equal(t, common.ExceptionIllegalDataAddress, exc.Code)
}

func TestDispatchReadWriteMultipleRegistersWritesBeforeRead(t *testing.T) {
	store := NewStore()
	store.SetHoldingRegister(common.Address(5), 0x0001)
	d := newDispatcher(store)

	// Read the same address the write touches: the response must observe
	// the write, proving the write half runs before the read half.
	req, err := pdu.NewReadWriteMultipleRegistersRequest(
		common.Address(5), common.Quantity(1), common.Address(5), []uint16{0x9999})
	require.NoError(t, err)
	response := d.handle(context.Background(), buildRequest(t, 1, 1, req))

	require.False(t, response.IsException())
	_, resp, err := pdu.ParseReadWriteMultipleRegistersResponse(response.Bytes()[common.TCPHeaderSize:], common.Quantity(1))
	require.NoError(t, err)
	assert.Equal(t, []uint16{0x9999}, resp.Values)
}
