package server

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prairieworks/gomodbus/access"
	"github.com/prairieworks/gomodbus/common"
)

func TestStoreCoilsRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	require.NoError(t, s.WriteMultipleCoils(ctx, common.Address(10), []common.CoilValue{true, false, true, true}))
	values, err := s.ReadCoils(ctx, common.Address(10), common.Quantity(4))
	require.NoError(t, err)
	assert.Equal(t, []common.CoilValue{true, false, true, true}, values)

	require.NoError(t, s.WriteSingleCoil(ctx, common.Address(20), true))
	values, err = s.ReadCoils(ctx, common.Address(20), common.Quantity(1))
	require.NoError(t, err)
	assert.Equal(t, []common.CoilValue{true}, values)
}

func TestStoreRegistersRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	require.NoError(t, s.WriteMultipleRegisters(ctx, common.Address(100), []uint16{0x1111, 0x2222}))
	values, err := s.ReadHoldingRegisters(ctx, common.Address(100), common.Quantity(2))
	require.NoError(t, err)
	assert.Equal(t, []uint16{0x1111, 0x2222}, values)

	s.SetInputRegister(common.Address(200), 0xBEEF)
	values, err = s.ReadInputRegisters(ctx, common.Address(200), common.Quantity(1))
	require.NoError(t, err)
	assert.Equal(t, []uint16{0xBEEF}, values)
}

func TestStoreMaskWriteRegister(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	s.SetHoldingRegister(common.Address(5), 0x1234)

	require.NoError(t, s.MaskWriteRegister(ctx, common.Address(5), 0xFF00, 0x00F0))
	values, err := s.ReadHoldingRegisters(ctx, common.Address(5), common.Quantity(1))
	require.NoError(t, err)
	assert.Equal(t, uint16(0x12F0), values[0])
}

func TestStoreAccessMaskDeniesOutOfRangeAddress(t *testing.T) {
	ctx := context.Background()
	mask := access.CreateRequestBitMap(0, 10) // only addresses 0..9 allowed
	s := NewStore(WithHoldingRegisterAccess(mask))

	_, err := s.ReadHoldingRegisters(ctx, common.Address(0), common.Quantity(5))
	require.NoError(t, err)

	_, err = s.ReadHoldingRegisters(ctx, common.Address(20), common.Quantity(1))
	assert.ErrorIs(t, err, ErrIllegalAddress)
}

func TestStoreNilAccessMaskPermitsEverything(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	_, err := s.ReadCoils(ctx, common.Address(65000), common.Quantity(10))
	assert.NoError(t, err)
}
