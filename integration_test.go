package gomodbus

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/prairieworks/gomodbus/client"
	"github.com/prairieworks/gomodbus/common"
	"github.com/prairieworks/gomodbus/logging"
	"github.com/prairieworks/gomodbus/server"
)

// TestClientServerIntegration drives a real client.Client against a real
// server.TCPServer over loopback TCP, exercising every function code the
// dispatcher supports except read_discrete_inputs end to end.
func TestClientServerIntegration(t *testing.T) {
	logger := logging.NewLogger(logging.WithLevel(common.LevelDebug))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store := server.NewStore()
	store.SetCoil(common.Address(1000), true)
	store.SetCoil(common.Address(1001), false)
	store.SetCoil(common.Address(1002), true)
	store.SetHoldingRegister(common.Address(2000), 0x1234)
	store.SetHoldingRegister(common.Address(2001), 0x5678)
	store.SetInputRegister(common.Address(3000), 0xABCD)
	store.SetInputRegister(common.Address(3001), 0xEF01)

	srv := server.NewTCPServer("127.0.0.1",
		server.WithServerPort(0),
		server.WithServerLogger(logger),
		server.WithServerStore(store),
	)
	require.NoError(t, srv.Start(ctx))
	defer srv.Stop(context.Background())

	_, portStr, err := net.SplitHostPort(srv.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	c := client.New("127.0.0.1", port,
		client.WithUnitID(1),
		client.WithTimeout(5*time.Second),
		client.WithLogger(logger),
	)
	defer c.Close()

	coils, err := c.ReadCoils(ctx, common.Address(1000), common.Quantity(3))
	require.NoError(t, err)
	require.Equal(t, []common.CoilValue{true, false, true}, coils)

	holdingRegisters, err := c.ReadHoldingRegisters(ctx, common.Address(2000), common.Quantity(2))
	require.NoError(t, err)
	require.Equal(t, []uint16{0x1234, 0x5678}, holdingRegisters)

	inputRegisters, err := c.ReadInputRegisters(ctx, common.Address(3000), common.Quantity(2))
	require.NoError(t, err)
	require.Equal(t, []uint16{0xABCD, 0xEF01}, inputRegisters)

	require.NoError(t, c.WriteSingleCoil(ctx, common.Address(1010), common.CoilValue(true)))
	written, err := store.ReadCoils(ctx, common.Address(1010), common.Quantity(1))
	require.NoError(t, err)
	require.Equal(t, []common.CoilValue{true}, written)

	require.NoError(t, c.WriteSingleRegister(ctx, common.Address(2010), 0x4321))
	reg, err := store.ReadHoldingRegisters(ctx, common.Address(2010), common.Quantity(1))
	require.NoError(t, err)
	require.Equal(t, []uint16{0x4321}, reg)

	coilValues := []common.CoilValue{true, false, true, false}
	require.NoError(t, c.WriteMultipleCoils(ctx, common.Address(1020), coilValues))
	gotCoils, err := store.ReadCoils(ctx, common.Address(1020), common.Quantity(len(coilValues)))
	require.NoError(t, err)
	require.Equal(t, coilValues, gotCoils)

	registerValues := []uint16{0x1111, 0x2222, 0x3333}
	require.NoError(t, c.WriteMultipleRegisters(ctx, common.Address(2020), registerValues))
	gotRegisters, err := store.ReadHoldingRegisters(ctx, common.Address(2020), common.Quantity(len(registerValues)))
	require.NoError(t, err)
	require.Equal(t, registerValues, gotRegisters)

	require.NoError(t, c.MaskWriteRegister(ctx, common.Address(2020), 0xFF00, 0x00FF))
	masked, err := store.ReadHoldingRegisters(ctx, common.Address(2020), common.Quantity(1))
	require.NoError(t, err)
	require.Equal(t, uint16((0x1111&0xFF00)|(0x00FF&^0xFF00)), masked[0])

	writeAddress := common.Address(2030)
	writeValues := []uint16{0xAAAA, 0xBBBB}
	readValues, err := c.ReadWriteMultipleRegisters(
		ctx, common.Address(2000), common.Quantity(2), writeAddress, writeValues)
	require.NoError(t, err)
	require.Equal(t, []uint16{0x1234, 0x5678}, readValues)

	gotWrite, err := store.ReadHoldingRegisters(ctx, writeAddress, common.Quantity(len(writeValues)))
	require.NoError(t, err)
	require.Equal(t, writeValues, gotWrite)

	clients := srv.ConnectedClients()
	require.Len(t, clients, 1)
	require.Greater(t, clients[0].RxTransactions, uint64(0))
}
