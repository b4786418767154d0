package client

import (
	"context"

	"github.com/prairieworks/gomodbus/adu"
	"github.com/prairieworks/gomodbus/common"
	"github.com/prairieworks/gomodbus/pdu"
)

// ReadCoils reads quantity coils starting at address.
func (c *Client) ReadCoils(ctx context.Context, address common.Address, quantity common.Quantity) ([]common.CoilValue, error) {
	req, err := pdu.NewReadCoilsRequest(address, quantity)
	if err != nil {
		return nil, err
	}
	response, err := c.sendRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	if modbusErr, isExc := asException(response); isExc {
		return nil, modbusErr
	}
	resp, ok := adu.Extract(response, common.FuncReadCoils, pdu.DirectionResponse, func(body []byte) (byte, *pdu.ReadCoilsResponse, error) {
		return pdu.ParseReadCoilsResponse(body, quantity)
	})
	if !ok {
		return nil, ErrInvalidResponse
	}
	return resp.Values, nil
}

// ReadDiscreteInputs reads quantity discrete inputs starting at address.
func (c *Client) ReadDiscreteInputs(ctx context.Context, address common.Address, quantity common.Quantity) ([]common.CoilValue, error) {
	req, err := pdu.NewReadDiscreteInputsRequest(address, quantity)
	if err != nil {
		return nil, err
	}
	response, err := c.sendRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	if modbusErr, isExc := asException(response); isExc {
		return nil, modbusErr
	}
	resp, ok := adu.Extract(response, common.FuncReadDiscreteInputs, pdu.DirectionResponse, func(body []byte) (byte, *pdu.ReadDiscreteInputsResponse, error) {
		return pdu.ParseReadDiscreteInputsResponse(body, quantity)
	})
	if !ok {
		return nil, ErrInvalidResponse
	}
	return resp.Values, nil
}

// ReadHoldingRegisters reads quantity holding registers starting at address.
func (c *Client) ReadHoldingRegisters(ctx context.Context, address common.Address, quantity common.Quantity) ([]uint16, error) {
	req, err := pdu.NewReadHoldingRegistersRequest(address, quantity)
	if err != nil {
		return nil, err
	}
	response, err := c.sendRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	if modbusErr, isExc := asException(response); isExc {
		return nil, modbusErr
	}
	resp, ok := adu.Extract(response, common.FuncReadHoldingRegisters, pdu.DirectionResponse, func(body []byte) (byte, *pdu.ReadHoldingRegistersResponse, error) {
		return pdu.ParseReadHoldingRegistersResponse(body, quantity)
	})
	if !ok {
		return nil, ErrInvalidResponse
	}
	return resp.Values, nil
}

// ReadInputRegisters reads quantity input registers starting at address.
func (c *Client) ReadInputRegisters(ctx context.Context, address common.Address, quantity common.Quantity) ([]uint16, error) {
	req, err := pdu.NewReadInputRegistersRequest(address, quantity)
	if err != nil {
		return nil, err
	}
	response, err := c.sendRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	if modbusErr, isExc := asException(response); isExc {
		return nil, modbusErr
	}
	resp, ok := adu.Extract(response, common.FuncReadInputRegisters, pdu.DirectionResponse, func(body []byte) (byte, *pdu.ReadInputRegistersResponse, error) {
		return pdu.ParseReadInputRegistersResponse(body, quantity)
	})
	if !ok {
		return nil, ErrInvalidResponse
	}
	return resp.Values, nil
}

// WriteSingleCoil forces a single coil on or off.
func (c *Client) WriteSingleCoil(ctx context.Context, address common.Address, value common.CoilValue) error {
	req := pdu.NewWriteSingleCoilRequest(address, value)
	response, err := c.sendRequest(ctx, req)
	if err != nil {
		return err
	}
	if modbusErr, isExc := asException(response); isExc {
		return modbusErr
	}
	_, ok := adu.Extract(response, common.FuncWriteSingleCoil, pdu.DirectionResponse, pdu.ParseWriteSingleCoilResponse)
	if !ok {
		return ErrInvalidResponse
	}
	return nil
}

// WriteSingleRegister writes a single holding register.
func (c *Client) WriteSingleRegister(ctx context.Context, address common.Address, value uint16) error {
	req := pdu.NewWriteSingleRegisterRequest(address, value)
	response, err := c.sendRequest(ctx, req)
	if err != nil {
		return err
	}
	if modbusErr, isExc := asException(response); isExc {
		return modbusErr
	}
	_, ok := adu.Extract(response, common.FuncWriteSingleRegister, pdu.DirectionResponse, pdu.ParseWriteSingleRegisterResponse)
	if !ok {
		return ErrInvalidResponse
	}
	return nil
}

// WriteMultipleCoils forces a contiguous block of coils.
func (c *Client) WriteMultipleCoils(ctx context.Context, address common.Address, values []common.CoilValue) error {
	req, err := pdu.NewWriteMultipleCoilsRequest(address, values)
	if err != nil {
		return err
	}
	response, err := c.sendRequest(ctx, req)
	if err != nil {
		return err
	}
	if modbusErr, isExc := asException(response); isExc {
		return modbusErr
	}
	_, ok := adu.Extract(response, common.FuncWriteMultipleCoils, pdu.DirectionResponse, pdu.ParseWriteMultipleCoilsResponse)
	if !ok {
		return ErrInvalidResponse
	}
	return nil
}

// WriteMultipleRegisters writes a contiguous block of holding registers.
func (c *Client) WriteMultipleRegisters(ctx context.Context, address common.Address, values []uint16) error {
	req, err := pdu.NewWriteMultipleRegistersRequest(address, values)
	if err != nil {
		return err
	}
	response, err := c.sendRequest(ctx, req)
	if err != nil {
		return err
	}
	if modbusErr, isExc := asException(response); isExc {
		return modbusErr
	}
	_, ok := adu.Extract(response, common.FuncWriteMultipleRegisters, pdu.DirectionResponse, pdu.ParseWriteMultipleRegistersResponse)
	if !ok {
		return ErrInvalidResponse
	}
	return nil
}

// MaskWriteRegister performs a read-modify-write on a single register using
// andMask/orMask.
func (c *Client) MaskWriteRegister(ctx context.Context, address common.Address, andMask, orMask uint16) error {
	req := pdu.NewMaskWriteRegisterRequest(address, andMask, orMask)
	response, err := c.sendRequest(ctx, req)
	if err != nil {
		return err
	}
	if modbusErr, isExc := asException(response); isExc {
		return modbusErr
	}
	_, ok := adu.Extract(response, common.FuncMaskWriteRegister, pdu.DirectionResponse, pdu.ParseMaskWriteRegisterResponse)
	if !ok {
		return ErrInvalidResponse
	}
	return nil
}

// ReadWriteMultipleRegisters writes writeValues at writeAddress then reads
// readQuantity registers back from readAddress, as a single transaction.
func (c *Client) ReadWriteMultipleRegisters(ctx context.Context, readAddress common.Address, readQuantity common.Quantity, writeAddress common.Address, writeValues []uint16) ([]uint16, error) {
	req, err := pdu.NewReadWriteMultipleRegistersRequest(readAddress, readQuantity, writeAddress, writeValues)
	if err != nil {
		return nil, err
	}
	response, err := c.sendRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	if modbusErr, isExc := asException(response); isExc {
		return nil, modbusErr
	}
	resp, ok := adu.Extract(response, common.FuncReadWriteMultipleRegisters, pdu.DirectionResponse, func(body []byte) (byte, *pdu.ReadWriteMultipleRegistersResponse, error) {
		return pdu.ParseReadWriteMultipleRegistersResponse(body, readQuantity)
	})
	if !ok {
		return nil, ErrInvalidResponse
	}
	return resp.Values, nil
}
