package server

import (
	"context"
	"errors"

	"github.com/prairieworks/gomodbus/adu"
	"github.com/prairieworks/gomodbus/common"
	"github.com/prairieworks/gomodbus/pdu"
)

// dispatcher routes an incoming request ADU to the Store operation its
// function code names and builds the matching response PDU, or an
// exception PDU when the request cannot be honored. An unrecognized
// function code always yields illegal_function, matching the reference
// server's handler-lookup-miss behavior.
type dispatcher struct {
	store *Store
}

func newDispatcher(store *Store) *dispatcher {
	return &dispatcher{store: store}
}

// handle builds the full response ADU for request, reusing its
// transaction id and unit id.
func (d *dispatcher) handle(ctx context.Context, request adu.ADU) adu.ADU {
	txID := request.TransactionID()
	unitID := request.UnitID()
	fc := request.FunctionCode()

	var response pdu.PDU
	switch fc {
	case common.FuncReadCoils:
		response = d.readCoils(ctx, request)
	case common.FuncReadDiscreteInputs:
		response = d.readDiscreteInputs(ctx, request)
	case common.FuncReadHoldingRegisters:
		response = d.readHoldingRegisters(ctx, request)
	case common.FuncReadInputRegisters:
		response = d.readInputRegisters(ctx, request)
	case common.FuncWriteSingleCoil:
		response = d.writeSingleCoil(ctx, request)
	case common.FuncWriteSingleRegister:
		response = d.writeSingleRegister(ctx, request)
	case common.FuncWriteMultipleCoils:
		response = d.writeMultipleCoils(ctx, request)
	case common.FuncWriteMultipleRegisters:
		response = d.writeMultipleRegisters(ctx, request)
	case common.FuncMaskWriteRegister:
		response = d.maskWriteRegister(ctx, request)
	case common.FuncReadWriteMultipleRegisters:
		response = d.readWriteMultipleRegisters(ctx, request)
	default:
		response = pdu.NewExceptionResponse(fc, common.ExceptionIllegalFunction)
	}

	out, err := adu.NewRequestADU(txID, unitID, response)
	if err != nil {
		// The dispatcher only ever hands itself well-formed PDUs, so this
		// should not happen; fall back to a generic exception rather than
		// leave the session with nothing to write.
		out, _ = adu.NewRequestADU(txID, unitID, pdu.NewExceptionResponse(fc, common.ExceptionServerDeviceFailure))
	}
	return out
}

// exceptionFor maps a Store error to the exception code the reference
// implementation's handlers use for the same failure.
func exceptionFor(fc common.FunctionCode, err error) pdu.PDU {
	switch {
	case errors.Is(err, ErrIllegalAddress):
		return pdu.NewExceptionResponse(fc, common.ExceptionIllegalDataAddress)
	case errors.Is(err, pdu.ErrMalformedMessage):
		return pdu.NewExceptionResponse(fc, common.ExceptionIllegalDataValue)
	default:
		return pdu.NewExceptionResponse(fc, common.ExceptionServerDeviceFailure)
	}
}

func illegalValue(fc common.FunctionCode) pdu.PDU {
	return pdu.NewExceptionResponse(fc, common.ExceptionIllegalDataValue)
}

func (d *dispatcher) readCoils(ctx context.Context, request adu.ADU) pdu.PDU {
	fc := common.FuncReadCoils
	req, ok := adu.Extract(request, fc, pdu.DirectionRequest, pdu.ParseReadCoilsRequest)
	if !ok {
		return illegalValue(fc)
	}
	if req.Quantity == 0 || req.Quantity > common.MaxCoilCount {
		return illegalValue(fc)
	}
	values, err := d.store.ReadCoils(ctx, req.Address, req.Quantity)
	if err != nil {
		return exceptionFor(fc, err)
	}
	return &pdu.ReadCoilsResponse{Values: values}
}

func (d *dispatcher) readDiscreteInputs(ctx context.Context, request adu.ADU) pdu.PDU {
	fc := common.FuncReadDiscreteInputs
	req, ok := adu.Extract(request, fc, pdu.DirectionRequest, pdu.ParseReadDiscreteInputsRequest)
	if !ok {
		return illegalValue(fc)
	}
	if req.Quantity == 0 || req.Quantity > common.MaxCoilCount {
		return illegalValue(fc)
	}
	values, err := d.store.ReadDiscreteInputs(ctx, req.Address, req.Quantity)
	if err != nil {
		return exceptionFor(fc, err)
	}
	return &pdu.ReadDiscreteInputsResponse{Values: values}
}

func (d *dispatcher) readHoldingRegisters(ctx context.Context, request adu.ADU) pdu.PDU {
	fc := common.FuncReadHoldingRegisters
	req, ok := adu.Extract(request, fc, pdu.DirectionRequest, pdu.ParseReadHoldingRegistersRequest)
	if !ok {
		return illegalValue(fc)
	}
	if req.Quantity == 0 || req.Quantity > common.MaxRegisterCount {
		return illegalValue(fc)
	}
	values, err := d.store.ReadHoldingRegisters(ctx, req.Address, req.Quantity)
	if err != nil {
		return exceptionFor(fc, err)
	}
	return &pdu.ReadHoldingRegistersResponse{Values: values}
}

func (d *dispatcher) readInputRegisters(ctx context.Context, request adu.ADU) pdu.PDU {
	fc := common.FuncReadInputRegisters
	req, ok := adu.Extract(request, fc, pdu.DirectionRequest, pdu.ParseReadInputRegistersRequest)
	if !ok {
		return illegalValue(fc)
	}
	if req.Quantity == 0 || req.Quantity > common.MaxRegisterCount {
		return illegalValue(fc)
	}
	values, err := d.store.ReadInputRegisters(ctx, req.Address, req.Quantity)
	if err != nil {
		return exceptionFor(fc, err)
	}
	return &pdu.ReadInputRegistersResponse{Values: values}
}

func (d *dispatcher) writeSingleCoil(ctx context.Context, request adu.ADU) pdu.PDU {
	fc := common.FuncWriteSingleCoil
	req, ok := adu.Extract(request, fc, pdu.DirectionRequest, pdu.ParseWriteSingleCoilRequest)
	if !ok {
		return illegalValue(fc)
	}
	if err := d.store.WriteSingleCoil(ctx, req.Address, req.Value); err != nil {
		return exceptionFor(fc, err)
	}
	return &pdu.WriteSingleCoilResponse{Address: req.Address, Value: req.Value}
}

func (d *dispatcher) writeSingleRegister(ctx context.Context, request adu.ADU) pdu.PDU {
	fc := common.FuncWriteSingleRegister
	req, ok := adu.Extract(request, fc, pdu.DirectionRequest, pdu.ParseWriteSingleRegisterRequest)
	if !ok {
		return illegalValue(fc)
	}
	if err := d.store.WriteSingleRegister(ctx, req.Address, req.Value); err != nil {
		return exceptionFor(fc, err)
	}
	return &pdu.WriteSingleRegisterResponse{Address: req.Address, Value: req.Value}
}

func (d *dispatcher) writeMultipleCoils(ctx context.Context, request adu.ADU) pdu.PDU {
	fc := common.FuncWriteMultipleCoils
	req, ok := adu.Extract(request, fc, pdu.DirectionRequest, pdu.ParseWriteMultipleCoilsRequest)
	if !ok {
		return illegalValue(fc)
	}
	if len(req.Values) == 0 || len(req.Values) > common.MaxCoilCount {
		return illegalValue(fc)
	}
	if err := d.store.WriteMultipleCoils(ctx, req.Address, req.Values); err != nil {
		return exceptionFor(fc, err)
	}
	return &pdu.WriteMultipleCoilsResponse{Address: req.Address, Quantity: common.Quantity(len(req.Values))}
}

func (d *dispatcher) writeMultipleRegisters(ctx context.Context, request adu.ADU) pdu.PDU {
	fc := common.FuncWriteMultipleRegisters
	req, ok := adu.Extract(request, fc, pdu.DirectionRequest, pdu.ParseWriteMultipleRegistersRequest)
	if !ok {
		return illegalValue(fc)
	}
	if len(req.Values) == 0 || len(req.Values) > common.MaxRegisterCount {
		return illegalValue(fc)
	}
	if err := d.store.WriteMultipleRegisters(ctx, req.Address, req.Values); err != nil {
		return exceptionFor(fc, err)
	}
	return &pdu.WriteMultipleRegistersResponse{Address: req.Address, Quantity: common.Quantity(len(req.Values))}
}

func (d *dispatcher) maskWriteRegister(ctx context.Context, request adu.ADU) pdu.PDU {
	fc := common.FuncMaskWriteRegister
	req, ok := adu.Extract(request, fc, pdu.DirectionRequest, pdu.ParseMaskWriteRegisterRequest)
	if !ok {
		return illegalValue(fc)
	}
	if err := d.store.MaskWriteRegister(ctx, req.Address, req.AndMask, req.OrMask); err != nil {
		return exceptionFor(fc, err)
	}
	return &pdu.MaskWriteRegisterResponse{Address: req.Address, AndMask: req.AndMask, OrMask: req.OrMask}
}

// readWriteMultipleRegisters performs the write half before the read half,
// matching the function's definition: a single transaction in which the
// write is applied first, then the (possibly overlapping) read observes it.
func (d *dispatcher) readWriteMultipleRegisters(ctx context.Context, request adu.ADU) pdu.PDU {
	fc := common.FuncReadWriteMultipleRegisters
	req, ok := adu.Extract(request, fc, pdu.DirectionRequest, pdu.ParseReadWriteMultipleRegistersRequest)
	if !ok {
		return illegalValue(fc)
	}
	if req.ReadQuantity == 0 || req.ReadQuantity > common.MaxRegisterCount {
		return illegalValue(fc)
	}
	if len(req.WriteValues) == 0 || len(req.WriteValues) > common.MaxRegisterCount {
		return illegalValue(fc)
	}
	if err := d.store.WriteMultipleRegisters(ctx, req.WriteAddress, req.WriteValues); err != nil {
		return exceptionFor(fc, err)
	}
	values, err := d.store.ReadHoldingRegisters(ctx, req.ReadAddress, req.ReadQuantity)
	if err != nil {
		return exceptionFor(fc, err)
	}
	return &pdu.ReadWriteMultipleRegistersResponse{Values: values}
}
