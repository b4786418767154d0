package pdu

import (
	"encoding/binary"

	"github.com/prairieworks/gomodbus/common"
)

// ReadWriteMultipleRegistersRequest writes a block of registers then reads
// a (possibly different) block back in the same transaction (function
// 0x17).
type ReadWriteMultipleRegistersRequest struct {
	ReadAddress  common.Address
	ReadQuantity common.Quantity
	WriteAddress common.Address
	WriteValues  []uint16
}

func (r *ReadWriteMultipleRegistersRequest) FunctionCode() common.FunctionCode {
	return common.FuncReadWriteMultipleRegisters
}
func (r *ReadWriteMultipleRegistersRequest) Direction() Direction { return DirectionRequest }
func (r *ReadWriteMultipleRegistersRequest) Size() int            { return 11 + 2*len(r.WriteValues) }

func (r *ReadWriteMultipleRegistersRequest) Serialize(unitID byte, dst []byte) error {
	if len(dst) < r.Size() {
		return malformed("read_write_multiple_registers_request: dst too short")
	}
	putHeader(dst, unitID, r.FunctionCode())
	binary.BigEndian.PutUint16(dst[2:4], uint16(r.ReadAddress))
	binary.BigEndian.PutUint16(dst[4:6], uint16(r.ReadQuantity))
	binary.BigEndian.PutUint16(dst[6:8], uint16(r.WriteAddress))
	binary.BigEndian.PutUint16(dst[8:10], uint16(len(r.WriteValues)))
	copy(dst[10:], packRegisters(r.WriteValues))
	return nil
}

func (r *ReadWriteMultipleRegistersRequest) Equal(other PDU) bool {
	o, ok := other.(*ReadWriteMultipleRegistersRequest)
	if !ok || o.ReadAddress != r.ReadAddress || o.ReadQuantity != r.ReadQuantity ||
		o.WriteAddress != r.WriteAddress || len(o.WriteValues) != len(r.WriteValues) {
		return false
	}
	for i := range r.WriteValues {
		if o.WriteValues[i] != r.WriteValues[i] {
			return false
		}
	}
	return true
}

func NewReadWriteMultipleRegistersRequest(readAddress common.Address, readQuantity common.Quantity, writeAddress common.Address, writeValues []uint16) (*ReadWriteMultipleRegistersRequest, error) {
	if readQuantity == 0 || readQuantity > common.MaxRegisterCount {
		return nil, malformed("read_write_multiple_registers_request: read quantity %d out of range", readQuantity)
	}
	if len(writeValues) == 0 || len(writeValues) > common.MaxRegisterCount {
		return nil, malformed("read_write_multiple_registers_request: write quantity %d out of range", len(writeValues))
	}
	return &ReadWriteMultipleRegistersRequest{
		ReadAddress:  readAddress,
		ReadQuantity: readQuantity,
		WriteAddress: writeAddress,
		WriteValues:  writeValues,
	}, nil
}

// ParseReadWriteMultipleRegistersRequest parses a cursor positioned at the
// unit id. The wire's write-quantity field is parsed but then discarded:
// the number of registers actually written is re-derived from the trailing
// byte-count field once the value list is read, exactly as the reference
// implementation does. A request whose write-quantity field disagrees with
// its byte count is accepted, not rejected -- the byte count wins.
func ParseReadWriteMultipleRegistersRequest(src []byte) (unitID byte, req *ReadWriteMultipleRegistersRequest, err error) {
	unitID, body, err := splitHeader("read_write_multiple_registers_request", src, common.FuncReadWriteMultipleRegisters)
	if err != nil {
		return 0, nil, err
	}
	if err := requireMinLen("read_write_multiple_registers_request", body, 9); err != nil {
		return 0, nil, err
	}
	readAddress := common.Address(binary.BigEndian.Uint16(body[0:2]))
	readQuantity := common.Quantity(binary.BigEndian.Uint16(body[2:4]))
	writeAddress := common.Address(binary.BigEndian.Uint16(body[4:6]))
	_ = binary.BigEndian.Uint16(body[6:8]) // write-quantity field: parsed, then overwritten below by byte count.

	byteCount := int(body[8])
	rest := body[9:]
	if len(rest) != byteCount {
		return 0, nil, malformed("read_write_multiple_registers_request: byte count %d does not match body length %d", byteCount, len(rest))
	}
	if byteCount%2 != 0 {
		return 0, nil, malformed("read_write_multiple_registers_request: odd byte count %d", byteCount)
	}
	writeValues := make([]uint16, byteCount/2)
	for i := range writeValues {
		writeValues[i] = binary.BigEndian.Uint16(rest[2*i : 2*i+2])
	}

	return unitID, &ReadWriteMultipleRegistersRequest{
		ReadAddress:  readAddress,
		ReadQuantity: readQuantity,
		WriteAddress: writeAddress,
		WriteValues:  writeValues,
	}, nil
}

// ReadWriteMultipleRegistersResponse carries the registers read back, using
// the same byte-count-prefixed register layout as ReadHoldingRegisters.
type ReadWriteMultipleRegistersResponse struct {
	Values []uint16
}

func (r *ReadWriteMultipleRegistersResponse) FunctionCode() common.FunctionCode {
	return common.FuncReadWriteMultipleRegisters
}
func (r *ReadWriteMultipleRegistersResponse) Direction() Direction { return DirectionResponse }
func (r *ReadWriteMultipleRegistersResponse) Size() int            { return 3 + 2*len(r.Values) }

func (r *ReadWriteMultipleRegistersResponse) Serialize(unitID byte, dst []byte) error {
	body := packRegisters(r.Values)
	if len(dst) < 2+len(body) {
		return malformed("read_write_multiple_registers_response: dst too short")
	}
	putHeader(dst, unitID, r.FunctionCode())
	copy(dst[2:], body)
	return nil
}

func (r *ReadWriteMultipleRegistersResponse) Equal(other PDU) bool {
	o, ok := other.(*ReadWriteMultipleRegistersResponse)
	if !ok || len(o.Values) != len(r.Values) {
		return false
	}
	for i := range r.Values {
		if o.Values[i] != r.Values[i] {
			return false
		}
	}
	return true
}

// ParseReadWriteMultipleRegistersResponse shares the ReadHoldingRegisters
// response layout, matching the reference implementation's delegation.
func ParseReadWriteMultipleRegistersResponse(src []byte, readQuantity common.Quantity) (unitID byte, resp *ReadWriteMultipleRegistersResponse, err error) {
	unitID, body, err := splitHeader("read_write_multiple_registers_response", src, common.FuncReadWriteMultipleRegisters)
	if err != nil {
		return 0, nil, err
	}
	values, err := unpackRegisters("read_write_multiple_registers_response", body, readQuantity)
	if err != nil {
		return 0, nil, err
	}
	return unitID, &ReadWriteMultipleRegistersResponse{Values: values}, nil
}
