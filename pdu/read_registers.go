package pdu

import (
	"encoding/binary"

	"github.com/prairieworks/gomodbus/common"
)

func packRegisters(values []uint16) []byte {
	out := make([]byte, 1+2*len(values))
	out[0] = byte(2 * len(values))
	for i, v := range values {
		binary.BigEndian.PutUint16(out[1+2*i:3+2*i], v)
	}
	return out
}

func unpackRegisters(variant string, body []byte, quantity common.Quantity) ([]uint16, error) {
	if err := requireMinLen(variant, body, 1); err != nil {
		return nil, err
	}
	byteCount := int(body[0])
	if len(body) != 1+byteCount {
		return nil, malformed("%s: byte count %d does not match body length %d", variant, byteCount, len(body)-1)
	}
	if byteCount != int(quantity)*2 {
		return nil, malformed("%s: byte count %d does not match quantity %d", variant, byteCount, quantity)
	}
	values := make([]uint16, quantity)
	for i := range values {
		values[i] = binary.BigEndian.Uint16(body[1+2*i : 3+2*i])
	}
	return values, nil
}

// ReadHoldingRegistersRequest reads holding registers (function 0x03).
type ReadHoldingRegistersRequest struct {
	Address  common.Address
	Quantity common.Quantity
}

func (r *ReadHoldingRegistersRequest) FunctionCode() common.FunctionCode {
	return common.FuncReadHoldingRegisters
}
func (r *ReadHoldingRegistersRequest) Direction() Direction { return DirectionRequest }
func (r *ReadHoldingRegistersRequest) Size() int            { return 6 }

func (r *ReadHoldingRegistersRequest) Serialize(unitID byte, dst []byte) error {
	if len(dst) < r.Size() {
		return malformed("read_holding_registers_request: dst too short")
	}
	putHeader(dst, unitID, r.FunctionCode())
	binary.BigEndian.PutUint16(dst[2:4], uint16(r.Address))
	binary.BigEndian.PutUint16(dst[4:6], uint16(r.Quantity))
	return nil
}

func (r *ReadHoldingRegistersRequest) Equal(other PDU) bool {
	o, ok := other.(*ReadHoldingRegistersRequest)
	return ok && *o == *r
}

func NewReadHoldingRegistersRequest(address common.Address, quantity common.Quantity) (*ReadHoldingRegistersRequest, error) {
	if quantity == 0 || quantity > common.MaxRegisterCount {
		return nil, malformed("read_holding_registers_request: quantity %d out of range", quantity)
	}
	return &ReadHoldingRegistersRequest{Address: address, Quantity: quantity}, nil
}

func ParseReadHoldingRegistersRequest(src []byte) (unitID byte, req *ReadHoldingRegistersRequest, err error) {
	unitID, body, err := splitHeader("read_holding_registers_request", src, common.FuncReadHoldingRegisters)
	if err != nil {
		return 0, nil, err
	}
	if err := requireLen("read_holding_registers_request", body, 4); err != nil {
		return 0, nil, err
	}
	return unitID, &ReadHoldingRegistersRequest{
		Address:  common.Address(binary.BigEndian.Uint16(body[0:2])),
		Quantity: common.Quantity(binary.BigEndian.Uint16(body[2:4])),
	}, nil
}

// ReadHoldingRegistersResponse carries the register values read back.
type ReadHoldingRegistersResponse struct {
	Values []uint16
}

func (r *ReadHoldingRegistersResponse) FunctionCode() common.FunctionCode {
	return common.FuncReadHoldingRegisters
}
func (r *ReadHoldingRegistersResponse) Direction() Direction { return DirectionResponse }
func (r *ReadHoldingRegistersResponse) Size() int            { return 3 + 2*len(r.Values) }

func (r *ReadHoldingRegistersResponse) Serialize(unitID byte, dst []byte) error {
	body := packRegisters(r.Values)
	if len(dst) < 2+len(body) {
		return malformed("read_holding_registers_response: dst too short")
	}
	putHeader(dst, unitID, r.FunctionCode())
	copy(dst[2:], body)
	return nil
}

func (r *ReadHoldingRegistersResponse) Equal(other PDU) bool {
	o, ok := other.(*ReadHoldingRegistersResponse)
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

func ParseReadHoldingRegistersResponse(src []byte, quantity common.Quantity) (unitID byte, resp *ReadHoldingRegistersResponse, err error) {
	unitID, body, err := splitHeader("read_holding_registers_response", src, common.FuncReadHoldingRegisters)
	if err != nil {
		return 0, nil, err
	}
	values, err := unpackRegisters("read_holding_registers_response", body, quantity)
	if err != nil {
		return 0, nil, err
	}
	return unitID, &ReadHoldingRegistersResponse{Values: values}, nil
}

// ReadInputRegistersRequest reads input registers (function 0x04).
type ReadInputRegistersRequest struct {
	Address  common.Address
	Quantity common.Quantity
}

func (r *ReadInputRegistersRequest) FunctionCode() common.FunctionCode {
	return common.FuncReadInputRegisters
}
func (r *ReadInputRegistersRequest) Direction() Direction { return DirectionRequest }
func (r *ReadInputRegistersRequest) Size() int            { return 6 }

func (r *ReadInputRegistersRequest) Serialize(unitID byte, dst []byte) error {
	if len(dst) < r.Size() {
		return malformed("read_input_registers_request: dst too short")
	}
	putHeader(dst, unitID, r.FunctionCode())
	binary.BigEndian.PutUint16(dst[2:4], uint16(r.Address))
	binary.BigEndian.PutUint16(dst[4:6], uint16(r.Quantity))
	return nil
}

func (r *ReadInputRegistersRequest) Equal(other PDU) bool {
	o, ok := other.(*ReadInputRegistersRequest)
	return ok && *o == *r
}

func NewReadInputRegistersRequest(address common.Address, quantity common.Quantity) (*ReadInputRegistersRequest, error) {
	if quantity == 0 || quantity > common.MaxRegisterCount {
		return nil, malformed("read_input_registers_request: quantity %d out of range", quantity)
	}
	return &ReadInputRegistersRequest{Address: address, Quantity: quantity}, nil
}

func ParseReadInputRegistersRequest(src []byte) (unitID byte, req *ReadInputRegistersRequest, err error) {
	unitID, body, err := splitHeader("read_input_registers_request", src, common.FuncReadInputRegisters)
	if err != nil {
		return 0, nil, err
	}
	if err := requireLen("read_input_registers_request", body, 4); err != nil {
		return 0, nil, err
	}
	return unitID, &ReadInputRegistersRequest{
		Address:  common.Address(binary.BigEndian.Uint16(body[0:2])),
		Quantity: common.Quantity(binary.BigEndian.Uint16(body[2:4])),
	}, nil
}

// ReadInputRegistersResponse carries the register values read back.
type ReadInputRegistersResponse struct {
	Values []uint16
}

func (r *ReadInputRegistersResponse) FunctionCode() common.FunctionCode {
	return common.FuncReadInputRegisters
}
func (r *ReadInputRegistersResponse) Direction() Direction { return DirectionResponse }
func (r *ReadInputRegistersResponse) Size() int            { return 3 + 2*len(r.Values) }

func (r *ReadInputRegistersResponse) Serialize(unitID byte, dst []byte) error {
	body := packRegisters(r.Values)
	if len(dst) < 2+len(body) {
		return malformed("read_input_registers_response: dst too short")
	}
	putHeader(dst, unitID, r.FunctionCode())
	copy(dst[2:], body)
	return nil
}

func (r *ReadInputRegistersResponse) Equal(other PDU) bool {
	o, ok := other.(*ReadInputRegistersResponse)
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

func ParseReadInputRegistersResponse(src []byte, quantity common.Quantity) (unitID byte, resp *ReadInputRegistersResponse, err error) {
	unitID, body, err := splitHeader("read_input_registers_response", src, common.FuncReadInputRegisters)
	if err != nil {
		return 0, nil, err
	}
	values, err := unpackRegisters("read_input_registers_response", body, quantity)
	if err != nil {
		return 0, nil, err
	}
	return unitID, &ReadInputRegistersResponse{Values: values}, nil
}
