package pdu

import (
	"encoding/binary"

	"github.com/prairieworks/gomodbus/common"
)

// WriteMultipleCoilsRequest forces a contiguous block of coils (function 0x0F).
type WriteMultipleCoilsRequest struct {
	Address common.Address
	Values  []common.CoilValue
}

func (r *WriteMultipleCoilsRequest) FunctionCode() common.FunctionCode {
	return common.FuncWriteMultipleCoils
}
func (r *WriteMultipleCoilsRequest) Direction() Direction { return DirectionRequest }
func (r *WriteMultipleCoilsRequest) Size() int            { return 2 + 4 + len(packBitsFromCoils(r.Values)) }

func (r *WriteMultipleCoilsRequest) Serialize(unitID byte, dst []byte) error {
	packed := packBitsFromCoils(r.Values)
	need := 2 + 4 + len(packed)
	if len(dst) < need {
		return malformed("write_multiple_coils_request: dst too short")
	}
	putHeader(dst, unitID, r.FunctionCode())
	binary.BigEndian.PutUint16(dst[2:4], uint16(r.Address))
	binary.BigEndian.PutUint16(dst[4:6], uint16(len(r.Values)))
	copy(dst[6:], packed)
	return nil
}

func (r *WriteMultipleCoilsRequest) Equal(other PDU) bool {
	o, ok := other.(*WriteMultipleCoilsRequest)
	if !ok || o.Address != r.Address || len(o.Values) != len(r.Values) {
		return false
	}
	for i := range r.Values {
		if o.Values[i] != r.Values[i] {
			return false
		}
	}
	return true
}

func NewWriteMultipleCoilsRequest(address common.Address, values []common.CoilValue) (*WriteMultipleCoilsRequest, error) {
	if len(values) == 0 || len(values) > common.MaxCoilCount {
		return nil, malformed("write_multiple_coils_request: quantity %d out of range", len(values))
	}
	return &WriteMultipleCoilsRequest{Address: address, Values: values}, nil
}

func ParseWriteMultipleCoilsRequest(src []byte) (unitID byte, req *WriteMultipleCoilsRequest, err error) {
	unitID, body, err := splitHeader("write_multiple_coils_request", src, common.FuncWriteMultipleCoils)
	if err != nil {
		return 0, nil, err
	}
	if err := requireMinLen("write_multiple_coils_request", body, 5); err != nil {
		return 0, nil, err
	}
	address := common.Address(binary.BigEndian.Uint16(body[0:2]))
	quantity := common.Quantity(binary.BigEndian.Uint16(body[2:4]))
	bits, err := unpackBits("write_multiple_coils_request", body[4:], quantity)
	if err != nil {
		return 0, nil, err
	}
	values := make([]common.CoilValue, len(bits))
	for i, b := range bits {
		values[i] = common.CoilValue(b)
	}
	return unitID, &WriteMultipleCoilsRequest{Address: address, Values: values}, nil
}

// WriteMultipleCoilsResponse echoes the starting address and quantity.
type WriteMultipleCoilsResponse struct {
	Address  common.Address
	Quantity common.Quantity
}

func (r *WriteMultipleCoilsResponse) FunctionCode() common.FunctionCode {
	return common.FuncWriteMultipleCoils
}
func (r *WriteMultipleCoilsResponse) Direction() Direction { return DirectionResponse }
func (r *WriteMultipleCoilsResponse) Size() int            { return 6 }

func (r *WriteMultipleCoilsResponse) Serialize(unitID byte, dst []byte) error {
	if len(dst) < r.Size() {
		return malformed("write_multiple_coils_response: dst too short")
	}
	putHeader(dst, unitID, r.FunctionCode())
	binary.BigEndian.PutUint16(dst[2:4], uint16(r.Address))
	binary.BigEndian.PutUint16(dst[4:6], uint16(r.Quantity))
	return nil
}

func (r *WriteMultipleCoilsResponse) Equal(other PDU) bool {
	o, ok := other.(*WriteMultipleCoilsResponse)
	return ok && *o == *r
}

func ParseWriteMultipleCoilsResponse(src []byte) (unitID byte, resp *WriteMultipleCoilsResponse, err error) {
	unitID, body, err := splitHeader("write_multiple_coils_response", src, common.FuncWriteMultipleCoils)
	if err != nil {
		return 0, nil, err
	}
	if err := requireLen("write_multiple_coils_response", body, 4); err != nil {
		return 0, nil, err
	}
	return unitID, &WriteMultipleCoilsResponse{
		Address:  common.Address(binary.BigEndian.Uint16(body[0:2])),
		Quantity: common.Quantity(binary.BigEndian.Uint16(body[2:4])),
	}, nil
}

// WriteMultipleRegistersRequest writes a contiguous block of holding
// registers (function 0x10).
type WriteMultipleRegistersRequest struct {
	Address common.Address
	Values  []uint16
}

func (r *WriteMultipleRegistersRequest) FunctionCode() common.FunctionCode {
	return common.FuncWriteMultipleRegisters
}
func (r *WriteMultipleRegistersRequest) Direction() Direction { return DirectionRequest }
func (r *WriteMultipleRegistersRequest) Size() int            { return 7 + 2*len(r.Values) }

func (r *WriteMultipleRegistersRequest) Serialize(unitID byte, dst []byte) error {
	if len(dst) < r.Size() {
		return malformed("write_multiple_registers_request: dst too short")
	}
	putHeader(dst, unitID, r.FunctionCode())
	binary.BigEndian.PutUint16(dst[2:4], uint16(r.Address))
	binary.BigEndian.PutUint16(dst[4:6], uint16(len(r.Values)))
	copy(dst[6:], packRegisters(r.Values))
	return nil
}

func (r *WriteMultipleRegistersRequest) Equal(other PDU) bool {
	o, ok := other.(*WriteMultipleRegistersRequest)
	if !ok || o.Address != r.Address || len(o.Values) != len(r.Values) {
		return false
	}
	for i := range r.Values {
		if o.Values[i] != r.Values[i] {
			return false
		}
	}
	return true
}

func NewWriteMultipleRegistersRequest(address common.Address, values []uint16) (*WriteMultipleRegistersRequest, error) {
	if len(values) == 0 || len(values) > common.MaxRegisterCount {
		return nil, malformed("write_multiple_registers_request: quantity %d out of range", len(values))
	}
	return &WriteMultipleRegistersRequest{Address: address, Values: values}, nil
}

func ParseWriteMultipleRegistersRequest(src []byte) (unitID byte, req *WriteMultipleRegistersRequest, err error) {
	unitID, body, err := splitHeader("write_multiple_registers_request", src, common.FuncWriteMultipleRegisters)
	if err != nil {
		return 0, nil, err
	}
	if err := requireMinLen("write_multiple_registers_request", body, 5); err != nil {
		return 0, nil, err
	}
	address := common.Address(binary.BigEndian.Uint16(body[0:2]))
	quantity := common.Quantity(binary.BigEndian.Uint16(body[2:4]))
	values, err := unpackRegisters("write_multiple_registers_request", body[4:], quantity)
	if err != nil {
		return 0, nil, err
	}
	return unitID, &WriteMultipleRegistersRequest{Address: address, Values: values}, nil
}

// WriteMultipleRegistersResponse echoes the starting address and quantity.
type WriteMultipleRegistersResponse struct {
	Address  common.Address
	Quantity common.Quantity
}

func (r *WriteMultipleRegistersResponse) FunctionCode() common.FunctionCode {
	return common.FuncWriteMultipleRegisters
}
func (r *WriteMultipleRegistersResponse) Direction() Direction { return DirectionResponse }
func (r *WriteMultipleRegistersResponse) Size() int            { return 6 }

func (r *WriteMultipleRegistersResponse) Serialize(unitID byte, dst []byte) error {
	if len(dst) < r.Size() {
		return malformed("write_multiple_registers_response: dst too short")
	}
	putHeader(dst, unitID, r.FunctionCode())
	binary.BigEndian.PutUint16(dst[2:4], uint16(r.Address))
	binary.BigEndian.PutUint16(dst[4:6], uint16(r.Quantity))
	return nil
}

func (r *WriteMultipleRegistersResponse) Equal(other PDU) bool {
	o, ok := other.(*WriteMultipleRegistersResponse)
	return ok && *o == *r
}

func ParseWriteMultipleRegistersResponse(src []byte) (unitID byte, resp *WriteMultipleRegistersResponse, err error) {
	unitID, body, err := splitHeader("write_multiple_registers_response", src, common.FuncWriteMultipleRegisters)
	if err != nil {
		return 0, nil, err
	}
	if err := requireLen("write_multiple_registers_response", body, 4); err != nil {
		return 0, nil, err
	}
	return unitID, &WriteMultipleRegistersResponse{
		Address:  common.Address(binary.BigEndian.Uint16(body[0:2])),
		Quantity: common.Quantity(binary.BigEndian.Uint16(body[2:4])),
	}, nil
}
