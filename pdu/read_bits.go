package pdu

import (
	"encoding/binary"

	"github.com/prairieworks/gomodbus/common"
)

// ReadCoilsRequest reads a block of coils (function 0x01).
// Ref: spec.md §3, PDU table row "read_coils".
type ReadCoilsRequest struct {
	Address  common.Address
	Quantity common.Quantity
}

func (r *ReadCoilsRequest) FunctionCode() common.FunctionCode { return common.FuncReadCoils }
func (r *ReadCoilsRequest) Direction() Direction              { return DirectionRequest }
func (r *ReadCoilsRequest) Size() int                         { return 2 + 4 }

func (r *ReadCoilsRequest) Serialize(unitID byte, dst []byte) error {
	if len(dst) < r.Size() {
		return malformed("read_coils_request: dst too short")
	}
	putHeader(dst, unitID, r.FunctionCode())
	binary.BigEndian.PutUint16(dst[2:4], uint16(r.Address))
	binary.BigEndian.PutUint16(dst[4:6], uint16(r.Quantity))
	return nil
}

func (r *ReadCoilsRequest) Equal(other PDU) bool {
	o, ok := other.(*ReadCoilsRequest)
	return ok && *o == *r
}

// NewReadCoilsRequest validates quantity against spec.md's bound and
// constructs a request.
func NewReadCoilsRequest(address common.Address, quantity common.Quantity) (*ReadCoilsRequest, error) {
	if quantity == 0 || quantity > common.MaxCoilCount {
		return nil, malformed("read_coils_request: quantity %d out of range", quantity)
	}
	return &ReadCoilsRequest{Address: address, Quantity: quantity}, nil
}

// ParseReadCoilsRequest parses a cursor positioned at the unit id.
func ParseReadCoilsRequest(src []byte) (unitID byte, req *ReadCoilsRequest, err error) {
	unitID, body, err := splitHeader("read_coils_request", src, common.FuncReadCoils)
	if err != nil {
		return 0, nil, err
	}
	if err := requireLen("read_coils_request", body, 4); err != nil {
		return 0, nil, err
	}
	return unitID, &ReadCoilsRequest{
		Address:  common.Address(binary.BigEndian.Uint16(body[0:2])),
		Quantity: common.Quantity(binary.BigEndian.Uint16(body[2:4])),
	}, nil
}

// ReadCoilsResponse carries the packed coil values read back from the
// server.
type ReadCoilsResponse struct {
	Values []common.CoilValue
}

func (r *ReadCoilsResponse) FunctionCode() common.FunctionCode { return common.FuncReadCoils }
func (r *ReadCoilsResponse) Direction() Direction              { return DirectionResponse }
func (r *ReadCoilsResponse) Size() int {
	return 2 + len(packBitsFromCoils(r.Values))
}

func (r *ReadCoilsResponse) Serialize(unitID byte, dst []byte) error {
	body := packBitsFromCoils(r.Values)
	if len(dst) < 2+len(body) {
		return malformed("read_coils_response: dst too short")
	}
	putHeader(dst, unitID, r.FunctionCode())
	copy(dst[2:], body)
	return nil
}

func (r *ReadCoilsResponse) Equal(other PDU) bool {
	o, ok := other.(*ReadCoilsResponse)
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

// ParseReadCoilsResponse parses a cursor positioned at the unit id. quantity
// is the quantity requested, since the response body does not restate it.
func ParseReadCoilsResponse(src []byte, quantity common.Quantity) (unitID byte, resp *ReadCoilsResponse, err error) {
	unitID, body, err := splitHeader("read_coils_response", src, common.FuncReadCoils)
	if err != nil {
		return 0, nil, err
	}
	bits, err := unpackBits("read_coils_response", body, quantity)
	if err != nil {
		return 0, nil, err
	}
	values := make([]common.CoilValue, len(bits))
	for i, b := range bits {
		values[i] = common.CoilValue(b)
	}
	return unitID, &ReadCoilsResponse{Values: values}, nil
}

func packBitsFromCoils(values []common.CoilValue) []byte {
	bools := make([]bool, len(values))
	for i, v := range values {
		bools[i] = bool(v)
	}
	return packBits(bools)
}

// ReadDiscreteInputsRequest reads a block of discrete inputs (function 0x02).
type ReadDiscreteInputsRequest struct {
	Address  common.Address
	Quantity common.Quantity
}

func (r *ReadDiscreteInputsRequest) FunctionCode() common.FunctionCode {
	return common.FuncReadDiscreteInputs
}
func (r *ReadDiscreteInputsRequest) Direction() Direction { return DirectionRequest }
func (r *ReadDiscreteInputsRequest) Size() int            { return 2 + 4 }

func (r *ReadDiscreteInputsRequest) Serialize(unitID byte, dst []byte) error {
	if len(dst) < r.Size() {
		return malformed("read_discrete_inputs_request: dst too short")
	}
	putHeader(dst, unitID, r.FunctionCode())
	binary.BigEndian.PutUint16(dst[2:4], uint16(r.Address))
	binary.BigEndian.PutUint16(dst[4:6], uint16(r.Quantity))
	return nil
}

func (r *ReadDiscreteInputsRequest) Equal(other PDU) bool {
	o, ok := other.(*ReadDiscreteInputsRequest)
	return ok && *o == *r
}

func NewReadDiscreteInputsRequest(address common.Address, quantity common.Quantity) (*ReadDiscreteInputsRequest, error) {
	if quantity == 0 || quantity > common.MaxCoilCount {
		return nil, malformed("read_discrete_inputs_request: quantity %d out of range", quantity)
	}
	return &ReadDiscreteInputsRequest{Address: address, Quantity: quantity}, nil
}

func ParseReadDiscreteInputsRequest(src []byte) (unitID byte, req *ReadDiscreteInputsRequest, err error) {
	unitID, body, err := splitHeader("read_discrete_inputs_request", src, common.FuncReadDiscreteInputs)
	if err != nil {
		return 0, nil, err
	}
	if err := requireLen("read_discrete_inputs_request", body, 4); err != nil {
		return 0, nil, err
	}
	return unitID, &ReadDiscreteInputsRequest{
		Address:  common.Address(binary.BigEndian.Uint16(body[0:2])),
		Quantity: common.Quantity(binary.BigEndian.Uint16(body[2:4])),
	}, nil
}

// ReadDiscreteInputsResponse carries the packed input values.
type ReadDiscreteInputsResponse struct {
	Values []common.CoilValue
}

func (r *ReadDiscreteInputsResponse) FunctionCode() common.FunctionCode {
	return common.FuncReadDiscreteInputs
}
func (r *ReadDiscreteInputsResponse) Direction() Direction { return DirectionResponse }
func (r *ReadDiscreteInputsResponse) Size() int            { return 2 + len(packBitsFromCoils(r.Values)) }

func (r *ReadDiscreteInputsResponse) Serialize(unitID byte, dst []byte) error {
	body := packBitsFromCoils(r.Values)
	if len(dst) < 2+len(body) {
		return malformed("read_discrete_inputs_response: dst too short")
	}
	putHeader(dst, unitID, r.FunctionCode())
	copy(dst[2:], body)
	return nil
}

func (r *ReadDiscreteInputsResponse) Equal(other PDU) bool {
	o, ok := other.(*ReadDiscreteInputsResponse)
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

func ParseReadDiscreteInputsResponse(src []byte, quantity common.Quantity) (unitID byte, resp *ReadDiscreteInputsResponse, err error) {
	unitID, body, err := splitHeader("read_discrete_inputs_response", src, common.FuncReadDiscreteInputs)
	if err != nil {
		return 0, nil, err
	}
	bits, err := unpackBits("read_discrete_inputs_response", body, quantity)
	if err != nil {
		return 0, nil, err
	}
	values := make([]common.CoilValue, len(bits))
	for i, b := range bits {
		values[i] = common.CoilValue(b)
	}
	return unitID, &ReadDiscreteInputsResponse{Values: values}, nil
}
