package pdu

import (
	"encoding/binary"

	"github.com/prairieworks/gomodbus/common"
)

// WriteSingleCoilRequest forces a single coil on or off (function 0x05).
type WriteSingleCoilRequest struct {
	Address common.Address
	Value   common.CoilValue
}

func (r *WriteSingleCoilRequest) FunctionCode() common.FunctionCode { return common.FuncWriteSingleCoil }
func (r *WriteSingleCoilRequest) Direction() Direction              { return DirectionRequest }
func (r *WriteSingleCoilRequest) Size() int                         { return 6 }

func (r *WriteSingleCoilRequest) Serialize(unitID byte, dst []byte) error {
	if len(dst) < r.Size() {
		return malformed("write_single_coil_request: dst too short")
	}
	putHeader(dst, unitID, r.FunctionCode())
	binary.BigEndian.PutUint16(dst[2:4], uint16(r.Address))
	if r.Value {
		binary.BigEndian.PutUint16(dst[4:6], common.CoilWireOn)
	} else {
		binary.BigEndian.PutUint16(dst[4:6], common.CoilWireOff)
	}
	return nil
}

func (r *WriteSingleCoilRequest) Equal(other PDU) bool {
	o, ok := other.(*WriteSingleCoilRequest)
	return ok && *o == *r
}

func NewWriteSingleCoilRequest(address common.Address, value common.CoilValue) *WriteSingleCoilRequest {
	return &WriteSingleCoilRequest{Address: address, Value: value}
}

// ParseWriteSingleCoilRequest decodes leniently: only the high byte of the
// coil value field is consulted (nonzero means on), matching the reference
// implementation's behavior of never validating the field against the
// canonical 0xFF00/0x0000 pair. See SPEC_FULL.md §4.1 Open Question (a).
func ParseWriteSingleCoilRequest(src []byte) (unitID byte, req *WriteSingleCoilRequest, err error) {
	unitID, body, err := splitHeader("write_single_coil_request", src, common.FuncWriteSingleCoil)
	if err != nil {
		return 0, nil, err
	}
	if err := requireLen("write_single_coil_request", body, 4); err != nil {
		return 0, nil, err
	}
	address := common.Address(binary.BigEndian.Uint16(body[0:2]))
	value := common.CoilValue(body[2] != 0)
	return unitID, &WriteSingleCoilRequest{Address: address, Value: value}, nil
}

// WriteSingleCoilResponse echoes the request on success.
type WriteSingleCoilResponse struct {
	Address common.Address
	Value   common.CoilValue
}

func (r *WriteSingleCoilResponse) FunctionCode() common.FunctionCode { return common.FuncWriteSingleCoil }
func (r *WriteSingleCoilResponse) Direction() Direction              { return DirectionResponse }
func (r *WriteSingleCoilResponse) Size() int                         { return 6 }

func (r *WriteSingleCoilResponse) Serialize(unitID byte, dst []byte) error {
	if len(dst) < r.Size() {
		return malformed("write_single_coil_response: dst too short")
	}
	putHeader(dst, unitID, r.FunctionCode())
	binary.BigEndian.PutUint16(dst[2:4], uint16(r.Address))
	if r.Value {
		binary.BigEndian.PutUint16(dst[4:6], common.CoilWireOn)
	} else {
		binary.BigEndian.PutUint16(dst[4:6], common.CoilWireOff)
	}
	return nil
}

func (r *WriteSingleCoilResponse) Equal(other PDU) bool {
	o, ok := other.(*WriteSingleCoilResponse)
	return ok && *o == *r
}

// ParseWriteSingleCoilResponse decodes the same lenient way as the request
// -- the response body has the identical layout. The client's echo check
// compares the raw request and response bytes before this parser runs, so
// a non-canonical echo is rejected there rather than decoded leniently.
func ParseWriteSingleCoilResponse(src []byte) (unitID byte, resp *WriteSingleCoilResponse, err error) {
	unitID, body, err := splitHeader("write_single_coil_response", src, common.FuncWriteSingleCoil)
	if err != nil {
		return 0, nil, err
	}
	if err := requireLen("write_single_coil_response", body, 4); err != nil {
		return 0, nil, err
	}
	address := common.Address(binary.BigEndian.Uint16(body[0:2]))
	value := common.CoilValue(body[2] != 0)
	return unitID, &WriteSingleCoilResponse{Address: address, Value: value}, nil
}

// WriteSingleRegisterRequest writes a single holding register (function 0x06).
type WriteSingleRegisterRequest struct {
	Address common.Address
	Value   uint16
}

func (r *WriteSingleRegisterRequest) FunctionCode() common.FunctionCode {
	return common.FuncWriteSingleRegister
}
func (r *WriteSingleRegisterRequest) Direction() Direction { return DirectionRequest }
func (r *WriteSingleRegisterRequest) Size() int            { return 6 }

func (r *WriteSingleRegisterRequest) Serialize(unitID byte, dst []byte) error {
	if len(dst) < r.Size() {
		return malformed("write_single_register_request: dst too short")
	}
	putHeader(dst, unitID, r.FunctionCode())
	binary.BigEndian.PutUint16(dst[2:4], uint16(r.Address))
	binary.BigEndian.PutUint16(dst[4:6], r.Value)
	return nil
}

func (r *WriteSingleRegisterRequest) Equal(other PDU) bool {
	o, ok := other.(*WriteSingleRegisterRequest)
	return ok && *o == *r
}

func NewWriteSingleRegisterRequest(address common.Address, value uint16) *WriteSingleRegisterRequest {
	return &WriteSingleRegisterRequest{Address: address, Value: value}
}

func ParseWriteSingleRegisterRequest(src []byte) (unitID byte, req *WriteSingleRegisterRequest, err error) {
	unitID, body, err := splitHeader("write_single_register_request", src, common.FuncWriteSingleRegister)
	if err != nil {
		return 0, nil, err
	}
	if err := requireLen("write_single_register_request", body, 4); err != nil {
		return 0, nil, err
	}
	return unitID, &WriteSingleRegisterRequest{
		Address: common.Address(binary.BigEndian.Uint16(body[0:2])),
		Value:   binary.BigEndian.Uint16(body[2:4]),
	}, nil
}

// WriteSingleRegisterResponse echoes the request on success.
type WriteSingleRegisterResponse struct {
	Address common.Address
	Value   uint16
}

func (r *WriteSingleRegisterResponse) FunctionCode() common.FunctionCode {
	return common.FuncWriteSingleRegister
}
func (r *WriteSingleRegisterResponse) Direction() Direction { return DirectionResponse }
func (r *WriteSingleRegisterResponse) Size() int            { return 6 }

func (r *WriteSingleRegisterResponse) Serialize(unitID byte, dst []byte) error {
	if len(dst) < r.Size() {
		return malformed("write_single_register_response: dst too short")
	}
	putHeader(dst, unitID, r.FunctionCode())
	binary.BigEndian.PutUint16(dst[2:4], uint16(r.Address))
	binary.BigEndian.PutUint16(dst[4:6], r.Value)
	return nil
}

func (r *WriteSingleRegisterResponse) Equal(other PDU) bool {
	o, ok := other.(*WriteSingleRegisterResponse)
	return ok && *o == *r
}

func ParseWriteSingleRegisterResponse(src []byte) (unitID byte, resp *WriteSingleRegisterResponse, err error) {
	unitID, body, err := splitHeader("write_single_register_response", src, common.FuncWriteSingleRegister)
	if err != nil {
		return 0, nil, err
	}
	if err := requireLen("write_single_register_response", body, 4); err != nil {
		return 0, nil, err
	}
	return unitID, &WriteSingleRegisterResponse{
		Address: common.Address(binary.BigEndian.Uint16(body[0:2])),
		Value:   binary.BigEndian.Uint16(body[2:4]),
	}, nil
}
