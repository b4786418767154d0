package pdu

import (
	"encoding/binary"

	"github.com/prairieworks/gomodbus/common"
)

// MaskWriteRegisterRequest performs a read-modify-write on a single
// register: result = (current AND andMask) OR (orMask AND (NOT andMask))
// (function 0x16).
type MaskWriteRegisterRequest struct {
	Address common.Address
	AndMask uint16
	OrMask  uint16
}

func (r *MaskWriteRegisterRequest) FunctionCode() common.FunctionCode {
	return common.FuncMaskWriteRegister
}
func (r *MaskWriteRegisterRequest) Direction() Direction { return DirectionRequest }
func (r *MaskWriteRegisterRequest) Size() int            { return 8 }

func (r *MaskWriteRegisterRequest) Serialize(unitID byte, dst []byte) error {
	if len(dst) < r.Size() {
		return malformed("mask_write_register_request: dst too short")
	}
	putHeader(dst, unitID, r.FunctionCode())
	binary.BigEndian.PutUint16(dst[2:4], uint16(r.Address))
	binary.BigEndian.PutUint16(dst[4:6], r.AndMask)
	binary.BigEndian.PutUint16(dst[6:8], r.OrMask)
	return nil
}

func (r *MaskWriteRegisterRequest) Equal(other PDU) bool {
	o, ok := other.(*MaskWriteRegisterRequest)
	return ok && *o == *r
}

func NewMaskWriteRegisterRequest(address common.Address, andMask, orMask uint16) *MaskWriteRegisterRequest {
	return &MaskWriteRegisterRequest{Address: address, AndMask: andMask, OrMask: orMask}
}

func ParseMaskWriteRegisterRequest(src []byte) (unitID byte, req *MaskWriteRegisterRequest, err error) {
	unitID, body, err := splitHeader("mask_write_register_request", src, common.FuncMaskWriteRegister)
	if err != nil {
		return 0, nil, err
	}
	if err := requireLen("mask_write_register_request", body, 6); err != nil {
		return 0, nil, err
	}
	return unitID, &MaskWriteRegisterRequest{
		Address: common.Address(binary.BigEndian.Uint16(body[0:2])),
		AndMask: binary.BigEndian.Uint16(body[2:4]),
		OrMask:  binary.BigEndian.Uint16(body[4:6]),
	}, nil
}

// Apply computes the masked result for current, per the function's
// definition: (current AND AndMask) OR (OrMask AND (NOT AndMask)).
func (r *MaskWriteRegisterRequest) Apply(current uint16) uint16 {
	return (current & r.AndMask) | (r.OrMask &^ r.AndMask)
}

// MaskWriteRegisterResponse echoes the request on success.
type MaskWriteRegisterResponse struct {
	Address common.Address
	AndMask uint16
	OrMask  uint16
}

func (r *MaskWriteRegisterResponse) FunctionCode() common.FunctionCode {
	return common.FuncMaskWriteRegister
}
func (r *MaskWriteRegisterResponse) Direction() Direction { return DirectionResponse }
func (r *MaskWriteRegisterResponse) Size() int            { return 8 }

func (r *MaskWriteRegisterResponse) Serialize(unitID byte, dst []byte) error {
	if len(dst) < r.Size() {
		return malformed("mask_write_register_response: dst too short")
	}
	putHeader(dst, unitID, r.FunctionCode())
	binary.BigEndian.PutUint16(dst[2:4], uint16(r.Address))
	binary.BigEndian.PutUint16(dst[4:6], r.AndMask)
	binary.BigEndian.PutUint16(dst[6:8], r.OrMask)
	return nil
}

func (r *MaskWriteRegisterResponse) Equal(other PDU) bool {
	o, ok := other.(*MaskWriteRegisterResponse)
	return ok && *o == *r
}

func ParseMaskWriteRegisterResponse(src []byte) (unitID byte, resp *MaskWriteRegisterResponse, err error) {
	unitID, body, err := splitHeader("mask_write_register_response", src, common.FuncMaskWriteRegister)
	if err != nil {
		return 0, nil, err
	}
	if err := requireLen("mask_write_register_response", body, 6); err != nil {
		return 0, nil, err
	}
	return unitID, &MaskWriteRegisterResponse{
		Address: common.Address(binary.BigEndian.Uint16(body[0:2])),
		AndMask: binary.BigEndian.Uint16(body[2:4]),
		OrMask:  binary.BigEndian.Uint16(body[4:6]),
	}, nil
}
