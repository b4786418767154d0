package pdu

import "github.com/prairieworks/gomodbus/common"

// ExceptionResponse is returned by a server in place of a normal response
// when it cannot process a request. The function code carries the
// exception bit; the single data byte is the exception code.
type ExceptionResponse struct {
	RequestFunctionCode common.FunctionCode // without the exception bit
	Code                common.ExceptionCode
}

func (r *ExceptionResponse) FunctionCode() common.FunctionCode {
	return r.RequestFunctionCode | common.ExceptionBit
}
func (r *ExceptionResponse) Direction() Direction { return DirectionException }
func (r *ExceptionResponse) Size() int            { return common.ExceptionPDUSize }

func (r *ExceptionResponse) Serialize(unitID byte, dst []byte) error {
	if len(dst) < r.Size() {
		return malformed("exception_response: dst too short")
	}
	putHeader(dst, unitID, r.FunctionCode())
	dst[2] = byte(r.Code)
	return nil
}

func (r *ExceptionResponse) Equal(other PDU) bool {
	o, ok := other.(*ExceptionResponse)
	return ok && *o == *r
}

func NewExceptionResponse(requestFunctionCode common.FunctionCode, code common.ExceptionCode) *ExceptionResponse {
	return &ExceptionResponse{RequestFunctionCode: requestFunctionCode.Base(), Code: code}
}

// ParseExceptionResponse parses a cursor positioned at the unit id. Unlike
// the other variants, the function code is not an exact match -- any
// function code with the exception bit set is accepted, and the base
// function code it reports is the one with that bit cleared.
func ParseExceptionResponse(src []byte) (unitID byte, resp *ExceptionResponse, err error) {
	if len(src) < 2 {
		return 0, nil, malformed("exception_response: cursor too short for header (%d bytes)", len(src))
	}
	fc := common.FunctionCode(src[1])
	if !fc.IsException() {
		return 0, nil, malformed("exception_response: function code 0x%02x has no exception bit set", src[1])
	}
	body := src[2:]
	if err := requireLen("exception_response", body, 1); err != nil {
		return 0, nil, err
	}
	return src[0], &ExceptionResponse{RequestFunctionCode: fc.Base(), Code: common.ExceptionCode(body[0])}, nil
}
