package pdu

import (
	"math"

	"github.com/prairieworks/gomodbus/common"
)

// packBits packs logical bit values into a byte-count-prefixed buffer, LSB
// of the first byte holding the lowest address -- the layout shared by
// ReadCoils/ReadDiscreteInputs responses and the WriteMultipleCoils
// request payload.
func packBits(values []bool) []byte {
	byteCount := int(math.Ceil(float64(len(values)) / 8.0))
	out := make([]byte, 1+byteCount)
	out[0] = byte(byteCount)
	for i, v := range values {
		if v {
			out[1+i/8] |= 1 << uint(i%8)
		}
	}
	return out
}

// unpackBits reverses packBits, validating the byte-count prefix against
// the expected quantity and returning exactly quantity values.
func unpackBits(variant string, body []byte, quantity common.Quantity) ([]bool, error) {
	if err := requireMinLen(variant, body, 1); err != nil {
		return nil, err
	}
	byteCount := int(body[0])
	if len(body) != 1+byteCount {
		return nil, malformed("%s: byte count %d does not match body length %d", variant, byteCount, len(body)-1)
	}
	expected := int(math.Ceil(float64(quantity) / 8.0))
	if byteCount != expected {
		return nil, malformed("%s: byte count %d does not match quantity %d", variant, byteCount, quantity)
	}
	values := make([]bool, quantity)
	for i := 0; i < int(quantity); i++ {
		values[i] = (body[1+i/8]>>uint(i%8))&0x01 == 1
	}
	return values, nil
}
