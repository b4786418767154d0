// Package common holds the wire-level vocabulary shared by the pdu, adu,
// client, and server packages: function codes, exception codes, the
// address/quantity/value types that appear in every PDU, and the protocol
// constants fixed by the MODBUS/TCP framing.
package common

import "fmt"

// FunctionCode identifies the operation carried by a PDU.
type FunctionCode uint8

const (
	FuncReadCoils                 FunctionCode = 0x01
	FuncReadDiscreteInputs        FunctionCode = 0x02
	FuncReadHoldingRegisters      FunctionCode = 0x03
	FuncReadInputRegisters        FunctionCode = 0x04
	FuncWriteSingleCoil           FunctionCode = 0x05
	FuncWriteSingleRegister       FunctionCode = 0x06
	FuncWriteMultipleCoils        FunctionCode = 0x0F
	FuncWriteMultipleRegisters    FunctionCode = 0x10
	FuncMaskWriteRegister         FunctionCode = 0x16
	FuncReadWriteMultipleRegisters FunctionCode = 0x17
	FuncReadFIFOQueue             FunctionCode = 0x18

	// ExceptionBit is OR'd into the request function code to mark a PDU as
	// an exception response.
	ExceptionBit FunctionCode = 0x80
)

func (fc FunctionCode) String() string {
	switch fc &^ ExceptionBit {
	case FuncReadCoils:
		return "ReadCoils"
	case FuncReadDiscreteInputs:
		return "ReadDiscreteInputs"
	case FuncReadHoldingRegisters:
		return "ReadHoldingRegisters"
	case FuncReadInputRegisters:
		return "ReadInputRegisters"
	case FuncWriteSingleCoil:
		return "WriteSingleCoil"
	case FuncWriteSingleRegister:
		return "WriteSingleRegister"
	case FuncWriteMultipleCoils:
		return "WriteMultipleCoils"
	case FuncWriteMultipleRegisters:
		return "WriteMultipleRegisters"
	case FuncMaskWriteRegister:
		return "MaskWriteRegister"
	case FuncReadWriteMultipleRegisters:
		return "ReadWriteMultipleRegisters"
	case FuncReadFIFOQueue:
		return "ReadFIFOQueue"
	default:
		return fmt.Sprintf("FunctionCode(0x%02X)", uint8(fc))
	}
}

// IsException reports whether fc has the exception bit set.
func (fc FunctionCode) IsException() bool {
	return fc&ExceptionBit != 0
}

// Base strips the exception bit, returning the original request function
// code an exception response was generated for.
func (fc FunctionCode) Base() FunctionCode {
	return fc &^ ExceptionBit
}

// ExceptionCode is returned in the body of an exception response PDU.
type ExceptionCode uint8

const (
	ExceptionIllegalFunction             ExceptionCode = 0x01
	ExceptionIllegalDataAddress          ExceptionCode = 0x02
	ExceptionIllegalDataValue            ExceptionCode = 0x03
	ExceptionServerDeviceFailure         ExceptionCode = 0x04
	ExceptionAcknowledge                 ExceptionCode = 0x05
	ExceptionServerDeviceBusy            ExceptionCode = 0x06
	ExceptionNegativeAcknowledge         ExceptionCode = 0x07
	ExceptionMemoryParityError           ExceptionCode = 0x08
	ExceptionGatewayPathUnavailable      ExceptionCode = 0x0A
	ExceptionGatewayTargetFailedToRespond ExceptionCode = 0x0B
)

func (ec ExceptionCode) String() string {
	switch ec {
	case ExceptionIllegalFunction:
		return "illegal function"
	case ExceptionIllegalDataAddress:
		return "illegal data address"
	case ExceptionIllegalDataValue:
		return "illegal data value"
	case ExceptionServerDeviceFailure:
		return "server device failure"
	case ExceptionAcknowledge:
		return "acknowledge"
	case ExceptionServerDeviceBusy:
		return "server device busy"
	case ExceptionNegativeAcknowledge:
		return "negative acknowledge"
	case ExceptionMemoryParityError:
		return "memory parity error"
	case ExceptionGatewayPathUnavailable:
		return "gateway path unavailable"
	case ExceptionGatewayTargetFailedToRespond:
		return "gateway target device failed to respond"
	default:
		return fmt.Sprintf("ExceptionCode(0x%02X)", uint8(ec))
	}
}

// Address is a 16-bit coil/register address.
type Address uint16

// Quantity is a 16-bit coil/register count.
type Quantity uint16

// TransactionID is the MBAP transaction identifier.
type TransactionID uint16

// UnitID addresses a specific device behind a gateway.
type UnitID uint8

// CoilValue is the decoded logical state of a coil.
type CoilValue bool

const (
	CoilOff CoilValue = false
	CoilOn  CoilValue = true
)

// Canonical 16-bit wire values MODBUS uses to represent a coil write.
// Decoding a write_single_coil request is deliberately lenient (see the pdu
// package); encoding always emits these two canonical values.
const (
	CoilWireOn  uint16 = 0xFF00
	CoilWireOff uint16 = 0x0000
)

// ByteOrder selects how a multi-register value is reassembled from the wire.
type ByteOrder uint8

const (
	// ByteOrderNormal is plain big-endian, the MODBUS wire default.
	ByteOrderNormal ByteOrder = iota
	// ByteOrderSwapped reads multi-byte values least-significant byte
	// first: the two bytes of a 16-bit value are swapped and the four
	// bytes of a 32-bit value are fully reversed.
	ByteOrderSwapped
)

// Protocol-level size constants, fixed by the MODBUS/TCP specification and
// by this implementation's framing limits.
const (
	// ProtocolID is always 0x0000 for MODBUS/TCP.
	ProtocolID uint16 = 0x0000

	// TCPHeaderSize is the MBAP header length excluding the unit id:
	// transaction id (2) + protocol id (2) + length (2).
	TCPHeaderSize = 6

	// MaxAPUSize bounds the entire application protocol unit (header plus
	// PDU) this implementation will read or write.
	MaxAPUSize = 256

	// MinPDUSize is the smallest legal PDU, including the unit id.
	MinPDUSize = 4

	// MaxPDUSize is the largest legal PDU body (function code + data),
	// excluding the unit id.
	MaxPDUSize = 253

	// ExceptionPDUSize is the fixed size of an exception response PDU,
	// including the unit id.
	ExceptionPDUSize = 3

	// DefaultTCPPort is the well-known MODBUS/TCP port.
	DefaultTCPPort = 502

	// MaxCoilCount and MaxRegisterCount bound quantities accepted in a
	// single read/write request.
	MaxCoilCount     = 2000
	MaxRegisterCount = 125
)
