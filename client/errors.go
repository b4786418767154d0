package client

import "errors"

// Sentinel errors a caller can match with errors.Is. They cover the
// client-side failure modes distinct from a MODBUS exception response
// (see common.ModbusError for those).
var (
	// ErrStopped is returned when a request is attempted after Close.
	ErrStopped = errors.New("modbus: client stopped")
	// ErrWriteTimeout is returned when writing the request times out.
	ErrWriteTimeout = errors.New("modbus: write timeout")
	// ErrReadTimeout is returned when no response arrives before the
	// request's deadline.
	ErrReadTimeout = errors.New("modbus: read timeout")
	// ErrInvalidResponse is returned when a response fails validation
	// against its request (mismatched transaction id, function code, or
	// echoed data).
	ErrInvalidResponse = errors.New("modbus: invalid response")
	// ErrDisconnected is returned when the connection drops mid-exchange.
	ErrDisconnected = errors.New("modbus: disconnected")
)
