package server

import (
	"context"
	"fmt"
	"sync"

	"github.com/prairieworks/gomodbus/access"
	"github.com/prairieworks/gomodbus/common"
)

// addressSpace is the number of distinct 16-bit addresses a table spans --
// the full range a request's Address field can name.
const addressSpace = 1 << 16

// Store is the server-side backing memory for the four MODBUS data tables,
// plus the permission bitmaps deciding which addresses a request may touch.
// A nil access mask byte is treated as fully permissive; installing one via
// WithCoilAccess/WithHoldingRegisterAccess/etc. restricts the table to the
// addresses marked allowed, matching the reference implementation's
// legal_address gate.
type Store struct {
	mu sync.RWMutex

	coils          []byte
	discreteInputs []byte
	holding        []byte
	input          []byte

	coilsMask          []byte
	discreteInputsMask []byte
	holdingMask        []byte
	inputMask          []byte
}

// StoreOption configures a Store at construction.
type StoreOption func(*Store)

// WithCoilAccess restricts coil access to the bits marked allowed in mask
// (one bit per address, LSB first, matching access.CreateRequestBitMap's
// layout). A nil mask (the default) permits every address.
func WithCoilAccess(mask []byte) StoreOption {
	return func(s *Store) { s.coilsMask = mask }
}

// WithDiscreteInputAccess restricts discrete input access, see WithCoilAccess.
func WithDiscreteInputAccess(mask []byte) StoreOption {
	return func(s *Store) { s.discreteInputsMask = mask }
}

// WithHoldingRegisterAccess restricts holding register access, see
// WithCoilAccess.
func WithHoldingRegisterAccess(mask []byte) StoreOption {
	return func(s *Store) { s.holdingMask = mask }
}

// WithInputRegisterAccess restricts input register access, see
// WithCoilAccess.
func WithInputRegisterAccess(mask []byte) StoreOption {
	return func(s *Store) { s.inputMask = mask }
}

// NewStore builds an empty Store spanning the full 16-bit address space for
// every table.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		coils:          make([]byte, addressSpace/8),
		discreteInputs: make([]byte, addressSpace/8),
		holding:        make([]byte, addressSpace*2),
		input:          make([]byte, addressSpace*2),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ErrIllegalAddress reports a request naming an address range a table's
// access bitmap does not permit.
var ErrIllegalAddress = fmt.Errorf("modbus: illegal data address")

func checkAccess(mask []byte, start, quantity int) error {
	if start < 0 || quantity < 0 || start+quantity > addressSpace {
		return ErrIllegalAddress
	}
	if mask == nil {
		return nil
	}
	req := access.CreateRequestBitMap(start, quantity)
	if !access.LegalAddress(mask, req, start) {
		return ErrIllegalAddress
	}
	return nil
}

// ReadCoils reads quantity coils starting at address.
func (s *Store) ReadCoils(ctx context.Context, address common.Address, quantity common.Quantity) ([]common.CoilValue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start, n := int(address), int(quantity)
	if err := checkAccess(s.coilsMask, start, n); err != nil {
		return nil, err
	}
	req := access.CreateRequestBitMap(start, n)
	packed := access.CopyDataBits(s.coils, req, start, n)
	return unpackCoilValues(packed, n), nil
}

// ReadDiscreteInputs reads quantity discrete inputs starting at address.
func (s *Store) ReadDiscreteInputs(ctx context.Context, address common.Address, quantity common.Quantity) ([]common.CoilValue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start, n := int(address), int(quantity)
	if err := checkAccess(s.discreteInputsMask, start, n); err != nil {
		return nil, err
	}
	req := access.CreateRequestBitMap(start, n)
	packed := access.CopyDataBits(s.discreteInputs, req, start, n)
	return unpackCoilValues(packed, n), nil
}

// ReadHoldingRegisters reads quantity holding registers starting at address.
func (s *Store) ReadHoldingRegisters(ctx context.Context, address common.Address, quantity common.Quantity) ([]uint16, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start, n := int(address), int(quantity)
	if err := checkAccess(s.holdingMask, start, n); err != nil {
		return nil, err
	}
	return unpackRegisterValues(access.CopyDataRegisters(s.holding, start, n)), nil
}

// ReadInputRegisters reads quantity input registers starting at address.
func (s *Store) ReadInputRegisters(ctx context.Context, address common.Address, quantity common.Quantity) ([]uint16, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start, n := int(address), int(quantity)
	if err := checkAccess(s.inputMask, start, n); err != nil {
		return nil, err
	}
	return unpackRegisterValues(access.CopyDataRegisters(s.input, start, n)), nil
}

// WriteSingleCoil sets one coil.
func (s *Store) WriteSingleCoil(ctx context.Context, address common.Address, value common.CoilValue) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := int(address)
	if err := checkAccess(s.coilsMask, start, 1); err != nil {
		return err
	}
	access.WriteCoil(s.coils, value, start)
	return nil
}

// WriteSingleRegister sets one holding register.
func (s *Store) WriteSingleRegister(ctx context.Context, address common.Address, value uint16) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := int(address)
	if err := checkAccess(s.holdingMask, start, 1); err != nil {
		return err
	}
	access.WriteRegister(value, s.holding, start)
	return nil
}

// WriteMultipleCoils sets a contiguous block of coils.
func (s *Store) WriteMultipleCoils(ctx context.Context, address common.Address, values []common.CoilValue) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	start, n := int(address), len(values)
	if err := checkAccess(s.coilsMask, start, n); err != nil {
		return err
	}
	req := access.CreateRequestBitMap(start, n)
	statuses := make([]byte, len(req))
	copy(statuses, packCoilValues(values))
	access.WriteCoils(s.coils, req, statuses, start)
	return nil
}

// WriteMultipleRegisters sets a contiguous block of holding registers.
func (s *Store) WriteMultipleRegisters(ctx context.Context, address common.Address, values []uint16) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	start, n := int(address), len(values)
	if err := checkAccess(s.holdingMask, start, n); err != nil {
		return err
	}
	access.WriteRegisters(values, s.holding, start)
	return nil
}

// MaskWriteRegister performs a read-modify-write on one holding register:
// result = (current AND andMask) OR (orMask AND NOT andMask).
func (s *Store) MaskWriteRegister(ctx context.Context, address common.Address, andMask, orMask uint16) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := int(address)
	if err := checkAccess(s.holdingMask, start, 1); err != nil {
		return err
	}
	current := unpackRegisterValues(access.CopyDataRegisters(s.holding, start, 1))[0]
	result := (current & andMask) | (orMask &^ andMask)
	access.WriteRegister(result, s.holding, start)
	return nil
}

// SetHoldingRegister pokes a single holding register directly, bypassing
// the access mask -- used by callers seeding fixture data before a server
// starts accepting requests.
func (s *Store) SetHoldingRegister(address common.Address, value uint16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	access.WriteRegister(value, s.holding, int(address))
}

// SetInputRegister pokes a single input register directly, see
// SetHoldingRegister.
func (s *Store) SetInputRegister(address common.Address, value uint16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	access.WriteRegister(value, s.input, int(address))
}

// SetCoil pokes a single coil directly, see SetHoldingRegister.
func (s *Store) SetCoil(address common.Address, value common.CoilValue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	access.WriteCoil(s.coils, value, int(address))
}

// SetDiscreteInput pokes a single discrete input directly, see
// SetHoldingRegister.
func (s *Store) SetDiscreteInput(address common.Address, value common.CoilValue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	access.WriteCoil(s.discreteInputs, value, int(address))
}

func unpackCoilValues(packed []byte, n int) []common.CoilValue {
	values := make([]common.CoilValue, n)
	for i := 0; i < n; i++ {
		byteIdx, bitIdx := i/8, uint(i%8)
		values[i] = common.CoilValue((packed[byteIdx]>>bitIdx)&0x1 == 1)
	}
	return values
}

func packCoilValues(values []common.CoilValue) []byte {
	packed := make([]byte, (len(values)+7)/8)
	for i, v := range values {
		if v {
			packed[i/8] |= 1 << uint(i%8)
		}
	}
	return packed
}

func unpackRegisterValues(raw []byte) []uint16 {
	values := make([]uint16, len(raw)/2)
	for i := range values {
		values[i] = uint16(raw[2*i])<<8 | uint16(raw[2*i+1])
	}
	return values
}
