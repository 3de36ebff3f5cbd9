package model

import (
	"errors"
	"sync"
)

// Register errors.
var (
	ErrRegisterNotFound  = errors.New("register not found")
	ErrDuplicateRegister = errors.New("duplicate register name")
)

// Register is a word-addressed hardware location.
type Register struct {
	mu      sync.RWMutex
	name    string
	address uint32
	class   VariableClass
	data    []uint32
	stale   bool // True if data changed since the last hardware write
}

// NewRegister creates a register of size words at an absolute bus address.
// A size of zero is treated as one word.
func NewRegister(name string, address uint32, size int) *Register {
	if size < 1 {
		size = 1
	}
	return &Register{
		name:    name,
		address: address,
		data:    make([]uint32, size),
	}
}

// Name returns the register name.
func (r *Register) Name() string {
	return r.name
}

// Address returns the absolute bus address of the first word.
func (r *Register) Address() uint32 {
	return r.address
}

// Class returns the access class. Registers created without a link are
// Configuration registers.
func (r *Register) Class() VariableClass {
	return r.class
}

// Size returns the register size in words.
func (r *Register) Size() int {
	return len(r.data)
}

// Word returns word i of the register data.
func (r *Register) Word(i int) uint32 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.data[i]
}

// SetWord replaces word i and marks the register stale if it changed.
func (r *Register) SetWord(i int, value uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.data[i] != value {
		r.data[i] = value
		r.stale = true
	}
}

// Get returns the field of word 0 selected by mask after shifting right by bit.
func (r *Register) Get(bit uint, mask uint32) uint32 {
	return r.GetIndex(0, bit, mask)
}

// GetIndex is Get for word i.
func (r *Register) GetIndex(i int, bit uint, mask uint32) uint32 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return (r.data[i] >> bit) & mask
}

// Set replaces the field of word 0 selected by mask at bit with value.
// Bits of value outside mask are discarded.
func (r *Register) Set(value uint32, bit uint, mask uint32) {
	r.SetIndex(0, value, bit, mask)
}

// SetIndex is Set for word i.
func (r *Register) SetIndex(i int, value uint32, bit uint, mask uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	next := (r.data[i] &^ (mask << bit)) | ((value & mask) << bit)
	if next != r.data[i] {
		r.data[i] = next
		r.stale = true
	}
}

// Stale reports whether the register holds data not yet written to hardware.
func (r *Register) Stale() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stale
}

// clearStale is called after the data reached or came from hardware.
func (r *Register) clearStale() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stale = false
}

// RegisterLink binds a register and a variable under the same name.
type RegisterLink struct {
	register *Register
	variable *Variable
}

// NewRegisterLink creates a one-word register at address and a variable of the
// given class that reads and writes it.
func NewRegisterLink(name string, address uint32, class VariableClass) *RegisterLink {
	reg := NewRegister(name, address, 1)
	reg.class = class
	v := NewVariable(VariableMetadata{
		Name:  name,
		Class: class,
	})
	v.register = reg
	return &RegisterLink{register: reg, variable: v}
}

// Name returns the shared register and variable name.
func (l *RegisterLink) Name() string {
	return l.register.name
}

// Register returns the linked register.
func (l *RegisterLink) Register() *Register {
	return l.register
}

// Variable returns the linked variable.
func (l *RegisterLink) Variable() *Variable {
	return l.variable
}
