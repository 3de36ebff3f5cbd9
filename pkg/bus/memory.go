package bus

import (
	"context"
	"fmt"
	"sync"
)

// Memory is a sparse in-memory register file.
// Unwritten addresses read as zero.
type Memory struct {
	mu     sync.RWMutex
	words  map[uint32]uint32
	limit  uint32
	closed bool
}

// MemoryOption configures a Memory bus.
type MemoryOption func(*Memory)

// WithLimit rejects addresses at or above limit with ErrAddressOutOfRange.
// A limit of zero leaves the address space unbounded.
func WithLimit(limit uint32) MemoryOption {
	return func(m *Memory) {
		m.limit = limit
	}
}

// NewMemory creates an empty register file.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{words: make(map[uint32]uint32)}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ReadWord returns the word at addr.
func (m *Memory) ReadWord(ctx context.Context, addr uint32) (uint32, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := m.check(addr); err != nil {
		return 0, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return 0, ErrClosed
	}
	return m.words[addr], nil
}

// WriteWord stores value at addr.
func (m *Memory) WriteWord(ctx context.Context, addr uint32, value uint32) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.check(addr); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.words[addr] = value
	return nil
}

// Peek returns the stored word without any checks.
func (m *Memory) Peek(addr uint32) uint32 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.words[addr]
}

// Len returns the number of addresses that have been written.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.words)
}

// Close makes subsequent accesses fail with ErrClosed.
// It is safe to call Close multiple times.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *Memory) check(addr uint32) error {
	if m.limit != 0 && addr >= m.limit {
		return fmt.Errorf("%w: 0x%x (limit 0x%x)", ErrAddressOutOfRange, addr, m.limit)
	}
	return nil
}

// Compile-time interface satisfaction check.
var _ Bus = (*Memory)(nil)
