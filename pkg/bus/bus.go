package bus

import (
	"context"
	"errors"
)

// Bus errors.
var (
	ErrAddressOutOfRange = errors.New("address out of range")
	ErrClosed            = errors.New("bus closed")
)

// Bus reads and writes 32-bit words at absolute addresses.
// Implementations must be safe for concurrent use.
type Bus interface {
	// ReadWord returns the word stored at addr.
	ReadWord(ctx context.Context, addr uint32) (uint32, error)

	// WriteWord stores value at addr.
	WriteWord(ctx context.Context, addr uint32, value uint32) error
}
