package log

import "time"

// Event is one captured access or command.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// SessionID identifies the root device instance that produced the event (UUID).
	SessionID string `cbor:"2,keyasint"`

	// Direction of a register access. Unused for commands.
	Direction Direction `cbor:"3,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"4,keyasint"`

	// Device is the slash-separated path of the device, e.g. "Root/Lmk04828".
	Device string `cbor:"5,keyasint"`

	// Type-specific payload (one of these will be set).
	Access  *AccessEvent  `cbor:"6,keyasint,omitempty"`
	Command *CommandEvent `cbor:"7,keyasint,omitempty"`

	// Error is the error text if the operation failed.
	Error string `cbor:"8,keyasint,omitempty"`
}

// Direction indicates whether a register was read or written.
type Direction uint8

const (
	// DirectionRead indicates a hardware read.
	DirectionRead Direction = 0
	// DirectionWrite indicates a hardware write.
	DirectionWrite Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionRead:
		return "READ"
	case DirectionWrite:
		return "WRITE"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryAccess indicates a register access.
	CategoryAccess Category = 0
	// CategoryCommand indicates a command dispatch.
	CategoryCommand Category = 1
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryAccess:
		return "ACCESS"
	case CategoryCommand:
		return "COMMAND"
	default:
		return "UNKNOWN"
	}
}

// AccessEvent captures one register word moving across the bus.
type AccessEvent struct {
	// Register is the register name.
	Register string `cbor:"1,keyasint"`

	// Address is the absolute bus address.
	Address uint32 `cbor:"2,keyasint"`

	// Value is the word written, or the word read back.
	Value uint32 `cbor:"3,keyasint"`
}

// CommandEvent captures a dispatched device command.
type CommandEvent struct {
	// Name is the command name.
	Name string `cbor:"1,keyasint"`

	// Arg is the raw argument string.
	Arg string `cbor:"2,keyasint,omitempty"`

	// Duration is how long the handler ran.
	Duration time.Duration `cbor:"3,keyasint,omitempty"`
}
