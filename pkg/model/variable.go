package model

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
)

// VariableClass tags how a variable (and its register) is used.
type VariableClass uint8

const (
	// ClassConfiguration values are written by the user and saved in snapshots.
	ClassConfiguration VariableClass = iota

	// ClassStatus values are read back from hardware.
	ClassStatus

	// ClassFeedback values are written by hardware and mirrored for display.
	ClassFeedback
)

// String returns the class name.
func (c VariableClass) String() string {
	switch c {
	case ClassConfiguration:
		return "Configuration"
	case ClassStatus:
		return "Status"
	case ClassFeedback:
		return "Feedback"
	default:
		return "Unknown"
	}
}

// Variable errors.
var (
	ErrVariableNotFound    = errors.New("variable not found")
	ErrDuplicateVariable   = errors.New("duplicate variable name")
	ErrVariableValue       = errors.New("invalid value for variable")
	ErrVariableNotWritable = errors.New("variable is not writable")
)

// VariableMetadata describes a variable's properties.
type VariableMetadata struct {
	// Name is the variable name, unique within its device.
	Name string

	// Class is the access class.
	Class VariableClass

	// Default is the initial value of a plain variable.
	Default string

	// Description is a human-readable description.
	Description string
}

// Variable is a named, inspectable attribute of a device.
//
// A plain variable stores a string. A register-backed variable (created through
// NewRegisterLink) formats and parses the word of its register instead.
type Variable struct {
	mu          sync.RWMutex
	metadata    VariableMetadata
	value       string
	hidden      bool
	perInstance bool
	register    *Register
}

// NewVariable creates a plain variable holding meta.Default.
func NewVariable(meta VariableMetadata) *Variable {
	return &Variable{
		metadata: meta,
		value:    meta.Default,
	}
}

// Name returns the variable name.
func (v *Variable) Name() string {
	return v.metadata.Name
}

// Class returns the variable class.
func (v *Variable) Class() VariableClass {
	return v.metadata.Class
}

// Metadata returns a copy of the variable metadata.
func (v *Variable) Metadata() VariableMetadata {
	return v.metadata
}

// Description returns the variable description.
func (v *Variable) Description() string {
	return v.metadata.Description
}

// Register returns the linked register, or nil for plain variables.
func (v *Variable) Register() *Register {
	return v.register
}

// Hidden reports whether the variable is excluded from default listings.
func (v *Variable) Hidden() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.hidden
}

// SetHidden hides or shows the variable in user-facing listings.
// Hidden variables stay readable and writable.
func (v *Variable) SetHidden(hidden bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.hidden = hidden
}

// PerInstance reports whether the value belongs to this device instance only.
func (v *Variable) PerInstance() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.perInstance
}

// SetPerInstance marks the value as not shared with sibling instances of the
// same device type.
func (v *Variable) SetPerInstance(perInstance bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.perInstance = perInstance
}

// Value returns the current value. Register-backed variables are rendered as
// a lowercase hex literal of the register word.
func (v *Variable) Value() string {
	if v.register != nil {
		return "0x" + strconv.FormatUint(uint64(v.register.Word(0)), 16)
	}

	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.value
}

// SetValue sets the variable value.
// Register-backed variables accept any integer literal strconv understands
// (decimal, 0x, 0o, 0b) that fits in 32 bits and mark the register stale.
func (v *Variable) SetValue(value string) error {
	if err := v.CheckValue(value); err != nil {
		return err
	}
	return v.setValueInternal(value)
}

// CheckValue reports the error SetValue would return for value without
// changing the variable.
func (v *Variable) CheckValue(value string) error {
	if v.metadata.Class == ClassStatus {
		return fmt.Errorf("%w: %s", ErrVariableNotWritable, v.metadata.Name)
	}
	if v.register != nil {
		if _, err := parseWord(value); err != nil {
			return fmt.Errorf("%w %s: %q", ErrVariableValue, v.metadata.Name, value)
		}
	}
	return nil
}

// SetValueInternal sets the value without checking the class.
// Used when mirroring hardware state into status variables.
func (v *Variable) SetValueInternal(value string) error {
	return v.setValueInternal(value)
}

func (v *Variable) setValueInternal(value string) error {
	if v.register != nil {
		n, err := parseWord(value)
		if err != nil {
			return fmt.Errorf("%w %s: %q", ErrVariableValue, v.metadata.Name, value)
		}
		v.register.SetWord(0, n)
		return nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.value = value
	return nil
}

func parseWord(value string) (uint32, error) {
	n, err := strconv.ParseUint(value, 0, 32)
	return uint32(n), err
}

// Bool interprets the value the way the tree stores flags ("True"/"False").
func (v *Variable) Bool() bool {
	b, err := strconv.ParseBool(v.Value())
	return err == nil && b
}

// FormatBool renders a flag value for a variable.
func FormatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
