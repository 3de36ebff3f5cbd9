package lmk04828

import (
	"errors"
	"fmt"

	"github.com/jesd204b/lmk-go/pkg/model"
)

// Name is the device type name registered in the tree.
const Name = "Lmk04828"

// Description is the human-readable device description.
const Description = "LMK data acquisition control"

// RegisterPrefix starts every register name.
const RegisterPrefix = "LmkReg"

// Chip register file bounds (inclusive).
const (
	StartAddr uint32 = 0x0000
	EndAddr   uint32 = 0x1FFF
)

// ErrInvalidAddressRange is returned when the start address exceeds the end address.
var ErrInvalidAddressRange = errors.New("invalid register address range")

type config struct {
	start uint32
	end   uint32
}

// Option configures New.
type Option func(*config)

// WithAddressRange replaces the chip register range [StartAddr, EndAddr].
func WithAddressRange(start, end uint32) Option {
	return func(c *config) {
		c.start = start
		c.end = end
	}
}

// RegisterName returns the register name for a chip address, e.g. "LmkReg0139".
func RegisterName(addr uint32) string {
	return fmt.Sprintf("%s%04x", RegisterPrefix, addr)
}

// RegisterOffset returns the bus address of chip address addr.
func RegisterOffset(baseAddress, addr, addrSize uint32) uint32 {
	return baseAddress + addr*addrSize
}

// RegisterCount returns the number of registers in [start, end].
func RegisterCount(start, end uint32) int {
	if start > end {
		return 0
	}
	return int(end-start) + 1
}

// New builds an LMK04828 device and attaches it to parent (if non-nil).
// addrSize is the bus distance between consecutive chip registers.
func New(parent *model.Device, linkConfig, baseAddress, index, addrSize uint32, opts ...Option) (*model.Device, error) {
	cfg := config{start: StartAddr, end: EndAddr}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.start > cfg.end {
		return nil, fmt.Errorf("%w: 0x%x > 0x%x", ErrInvalidAddressRange, cfg.start, cfg.end)
	}

	dev := model.NewDevice(Name, linkConfig, baseAddress, index)
	dev.SetDescription(Description)

	// Break before incrementing so an end of 0xFFFFFFFF terminates.
	for i := cfg.start; ; i++ {
		link := model.NewRegisterLink(RegisterName(i), RegisterOffset(baseAddress, i, addrSize), model.ClassConfiguration)
		if err := dev.AddRegisterLink(link); err != nil {
			return nil, fmt.Errorf("lmk04828: %w", err)
		}
		link.Variable().SetPerInstance(true)

		if i == cfg.end {
			break
		}
	}

	enabled, err := dev.Variable(model.EnabledVariable)
	if err != nil {
		return nil, fmt.Errorf("lmk04828: %w", err)
	}
	enabled.SetHidden(true)

	if parent != nil {
		if err := parent.AddDevice(dev); err != nil {
			return nil, fmt.Errorf("lmk04828: %w", err)
		}
	}
	return dev, nil
}
