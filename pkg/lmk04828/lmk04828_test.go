package lmk04828

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jesd204b/lmk-go/pkg/bus"
	"github.com/jesd204b/lmk-go/pkg/model"
)

func TestRegisterName(t *testing.T) {
	tests := []struct {
		addr uint32
		want string
	}{
		{0x0, "LmkReg0000"},
		{0x2, "LmkReg0002"},
		{0x106, "LmkReg0106"},
		{0x10e, "LmkReg010e"},
		{0x139, "LmkReg0139"},
		{0x1fff, "LmkReg1fff"},
		{0xabcd, "LmkRegabcd"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, RegisterName(tt.addr))
		})
	}
}

func TestRegisterCount(t *testing.T) {
	assert.Equal(t, 3, RegisterCount(0, 2))
	assert.Equal(t, 1, RegisterCount(7, 7))
	assert.Equal(t, 0, RegisterCount(3, 2))
	assert.Equal(t, 0x2000, RegisterCount(StartAddr, EndAddr))
}

func TestNewSmallRange(t *testing.T) {
	root := model.NewRoot("Root", bus.NewMemory())

	dev, err := New(root, 0, 0x1000, 0, 4, WithAddressRange(0x00, 0x02))
	require.NoError(t, err)

	regs := dev.Registers()
	require.Len(t, regs, 3)

	want := []struct {
		name string
		addr uint32
	}{
		{"LmkReg0000", 0x1000},
		{"LmkReg0001", 0x1004},
		{"LmkReg0002", 0x1008},
	}
	for i, w := range want {
		assert.Equal(t, w.name, regs[i].Name())
		assert.Equal(t, w.addr, regs[i].Address())
		assert.Equal(t, model.ClassConfiguration, regs[i].Class())
	}

	_, err = dev.Register("LmkReg0003")
	assert.ErrorIs(t, err, model.ErrRegisterNotFound)

	assert.Same(t, root, dev.Parent())
	assert.Equal(t, "Root/Lmk04828", dev.Path())
	assert.Equal(t, Description, dev.Description())
	assert.Equal(t, Name, dev.Name())
}

func TestNewFullRange(t *testing.T) {
	const base, stride = 0x40000, 4

	dev, err := New(nil, 0, base, 0, stride)
	require.NoError(t, err)
	assert.Nil(t, dev.Parent())

	regs := dev.Registers()
	require.Len(t, regs, RegisterCount(StartAddr, EndAddr))

	seen := make(map[string]bool, len(regs))
	for _, r := range regs {
		assert.False(t, seen[r.Name()], "duplicate register %s", r.Name())
		seen[r.Name()] = true
	}

	for i := StartAddr; i <= EndAddr; i++ {
		name := RegisterName(i)
		r, err := dev.Register(name)
		require.NoError(t, err, name)
		assert.Equal(t, uint32(base+i*stride), r.Address(), name)

		v, err := dev.Variable(name)
		require.NoError(t, err, name)
		assert.True(t, v.PerInstance(), "%s should be per-instance", name)
		assert.False(t, v.Hidden(), "%s should be visible", name)
		assert.Equal(t, model.ClassConfiguration, v.Class())
	}
}

func TestEnabledHidden(t *testing.T) {
	dev, err := New(nil, 0, 0, 0, 4, WithAddressRange(0, 0))
	require.NoError(t, err)

	v, err := dev.Variable(model.EnabledVariable)
	require.NoError(t, err)
	assert.True(t, v.Hidden())

	// Hidden only affects listings.
	assert.True(t, dev.Enabled())
	require.NoError(t, dev.SetEnabled(false))
	assert.False(t, dev.Enabled())
}

func TestInvalidRange(t *testing.T) {
	root := model.NewRoot("Root", bus.NewMemory())

	dev, err := New(root, 0, 0, 0, 4, WithAddressRange(5, 4))
	assert.ErrorIs(t, err, ErrInvalidAddressRange)
	assert.Nil(t, dev)
	assert.Empty(t, root.Devices(), "failed construction must not touch the parent")
}

func TestDuplicateInstanceRejected(t *testing.T) {
	root := model.NewRoot("Root", bus.NewMemory())

	_, err := New(root, 0, 0, 0, 4, WithAddressRange(0, 1))
	require.NoError(t, err)

	_, err = New(root, 0, 0x100, 0, 4, WithAddressRange(0, 1))
	assert.ErrorIs(t, err, model.ErrDuplicateDevice)

	second, err := New(root, 0, 0x100, 1, 4, WithAddressRange(0, 1))
	require.NoError(t, err)
	assert.Equal(t, "Root/Lmk04828[1]", second.Path())
}

func TestWriteReachesBus(t *testing.T) {
	ctx := context.Background()
	mem := bus.NewMemory()
	root := model.NewRoot("Root", mem)

	dev, err := New(root, 0, 0x8000, 0, 4)
	require.NoError(t, err)

	v, err := dev.Variable("LmkReg0139")
	require.NoError(t, err)
	require.NoError(t, v.SetValue("0x3"))

	r, err := dev.Register("LmkReg0139")
	require.NoError(t, err)
	require.NoError(t, dev.WriteRegister(ctx, r, false))

	assert.Equal(t, uint32(0x3), mem.Peek(0x8000+0x139*4))
}

func ExampleNew() {
	root := model.NewRoot("Root", bus.NewMemory())
	dev, _ := New(root, 0, 0x1000, 0, 4, WithAddressRange(0x00, 0x02))

	for _, r := range dev.Registers() {
		fmt.Printf("%s@0x%x\n", r.Name(), r.Address())
	}
	// Output:
	// LmkReg0000@0x1000
	// LmkReg0001@0x1004
	// LmkReg0002@0x1008
}
