package model

import (
	"context"
	"errors"
)

// ErrTransactionDone is returned when a Tx is used after its function returned.
var ErrTransactionDone = errors.New("transaction already finished")

// Tx is a sequence of register updates made while holding a device's register
// lock. Each Set is committed to hardware before the next one starts.
type Tx struct {
	ctx    context.Context
	dev    *Device
	writes int
	done   bool
}

// Transaction runs fn with the register lock of d held. The lock is released
// when fn returns, including on error or panic. Writes already committed are
// not rolled back when fn fails.
func (d *Device) Transaction(ctx context.Context, fn func(tx *Tx) error) error {
	unlock := d.LockRegisters()
	defer unlock()

	tx := &Tx{ctx: ctx, dev: d}
	defer func() { tx.done = true }()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(tx)
}

// Path returns the path of the device the transaction locks. The device
// itself is not exposed: its ReadRegister and WriteRegister take the register
// lock again and would block inside fn.
func (tx *Tx) Path() string {
	return tx.dev.Path()
}

// Writes returns the number of registers committed so far.
func (tx *Tx) Writes() int {
	return tx.writes
}

// Register looks up a register of the locked device.
func (tx *Tx) Register(name string) (*Register, error) {
	if tx.done {
		return nil, ErrTransactionDone
	}
	return tx.dev.Register(name)
}

// Set updates a bitfield of the named register and writes it to hardware.
func (tx *Tx) Set(name string, value uint32, bit uint, mask uint32) error {
	r, err := tx.Register(name)
	if err != nil {
		return err
	}
	r.Set(value, bit, mask)
	return tx.Write(r)
}

// Write commits r to hardware unconditionally.
func (tx *Tx) Write(r *Register) error {
	if tx.done {
		return ErrTransactionDone
	}
	if err := tx.ctx.Err(); err != nil {
		return err
	}
	if err := tx.dev.writeRegister(tx.ctx, r, true); err != nil {
		return err
	}
	tx.writes++
	return nil
}

// Read refreshes the named register from hardware and returns it.
func (tx *Tx) Read(name string) (*Register, error) {
	r, err := tx.Register(name)
	if err != nil {
		return nil, err
	}
	if err := tx.ctx.Err(); err != nil {
		return nil, err
	}
	if err := tx.dev.readRegister(tx.ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}
