// Package lmk04828 exposes the register file of a TI LMK04828 clock jitter
// cleaner as named configuration registers of a model.Device.
//
// Every chip address in [StartAddr, EndAddr] becomes a register link named
// "LmkReg" followed by the address as four lowercase hex digits, located at
// baseAddress + address*addrSize on the parent bus:
//
//	root := model.NewRoot("Root", b)
//	lmk, err := lmk04828.New(root, 0, 0x20000, 0, 4)
//	// lmk.Register("LmkReg0139") is at 0x20000 + 0x139*4
//
// The chip's inherited "Enabled" variable is hidden from listings.
package lmk04828
