// Package model implements the device tree used to control the clocking and
// JESD204B hardware of a data-acquisition board.
//
// # Device Tree
//
// Devices form a hierarchy rooted at a single root device that owns the bus:
//
//	Root
//	├── Lmk04828[0]
//	│   ├── LmkReg0000 (register link)
//	│   ├── LmkReg0001
//	│   └── ...
//	└── ...
//
// Each Device owns three collections:
//   - Registers: word-sized hardware locations at absolute bus addresses
//   - Variables: named, user-inspectable values (every device has "Enabled")
//   - Commands: named operations dispatched by Device.Command
//
// # Register Links
//
// A RegisterLink binds a Register and a Variable of the same name. Reading the
// variable formats the register word, writing it parses the value back into the
// register. The register is committed to hardware with Device.WriteRegister.
//
// # Register Lock
//
// Multi-register updates hold the owning device's register lock for their whole
// duration. Device.Transaction acquires the lock and releases it on every exit
// path:
//
//	err := dev.Transaction(ctx, func(tx *model.Tx) error {
//	    if err := tx.Set("LmkReg0139", 0x3, 0, 0x3); err != nil {
//	        return err
//	    }
//	    return tx.Set("LmkReg0106", 0x0, 0, 0x1)
//	})
//
// # Bus
//
// Hardware access goes through the bus.Bus of the nearest ancestor that has
// one, normally the root created with NewRoot.
package model
