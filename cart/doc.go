// Package cart implements the cartridge drivers that sit between the UMD's
// external bus and the cartridge adapters.
//
// # Variants
//
// Each adapter board is served by one Driver:
//   - Generic, used when no adapter (or an unknown one) is fitted
//   - Genesis, a 16-bit byte-swapped bus on CE3 with TIME and battery RAM access
//   - MasterSystem, an 8-bit bus on CE0 behind the Sega 3-slot mapper
//
// A Registry owns one instance of each and maps the adapter ID read from
// the adapter's I2C expander to a driver:
//
//	reg := cart.NewRegistry(b, board)
//	id, err := board.AdapterID()
//	if err != nil {
//	    return err
//	}
//	drv := reg.Get(cart.Mode(id))
//	if err := drv.Init(); err != nil {
//	    return err
//	}
//
// # Flash
//
// Flash identification, chip erase and programming use the JEDEC unlock
// sequences shared by the supported Microchip and Macronix parts. Every
// programmed element waits for the toggle bit to settle, bounded by the
// configured timeout:
//
//	drv := cart.NewGenesis(b, board,
//	    cart.WithProgramTimeout(20*time.Millisecond),
//	    cart.WithEraseTimeout(30*time.Second),
//	)
//	if err := drv.ProgramBytes(0, image, cart.MemPrg); cart.IsFlashTimeout(err) {
//	    // chip stopped responding
//	}
package cart
