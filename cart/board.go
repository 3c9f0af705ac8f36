package cart

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/i2c"
)

// Adapter ID expander (MCP23008) on the cartridge adapter board.
const (
	// AdapterIDAddr is the 7-bit I2C address of the ID expander.
	AdapterIDAddr = 0x20

	// AdapterIDRegister is the expander's GPIO port register.
	AdapterIDRegister = 0x09
)

// Board holds the UMD control lines a cartridge driver touches. Any pin
// may be nil on boards that do not route it; writes to a nil pin are
// dropped.
type Board struct {
	// VSel0 and VSel1 select the cartridge supply voltage.
	VSel0 gpio.PinIO
	VSel1 gpio.PinIO

	// OutEn0 and OutEn1 enable the level translators (active low).
	OutEn0 gpio.PinIO
	OutEn1 gpio.PinIO

	// LWR is the Genesis lower write strobe (active low, on SEL1).
	LWR gpio.PinIO

	// MRES is the Genesis cartridge reset (active low, on GP8).
	MRES gpio.PinIO

	// M3 selects Master System compatibility mode on Genesis carts (GP2).
	M3 gpio.PinIO

	// IDBus is the I2C bus the adapter ID expander sits on.
	IDBus i2c.Bus
}

func out(p gpio.PinIO, l gpio.Level) error {
	if p == nil {
		return nil
	}
	return p.Out(l)
}

// drive sets several pins, stopping at the first failure.
func drive(pins ...pinLevel) error {
	for _, pl := range pins {
		if err := out(pl.pin, pl.level); err != nil {
			name := "pin"
			if pl.pin != nil {
				name = pl.pin.Name()
			}
			return fmt.Errorf("drive %s %s: %w", name, pl.level, err)
		}
	}
	return nil
}

type pinLevel struct {
	pin   gpio.PinIO
	level gpio.Level
}

// AdapterID reads the ID byte from the adapter's expander.
func (b *Board) AdapterID() (uint8, error) {
	if b.IDBus == nil {
		return 0, fmt.Errorf("no adapter ID bus")
	}
	dev := i2c.Dev{Bus: b.IDBus, Addr: AdapterIDAddr}
	var id [1]byte
	if err := dev.Tx([]byte{AdapterIDRegister}, id[:]); err != nil {
		return 0, fmt.Errorf("read adapter ID: %w", err)
	}
	return id[0], nil
}
