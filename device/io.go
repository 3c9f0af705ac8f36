package device

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
)

// LEDs returns the last LED pattern, LED0 in bit 0.
func (d *Device) LEDs() uint8 {
	return d.leds
}

// SetLEDs lights the LEDs whose bits are set in the low nibble of v.
func (d *Device) SetLEDs(v uint8) error {
	d.leds = v & 0x0F
	for i, pin := range d.config.LEDs {
		if pin == nil {
			continue
		}
		if err := pin.Out(gpio.Level(d.leds>>uint(i)&1 == 1)); err != nil {
			return fmt.Errorf("LED%d: %w", i, err)
		}
	}
	return nil
}

// ShiftLEDs moves a single lit LED one position up, wrapping from LED3
// to LED0. Any other pattern restarts at LED0.
func (d *Device) ShiftLEDs() error {
	next := uint8(0x01)
	switch d.leds {
	case 0x01, 0x02, 0x04:
		next = d.leds << 1
	}
	return d.SetLEDs(next)
}

// BootPrecharge drives BOOT_EN.
func (d *Device) BootPrecharge(on bool) error {
	if d.config.BootPin == nil {
		return nil
	}
	return d.config.BootPin.Out(gpio.Level(on))
}
