package cart

import (
	"time"

	"github.com/moffa90/go-umd/flash"
)

// flashPort is the narrow bus capability the shared flash algorithms need.
// Addresses passed to command are unscaled JEDEC addresses (0xAAA, 0x555);
// each variant scales and encodes them for its bus.
type flashPort struct {
	command func(addr uint32, cmd uint8)
	id      func(index uint32) uint8
	status  func() uint16
}

func (p flashPort) unlock(cmd uint8) {
	p.command(flash.UnlockAddr1, flash.CmdUnlock1)
	p.command(flash.UnlockAddr2, flash.CmdUnlock2)
	p.command(flash.UnlockAddr1, cmd)
}

// identify enters software ID mode, reads manufacturer and device, then
// resets the chip back to read mode.
func identify(p flashPort) flash.Info {
	p.unlock(flash.CmdAutoSelect)
	mfr := p.id(0)
	dev := p.id(1)
	p.command(0, flash.CmdReset)
	return flash.Identify(mfr, dev)
}

// toggleBit reads the status location attempts times after a priming read
// and returns the length of the final run of equal consecutive reads.
func toggleBit(p flashPort, attempts int) int {
	check := 0
	old := p.status()
	for i := 0; i < attempts; i++ {
		v := p.status()
		if v == old {
			check++
		} else {
			check = 0
		}
		old = v
	}
	return check
}

// waitReady polls until toggleBit reports attempts stable reads.
func waitReady(p flashPort, attempts int, timeout time.Duration, op string, addr uint32) error {
	start := time.Now()
	for toggleBit(p, attempts) != attempts {
		if time.Since(start) > timeout {
			return &FlashTimeoutError{Operation: op, Address: addr, Timeout: timeout}
		}
	}
	return nil
}

// eraseChip issues the six-cycle chip erase. With wait it polls the toggle
// bit until the chip settles or the timeout elapses.
func eraseChip(p flashPort, wait bool, timeout time.Duration) error {
	p.unlock(flash.CmdEraseSetup)
	p.unlock(flash.CmdChipErase)
	if !wait {
		return nil
	}
	return waitReady(p, 4, timeout, "erase", 0)
}

// program writes n elements, each preceded by the program unlock and
// followed by a toggle-bit wait, so at most one write is in flight.
func program(p flashPort, addr uint32, n, step int, write func(i int), timeout time.Duration) error {
	for i := 0; i < n; i++ {
		p.unlock(flash.CmdProgram)
		write(i)
		if err := waitReady(p, 2, timeout, "program", addr+uint32(i*step)); err != nil {
			return err
		}
	}
	return nil
}
