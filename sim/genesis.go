package sim

import (
	"sync"

	"github.com/moffa90/go-umd/bus"
	"github.com/moffa90/go-umd/cart"
	"github.com/moffa90/go-umd/flash"
	"periph.io/x/conn/v3/gpio"
)

// GenesisCart models a Mega Drive flash cartridge. Program flash and
// battery RAM answer on CE3; the TIME register window answers on CE0 and
// only latches writes while the lower write strobe is low.
type GenesisCart struct {
	Flash *flash.Chip
	BRAM  *bus.RAM

	mu         sync.Mutex
	lwr        gpio.PinIn
	bramOn     bool
	timeWrites []TimeWrite
}

// TimeWrite is one latched write to the TIME register window.
type TimeWrite struct {
	Addr  uint32
	Value uint8
}

// NewGenesisCart returns a cart around a 16-bit flash chip. lwr is the
// board's nLWR line; a nil lwr latches every TIME write.
func NewGenesisCart(chip *flash.Chip, lwr gpio.PinIn) *GenesisCart {
	return &GenesisCart{
		Flash: chip,
		BRAM:  bus.NewRAM(cart.GenesisBRAMHigh - cart.GenesisBRAMLow + 1),
		lwr:   lwr,
	}
}

// Attach maps the cart onto m.
func (g *GenesisCart) Attach(m *bus.Mux) error {
	if err := m.Attach(bus.CE3, bus.WindowSize, (*genesisROM)(g)); err != nil {
		return err
	}
	return m.Attach(bus.CE0, bus.WindowSize, (*genesisTime)(g))
}

// BRAMEnabled reports whether the battery RAM latch is open.
func (g *GenesisCart) BRAMEnabled() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.bramOn
}

// TimeWrites returns the latched TIME register writes in order.
func (g *GenesisCart) TimeWrites() []TimeWrite {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]TimeWrite(nil), g.timeWrites...)
}

func (g *GenesisCart) bram(off uint32) (uint32, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.bramOn && off >= cart.GenesisBRAMLow && off <= cart.GenesisBRAMHigh {
		return off - cart.GenesisBRAMLow, true
	}
	return 0, false
}

type genesisROM GenesisCart

func (r *genesisROM) Read8(off uint32) uint8 {
	w := r.Read16(off &^ 1)
	if off&1 == 1 {
		return uint8(w >> 8)
	}
	return uint8(w)
}

func (r *genesisROM) Write8(off uint32, v uint8) {}

func (r *genesisROM) Read16(off uint32) uint16 {
	if o, ok := (*GenesisCart)(r).bram(off); ok {
		return r.BRAM.Read16(o)
	}
	return r.Flash.Read16(off)
}

func (r *genesisROM) Write16(off uint32, v uint16) {
	if o, ok := (*GenesisCart)(r).bram(off); ok {
		r.BRAM.Write16(o, v)
		return
	}
	r.Flash.Write16(off, v)
}

type genesisTime GenesisCart

func (t *genesisTime) Read8(off uint32) uint8       { return 0xFF }
func (t *genesisTime) Read16(off uint32) uint16     { return 0xFFFF }
func (t *genesisTime) Write16(off uint32, v uint16) {}

func (t *genesisTime) Write8(off uint32, v uint8) {
	if off < cart.GenesisTimeLow || off > cart.GenesisTimeHigh {
		return
	}
	if t.lwr != nil && t.lwr.Read() != gpio.Low {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.timeWrites = append(t.timeWrites, TimeWrite{Addr: off, Value: v})
	if off == cart.GenesisBRAMControl {
		t.bramOn = v&1 == 1
	}
}
