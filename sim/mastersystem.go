package sim

import (
	"sync"

	"github.com/moffa90/go-umd/bus"
	"github.com/moffa90/go-umd/cart"
	"github.com/moffa90/go-umd/flash"
)

// fixedSize is the head of slot 0 that stays on page 0 regardless of the
// slot 0 bank register.
const fixedSize = 0x400

// MasterSystemCart models a Sega-mapper flash cartridge on CE0. Writes to
// 0xFFFC..0xFFFF land in the mapper registers; flash only accepts writes
// while the control register's write-enable bit is set.
type MasterSystemCart struct {
	Flash *flash.Chip

	mu      sync.Mutex
	control uint8
	banks   [cart.SlotCount]uint8
	regOps  [cart.SlotCount]int
}

// NewMasterSystemCart returns a cart around an 8-bit flash chip.
func NewMasterSystemCart(chip *flash.Chip) *MasterSystemCart {
	return &MasterSystemCart{
		Flash: chip,
		banks: [cart.SlotCount]uint8{0, 1, 2},
	}
}

// Attach maps the cart onto m.
func (s *MasterSystemCart) Attach(m *bus.Mux) error {
	return m.Attach(bus.CE0, bus.WindowSize, s)
}

// Bank returns the page selected in a slot.
func (s *MasterSystemCart) Bank(slot int) uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.banks[slot]
}

// BankWrites returns how many times a slot's bank register was written.
func (s *MasterSystemCart) BankWrites(slot int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.regOps[slot]
}

// Control returns the mapper control register.
func (s *MasterSystemCart) Control() uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.control
}

// physical translates a CPU address below 0xC000 to a flash offset.
func (s *MasterSystemCart) physical(off uint32) (uint32, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if off < fixedSize {
		return off, true
	}
	slot := int(off / cart.SlotSize)
	if slot >= cart.SlotCount {
		return 0, false
	}
	return uint32(s.banks[slot])*cart.SlotSize + off&cart.SlotMask, true
}

func (s *MasterSystemCart) Read8(off uint32) uint8 {
	p, ok := s.physical(off)
	if !ok {
		return 0xFF
	}
	return s.Flash.Read8(p)
}

func (s *MasterSystemCart) Write8(off uint32, v uint8) {
	switch {
	case off == cart.MapperControl:
		s.mu.Lock()
		s.control = v
		s.mu.Unlock()
		return
	case off > cart.MapperControl && off <= 0xFFFF:
		slot := int(off - cart.MapperControl - 1)
		s.mu.Lock()
		s.banks[slot] = v
		s.regOps[slot]++
		s.mu.Unlock()
		return
	}
	p, ok := s.physical(off)
	if !ok || s.Control()&0x80 == 0 {
		return
	}
	s.Flash.Write8(p, v)
}

func (s *MasterSystemCart) Read16(off uint32) uint16 {
	return uint16(s.Read8(off)) | uint16(s.Read8(off+1))<<8
}

// Write16 writes two consecutive bytes, low byte first, matching Read16.
func (s *MasterSystemCart) Write16(off uint32, v uint16) {
	s.Write8(off, uint8(v))
	s.Write8(off+1, uint8(v>>8))
}
