package cart

import (
	"github.com/moffa90/go-umd/bus"
	"github.com/moffa90/go-umd/flash"
)

// Sega mapper layout.
const (
	SlotCount   = 3
	SlotSize    = 0x4000
	SlotMask    = 0x3FFF
	DefaultSlot = 2

	// MapperControl is the mapper control register; bit 7 enables writes
	// to the cartridge flash.
	MapperControl     = 0xFFFC
	mapperWriteEnable = 0x80
)

var (
	slotBase = [SlotCount]uint32{0x0000, 0x4000, 0x8000}
	slotReg  = [SlotCount]uint32{0xFFFD, 0xFFFE, 0xFFFF}
)

// MasterSystem drives Sega-mapper Master System cartridges on an 8-bit
// bus over CE0. Program memory is reached through three 16 KiB slots
// whose bank registers are shadowed so unchanged pages cost no bus cycle.
type MasterSystem struct {
	core
	win    *bus.Window
	shadow [SlotCount]uint8
}

// NewMasterSystem returns a Master System driver on b.
func NewMasterSystem(b bus.Bus, board *Board, opts ...Option) *MasterSystem {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &MasterSystem{
		core:   newCore(board, cfg),
		win:    bus.NewWindow(b, bus.CE0, bus.Width8, bus.Add),
		shadow: [SlotCount]uint8{0, 1, 2},
	}
}

func (m *MasterSystem) Mode() Mode    { return ModeMasterSystem }
func (m *MasterSystem) Name() string  { return "master system" }
func (m *MasterSystem) BusWidth() int { return 8 }

// Init powers the cart at 5V and loads the power-on page layout.
func (m *MasterSystem) Init() error {
	if err := m.powerOn(Voltage5V); err != nil {
		return err
	}
	for slot := range m.shadow {
		m.shadow[slot] = uint8(slot)
		m.win.Write8(slotReg[slot], uint8(slot))
	}
	m.setWriteEnable(false)
	return nil
}

// Shadow returns the page last written to a slot's bank register.
func (m *MasterSystem) Shadow(slot int) uint8 {
	return m.shadow[slot]
}

// SetSlotRegister pages addr into slot and returns the slot-relative bus
// address. The bank register is only written when its page changes.
// Slots outside 0..2 fall back to the default slot.
func (m *MasterSystem) SetSlotRegister(addr uint32, slot int) uint32 {
	if slot < 0 || slot >= SlotCount {
		slot = DefaultSlot
	}
	page := uint8(addr >> 14)
	if m.shadow[slot] != page {
		m.win.Write8(slotReg[slot], page)
		m.shadow[slot] = page
	}
	return slotBase[slot] + addr&SlotMask
}

func (m *MasterSystem) setWriteEnable(enable bool) {
	var v uint8
	if enable {
		v = mapperWriteEnable
	}
	m.win.Write8(MapperControl, v)
}

// ReadFixed reads a raw 16-bit bus address with no paging.
func (m *MasterSystem) ReadFixed(addr uint16) uint8 {
	return m.win.Read8(uint32(addr))
}

// ReadFixedBytes fills buf from a raw 16-bit bus address with no paging.
func (m *MasterSystem) ReadFixedBytes(addr uint16, buf []byte) {
	m.win.Read8Block(uint32(addr), buf)
}

// Commands go through slot 0, which holds page 0 where the JEDEC unlock
// addresses live; data goes through the default slot.
func (m *MasterSystem) flashPort() flashPort {
	return flashPort{
		command: func(addr uint32, cmd uint8) { m.win.Write8(m.SetSlotRegister(addr, 0), cmd) },
		id:      func(index uint32) uint8 { return m.win.Read8(m.SetSlotRegister(index, 0)) },
		status:  func() uint16 { return uint16(m.win.Read8(m.SetSlotRegister(0, 0))) },
	}
}

func (m *MasterSystem) FlashID() flash.Info {
	m.setWriteEnable(true)
	m.flash = identify(m.flashPort())
	m.setWriteEnable(false)
	return m.flash
}

func (m *MasterSystem) EraseFlash(wait bool) error {
	m.setWriteEnable(true)
	defer m.setWriteEnable(false)
	return eraseChip(m.flashPort(), wait, m.config.EraseTimeout)
}

func (m *MasterSystem) ToggleBit(attempts int) int {
	return toggleBit(m.flashPort(), attempts)
}

// ReadByte maps program memory through the default slot. Other memory
// types address the bus directly.
func (m *MasterSystem) ReadByte(addr uint32, mem MemType) uint8 {
	if mem != MemPrg {
		return m.win.Read8(addr)
	}
	return m.win.Read8(m.SetSlotRegister(addr, DefaultSlot))
}

// ReadBytes splits program reads at page boundaries.
func (m *MasterSystem) ReadBytes(addr uint32, buf []byte, mem MemType) {
	if mem != MemPrg {
		m.win.Read8Block(addr, buf)
		return
	}
	for len(buf) > 0 {
		n := SlotSize - int(addr&SlotMask)
		if n > len(buf) {
			n = len(buf)
		}
		m.win.Read8Block(m.SetSlotRegister(addr, DefaultSlot), buf[:n])
		buf = buf[n:]
		addr += uint32(n)
	}
}

func (m *MasterSystem) WriteByte(addr uint32, v uint8, mem MemType) error {
	if mem != MemPrg {
		m.win.Write8(addr, v)
		return nil
	}
	m.win.Write8(m.SetSlotRegister(addr, DefaultSlot), v)
	return nil
}

// ReadWord assembles two consecutive bytes, low byte first.
func (m *MasterSystem) ReadWord(addr uint32, mem MemType) uint16 {
	return uint16(m.ReadByte(addr, mem)) | uint16(m.ReadByte(addr+1, mem))<<8
}

func (m *MasterSystem) ReadWords(addr uint32, buf []uint16, mem MemType) {
	for i := range buf {
		buf[i] = m.ReadWord(addr+uint32(i)*2, mem)
	}
}

func (m *MasterSystem) WriteWord(addr uint32, v uint16, mem MemType) {
	m.WriteByte(addr, uint8(v), mem)
	m.WriteByte(addr+1, uint8(v>>8), mem)
}

func (m *MasterSystem) ProgramBytes(addr uint32, data []byte, mem MemType) error {
	m.setWriteEnable(true)
	defer m.setWriteEnable(false)
	return program(m.flashPort(), addr, len(data), 1, func(i int) {
		m.WriteByte(addr+uint32(i), data[i], mem)
	}, m.config.ProgramTimeout)
}

// ProgramWords programs each word as two bytes, low byte first.
func (m *MasterSystem) ProgramWords(addr uint32, data []uint16, mem MemType) error {
	buf := make([]byte, len(data)*2)
	for i, w := range data {
		buf[2*i] = uint8(w)
		buf[2*i+1] = uint8(w >> 8)
	}
	return m.ProgramBytes(addr, buf, mem)
}
