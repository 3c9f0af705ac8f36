package cart

import (
	"fmt"

	"github.com/moffa90/go-umd/bus"
	"github.com/moffa90/go-umd/flash"
	"periph.io/x/conn/v3/gpio"
)

// Genesis address ranges and registers.
const (
	// TIME register window, reached through CE0 with the nLWR strobe.
	GenesisTimeLow  = 0xA13000
	GenesisTimeHigh = 0xA130FF

	// Battery RAM range on CE3.
	GenesisBRAMLow  = 0x200000
	GenesisBRAMHigh = 0x3FFFFF

	// GenesisBRAMControl latches battery RAM onto the bus.
	GenesisBRAMControl = 0xA130F1
	genesisBRAMEnable  = 0x03
	genesisBRAMDisable = 0x00
)

// Genesis drives Mega Drive cartridges: a 16-bit big-endian bus on CE3.
// Every word crossing the bus is byte-swapped, so a word returned by
// ReadWord serializes little-endian into cartridge (file) byte order.
type Genesis struct {
	core
	prgWin  *bus.Window // CE3, base + address
	memWin  *bus.Window // CE3, base | address
	timeWin *bus.Window // CE0, base | address, 8-bit
}

// NewGenesis returns a Genesis driver on b.
func NewGenesis(b bus.Bus, board *Board, opts ...Option) *Genesis {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Genesis{
		core:    newCore(board, cfg),
		prgWin:  bus.NewWindow(b, bus.CE3, bus.Width16, bus.Add),
		memWin:  bus.NewWindow(b, bus.CE3, bus.Width16, bus.Or),
		timeWin: bus.NewWindow(b, bus.CE0, bus.Width8, bus.Or),
	}
}

func (g *Genesis) Mode() Mode    { return ModeGenesis }
func (g *Genesis) Name() string  { return "genesis" }
func (g *Genesis) BusWidth() int { return 16 }

// Init holds the cart in reset while powering it at 5V, then releases it.
func (g *Genesis) Init() error {
	err := drive(
		pinLevel{g.board.MRES, gpio.Low},
		pinLevel{g.board.M3, gpio.High},
		pinLevel{g.board.LWR, gpio.High},
	)
	if err != nil {
		return err
	}
	if err := g.powerOn(Voltage5V); err != nil {
		return err
	}
	return drive(pinLevel{g.board.MRES, gpio.High})
}

func inBRAM(addr uint32) bool {
	return addr >= GenesisBRAMLow && addr <= GenesisBRAMHigh
}

func inTime(addr uint32) bool {
	return addr >= GenesisTimeLow && addr <= GenesisTimeHigh
}

func (g *Genesis) enableBRAM() error {
	return g.WriteByte(GenesisBRAMControl, genesisBRAMEnable, MemCtrl)
}

func (g *Genesis) disableBRAM() error {
	return g.WriteByte(GenesisBRAMControl, genesisBRAMDisable, MemCtrl)
}

// wordPort issues commands as cmd<<8: after the swap the command byte is
// on the chip's low lane, which is also where the ID bytes come back.
func (g *Genesis) wordPort() flashPort {
	return flashPort{
		command: func(addr uint32, cmd uint8) { g.WriteWord(addr<<1, uint16(cmd)<<8, MemPrg) },
		id:      func(index uint32) uint8 { return uint8(g.ReadWord(index<<1, MemPrg) >> 8) },
		status:  func() uint16 { return g.ReadWord(0, MemPrg) },
	}
}

func (g *Genesis) FlashID() flash.Info {
	g.flash = identify(g.wordPort())
	return g.flash
}

func (g *Genesis) EraseFlash(wait bool) error {
	return eraseChip(g.wordPort(), wait, g.config.EraseTimeout)
}

func (g *Genesis) ToggleBit(attempts int) int {
	return toggleBit(g.wordPort(), attempts)
}

// ReadWord reads one swapped word. Battery RAM reads are bracketed by the
// RAM latch; when the latch cannot be opened the bus floats high.
func (g *Genesis) ReadWord(addr uint32, mem MemType) uint16 {
	var raw uint16
	switch {
	case mem == MemPrg:
		raw = g.prgWin.Read16(addr)
	case mem == MemBRAM && inBRAM(addr):
		if g.enableBRAM() != nil {
			return 0xFFFF
		}
		raw = g.memWin.Read16(addr)
		_ = g.disableBRAM()
	default:
		raw = g.memWin.Read16(addr)
	}
	return swap16(raw)
}

func (g *Genesis) ReadWords(addr uint32, buf []uint16, mem MemType) {
	if mem != MemPrg {
		for i := range buf {
			buf[i] = g.ReadWord(addr+uint32(i)*2, mem)
		}
		return
	}
	g.prgWin.Read16Block(addr, buf)
	for i, w := range buf {
		buf[i] = swap16(w)
	}
}

// WriteWord swaps v before the bus cycle.
func (g *Genesis) WriteWord(addr uint32, v uint16, mem MemType) {
	switch {
	case mem == MemBRAM && inBRAM(addr):
		if g.enableBRAM() != nil {
			return
		}
		g.memWin.Write16(addr, swap16(v))
		_ = g.disableBRAM()
	case mem == MemPrg:
		g.prgWin.Write16(addr, swap16(v))
	default:
		g.memWin.Write16(addr, swap16(v))
	}
}

// ReadByte picks one lane of the containing word.
func (g *Genesis) ReadByte(addr uint32, mem MemType) uint8 {
	w := g.ReadWord(addr&^1, mem)
	if addr&1 == 1 {
		return uint8(w >> 8)
	}
	return uint8(w)
}

func (g *Genesis) ReadBytes(addr uint32, buf []byte, mem MemType) {
	for i := range buf {
		buf[i] = g.ReadByte(addr+uint32(i), mem)
	}
}

// WriteByte only reaches the TIME register window; the write is forced to
// an odd address and strobed with nLWR. Other byte writes are dropped.
func (g *Genesis) WriteByte(addr uint32, v uint8, mem MemType) error {
	if mem != MemCtrl || !inTime(addr) {
		return nil
	}
	if err := drive(pinLevel{g.board.LWR, gpio.Low}); err != nil {
		return fmt.Errorf("TIME write 0x%06X: %w", addr, err)
	}
	g.timeWin.Write8(addr|1, v)
	if err := drive(pinLevel{g.board.LWR, gpio.High}); err != nil {
		return fmt.Errorf("TIME write 0x%06X: %w", addr, err)
	}
	return nil
}

func (g *Genesis) ProgramWords(addr uint32, data []uint16, mem MemType) error {
	if addr&1 != 0 {
		return &AlignmentError{Address: addr, Length: len(data) * 2}
	}
	return program(g.wordPort(), addr, len(data), 2, func(i int) {
		g.WriteWord(addr+uint32(i)*2, data[i], mem)
	}, g.config.ProgramTimeout)
}

// ProgramBytes packs byte pairs into words in cartridge order.
func (g *Genesis) ProgramBytes(addr uint32, data []byte, mem MemType) error {
	if addr&1 != 0 || len(data)&1 != 0 {
		return &AlignmentError{Address: addr, Length: len(data)}
	}
	words := make([]uint16, len(data)/2)
	for i := range words {
		words[i] = uint16(data[2*i]) | uint16(data[2*i+1])<<8
	}
	return g.ProgramWords(addr, words, mem)
}
