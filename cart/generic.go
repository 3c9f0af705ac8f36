package cart

import (
	"github.com/moffa90/go-umd/bus"
	"github.com/moffa90/go-umd/flash"
)

// Generic is the driver used when no known adapter is fitted. Bytes go to
// CE0 and words to CE3, both composed as base | address, with no paging.
type Generic struct {
	core
	byteWin *bus.Window
	wordWin *bus.Window
}

// NewGeneric returns a generic driver on b.
func NewGeneric(b bus.Bus, board *Board, opts ...Option) *Generic {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Generic{
		core:    newCore(board, cfg),
		byteWin: bus.NewWindow(b, bus.CE0, bus.Width8, bus.Or),
		wordWin: bus.NewWindow(b, bus.CE3, bus.Width16, bus.Or),
	}
}

func (g *Generic) Mode() Mode    { return ModeNone }
func (g *Generic) Name() string  { return "generic" }
func (g *Generic) BusWidth() int { return 8 }

// Init switches the supply and translators off.
func (g *Generic) Init() error {
	return g.powerOff()
}

func (g *Generic) bytePort() flashPort {
	return flashPort{
		command: func(addr uint32, cmd uint8) { g.byteWin.Write8(addr, cmd) },
		id:      func(index uint32) uint8 { return g.byteWin.Read8(index) },
		status:  func() uint16 { return uint16(g.byteWin.Read8(0)) },
	}
}

func (g *Generic) wordPort() flashPort {
	return flashPort{
		command: func(addr uint32, cmd uint8) { g.wordWin.Write16(addr<<1, uint16(cmd)) },
		id:      func(index uint32) uint8 { return uint8(g.wordWin.Read16(index << 1)) },
		status:  func() uint16 { return g.wordWin.Read16(0) },
	}
}

// FlashID identifies the flash in byte mode.
func (g *Generic) FlashID() flash.Info {
	g.flash = identify(g.bytePort())
	return g.flash
}

func (g *Generic) EraseFlash(wait bool) error {
	return eraseChip(g.bytePort(), wait, g.config.EraseTimeout)
}

func (g *Generic) ToggleBit(attempts int) int {
	return toggleBit(g.bytePort(), attempts)
}

func (g *Generic) ReadByte(addr uint32, mem MemType) uint8 {
	return g.byteWin.Read8(addr)
}

func (g *Generic) ReadBytes(addr uint32, buf []byte, mem MemType) {
	g.byteWin.Read8Block(addr, buf)
}

func (g *Generic) WriteByte(addr uint32, v uint8, mem MemType) error {
	g.byteWin.Write8(addr, v)
	return nil
}

func (g *Generic) ReadWord(addr uint32, mem MemType) uint16 {
	return g.wordWin.Read16(addr)
}

func (g *Generic) ReadWords(addr uint32, buf []uint16, mem MemType) {
	g.wordWin.Read16Block(addr, buf)
}

func (g *Generic) WriteWord(addr uint32, v uint16, mem MemType) {
	g.wordWin.Write16(addr, v)
}

func (g *Generic) ProgramBytes(addr uint32, data []byte, mem MemType) error {
	return program(g.bytePort(), addr, len(data), 1, func(i int) {
		g.byteWin.Write8(addr+uint32(i), data[i])
	}, g.config.ProgramTimeout)
}

func (g *Generic) ProgramWords(addr uint32, data []uint16, mem MemType) error {
	return program(g.wordPort(), addr, len(data), 2, func(i int) {
		g.wordWin.Write16(addr+uint32(i)*2, data[i])
	}, g.config.ProgramTimeout)
}
