package bus

import "fmt"

// Window is one chip-select address window bound to a bus. It owns the
// address composition so callers only ever deal in logical addresses.
type Window struct {
	bus     Bus
	base    uint32
	width   Width
	compose Compose
}

// NewWindow binds a window at base on b.
//
// Example:
//
//	rom := bus.NewWindow(b, bus.CE3, bus.Width16, bus.Add)
//	w := rom.Read16(0x100)
func NewWindow(b Bus, base uint32, width Width, compose Compose) *Window {
	if b == nil {
		panic("bus cannot be nil")
	}
	return &Window{bus: b, base: base, width: width, compose: compose}
}

// Base returns the window base address.
func (w *Window) Base() uint32 { return w.base }

// Width returns the window data width.
func (w *Window) Width() Width { return w.width }

// Compose returns the composition discipline.
func (w *Window) Compose() Compose { return w.compose }

// Addr maps a logical address to the physical bus address.
func (w *Window) Addr(addr uint32) uint32 {
	if w.compose == Add {
		return w.base + addr
	}
	return w.base | addr
}

// Read8 reads one byte.
func (w *Window) Read8(addr uint32) uint8 {
	return w.bus.Read8(w.Addr(addr))
}

// Read8Block fills buf with consecutive bytes starting at addr.
func (w *Window) Read8Block(addr uint32, buf []byte) {
	for i := range buf {
		buf[i] = w.bus.Read8(w.Addr(addr + uint32(i)))
	}
}

// Write8 writes one byte.
func (w *Window) Write8(addr uint32, v uint8) {
	w.bus.Write8(w.Addr(addr), v)
}

// Read16 reads one word.
func (w *Window) Read16(addr uint32) uint16 {
	return w.bus.Read16(w.Addr(addr))
}

// Read16Block fills buf with consecutive words starting at addr.
// addr advances by 2 per word.
func (w *Window) Read16Block(addr uint32, buf []uint16) {
	for i := range buf {
		buf[i] = w.bus.Read16(w.Addr(addr + uint32(i)*2))
	}
}

// Write16 writes one word.
func (w *Window) Write16(addr uint32, v uint16) {
	w.bus.Write16(w.Addr(addr), v)
}

func (w *Window) String() string {
	return fmt.Sprintf("window 0x%08X/%d (%s)", w.base, w.width, w.compose)
}
