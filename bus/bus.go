package bus

// Chip-select window base addresses in the external memory controller's
// address space. CE0..CE2 are wired as 8-bit banks, CE3 as a 16-bit bank.
const (
	CE0 uint32 = 0x60000000
	CE1 uint32 = 0x64000000
	CE2 uint32 = 0x68000000
	CE3 uint32 = 0x6C000000

	// WindowSize is the span of each chip-select window.
	WindowSize uint32 = 0x04000000
)

// Bus performs single physical bus cycles. Implementations must not cache
// or reorder transactions: every call is one observable cycle.
type Bus interface {
	Read8(addr uint32) uint8
	Write8(addr uint32, v uint8)
	Read16(addr uint32) uint16
	Write16(addr uint32, v uint16)
}

// Width is the data bus width of a window in bits.
type Width int

const (
	Width8  Width = 8
	Width16 Width = 16
)

// Compose selects how a logical address is combined with a window base.
type Compose int

const (
	// Or composes as base | addr. The logical address must fit below the
	// window's alignment boundary.
	Or Compose = iota

	// Add composes as base + addr.
	Add
)

func (c Compose) String() string {
	if c == Add {
		return "add"
	}
	return "or"
}
