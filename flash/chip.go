package flash

import (
	"sync"

	"github.com/moffa90/go-umd/bus"
)

// Command bytes and unlock addresses of the JEDEC command set.
const (
	UnlockAddr1 = 0x0AAA
	UnlockAddr2 = 0x0555

	CmdUnlock1    = 0xAA
	CmdUnlock2    = 0x55
	CmdEraseSetup = 0x80
	CmdChipErase  = 0x10
	CmdAutoSelect = 0x90
	CmdProgram    = 0xA0
	CmdReset      = 0xF0

	// Erased is the value of every erased byte.
	Erased = 0xFF

	// toggleMask is the DQ6 status bit that alternates while busy.
	toggleMask = 0x40

	cmdAddrMask = 0x0FFF
)

type chipState int

const (
	stateIdle chipState = iota
	stateUnlock1
	stateUnlock2
	stateProgram
	stateEraseSetup
	stateErase1
	stateErase2
)

// Chip models a JEDEC NOR flash on a simulated bus. It decodes the
// unlock, auto-select, program and chip-erase sequences, stores data
// little-endian, and reports busy through the DQ6 toggle bit for a
// configurable number of status reads after each program or erase.
//
// In 16-bit mode command addresses are word addresses (byte offset >> 1)
// and command bytes are taken from the low data lane.
type Chip struct {
	// ProgramBusyReads is how many reads toggle after a program.
	ProgramBusyReads int

	// EraseBusyReads is how many reads toggle after a chip erase.
	EraseBusyReads int

	// Stuck makes the chip report busy forever after its next operation.
	Stuck bool

	mu           sync.Mutex
	manufacturer uint8
	device       uint8
	width        bus.Width
	data         []byte
	state        chipState
	autoSelect   bool
	busy         int
	stuck        bool
	status       uint8
	programs     int
	erases       int
}

// NewChip returns a chip of size bytes, initially erased.
func NewChip(manufacturer, device uint8, size int, width bus.Width) *Chip {
	c := &Chip{
		ProgramBusyReads: 3,
		EraseBusyReads:   8,
		manufacturer:     manufacturer,
		device:           device,
		width:            width,
		data:             make([]byte, size),
	}
	for i := range c.data {
		c.data[i] = Erased
	}
	return c
}

// Data exposes the backing array. Tests use it to preload or inspect
// contents without going through the command set.
func (c *Chip) Data() []byte {
	return c.data
}

// Programs returns how many program operations completed.
func (c *Chip) Programs() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.programs
}

// Erases returns how many chip erases completed.
func (c *Chip) Erases() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.erases
}

// InAutoSelect reports whether the chip is in software ID mode.
func (c *Chip) InAutoSelect() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.autoSelect
}

func (c *Chip) cmdAddr(off uint32) uint32 {
	if c.width == bus.Width16 {
		off >>= 1
	}
	return off & cmdAddrMask
}

func (c *Chip) Read8(off uint32) uint8 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.read(off)
}

func (c *Chip) Read16(off uint32) uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy > 0 || c.stuck || c.autoSelect {
		v := c.read(off)
		if c.autoSelect {
			return uint16(v)
		}
		return uint16(v) | uint16(v)<<8
	}
	return uint16(c.peek(off)) | uint16(c.peek(off+1))<<8
}

func (c *Chip) read(off uint32) uint8 {
	if c.busy > 0 || c.stuck {
		if c.busy > 0 {
			c.busy--
		}
		c.status ^= toggleMask
		return c.status
	}
	if c.autoSelect {
		switch c.cmdAddr(off) {
		case 0:
			return c.manufacturer
		case 1:
			return c.device
		default:
			return 0
		}
	}
	return c.peek(off)
}

func (c *Chip) peek(off uint32) uint8 {
	if int(off) >= len(c.data) {
		return Erased
	}
	return c.data[off]
}

func (c *Chip) Write8(off uint32, v uint8) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.write(off, []byte{v})
}

func (c *Chip) Write16(off uint32, v uint16) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.write(off, []byte{uint8(v), uint8(v >> 8)})
}

func (c *Chip) write(off uint32, v []byte) {
	if c.busy > 0 || c.stuck {
		return
	}
	cmd := v[0]
	addr := c.cmdAddr(off)

	switch c.state {
	case stateIdle:
		switch {
		case cmd == CmdReset:
			c.autoSelect = false
		case addr == UnlockAddr1 && cmd == CmdUnlock1:
			c.state = stateUnlock1
		}
	case stateUnlock1:
		c.state = stateIdle
		if addr == UnlockAddr2 && cmd == CmdUnlock2 {
			c.state = stateUnlock2
		}
	case stateUnlock2:
		c.state = stateIdle
		if addr != UnlockAddr1 {
			return
		}
		switch cmd {
		case CmdAutoSelect:
			c.autoSelect = true
		case CmdProgram:
			c.state = stateProgram
		case CmdEraseSetup:
			c.state = stateEraseSetup
		case CmdReset:
			c.autoSelect = false
		}
	case stateProgram:
		c.state = stateIdle
		for i, b := range v {
			p := int(off) + i
			if p < len(c.data) {
				// NOR programming can only clear bits.
				c.data[p] &= b
			}
		}
		c.programs++
		c.startBusy(c.ProgramBusyReads)
	case stateEraseSetup:
		c.state = stateIdle
		if addr == UnlockAddr1 && cmd == CmdUnlock1 {
			c.state = stateErase1
		}
	case stateErase1:
		c.state = stateIdle
		if addr == UnlockAddr2 && cmd == CmdUnlock2 {
			c.state = stateErase2
		}
	case stateErase2:
		c.state = stateIdle
		if addr == UnlockAddr1 && cmd == CmdChipErase {
			for i := range c.data {
				c.data[i] = Erased
			}
			c.erases++
			c.startBusy(c.EraseBusyReads)
		}
	}
}

func (c *Chip) startBusy(reads int) {
	c.busy = reads
	c.stuck = c.Stuck
}
