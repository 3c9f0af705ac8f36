package bus

import (
	"fmt"
	"sort"
	"sync"
)

// Mux is a simulated external bus. Devices are attached to address ranges
// and see offsets relative to their range base. Cycles that hit no device
// float high, like an undriven data bus with pull-ups.
type Mux struct {
	regions []region
}

type region struct {
	base uint32
	size uint32
	dev  Bus
}

// NewMux returns an empty simulated bus.
func NewMux() *Mux {
	return &Mux{}
}

// Attach maps dev at [base, base+size). Overlapping ranges are rejected.
func (m *Mux) Attach(base, size uint32, dev Bus) error {
	if size == 0 {
		return fmt.Errorf("region at 0x%08X has zero size", base)
	}
	for _, r := range m.regions {
		if base < r.base+r.size && r.base < base+size {
			return fmt.Errorf("region 0x%08X+0x%X overlaps 0x%08X+0x%X", base, size, r.base, r.size)
		}
	}
	m.regions = append(m.regions, region{base: base, size: size, dev: dev})
	sort.Slice(m.regions, func(i, j int) bool { return m.regions[i].base < m.regions[j].base })
	return nil
}

func (m *Mux) find(addr uint32) (Bus, uint32, bool) {
	i := sort.Search(len(m.regions), func(i int) bool {
		r := m.regions[i]
		return r.base+r.size > addr
	})
	if i < len(m.regions) && m.regions[i].base <= addr {
		return m.regions[i].dev, addr - m.regions[i].base, true
	}
	return nil, 0, false
}

func (m *Mux) Read8(addr uint32) uint8 {
	if dev, off, ok := m.find(addr); ok {
		return dev.Read8(off)
	}
	return 0xFF
}

func (m *Mux) Write8(addr uint32, v uint8) {
	if dev, off, ok := m.find(addr); ok {
		dev.Write8(off, v)
	}
}

func (m *Mux) Read16(addr uint32) uint16 {
	if dev, off, ok := m.find(addr); ok {
		return dev.Read16(off)
	}
	return 0xFFFF
}

func (m *Mux) Write16(addr uint32, v uint16) {
	if dev, off, ok := m.find(addr); ok {
		dev.Write16(off, v)
	}
}

// RAM is plain little-endian memory usable as a bus device.
type RAM struct {
	Data []byte
}

// NewRAM returns size bytes of zeroed memory.
func NewRAM(size int) *RAM {
	return &RAM{Data: make([]byte, size)}
}

func (r *RAM) Read8(off uint32) uint8 {
	if int(off) >= len(r.Data) {
		return 0xFF
	}
	return r.Data[off]
}

func (r *RAM) Write8(off uint32, v uint8) {
	if int(off) < len(r.Data) {
		r.Data[off] = v
	}
}

func (r *RAM) Read16(off uint32) uint16 {
	return uint16(r.Read8(off)) | uint16(r.Read8(off+1))<<8
}

func (r *RAM) Write16(off uint32, v uint16) {
	r.Write8(off, uint8(v))
	r.Write8(off+1, uint8(v>>8))
}

// OpKind is the kind of a traced bus cycle.
type OpKind int

const (
	OpRead8 OpKind = iota
	OpWrite8
	OpRead16
	OpWrite16
)

func (k OpKind) String() string {
	switch k {
	case OpRead8:
		return "R8"
	case OpWrite8:
		return "W8"
	case OpRead16:
		return "R16"
	case OpWrite16:
		return "W16"
	default:
		return fmt.Sprintf("OpKind(%d)", int(k))
	}
}

// Op is one traced bus cycle.
type Op struct {
	Kind  OpKind
	Addr  uint32
	Value uint16
}

func (o Op) String() string {
	return fmt.Sprintf("%s 0x%08X=0x%04X", o.Kind, o.Addr, o.Value)
}

// Trace wraps a bus and records every cycle that passes through it.
type Trace struct {
	Bus

	mu  sync.Mutex
	ops []Op
}

// NewTrace wraps b.
func NewTrace(b Bus) *Trace {
	return &Trace{Bus: b}
}

func (t *Trace) record(op Op) {
	t.mu.Lock()
	t.ops = append(t.ops, op)
	t.mu.Unlock()
}

func (t *Trace) Read8(addr uint32) uint8 {
	v := t.Bus.Read8(addr)
	t.record(Op{Kind: OpRead8, Addr: addr, Value: uint16(v)})
	return v
}

func (t *Trace) Write8(addr uint32, v uint8) {
	t.record(Op{Kind: OpWrite8, Addr: addr, Value: uint16(v)})
	t.Bus.Write8(addr, v)
}

func (t *Trace) Read16(addr uint32) uint16 {
	v := t.Bus.Read16(addr)
	t.record(Op{Kind: OpRead16, Addr: addr, Value: v})
	return v
}

func (t *Trace) Write16(addr uint32, v uint16) {
	t.record(Op{Kind: OpWrite16, Addr: addr, Value: v})
	t.Bus.Write16(addr, v)
}

// Ops returns a copy of the recorded cycles.
func (t *Trace) Ops() []Op {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Op, len(t.ops))
	copy(out, t.ops)
	return out
}

// Writes returns how many write cycles (either width) hit addr.
func (t *Trace) Writes(addr uint32) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, op := range t.ops {
		if (op.Kind == OpWrite8 || op.Kind == OpWrite16) && op.Addr == addr {
			n++
		}
	}
	return n
}

// Reset discards the recorded cycles.
func (t *Trace) Reset() {
	t.mu.Lock()
	t.ops = t.ops[:0]
	t.mu.Unlock()
}
