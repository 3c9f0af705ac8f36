package cart

import (
	"fmt"

	"github.com/moffa90/go-umd/flash"
	"periph.io/x/conn/v3/gpio"
)

// Mode is the adapter ID reported by the expander on the adapter board.
// Its numeric value must match what the adapter's expander returns.
type Mode uint8

const (
	ModeNone         Mode = 0x00
	ModeGenesis      Mode = 0x01
	ModeMasterSystem Mode = 0x02
)

func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case ModeGenesis:
		return "genesis"
	case ModeMasterSystem:
		return "master system"
	default:
		return fmt.Sprintf("Mode(0x%02X)", uint8(m))
	}
}

// Voltage is the cartridge supply setting.
type Voltage uint8

const (
	VoltageOff Voltage = iota
	Voltage3V3
	Voltage5V
)

func (v Voltage) String() string {
	switch v {
	case VoltageOff:
		return "off"
	case Voltage3V3:
		return "3.3V"
	case Voltage5V:
		return "5V"
	default:
		return fmt.Sprintf("Voltage(%d)", uint8(v))
	}
}

// MemType tags which cartridge memory an access targets. Drivers use it to
// choose a window, a mapping, or a special access sequence.
type MemType int

const (
	MemPrg MemType = iota
	MemChr
	MemRAM
	MemBRAM
	MemCtrl
)

func (m MemType) String() string {
	switch m {
	case MemPrg:
		return "prg"
	case MemChr:
		return "chr"
	case MemRAM:
		return "ram"
	case MemBRAM:
		return "bram"
	case MemCtrl:
		return "ctrl"
	default:
		return fmt.Sprintf("MemType(%d)", int(m))
	}
}

// Driver is the capability set every cartridge variant implements.
//
// Block reads take a byte count for bytes and a word count (len(buf)) for
// words. Program operations poll the flash toggle bit after every element
// and fail with a *FlashTimeoutError when the chip does not settle.
type Driver interface {
	Mode() Mode
	Name() string
	BusWidth() int

	Init() error
	Voltage() Voltage
	SetVoltage(v Voltage) error
	SetLevelTranslators(enable bool) error
	AdapterID() (uint8, error)

	FlashID() flash.Info
	FlashInfo() flash.Info
	EraseFlash(wait bool) error
	ToggleBit(attempts int) int

	ReadByte(addr uint32, mem MemType) uint8
	ReadBytes(addr uint32, buf []byte, mem MemType)
	WriteByte(addr uint32, v uint8, mem MemType) error
	ReadWord(addr uint32, mem MemType) uint16
	ReadWords(addr uint32, buf []uint16, mem MemType)
	WriteWord(addr uint32, v uint16, mem MemType)

	ProgramBytes(addr uint32, data []byte, mem MemType) error
	ProgramWords(addr uint32, data []uint16, mem MemType) error
}

// core is the state shared by every variant: supply, translators, adapter
// ID access and the last flash identification.
type core struct {
	board   *Board
	config  Config
	voltage Voltage
	flash   flash.Info
}

func newCore(board *Board, cfg Config) core {
	if board == nil {
		board = &Board{}
	}
	return core{board: board, config: cfg}
}

// Voltage returns the last supply setting.
func (c *core) Voltage() Voltage {
	return c.voltage
}

// SetVoltage drives VSEL0/VSEL1. Unknown values switch the supply off.
//
//	3.3V: VSEL0=low  VSEL1=low
//	5V:   VSEL0=high VSEL1=low
//	off:  VSEL0=high VSEL1=high
func (c *core) SetVoltage(v Voltage) error {
	var vsel0, vsel1 gpio.Level
	switch v {
	case Voltage3V3:
		vsel0, vsel1 = gpio.Low, gpio.Low
	case Voltage5V:
		vsel0, vsel1 = gpio.High, gpio.Low
	default:
		v = VoltageOff
		vsel0, vsel1 = gpio.High, gpio.High
	}
	c.voltage = v
	return drive(pinLevel{c.board.VSel0, vsel0}, pinLevel{c.board.VSel1, vsel1})
}

// SetLevelTranslators enables or disables both translator banks.
func (c *core) SetLevelTranslators(enable bool) error {
	level := gpio.High
	if enable {
		level = gpio.Low
	}
	return drive(pinLevel{c.board.OutEn0, level}, pinLevel{c.board.OutEn1, level})
}

// AdapterID queries the adapter board's ID expander.
func (c *core) AdapterID() (uint8, error) {
	return c.board.AdapterID()
}

// FlashInfo returns the result of the last FlashID call.
func (c *core) FlashInfo() flash.Info {
	return c.flash
}

// powerOff is the safe default: no supply, translators off.
func (c *core) powerOff() error {
	if err := c.SetVoltage(VoltageOff); err != nil {
		return err
	}
	return c.SetLevelTranslators(false)
}

// powerOn applies a supply and enables the translators.
func (c *core) powerOn(v Voltage) error {
	if err := c.SetVoltage(v); err != nil {
		return err
	}
	return c.SetLevelTranslators(true)
}

func swap16(w uint16) uint16 {
	return w<<8 | w>>8
}
