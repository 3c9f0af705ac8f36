// Package sim provides simulated UMD hardware: the external bus, the
// Genesis and Sega-mapper Master System flash cartridges, the adapter ID
// expander and a board of test GPIO pins.
//
// A Rig assembles all of it for a given adapter:
//
//	rig, err := sim.NewRig(cart.ModeGenesis)
//	if err != nil {
//	    return err
//	}
//	reg := cart.NewRegistry(rig.Bus, rig.Board)
package sim

import (
	"fmt"

	"github.com/moffa90/go-umd/bus"
	"github.com/moffa90/go-umd/cart"
	"github.com/moffa90/go-umd/flash"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

// Pins are the test pins behind a simulated board.
type Pins struct {
	VSel0  *gpiotest.Pin
	VSel1  *gpiotest.Pin
	OutEn0 *gpiotest.Pin
	OutEn1 *gpiotest.Pin
	LWR    *gpiotest.Pin
	MRES   *gpiotest.Pin
	M3     *gpiotest.Pin
	LEDs   [4]*gpiotest.Pin
	BootEn *gpiotest.Pin
}

func newPin(name string, num int, level gpio.Level) *gpiotest.Pin {
	return &gpiotest.Pin{N: name, Num: num, L: level}
}

// NewBoard returns a board wired to fresh test pins and the given ID bus.
// Pins start at their idle levels: supply off, translators disabled.
func NewBoard(ids *IDExpander) (*cart.Board, Pins) {
	p := Pins{
		VSel0:  newPin("VSEL0", 0, gpio.High),
		VSel1:  newPin("VSEL1", 1, gpio.High),
		OutEn0: newPin("OE0", 2, gpio.High),
		OutEn1: newPin("OE1", 3, gpio.High),
		LWR:    newPin("SEL1", 4, gpio.High),
		MRES:   newPin("GP8", 5, gpio.High),
		M3:     newPin("GP2", 6, gpio.Low),
		BootEn: newPin("BOOT_EN", 11, gpio.Low),
	}
	for i := range p.LEDs {
		p.LEDs[i] = newPin(fmt.Sprintf("LED%d", i), 7+i, gpio.Low)
	}
	b := &cart.Board{
		VSel0:  p.VSel0,
		VSel1:  p.VSel1,
		OutEn0: p.OutEn0,
		OutEn1: p.OutEn1,
		LWR:    p.LWR,
		MRES:   p.MRES,
		M3:     p.M3,
	}
	if ids != nil {
		b.IDBus = ids
	}
	return b, p
}

// Rig is a complete simulated UMD with one adapter fitted.
type Rig struct {
	// Bus traces every cycle the drivers issue.
	Bus *bus.Trace
	Mux *bus.Mux

	Board *cart.Board
	Pins  Pins
	IDs   *IDExpander

	// Flash is the fitted cartridge's chip; nil for ModeNone.
	Flash        *flash.Chip
	Genesis      *GenesisCart
	MasterSystem *MasterSystemCart
}

// Chips fitted by NewRig.
const (
	GenesisFlashDevice      = 0x5B // SST39VF3201, 4 MiB
	MasterSystemFlashDevice = 0x23 // MX29F400CT, 512 KiB
)

// NewRig builds a rig with the adapter for mode fitted. ModeNone leaves
// the bus empty.
func NewRig(mode cart.Mode) (*Rig, error) {
	mux := bus.NewMux()
	ids := NewIDExpander(mode)
	board, pins := NewBoard(ids)
	r := &Rig{
		Bus:   bus.NewTrace(mux),
		Mux:   mux,
		Board: board,
		Pins:  pins,
		IDs:   ids,
	}

	switch mode {
	case cart.ModeNone:
	case cart.ModeGenesis:
		r.Flash = flash.NewChip(flash.Microchip, GenesisFlashDevice, 0x400000, bus.Width16)
		r.Genesis = NewGenesisCart(r.Flash, pins.LWR)
		if err := r.Genesis.Attach(mux); err != nil {
			return nil, err
		}
	case cart.ModeMasterSystem:
		r.Flash = flash.NewChip(flash.Macronix, MasterSystemFlashDevice, 0x80000, bus.Width8)
		r.MasterSystem = NewMasterSystemCart(r.Flash)
		if err := r.MasterSystem.Attach(mux); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("no simulated adapter for %s", mode)
	}
	return r, nil
}

// LEDOuts returns the LED pins as outputs, in bit order.
func (r *Rig) LEDOuts() []gpio.PinOut {
	outs := make([]gpio.PinOut, len(r.Pins.LEDs))
	for i, p := range r.Pins.LEDs {
		outs[i] = p
	}
	return outs
}
