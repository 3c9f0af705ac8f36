package sim

import (
	"testing"

	"github.com/moffa90/go-umd/bus"
	"github.com/moffa90/go-umd/cart"
	"github.com/moffa90/go-umd/flash"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

func TestIDExpander(t *testing.T) {
	e := NewIDExpander(cart.ModeGenesis)

	dev := i2c.Dev{Bus: e, Addr: cart.AdapterIDAddr}
	r := make([]byte, 1)
	if err := dev.Tx([]byte{cart.AdapterIDRegister}, r); err != nil {
		t.Fatalf("Tx() error = %v", err)
	}
	if r[0] != uint8(cart.ModeGenesis) {
		t.Errorf("id = %d, want %d", r[0], cart.ModeGenesis)
	}
	if e.Reads() != 1 {
		t.Errorf("Reads() = %d, want 1", e.Reads())
	}

	other := i2c.Dev{Bus: e, Addr: 0x21}
	if err := other.Tx([]byte{cart.AdapterIDRegister}, r); err == nil {
		t.Error("Tx() to an absent address should fail")
	}
}

func TestIDExpanderSetSpeed(t *testing.T) {
	e := NewIDExpander(cart.ModeNone)

	tests := []struct {
		name    string
		f       physic.Frequency
		wantErr bool
	}{
		{"standard", 100 * physic.KiloHertz, false},
		{"fast", 400 * physic.KiloHertz, false},
		{"zero", 0, true},
		{"too fast", 10 * physic.MegaHertz, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := e.SetSpeed(tt.f)
			if (err != nil) != tt.wantErr {
				t.Errorf("SetSpeed(%s) error = %v, wantErr %v", tt.f, err, tt.wantErr)
			}
		})
	}
}

func TestNewRig(t *testing.T) {
	tests := []struct {
		mode      cart.Mode
		wantFlash bool
		wantErr   bool
	}{
		{cart.ModeNone, false, false},
		{cart.ModeGenesis, true, false},
		{cart.ModeMasterSystem, true, false},
		{7, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			rig, err := NewRig(tt.mode)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewRig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if (rig.Flash != nil) != tt.wantFlash {
				t.Errorf("Flash = %v, want present %v", rig.Flash, tt.wantFlash)
			}
			id, err := rig.Board.AdapterID()
			if err != nil {
				t.Fatalf("AdapterID() error = %v", err)
			}
			if cart.Mode(id) != tt.mode {
				t.Errorf("AdapterID() = %d, want %d", id, tt.mode)
			}
		})
	}
}

func TestGenesisTimeNeedsStrobe(t *testing.T) {
	lwr := newPin("SEL1", 0, gpio.High)
	g := NewGenesisCart(flash.NewChip(flash.Microchip, 0x5B, 0x1000, bus.Width16), lwr)
	m := bus.NewMux()
	if err := g.Attach(m); err != nil {
		t.Fatalf("Attach() error = %v", err)
	}

	m.Write8(bus.CE0|cart.GenesisBRAMControl, 0x03)
	if g.BRAMEnabled() || len(g.TimeWrites()) != 0 {
		t.Error("TIME write latched with LWR high")
	}

	if err := lwr.Out(gpio.Low); err != nil {
		t.Fatal(err)
	}
	m.Write8(bus.CE0|cart.GenesisBRAMControl, 0x03)
	if !g.BRAMEnabled() {
		t.Error("BRAM latch not opened")
	}
}

func TestMasterSystemCartMapping(t *testing.T) {
	chip := flash.NewChip(flash.Macronix, 0x23, 0x80000, bus.Width8)
	s := NewMasterSystemCart(chip)
	chip.Data()[0x00010] = 0x01
	chip.Data()[0x0C010] = 0x03
	chip.Data()[0x1C010] = 0x07

	tests := []struct {
		name string
		bank uint32
		page uint8
		off  uint32
		want uint8
	}{
		{"fixed head ignores slot 0 bank", 0xFFFD, 7, 0x0010, 0x01},
		{"slot 1 page 3", 0xFFFE, 3, 0x4010, 0x03},
		{"slot 2 page 7", 0xFFFF, 7, 0x8010, 0x07},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s.Write8(tt.bank, tt.page)
			if got := s.Read8(tt.off); got != tt.want {
				t.Errorf("Read8(0x%04X) = 0x%02X, want 0x%02X", tt.off, got, tt.want)
			}
		})
	}

	if s.BankWrites(2) != 1 || s.Bank(2) != 7 {
		t.Errorf("slot 2: writes %d page %d", s.BankWrites(2), s.Bank(2))
	}
	if got := s.Read8(0xC000); got != 0xFF {
		t.Errorf("Read8(0xC000) = 0x%02X, want open bus", got)
	}
}

func TestMasterSystemCartWrite16(t *testing.T) {
	chip := flash.NewChip(flash.Macronix, 0x23, 0x80000, bus.Width8)
	s := NewMasterSystemCart(chip)

	// Both bytes land: slot 1 and slot 2 bank registers.
	s.Write16(0xFFFE, 0x0503)
	if s.Bank(1) != 3 || s.Bank(2) != 5 {
		t.Errorf("banks = %d, %d; want 3, 5", s.Bank(1), s.Bank(2))
	}
	if got := s.Read16(0xFFFE); got != 0xFFFF {
		t.Errorf("Read16(0xFFFE) = 0x%04X, want open bus", got)
	}

	s.Write16(cart.MapperControl, 0x0180)
	if s.Control() != 0x80 || s.Bank(0) != 1 {
		t.Errorf("control = 0x%02X, slot 0 bank = %d; want 0x80, 1", s.Control(), s.Bank(0))
	}
	if s.BankWrites(0) != 1 || s.BankWrites(1) != 1 || s.BankWrites(2) != 1 {
		t.Errorf("bank writes = %d, %d, %d; want one each", s.BankWrites(0), s.BankWrites(1), s.BankWrites(2))
	}
}
