package device_test

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/moffa90/go-umd/cart"
	"github.com/moffa90/go-umd/device"
	"github.com/moffa90/go-umd/protocol"
	"github.com/moffa90/go-umd/sim"
)

func TestStreamTransportBuffers(t *testing.T) {
	hostEnd, devEnd := net.Pipe()
	defer hostEnd.Close()
	tr := device.NewStreamTransport(devEnd)

	go hostEnd.Write([]byte{1, 2, 3, 4, 5, 6})

	n, err := tr.AvailableTimeout(time.Second, 6)
	if err != nil || n != 6 {
		t.Fatalf("AvailableTimeout() = %d, %v; want 6, nil", n, err)
	}

	b, ok := tr.ReadByte()
	if !ok || b != 1 {
		t.Errorf("ReadByte() = %d, %v", b, ok)
	}
	buf := make([]byte, 3)
	if n := tr.Read(buf); n != 3 || buf[0] != 2 || buf[2] != 4 {
		t.Errorf("Read() = %d % X", n, buf)
	}
	if tr.Available() != 2 {
		t.Errorf("Available() = %d, want 2", tr.Available())
	}

	tr.Flush()
	if tr.Available() != 0 {
		t.Error("Flush() left bytes behind")
	}
	if _, ok := tr.ReadByte(); ok {
		t.Error("ReadByte() on an empty buffer succeeded")
	}
}

func TestStreamTransportTimeout(t *testing.T) {
	hostEnd, devEnd := net.Pipe()
	defer hostEnd.Close()
	tr := device.NewStreamTransport(devEnd)

	go hostEnd.Write([]byte{1, 2})

	start := time.Now()
	n, err := tr.AvailableTimeout(20*time.Millisecond, 8)
	if err != nil {
		t.Fatalf("AvailableTimeout() error = %v", err)
	}
	if n > 2 {
		t.Errorf("AvailableTimeout() = %d, want at most 2", n)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("AvailableTimeout() returned after %s", elapsed)
	}
}

func TestStreamTransportClosed(t *testing.T) {
	hostEnd, devEnd := net.Pipe()
	tr := device.NewStreamTransport(devEnd)
	hostEnd.Close()

	if _, err := tr.AvailableTimeout(time.Second, 8); !errors.Is(err, device.ErrClosed) {
		t.Errorf("AvailableTimeout() error = %v, want ErrClosed", err)
	}
}

func TestRunOverPipe(t *testing.T) {
	rig, err := sim.NewRig(cart.ModeGenesis)
	if err != nil {
		t.Fatal(err)
	}
	hostEnd, devEnd := net.Pipe()
	defer hostEnd.Close()

	dev := device.New(device.NewStreamTransport(devEnd), cart.NewRegistry(rig.Bus, rig.Board))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- dev.Run(ctx) }()

	frame, _ := protocol.BuildVersionCmd()
	if _, err := hostEnd.Write(frame); err != nil {
		t.Fatalf("write request: %v", err)
	}

	reply := make([]byte, protocol.HeaderSize+12+protocol.CRCSize)
	hostEnd.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := io.ReadFull(hostEnd, reply); err != nil {
		t.Fatalf("read reply: %v", err)
	}
	code, payload, err := protocol.ParseReply(reply)
	if err != nil {
		t.Fatalf("ParseReply() error = %v", err)
	}
	if code != protocol.CmdVersion || protocol.ParseStringReply(payload) != protocol.Version {
		t.Errorf("reply = 0x%04X %q", code, payload)
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not stop after cancel")
	}
	if dev.Cart().Mode() != cart.ModeGenesis {
		t.Errorf("Run() started with %s, want genesis", dev.Cart().Name())
	}
}

func TestLEDs(t *testing.T) {
	td := newTestDevice(t, cart.ModeNone)

	code, _ := td.roundTrip(t, mustFrame(t)(protocol.BuildSetLEDsCmd(0xF5)))
	if code != protocol.CmdSetLEDs {
		t.Fatalf("reply code = 0x%04X", code)
	}
	if td.LEDs() != 0x05 {
		t.Errorf("LEDs() = 0x%02X, want 0x05", td.LEDs())
	}
	for i, want := range []bool{true, false, true, false} {
		if got := bool(td.rig.Pins.LEDs[i].Read()); got != want {
			t.Errorf("LED%d = %v, want %v", i, got, want)
		}
	}

	// Any pattern other than a single lit LED restarts the animation.
	sequence := []uint8{0x01, 0x02, 0x04, 0x08, 0x01}
	for _, want := range sequence {
		if err := td.ShiftLEDs(); err != nil {
			t.Fatalf("ShiftLEDs() error = %v", err)
		}
		if td.LEDs() != want {
			t.Errorf("ShiftLEDs() -> 0x%02X, want 0x%02X", td.LEDs(), want)
		}
	}
}

func TestBootPrecharge(t *testing.T) {
	rig, err := sim.NewRig(cart.ModeNone)
	if err != nil {
		t.Fatal(err)
	}
	dev := device.New(&MockTransport{}, cart.NewRegistry(rig.Bus, rig.Board), device.WithBootPin(rig.Pins.BootEn))

	if err := dev.BootPrecharge(true); err != nil {
		t.Fatalf("BootPrecharge() error = %v", err)
	}
	if !bool(rig.Pins.BootEn.Read()) {
		t.Error("BOOT_EN not driven high")
	}
	dev.BootPrecharge(false)
	if bool(rig.Pins.BootEn.Read()) {
		t.Error("BOOT_EN not driven low")
	}

	bare := device.New(&MockTransport{}, cart.NewRegistry(rig.Bus, rig.Board))
	if err := bare.BootPrecharge(true); err != nil {
		t.Errorf("BootPrecharge() without a pin: %v", err)
	}
}
