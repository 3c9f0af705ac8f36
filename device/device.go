package device

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/moffa90/go-umd/cart"
	"github.com/moffa90/go-umd/protocol"
)

// Device is the UMD command dispatcher. It owns the reply buffer, the
// active cartridge driver and the device ID, and handles one frame per
// Poll. A Device is not safe for concurrent use.
type Device struct {
	transport Transport
	registry  *cart.Registry
	cart      cart.Driver
	config    Config
	commands  []Command

	reply *protocol.ReplyBuffer
	crc   protocol.CRC
	rx    [protocol.BufferSize]byte

	id   uint32
	leds uint8
}

// New creates a device reading frames from transport and driving the
// cartridges in registry. The generic driver is active until Start or a
// get-adapter-id command selects another.
func New(transport Transport, registry *cart.Registry, opts ...Option) *Device {
	if transport == nil {
		panic("device: transport cannot be nil")
	}
	if registry == nil {
		panic("device: registry cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	d := &Device{
		transport: transport,
		registry:  registry,
		cart:      registry.Get(cart.ModeNone),
		config:    cfg,
		commands:  cfg.Commands,
		reply:     protocol.NewReplyBuffer(),
	}
	if d.commands == nil {
		d.commands = DefaultCommands()
	}
	return d
}

// Cart returns the active cartridge driver.
func (d *Device) Cart() cart.Driver {
	return d.cart
}

// ID returns the device ID last set by the host.
func (d *Device) ID() uint32 {
	return d.id
}

// Start releases BOOT_EN, reads the adapter ID, activates the matching
// driver and initializes it. When the ID cannot be read the generic driver
// is used. A driver that fails to initialize is not activated.
func (d *Device) Start() error {
	if err := d.BootPrecharge(false); err != nil {
		d.logError("release BOOT_EN failed", "error", err)
	}

	mode := cart.ModeNone
	if id, err := d.cart.AdapterID(); err != nil {
		d.logError("adapter ID unavailable", "error", err)
	} else {
		mode = cart.Mode(id)
	}
	return d.reseat(mode, true)
}

// reseat activates the driver for mode. The driver is initialized when it
// changes or when force is set.
func (d *Device) reseat(mode cart.Mode, force bool) error {
	drv := d.registry.Get(mode)
	if drv == d.cart && !force {
		return nil
	}
	if err := drv.Init(); err != nil {
		return fmt.Errorf("init %s driver: %w", drv.Name(), err)
	}
	if drv != d.cart {
		d.logInfo("cartridge reseated", "from", d.cart.Name(), "to", drv.Name(), "adapter", mode)
	}
	d.cart = drv
	return nil
}

// Run starts the device and polls until ctx is cancelled or the
// transport closes. With an idle interval configured, the LEDs step
// through their animation while no frames arrive.
func (d *Device) Run(ctx context.Context) error {
	if err := d.Start(); err != nil {
		d.logError("cartridge init failed", "error", err)
	}

	lastShift := time.Now()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		handled, err := d.Poll()
		if err != nil {
			if errors.Is(err, ErrClosed) {
				return nil
			}
			return err
		}

		if handled {
			lastShift = time.Now()
		} else if d.config.IdleInterval > 0 && time.Since(lastShift) >= d.config.IdleInterval {
			if err := d.ShiftLEDs(); err != nil {
				d.logError("LED animation failed", "error", err)
			}
			lastShift = time.Now()
		}
	}
}

// Poll runs one dispatcher cycle: wait for a header, wait for the rest of
// the frame, verify the CRC, dispatch, reply. It reports whether a frame
// was seen. A header that does not arrive within the command timeout is
// not an error.
func (d *Device) Poll() (bool, error) {
	n, err := d.transport.AvailableTimeout(d.config.CommandTimeout, protocol.MinFrameSize)
	if n < protocol.MinFrameSize {
		return false, err
	}

	d.transport.Read(d.rx[:protocol.HeaderSize])
	hdr, _ := protocol.ParseHeader(d.rx[:protocol.HeaderSize])
	d.crc.Calculate(d.rx[:protocol.HeaderSize], true)

	size := int(hdr.Size)
	if size > protocol.MaxPayload {
		d.logError("payload too large", "cmd", hdr.Code, "size", size)
		d.transport.Flush()
		return true, d.replyCode(protocol.ReplyCRCError)
	}

	if size > 0 {
		n, err := d.transport.AvailableTimeout(d.config.PayloadTimeout, size+protocol.CRCSize)
		if n < size+protocol.CRCSize {
			if errors.Is(err, ErrClosed) {
				return true, err
			}
			d.logError("payload timeout", "cmd", hdr.Code, "want", size+protocol.CRCSize, "have", n)
			d.transport.Flush()
			return true, d.replyCode(protocol.ReplyPayloadTimeout)
		}
		d.transport.Read(d.rx[protocol.HeaderSize : protocol.HeaderSize+size])
	}
	payload := d.rx[protocol.HeaderSize : protocol.HeaderSize+size]
	sum := d.crc.Calculate(payload, false)

	var trailer [protocol.CRCSize]byte
	d.transport.Read(trailer[:])
	if got := binary.LittleEndian.Uint32(trailer[:]); got != sum {
		d.logError("frame CRC mismatch", "cmd", hdr.Code, "got", got, "want", sum)
		return true, d.replyCode(protocol.ReplyCRCError)
	}

	return true, d.dispatch(hdr.Code, payload)
}

func (d *Device) dispatch(cmd uint16, payload []byte) error {
	if int(cmd) >= len(d.commands) || d.commands[cmd].Handler == nil {
		d.logError("unknown command", "cmd", cmd)
		return d.replyCode(protocol.ReplyNoAck)
	}

	c := d.commands[cmd]
	d.logDebug("command", "cmd", cmd, "name", c.Name, "size", len(payload))

	d.reply.Reset(cmd)
	if status := c.Handler(d, payload); status != protocol.StatusOK {
		d.logError("command failed", "cmd", cmd, "name", c.Name, "status", status)
		d.reply.Reset(protocol.ReplyCmdFailed)
		d.reply.PutUint32(uint32(status))
	}
	return d.transport.Transmit(d.reply.Frame())
}

// replyCode transmits a reserved reply code with no payload.
func (d *Device) replyCode(code uint16) error {
	d.reply.Reset(code)
	return d.transport.Transmit(d.reply.Frame())
}
