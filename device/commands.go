package device

import (
	"encoding/binary"
	"errors"
	"strings"

	"github.com/moffa90/go-umd/cart"
	"github.com/moffa90/go-umd/protocol"
)

// HandlerFunc runs one command. The reply buffer has been reset to echo
// the command code; handlers put their reply values into it. Any status
// other than StatusOK replaces the reply with CMD_FAILED.
type HandlerFunc func(d *Device, payload []byte) protocol.Status

// Command is one entry of the command table. Its index in the table is
// its opcode.
type Command struct {
	Name    string
	Handler HandlerFunc
}

// DefaultCommands returns the UMD v2 command table.
func DefaultCommands() []Command {
	return []Command{
		protocol.CmdUndefined:    {"undefined", cmdUndefined},
		protocol.CmdListCommands: {"list commands", cmdListCommands},
		protocol.CmdSetLEDs:      {"set LEDs", cmdSetLEDs},
		protocol.CmdSetID:        {"set ID", cmdSetID},
		protocol.CmdVersion:      {"get version", cmdVersion},
		protocol.CmdGetVoltage:   {"get cartridge voltage", cmdGetVoltage},
		protocol.CmdSetVoltage:   {"set cartridge voltage", cmdSetVoltage},
		protocol.CmdGetAdapterID: {"get adapter ID", cmdGetAdapterID},
		protocol.CmdGetFlashID:   {"get flash ID", cmdGetFlashID},
		protocol.CmdReadROM:      {"read ROM", cmdReadROM},
		protocol.CmdEraseFlash:   {"erase flash", cmdEraseFlash},
		protocol.CmdProgramFlash: {"program flash", cmdProgramFlash},
		protocol.CmdGetDeviceID:  {"get device ID", cmdGetDeviceID},
	}
}

// put maps a reply buffer overflow to a status.
func put(err error) protocol.Status {
	if err != nil {
		return protocol.StatusOverflow
	}
	return protocol.StatusOK
}

// flashStatus maps a driver error from a flash operation to a status.
func flashStatus(err error) protocol.Status {
	var ae *cart.AlignmentError
	switch {
	case err == nil:
		return protocol.StatusOK
	case cart.IsFlashTimeout(err):
		return protocol.StatusFlashTimeout
	case errors.As(err, &ae):
		return protocol.StatusUnaligned
	default:
		return protocol.StatusHardware
	}
}

func cmdUndefined(d *Device, payload []byte) protocol.Status {
	return protocol.StatusOK
}

func cmdListCommands(d *Device, payload []byte) protocol.Status {
	names := make([]string, len(d.commands))
	for i, c := range d.commands {
		names[i] = c.Name
	}
	return put(d.reply.PutString(protocol.ListCommandsHeader + strings.Join(names, "\n")))
}

func cmdSetLEDs(d *Device, payload []byte) protocol.Status {
	if len(payload) < 1 {
		return protocol.StatusBadLength
	}
	if err := d.SetLEDs(payload[0]); err != nil {
		d.logError("set LEDs failed", "error", err)
		return protocol.StatusHardware
	}
	return protocol.StatusOK
}

func cmdSetID(d *Device, payload []byte) protocol.Status {
	if len(payload) < 4 {
		return protocol.StatusBadLength
	}
	d.id = binary.LittleEndian.Uint32(payload)
	return protocol.StatusOK
}

func cmdVersion(d *Device, payload []byte) protocol.Status {
	return put(d.reply.PutString(d.config.Version))
}

func cmdGetVoltage(d *Device, payload []byte) protocol.Status {
	return put(d.reply.PutUint8(uint8(d.cart.Voltage())))
}

func cmdSetVoltage(d *Device, payload []byte) protocol.Status {
	if len(payload) < 1 {
		return protocol.StatusBadLength
	}
	v := cart.Voltage(payload[0])
	if v > cart.Voltage5V {
		return protocol.StatusBadArgument
	}
	if err := d.cart.SetVoltage(v); err != nil {
		d.logError("set voltage failed", "voltage", v, "error", err)
		return protocol.StatusHardware
	}
	return protocol.StatusOK
}

func cmdGetAdapterID(d *Device, payload []byte) protocol.Status {
	id, err := d.cart.AdapterID()
	if err != nil {
		d.logError("read adapter ID failed", "error", err)
		return protocol.StatusHardware
	}
	if err := d.reseat(cart.Mode(id), false); err != nil {
		d.logError("cartridge init failed", "adapter", cart.Mode(id), "error", err)
		return protocol.StatusHardware
	}
	return put(d.reply.PutUint8(id))
}

func cmdGetFlashID(d *Device, payload []byte) protocol.Status {
	info := d.cart.FlashID()
	if err := d.reply.PutUint8(info.Manufacturer); err != nil {
		return protocol.StatusOverflow
	}
	if err := d.reply.PutUint8(info.Device); err != nil {
		return protocol.StatusOverflow
	}
	return put(d.reply.PutUint32(info.Size))
}

func cmdReadROM(d *Device, payload []byte) protocol.Status {
	req, err := protocol.ParseReadROMRequest(payload)
	if err != nil {
		return protocol.StatusBadLength
	}
	size := int(req.Size)
	if size == 0 || size > protocol.MaxReadSize {
		return protocol.StatusBadArgument
	}
	wide := d.cart.BusWidth() == 16
	if wide && (size%2 != 0 || req.Address%2 != 0) {
		return protocol.StatusUnaligned
	}

	block, err := d.reply.Extend(size)
	if err != nil {
		return protocol.StatusOverflow
	}
	if wide {
		words := make([]uint16, size/2)
		d.cart.ReadWords(req.Address, words, cart.MemPrg)
		for i, w := range words {
			binary.LittleEndian.PutUint16(block[2*i:], w)
		}
	} else {
		d.cart.ReadBytes(req.Address, block, cart.MemPrg)
	}

	return put(d.reply.PutUint32(protocol.Checksum(d.reply.Payload())))
}

func cmdEraseFlash(d *Device, payload []byte) protocol.Status {
	if len(payload) < 1 {
		return protocol.StatusBadLength
	}
	err := d.cart.EraseFlash(payload[0] != 0)
	if err != nil {
		d.logError("erase failed", "cart", d.cart.Name(), "error", err)
	}
	return flashStatus(err)
}

func cmdProgramFlash(d *Device, payload []byte) protocol.Status {
	req, err := protocol.ParseProgramFlashRequest(payload)
	if err != nil {
		return protocol.StatusBadLength
	}
	err = d.cart.ProgramBytes(req.Address, req.Data, cart.MemPrg)
	if err != nil {
		d.logError("program failed", "cart", d.cart.Name(), "address", req.Address, "error", err)
	}
	return flashStatus(err)
}

func cmdGetDeviceID(d *Device, payload []byte) protocol.Status {
	return put(d.reply.PutUint32(d.id))
}
