package protocol

import "fmt"

// Status is a command handler's result. StatusOK replies normally; any
// other value turns the reply into CMD_FAILED carrying the status.
type Status uint32

// Handler status codes.
const (
	// StatusOK indicates the command completed
	StatusOK Status = 0x00000000

	// StatusBadLength indicates the payload was too short or too long
	StatusBadLength Status = 0x00000001

	// StatusBadArgument indicates a payload field was out of range
	StatusBadArgument Status = 0x00000002

	// StatusUnaligned indicates an odd address or size on a 16-bit bus
	StatusUnaligned Status = 0x00000003

	// StatusFlashTimeout indicates the flash never reported completion
	StatusFlashTimeout Status = 0x00000004

	// StatusHardware indicates a GPIO or I2C operation failed
	StatusHardware Status = 0x00000005

	// StatusOverflow indicates the reply did not fit the reply buffer
	StatusOverflow Status = 0x00000006
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusBadLength:
		return "bad length"
	case StatusBadArgument:
		return "bad argument"
	case StatusUnaligned:
		return "unaligned access"
	case StatusFlashTimeout:
		return "flash timeout"
	case StatusHardware:
		return "hardware error"
	case StatusOverflow:
		return "reply overflow"
	default:
		return fmt.Sprintf("status 0x%08X", uint32(s))
	}
}

// Header is the first word of every frame.
type Header struct {
	// Code is the command code in a request, the reply code in a reply
	Code uint16

	// Size is the payload size in a request and header + payload in a reply
	Size uint16
}

// FlashID is the get-flash-id reply.
type FlashID struct {
	Manufacturer uint8
	Device       uint8

	// Size is zero when the chip is not in the device's part table
	Size uint32
}

// ReadROMRequest is the decoded read-rom payload.
type ReadROMRequest struct {
	Address uint32
	Size    uint16
}

// ProgramFlashRequest is the decoded program-flash payload.
type ProgramFlashRequest struct {
	Address uint32
	Data    []byte
}
