package protocol

import "time"

// Version is the firmware version string reported by the get-version command.
const Version = "UMD v2.0.0.0"

// Frame structure constants.
const (
	// HeaderSize is the size of the {code, size} header in bytes
	HeaderSize = 4

	// CRCSize is the size of the trailing CRC in bytes
	CRCSize = 4

	// MinFrameSize is the size of a frame with no payload: header + CRC
	MinFrameSize = HeaderSize + CRCSize

	// Alignment is the boundary every payload put is padded to
	Alignment = 4

	// BufferSize is the size of the device's single reply buffer
	BufferSize = 8192

	// MaxPayload is the largest payload a single frame can carry
	MaxPayload = BufferSize - MinFrameSize

	// MaxReadSize is the largest read-rom block; the block and its own
	// CRC must fit in one reply payload
	MaxReadSize = 8176
)

// Command codes. A command's code is its index in the device command table.
const (
	// CmdUndefined does nothing and replies with an empty payload
	CmdUndefined uint16 = 0x0000

	// CmdListCommands returns the command names as one printable string
	CmdListCommands uint16 = 0x0001

	// CmdSetLEDs drives the four status LEDs from the low nibble of a u8
	CmdSetLEDs uint16 = 0x0002

	// CmdSetID stores a host-assigned u32 device ID
	CmdSetID uint16 = 0x0003

	// CmdVersion returns the firmware version string
	CmdVersion uint16 = 0x0004

	// CmdGetVoltage returns the cartridge supply setting as a u8
	CmdGetVoltage uint16 = 0x0005

	// CmdSetVoltage sets the cartridge supply from a u8 (off, 3.3V, 5V)
	CmdSetVoltage uint16 = 0x0006

	// CmdGetAdapterID returns the fitted adapter's ID as a u8
	CmdGetAdapterID uint16 = 0x0007

	// CmdGetFlashID returns manufacturer, device and size of the cart flash
	CmdGetFlashID uint16 = 0x0008

	// CmdReadROM reads a block of cartridge program memory
	CmdReadROM uint16 = 0x0009

	// CmdEraseFlash erases the whole cartridge flash
	CmdEraseFlash uint16 = 0x000A

	// CmdProgramFlash programs a block of cartridge flash
	CmdProgramFlash uint16 = 0x000B

	// CmdGetDeviceID returns the host-assigned u32 device ID
	CmdGetDeviceID uint16 = 0x000C
)

// Reserved reply codes. A successful reply echoes the command code, so
// these sit at the top of the code space where no command lives.
const (
	// ReplyCmdFailed indicates the handler returned a non-OK status; the
	// payload is the u32 status
	ReplyCmdFailed uint16 = 0xFFFC

	// ReplyNoAck indicates the command code is outside the command table
	ReplyNoAck uint16 = 0xFFFD

	// ReplyPayloadTimeout indicates the payload did not arrive in time
	ReplyPayloadTimeout uint16 = 0xFFFE

	// ReplyCRCError indicates the request CRC did not match
	ReplyCRCError uint16 = 0xFFFF
)

// Default device-side timeouts.
const (
	// DefaultCommandTimeout bounds the wait for a request header
	DefaultCommandTimeout = 10 * time.Millisecond

	// DefaultPayloadTimeout bounds the wait for a request payload
	DefaultPayloadTimeout = 250 * time.Millisecond
)

// Request and reply payload sizes.
const (
	// ReadROMRequestSize is address(4) + size(2) + pad(2)
	ReadROMRequestSize = 8

	// ProgramFlashHeaderSize is address(4) + length(4)
	ProgramFlashHeaderSize = 8

	// MaxProgramSize is the largest block one program-flash request carries
	MaxProgramSize = MaxPayload - ProgramFlashHeaderSize

	// FlashIDReplySize is manufacturer(1+3) + device(1+3) + size(4)
	FlashIDReplySize = 12

	// StatusReplySize is the size of a CMD_FAILED payload
	StatusReplySize = 4
)

// ListCommandsHeader opens the list-commands reply.
const ListCommandsHeader = "UMDv2 Commands:\n\n"
