package protocol

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// ParseReply extracts the reply code and payload from a reply frame.
// Validates the size field and the CRC.
//
// Reply frame structure:
//
//	[CODE_L][CODE_H][SIZE_L][SIZE_H][PAYLOAD...][CRC(4)]
//
// SIZE counts the header and the payload. The payload is returned as
// sent, padding included.
func ParseReply(frame []byte) (code uint16, payload []byte, err error) {
	if len(frame) < MinFrameSize {
		return 0, nil, fmt.Errorf("frame too short: got %d bytes, minimum is %d", len(frame), MinFrameSize)
	}

	h, _ := ParseHeader(frame)
	if int(h.Size) < HeaderSize || int(h.Size)%Alignment != 0 {
		return 0, nil, fmt.Errorf("invalid size field %d", h.Size)
	}

	expectedLen := int(h.Size) + CRCSize
	if len(frame) != expectedLen {
		return 0, nil, fmt.Errorf("frame length mismatch: got %d bytes, expected %d (size=%d + crc=%d)",
			len(frame), expectedLen, h.Size, CRCSize)
	}

	checksumExpected := binary.LittleEndian.Uint32(frame[h.Size:])
	checksumActual := Checksum(frame[:h.Size])
	if checksumExpected != checksumActual {
		return 0, nil, fmt.Errorf("checksum mismatch: got 0x%08X, expected 0x%08X",
			checksumActual, checksumExpected)
	}

	if h.Size > HeaderSize {
		payload = frame[HeaderSize:h.Size]
	}
	return h.Code, payload, nil
}

// CheckReply turns a reply code into an error. A reply that echoes cmd is
// success; reserved codes become a *ReplyError; anything else is an
// unexpected echo.
func CheckReply(operation string, cmd, code uint16, payload []byte) error {
	if code == cmd {
		return nil
	}
	if !IsReservedCode(code) {
		return fmt.Errorf("%s: unexpected reply code 0x%04X", operation, code)
	}
	re := &ReplyError{Operation: operation, Code: code}
	if code == ReplyCmdFailed {
		status, err := ParseStatusReply(payload)
		if err != nil {
			return fmt.Errorf("%s: %w", operation, err)
		}
		re.Status = status
	}
	return re
}

// ParseStatusReply parses a CMD_FAILED payload.
//
// Data format (4 bytes):
//
//	[STATUS(4)]
func ParseStatusReply(data []byte) (Status, error) {
	if len(data) != StatusReplySize {
		return 0, fmt.Errorf("invalid data length for status reply: got %d bytes, expected %d", len(data), StatusReplySize)
	}
	return Status(binary.LittleEndian.Uint32(data)), nil
}

// ParseStringReply returns a string payload with its zero padding removed.
func ParseStringReply(data []byte) string {
	return strings.TrimRight(string(data), "\x00")
}

// ParseListCommandsReply returns the command names, in code order.
func ParseListCommandsReply(data []byte) ([]string, error) {
	s := ParseStringReply(data)
	body, ok := strings.CutPrefix(s, ListCommandsHeader)
	if !ok {
		return nil, fmt.Errorf("invalid list-commands reply: missing header")
	}
	if body == "" {
		return nil, nil
	}
	return strings.Split(body, "\n"), nil
}

// ParseUint8Reply parses a single padded byte, as returned by get-voltage
// and get-adapter-ID.
func ParseUint8Reply(data []byte) (uint8, error) {
	if len(data) != Alignment {
		return 0, fmt.Errorf("invalid data length for u8 reply: got %d bytes, expected %d", len(data), Alignment)
	}
	return data[0], nil
}

// ParseUint32Reply parses a u32 payload, as returned by get-device-ID.
func ParseUint32Reply(data []byte) (uint32, error) {
	if len(data) != 4 {
		return 0, fmt.Errorf("invalid data length for u32 reply: got %d bytes, expected 4", len(data))
	}
	return binary.LittleEndian.Uint32(data), nil
}

// ParseFlashIDReply parses the get-flash-ID reply.
//
// Data format (12 bytes):
//
//	[MANUFACTURER(1)][PAD(3)][DEVICE(1)][PAD(3)][SIZE(4)]
func ParseFlashIDReply(data []byte) (*FlashID, error) {
	if len(data) != FlashIDReplySize {
		return nil, fmt.Errorf("invalid data length for flash ID reply: got %d bytes, expected %d", len(data), FlashIDReplySize)
	}
	return &FlashID{
		Manufacturer: data[0],
		Device:       data[4],
		Size:         binary.LittleEndian.Uint32(data[8:12]),
	}, nil
}

// ParseReadROMReply splits a read-rom reply into the requested block and
// the CRC the device computed over the padded block. Callers compare crc
// against Checksum of the padded block.
//
// Data format:
//
//	[DATA(size)][PAD][CRC(4)]
func ParseReadROMReply(data []byte, size int) (block, padded []byte, crc uint32, err error) {
	n := padLen(size)
	if len(data) != n+CRCSize {
		return nil, nil, 0, fmt.Errorf("invalid data length for read-rom reply: got %d bytes, expected %d", len(data), n+CRCSize)
	}
	return data[:size], data[:n], binary.LittleEndian.Uint32(data[n:]), nil
}
