package protocol

import (
	"encoding/binary"
	"fmt"
)

// padLen rounds n up to the next Alignment boundary.
func padLen(n int) int {
	return (n + Alignment - 1) &^ (Alignment - 1)
}

// BuildRequest constructs a request frame. The payload is zero-padded to
// a 4-byte boundary and the padded length goes in the size field.
//
// Frame structure:
//
//	[CMD_L][CMD_H][SIZE_L][SIZE_H][PAYLOAD...][CRC(4)]
//
// The CRC covers the header and the padded payload.
func BuildRequest(cmd uint16, payload []byte) ([]byte, error) {
	size := padLen(len(payload))
	if size > MaxPayload {
		return nil, fmt.Errorf("payload length %d exceeds maximum %d bytes", size, MaxPayload)
	}

	frame := make([]byte, HeaderSize+size+CRCSize)
	binary.LittleEndian.PutUint16(frame[0:2], cmd)
	binary.LittleEndian.PutUint16(frame[2:4], uint16(size))
	copy(frame[HeaderSize:], payload)

	crc := Checksum(frame[:HeaderSize+size])
	binary.LittleEndian.PutUint32(frame[HeaderSize+size:], crc)

	return frame, nil
}

// BuildUndefinedCmd constructs a no-op request.
func BuildUndefinedCmd() ([]byte, error) {
	return BuildRequest(CmdUndefined, nil)
}

// BuildListCommandsCmd constructs a list-commands request.
func BuildListCommandsCmd() ([]byte, error) {
	return BuildRequest(CmdListCommands, nil)
}

// BuildSetLEDsCmd constructs a set-LEDs request. Bits 0-3 of leds map to
// LED0-LED3.
func BuildSetLEDsCmd(leds uint8) ([]byte, error) {
	return BuildRequest(CmdSetLEDs, []byte{leds})
}

// BuildSetIDCmd constructs a set-ID request.
func BuildSetIDCmd(id uint32) ([]byte, error) {
	payload := make([]byte, 4)
	binary.LittleEndian.PutUint32(payload, id)
	return BuildRequest(CmdSetID, payload)
}

// BuildVersionCmd constructs a get-version request.
func BuildVersionCmd() ([]byte, error) {
	return BuildRequest(CmdVersion, nil)
}

// BuildGetVoltageCmd constructs a get-voltage request.
func BuildGetVoltageCmd() ([]byte, error) {
	return BuildRequest(CmdGetVoltage, nil)
}

// BuildSetVoltageCmd constructs a set-voltage request.
//
// Payload format:
//
//	[VOLTAGE(1)] 0 = off, 1 = 3.3V, 2 = 5V
func BuildSetVoltageCmd(voltage uint8) ([]byte, error) {
	return BuildRequest(CmdSetVoltage, []byte{voltage})
}

// BuildGetAdapterIDCmd constructs a get-adapter-ID request.
func BuildGetAdapterIDCmd() ([]byte, error) {
	return BuildRequest(CmdGetAdapterID, nil)
}

// BuildGetFlashIDCmd constructs a get-flash-ID request.
func BuildGetFlashIDCmd() ([]byte, error) {
	return BuildRequest(CmdGetFlashID, nil)
}

// BuildReadROMCmd constructs a read-rom request for size bytes at address.
//
// Payload format:
//
//	[ADDRESS(4)][SIZE(2)][PAD(2)]
func BuildReadROMCmd(address uint32, size uint16) ([]byte, error) {
	if size == 0 {
		return nil, fmt.Errorf("read size cannot be zero")
	}
	if size > MaxReadSize {
		return nil, fmt.Errorf("read size %d exceeds maximum %d bytes", size, MaxReadSize)
	}
	payload := make([]byte, ReadROMRequestSize)
	binary.LittleEndian.PutUint32(payload[0:4], address)
	binary.LittleEndian.PutUint16(payload[4:6], size)
	return BuildRequest(CmdReadROM, payload)
}

// BuildEraseFlashCmd constructs an erase-flash request. With wait the
// device replies once the erase completes.
func BuildEraseFlashCmd(wait bool) ([]byte, error) {
	var w uint8
	if wait {
		w = 1
	}
	return BuildRequest(CmdEraseFlash, []byte{w})
}

// BuildProgramFlashCmd constructs a program-flash request.
//
// Payload format:
//
//	[ADDRESS(4)][LENGTH(4)][DATA...]
func BuildProgramFlashCmd(address uint32, data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("data cannot be empty")
	}
	if len(data) > MaxProgramSize {
		return nil, fmt.Errorf("data length %d exceeds maximum %d bytes", len(data), MaxProgramSize)
	}
	payload := make([]byte, ProgramFlashHeaderSize+len(data))
	binary.LittleEndian.PutUint32(payload[0:4], address)
	binary.LittleEndian.PutUint32(payload[4:8], uint32(len(data)))
	copy(payload[ProgramFlashHeaderSize:], data)
	return BuildRequest(CmdProgramFlash, payload)
}

// BuildGetDeviceIDCmd constructs a get-device-ID request.
func BuildGetDeviceIDCmd() ([]byte, error) {
	return BuildRequest(CmdGetDeviceID, nil)
}

// ParseHeader decodes a frame header.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("header too short: got %d bytes, expected %d", len(b), HeaderSize)
	}
	return Header{
		Code: binary.LittleEndian.Uint16(b[0:2]),
		Size: binary.LittleEndian.Uint16(b[2:4]),
	}, nil
}

// ParseReadROMRequest decodes a read-rom payload.
func ParseReadROMRequest(payload []byte) (ReadROMRequest, error) {
	if len(payload) < 6 {
		return ReadROMRequest{}, fmt.Errorf("invalid read-rom payload: got %d bytes, expected %d", len(payload), ReadROMRequestSize)
	}
	return ReadROMRequest{
		Address: binary.LittleEndian.Uint32(payload[0:4]),
		Size:    binary.LittleEndian.Uint16(payload[4:6]),
	}, nil
}

// ParseProgramFlashRequest decodes a program-flash payload. Data aliases
// payload.
func ParseProgramFlashRequest(payload []byte) (ProgramFlashRequest, error) {
	if len(payload) < ProgramFlashHeaderSize {
		return ProgramFlashRequest{}, fmt.Errorf("invalid program-flash payload: got %d bytes, minimum is %d", len(payload), ProgramFlashHeaderSize)
	}
	n := binary.LittleEndian.Uint32(payload[4:8])
	if n == 0 || int(n) > len(payload)-ProgramFlashHeaderSize {
		return ProgramFlashRequest{}, fmt.Errorf("invalid program-flash length %d for %d payload bytes", n, len(payload))
	}
	return ProgramFlashRequest{
		Address: binary.LittleEndian.Uint32(payload[0:4]),
		Data:    payload[ProgramFlashHeaderSize : ProgramFlashHeaderSize+int(n)],
	}, nil
}
