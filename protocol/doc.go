// Package protocol implements the UMD host/device wire protocol.
//
// This package provides functions to build request frames, parse reply
// frames, and accumulate replies on the device side.
//
// # Protocol Overview
//
// Every frame is a 4-byte header, a payload padded to 4 bytes, and a CRC:
//
//	Request: [CMD(2)][PAYLOAD_SIZE(2)][PAYLOAD...][CRC(4)]
//	Reply:   [CODE(2)][PACKET_SIZE(2)][PAYLOAD...][CRC(4)]
//
// Where:
//   - All fields are little-endian
//   - PAYLOAD_SIZE counts request payload bytes; PACKET_SIZE counts the
//     reply header and payload
//   - CRC is CRC-32/MPEG-2 over the header and payload, fed as 32-bit
//     words with each word's byte order reversed
//
// A successful reply echoes the request's command code. Four codes are
// reserved for failures: ReplyCmdFailed (with a u32 Status payload),
// ReplyNoAck, ReplyPayloadTimeout and ReplyCRCError.
//
// # Request Builders
//
// Use the Build* functions to create request frames:
//
//	frame, err := protocol.BuildVersionCmd()
//	frame, err := protocol.BuildReadROMCmd(0x000200, 0x100)
//	// ... etc
//
// # Reply Parsers
//
// Use ParseReply to validate a frame and CheckReply to map its code to an
// error:
//
//	code, payload, err := protocol.ParseReply(frame)
//	if err != nil {
//	    return err
//	}
//	if err := protocol.CheckReply("read rom", protocol.CmdReadROM, code, payload); err != nil {
//	    return err
//	}
//
// Then use the Parse* functions for command-specific data:
//
//	id, err := protocol.ParseFlashIDReply(payload)
//	block, padded, crc, err := protocol.ParseReadROMReply(payload, size)
//
// # Device Side
//
// ReplyBuffer is the device's single reply buffer. Handlers put values,
// each padded to 4 bytes; Frame fills in the size and CRC:
//
//	reply.Reset(protocol.CmdVersion)
//	reply.PutString(protocol.Version)
//	transport.Transmit(reply.Frame())
package protocol
