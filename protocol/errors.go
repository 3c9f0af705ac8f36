package protocol

import (
	"errors"
	"fmt"
)

// ErrBufferFull is returned by ReplyBuffer puts that do not fit.
var ErrBufferFull = errors.New("reply buffer full")

// ReplyError represents a reserved reply code returned by the device.
// Status is only meaningful for ReplyCmdFailed.
type ReplyError struct {
	// Operation is the command that failed
	Operation string

	// Code is the reply code
	Code uint16

	// Status is the handler status carried by a CMD_FAILED reply
	Status Status
}

func (e *ReplyError) Error() string {
	if e.Code == ReplyCmdFailed {
		return fmt.Sprintf("%s failed: %s (0x%04X): %s", e.Operation, ReplyCodeName(e.Code), e.Code, e.Status)
	}
	return fmt.Sprintf("%s failed: %s (0x%04X)", e.Operation, ReplyCodeName(e.Code), e.Code)
}

// Retryable reports whether resending the same request may succeed.
func (e *ReplyError) Retryable() bool {
	return e.Code == ReplyCRCError || e.Code == ReplyPayloadTimeout
}

// IsReplyError returns true if err is or wraps a ReplyError.
func IsReplyError(err error) bool {
	var re *ReplyError
	return errors.As(err, &re)
}

// IsReservedCode reports whether code is one of the reserved reply codes.
func IsReservedCode(code uint16) bool {
	return code >= ReplyCmdFailed
}

// ReplyCodeName returns a human-readable name for a reserved reply code.
func ReplyCodeName(code uint16) string {
	switch code {
	case ReplyCmdFailed:
		return "command failed"
	case ReplyNoAck:
		return "unknown command"
	case ReplyPayloadTimeout:
		return "payload timeout"
	case ReplyCRCError:
		return "crc mismatch"
	default:
		return fmt.Sprintf("reply code 0x%04X", code)
	}
}
