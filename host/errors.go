package host

import (
	"errors"
	"fmt"
)

// CRCMismatchError indicates a read-rom block whose data does not match
// the CRC the device sent with it.
type CRCMismatchError struct {
	Address  uint32
	Expected uint32
	Actual   uint32
}

func (e *CRCMismatchError) Error() string {
	return fmt.Sprintf("block CRC mismatch at 0x%06X: device sent 0x%08X, data gives 0x%08X",
		e.Address, e.Expected, e.Actual)
}

// SizeMismatchError indicates an image that does not fit the flash chip.
type SizeMismatchError struct {
	Address   uint32
	Length    int
	FlashSize uint32
}

func (e *SizeMismatchError) Error() string {
	return fmt.Sprintf("%d bytes at 0x%06X do not fit a %d byte flash",
		e.Length, e.Address, e.FlashSize)
}

// VerificationError indicates that read-back data differs from what was
// programmed.
type VerificationError struct {
	Address  uint32
	Expected byte
	Actual   byte
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("verification failed at 0x%06X: expected 0x%02X, got 0x%02X",
		e.Address, e.Expected, e.Actual)
}

func isRetryable(err error) bool {
	var crc *CRCMismatchError
	if errors.As(err, &crc) {
		return true
	}
	var re interface{ Retryable() bool }
	return errors.As(err, &re) && re.Retryable()
}
