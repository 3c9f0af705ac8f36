package cart

import (
	"errors"
	"fmt"
	"time"
)

// FlashTimeoutError indicates the flash toggle bit never settled.
type FlashTimeoutError struct {
	Operation string
	Address   uint32
	Timeout   time.Duration
}

func (e *FlashTimeoutError) Error() string {
	return fmt.Sprintf("%s at 0x%06X: flash busy after %s", e.Operation, e.Address, e.Timeout)
}

// IsFlashTimeout returns true if err is or wraps a FlashTimeoutError.
func IsFlashTimeout(err error) bool {
	var fte *FlashTimeoutError
	return errors.As(err, &fte)
}

// AlignmentError indicates a word access with an odd address or length.
type AlignmentError struct {
	Address uint32
	Length  int
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("unaligned word access: address 0x%06X, length %d", e.Address, e.Length)
}
