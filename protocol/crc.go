package protocol

import (
	"encoding/binary"
	"math/bits"
)

// CRC-32/MPEG-2 parameters.
const (
	// CRCPolynomial is the CRC-32 polynomial, MSB-first
	CRCPolynomial = 0x04C11DB7

	// CRCInitialValue is the register value after a reset
	CRCInitialValue = 0xFFFFFFFF

	// CRCHighBitMask selects the register's top bit
	CRCHighBitMask = 0x80000000

	// BitsPerByte is the number of bits per byte
	BitsPerByte = 8
)

var crcTable = makeCRCTable()

func makeCRCTable() *[256]uint32 {
	var t [256]uint32
	for i := range t {
		crc := uint32(i) << 24
		for j := 0; j < BitsPerByte; j++ {
			if crc&CRCHighBitMask != 0 {
				crc = crc<<1 ^ CRCPolynomial
			} else {
				crc <<= 1
			}
		}
		t[i] = crc
	}
	return &t
}

// updateCRC feeds bytes MSB-first into a CRC-32/MPEG-2 register.
func updateCRC(crc uint32, p []byte) uint32 {
	for _, b := range p {
		crc = crc<<BitsPerByte ^ crcTable[byte(crc>>24)^b]
	}
	return crc
}

// CRC is a CRC-32/MPEG-2 accumulator over 32-bit words. Each word is read
// little-endian from the buffer and byte-reversed before it is fed in, so
// the result matches a byte-wise CRC-32/MPEG-2 over the buffer in order.
//
// The zero value is not ready for use; call Reset or use NewCRC.
type CRC struct {
	crc uint32
}

// NewCRC returns a freshly reset accumulator.
func NewCRC() *CRC {
	return &CRC{crc: CRCInitialValue}
}

// Reset starts a new calculation.
func (c *CRC) Reset() {
	c.crc = CRCInitialValue
}

// AccumulateWord feeds one 32-bit word, most significant byte first after
// reversing its byte order.
func (c *CRC) AccumulateWord(w uint32) uint32 {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], bits.ReverseBytes32(w))
	c.crc = updateCRC(c.crc, b[:])
	return c.crc
}

// Calculate feeds p as little-endian words and returns the running CRC.
// With reset the calculation starts fresh; without it, p continues the
// previous one. A trailing partial word is zero-padded.
func (c *CRC) Calculate(p []byte, reset bool) uint32 {
	if reset {
		c.Reset()
	}
	for len(p) >= 4 {
		c.AccumulateWord(binary.LittleEndian.Uint32(p))
		p = p[4:]
	}
	if len(p) > 0 {
		var tail [4]byte
		copy(tail[:], p)
		c.AccumulateWord(binary.LittleEndian.Uint32(tail[:]))
	}
	return c.crc
}

// Sum32 returns the running CRC.
func (c *CRC) Sum32() uint32 {
	return c.crc
}

// Checksum returns the CRC of p from a fresh start.
func Checksum(p []byte) uint32 {
	return NewCRC().Calculate(p, true)
}
