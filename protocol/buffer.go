package protocol

import "encoding/binary"

// ReplyBuffer accumulates one reply frame. Every put is padded with zeros
// to a 4-byte boundary so the CRC always runs over whole words.
//
// The buffer is reused across replies: Reset starts a new frame, Frame
// finalizes the size and CRC and returns the bytes to transmit.
type ReplyBuffer struct {
	buf [BufferSize]byte
	n   int // header + payload bytes written
	crc CRC
}

// NewReplyBuffer returns an empty buffer replying with CmdUndefined.
func NewReplyBuffer() *ReplyBuffer {
	r := &ReplyBuffer{}
	r.Reset(CmdUndefined)
	return r
}

// Reset discards the payload and sets the reply code.
func (r *ReplyBuffer) Reset(code uint16) {
	r.n = HeaderSize
	r.SetCode(code)
}

// SetCode overwrites the reply code, keeping the payload.
func (r *ReplyBuffer) SetCode(code uint16) {
	binary.LittleEndian.PutUint16(r.buf[0:2], code)
}

// Code returns the current reply code.
func (r *ReplyBuffer) Code() uint16 {
	return binary.LittleEndian.Uint16(r.buf[0:2])
}

// Len returns the payload length written so far, padding included.
func (r *ReplyBuffer) Len() int {
	return r.n - HeaderSize
}

// Available returns how many payload bytes still fit.
func (r *ReplyBuffer) Available() int {
	return BufferSize - CRCSize - r.n
}

// Payload returns the payload written so far.
func (r *ReplyBuffer) Payload() []byte {
	return r.buf[HeaderSize:r.n]
}

// Extend reserves n bytes, plus padding, and returns the unpadded slice
// for the caller to fill.
func (r *ReplyBuffer) Extend(n int) ([]byte, error) {
	padded := padLen(n)
	if padded > r.Available() {
		return nil, ErrBufferFull
	}
	start := r.n
	clear(r.buf[start : start+padded])
	r.n += padded
	return r.buf[start : start+n], nil
}

// PutBytes appends p.
func (r *ReplyBuffer) PutBytes(p []byte) error {
	dst, err := r.Extend(len(p))
	if err != nil {
		return err
	}
	copy(dst, p)
	return nil
}

// PutString appends s without a terminator.
func (r *ReplyBuffer) PutString(s string) error {
	dst, err := r.Extend(len(s))
	if err != nil {
		return err
	}
	copy(dst, s)
	return nil
}

// PutUint8 appends v as one padded word.
func (r *ReplyBuffer) PutUint8(v uint8) error {
	dst, err := r.Extend(1)
	if err != nil {
		return err
	}
	dst[0] = v
	return nil
}

// PutUint16 appends v little-endian as one padded word.
func (r *ReplyBuffer) PutUint16(v uint16) error {
	dst, err := r.Extend(2)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(dst, v)
	return nil
}

// PutUint32 appends v little-endian.
func (r *ReplyBuffer) PutUint32(v uint32) error {
	dst, err := r.Extend(4)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(dst, v)
	return nil
}

// Frame fills in the size field and the trailing CRC and returns the
// complete frame. The slice aliases the buffer until the next Reset.
func (r *ReplyBuffer) Frame() []byte {
	binary.LittleEndian.PutUint16(r.buf[2:4], uint16(r.n))
	crc := r.crc.Calculate(r.buf[:r.n], true)
	binary.LittleEndian.PutUint32(r.buf[r.n:], crc)
	return r.buf[:r.n+CRCSize]
}
