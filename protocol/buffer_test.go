package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func TestReplyBufferPutAlignment(t *testing.T) {
	tests := []struct {
		name    string
		put     func(r *ReplyBuffer) error
		wantLen int
	}{
		{"u8", func(r *ReplyBuffer) error { return r.PutUint8(0xAB) }, 4},
		{"u16", func(r *ReplyBuffer) error { return r.PutUint16(0xABCD) }, 4},
		{"u32", func(r *ReplyBuffer) error { return r.PutUint32(0x01020304) }, 4},
		{"3-byte string", func(r *ReplyBuffer) error { return r.PutString("abc") }, 4},
		{"4-byte string", func(r *ReplyBuffer) error { return r.PutString("abcd") }, 4},
		{"5-byte block", func(r *ReplyBuffer) error { return r.PutBytes([]byte{1, 2, 3, 4, 5}) }, 8},
		{"empty string", func(r *ReplyBuffer) error { return r.PutString("") }, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReplyBuffer()
			if err := tt.put(r); err != nil {
				t.Fatalf("put error = %v", err)
			}
			if r.Len() != tt.wantLen {
				t.Errorf("Len() = %d, want %d", r.Len(), tt.wantLen)
			}
		})
	}
}

func TestReplyBufferPadsWithZeros(t *testing.T) {
	r := NewReplyBuffer()
	// Dirty the buffer, then reuse it.
	r.PutUint32(0xFFFFFFFF)
	r.Reset(CmdGetVoltage)
	r.PutUint8(0x02)

	if want := []byte{0x02, 0, 0, 0}; !bytes.Equal(r.Payload(), want) {
		t.Errorf("Payload() = % X, want % X", r.Payload(), want)
	}
}

func TestReplyBufferFrame(t *testing.T) {
	r := NewReplyBuffer()
	r.Reset(CmdVersion)
	r.PutString(Version)

	frame := r.Frame()
	if len(frame) != 4+12+4 {
		t.Fatalf("frame length = %d, want 20", len(frame))
	}
	if code := binary.LittleEndian.Uint16(frame[0:2]); code != CmdVersion {
		t.Errorf("code = 0x%04X, want 0x%04X", code, CmdVersion)
	}
	if size := binary.LittleEndian.Uint16(frame[2:4]); size != 4+12 {
		t.Errorf("size = %d, want 16", size)
	}
	if got := string(frame[4:16]); got != Version {
		t.Errorf("payload = %q, want %q", got, Version)
	}
	crc := binary.LittleEndian.Uint32(frame[16:])
	if want := referenceCRC(frame[:16]); crc != want {
		t.Errorf("CRC = 0x%08X, want 0x%08X", crc, want)
	}

	code, payload, err := ParseReply(frame)
	if err != nil {
		t.Fatalf("ParseReply() error = %v", err)
	}
	if code != CmdVersion || ParseStringReply(payload) != Version {
		t.Errorf("ParseReply() = 0x%04X %q", code, payload)
	}
}

func TestReplyBufferSetCodeKeepsPayload(t *testing.T) {
	r := NewReplyBuffer()
	r.Reset(CmdReadROM)
	r.PutUint32(uint32(StatusUnaligned))
	r.SetCode(ReplyCmdFailed)

	if r.Code() != ReplyCmdFailed {
		t.Errorf("Code() = 0x%04X", r.Code())
	}
	if r.Len() != 4 {
		t.Errorf("Len() = %d, want 4", r.Len())
	}
}

func TestReplyBufferOverflow(t *testing.T) {
	r := NewReplyBuffer()
	if r.Available() != MaxPayload {
		t.Fatalf("Available() = %d, want %d", r.Available(), MaxPayload)
	}

	block, err := r.Extend(MaxReadSize)
	if err != nil {
		t.Fatalf("Extend(MaxReadSize) error = %v", err)
	}
	if len(block) != MaxReadSize {
		t.Errorf("Extend() len = %d", len(block))
	}
	if err := r.PutUint32(0); err != nil {
		t.Errorf("block CRC should fit after a maximum read: %v", err)
	}

	if err := r.PutBytes(make([]byte, r.Available()+1)); !errors.Is(err, ErrBufferFull) {
		t.Errorf("PutBytes() error = %v, want ErrBufferFull", err)
	}
	n := r.Len()
	r.PutBytes(make([]byte, MaxPayload))
	if r.Len() != n {
		t.Error("failed put changed the buffer")
	}
}
