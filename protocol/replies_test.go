package protocol

import (
	"encoding/binary"
	"errors"
	"strings"
	"testing"
)

// buildTestReply builds a valid reply frame for testing.
func buildTestReply(code uint16, payload []byte) []byte {
	r := NewReplyBuffer()
	r.Reset(code)
	r.PutBytes(payload)
	return append([]byte(nil), r.Frame()...)
}

func TestParseReply(t *testing.T) {
	corrupt := buildTestReply(CmdVersion, []byte("UMD v2.0.0.0"))
	corrupt[5] ^= 0x01

	badSize := buildTestReply(CmdUndefined, nil)
	binary.LittleEndian.PutUint16(badSize[2:4], 2)

	tests := []struct {
		name        string
		frame       []byte
		wantCode    uint16
		wantDataLen int
		errMsg      string
	}{
		{
			name:     "empty payload",
			frame:    buildTestReply(CmdSetLEDs, nil),
			wantCode: CmdSetLEDs,
		},
		{
			name:        "padded payload",
			frame:       buildTestReply(CmdGetVoltage, []byte{0x01}),
			wantCode:    CmdGetVoltage,
			wantDataLen: 4,
		},
		{
			name:     "reserved code",
			frame:    buildTestReply(ReplyCRCError, nil),
			wantCode: ReplyCRCError,
		},
		{
			name:   "too short",
			frame:  []byte{0x04, 0x00, 0x04},
			errMsg: "frame too short",
		},
		{
			name:   "truncated",
			frame:  buildTestReply(CmdVersion, []byte("UMD v2.0.0.0"))[:12],
			errMsg: "length mismatch",
		},
		{
			name:   "corrupted payload",
			frame:  corrupt,
			errMsg: "checksum mismatch",
		},
		{
			name:   "size below header",
			frame:  badSize,
			errMsg: "invalid size",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, data, err := ParseReply(tt.frame)
			if tt.errMsg != "" {
				if err == nil || !strings.Contains(err.Error(), tt.errMsg) {
					t.Fatalf("error = %v, want substring %q", err, tt.errMsg)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if code != tt.wantCode {
				t.Errorf("code = 0x%04X, want 0x%04X", code, tt.wantCode)
			}
			if len(data) != tt.wantDataLen {
				t.Errorf("len(data) = %d, want %d", len(data), tt.wantDataLen)
			}
		})
	}
}

func TestCheckReply(t *testing.T) {
	failed := make([]byte, 4)
	binary.LittleEndian.PutUint32(failed, uint32(StatusUnaligned))

	if err := CheckReply("read rom", CmdReadROM, CmdReadROM, nil); err != nil {
		t.Errorf("echo: error = %v", err)
	}

	err := CheckReply("read rom", CmdReadROM, ReplyCmdFailed, failed)
	var re *ReplyError
	if !errors.As(err, &re) {
		t.Fatalf("CMD_FAILED: error = %v, want *ReplyError", err)
	}
	if re.Status != StatusUnaligned || re.Retryable() {
		t.Errorf("ReplyError = %+v", re)
	}
	if !strings.Contains(err.Error(), "unaligned access") {
		t.Errorf("Error() = %q", err.Error())
	}

	err = CheckReply("version", CmdVersion, ReplyCRCError, nil)
	if !IsReplyError(err) || !err.(*ReplyError).Retryable() {
		t.Errorf("CRC_ERROR: error = %v, want retryable ReplyError", err)
	}

	if err := CheckReply("version", CmdVersion, ReplyCmdFailed, nil); err == nil || IsReplyError(err) {
		t.Errorf("CMD_FAILED without status: error = %v", err)
	}

	err = CheckReply("version", CmdVersion, CmdSetID, nil)
	if err == nil || IsReplyError(err) {
		t.Errorf("wrong echo: error = %v", err)
	}
}

func TestReplyCodeName(t *testing.T) {
	tests := []struct {
		code uint16
		want string
	}{
		{ReplyCmdFailed, "command failed"},
		{ReplyNoAck, "unknown command"},
		{ReplyPayloadTimeout, "payload timeout"},
		{ReplyCRCError, "crc mismatch"},
		{0x1234, "reply code 0x1234"},
	}
	for _, tt := range tests {
		if got := ReplyCodeName(tt.code); got != tt.want {
			t.Errorf("ReplyCodeName(0x%04X) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestParseFlashIDReply(t *testing.T) {
	r := NewReplyBuffer()
	r.PutUint8(0xBF)
	r.PutUint8(0x5B)
	r.PutUint32(0x400000)

	id, err := ParseFlashIDReply(r.Payload())
	if err != nil {
		t.Fatalf("ParseFlashIDReply() error = %v", err)
	}
	if id.Manufacturer != 0xBF || id.Device != 0x5B || id.Size != 0x400000 {
		t.Errorf("ParseFlashIDReply() = %+v", id)
	}

	if _, err := ParseFlashIDReply([]byte{0xBF, 0x5B}); err == nil {
		t.Error("short reply should fail")
	}
}

func TestParseReadROMReply(t *testing.T) {
	block := []byte{1, 2, 3, 4, 5, 6}
	r := NewReplyBuffer()
	r.PutBytes(block)
	crc := Checksum(r.Payload())
	r.PutUint32(crc)

	got, padded, gotCRC, err := ParseReadROMReply(r.Payload(), len(block))
	if err != nil {
		t.Fatalf("ParseReadROMReply() error = %v", err)
	}
	if string(got) != string(block) || len(padded) != 8 || gotCRC != crc {
		t.Errorf("ParseReadROMReply() = % X, %d, 0x%08X", got, len(padded), gotCRC)
	}
	if Checksum(padded) != gotCRC {
		t.Error("block CRC does not recompute")
	}

	if _, _, _, err := ParseReadROMReply(r.Payload(), 16); err == nil {
		t.Error("size mismatch should fail")
	}
}

func TestParseListCommandsReply(t *testing.T) {
	r := NewReplyBuffer()
	r.PutString(ListCommandsHeader + "undefined\nlist commands\nset LEDs")

	names, err := ParseListCommandsReply(r.Payload())
	if err != nil {
		t.Fatalf("ParseListCommandsReply() error = %v", err)
	}
	want := []string{"undefined", "list commands", "set LEDs"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Errorf("names = %q, want %q", names, want)
	}

	if _, err := ParseListCommandsReply([]byte("garbage\x00")); err == nil {
		t.Error("missing header should fail")
	}
}

func TestParseScalarReplies(t *testing.T) {
	if v, err := ParseUint8Reply([]byte{2, 0, 0, 0}); err != nil || v != 2 {
		t.Errorf("ParseUint8Reply() = %d, %v", v, err)
	}
	if _, err := ParseUint8Reply([]byte{2}); err == nil {
		t.Error("unpadded u8 should fail")
	}
	if v, err := ParseUint32Reply([]byte{0x78, 0x56, 0x34, 0x12}); err != nil || v != 0x12345678 {
		t.Errorf("ParseUint32Reply() = 0x%X, %v", v, err)
	}
	if s, err := ParseStatusReply([]byte{4, 0, 0, 0}); err != nil || s != StatusFlashTimeout {
		t.Errorf("ParseStatusReply() = %s, %v", s, err)
	}
}
