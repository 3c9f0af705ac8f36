package host

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/moffa90/go-umd/flash"
	"github.com/moffa90/go-umd/protocol"
)

// MockDevice simulates a UMD for testing. Queued replies are read back
// as one byte stream, whatever was written.
type MockDevice struct {
	readBuf  *bytes.Buffer
	writes   [][]byte
	readErr  error
	writeErr error
}

func NewMockDevice() *MockDevice {
	return &MockDevice{
		readBuf: new(bytes.Buffer),
	}
}

func (m *MockDevice) Read(p []byte) (int, error) {
	if m.readErr != nil {
		return 0, m.readErr
	}
	return m.readBuf.Read(p)
}

func (m *MockDevice) Write(p []byte) (int, error) {
	if m.writeErr != nil {
		return 0, m.writeErr
	}
	m.writes = append(m.writes, append([]byte(nil), p...))
	return len(p), nil
}

func (m *MockDevice) AddReply(code uint16, payload []byte) {
	m.readBuf.Write(buildReplyFrame(code, payload))
}

func (m *MockDevice) AddStatus(status protocol.Status) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(status))
	m.AddReply(protocol.ReplyCmdFailed, b[:])
}

// AddBlock queues a read-rom reply for block, with the given block CRC.
func (m *MockDevice) AddBlock(block []byte, crc uint32) {
	r := protocol.NewReplyBuffer()
	r.PutBytes(block)
	r.PutUint32(crc)
	m.AddReply(protocol.CmdReadROM, r.Payload())
}

func (m *MockDevice) SetReadError(err error) {
	m.readErr = err
}

func (m *MockDevice) SetWriteError(err error) {
	m.writeErr = err
}

// buildReplyFrame builds a valid reply frame for testing.
func buildReplyFrame(code uint16, payload []byte) []byte {
	r := protocol.NewReplyBuffer()
	r.Reset(code)
	r.PutBytes(payload)
	return append([]byte(nil), r.Frame()...)
}

func blockCRC(block []byte) uint32 {
	padded := make([]byte, (len(block)+3)&^3)
	copy(padded, block)
	return protocol.Checksum(padded)
}

// Mock logger for testing
type MockLogger struct {
	debugMsgs []string
	infoMsgs  []string
	errorMsgs []string
}

func (l *MockLogger) Debug(msg string, kv ...interface{}) {
	l.debugMsgs = append(l.debugMsgs, msg)
}

func (l *MockLogger) Info(msg string, kv ...interface{}) {
	l.infoMsgs = append(l.infoMsgs, msg)
}

func (l *MockLogger) Error(msg string, kv ...interface{}) {
	l.errorMsgs = append(l.errorMsgs, msg)
}

func TestNew(t *testing.T) {
	t.Run("nil device panics", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("New(nil) did not panic")
			}
		}()
		New(nil)
	})

	t.Run("defaults", func(t *testing.T) {
		c := New(NewMockDevice())
		if c.config.ChunkSize != protocol.MaxReadSize {
			t.Errorf("ChunkSize = %d, want %d", c.config.ChunkSize, protocol.MaxReadSize)
		}
		if c.config.Retries != 3 || !c.config.VerifyAfterProgram {
			t.Errorf("config = %+v", c.config)
		}
	})

	tests := []struct {
		name      string
		opt       Option
		wantChunk int
		wantRetry int
	}{
		{"chunk size", WithChunkSize(1024), 1024, 3},
		{"odd chunk size rounds down", WithChunkSize(1025), 1024, 3},
		{"chunk size too small", WithChunkSize(1), protocol.MaxReadSize, 3},
		{"chunk size too large", WithChunkSize(protocol.MaxReadSize + 2), protocol.MaxReadSize, 3},
		{"retries", WithRetries(0), protocol.MaxReadSize, 0},
		{"negative retries ignored", WithRetries(-1), protocol.MaxReadSize, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(NewMockDevice(), tt.opt)
			if c.config.ChunkSize != tt.wantChunk || c.config.Retries != tt.wantRetry {
				t.Errorf("ChunkSize = %d, Retries = %d; want %d, %d",
					c.config.ChunkSize, c.config.Retries, tt.wantChunk, tt.wantRetry)
			}
		})
	}
}

func TestVersion(t *testing.T) {
	dev := NewMockDevice()
	dev.AddReply(protocol.CmdVersion, []byte(protocol.Version))

	c := New(dev)
	v, err := c.Version(context.Background())
	if err != nil {
		t.Fatalf("Version() error = %v", err)
	}
	if v != protocol.Version {
		t.Errorf("Version() = %q", v)
	}

	want, _ := protocol.BuildVersionCmd()
	if len(dev.writes) != 1 || !bytes.Equal(dev.writes[0], want) {
		t.Errorf("request = % X, want % X", dev.writes, want)
	}
}

func TestRetryOnTransportCodes(t *testing.T) {
	tests := []struct {
		name       string
		codes      []uint16
		retries    int
		wantErr    bool
		wantWrites int
	}{
		{"CRC error then success", []uint16{protocol.ReplyCRCError}, 3, false, 2},
		{"payload timeout then success", []uint16{protocol.ReplyPayloadTimeout}, 3, false, 2},
		{"no retries", []uint16{protocol.ReplyCRCError}, 0, true, 1},
		{"retries exhausted", []uint16{protocol.ReplyCRCError, protocol.ReplyCRCError}, 1, true, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := NewMockDevice()
			for _, code := range tt.codes {
				dev.AddReply(code, nil)
			}
			dev.AddReply(protocol.CmdSetID, nil)
			logger := &MockLogger{}

			c := New(dev, WithRetries(tt.retries), WithLogger(logger))
			err := c.SetID(context.Background(), 7)
			if tt.wantErr {
				if !protocol.IsReplyError(err) {
					t.Errorf("SetID() error = %v, want ReplyError", err)
				}
				if len(logger.errorMsgs) == 0 {
					t.Error("exhausted retries were not logged")
				}
			} else if err != nil {
				t.Errorf("SetID() error = %v", err)
			}
			if len(dev.writes) != tt.wantWrites {
				t.Errorf("sent %d requests, want %d", len(dev.writes), tt.wantWrites)
			}
		})
	}
}

func TestCommandFailedNotRetried(t *testing.T) {
	dev := NewMockDevice()
	dev.AddStatus(protocol.StatusFlashTimeout)

	c := New(dev)
	err := c.EraseFlash(context.Background(), true)

	var re *protocol.ReplyError
	if !errors.As(err, &re) {
		t.Fatalf("EraseFlash() error = %v, want *protocol.ReplyError", err)
	}
	if re.Code != protocol.ReplyCmdFailed || re.Status != protocol.StatusFlashTimeout {
		t.Errorf("ReplyError = %+v", re)
	}
	if len(dev.writes) != 1 {
		t.Errorf("sent %d requests, want 1", len(dev.writes))
	}
}

func TestUnknownCommand(t *testing.T) {
	dev := NewMockDevice()
	dev.AddReply(protocol.ReplyNoAck, nil)

	c := New(dev)
	_, err := c.FlashID(context.Background())
	if !protocol.IsReplyError(err) || !strings.Contains(err.Error(), "unknown command") {
		t.Errorf("FlashID() error = %v", err)
	}
}

func TestFlashID(t *testing.T) {
	r := protocol.NewReplyBuffer()
	r.PutUint8(flash.Macronix)
	r.PutUint8(0x23)
	r.PutUint32(0x80000)

	dev := NewMockDevice()
	dev.AddReply(protocol.CmdGetFlashID, r.Payload())

	info, err := New(dev).FlashID(context.Background())
	if err != nil {
		t.Fatalf("FlashID() error = %v", err)
	}
	if info.Part != "MX29F400CT" || info.Size != 0x80000 {
		t.Errorf("FlashID() = %+v", info)
	}
}

func TestReadROM(t *testing.T) {
	block := []byte{0x53, 0x45, 0x47, 0x41, 0x20}

	t.Run("good block", func(t *testing.T) {
		dev := NewMockDevice()
		dev.AddBlock(block, blockCRC(block))

		got, err := New(dev).ReadROM(context.Background(), 0x100, len(block))
		if err != nil {
			t.Fatalf("ReadROM() error = %v", err)
		}
		if !bytes.Equal(got, block) {
			t.Errorf("ReadROM() = % X", got)
		}
	})

	t.Run("bad CRC retried", func(t *testing.T) {
		dev := NewMockDevice()
		dev.AddBlock(block, 0xDEADBEEF)
		dev.AddBlock(block, blockCRC(block))

		got, err := New(dev).ReadROM(context.Background(), 0x100, len(block))
		if err != nil || !bytes.Equal(got, block) {
			t.Errorf("ReadROM() = % X, %v", got, err)
		}
		if len(dev.writes) != 2 {
			t.Errorf("sent %d requests, want 2", len(dev.writes))
		}
	})

	t.Run("bad CRC exhausted", func(t *testing.T) {
		dev := NewMockDevice()
		dev.AddBlock(block, 0xDEADBEEF)
		dev.AddBlock(block, 0xDEADBEEF)

		_, err := New(dev, WithRetries(1)).ReadROM(context.Background(), 0x100, len(block))
		var crcErr *CRCMismatchError
		if !errors.As(err, &crcErr) {
			t.Fatalf("ReadROM() error = %v, want *CRCMismatchError", err)
		}
		if crcErr.Address != 0x100 || crcErr.Expected != 0xDEADBEEF {
			t.Errorf("CRCMismatchError = %+v", crcErr)
		}
	})

	t.Run("size out of range", func(t *testing.T) {
		c := New(NewMockDevice())
		if _, err := c.ReadROM(context.Background(), 0, 0); err == nil {
			t.Error("zero size should fail")
		}
		if _, err := c.ReadROM(context.Background(), 0, protocol.MaxReadSize+1); err == nil {
			t.Error("oversized read should fail")
		}
	})
}

func TestReadWriteErrors(t *testing.T) {
	t.Run("write error", func(t *testing.T) {
		dev := NewMockDevice()
		dev.SetWriteError(io.ErrClosedPipe)
		err := New(dev).Ping(context.Background())
		if !errors.Is(err, io.ErrClosedPipe) || !strings.Contains(err.Error(), "write command") {
			t.Errorf("Ping() error = %v", err)
		}
	})

	t.Run("read error", func(t *testing.T) {
		dev := NewMockDevice()
		dev.SetReadError(io.ErrUnexpectedEOF)
		err := New(dev).Ping(context.Background())
		if !errors.Is(err, io.ErrUnexpectedEOF) || !strings.Contains(err.Error(), "read reply header") {
			t.Errorf("Ping() error = %v", err)
		}
	})

	t.Run("truncated reply", func(t *testing.T) {
		dev := NewMockDevice()
		frame := buildReplyFrame(protocol.CmdVersion, []byte(protocol.Version))
		dev.readBuf.Write(frame[:len(frame)-2])
		if _, err := New(dev).Version(context.Background()); err == nil {
			t.Error("truncated reply should fail")
		}
	})

	t.Run("corrupt reply", func(t *testing.T) {
		dev := NewMockDevice()
		frame := buildReplyFrame(protocol.CmdVersion, []byte(protocol.Version))
		frame[6] ^= 0xFF
		dev.readBuf.Write(frame)
		_, err := New(dev).Version(context.Background())
		if err == nil || !strings.Contains(err.Error(), "checksum mismatch") {
			t.Errorf("Version() error = %v", err)
		}
	})
}

func TestCancelledContext(t *testing.T) {
	dev := NewMockDevice()
	dev.AddReply(protocol.CmdUndefined, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := New(dev).Ping(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Ping() error = %v, want context.Canceled", err)
	}
	if len(dev.writes) != 0 {
		t.Error("request sent after cancel")
	}
}

func TestDumpProgress(t *testing.T) {
	data := []byte("0123456789ABCDEF0123")
	dev := NewMockDevice()
	for off := 0; off < len(data); off += 8 {
		block := data[off:min(off+8, len(data))]
		dev.AddBlock(block, blockCRC(block))
	}

	var updates []Progress
	c := New(dev,
		WithChunkSize(8),
		WithProgressCallback(func(p Progress) { updates = append(updates, p) }),
	)

	var out bytes.Buffer
	if err := c.Dump(context.Background(), 0x200, len(data), &out); err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	if !bytes.Equal(out.Bytes(), data) {
		t.Errorf("Dump() wrote %q", out.Bytes())
	}

	if len(dev.writes) != 3 {
		t.Fatalf("sent %d requests, want 3", len(dev.writes))
	}
	req, _ := protocol.ParseReadROMRequest(dev.writes[2][protocol.HeaderSize:])
	if req.Address != 0x210 || req.Size != 4 {
		t.Errorf("last request = %+v, want {0x210 4}", req)
	}

	last := updates[len(updates)-1]
	if last.Phase != PhaseComplete || last.Percentage != 100 || last.Bytes != len(data) {
		t.Errorf("final progress = %+v", last)
	}
	for i := 1; i < len(updates); i++ {
		if updates[i].Percentage < updates[i-1].Percentage {
			t.Errorf("progress went backwards: %.1f -> %.1f", updates[i-1].Percentage, updates[i].Percentage)
		}
	}
}

func TestTimeoutUsesDeadline(t *testing.T) {
	dev := &deadlineDevice{MockDevice: NewMockDevice()}
	dev.AddReply(protocol.CmdUndefined, nil)

	c := New(dev, WithTimeout(time.Second))
	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
	if len(dev.deadlines) != 2 || dev.deadlines[0].IsZero() || !dev.deadlines[1].IsZero() {
		t.Errorf("deadlines = %v, want one set and one cleared", dev.deadlines)
	}
}

func TestDeadlineError(t *testing.T) {
	dev := &deadlineDevice{MockDevice: NewMockDevice(), err: errors.New("deadline not supported")}
	dev.AddReply(protocol.CmdUndefined, nil)

	c := New(dev, WithTimeout(time.Second))
	err := c.Ping(context.Background())
	if err == nil || !strings.Contains(err.Error(), "set read deadline") {
		t.Fatalf("Ping() error = %v, want set read deadline failure", err)
	}
	if len(dev.writes) != 0 {
		t.Errorf("request written %d times without a deadline", len(dev.writes))
	}
}

type deadlineDevice struct {
	*MockDevice
	deadlines []time.Time
	err       error
}

func (d *deadlineDevice) SetReadDeadline(t time.Time) error {
	if d.err != nil {
		return d.err
	}
	d.deadlines = append(d.deadlines, t)
	return nil
}
