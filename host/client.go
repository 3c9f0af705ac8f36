package host

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/moffa90/go-umd/cart"
	"github.com/moffa90/go-umd/flash"
	"github.com/moffa90/go-umd/protocol"
)

// Client talks to a UMD over its serial link. It issues one request at a
// time and waits for the matching reply.
//
// Client is safe for concurrent use; exchanges are serialized.
type Client struct {
	device io.ReadWriter
	config Config

	mu sync.Mutex
}

// deadliner is implemented by links that support read deadlines.
type deadliner interface {
	SetReadDeadline(t time.Time) error
}

// New creates a new Client with the given device link and options.
//
// Example:
//
//	port, _ := serial.Open(serial.OpenOptions{PortName: "/dev/ttyACM0", ...})
//	client := host.New(port,
//	    host.WithProgressCallback(progressFunc),
//	    host.WithTimeout(10*time.Second),
//	)
func New(device io.ReadWriter, opts ...Option) *Client {
	if device == nil {
		panic("device cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Client{
		device: device,
		config: cfg,
	}
}

// Ping sends the undefined command, which every firmware answers.
func (c *Client) Ping(ctx context.Context) error {
	cmd, err := protocol.BuildUndefinedCmd()
	if err != nil {
		return err
	}
	_, err = c.exchange(ctx, "ping", protocol.CmdUndefined, cmd)
	return err
}

// ListCommands returns the device's command names, indexed by opcode.
func (c *Client) ListCommands(ctx context.Context) ([]string, error) {
	cmd, err := protocol.BuildListCommandsCmd()
	if err != nil {
		return nil, err
	}
	data, err := c.exchange(ctx, "list commands", protocol.CmdListCommands, cmd)
	if err != nil {
		return nil, err
	}
	return protocol.ParseListCommandsReply(data)
}

// SetLEDs lights the LEDs set in the low nibble of leds.
func (c *Client) SetLEDs(ctx context.Context, leds uint8) error {
	cmd, err := protocol.BuildSetLEDsCmd(leds)
	if err != nil {
		return err
	}
	_, err = c.exchange(ctx, "set LEDs", protocol.CmdSetLEDs, cmd)
	return err
}

// SetID assigns the device ID.
func (c *Client) SetID(ctx context.Context, id uint32) error {
	cmd, err := protocol.BuildSetIDCmd(id)
	if err != nil {
		return err
	}
	_, err = c.exchange(ctx, "set ID", protocol.CmdSetID, cmd)
	return err
}

// DeviceID returns the device ID last assigned with SetID.
func (c *Client) DeviceID(ctx context.Context) (uint32, error) {
	cmd, err := protocol.BuildGetDeviceIDCmd()
	if err != nil {
		return 0, err
	}
	data, err := c.exchange(ctx, "get device ID", protocol.CmdGetDeviceID, cmd)
	if err != nil {
		return 0, err
	}
	return protocol.ParseUint32Reply(data)
}

// Version returns the firmware version string.
func (c *Client) Version(ctx context.Context) (string, error) {
	cmd, err := protocol.BuildVersionCmd()
	if err != nil {
		return "", err
	}
	data, err := c.exchange(ctx, "get version", protocol.CmdVersion, cmd)
	if err != nil {
		return "", err
	}
	return protocol.ParseStringReply(data), nil
}

// Voltage returns the cartridge supply setting.
func (c *Client) Voltage(ctx context.Context) (cart.Voltage, error) {
	cmd, err := protocol.BuildGetVoltageCmd()
	if err != nil {
		return cart.VoltageOff, err
	}
	data, err := c.exchange(ctx, "get voltage", protocol.CmdGetVoltage, cmd)
	if err != nil {
		return cart.VoltageOff, err
	}
	v, err := protocol.ParseUint8Reply(data)
	return cart.Voltage(v), err
}

// SetVoltage switches the cartridge supply.
func (c *Client) SetVoltage(ctx context.Context, v cart.Voltage) error {
	cmd, err := protocol.BuildSetVoltageCmd(uint8(v))
	if err != nil {
		return err
	}
	_, err = c.exchange(ctx, "set voltage", protocol.CmdSetVoltage, cmd)
	return err
}

// AdapterID reads the fitted adapter's ID. The device activates the
// matching cartridge driver as a side effect.
func (c *Client) AdapterID(ctx context.Context) (cart.Mode, error) {
	cmd, err := protocol.BuildGetAdapterIDCmd()
	if err != nil {
		return cart.ModeNone, err
	}
	data, err := c.exchange(ctx, "get adapter ID", protocol.CmdGetAdapterID, cmd)
	if err != nil {
		return cart.ModeNone, err
	}
	id, err := protocol.ParseUint8Reply(data)
	return cart.Mode(id), err
}

// FlashID identifies the cartridge flash. The part name is filled in
// from the local table; Size is what the device reported.
func (c *Client) FlashID(ctx context.Context) (flash.Info, error) {
	cmd, err := protocol.BuildGetFlashIDCmd()
	if err != nil {
		return flash.Info{}, err
	}
	data, err := c.exchange(ctx, "get flash ID", protocol.CmdGetFlashID, cmd)
	if err != nil {
		return flash.Info{}, err
	}
	id, err := protocol.ParseFlashIDReply(data)
	if err != nil {
		return flash.Info{}, err
	}
	info := flash.Identify(id.Manufacturer, id.Device)
	info.Size = id.Size
	return info, nil
}

// ReadROM reads one block of at most protocol.MaxReadSize bytes and
// checks its CRC. A mismatch is retried up to the configured count.
func (c *Client) ReadROM(ctx context.Context, address uint32, size int) ([]byte, error) {
	if size <= 0 || size > protocol.MaxReadSize {
		return nil, fmt.Errorf("read size %d out of range 1..%d", size, protocol.MaxReadSize)
	}
	cmd, err := protocol.BuildReadROMCmd(address, uint16(size))
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.Retries; attempt++ {
		if attempt > 0 {
			c.logDebug("retrying read", "address", fmt.Sprintf("0x%06X", address), "attempt", attempt)
		}
		data, err := c.exchange(ctx, "read ROM", protocol.CmdReadROM, cmd)
		if err != nil {
			return nil, err
		}
		block, padded, crc, err := protocol.ParseReadROMReply(data, size)
		if err != nil {
			return nil, err
		}
		if sum := protocol.Checksum(padded); sum != crc {
			lastErr = &CRCMismatchError{Address: address, Expected: crc, Actual: sum}
			c.logError("block CRC mismatch", "address", fmt.Sprintf("0x%06X", address))
			continue
		}
		return append([]byte(nil), block...), nil
	}
	return nil, lastErr
}

// EraseFlash erases the whole chip. With wait the device replies only
// once the erase has finished or timed out.
func (c *Client) EraseFlash(ctx context.Context, wait bool) error {
	cmd, err := protocol.BuildEraseFlashCmd(wait)
	if err != nil {
		return err
	}
	_, err = c.exchange(ctx, "erase flash", protocol.CmdEraseFlash, cmd)
	return err
}

// ProgramFlash programs one chunk of at most protocol.MaxProgramSize bytes.
func (c *Client) ProgramFlash(ctx context.Context, address uint32, data []byte) error {
	cmd, err := protocol.BuildProgramFlashCmd(address, data)
	if err != nil {
		return err
	}
	_, err = c.exchange(ctx, "program flash", protocol.CmdProgramFlash, cmd)
	return err
}

// exchange sends a request and returns the reply payload. Replies with a
// retryable reserved code are resent up to the configured count.
func (c *Client) exchange(ctx context.Context, operation string, code uint16, frame []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var lastErr error
	for attempt := 0; attempt <= c.config.Retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("cancelled: %w", err)
		}
		if attempt > 0 {
			c.logDebug("retrying command", "operation", operation, "attempt", attempt, "error", lastErr)
		}

		reply, err := c.sendCommandWithResponse(ctx, frame)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", operation, err)
		}
		replyCode, payload, err := protocol.ParseReply(reply)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", operation, err)
		}
		err = protocol.CheckReply(operation, code, replyCode, payload)
		if err == nil {
			return payload, nil
		}
		if !isRetryable(err) {
			c.logError("command failed", "operation", operation, "error", err)
			return nil, err
		}
		lastErr = err
	}
	c.logError("retries exhausted", "operation", operation, "error", lastErr)
	return nil, lastErr
}

// sendCommandWithResponse writes a request frame and reads exactly one
// reply frame: the header first, then as many bytes as its size field
// announces plus the CRC.
func (c *Client) sendCommandWithResponse(ctx context.Context, frame []byte) ([]byte, error) {
	if d, ok := c.device.(deadliner); ok && c.config.Timeout > 0 {
		deadline := time.Now().Add(c.config.Timeout)
		if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
			deadline = ctxDeadline
		}
		if err := d.SetReadDeadline(deadline); err != nil {
			return nil, fmt.Errorf("set read deadline: %w", err)
		}
		defer func() {
			if err := d.SetReadDeadline(time.Time{}); err != nil {
				c.logDebug("clear read deadline failed", "error", err)
			}
		}()
	}

	if _, err := c.device.Write(frame); err != nil {
		return nil, fmt.Errorf("write command: %w", err)
	}

	var header [protocol.HeaderSize]byte
	if _, err := io.ReadFull(c.device, header[:]); err != nil {
		return nil, fmt.Errorf("read reply header: %w", err)
	}
	size := int(binary.LittleEndian.Uint16(header[2:4]))
	if size < protocol.HeaderSize || size > protocol.BufferSize-protocol.CRCSize {
		return nil, fmt.Errorf("invalid reply size %d", size)
	}

	reply := make([]byte, size+protocol.CRCSize)
	copy(reply, header[:])
	if _, err := io.ReadFull(c.device, reply[protocol.HeaderSize:]); err != nil {
		return nil, fmt.Errorf("read reply: %w", err)
	}
	return reply, nil
}

// reportProgress calls the progress callback if configured.
func (c *Client) reportProgress(progress Progress) {
	if c.config.ProgressCallback != nil {
		c.config.ProgressCallback(progress)
	}
}

// logDebug logs a debug message if a logger is configured.
func (c *Client) logDebug(msg string, keysAndValues ...interface{}) {
	if c.config.Logger != nil {
		c.config.Logger.Debug(msg, keysAndValues...)
	}
}

// logInfo logs an info message if a logger is configured.
func (c *Client) logInfo(msg string, keysAndValues ...interface{}) {
	if c.config.Logger != nil {
		c.config.Logger.Info(msg, keysAndValues...)
	}
}

// logError logs an error message if a logger is configured.
func (c *Client) logError(msg string, keysAndValues ...interface{}) {
	if c.config.Logger != nil {
		c.config.Logger.Error(msg, keysAndValues...)
	}
}
