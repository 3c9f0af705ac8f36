package device

import (
	"time"

	"github.com/moffa90/go-umd/protocol"
	"periph.io/x/conn/v3/gpio"
)

// Config holds the device configuration.
type Config struct {
	// Logger is used for logging frame handling (optional)
	Logger Logger

	// CommandTimeout bounds the wait for a complete 8-byte header
	CommandTimeout time.Duration

	// PayloadTimeout bounds the wait for the rest of a frame once its
	// header has arrived
	PayloadTimeout time.Duration

	// Version is the get-version reply
	Version string

	// Commands replaces the command table when non-nil. Index is opcode.
	Commands []Command

	// LEDs are the status LEDs, LED0 first
	LEDs []gpio.PinOut

	// BootPin is BOOT_EN (optional)
	BootPin gpio.PinOut

	// IdleInterval is the LED animation period while no frames arrive.
	// Zero leaves the LEDs under host control.
	IdleInterval time.Duration
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		CommandTimeout: protocol.DefaultCommandTimeout,
		PayloadTimeout: protocol.DefaultPayloadTimeout,
		Version:        protocol.Version,
	}
}

// Option is a functional option for configuring the Device.
type Option func(*Config)

// WithLogger sets a logger for frame handling.
//
// Example:
//
//	dev := device.New(transport, registry, device.WithLogger(slog.Default()))
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithCommandTimeout sets how long Poll waits for a frame header.
// Default is 10 ms.
func WithCommandTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.CommandTimeout = timeout
	}
}

// WithPayloadTimeout sets how long Poll waits for a frame's payload and
// CRC after its header. Default is 250 ms.
func WithPayloadTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.PayloadTimeout = timeout
	}
}

// WithVersion sets the get-version reply.
func WithVersion(version string) Option {
	return func(c *Config) {
		c.Version = version
	}
}

// WithCommands replaces the command table.
func WithCommands(commands []Command) Option {
	return func(c *Config) {
		c.Commands = commands
	}
}

// WithLEDs sets the status LED pins, LED0 first.
func WithLEDs(pins ...gpio.PinOut) Option {
	return func(c *Config) {
		c.LEDs = pins
	}
}

// WithBootPin sets the BOOT_EN pin used by BootPrecharge.
func WithBootPin(pin gpio.PinOut) Option {
	return func(c *Config) {
		c.BootPin = pin
	}
}

// WithIdleInterval enables the LED animation while the link is idle.
func WithIdleInterval(interval time.Duration) Option {
	return func(c *Config) {
		c.IdleInterval = interval
	}
}
