package host

import (
	"time"

	"github.com/moffa90/go-umd/protocol"
)

// Config holds the client configuration.
type Config struct {
	// ProgressCallback is called during Dump and Program (optional)
	ProgressCallback ProgressCallback

	// Logger is used for logging operations (optional)
	Logger Logger

	// Timeout bounds each request/reply exchange. It is applied only when
	// the device supports read deadlines, as net.Conn does.
	Timeout time.Duration

	// ChunkSize is the number of bytes per read-rom or program-flash
	// request. Default is protocol.MaxReadSize.
	ChunkSize int

	// Retries is the number of resends after a CRC_ERROR or
	// PAYLOAD_TIMEOUT reply, or a read-rom block CRC mismatch
	Retries int

	// VerifyAfterProgram reads back every programmed chunk
	VerifyAfterProgram bool
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Timeout:            5 * time.Second,
		ChunkSize:          protocol.MaxReadSize,
		Retries:            3,
		VerifyAfterProgram: true,
	}
}

// Option is a functional option for configuring the Client.
type Option func(*Config)

// WithProgressCallback sets a callback function to track transfer progress.
//
// Example:
//
//	client := host.New(port,
//	    host.WithProgressCallback(func(p host.Progress) {
//	        fmt.Printf("%.1f%% complete\n", p.Percentage)
//	    }),
//	)
func WithProgressCallback(callback ProgressCallback) Option {
	return func(c *Config) {
		c.ProgressCallback = callback
	}
}

// WithLogger sets a logger for the client operations.
//
// Example:
//
//	client := host.New(port, host.WithLogger(slog.Default()))
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithTimeout sets the per-exchange timeout.
//
// Example:
//
//	client := host.New(conn, host.WithTimeout(10*time.Second))
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

// WithChunkSize sets the transfer size per request. Sizes outside
// 2..protocol.MaxReadSize are ignored; odd sizes are rounded down so
// 16-bit cartridges always see whole words.
//
// Example:
//
//	client := host.New(port, host.WithChunkSize(4096))
func WithChunkSize(size int) Option {
	return func(c *Config) {
		if size >= 2 && size <= protocol.MaxReadSize {
			c.ChunkSize = size &^ 1
		}
	}
}

// WithRetries sets the number of resends for transport-class failures.
//
// Example:
//
//	client := host.New(port, host.WithRetries(5))
func WithRetries(retries int) Option {
	return func(c *Config) {
		if retries >= 0 {
			c.Retries = retries
		}
	}
}

// WithVerifyAfterProgram enables or disables read-back after programming.
// Default is true.
//
// Example:
//
//	client := host.New(port, host.WithVerifyAfterProgram(false))
func WithVerifyAfterProgram(verify bool) Option {
	return func(c *Config) {
		c.VerifyAfterProgram = verify
	}
}
