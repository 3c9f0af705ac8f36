package cart

import "time"

// Config holds driver timing configuration.
type Config struct {
	// ProgramTimeout bounds the toggle-bit wait after each programmed element.
	ProgramTimeout time.Duration

	// EraseTimeout bounds the toggle-bit wait after a chip erase.
	EraseTimeout time.Duration
}

func defaultConfig() Config {
	return Config{
		ProgramTimeout: 50 * time.Millisecond,
		EraseTimeout:   60 * time.Second,
	}
}

// Option is a functional option for configuring drivers.
type Option func(*Config)

// WithProgramTimeout sets the per-element program completion timeout.
func WithProgramTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout > 0 {
			c.ProgramTimeout = timeout
		}
	}
}

// WithEraseTimeout sets the chip erase completion timeout.
func WithEraseTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout > 0 {
			c.EraseTimeout = timeout
		}
	}
}
