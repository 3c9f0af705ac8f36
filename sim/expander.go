package sim

import (
	"fmt"
	"sync"

	"github.com/moffa90/go-umd/cart"
	"periph.io/x/conn/v3/physic"
)

// IDExpander models the adapter board's MCP23008 as an I2C bus with a
// single device. Its GPIO register returns the strapped adapter ID.
type IDExpander struct {
	mu    sync.Mutex
	id    uint8
	speed physic.Frequency
	reads int
}

// NewIDExpander returns an expander strapped to id.
func NewIDExpander(id cart.Mode) *IDExpander {
	return &IDExpander{id: uint8(id)}
}

// SetID changes the strapped ID, as if another adapter was fitted.
func (e *IDExpander) SetID(id cart.Mode) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.id = uint8(id)
}

// Reads returns how many ID register reads were served.
func (e *IDExpander) Reads() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reads
}

func (e *IDExpander) String() string {
	return "mcp23008"
}

func (e *IDExpander) Tx(addr uint16, w, r []byte) error {
	if addr != cart.AdapterIDAddr {
		return fmt.Errorf("i2c: no device at 0x%02X", addr)
	}
	if len(w) != 1 || len(r) != 1 {
		return fmt.Errorf("i2c: unsupported transfer w=%d r=%d", len(w), len(r))
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if w[0] != cart.AdapterIDRegister {
		r[0] = 0
		return nil
	}
	r[0] = e.id
	e.reads++
	return nil
}

func (e *IDExpander) SetSpeed(f physic.Frequency) error {
	if f <= 0 || f > 1700*physic.KiloHertz {
		return fmt.Errorf("i2c: invalid speed %s", f)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.speed = f
	return nil
}
