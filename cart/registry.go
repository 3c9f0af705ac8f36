package cart

import "github.com/moffa90/go-umd/bus"

// Registry owns one driver per variant, indexed by Mode.
type Registry struct {
	drivers []Driver
}

// NewRegistry builds every variant on the same bus and board.
func NewRegistry(b bus.Bus, board *Board, opts ...Option) *Registry {
	return &Registry{
		drivers: []Driver{
			ModeNone:         NewGeneric(b, board, opts...),
			ModeGenesis:      NewGenesis(b, board, opts...),
			ModeMasterSystem: NewMasterSystem(b, board, opts...),
		},
	}
}

// Get returns the driver for mode, or the generic driver when mode is
// out of range.
func (r *Registry) Get(mode Mode) Driver {
	if mode > 0 && int(mode) < len(r.drivers) {
		return r.drivers[mode]
	}
	return r.drivers[ModeNone]
}

// MaxMode is the highest mode with a dedicated driver.
func (r *Registry) MaxMode() Mode {
	return Mode(len(r.drivers) - 1)
}
