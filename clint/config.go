package clint

import (
	"errors"
	"fmt"
)

// Config shapes a timer block and its bench.
type Config struct {
	// Targets is the number of harts served.
	Targets int `yaml:"targets" json:"targets"`

	// ClearBound is the exclusive upper bound of mtime read back right
	// after it was cleared.
	ClearBound uint64 `yaml:"clear_bound" json:"clear_bound"`

	// MtimeRate is the counter increment per clock cycle. Zero means the
	// rate is unknown; the bench then resynchronizes its shadow from the
	// device every cycle.
	MtimeRate uint64 `yaml:"mtime_rate" json:"mtime_rate"`

	// DelayMask bounds the idle cycles between rounds.
	DelayMask uint32 `yaml:"delay_mask" json:"delay_mask"`
}

// DefaultConfig returns a 1024-target block counting once per cycle.
func DefaultConfig() Config {
	return Config{
		Targets:    1024,
		ClearBound: 4,
		MtimeRate:  1,
		DelayMask:  0xff,
	}
}

// Validate checks that the shape fits the register map.
func (c Config) Validate() error {
	if c.Targets < 1 {
		return errors.New("clint: need at least one target")
	}
	if TimecmpAddr(c.Targets) > AddrMtime {
		return fmt.Errorf("clint: %d targets overlap mtime", c.Targets)
	}
	if c.ClearBound == 0 {
		return errors.New("clint: clear_bound must be positive")
	}
	if c.MtimeRate >= c.ClearBound {
		return fmt.Errorf("clint: mtime_rate %d reaches clear_bound %d", c.MtimeRate, c.ClearBound)
	}
	return nil
}
