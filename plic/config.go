package plic

import (
	"errors"
	"fmt"
)

// Config shapes an arbiter and its bench.
type Config struct {
	// Sources is the number of interrupt sources, including reserved
	// source 0.
	Sources int `yaml:"sources" json:"sources"`

	// Targets is the number of interrupt targets.
	Targets int `yaml:"targets" json:"targets"`

	// MaxPrio masks priority and threshold writes.
	MaxPrio uint32 `yaml:"max_prio" json:"max_prio"`

	// DelayMask bounds the idle cycles between rounds.
	DelayMask uint32 `yaml:"delay_mask" json:"delay_mask"`
}

// DefaultConfig returns the 128x128 controller with 2-bit priorities.
func DefaultConfig() Config {
	return Config{
		Sources:   128,
		Targets:   128,
		MaxPrio:   3,
		DelayMask: 0xff,
	}
}

// Validate checks that the shape fits the register map.
func (c Config) Validate() error {
	if c.Sources < 2 {
		return errors.New("plic: need at least two sources")
	}
	if c.Targets < 1 {
		return errors.New("plic: need at least one target")
	}
	if c.Sources > 1024 {
		return fmt.Errorf("plic: %d sources overlap the pending block", c.Sources)
	}
	if Words(c.Sources) > 32 {
		return fmt.Errorf("plic: %d sources overflow an enable bank", c.Sources)
	}
	if uint64(c.Targets)*EnableStride > BaseContext-BaseEnable {
		return fmt.Errorf("plic: %d targets overlap the context block", c.Targets)
	}
	if c.MaxPrio == 0 || c.MaxPrio&(c.MaxPrio+1) != 0 {
		return fmt.Errorf("plic: max_prio 0x%x is not a low bit mask", c.MaxPrio)
	}
	return nil
}
