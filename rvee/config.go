package rvee

import (
	"errors"
	"fmt"
)

// Config tunes the pipeline benches.
type Config struct {
	// ResetVector is the first fetch address.
	ResetVector uint32 `yaml:"reset_vector" json:"reset_vector"`

	// DrainDepth bounds the stale entries dropped after a redirect.
	DrainDepth int `yaml:"drain_depth" json:"drain_depth"`

	// DelayMask bounds producer delays and consumer ready gaps.
	DelayMask uint32 `yaml:"delay_mask" json:"delay_mask"`

	// TagMask is cleared from generated memory addresses.
	TagMask uint32 `yaml:"tag_mask" json:"tag_mask"`

	// StallLimit is the number of cycles a stage may hold expected work
	// without a transfer before the run is declared desynchronized.
	StallLimit uint64 `yaml:"stall_limit" json:"stall_limit"`

	// QueueDepth is the capacity of every match queue.
	QueueDepth int `yaml:"queue_depth" json:"queue_depth"`
}

// DefaultConfig returns the bench defaults.
func DefaultConfig() Config {
	return Config{
		ResetVector: 0,
		DrainDepth:  5,
		DelayMask:   0x1f,
		TagMask:     0xff000000,
		StallLimit:  4096,
		QueueDepth:  64,
	}
}

// Validate checks the bench parameters.
func (c Config) Validate() error {
	if c.ResetVector&3 != 0 {
		return fmt.Errorf("rvee: reset vector 0x%x is not aligned", c.ResetVector)
	}
	if c.DrainDepth < 1 {
		return errors.New("rvee: drain_depth must be positive")
	}
	if c.QueueDepth < c.DrainDepth+2 {
		return fmt.Errorf("rvee: queue_depth %d cannot hold a drain of %d", c.QueueDepth, c.DrainDepth)
	}
	if c.StallLimit <= uint64(c.DelayMask)+16 {
		return fmt.Errorf("rvee: stall_limit %d is within the random delays", c.StallLimit)
	}
	return nil
}
