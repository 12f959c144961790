// Package bus defines the register-access contract between scoreboards and
// devices under test.
//
// Transport timing and protocol rules belong to the bridge that carries the
// accesses; this package only sees completed, naturally aligned 32-bit reads
// and writes.
package bus

import (
	"errors"
	"fmt"
)

// ErrMisaligned is returned for an access that is not 32-bit aligned.
// Misalignment is a caller bug, never a device fault.
var ErrMisaligned = errors.New("misaligned register access")

// ErrUnmapped is returned by devices for an address with no register.
var ErrUnmapped = errors.New("unmapped register")

// Register names one 32-bit register of a device map.
type Register struct {
	Addr uint64
	Name string
}

func (r Register) String() string {
	return fmt.Sprintf("0x%08x %s", r.Addr, r.Name)
}

// Target is a memory-mapped register block.
type Target interface {
	Read32(addr uint64) (uint32, error)
	Write32(addr uint64, v uint32) error
}

// CheckAligned returns ErrMisaligned unless addr is 4-byte aligned.
func CheckAligned(addr uint64) error {
	if addr&3 != 0 {
		return fmt.Errorf("address 0x%x: %w", addr, ErrMisaligned)
	}
	return nil
}

// Stats counts the accesses that went through a Checked target.
type Stats struct {
	Reads  uint64
	Writes uint64
}

// Checked guards a Target with the alignment precondition and counts
// accesses.
type Checked struct {
	target Target
	stats  Stats
}

// NewChecked wraps t.
func NewChecked(t Target) *Checked {
	return &Checked{target: t}
}

// Read32 reads the register at addr.
func (c *Checked) Read32(addr uint64) (uint32, error) {
	if err := CheckAligned(addr); err != nil {
		return 0, err
	}
	c.stats.Reads++
	return c.target.Read32(addr)
}

// Write32 writes v to the register at addr.
func (c *Checked) Write32(addr uint64, v uint32) error {
	if err := CheckAligned(addr); err != nil {
		return err
	}
	c.stats.Writes++
	return c.target.Write32(addr, v)
}

// Read64 reads a 64-bit register split into two halves, high half first.
func (c *Checked) Read64(addr uint64) (uint64, error) {
	hi, err := c.Read32(addr + 4)
	if err != nil {
		return 0, err
	}
	lo, err := c.Read32(addr)
	if err != nil {
		return 0, err
	}
	return uint64(hi)<<32 | uint64(lo), nil
}

// Stats returns the access counters.
func (c *Checked) Stats() Stats {
	return c.stats
}
