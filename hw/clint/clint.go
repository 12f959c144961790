// Package clint is a behavioral timer/compare block with the register map
// of package clint.
package clint

import (
	"fmt"

	"github.com/sarchlab/rvbench/bus"
	ref "github.com/sarchlab/rvbench/clint"
	"github.com/sarchlab/rvbench/signal"
)

// Fault selects an injected design bug.
type Fault int

// Injectable faults.
const (
	FaultNone Fault = iota

	// FaultLateHigh lands writes of the counter high half one edge late,
	// so a clear of the counter transiently keeps the old high half.
	FaultLateHigh

	// FaultRegisteredTip registers the timer interrupt on the edge
	// instead of driving it from the comparator.
	FaultRegisteredTip

	// FaultWideMsip keeps every written bit of the software interrupt
	// registers.
	FaultWideMsip
)

var faultNames = map[string]Fault{
	"none":           FaultNone,
	"late-high":      FaultLateHigh,
	"registered-tip": FaultRegisteredTip,
	"wide-msip":      FaultWideMsip,
}

// ParseFault maps a fault name to its selector.
func ParseFault(name string) (Fault, error) {
	f, ok := faultNames[name]
	if !ok {
		return FaultNone, fmt.Errorf("clint: unknown fault %q", name)
	}
	return f, nil
}

// TimecmpReset is the reset value of every compare register.
const TimecmpReset = ^uint64(0)

// Device is a behavioral timer block.
type Device struct {
	cfg   ref.Config
	fault Fault
	step  uint64

	mtime   uint64
	timecmp []uint64
	msip    []uint32

	pendingHigh *uint32

	tip *signal.Bits
	sip *signal.Bits
}

// New creates a timer block. The counter advances by cfg.MtimeRate per
// edge, or by one when the rate is left unspecified.
func New(cfg ref.Config, fault Fault) *Device {
	d := &Device{
		cfg:   cfg,
		fault: fault,
		step:  max(cfg.MtimeRate, 1),
		tip:   signal.NewBits(cfg.Targets),
		sip:   signal.NewBits(cfg.Targets),
	}
	d.Reset()
	return d
}

// Reset zeroes the counter and software interrupts and parks every
// compare register at its maximum.
func (d *Device) Reset() {
	d.mtime = 0
	d.pendingHigh = nil
	d.timecmp = make([]uint64, d.cfg.Targets)
	for t := range d.timecmp {
		d.timecmp[t] = TimecmpReset
	}
	d.msip = make([]uint32, d.cfg.Targets)
	d.tip.Clear()
	d.sip.Clear()
}

// Step advances the counter.
func (d *Device) Step() {
	d.mtime += d.step
	if d.pendingHigh != nil {
		d.mtime = uint64(*d.pendingHigh)<<32 | d.mtime&0xffffffff
		d.pendingHigh = nil
	}
	if d.fault == FaultRegisteredTip {
		d.compare()
	}
}

func (d *Device) compare() {
	for t := range d.timecmp {
		d.tip.Set(t, d.mtime >= d.timecmp[t])
	}
}

// Tip returns the comparator outputs.
func (d *Device) Tip() *signal.Bits {
	if d.fault != FaultRegisteredTip {
		d.compare()
	}
	return d.tip
}

// Sip returns the software interrupt outputs.
func (d *Device) Sip() *signal.Bits {
	for t, v := range d.msip {
		d.sip.Set(t, v&1 != 0)
	}
	return d.sip
}

// Read32 implements bus.Target.
func (d *Device) Read32(addr uint64) (uint32, error) {
	switch {
	case addr == ref.AddrMtime:
		return uint32(d.mtime), nil
	case addr == ref.AddrMtime+4:
		return uint32(d.mtime >> 32), nil
	case addr >= ref.BaseTimecmp:
		if t, hi, ok := d.timecmpReg(addr); ok {
			if hi {
				return uint32(d.timecmp[t] >> 32), nil
			}
			return uint32(d.timecmp[t]), nil
		}
	default:
		if t := int(addr / 4); t < d.cfg.Targets {
			return d.msip[t], nil
		}
	}
	return 0, fmt.Errorf("read 0x%x: %w", addr, bus.ErrUnmapped)
}

// Write32 implements bus.Target.
func (d *Device) Write32(addr uint64, v uint32) error {
	switch {
	case addr == ref.AddrMtime:
		d.mtime = d.mtime&^0xffffffff | uint64(v)
		return nil
	case addr == ref.AddrMtime+4:
		if d.fault == FaultLateHigh {
			d.pendingHigh = &v
			return nil
		}
		d.mtime = uint64(v)<<32 | d.mtime&0xffffffff
		return nil
	case addr >= ref.BaseTimecmp:
		if t, hi, ok := d.timecmpReg(addr); ok {
			if hi {
				d.timecmp[t] = uint64(v)<<32 | d.timecmp[t]&0xffffffff
			} else {
				d.timecmp[t] = d.timecmp[t]&^0xffffffff | uint64(v)
			}
			return nil
		}
	default:
		if t := int(addr / 4); t < d.cfg.Targets {
			if d.fault != FaultWideMsip {
				v &= 1
			}
			d.msip[t] = v
			return nil
		}
	}
	return fmt.Errorf("write 0x%x: %w", addr, bus.ErrUnmapped)
}

func (d *Device) timecmpReg(addr uint64) (int, bool, bool) {
	off := addr - ref.BaseTimecmp
	t := int(off / 8)
	return t, off%8 == 4, t < d.cfg.Targets
}
