// Package plic is a behavioral priority interrupt controller. It exposes
// the register map of package plic and latches its source lines and target
// outputs on the clock edge.
package plic

import (
	"fmt"

	"github.com/sarchlab/rvbench/bus"
	ref "github.com/sarchlab/rvbench/plic"
	"github.com/sarchlab/rvbench/signal"
)

// Fault selects an injected design bug.
type Fault int

// Injectable faults.
const (
	FaultNone Fault = iota

	// FaultHighestIDWins resolves equal priorities to the highest id.
	FaultHighestIDWins

	// FaultThresholdInclusive lets a source whose priority equals the
	// threshold win.
	FaultThresholdInclusive

	// FaultCompleteAnyTarget releases a claim completed by any target.
	FaultCompleteAnyTarget
)

var faultNames = map[string]Fault{
	"none":                FaultNone,
	"highest-id":          FaultHighestIDWins,
	"threshold-inclusive": FaultThresholdInclusive,
	"complete-any":        FaultCompleteAnyTarget,
}

// ParseFault maps a fault name to its selector.
func ParseFault(name string) (Fault, error) {
	f, ok := faultNames[name]
	if !ok {
		return FaultNone, fmt.Errorf("plic: unknown fault %q", name)
	}
	return f, nil
}

const noClaim = -1

// Device is a behavioral controller.
type Device struct {
	cfg   ref.Config
	fault Fault

	in      *signal.Bits
	latched *signal.Bits
	out     *signal.Bits

	priority  []uint32
	enable    [][]uint32
	threshold []uint32
	claimedBy []int

	// dirty is set when arbitration inputs changed since the last edge.
	dirty bool
}

// New creates a controller of the given shape.
func New(cfg ref.Config, fault Fault) *Device {
	d := &Device{
		cfg:     cfg,
		fault:   fault,
		in:      signal.NewBits(cfg.Sources),
		latched: signal.NewBits(cfg.Sources),
		out:     signal.NewBits(cfg.Targets),
	}
	d.Reset()
	return d
}

// Reset clears every register and claim.
func (d *Device) Reset() {
	d.in.Clear()
	d.latched.Clear()
	d.out.Clear()
	d.priority = make([]uint32, d.cfg.Sources)
	d.threshold = make([]uint32, d.cfg.Targets)
	d.enable = make([][]uint32, d.cfg.Targets)
	for t := range d.enable {
		d.enable[t] = make([]uint32, ref.Words(d.cfg.Sources))
	}
	d.claimedBy = make([]int, d.cfg.Sources)
	for s := range d.claimedBy {
		d.claimedBy[s] = noClaim
	}
	d.dirty = false
}

// Sources returns the input lines.
func (d *Device) Sources() *signal.Bits {
	return d.in
}

// Targets returns the output lines.
func (d *Device) Targets() *signal.Bits {
	return d.out
}

// Step samples the sources and registers the target outputs.
func (d *Device) Step() {
	if !d.latched.Equal(d.in) {
		d.latched.CopyFrom(d.in)
		d.dirty = true
	}
	if !d.dirty {
		return
	}
	d.dirty = false
	for t := 0; t < d.cfg.Targets; t++ {
		d.out.Set(t, d.winner(t) != 0)
	}
}

func (d *Device) pending(s int) bool {
	return d.latched.Get(s) && d.claimedBy[s] == noClaim
}

func (d *Device) enabled(t, s int) bool {
	return d.enable[t][s/32]&(1<<uint(s%32)) != 0
}

func (d *Device) winner(t int) uint32 {
	id := uint32(0)
	best := d.threshold[t]
	for s := 1; s < d.cfg.Sources; s++ {
		if !d.pending(s) || !d.enabled(t, s) {
			continue
		}
		p := d.priority[s]
		switch {
		case p > best:
		case d.fault == FaultHighestIDWins && id != 0 && p == best:
		case d.fault == FaultThresholdInclusive && id == 0 && p != 0 && p == best:
		default:
			continue
		}
		id = uint32(s)
		best = p
	}
	return id
}

// Read32 implements bus.Target. Reading a claim register claims the
// current winner of that target.
func (d *Device) Read32(addr uint64) (uint32, error) {
	switch {
	case addr < ref.BasePending:
		if s, ok := d.source(addr); ok {
			return d.priority[s], nil
		}
	case addr < ref.BaseEnable:
		w := int(addr-ref.BasePending) / 4
		if w < ref.Words(d.cfg.Sources) {
			var v uint32
			for i := 0; i < 32 && w*32+i < d.cfg.Sources; i++ {
				if d.pending(w*32 + i) {
					v |= 1 << uint(i)
				}
			}
			return v, nil
		}
	case addr < ref.BaseContext:
		if t, w, ok := d.enableWord(addr); ok {
			return d.enable[t][w], nil
		}
	default:
		t, claim, ok := d.context(addr)
		if !ok {
			break
		}
		if !claim {
			return d.threshold[t], nil
		}
		id := d.winner(t)
		if id != 0 {
			d.claimedBy[id] = t
			d.dirty = true
		}
		return id, nil
	}
	return 0, fmt.Errorf("read 0x%x: %w", addr, bus.ErrUnmapped)
}

// Write32 implements bus.Target. Writing a claim register completes the
// source id written.
func (d *Device) Write32(addr uint64, v uint32) error {
	switch {
	case addr < ref.BasePending:
		if s, ok := d.source(addr); ok {
			d.priority[s] = v & d.cfg.MaxPrio
			d.dirty = true
			return nil
		}
	case addr < ref.BaseEnable:
		if int(addr-ref.BasePending)/4 < ref.Words(d.cfg.Sources) {
			// Pending bits are read-only.
			return nil
		}
	case addr < ref.BaseContext:
		if t, w, ok := d.enableWord(addr); ok {
			if rem := d.cfg.Sources - w*32; rem < 32 {
				v &= 1<<uint(rem) - 1
			}
			d.enable[t][w] = v
			d.dirty = true
			return nil
		}
	default:
		t, claim, ok := d.context(addr)
		if !ok {
			break
		}
		if !claim {
			d.threshold[t] = v & d.cfg.MaxPrio
			d.dirty = true
			return nil
		}
		d.complete(int(v), t)
		return nil
	}
	return fmt.Errorf("write 0x%x: %w", addr, bus.ErrUnmapped)
}

func (d *Device) complete(s, t int) {
	if s <= 0 || s >= d.cfg.Sources {
		return
	}
	if d.claimedBy[s] == t || (d.fault == FaultCompleteAnyTarget && d.claimedBy[s] != noClaim) {
		d.claimedBy[s] = noClaim
		d.dirty = true
	}
}

func (d *Device) source(addr uint64) (int, bool) {
	s := int(addr / 4)
	return s, s < d.cfg.Sources
}

func (d *Device) enableWord(addr uint64) (int, int, bool) {
	off := addr - ref.BaseEnable
	t := int(off / ref.EnableStride)
	w := int(off%ref.EnableStride) / 4
	return t, w, t < d.cfg.Targets && w < ref.Words(d.cfg.Sources)
}

func (d *Device) context(addr uint64) (int, bool, bool) {
	off := addr - ref.BaseContext
	t := int(off / ref.ContextStride)
	reg := off % ref.ContextStride
	if t >= d.cfg.Targets || reg > 4 {
		return 0, false, false
	}
	return t, reg == 4, true
}
