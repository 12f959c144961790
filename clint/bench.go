// Package clint verifies timer/compare interrupt blocks against a
// reference model.
//
// Each round the bench may write one software interrupt register, one
// compare register and the counter. Counter writes follow the
// clear-high, clear-low, read-back, set-high, set-low sequence, which
// exposes a transient carry between the halves. The timer interrupt of
// every target is checked on every cycle and again right after each round
// of writes.
package clint

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/sarchlab/rvbench/bench"
	"github.com/sarchlab/rvbench/bus"
	"github.com/sarchlab/rvbench/signal"
)

// Device is a timer block under test.
type Device interface {
	bench.Device
	bus.Target

	// Tip returns the timer interrupt output of every target.
	Tip() *signal.Bits

	// Sip returns the software interrupt output of every target.
	Sip() *signal.Bits
}

type state int

const (
	stateInit state = iota
	stateSetup
	stateVerify
	stateDelay
)

type round struct {
	doIPI     bool
	doTimecmp bool
	doMtime   bool

	ipiTarget int
	tcTarget  int
}

// Bench is the generator and checker of one timer block run. It is a
// bench.Task.
type Bench struct {
	cfg    Config
	dev    Device
	bus    *bus.Checked
	model  *Model
	rng    *bench.Rand
	logger *slog.Logger

	state state
	round round
	delay bench.Delay
	stats bench.Stats
}

// Option configures a Bench.
type Option func(*Bench)

// WithLogger sets the logger. Rounds log at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bench) {
		b.logger = l
	}
}

// NewBench creates a bench for dev seeded with seed.
func NewBench(cfg Config, dev Device, seed uint64, opts ...Option) *Bench {
	b := &Bench{
		cfg:    cfg,
		dev:    dev,
		bus:    bus.NewChecked(dev),
		model:  NewModel(cfg.Targets, cfg.MtimeRate),
		rng:    bench.NewRand(seed),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Model returns the reference model.
func (b *Bench) Model() *Model {
	return b.model
}

// Stats returns the activity counters.
func (b *Bench) Stats() bench.Stats {
	return b.stats
}

// Tick implements bench.Task.
func (b *Bench) Tick(cycle uint64) error {
	if b.state == stateInit {
		if err := b.init(cycle); err != nil {
			return err
		}
		b.state = stateSetup
	} else if err := b.advance(cycle); err != nil {
		return err
	}

	if err := b.checkOutputs(cycle); err != nil {
		return err
	}

	switch b.state {
	case stateDelay:
		if !b.delay.Tick() {
			return nil
		}
		b.state = stateSetup
		fallthrough
	case stateSetup:
		if err := b.setup(cycle); err != nil {
			return err
		}
		// Outputs must follow the registers without waiting for an edge.
		if err := b.checkOutputs(cycle); err != nil {
			return err
		}
		b.state = stateVerify
	case stateVerify:
		if err := b.verify(cycle); err != nil {
			return err
		}
		b.stats.Rounds++
		b.delay.Start(b.rng.Masked(b.cfg.DelayMask))
		b.state = stateDelay
	}
	return nil
}

// init loads the reset values of the compare registers and the counter.
func (b *Bench) init(cycle uint64) error {
	for t := 0; t < b.cfg.Targets; t++ {
		v, err := b.read64(cycle, TimecmpAddr(t))
		if err != nil {
			return err
		}
		b.model.SetTimecmp(t, v)
	}
	mtime, err := b.read64(cycle, AddrMtime)
	if err != nil {
		return err
	}
	b.model.SetMtime(mtime)
	b.logger.Debug("reset state", "cycle", cycle, "mtime", mtime)
	return nil
}

// advance predicts the counter for the new cycle.
func (b *Bench) advance(cycle uint64) error {
	if b.cfg.MtimeRate != 0 {
		b.model.Advance(1)
		return nil
	}
	mtime, err := b.read64(cycle, AddrMtime)
	if err != nil {
		return err
	}
	b.model.SetMtime(mtime)
	return nil
}

func (b *Bench) setup(cycle uint64) error {
	r := round{
		doIPI:     b.rng.Bool(),
		doTimecmp: b.rng.Bool(),
		doMtime:   b.rng.Bool(),
	}

	if r.doIPI {
		r.ipiTarget = b.rng.Intn(b.cfg.Targets)
		wdata := b.rng.Uint32()
		if err := b.write(cycle, MsipAddr(r.ipiTarget), wdata); err != nil {
			return err
		}
		b.model.SetMsip(r.ipiTarget, wdata)
		b.logger.Debug("ipi", "cycle", cycle, "target", r.ipiTarget, "msip", b.model.Msip(r.ipiTarget))
	}

	if r.doTimecmp {
		r.tcTarget = b.rng.Intn(b.cfg.Targets)
		v := b.rng.Uint64()
		addr := TimecmpAddr(r.tcTarget)
		if err := b.write(cycle, addr, uint32(v)); err != nil {
			return err
		}
		if err := b.write(cycle, addr+4, uint32(v>>32)); err != nil {
			return err
		}
		b.model.SetTimecmp(r.tcTarget, v)
		b.logger.Debug("timecmp", "cycle", cycle, "target", r.tcTarget, "timecmp", fmt.Sprintf("0x%x", v))
	}

	if r.doMtime {
		if err := b.writeMtime(cycle, b.rng.Uint64()); err != nil {
			return err
		}
	}

	b.round = r
	return nil
}

// writeMtime clears the counter, proves the clear did not carry, then sets
// it high half first.
func (b *Bench) writeMtime(cycle uint64, v uint64) error {
	if err := b.write(cycle, AddrMtime+4, 0); err != nil {
		return err
	}
	if err := b.write(cycle, AddrMtime, 0); err != nil {
		return err
	}
	cleared, err := b.read64(cycle, AddrMtime)
	if err != nil {
		return err
	}
	if cleared >= b.cfg.ClearBound {
		return &bench.Divergence{
			Check:    "mtime clear",
			Cycle:    cycle,
			Expected: fmt.Sprintf("< 0x%x", b.cfg.ClearBound),
			Observed: fmt.Sprintf("0x%x", cleared),
			Context:  []any{"previous", fmt.Sprintf("0x%x", b.model.Mtime())},
		}
	}
	b.stats.Checks++

	if err := b.write(cycle, AddrMtime+4, uint32(v>>32)); err != nil {
		return err
	}
	if err := b.write(cycle, AddrMtime, uint32(v)); err != nil {
		return err
	}
	b.model.SetMtime(v)
	b.logger.Debug("mtime", "cycle", cycle, "mtime", fmt.Sprintf("0x%x", v), "cleared", cleared)
	return nil
}

// verify reads back the registers written in the previous cycle.
func (b *Bench) verify(cycle uint64) error {
	r := &b.round

	if r.doIPI {
		t := r.ipiTarget
		rdata, err := b.read(cycle, MsipAddr(t))
		if err != nil {
			return err
		}
		if err := bench.ExpectHex(cycle, fmt.Sprintf("msip[%d]", t), b.model.Msip(t), rdata); err != nil {
			return err
		}
		if err := bench.Expect(cycle, fmt.Sprintf("sip[%d]", t), rdata == 1, b.dev.Sip().Get(t)); err != nil {
			return err
		}
		b.stats.Checks += 2
	}

	if r.doTimecmp {
		t := r.tcTarget
		rdata, err := b.read64(cycle, TimecmpAddr(t))
		if err != nil {
			return err
		}
		if err := bench.ExpectHex(cycle, fmt.Sprintf("timecmp[%d]", t), b.model.Timecmp(t), rdata); err != nil {
			return err
		}
		b.stats.Checks++
	}

	mtime, err := b.read64(cycle, AddrMtime)
	if err != nil {
		return err
	}
	if b.cfg.MtimeRate != 0 {
		if err := bench.ExpectHex(cycle, "mtime", b.model.Mtime(), mtime,
			"rate", b.cfg.MtimeRate, "written", r.doMtime); err != nil {
			return err
		}
		b.stats.Checks++
	}
	return nil
}

// checkOutputs asserts (mtime >= timecmp[t]) == tip(t) and msip[t] == sip(t)
// for every target.
func (b *Bench) checkOutputs(cycle uint64) error {
	tip := b.dev.Tip()
	sip := b.dev.Sip()
	for t := 0; t < b.cfg.Targets; t++ {
		if want := b.model.TimerPending(t); want != tip.Get(t) {
			return bench.Expect(cycle, fmt.Sprintf("tip[%d]", t), want, tip.Get(t),
				"mtime", fmt.Sprintf("0x%x", b.model.Mtime()),
				"timecmp", fmt.Sprintf("0x%x", b.model.Timecmp(t)),
			)
		}
		if want := b.model.Msip(t) == 1; want != sip.Get(t) {
			return bench.Expect(cycle, fmt.Sprintf("sip[%d]", t), want, sip.Get(t))
		}
	}
	b.stats.Checks++
	return nil
}

func (b *Bench) read(cycle uint64, addr uint64) (uint32, error) {
	v, err := b.bus.Read32(addr)
	if err != nil {
		return 0, bench.Desync(cycle, fmt.Sprintf("read 0x%x", addr), err)
	}
	return v, nil
}

func (b *Bench) read64(cycle uint64, addr uint64) (uint64, error) {
	v, err := b.bus.Read64(addr)
	if err != nil {
		return 0, bench.Desync(cycle, fmt.Sprintf("read 0x%x", addr), err)
	}
	return v, nil
}

func (b *Bench) write(cycle uint64, addr uint64, v uint32) error {
	if err := b.bus.Write32(addr, v); err != nil {
		return bench.Desync(cycle, fmt.Sprintf("write 0x%x", addr), err)
	}
	return nil
}
