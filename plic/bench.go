// Package plic verifies priority interrupt arbiters against a reference
// model.
//
// Each round the bench flips independent coins for a priority or enable
// write, a source toggle, a threshold write, a claim and a completion,
// reads back everything it wrote and then checks the asserted output of
// every target on every cycle until the next round.
package plic

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/sarchlab/rvbench/bench"
	"github.com/sarchlab/rvbench/bus"
	"github.com/sarchlab/rvbench/signal"
)

// Device is an arbiter under test.
type Device interface {
	bench.Device
	bus.Target

	// Sources returns the source input lines. The bench drives them; the
	// device samples them at the next edge.
	Sources() *signal.Bits

	// Targets returns the per-target interrupt outputs.
	Targets() *signal.Bits
}

type state int

const (
	stateSetup state = iota
	stateAccess
	stateDelay
)

type round struct {
	doPrio      bool
	doEnable    bool
	doSource    bool
	doThreshold bool
	doClaim     bool
	doComplete  bool

	src       int
	enTarget  int
	enWord    int
	flip      int
	thrTarget int
}

// Bench is the generator and checker of one arbiter run. It is a
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
		model:  NewModel(cfg),
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

// Bus returns the access counters of the register port.
func (b *Bench) Bus() bus.Stats {
	return b.bus.Stats()
}

// Tick checks the outputs latched at the last edge and advances the
// stimulus state machine.
func (b *Bench) Tick(cycle uint64) error {
	if err := b.checkTargets(cycle); err != nil {
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
		if b.round.doSource {
			// The toggled source is sampled at the next edge.
			b.state = stateAccess
			return nil
		}
		fallthrough
	case stateAccess:
		if err := b.access(cycle); err != nil {
			return err
		}
		b.stats.Rounds++
		b.delay.Start(b.rng.Masked(b.cfg.DelayMask))
		b.state = stateDelay
	}
	return nil
}

func (b *Bench) pick(n int) int {
	return b.rng.Intn(n)
}

func (b *Bench) setup(cycle uint64) error {
	r := round{
		doPrio:      b.rng.Bool(),
		doEnable:    b.rng.Bool(),
		doSource:    b.rng.Bool(),
		doThreshold: b.rng.Bool(),
		doClaim:     b.rng.Bool(),
		doComplete:  b.rng.Bool(),
	}

	switch {
	case r.doPrio:
		r.src = b.pick(b.cfg.Sources)
		wdata := b.rng.Uint32()
		if err := b.write(cycle, PriorityAddr(r.src), wdata); err != nil {
			return err
		}
		b.model.SetPriority(r.src, wdata)
		b.logger.Debug("priority", "cycle", cycle, "src", r.src, "prio", b.model.Priority(r.src))
	case r.doEnable:
		r.enTarget = b.pick(b.cfg.Targets)
		r.enWord = b.pick(b.cfg.Sources) / 32
		wdata := b.rng.Uint32()
		if err := b.write(cycle, EnableAddr(r.enTarget, r.enWord), wdata); err != nil {
			return err
		}
		b.model.SetEnableWord(r.enTarget, r.enWord, wdata)
		b.logger.Debug("enable", "cycle", cycle, "target", r.enTarget, "word", r.enWord,
			"wdata", fmt.Sprintf("0x%08x", wdata))
	}

	if r.doSource {
		// Source 0 is reserved and never raised.
		r.flip = b.pick(b.cfg.Sources)
		if r.flip == 0 {
			r.flip = 1
		}
		b.model.ToggleSource(r.flip)
		b.dev.Sources().CopyFrom(b.model.Levels())
		b.logger.Debug("source", "cycle", cycle, "src", r.flip, "level", b.model.Levels().Get(r.flip))
	}

	b.round = r
	return nil
}

func (b *Bench) access(cycle uint64) error {
	r := &b.round

	if r.doThreshold {
		r.thrTarget = b.pick(b.cfg.Targets)
		wdata := b.rng.Uint32()
		if err := b.write(cycle, ThresholdAddr(r.thrTarget), wdata); err != nil {
			return err
		}
		b.model.SetThreshold(r.thrTarget, wdata)
		b.logger.Debug("threshold", "cycle", cycle, "target", r.thrTarget,
			"threshold", b.model.Threshold(r.thrTarget))
	}

	if r.doClaim {
		t := b.pick(b.cfg.Targets)
		id, err := b.read(cycle, ClaimAddr(t))
		if err != nil {
			return err
		}
		if err := b.model.Claim(cycle, t, id); err != nil {
			return err
		}
		b.stats.Checks++
		b.logger.Debug("claim", "cycle", cycle, "target", t, "id", id)
	}

	if r.doComplete {
		src := b.pick(b.cfg.Sources)
		t := b.pick(b.cfg.Targets)
		if err := b.write(cycle, ClaimAddr(t), uint32(src)); err != nil {
			return err
		}
		if !b.model.Complete(src, t) {
			b.stats.Benign++
			holder, held := b.model.ClaimedBy(src)
			b.logger.Warn("completion for a source not claimed by the target",
				"cycle", cycle, "src", src, "target", t, "held", held, "holder", holder)
		} else {
			b.logger.Debug("complete", "cycle", cycle, "src", src, "target", t)
		}
	}

	return b.readback(cycle)
}

// readback verifies every register written this round.
func (b *Bench) readback(cycle uint64) error {
	r := &b.round

	switch {
	case r.doPrio:
		if err := b.expectReg(cycle, PriorityAddr(r.src),
			fmt.Sprintf("priority[%d]", r.src), b.model.Priority(r.src)); err != nil {
			return err
		}
	case r.doEnable:
		if err := b.expectReg(cycle, EnableAddr(r.enTarget, r.enWord),
			fmt.Sprintf("enable[%d][%d]", r.enTarget, r.enWord),
			b.model.EnableWord(r.enTarget, r.enWord)); err != nil {
			return err
		}
	}

	if r.doThreshold {
		if err := b.expectReg(cycle, ThresholdAddr(r.thrTarget),
			fmt.Sprintf("threshold[%d]", r.thrTarget), b.model.Threshold(r.thrTarget)); err != nil {
			return err
		}
	}

	if r.doSource {
		w := r.flip / 32
		rdata, err := b.read(cycle, PendingAddr(w))
		if err != nil {
			return err
		}
		bit := uint(r.flip % 32)
		holder, held := b.model.ClaimedBy(r.flip)
		if err := bench.Expect(cycle, fmt.Sprintf("pending[%d]", r.flip),
			b.model.IsPending(r.flip), rdata&(1<<bit) != 0,
			"level", b.model.Levels().Get(r.flip),
			"claimed", held,
			"holder", holder,
			"word", fmt.Sprintf("0x%08x", rdata),
		); err != nil {
			return err
		}
		b.stats.Checks++
	}
	return nil
}

// checkTargets asserts winner(t) != 0 exactly when target t is raised, for
// every target.
func (b *Bench) checkTargets(cycle uint64) error {
	out := b.dev.Targets()
	for t := 0; t < b.cfg.Targets; t++ {
		w := b.model.Winner(t)
		if (w != 0) == out.Get(t) {
			continue
		}
		return bench.Expect(cycle, fmt.Sprintf("target[%d]", t), w != 0, out.Get(t),
			"winner", w,
			"threshold", b.model.Threshold(t),
			"sources", b.model.Levels(),
		)
	}
	b.stats.Checks++
	return nil
}

func (b *Bench) expectReg(cycle uint64, addr uint64, name string, want uint32) error {
	got, err := b.read(cycle, addr)
	if err != nil {
		return err
	}
	if err := bench.ExpectHex(cycle, name, want, got, "addr", fmt.Sprintf("0x%x", addr)); err != nil {
		return err
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

func (b *Bench) write(cycle uint64, addr uint64, v uint32) error {
	if err := b.bus.Write32(addr, v); err != nil {
		return bench.Desync(cycle, fmt.Sprintf("write 0x%x", addr), err)
	}
	return nil
}
