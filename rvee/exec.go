package rvee

import (
	"fmt"

	"github.com/sarchlab/rvbench/bench"
	"github.com/sarchlab/rvbench/insts"
)

type execEntry struct {
	in    Decoded
	orgB  uint32
	stale bool
}

// corners holds the operand corner cases drawn for one payload.
type corners struct {
	equal       bool
	negated     bool
	complement  bool
	zero, max   [2]bool
	mem, jmpBcc bool
}

// ExecBench feeds decoded payloads with operand corner cases into an
// execute stage. It predicts the ALU result with the reference model and
// checks the redirect of every jump and conditional branch.
//
// The payload that follows a redirect is on the wrong path. The stage
// must squash it and the checker drops its prediction.
type ExecBench struct {
	base
	dev   ExecDevice
	queue *bench.MatchQueue[execEntry]
	drive *driver[Decoded]
	sink  *sink[Executed]

	nextJmpBcc bool
	shadow     bool
}

// NewExecBench creates a bench for dev seeded with seed.
func NewExecBench(cfg Config, dev ExecDevice, seed uint64, opts ...Option) *ExecBench {
	b := &ExecBench{
		base:  newBase(cfg, seed, opts),
		dev:   dev,
		queue: bench.NewMatchQueue[execEntry]("ExecQueue", cfg.QueueDepth),
	}
	b.drive = &driver[Decoded]{in: dev, rng: b.rng, mask: cfg.DelayMask, gen: b.generate}
	b.sink = newSink[Executed]("exec output", dev, b.rng, cfg.StallLimit)
	b.sink.gap = b.gap
	b.sink.pending = b.pending
	b.sink.verify = b.verify
	return b
}

// Tick drives the next payload, then drains the stage output.
func (b *ExecBench) Tick(cycle uint64) error {
	if err := b.drive.tick(cycle); err != nil {
		return err
	}
	_, err := b.sink.tick(cycle)
	return err
}

func (b *ExecBench) pending() bool {
	e, ok := b.queue.Peek()
	return ok && (!e.stale || b.queue.Len() > 1)
}

func (b *ExecBench) operand(i int, c corners) uint32 {
	switch {
	case c.zero[i]:
		return 0
	case c.max[i]:
		return 0xffffffff
	}
	return b.rng.Uint32()
}

func (b *ExecBench) draw() corners {
	c := corners{
		equal:      b.rng.OneIn(8),
		negated:    b.rng.OneIn(8),
		complement: b.rng.OneIn(8),
		mem:        b.rng.OneIn(4),
		jmpBcc:     b.nextJmpBcc,
	}
	for i := range c.zero {
		c.zero[i] = b.rng.OneIn(8)
		c.max[i] = b.rng.OneIn(8)
	}
	b.nextJmpBcc = b.rng.OneIn(8)
	return c
}

// GenerateExec builds a decoded payload the way the decode stage would
// hand it over and returns the second operand before inversion.
func (b *ExecBench) GenerateExec() (Decoded, uint32) {
	c := b.draw()

	d := Decoded{
		PC:      b.rng.Uint32() &^ 3,
		RdWE:    b.rng.Bool(),
		Rd:      uint8(b.rng.Uint32() & 31),
		Op:      insts.AluOp(b.rng.Intn(8)),
		C:       b.rng.Bool(),
		MemSize: uint8(b.rng.Intn(3)),
		MemSext: b.rng.Bool(),
	}
	d.SRA = d.C

	d.A = b.operand(0, c)
	bv := b.operand(1, c)
	switch {
	case c.equal:
		bv = d.A
	case c.negated:
		bv = -d.A
	case c.complement:
		bv = -^d.A
	}
	d.B = bv

	switch {
	case c.mem:
		d.MemLoad = b.rng.Bool()
		d.MemStore = !d.MemLoad
		d.Op = insts.AluADD
		d.JmpBase = b.rng.Uint32()
	case c.jmpBcc:
		d.Jmp = b.rng.Bool()
		d.Bcc = !d.Jmp
		d.JmpBase = d.PC
		if d.Jmp {
			d.JmpOffset = b.rng.Uint32() &^ 1
			d.Op = insts.AluADD
			d.A = d.PC
			d.B = 4
			d.C = false
		} else {
			d.JmpOffset = insts.Sext(13, b.rng.Masked(0x1ffe))
			d.BccN = b.rng.Bool()
			d.Op = []insts.AluOp{insts.AluADD, insts.AluSLT, insts.AluSLTU}[b.rng.Intn(3)]
			d.C = true
		}
	}

	orgB := d.B
	if (d.Bcc && d.Op == insts.AluADD) || d.Op.IsCompare() {
		d.B = ^d.B
		d.C = true
	}
	d.MsbXor = (d.A^orgB)>>31 != 0
	return d, orgB
}

func (b *ExecBench) generate(cycle uint64) (Decoded, error) {
	d, orgB := b.GenerateExec()
	e := execEntry{in: d, orgB: orgB, stale: b.shadow}
	if err := b.queue.Push(cycle, e); err != nil {
		return Decoded{}, err
	}

	b.shadow = !e.stale && Redirects(d, orgB).Jmp
	b.stats.Rounds++
	return d, nil
}

// PredictExec returns the stage output for d.
func PredictExec(cycle uint64, d Decoded, orgB uint32) (Executed, error) {
	res, err := Result(cycle, d, orgB)
	if err != nil {
		return Executed{}, err
	}
	x := Executed{
		PC:       d.PC,
		RdWE:     d.RdWE,
		Rd:       d.Rd,
		Result:   res,
		MemLoad:  d.MemLoad,
		MemStore: d.MemStore,
		MemSize:  d.MemSize,
		MemSext:  d.MemSext,
	}
	if d.MemStore {
		x.MemData = d.JmpBase
	}
	return x, nil
}

func (b *ExecBench) verify(cycle uint64, p Executed) error {
	e, dropped, err := b.queue.PopUntil(cycle, 1, func(e execEntry) bool { return !e.stale })
	if err != nil {
		return err
	}
	b.stats.Drained += uint64(dropped)

	want, err := PredictExec(cycle, e.in, e.orgB)
	if err != nil {
		return err
	}
	got := p
	if !got.MemStore {
		got.MemData = 0
	}
	if err := bench.ExpectFields(cycle, fmt.Sprintf("exec %v", e.in.Op), want, got); err != nil {
		return err
	}

	wantJmp := Redirects(e.in, e.orgB)
	gotJmp := b.dev.Redirect()
	if err := bench.Expect(cycle, "jmp_out", wantJmp.Jmp, gotJmp.Jmp,
		"pc", fmt.Sprintf("0x%08x", e.in.PC), "bcc", e.in.Bcc, "bcc_n", e.in.BccN); err != nil {
		return err
	}
	if wantJmp.Jmp {
		if err := bench.ExpectHex(cycle, "jmp target", wantJmp.Target(), gotJmp.Target()); err != nil {
			return err
		}
	}

	b.stats.Checks++
	b.stats.Transfers++
	b.logger.Debug("exec", "cycle", cycle, "op", e.in.Op, "result", fmt.Sprintf("0x%08x", p.Result),
		"jmp", wantJmp.Jmp)
	return nil
}
