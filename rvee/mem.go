package rvee

import (
	"fmt"

	"github.com/sarchlab/rvbench/bench"
	"github.com/sarchlab/rvbench/bus"
	"github.com/sarchlab/rvbench/insts"
)

// MemBench feeds executed payloads into a memory stage, serves its data
// port and checks every register write it pulses.
//
// Memory payloads are checked twice: the bus request against the address,
// direction, size and store lanes, and for loads the written value after
// lane selection, masking and sign extension.
type MemBench struct {
	base
	dev   MemDevice
	mem   *bench.MatchQueue[Executed]
	wb    *bench.MatchQueue[Writeback]
	drive *driver[Executed]

	serving bool
	latency bench.Delay
	rdata   uint32
	idle    uint64
}

// NewMemBench creates a bench for dev seeded with seed.
func NewMemBench(cfg Config, dev MemDevice, seed uint64, opts ...Option) *MemBench {
	b := &MemBench{
		base: newBase(cfg, seed, opts),
		dev:  dev,
		mem:  bench.NewMatchQueue[Executed]("MemQueue", cfg.QueueDepth),
		wb:   bench.NewMatchQueue[Writeback]("WritebackQueue", cfg.QueueDepth),
	}
	b.drive = &driver[Executed]{in: dev, rng: b.rng, mask: cfg.DelayMask, gen: b.generate}
	return b
}

// Tick drives the next payload, serves the port and checks the write port.
func (b *MemBench) Tick(cycle uint64) error {
	if err := b.checkWriteback(cycle); err != nil {
		return err
	}
	if err := b.drive.tick(cycle); err != nil {
		return err
	}
	return b.serve(cycle)
}

// GenerateMem builds a random executed payload. Memory operations are
// aligned to their size and stay clear of the tag bits.
func (b *MemBench) GenerateMem() Executed {
	x := Executed{
		PC:     b.rng.Uint32() &^ 3,
		RdWE:   b.rng.Bool(),
		Rd:     uint8(b.rng.Uint32() & 31),
		Result: b.rng.Uint32(),
	}
	if b.rng.Uint32()&7 <= 2 {
		return x
	}

	x.RdWE = false
	x.MemData = b.rng.Uint32()
	x.MemLoad = b.rng.Bool()
	x.MemStore = !x.MemLoad
	x.MemSize = uint8(b.rng.Intn(3))
	x.MemSext = x.MemLoad && b.rng.Bool()
	x.Result &^= b.cfg.TagMask
	x.Result &^= 1<<x.MemSize - 1
	return x
}

// PredictWriteback returns the register write x causes, if any.
func PredictWriteback(x Executed) (Writeback, bool) {
	switch {
	case x.MemLoad:
		v := x.MemData & insts.SizeMask(x.MemSize)
		if x.MemSext {
			v = insts.Sext(8<<x.MemSize, v)
		}
		return Writeback{RdWE: true, Rd: x.Rd, Data: v}, true
	case x.RdWE:
		return Writeback{RdWE: true, Rd: x.Rd, Data: x.Result}, true
	}
	return Writeback{}, false
}

func (b *MemBench) generate(cycle uint64) (Executed, error) {
	x := b.GenerateMem()
	if x.MemLoad || x.MemStore {
		if err := b.mem.Push(cycle, x); err != nil {
			return Executed{}, err
		}
	}
	if w, ok := PredictWriteback(x); ok {
		if err := b.wb.Push(cycle, w); err != nil {
			return Executed{}, err
		}
	}
	b.stats.Rounds++
	return x, nil
}

// laneMask expands a byte enable into a data mask.
func laneMask(be uint8) uint32 {
	var m uint32
	for i := 0; i < 4; i++ {
		if be&(1<<i) != 0 {
			m |= 0xff << (8 * i)
		}
	}
	return m
}

func (b *MemBench) serve(cycle uint64) error {
	req, ok := b.dev.Port().Outstanding()
	if !ok {
		return nil
	}

	if !b.serving {
		x, err := b.mem.Pop(cycle)
		if err != nil {
			return err
		}
		if err := b.checkRequest(cycle, x, req); err != nil {
			return err
		}
		b.idle = 0
		lane := x.Result & 3
		b.rdata = 0
		if x.MemLoad {
			b.rdata = x.MemData << (8 * lane)
		}
		b.serving = true
		b.latency.Start(b.rng.Masked(b.cfg.DelayMask))
	}
	if !b.latency.Tick() {
		return nil
	}

	if err := b.dev.Port().Complete(b.rdata); err != nil {
		return bench.Desync(cycle, "data response", err)
	}
	b.serving = false
	return nil
}

func (b *MemBench) checkRequest(cycle uint64, x Executed, req bus.Request) error {
	kv := []any{"pc", fmt.Sprintf("0x%08x", x.PC), "result", fmt.Sprintf("0x%08x", x.Result)}

	if err := bench.ExpectHex(cycle, "mem addr", uint64(x.Result&^3), req.Addr, kv...); err != nil {
		return err
	}
	if err := bench.Expect(cycle, "mem write", x.MemStore, req.Write, kv...); err != nil {
		return err
	}
	if err := bench.Expect(cycle, "mem size", int(1)<<x.MemSize, req.Size, kv...); err != nil {
		return err
	}

	lane := x.Result & 3
	if x.MemStore {
		be := uint8(1<<(1<<x.MemSize)-1) << lane
		if err := bench.Expect(cycle, "mem byte enable", be, req.ByteEnable, kv...); err != nil {
			return err
		}
		data := (req.Data & laneMask(req.ByteEnable)) >> (8 * lane)
		want := x.MemData & insts.SizeMask(x.MemSize)
		if err := bench.ExpectHex(cycle, "mem store data", want, data, kv...); err != nil {
			return err
		}
	}
	b.stats.Checks++
	return nil
}

func (b *MemBench) checkWriteback(cycle uint64) error {
	w := b.dev.Writeback()
	if !w.RdWE {
		if b.wb.Len() > 0 || b.mem.Len() > 0 {
			b.idle++
			if b.idle > b.cfg.StallLimit {
				return bench.Desync(cycle,
					fmt.Sprintf("writeback: no register write for %d cycles", b.cfg.StallLimit), nil)
			}
		}
		return nil
	}
	b.idle = 0

	want, err := b.wb.Pop(cycle)
	if err != nil {
		return err
	}
	if err := bench.ExpectFields(cycle, "writeback", want, w); err != nil {
		return err
	}
	b.stats.Checks++
	b.stats.Transfers++
	b.logger.Debug("writeback", "cycle", cycle, "rd", w.Rd, "data", fmt.Sprintf("0x%08x", w.Data))
	return nil
}
