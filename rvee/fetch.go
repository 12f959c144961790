package rvee

import (
	"fmt"

	"github.com/sarchlab/rvbench/bench"
)

// RedirectOdds is the inverse probability of a redirect after an accepted
// instruction.
const RedirectOdds = 32

// FetchBench serves the instruction port of a fetch stage with random
// words and checks that the stage delivers them in program order.
//
// After an accepted instruction the checker may pulse a redirect to a
// random address. Words fetched on the old path are dropped from the
// match queue and the next accepted instruction must be the target.
type FetchBench struct {
	base
	dev   FetchDevice
	queue *bench.MatchQueue[FetchOut]
	sink  *sink[FetchOut]

	serving bool
	latency bench.Delay

	prevPC     uint32
	redirect   bool
	pulse      bool
	dest       uint32
	expectDest bool
}

// NewFetchBench creates a bench for dev seeded with seed.
func NewFetchBench(cfg Config, dev FetchDevice, seed uint64, opts ...Option) *FetchBench {
	b := &FetchBench{
		base:   newBase(cfg, seed, opts),
		dev:    dev,
		queue:  bench.NewMatchQueue[FetchOut]("FetchQueue", cfg.QueueDepth),
		prevPC: cfg.ResetVector - 4,
	}
	b.sink = newSink[FetchOut]("fetch output", dev, b.rng, cfg.StallLimit)
	b.sink.gap = func() uint32 { return b.rng.Masked(cfg.DelayMask&0xf) + 1 }
	b.sink.pending = func() bool { return true }
	b.sink.verify = b.verify
	return b
}

// Tick serves the port, then drains the stage output.
func (b *FetchBench) Tick(cycle uint64) error {
	if err := b.serve(cycle); err != nil {
		return err
	}

	if b.pulse {
		b.dev.SetRedirect(Redirect{})
		b.pulse = false
	}

	transferred, err := b.sink.tick(cycle)
	if err != nil {
		return err
	}

	// The redirect goes out while ready is low, so the instruction
	// presented in the meantime is never accepted.
	if b.redirect && !transferred {
		b.issueRedirect(cycle)
	}
	return nil
}

func (b *FetchBench) serve(cycle uint64) error {
	req, ok := b.dev.Port().Outstanding()
	if !ok {
		return nil
	}

	if !b.serving {
		if req.Write || req.Size != 4 {
			return &bench.Divergence{
				Check:    "ifetch request",
				Cycle:    cycle,
				Expected: "4-byte read",
				Observed: fmt.Sprintf("%d-byte write=%t", req.Size, req.Write),
				Context:  []any{"addr", fmt.Sprintf("0x%08x", req.Addr)},
			}
		}
		b.serving = true
		b.latency.Start(b.rng.Masked(0xf))
	}
	if !b.latency.Tick() {
		return nil
	}

	iw := b.rng.Uint32()
	if err := b.dev.Port().Complete(iw); err != nil {
		return bench.Desync(cycle, "ifetch response", err)
	}
	b.serving = false
	b.stats.Rounds++
	return b.queue.Push(cycle, FetchOut{PC: uint32(req.Addr), IW: iw})
}

func (b *FetchBench) verify(cycle uint64, p FetchOut) error {
	var want FetchOut
	if b.expectDest {
		e, dropped, err := b.queue.PopUntil(cycle, b.cfg.DrainDepth, func(e FetchOut) bool {
			return e.PC == b.dest
		})
		if err != nil {
			return err
		}
		b.stats.Drained += uint64(dropped)
		if err := bench.ExpectHex(cycle, "redirect target", b.dest, p.PC,
			"dropped", dropped); err != nil {
			return err
		}
		b.expectDest = false
		want = e
	} else {
		e, err := b.queue.Pop(cycle)
		if err != nil {
			return err
		}
		if err := bench.ExpectHex(cycle, "fetch pc", b.prevPC+4, p.PC); err != nil {
			return err
		}
		want = e
	}

	if err := bench.ExpectFields(cycle, "fetch", want, p); err != nil {
		return err
	}
	b.stats.Checks++
	b.stats.Transfers++
	b.prevPC = p.PC
	b.logger.Debug("fetch", "cycle", cycle, "pc", fmt.Sprintf("0x%08x", p.PC))

	b.redirect = b.rng.OneIn(RedirectOdds)
	return nil
}

func (b *FetchBench) issueRedirect(cycle uint64) {
	// Keep the target clear of the addresses still in flight on the old
	// path.
	dest := b.rng.Uint32() &^ 3
	for dest-b.prevPC-1 < 64 {
		dest = b.rng.Uint32() &^ 3
	}

	b.dev.SetRedirect(Redirect{Jmp: true, Base: dest})
	b.sink.hs.Flush()
	b.redirect = false
	b.pulse = true
	b.dest = dest
	b.expectDest = true
	b.logger.Debug("redirect", "cycle", cycle, "dest", fmt.Sprintf("0x%08x", dest))
}
