package rvee

import (
	"fmt"

	"github.com/sarchlab/rvbench/bench"
)

type driveState int

const (
	driveIdle driveState = iota
	driveValid
	driveCommitted
)

// driver feeds generated payloads into a stage input. A payload is held
// valid until the stage reports ready, which commits it at the next edge.
type driver[T any] struct {
	in    Input[T]
	rng   *bench.Rand
	mask  uint32
	delay bench.Delay
	state driveState
	last  T

	gen func(cycle uint64) (T, error)
}

func (d *driver[T]) tick(cycle uint64) error {
	if d.state == driveCommitted {
		d.in.SetInput(d.last, false)
		d.delay.Start(d.rng.Masked(d.mask))
		d.state = driveIdle
	}

	if d.state == driveIdle {
		if !d.delay.Tick() {
			return nil
		}
		p, err := d.gen(cycle)
		if err != nil {
			return err
		}
		d.last = p
		d.in.SetInput(p, true)
		d.state = driveValid
	}

	if d.in.Ready() {
		d.state = driveCommitted
	}
	return nil
}

// sink drains a stage output with random ready gaps. Every transfer is
// handed to verify on the cycle it commits.
type sink[T comparable] struct {
	name  string
	out   Output[T]
	hs    *bench.Handshake[T]
	rng   *bench.Rand
	gap   func() uint32
	delay bench.Delay

	// idle counts cycles without a transfer while work is expected.
	idle  uint64
	limit uint64

	pending func() bool
	verify  func(cycle uint64, p T) error
}

func newSink[T comparable](name string, out Output[T], rng *bench.Rand, limit uint64) *sink[T] {
	return &sink[T]{
		name:  name,
		out:   out,
		hs:    bench.NewHandshake[T](name),
		rng:   rng,
		limit: limit,
	}
}

// tick samples the output, decides ready for the coming edge and verifies
// a committing transfer. It reports whether a transfer commits.
func (s *sink[T]) tick(cycle uint64) (bool, error) {
	p, valid := s.out.Out()
	ready := s.delay.Tick()

	ok, err := s.hs.Observe(cycle, valid, ready, p)
	if err != nil {
		return false, err
	}
	s.out.SetReady(ready)

	if !ok {
		if s.pending != nil && s.pending() {
			s.idle++
			if s.idle > s.limit {
				return false, bench.Desync(cycle,
					fmt.Sprintf("%s: no transfer for %d cycles", s.name, s.limit), nil)
			}
		}
		return false, nil
	}

	s.idle = 0
	s.delay.Start(s.gap())
	return true, s.verify(cycle, p)
}
