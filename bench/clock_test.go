package bench_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rvbench/bench"
)

type countingDevice struct {
	resets int
	steps  uint64
	log    *[]string
}

func (d *countingDevice) Reset() {
	d.resets++
	d.steps = 0
}

func (d *countingDevice) Step() {
	d.steps++
	if d.log != nil {
		*d.log = append(*d.log, "step")
	}
}

var _ = Describe("Clock", func() {
	var (
		dev   *countingDevice
		clock *bench.Clock
		order []string
	)

	BeforeEach(func() {
		order = nil
		dev = &countingDevice{log: &order}
		clock = bench.NewClock(dev)
	})

	It("should run to the cycle limit", func() {
		ticks := 0
		clock.Add(bench.TaskFunc(func(cycle uint64) error {
			ticks++
			Expect(cycle).To(Equal(dev.steps))
			return nil
		}))

		Expect(clock.Run(context.Background(), 50)).To(Succeed())
		Expect(dev.resets).To(Equal(1))
		Expect(dev.steps).To(Equal(uint64(50)))
		Expect(ticks).To(Equal(50))
		Expect(clock.Cycle()).To(Equal(uint64(50)))
	})

	It("should step the device before ticking tasks in order", func() {
		clock.Add(
			bench.TaskFunc(func(uint64) error { order = append(order, "a"); return nil }),
			bench.TaskFunc(func(uint64) error { order = append(order, "b"); return nil }),
		)

		Expect(clock.Run(context.Background(), 2)).To(Succeed())
		Expect(order).To(Equal([]string{"step", "a", "b", "step", "a", "b"}))
	})

	It("should stop on the first task error", func() {
		boom := errors.New("boom")
		later := 0
		clock.Add(
			bench.TaskFunc(func(cycle uint64) error {
				if cycle == 7 {
					return boom
				}
				return nil
			}),
			bench.TaskFunc(func(uint64) error { later++; return nil }),
		)

		err := clock.Run(context.Background(), 100)
		Expect(err).To(MatchError(boom))
		Expect(clock.Cycle()).To(Equal(uint64(7)))
		Expect(later).To(Equal(6))
	})

	It("should stop when the context is cancelled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		clock.Add(bench.TaskFunc(func(cycle uint64) error {
			if cycle == 3 {
				cancel()
			}
			return nil
		}))

		err := clock.Run(ctx, 0)
		Expect(err).To(MatchError(context.Canceled))
		Expect(clock.Cycle()).To(Equal(uint64(3)))
	})

	It("should be reusable", func() {
		Expect(clock.Run(context.Background(), 5)).To(Succeed())
		Expect(clock.Run(context.Background(), 5)).To(Succeed())
		Expect(dev.resets).To(Equal(2))
		Expect(dev.steps).To(Equal(uint64(5)))
	})
})

var _ = Describe("Clock stop", func() {
	It("should end the run without error", func() {
		clock := bench.NewClock(&countingDevice{})
		clock.Add(bench.TaskFunc(func(cycle uint64) error {
			if cycle == 4 {
				clock.Stop()
			}
			return nil
		}))

		Expect(clock.Run(context.Background(), 0)).To(Succeed())
		Expect(clock.Cycle()).To(Equal(uint64(4)))
	})
})
