package plic_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rvbench/bench"
	hw "github.com/sarchlab/rvbench/hw/plic"
	"github.com/sarchlab/rvbench/plic"
)

// runRounds clocks b until it completes n rounds or fails.
func runRounds(cfg plic.Config, dev plic.Device, seed uint64, n uint64, limit uint64) (*plic.Bench, error) {
	b := plic.NewBench(cfg, dev, seed)
	clock := bench.NewClock(dev)
	clock.Add(b, bench.TaskFunc(func(uint64) error {
		if b.Stats().Rounds >= n {
			clock.Stop()
		}
		return nil
	}))
	err := clock.Run(context.Background(), limit)
	return b, err
}

var _ = Describe("Bench", func() {
	It("should run 10,000 rounds on a 128x128 controller without divergence", func() {
		cfg := plic.DefaultConfig()
		b, err := runRounds(cfg, hw.New(cfg, hw.FaultNone), 1, 10000, 0)

		Expect(err).ToNot(HaveOccurred())
		st := b.Stats()
		Expect(st.Rounds).To(Equal(uint64(10000)))
		Expect(st.Checks).To(BeNumerically(">", st.Rounds))
		Expect(st.Benign).To(BeNumerically(">", 0))
		Expect(b.Bus().Reads).To(BeNumerically(">", 0))
	})

	It("should raise every non-reserved source over a seeded run", func() {
		cfg := plic.DefaultConfig()
		cfg.Sources = 16
		cfg.Targets = 4
		dev := hw.New(cfg, hw.FaultNone)
		b := plic.NewBench(cfg, dev, 7)

		raised := make([]bool, cfg.Sources)
		clock := bench.NewClock(dev)
		clock.Add(b, bench.TaskFunc(func(uint64) error {
			for s := range raised {
				raised[s] = raised[s] || b.Model().Levels().Get(s)
			}
			if b.Stats().Rounds >= 5000 {
				clock.Stop()
			}
			return nil
		}))

		Expect(clock.Run(context.Background(), 0)).To(Succeed())
		Expect(raised[0]).To(BeFalse())
		for s := 1; s < cfg.Sources; s++ {
			Expect(raised[s]).To(BeTrue(), "source %d", s)
		}
	})

	It("should be reproducible from the seed", func() {
		cfg := plic.Config{Sources: 16, Targets: 4, MaxPrio: 3, DelayMask: 7}
		a, err := runRounds(cfg, hw.New(cfg, hw.FaultNone), 99, 500, 0)
		Expect(err).ToNot(HaveOccurred())
		b, err := runRounds(cfg, hw.New(cfg, hw.FaultNone), 99, 500, 0)
		Expect(err).ToNot(HaveOccurred())
		Expect(a.Stats()).To(Equal(b.Stats()))
		Expect(a.Bus()).To(Equal(b.Bus()))
	})

	DescribeTable("fault detection",
		func(fault hw.Fault) {
			cfg := plic.Config{Sources: 8, Targets: 2, MaxPrio: 3, DelayMask: 3}
			_, err := runRounds(cfg, hw.New(cfg, fault), 5, 1<<40, 500000)

			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, bench.ErrDivergence)).To(BeTrue(), err.Error())
		},
		Entry("highest id tie-break", hw.FaultHighestIDWins),
		Entry("inclusive threshold", hw.FaultThresholdInclusive),
		Entry("completion from any target", hw.FaultCompleteAnyTarget),
	)

	It("should report a device that never raises its outputs", func() {
		cfg := plic.Config{Sources: 8, Targets: 2, MaxPrio: 3, DelayMask: 3}
		_, err := runRounds(cfg, &deafDevice{hw.New(cfg, hw.FaultNone)}, 5, 1<<40, 500000)

		var d *bench.Divergence
		Expect(errors.As(err, &d)).To(BeTrue())
		Expect(d.Check).To(Or(HavePrefix("pending["), HavePrefix("target["), HavePrefix("claim[")))
	})
})

// deafDevice never latches its source lines.
type deafDevice struct {
	*hw.Device
}

func (d *deafDevice) Step() {
	d.Device.Sources().Clear()
	d.Device.Step()
}
