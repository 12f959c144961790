package clint_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/types"

	"github.com/sarchlab/rvbench/bench"
	"github.com/sarchlab/rvbench/clint"
	hw "github.com/sarchlab/rvbench/hw/clint"
)

func runRounds(cfg clint.Config, dev clint.Device, seed, n, limit uint64) (*clint.Bench, error) {
	b := clint.NewBench(cfg, dev, seed)
	clock := bench.NewClock(dev)
	clock.Add(b, bench.TaskFunc(func(uint64) error {
		if b.Stats().Rounds >= n {
			clock.Stop()
		}
		return nil
	}))
	return b, clock.Run(context.Background(), limit)
}

var _ = Describe("Bench", func() {
	It("should verify the default 1024-target block", func() {
		cfg := clint.DefaultConfig()
		cfg.DelayMask = 0xf
		b, err := runRounds(cfg, hw.New(cfg, hw.FaultNone), 1, 500, 0)

		Expect(err).ToNot(HaveOccurred())
		Expect(b.Stats().Rounds).To(Equal(uint64(500)))
		Expect(b.Stats().Checks).To(BeNumerically(">", 1000))
	})

	It("should predict the counter across long delays", func() {
		cfg := clint.Config{Targets: 8, ClearBound: 4, MtimeRate: 1, DelayMask: 0xff}
		b, err := runRounds(cfg, hw.New(cfg, hw.FaultNone), 17, 2000, 0)

		Expect(err).ToNot(HaveOccurred())
		Expect(b.Stats().Rounds).To(Equal(uint64(2000)))
	})

	It("should resynchronize when the rate is unknown", func() {
		cfg := clint.Config{Targets: 8, ClearBound: 4, DelayMask: 0x1f}
		dev := hw.New(clint.Config{Targets: 8, MtimeRate: 3}, hw.FaultNone)
		_, err := runRounds(cfg, dev, 3, 1000, 0)

		Expect(err).ToNot(HaveOccurred())
	})

	It("should catch a counter running at the wrong rate", func() {
		cfg := clint.Config{Targets: 8, ClearBound: 4, MtimeRate: 1, DelayMask: 0x1f}
		dev := hw.New(clint.Config{Targets: 8, MtimeRate: 2}, hw.FaultNone)
		_, err := runRounds(cfg, dev, 3, 1000, 0)

		var d *bench.Divergence
		Expect(errors.As(err, &d)).To(BeTrue())
	})

	DescribeTable("fault detection",
		func(fault hw.Fault, check types.GomegaMatcher) {
			cfg := clint.Config{Targets: 8, ClearBound: 4, MtimeRate: 1, DelayMask: 0x7}
			_, err := runRounds(cfg, hw.New(cfg, fault), 5, 1<<40, 200000)

			var d *bench.Divergence
			Expect(errors.As(err, &d)).To(BeTrue(), "%v", err)
			Expect(d.Check).To(check)
		},
		Entry("transient carry in the clear path", hw.FaultLateHigh,
			Or(HavePrefix("mtime"), HavePrefix("tip["))),
		Entry("registered comparator", hw.FaultRegisteredTip, HavePrefix("tip[")),
		Entry("wide software interrupt", hw.FaultWideMsip, HavePrefix("msip[")),
	)
})
