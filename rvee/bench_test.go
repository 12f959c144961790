package rvee_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rvbench/bench"
	hw "github.com/sarchlab/rvbench/hw/rvee"
	"github.com/sarchlab/rvbench/rvee"
)

type stageBench interface {
	bench.Task
	Stats() bench.Stats
}

// runTransfers clocks b until it has verified n transfers or fails.
func runTransfers(dev bench.Device, b stageBench, n, limit uint64) error {
	clock := bench.NewClock(dev)
	clock.Add(b, bench.TaskFunc(func(uint64) error {
		if b.Stats().Transfers >= n {
			clock.Stop()
		}
		return nil
	}))
	return clock.Run(context.Background(), limit)
}

var detected = Or(MatchError(bench.ErrDivergence), MatchError(bench.ErrDesync))

var _ = Describe("FetchBench", func() {
	cfg := rvee.DefaultConfig()

	It("should follow sequential fetch and redirects", func() {
		dev := hw.NewFetch(cfg.ResetVector, hw.FaultNone)
		b := rvee.NewFetchBench(cfg, dev, 1)

		Expect(runTransfers(dev, b, 5000, 0)).To(Succeed())
		st := b.Stats()
		Expect(st.Transfers).To(Equal(uint64(5000)))
		Expect(st.Drained).To(BeNumerically(">", 0))
		Expect(st.Rounds).To(BeNumerically(">=", st.Transfers+st.Drained))
	})

	It("should start at a non-zero reset vector", func() {
		c := cfg
		c.ResetVector = 0x8000_0000
		dev := hw.NewFetch(c.ResetVector, hw.FaultNone)
		Expect(runTransfers(dev, rvee.NewFetchBench(c, dev, 2), 100, 0)).To(Succeed())
	})

	It("should catch a stage that skips the reset vector", func() {
		dev := hw.NewFetch(cfg.ResetVector+4, hw.FaultNone)
		err := runTransfers(dev, rvee.NewFetchBench(cfg, dev, 2), 100, 0)
		Expect(err).To(MatchError(bench.ErrDivergence))
	})

	DescribeTable("fault detection",
		func(fault hw.Fault) {
			dev := hw.NewFetch(cfg.ResetVector, fault)
			err := runTransfers(dev, rvee.NewFetchBench(cfg, dev, 3), 1<<40, 2_000_000)
			Expect(err).To(detected)
		},
		Entry("buffered instruction survives a redirect", hw.FaultFetchNoFlush),
		Entry("in-flight read survives a redirect", hw.FaultFetchKeepStale),
	)
})

var _ = Describe("DecodeBench", func() {
	cfg := rvee.DefaultConfig()

	It("should decode every instruction kind", func() {
		dev := hw.NewDecode(hw.FaultNone)
		b := rvee.NewDecodeBench(cfg, dev, 1)

		Expect(runTransfers(dev, b, 5000, 0)).To(Succeed())
		Expect(b.Stats().Checks).To(Equal(uint64(5000)))
	})

	It("should be reproducible from the seed", func() {
		run := func() bench.Stats {
			dev := hw.NewDecode(hw.FaultNone)
			b := rvee.NewDecodeBench(cfg, dev, 42)
			Expect(runTransfers(dev, b, 1<<40, 20000)).To(Succeed())
			return b.Stats()
		}
		Expect(run()).To(Equal(run()))
	})

	DescribeTable("fault detection",
		func(fault hw.Fault) {
			dev := hw.NewDecode(fault)
			err := runTransfers(dev, rvee.NewDecodeBench(cfg, dev, 3), 1<<40, 2_000_000)
			Expect(err).To(MatchError(bench.ErrDivergence))
		},
		Entry("zero-extended immediates", hw.FaultDecodeNoSext),
		Entry("swapped signed branch sense", hw.FaultDecodeBranchSense),
	)
})

var _ = Describe("ExecBench", func() {
	cfg := rvee.DefaultConfig()

	It("should verify results, redirects and squashes", func() {
		dev := hw.NewExec(hw.FaultNone)
		b := rvee.NewExecBench(cfg, dev, 1)

		Expect(runTransfers(dev, b, 5000, 0)).To(Succeed())
		st := b.Stats()
		Expect(st.Drained).To(BeNumerically(">", 0))
		Expect(st.Rounds).To(BeNumerically(">=", st.Transfers+st.Drained))
	})

	DescribeTable("fault detection",
		func(fault hw.Fault) {
			dev := hw.NewExec(fault)
			err := runTransfers(dev, rvee.NewExecBench(cfg, dev, 3), 1<<40, 2_000_000)
			Expect(err).To(detected)
		},
		Entry("signed compare ignores overflow", hw.FaultExecSltOverflow),
		Entry("wrong-path payload leaks", hw.FaultExecNoSquash),
	)
})

var _ = Describe("MemBench", func() {
	cfg := rvee.DefaultConfig()

	It("should verify accesses and register writes", func() {
		dev := hw.NewMem(hw.FaultNone)
		b := rvee.NewMemBench(cfg, dev, 1)

		Expect(runTransfers(dev, b, 5000, 0)).To(Succeed())
		Expect(b.Stats().Checks).To(BeNumerically(">", 5000))
	})

	DescribeTable("fault detection",
		func(fault hw.Fault) {
			dev := hw.NewMem(fault)
			err := runTransfers(dev, rvee.NewMemBench(cfg, dev, 3), 1<<40, 2_000_000)
			Expect(err).To(MatchError(bench.ErrDivergence))
		},
		Entry("zero-extended loads", hw.FaultMemNoSext),
		Entry("store data in the wrong lane", hw.FaultMemLane),
	)

	It("should report a stage that never writes back", func() {
		dev := &silentMem{hw.NewMem(hw.FaultNone)}
		err := runTransfers(dev, rvee.NewMemBench(cfg, dev, 3), 1<<40, 2_000_000)
		Expect(err).To(MatchError(bench.ErrDesync))
	})
})

// silentMem drops every register write.
type silentMem struct {
	*hw.Mem
}

func (m *silentMem) Writeback() rvee.Writeback {
	return rvee.Writeback{}
}

var _ = Describe("Bench construction", func() {
	cfg := rvee.DefaultConfig()

	It("should build every stage bench with the default config", func() {
		Expect(func() {
			rvee.NewFetchBench(cfg, hw.NewFetch(cfg.ResetVector, hw.FaultNone), 1)
			rvee.NewDecodeBench(cfg, hw.NewDecode(hw.FaultNone), 1)
			rvee.NewExecBench(cfg, hw.NewExec(hw.FaultNone), 1)
			rvee.NewMemBench(cfg, hw.NewMem(hw.FaultNone), 1)
		}).ToNot(Panic())
	})
})
