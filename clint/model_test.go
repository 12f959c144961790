package clint_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rvbench/clint"
)

var _ = Describe("Model", func() {
	var m *clint.Model

	BeforeEach(func() {
		m = clint.NewModel(3, 2)
	})

	It("should compare inclusively", func() {
		m.SetTimecmp(0, 10)
		m.SetMtime(9)
		Expect(m.TimerPending(0)).To(BeFalse())
		m.Advance(1)
		Expect(m.Mtime()).To(Equal(uint64(11)))
		Expect(m.TimerPending(0)).To(BeTrue())
		m.SetMtime(10)
		Expect(m.TimerPending(0)).To(BeTrue())
	})

	It("should track targets independently", func() {
		m.SetTimecmp(0, 100)
		m.SetTimecmp(1, 0)
		m.SetTimecmp(2, ^uint64(0))
		m.SetMtime(50)
		Expect(m.TimerPending(0)).To(BeFalse())
		Expect(m.TimerPending(1)).To(BeTrue())
		Expect(m.TimerPending(2)).To(BeFalse())
	})

	It("should keep only bit 0 of msip", func() {
		m.SetMsip(1, 0xdeadbeef)
		Expect(m.Msip(1)).To(Equal(uint32(1)))
		m.SetMsip(1, 0xdeadbeee)
		Expect(m.Msip(1)).To(BeZero())
	})

	It("should lay out registers", func() {
		Expect(clint.MsipAddr(3)).To(Equal(uint64(12)))
		Expect(clint.TimecmpAddr(3)).To(Equal(uint64(0x4018)))
		Expect(clint.RegisterMap(clint.Config{Targets: 2})).To(HaveLen(2 + 4 + 2))
	})

	DescribeTable("config validation",
		func(cfg clint.Config, ok bool) {
			if ok {
				Expect(cfg.Validate()).To(Succeed())
			} else {
				Expect(cfg.Validate()).ToNot(Succeed())
			}
		},
		Entry("default", clint.DefaultConfig(), true),
		Entry("unknown rate", clint.Config{Targets: 1, ClearBound: 4}, true),
		Entry("overlapping mtime", clint.Config{Targets: 4096, ClearBound: 4, MtimeRate: 1}, false),
		Entry("zero bound", clint.Config{Targets: 1, MtimeRate: 0}, false),
		Entry("rate beyond bound", clint.Config{Targets: 1, ClearBound: 4, MtimeRate: 4}, false),
	)
})
