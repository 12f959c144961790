package plic_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rvbench/plic"
)

var _ = Describe("Address map", func() {
	It("should place registers at their documented offsets", func() {
		Expect(plic.PriorityAddr(5)).To(Equal(uint64(0x14)))
		Expect(plic.PendingAddr(3)).To(Equal(uint64(0x100c)))
		Expect(plic.EnableAddr(2, 1)).To(Equal(uint64(0x2104)))
		Expect(plic.ThresholdAddr(3)).To(Equal(uint64(0x203000)))
		Expect(plic.ClaimAddr(3)).To(Equal(uint64(0x203004)))
	})

	It("should give every target of a 128-target controller its own enable bank", func() {
		seen := map[uint64]int{}
		for t := 0; t < 128; t++ {
			for w := 0; w < 4; w++ {
				addr := plic.EnableAddr(t, w)
				Expect(seen).ToNot(HaveKey(addr), "target %d word %d", t, w)
				Expect(addr).To(BeNumerically("<", plic.BaseContext))
				seen[addr] = t
			}
		}
		Expect(plic.EnableAddr(78, 0)).To(Equal(uint64(0x4700)))
		Expect(plic.EnableAddr(14, 0)).To(Equal(uint64(0x2700)))
	})

	It("should list every register once", func() {
		cfg := plic.Config{Sources: 40, Targets: 2, MaxPrio: 3}
		regs := plic.RegisterMap(cfg)
		Expect(regs).To(HaveLen(40 + 2 + 2*2 + 2*2))

		seen := map[uint64]bool{}
		for _, r := range regs {
			Expect(seen).ToNot(HaveKey(r.Addr), r.Name)
			seen[r.Addr] = true
		}
	})

	DescribeTable("config validation",
		func(cfg plic.Config, ok bool) {
			if ok {
				Expect(cfg.Validate()).To(Succeed())
			} else {
				Expect(cfg.Validate()).ToNot(Succeed())
			}
		},
		Entry("default", plic.DefaultConfig(), true),
		Entry("single source", plic.Config{Sources: 1, Targets: 1, MaxPrio: 3}, false),
		Entry("no targets", plic.Config{Sources: 8, MaxPrio: 3}, false),
		Entry("sparse priority mask", plic.Config{Sources: 8, Targets: 1, MaxPrio: 5}, false),
		Entry("too many targets", plic.Config{Sources: 8, Targets: 0x4000, MaxPrio: 3}, false),
	)
})
