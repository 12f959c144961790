package plic_test

import (
	"errors"
	"math/rand/v2"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rvbench/bench"
	"github.com/sarchlab/rvbench/plic"
)

var _ = Describe("Model", func() {
	var m *plic.Model

	BeforeEach(func() {
		m = plic.NewModel(plic.Config{Sources: 40, Targets: 3, MaxPrio: 3})
	})

	raise := func(src int, prio uint32, targets ...int) {
		m.ToggleSource(src)
		m.SetPriority(src, prio)
		for _, t := range targets {
			m.SetEnableWord(t, src/32, m.EnableWord(t, src/32)|1<<uint(src%32))
		}
	}

	It("should predict no interrupt after reset", func() {
		for t := 0; t < 3; t++ {
			Expect(m.Winner(t)).To(BeZero())
		}
	})

	It("should mask priority and threshold writes", func() {
		m.SetPriority(5, 0xfffffffe)
		m.SetThreshold(1, 0x11)
		Expect(m.Priority(5)).To(Equal(uint32(2)))
		Expect(m.Threshold(1)).To(Equal(uint32(1)))
	})

	It("should keep the last of many priority writes", func() {
		r := rand.New(rand.NewPCG(3, 4))
		var last uint32
		for i := 0; i < 100; i++ {
			last = r.Uint32()
			m.SetPriority(9, last)
		}
		Expect(m.Priority(9)).To(Equal(last & 3))
	})

	It("should pick the highest priority enabled source", func() {
		raise(3, 1, 0)
		raise(34, 3, 0)
		raise(7, 2, 0)
		Expect(m.Winner(0)).To(Equal(uint32(34)))
		Expect(m.Winner(1)).To(BeZero())
	})

	It("should break ties toward the lowest id", func() {
		raise(12, 2, 0)
		raise(4, 2, 0)
		raise(30, 2, 0)
		Expect(m.Winner(0)).To(Equal(uint32(4)))
	})

	It("should require a priority strictly above the threshold", func() {
		raise(6, 2, 2)
		m.SetThreshold(2, 2)
		Expect(m.Winner(2)).To(BeZero())
		m.SetThreshold(2, 1)
		Expect(m.Winner(2)).To(Equal(uint32(6)))
	})

	It("should ignore disabled and lowered sources", func() {
		raise(6, 2)
		Expect(m.Winner(0)).To(BeZero())
		m.SetEnableWord(0, 0, 1<<6)
		Expect(m.Winner(0)).To(Equal(uint32(6)))
		m.ToggleSource(6)
		Expect(m.Winner(0)).To(BeZero())
	})

	It("should pack pending bits per word", func() {
		raise(1, 1)
		raise(33, 1)
		Expect(m.PendingWord(0)).To(Equal(uint32(1 << 1)))
		Expect(m.PendingWord(1)).To(Equal(uint32(1 << 1)))
	})

	Describe("claim and complete", func() {
		BeforeEach(func() {
			raise(8, 3, 0, 1)
			raise(9, 1, 0, 1)
		})

		It("should hand the winner to the claiming target only", func() {
			Expect(m.Claim(1, 0, 8)).To(Succeed())
			t, held := m.ClaimedBy(8)
			Expect(held).To(BeTrue())
			Expect(t).To(Equal(0))
			Expect(m.IsPending(8)).To(BeFalse())
			Expect(m.Winner(0)).To(Equal(uint32(9)))
			Expect(m.Winner(1)).To(Equal(uint32(9)))
		})

		It("should make the source claimable again after completion by the holder", func() {
			Expect(m.Claim(1, 0, 8)).To(Succeed())
			Expect(m.Complete(8, 0)).To(BeTrue())
			Expect(m.IsPending(8)).To(BeTrue())
			Expect(m.Winner(1)).To(Equal(uint32(8)))
		})

		It("should ignore completion from a different target", func() {
			Expect(m.Claim(1, 0, 8)).To(Succeed())
			Expect(m.Complete(8, 1)).To(BeFalse())
			t, held := m.ClaimedBy(8)
			Expect(held).To(BeTrue())
			Expect(t).To(Equal(0))
			Expect(m.Winner(1)).To(Equal(uint32(9)))
		})

		It("should report a wrong claim id as a divergence", func() {
			err := m.Claim(7, 0, 9)
			Expect(errors.Is(err, bench.ErrDivergence)).To(BeTrue())

			var d *bench.Divergence
			Expect(errors.As(err, &d)).To(BeTrue())
			Expect(d.Check).To(Equal("claim[0]"))
			Expect(d.Expected).To(Equal(uint32(8)))
			_, held := m.ClaimedBy(9)
			Expect(held).To(BeFalse())
		})

		It("should claim nothing when there is no winner", func() {
			Expect(m.Claim(1, 2, 0)).To(Succeed())
			Expect(m.Complete(0, 2)).To(BeFalse())
		})
	})
})
