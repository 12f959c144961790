package bench_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rvbench/bench"
)

type entry struct {
	pc    uint32
	stale bool
}

var _ = Describe("MatchQueue", func() {
	var q *bench.MatchQueue[entry]

	BeforeEach(func() {
		q = bench.NewMatchQueue[entry]("InstQueue", 4)
	})

	It("should keep issue order", func() {
		for i := uint32(0); i < 3; i++ {
			Expect(q.Push(1, entry{pc: i * 4})).To(Succeed())
		}
		Expect(q.Len()).To(Equal(3))

		head, ok := q.Peek()
		Expect(ok).To(BeTrue())
		Expect(head.pc).To(Equal(uint32(0)))

		for i := uint32(0); i < 3; i++ {
			p, err := q.Pop(2)
			Expect(err).ToNot(HaveOccurred())
			Expect(p.pc).To(Equal(i * 4))
		}
	})

	It("should report underflow as a desync", func() {
		_, err := q.Pop(9)
		Expect(errors.Is(err, bench.ErrDesync)).To(BeTrue())

		var de *bench.DesyncError
		Expect(errors.As(err, &de)).To(BeTrue())
		Expect(de.Cycle).To(Equal(uint64(9)))
		Expect(de.Reason).To(ContainSubstring("InstQueue underflow"))
	})

	It("should report overflow as a desync", func() {
		for i := 0; i < 4; i++ {
			Expect(q.Push(1, entry{})).To(Succeed())
		}
		Expect(q.Push(1, entry{})).To(MatchError(bench.ErrDesync))
	})

	Context("draining stale entries", func() {
		BeforeEach(func() {
			for _, pc := range []uint32{0x10, 0x14, 0x18, 0x200} {
				Expect(q.Push(1, entry{pc: pc})).To(Succeed())
			}
		})

		It("should drop entries until the target is at the head", func() {
			p, dropped, err := q.PopUntil(5, 3, func(e entry) bool { return e.pc == 0x200 })
			Expect(err).ToNot(HaveOccurred())
			Expect(p.pc).To(Equal(uint32(0x200)))
			Expect(dropped).To(Equal(3))
			Expect(q.Len()).To(Equal(0))
		})

		It("should fail when the drain depth is exceeded", func() {
			_, _, err := q.PopUntil(5, 2, func(e entry) bool { return e.pc == 0x200 })
			Expect(err).To(MatchError(bench.ErrDesync))
			Expect(err.Error()).To(ContainSubstring("exceeded depth 2"))
		})

		It("should fail when the target never arrives", func() {
			_, _, err := q.PopUntil(5, 10, func(e entry) bool { return e.pc == 0x400 })
			Expect(err).To(MatchError(bench.ErrDesync))
			Expect(err.Error()).To(ContainSubstring("underflow"))
		})
	})

	It("should drop only marked entries", func() {
		Expect(q.Push(1, entry{pc: 4, stale: true})).To(Succeed())
		Expect(q.Push(1, entry{pc: 8})).To(Succeed())

		n, err := q.DropWhile(2, 1, func(e entry) bool { return e.stale })
		Expect(err).ToNot(HaveOccurred())
		Expect(n).To(Equal(1))

		head, _ := q.Peek()
		Expect(head.pc).To(Equal(uint32(8)))
	})

	It("should bound DropWhile", func() {
		Expect(q.Push(1, entry{stale: true})).To(Succeed())
		Expect(q.Push(1, entry{stale: true})).To(Succeed())

		_, err := q.DropWhile(2, 1, func(e entry) bool { return e.stale })
		Expect(err).To(MatchError(bench.ErrDesync))
	})
})
