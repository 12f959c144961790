package clint_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rvbench/bus"
	"github.com/sarchlab/rvbench/clint"
	hw "github.com/sarchlab/rvbench/hw/clint"
)

var _ = Describe("Device", func() {
	var dev *hw.Device

	cfg := clint.Config{Targets: 4, ClearBound: 4, MtimeRate: 1}

	write := func(addr uint64, v uint32) {
		Expect(dev.Write32(addr, v)).To(Succeed())
	}
	read := func(addr uint64) uint32 {
		v, err := dev.Read32(addr)
		Expect(err).ToNot(HaveOccurred())
		return v
	}

	BeforeEach(func() {
		dev = hw.New(cfg, hw.FaultNone)
	})

	It("should count once per edge", func() {
		dev.Step()
		dev.Step()
		Expect(read(clint.AddrMtime)).To(Equal(uint32(2)))
		Expect(read(clint.AddrMtime + 4)).To(BeZero())
	})

	It("should carry into the high half", func() {
		write(clint.AddrMtime, 0xffffffff)
		dev.Step()
		Expect(read(clint.AddrMtime)).To(BeZero())
		Expect(read(clint.AddrMtime + 4)).To(Equal(uint32(1)))
	})

	It("should drive tip from the comparator without an edge", func() {
		Expect(dev.Tip().Any()).To(BeFalse())

		write(clint.TimecmpAddr(2), 5)
		write(clint.TimecmpAddr(2)+4, 0)
		Expect(dev.Tip().Get(2)).To(BeFalse())

		write(clint.AddrMtime, 5)
		Expect(dev.Tip().Get(2)).To(BeTrue())
		Expect(dev.Tip().Get(1)).To(BeFalse())
	})

	It("should keep only bit 0 of msip", func() {
		write(clint.MsipAddr(3), 0xfffffffe)
		Expect(read(clint.MsipAddr(3))).To(BeZero())
		write(clint.MsipAddr(3), 0x3)
		Expect(read(clint.MsipAddr(3))).To(Equal(uint32(1)))
		Expect(dev.Sip().Get(3)).To(BeTrue())
	})

	It("should reset compare registers to their maximum", func() {
		Expect(read(clint.TimecmpAddr(0))).To(Equal(uint32(0xffffffff)))
		Expect(read(clint.TimecmpAddr(0) + 4)).To(Equal(uint32(0xffffffff)))
	})

	It("should reject unmapped addresses", func() {
		_, err := dev.Read32(clint.MsipAddr(4))
		Expect(err).To(MatchError(bus.ErrUnmapped))
		Expect(dev.Write32(clint.TimecmpAddr(4), 0)).To(MatchError(bus.ErrUnmapped))
	})

	It("should land the high half late when faulty", func() {
		dev = hw.New(cfg, hw.FaultLateHigh)
		write(clint.AddrMtime+4, 7)
		Expect(read(clint.AddrMtime + 4)).To(BeZero())
		dev.Step()
		Expect(read(clint.AddrMtime + 4)).To(Equal(uint32(7)))
	})
})
