package clint

import (
	"fmt"

	"github.com/sarchlab/rvbench/bus"
)

// Register block layout.
const (
	BaseTimecmp uint64 = 0x4000
	AddrMtime   uint64 = 0xBFF8
)

// MsipAddr returns the address of the software interrupt register of t.
func MsipAddr(t int) uint64 {
	return uint64(t) * 4
}

// TimecmpAddr returns the address of the low half of timecmp[t]. The high
// half follows at +4.
func TimecmpAddr(t int) uint64 {
	return BaseTimecmp + uint64(t)*8
}

// RegisterMap lists every 32-bit register of a timer block with the given
// shape.
func RegisterMap(cfg Config) []bus.Register {
	var regs []bus.Register
	for t := 0; t < cfg.Targets; t++ {
		regs = append(regs, bus.Register{Addr: MsipAddr(t), Name: fmt.Sprintf("msip[%d]", t)})
	}
	for t := 0; t < cfg.Targets; t++ {
		regs = append(regs,
			bus.Register{Addr: TimecmpAddr(t), Name: fmt.Sprintf("timecmp[%d].lo", t)},
			bus.Register{Addr: TimecmpAddr(t) + 4, Name: fmt.Sprintf("timecmp[%d].hi", t)},
		)
	}
	return append(regs,
		bus.Register{Addr: AddrMtime, Name: "mtime.lo"},
		bus.Register{Addr: AddrMtime + 4, Name: "mtime.hi"},
	)
}
