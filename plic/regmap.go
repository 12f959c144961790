package plic

import (
	"fmt"

	"github.com/sarchlab/rvbench/bus"
)

// Register block layout.
const (
	BasePending uint64 = 0x1000
	BaseEnable  uint64 = 0x2000
	BaseContext uint64 = 0x200000

	// ContextStride separates the threshold/claim pairs of two targets.
	ContextStride uint64 = 0x1000

	// EnableStride separates the enable banks of two targets.
	EnableStride uint64 = 0x80
)

// PriorityAddr returns the address of priority[src].
func PriorityAddr(src int) uint64 {
	return uint64(src) * 4
}

// PendingAddr returns the address of the pending word holding sources
// [32*w, 32*w+32).
func PendingAddr(w int) uint64 {
	return BasePending + uint64(w)*4
}

// EnableAddr returns the address of enable word w of target t. Banks are
// stacked above BaseEnable, one EnableStride apart.
func EnableAddr(t, w int) uint64 {
	return BaseEnable + uint64(t)*EnableStride + uint64(w)*4
}

// ThresholdAddr returns the address of the threshold register of t.
func ThresholdAddr(t int) uint64 {
	return BaseContext + uint64(t)*ContextStride
}

// ClaimAddr returns the address of the claim/complete register of t.
func ClaimAddr(t int) uint64 {
	return ThresholdAddr(t) + 4
}

// Words returns the number of 32-bit words covering n lines.
func Words(n int) int {
	return (n + 31) / 32
}

// RegisterMap lists every register of a controller with the given shape.
func RegisterMap(cfg Config) []bus.Register {
	var regs []bus.Register
	for s := 0; s < cfg.Sources; s++ {
		regs = append(regs, bus.Register{Addr: PriorityAddr(s), Name: fmt.Sprintf("priority[%d]", s)})
	}
	for w := 0; w < Words(cfg.Sources); w++ {
		regs = append(regs, bus.Register{Addr: PendingAddr(w), Name: fmt.Sprintf("pending[%d]", w)})
	}
	for t := 0; t < cfg.Targets; t++ {
		for w := 0; w < Words(cfg.Sources); w++ {
			regs = append(regs, bus.Register{Addr: EnableAddr(t, w), Name: fmt.Sprintf("enable[%d][%d]", t, w)})
		}
	}
	for t := 0; t < cfg.Targets; t++ {
		regs = append(regs,
			bus.Register{Addr: ThresholdAddr(t), Name: fmt.Sprintf("threshold[%d]", t)},
			bus.Register{Addr: ClaimAddr(t), Name: fmt.Sprintf("claim[%d]", t)},
		)
	}
	return regs
}
