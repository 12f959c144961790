package rvee

import (
	"github.com/sarchlab/rvbench/bench"
	"github.com/sarchlab/rvbench/insts"
)

// Adder returns a + b + c and the carry out of bit 31.
func Adder(a, b uint32, c bool) (uint32, bool) {
	sum := uint64(a) + uint64(b)
	if c {
		sum++
	}
	return uint32(sum), sum>>32 != 0
}

// LessThan compares the original operands directly.
func LessThan(signed bool, a, orgB uint32) bool {
	if signed {
		return int32(a) < int32(orgB)
	}
	return a < orgB
}

// AdderLessThan derives the compare from the adder the way the execute
// stage does. b must be the inverted second operand with c set.
func AdderLessThan(signed bool, a, b uint32, c, msbXor bool) bool {
	sum, carry := Adder(a, b, c)
	if !signed {
		return !carry
	}
	if msbXor {
		return a>>31 != 0
	}
	return sum>>31 != 0
}

// logic returns the shift and bitwise ops on the prepared operands.
func logic(op insts.AluOp, a, b uint32, sra bool) uint32 {
	sh := b & 31
	switch op {
	case insts.AluSLL:
		return a << sh
	case insts.AluXOR:
		return a ^ b
	case insts.AluSRL:
		if sra {
			return uint32(int32(a) >> sh)
		}
		return a >> sh
	case insts.AluOR:
		return a | b
	case insts.AluAND:
		return a & b
	}
	return 0
}

// Result predicts the ALU output for d, whose second operand before
// inversion was orgB. Compares are evaluated on orgB and cross-checked
// against the adder identity. A disagreement means d was prepared wrong.
func Result(cycle uint64, d Decoded, orgB uint32) (uint32, error) {
	switch d.Op {
	case insts.AluADD:
		sum, _ := Adder(d.A, d.B, d.C)
		return sum, nil
	case insts.AluSLT, insts.AluSLTU:
		signed := d.Op == insts.AluSLT
		lt := LessThan(signed, d.A, orgB)
		hw := AdderLessThan(signed, d.A, d.B, d.C, d.MsbXor)
		if err := bench.Expect(cycle, "compare identity", lt, hw,
			"op", d.Op, "a", d.A, "b", orgB); err != nil {
			return 0, err
		}
		if lt {
			return 1, nil
		}
		return 0, nil
	default:
		return logic(d.Op, d.A, d.B, d.SRA), nil
	}
}

// Taken predicts a conditional branch. Equality is an ADD of the inverted
// operand; the compares branch on a clear flag. BccN inverts the outcome.
func Taken(d Decoded, orgB uint32) bool {
	var t bool
	switch d.Op {
	case insts.AluADD:
		t = d.A == orgB
	case insts.AluSLT, insts.AluSLTU:
		t = !LessThan(d.Op == insts.AluSLT, d.A, orgB)
	}
	return t != d.BccN
}

// Redirects reports whether d changes the flow and where to.
func Redirects(d Decoded, orgB uint32) Redirect {
	if d.Jmp || (d.Bcc && Taken(d, orgB)) {
		return Redirect{Jmp: true, Base: d.JmpBase, Offset: d.JmpOffset}
	}
	return Redirect{}
}

// BranchOp returns the ALU op and inversion used to evaluate cc.
func BranchOp(cc insts.Cond) (insts.AluOp, bool) {
	switch cc {
	case insts.CondEQ:
		return insts.AluADD, false
	case insts.CondNE:
		return insts.AluADD, true
	case insts.CondLT:
		return insts.AluSLT, true
	case insts.CondGE:
		return insts.AluSLT, false
	case insts.CondLTU:
		return insts.AluSLTU, true
	case insts.CondGEU:
		return insts.AluSLTU, false
	}
	return insts.AluADD, false
}
