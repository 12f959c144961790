package rvee

import (
	"github.com/sarchlab/rvbench/insts"
	ref "github.com/sarchlab/rvbench/rvee"
)

// Exec is an execute stage. A jump or taken branch squashes the next
// payload it accepts.
type Exec struct {
	input[ref.Decoded]
	slot[ref.Executed]

	fault    Fault
	redirect ref.Redirect
	squash   bool
}

// NewExec creates an execute stage.
func NewExec(fault Fault) *Exec {
	e := &Exec{fault: fault}
	e.Reset()
	return e
}

// Ready implements rvee.Input. A payload to be squashed is accepted even
// while the output is full.
func (e *Exec) Ready() bool {
	return !e.valid || e.squash
}

// Redirect returns the redirect registered with the current output.
func (e *Exec) Redirect() ref.Redirect {
	return e.redirect
}

// Reset implements bench.Device.
func (e *Exec) Reset() {
	e.slot.reset()
	e.input = input[ref.Decoded]{}
	e.redirect = ref.Redirect{}
	e.squash = false
}

// Step implements bench.Device.
func (e *Exec) Step() {
	ready := e.Ready()
	e.drain()
	if !e.inValid || !ready {
		return
	}
	if e.squash {
		e.squash = false
		return
	}

	x, r := e.execute(e.in)
	e.fill(x)
	e.redirect = r
	e.squash = r.Jmp && e.fault != FaultExecNoSquash
}

func (e *Exec) alu(d ref.Decoded) uint32 {
	sum, carry := ref.Adder(d.A, d.B, d.C)
	sh := d.B & 31

	var lt bool
	switch d.Op {
	case insts.AluADD:
		return sum
	case insts.AluSLT:
		lt = sum>>31 != 0
		if d.MsbXor && e.fault != FaultExecSltOverflow {
			lt = d.A>>31 != 0
		}
	case insts.AluSLTU:
		lt = !carry
	case insts.AluSLL:
		return d.A << sh
	case insts.AluXOR:
		return d.A ^ d.B
	case insts.AluSRL:
		if d.SRA {
			return uint32(int32(d.A) >> sh)
		}
		return d.A >> sh
	case insts.AluOR:
		return d.A | d.B
	case insts.AluAND:
		return d.A & d.B
	}

	if lt {
		return 1
	}
	return 0
}

func (e *Exec) execute(d ref.Decoded) (ref.Executed, ref.Redirect) {
	res := e.alu(d)
	x := ref.Executed{
		PC:       d.PC,
		RdWE:     d.RdWE,
		Rd:       d.Rd,
		Result:   res,
		MemLoad:  d.MemLoad,
		MemStore: d.MemStore,
		MemData:  d.JmpBase,
		MemSize:  d.MemSize,
		MemSext:  d.MemSext,
	}

	taken := d.Bcc && (res == 0) != d.BccN
	if !d.Jmp && !taken {
		return x, ref.Redirect{}
	}
	return x, ref.Redirect{Jmp: true, Base: d.JmpBase, Offset: d.JmpOffset}
}
