package rvee

import (
	"github.com/sarchlab/rvbench/insts"
	ref "github.com/sarchlab/rvbench/rvee"
)

// Decode is a decode stage with its own register file. Registers are
// written through SetReg; the stage itself never writes them.
type Decode struct {
	input[ref.FetchOut]
	slot[ref.Decoded]

	fault   Fault
	decoder *insts.Decoder
	regs    RegFile
}

// NewDecode creates a decode stage.
func NewDecode(fault Fault) *Decode {
	d := &Decode{fault: fault, decoder: insts.NewDecoder()}
	d.Reset()
	return d
}

// SetReg writes register r. Writes to x0 are ignored.
func (d *Decode) SetReg(r uint8, v uint32) {
	d.regs.WriteReg(r, v)
}

// Reg returns the value operands read from register r.
func (d *Decode) Reg(r uint8) uint32 {
	return d.regs.ReadReg(r)
}

// Ready implements rvee.Input.
func (d *Decode) Ready() bool {
	return !d.valid
}

// Reset implements bench.Device. Registers keep their values.
func (d *Decode) Reset() {
	d.slot.reset()
	d.input = input[ref.FetchOut]{}
}

// Step implements bench.Device.
func (d *Decode) Step() {
	ready := d.Ready()
	d.drain()
	if d.inValid && ready {
		d.fill(d.decode(d.in))
	}
}

func (d *Decode) imm(inst *insts.Instruction) uint32 {
	if d.fault == FaultDecodeNoSext && (inst.Format == insts.FormatI || inst.Format == insts.FormatS) {
		return inst.Imm & 0xfff
	}
	return inst.Imm
}

func (d *Decode) decode(f ref.FetchOut) ref.Decoded {
	inst := d.decoder.Decode(f.IW)
	rs1 := d.regs.ReadReg(inst.Rs1)
	rs2 := d.regs.ReadReg(inst.Rs2)

	out := ref.Decoded{PC: f.PC, Rd: inst.Rd, Op: insts.AluADD}
	orgB := uint32(0)

	switch inst.Kind {
	case insts.KindRALU:
		out.RdWE = true
		out.Op = insts.AluOp(inst.Funct3)
		out.A, orgB = rs1, rs2
		out.SRA = inst.Alt
		out.C = inst.Alt
		out.B = orgB
		if inst.Alt && out.Op == insts.AluADD {
			out.B = ^orgB
		}

	case insts.KindIALU:
		out.RdWE = true
		out.Op = insts.AluOp(inst.Funct3)
		out.A, orgB = rs1, d.imm(inst)
		out.B = orgB
		out.SRA = inst.Alt

	case insts.KindLoad:
		out.A, orgB = rs1, d.imm(inst)
		out.B = orgB
		out.MemLoad = true
		out.MemSize = inst.Funct3 & 3
		out.MemSext = inst.Funct3&4 == 0

	case insts.KindStore:
		out.A, orgB = rs1, d.imm(inst)
		out.B = orgB
		out.MemStore = true
		out.MemSize = inst.Funct3 & 3
		out.JmpBase = rs2

	case insts.KindBranch:
		out.Op, out.BccN = ref.BranchOp(insts.Cond(inst.Funct3))
		if d.fault == FaultDecodeBranchSense && out.Op == insts.AluSLT {
			out.BccN = !out.BccN
		}
		out.A, orgB = rs1, rs2
		out.B = ^orgB
		out.C = true
		out.Bcc = true
		out.JmpBase = f.PC
		out.JmpOffset = inst.Imm

	case insts.KindJAL, insts.KindJALR:
		out.RdWE = true
		out.A, orgB = f.PC, 4
		out.B = orgB
		out.Jmp = true
		out.JmpBase = f.PC
		if inst.Kind == insts.KindJALR {
			out.JmpBase = rs1
		}
		out.JmpOffset = inst.Imm

	case insts.KindLUI:
		out.RdWE = true
		out.B, orgB = inst.Imm, inst.Imm

	case insts.KindAUIPC:
		out.RdWE = true
		out.A = f.PC
		out.B, orgB = inst.Imm, inst.Imm
	}

	if out.Op.IsCompare() && !out.Bcc {
		out.B = ^orgB
		out.C = true
	}
	out.MsbXor = (out.A^orgB)>>31 != 0
	return out
}
