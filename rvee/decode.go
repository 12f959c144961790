package rvee

import (
	"fmt"

	"github.com/sarchlab/rvbench/bench"
	"github.com/sarchlab/rvbench/insts"
)

type decodeEntry struct {
	kind insts.Kind
	iw   uint32
	want Decoded
}

// DecodeBench feeds random instructions of every kind into a decode stage
// and checks the control and operand fields each kind defines.
type DecodeBench struct {
	base
	dev   DecodeDevice
	queue *bench.MatchQueue[decodeEntry]
	drive *driver[FetchOut]
	sink  *sink[Decoded]
}

// NewDecodeBench creates a bench for dev seeded with seed.
func NewDecodeBench(cfg Config, dev DecodeDevice, seed uint64, opts ...Option) *DecodeBench {
	b := &DecodeBench{
		base:  newBase(cfg, seed, opts),
		dev:   dev,
		queue: bench.NewMatchQueue[decodeEntry]("DecodeQueue", cfg.QueueDepth),
	}
	b.drive = &driver[FetchOut]{in: dev, rng: b.rng, mask: cfg.DelayMask, gen: b.generate}
	b.sink = newSink[Decoded]("decode output", dev, b.rng, cfg.StallLimit)
	b.sink.gap = b.gap
	b.sink.pending = func() bool { return b.queue.Len() > 0 }
	b.sink.verify = b.verify
	return b
}

// Tick drives the next instruction, then drains the stage output.
func (b *DecodeBench) Tick(cycle uint64) error {
	if err := b.drive.tick(cycle); err != nil {
		return err
	}
	_, err := b.sink.tick(cycle)
	return err
}

func (b *DecodeBench) generate(cycle uint64) (FetchOut, error) {
	kind := insts.Kinds[b.rng.Intn(len(insts.Kinds))]
	pc := b.rng.Uint32() &^ 3

	iw, want, err := GenerateInstruction(b.rng, kind, pc)
	if err != nil {
		return FetchOut{}, err
	}
	if err := b.queue.Push(cycle, decodeEntry{kind: kind, iw: iw, want: want}); err != nil {
		return FetchOut{}, err
	}
	b.stats.Rounds++
	return FetchOut{PC: pc, IW: iw}, nil
}

func (b *DecodeBench) verify(cycle uint64, p Decoded) error {
	e, err := b.queue.Pop(cycle)
	if err != nil {
		return err
	}

	check := fmt.Sprintf("decode %v 0x%08x", e.kind, e.iw)
	if err := bench.ExpectFields(cycle, check, CheckedFields(e.kind, e.want), CheckedFields(e.kind, p)); err != nil {
		return err
	}
	b.stats.Checks++
	b.stats.Transfers++
	b.logger.Debug("decode", "cycle", cycle, "kind", e.kind, "pc", fmt.Sprintf("0x%08x", p.PC))
	return nil
}

// GenerateInstruction encodes a random instruction of kind at pc and
// predicts the fields of its decoded form that do not depend on register
// contents.
func GenerateInstruction(rng *bench.Rand, kind insts.Kind, pc uint32) (uint32, Decoded, error) {
	rd := rng.Uint32() & 31
	rs1 := rng.Uint32() & 31
	rs2 := rng.Uint32() & 31
	imm12 := rng.Uint32() & 0xfff

	d := Decoded{PC: pc, Rd: uint8(rd), Op: insts.AluADD}
	var (
		iw  uint32
		err error
	)

	switch kind {
	case insts.KindRALU:
		op := insts.AluOp(rng.Intn(8))
		alt := (op == insts.AluADD || op == insts.AluSRL) && rng.Bool()
		iw, err = insts.EncodeR(op, rd, rs1, rs2, alt)
		d.RdWE = true
		d.Op = op
		d.C = alt || op.IsCompare()
		d.SRA = alt

	case insts.KindIALU:
		op := insts.AluOp(rng.Intn(8))
		iw, err = insts.EncodeI(insts.OpcodeALUImm, uint32(op), rd, rs1, imm12)
		d.RdWE = true
		d.Op = op
		d.SRA = imm12&0x400 != 0
		d.B = insts.Sext(12, imm12)
		if op.IsCompare() {
			d.B = ^d.B
			d.C = true
		}

	case insts.KindLoad:
		size := uint32(rng.Intn(3))
		sext := size == insts.SizeWord || rng.Bool()
		funct3 := size
		if !sext {
			funct3 |= 4
		}
		iw, err = insts.EncodeI(insts.OpcodeLoad, funct3, rd, rs1, imm12)
		d.B = insts.Sext(12, imm12)
		d.MemLoad = true
		d.MemSize = uint8(size)
		d.MemSext = sext

	case insts.KindStore:
		size := uint32(rng.Intn(3))
		iw, err = insts.EncodeS(rs1, rs2, size, imm12)
		d.B = insts.Sext(12, imm12)
		d.MemStore = true
		d.MemSize = uint8(size)

	case insts.KindBranch:
		cc := insts.Conds[rng.Intn(len(insts.Conds))]
		off := rng.Masked(0x1ffe)
		iw, err = insts.EncodeB(rs1, rs2, cc, off)
		d.Op, d.BccN = BranchOp(cc)
		d.C = true
		d.Bcc = true
		d.JmpBase = pc
		d.JmpOffset = insts.Sext(13, off)

	case insts.KindJAL:
		off := rng.Masked(0x1ffffe)
		iw, err = insts.EncodeJ(rd, off)
		d.RdWE = true
		d.A = pc
		d.B = 4
		d.Jmp = true
		d.JmpBase = pc
		d.JmpOffset = insts.Sext(21, off)

	case insts.KindJALR:
		iw, err = insts.EncodeI(insts.OpcodeJALR, 0, rd, rs1, imm12)
		d.RdWE = true
		d.A = pc
		d.B = 4
		d.Jmp = true
		d.JmpOffset = insts.Sext(12, imm12)

	case insts.KindLUI, insts.KindAUIPC:
		imm := rng.Uint32() &^ 0xfff
		opcode := insts.OpcodeLUI
		if kind == insts.KindAUIPC {
			opcode = insts.OpcodeAUIPC
			d.A = pc
		}
		iw, err = insts.EncodeU(opcode, rd, imm)
		d.RdWE = true
		d.B = imm

	default:
		return 0, Decoded{}, fmt.Errorf("rvee: cannot generate %v", kind)
	}

	if err != nil {
		return 0, Decoded{}, fmt.Errorf("rvee: generate %v: %w", kind, err)
	}
	return iw, d, nil
}

// CheckedFields keeps the fields of d that are defined for kind
// regardless of register contents and zeroes the rest.
func CheckedFields(kind insts.Kind, d Decoded) Decoded {
	v := Decoded{
		PC:       d.PC,
		RdWE:     d.RdWE,
		Op:       d.Op,
		Jmp:      d.Jmp,
		Bcc:      d.Bcc,
		MemLoad:  d.MemLoad,
		MemStore: d.MemStore,
	}

	switch kind {
	case insts.KindRALU, insts.KindIALU, insts.KindLoad,
		insts.KindJAL, insts.KindJALR, insts.KindLUI, insts.KindAUIPC:
		v.Rd = d.Rd
	}

	switch kind {
	case insts.KindLUI, insts.KindAUIPC:
		v.A, v.B, v.C = d.A, d.B, d.C
	case insts.KindBranch:
		v.C, v.SRA, v.BccN = d.C, d.SRA, d.BccN
		v.JmpBase, v.JmpOffset = d.JmpBase, d.JmpOffset
	case insts.KindJAL:
		v.A, v.B, v.C = d.A, d.B, d.C
		v.JmpBase, v.JmpOffset = d.JmpBase, d.JmpOffset
	case insts.KindJALR:
		v.A, v.B, v.C = d.A, d.B, d.C
		v.JmpOffset = d.JmpOffset
	case insts.KindLoad:
		v.B, v.C = d.B, d.C
		v.MemSize, v.MemSext = d.MemSize, d.MemSext
	case insts.KindStore:
		v.B, v.C = d.B, d.C
		v.MemSize = d.MemSize
	case insts.KindIALU:
		v.B, v.C, v.SRA = d.B, d.C, d.SRA
	case insts.KindRALU:
		v.C, v.SRA = d.C, d.SRA
	}
	return v
}
