package insts

import (
	"errors"
	"fmt"
)

// ErrEncoding is returned for operands that do not fit their fields.
var ErrEncoding = errors.New("invalid instruction operand")

func checkRegs(regs ...uint32) error {
	for _, r := range regs {
		if r > 31 {
			return fmt.Errorf("%w: register x%d", ErrEncoding, r)
		}
	}
	return nil
}

// EncodeR encodes a register-register ALU instruction. alt selects SUB for
// ADD and SRA for SRL.
func EncodeR(op AluOp, rd, rs1, rs2 uint32, alt bool) (uint32, error) {
	if err := checkRegs(rd, rs1, rs2); err != nil {
		return 0, err
	}
	if op > AluAND {
		return 0, fmt.Errorf("%w: alu op %d", ErrEncoding, op)
	}
	if alt && op != AluADD && op != AluSRL {
		return 0, fmt.Errorf("%w: alternate encoding of %v", ErrEncoding, op)
	}

	iw := uint32(OpcodeALU) |
		rd<<7 |
		uint32(op)<<12 |
		rs1<<15 |
		rs2<<20
	if alt {
		iw |= 1 << 30
	}
	return iw, nil
}

// EncodeI encodes an I-type instruction. imm holds the raw 12-bit field.
func EncodeI(opcode Opcode, funct3, rd, rs1, imm uint32) (uint32, error) {
	if err := checkRegs(rd, rs1); err != nil {
		return 0, err
	}
	if imm&^0xfff != 0 {
		return 0, fmt.Errorf("%w: i-type immediate 0x%x", ErrEncoding, imm)
	}
	if funct3 > 7 {
		return 0, fmt.Errorf("%w: funct3 %d", ErrEncoding, funct3)
	}

	return uint32(opcode) |
		rd<<7 |
		funct3<<12 |
		rs1<<15 |
		imm<<20, nil
}

// EncodeS encodes a store of 1<<size bytes.
func EncodeS(rs1, rs2, size, imm uint32) (uint32, error) {
	if err := checkRegs(rs1, rs2); err != nil {
		return 0, err
	}
	if imm&^0xfff != 0 {
		return 0, fmt.Errorf("%w: s-type immediate 0x%x", ErrEncoding, imm)
	}
	if size > SizeWord {
		return 0, fmt.Errorf("%w: store size %d", ErrEncoding, size)
	}

	return uint32(OpcodeStore) |
		(imm&0x1f)<<7 |
		size<<12 |
		rs1<<15 |
		rs2<<20 |
		(imm>>5)<<25, nil
}

// EncodeB encodes a conditional branch. imm is the 13-bit byte offset.
func EncodeB(rs1, rs2 uint32, cc Cond, imm uint32) (uint32, error) {
	if err := checkRegs(rs1, rs2); err != nil {
		return 0, err
	}
	if imm&1 != 0 || imm&^0x1fff != 0 {
		return 0, fmt.Errorf("%w: branch offset 0x%x", ErrEncoding, imm)
	}
	if !cc.Valid() {
		return 0, fmt.Errorf("%w: %v", ErrEncoding, cc)
	}

	field := (imm>>11)&1<<7 |
		(imm>>1)&0xf<<8 |
		(imm>>5)&0x3f<<25 |
		(imm>>12)&1<<31
	return uint32(OpcodeBranch) |
		uint32(cc)<<12 |
		rs1<<15 |
		rs2<<20 |
		field, nil
}

// EncodeJ encodes JAL. imm is the 21-bit byte offset.
func EncodeJ(rd, imm uint32) (uint32, error) {
	if err := checkRegs(rd); err != nil {
		return 0, err
	}
	if imm&1 != 0 || imm&^0x1fffff != 0 {
		return 0, fmt.Errorf("%w: jump offset 0x%x", ErrEncoding, imm)
	}

	field := (imm>>12)&0xff |
		(imm>>11)&1<<8 |
		(imm>>1)&0x3ff<<9 |
		(imm>>20)&1<<19
	return uint32(OpcodeJAL) | rd<<7 | field<<12, nil
}

// EncodeU encodes LUI or AUIPC. imm is already in bits [31:12].
func EncodeU(opcode Opcode, rd, imm uint32) (uint32, error) {
	if err := checkRegs(rd); err != nil {
		return 0, err
	}
	if imm&0xfff != 0 {
		return 0, fmt.Errorf("%w: upper immediate 0x%x", ErrEncoding, imm)
	}

	return uint32(opcode) | rd<<7 | imm, nil
}
