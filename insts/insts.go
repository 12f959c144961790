// Package insts provides RV32I instruction definitions, encoding and
// decoding for the subset the rvee pipeline implements.
//
// The subset covers:
//   - Register and immediate ALU operations (ADD, SLL, SLT, SLTU, XOR, SRL/SRA, OR, AND, SUB)
//   - Loads and stores of bytes, halfwords and words
//   - Conditional branches (BEQ, BNE, BLT, BGE, BLTU, BGEU)
//   - Jumps (JAL, JALR) and upper immediates (LUI, AUIPC)
//
// Usage:
//
//	iw, _ := insts.EncodeI(insts.OpcodeALUImm, uint32(insts.AluADD), 1, 5, 100) // addi x1, x5, 100
//	inst := insts.NewDecoder().Decode(iw)
//	fmt.Printf("Kind: %v, Rd: %d, Rs1: %d, Imm: %d\n", inst.Kind, inst.Rd, inst.Rs1, int32(inst.Imm))
package insts

import "fmt"

// Opcode is the major opcode in bits [6:0].
type Opcode uint8

// RV32I major opcodes.
const (
	OpcodeLoad   Opcode = 0x03
	OpcodeALUImm Opcode = 0x13
	OpcodeAUIPC  Opcode = 0x17
	OpcodeStore  Opcode = 0x23
	OpcodeALU    Opcode = 0x33
	OpcodeLUI    Opcode = 0x37
	OpcodeBranch Opcode = 0x63
	OpcodeJALR   Opcode = 0x67
	OpcodeJAL    Opcode = 0x6f
)

// AluOp is the 3-bit ALU operation, equal to funct3 of ALU instructions.
type AluOp uint8

// ALU operations.
const (
	AluADD  AluOp = 0
	AluSLL  AluOp = 1
	AluSLT  AluOp = 2
	AluSLTU AluOp = 3
	AluXOR  AluOp = 4
	AluSRL  AluOp = 5 // SRA when the alternate bit is set
	AluOR   AluOp = 6
	AluAND  AluOp = 7
)

var aluNames = [...]string{"add", "sll", "slt", "sltu", "xor", "srl", "or", "and"}

func (op AluOp) String() string {
	if int(op) < len(aluNames) {
		return aluNames[op]
	}
	return fmt.Sprintf("AluOp(%d)", uint8(op))
}

// IsCompare reports whether op produces a less-than flag.
func (op AluOp) IsCompare() bool {
	return op == AluSLT || op == AluSLTU
}

// Cond is a branch condition, equal to funct3 of branch instructions.
type Cond uint8

// Branch conditions. Encodings 2 and 3 are reserved.
const (
	CondEQ  Cond = 0
	CondNE  Cond = 1
	CondLT  Cond = 4
	CondGE  Cond = 5
	CondLTU Cond = 6
	CondGEU Cond = 7
)

// Conds lists every valid branch condition.
var Conds = []Cond{CondEQ, CondNE, CondLT, CondGE, CondLTU, CondGEU}

// Valid reports whether c is a defined condition.
func (c Cond) Valid() bool {
	return c <= 7 && c != 2 && c != 3
}

func (c Cond) String() string {
	switch c {
	case CondEQ:
		return "eq"
	case CondNE:
		return "ne"
	case CondLT:
		return "lt"
	case CondGE:
		return "ge"
	case CondLTU:
		return "ltu"
	case CondGEU:
		return "geu"
	default:
		return fmt.Sprintf("Cond(%d)", uint8(c))
	}
}

// Format is an instruction encoding format.
type Format uint8

// Instruction formats.
const (
	FormatUnknown Format = iota
	FormatR
	FormatI
	FormatS
	FormatB
	FormatU
	FormatJ
)

// Kind classifies instructions by how the pipeline treats them.
type Kind uint8

// Instruction kinds.
const (
	KindUnknown Kind = iota
	KindRALU
	KindIALU
	KindLoad
	KindStore
	KindBranch
	KindJAL
	KindJALR
	KindLUI
	KindAUIPC
)

// Kinds lists every known kind.
var Kinds = []Kind{
	KindRALU, KindIALU, KindLoad, KindStore, KindBranch,
	KindJAL, KindJALR, KindLUI, KindAUIPC,
}

var kindNames = [...]string{
	"unknown", "r-alu", "i-alu", "load", "store", "bcc", "jal", "jalr", "lui", "auipc",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Memory access sizes, encoded as log2 of the byte count.
const (
	SizeByte = 0
	SizeHalf = 1
	SizeWord = 2
)

// Sext sign-extends the low width bits of v.
func Sext(width uint, v uint32) uint32 {
	if width == 0 || width >= 32 {
		return v
	}
	sign := uint32(1) << (width - 1)
	v &= 1<<width - 1
	if v&sign != 0 {
		v |= ^(1<<width - 1)
	}
	return v
}

// SizeMask returns the data mask of a memory access of size.
func SizeMask(size uint8) uint32 {
	if size >= SizeWord {
		return 0xffffffff
	}
	return 1<<(8<<size) - 1
}
