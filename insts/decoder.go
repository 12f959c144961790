package insts

// Instruction represents a decoded RV32I instruction.
type Instruction struct {
	Opcode Opcode
	Format Format
	Kind   Kind

	Rd     uint8 // Destination register
	Rs1    uint8 // First source register
	Rs2    uint8 // Second source register
	Funct3 uint8 // ALU op, branch condition or memory size/sign
	Alt    bool  // bit 30: SUB/SRA select

	// Imm is the sign-extended immediate. U-type immediates keep their
	// position in bits [31:12].
	Imm uint32
}

// Decoder decodes RV32I machine code into instructions.
type Decoder struct{}

// NewDecoder creates a new RV32I instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes a 32-bit instruction word. Unrecognized opcodes decode to
// KindUnknown.
func (d *Decoder) Decode(word uint32) *Instruction {
	inst := &Instruction{
		Opcode: Opcode(word & 0x7f),
		Rd:     uint8((word >> 7) & 0x1f),  // bits [11:7]
		Funct3: uint8((word >> 12) & 0x7),  // bits [14:12]
		Rs1:    uint8((word >> 15) & 0x1f), // bits [19:15]
		Rs2:    uint8((word >> 20) & 0x1f), // bits [24:20]
		Alt:    (word>>30)&1 == 1,
	}

	switch inst.Opcode {
	case OpcodeALU:
		inst.Format = FormatR
		inst.Kind = KindRALU
	case OpcodeALUImm:
		inst.Format = FormatI
		inst.Kind = KindIALU
		inst.Imm = immI(word)
	case OpcodeLoad:
		inst.Format = FormatI
		inst.Kind = KindLoad
		inst.Imm = immI(word)
	case OpcodeJALR:
		inst.Format = FormatI
		inst.Kind = KindJALR
		inst.Imm = immI(word)
	case OpcodeStore:
		inst.Format = FormatS
		inst.Kind = KindStore
		inst.Imm = immS(word)
	case OpcodeBranch:
		inst.Format = FormatB
		inst.Kind = KindBranch
		inst.Imm = immB(word)
	case OpcodeLUI:
		inst.Format = FormatU
		inst.Kind = KindLUI
		inst.Imm = word &^ 0xfff
	case OpcodeAUIPC:
		inst.Format = FormatU
		inst.Kind = KindAUIPC
		inst.Imm = word &^ 0xfff
	case OpcodeJAL:
		inst.Format = FormatJ
		inst.Kind = KindJAL
		inst.Imm = immJ(word)
	default:
		inst.Format = FormatUnknown
		inst.Kind = KindUnknown
	}

	return inst
}

// immI extracts imm[11:0] from bits [31:20].
func immI(word uint32) uint32 {
	return Sext(12, word>>20)
}

// immS extracts imm[11:5] from bits [31:25] and imm[4:0] from bits [11:7].
func immS(word uint32) uint32 {
	return Sext(12, (word>>25)<<5|(word>>7)&0x1f)
}

// immB extracts imm[12|10:5] from bits [31:25] and imm[4:1|11] from
// bits [11:7].
func immB(word uint32) uint32 {
	imm := (word>>31)&1<<12 |
		(word>>7)&1<<11 |
		(word>>25)&0x3f<<5 |
		(word>>8)&0xf<<1
	return Sext(13, imm)
}

// immJ extracts imm[20|10:1|11|19:12] from bits [31:12].
func immJ(word uint32) uint32 {
	imm := (word>>31)&1<<20 |
		(word>>12)&0xff<<12 |
		(word>>20)&1<<11 |
		(word>>21)&0x3ff<<1
	return Sext(21, imm)
}
