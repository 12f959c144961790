package insts_test

import (
	"math/rand/v2"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rvbench/insts"
)

var _ = Describe("Decoder", func() {
	var decoder *insts.Decoder

	BeforeEach(func() {
		decoder = insts.NewDecoder()
	})

	Describe("ALU", func() {
		// addi x1, x5, 100 -> 0x06428093
		It("should encode and decode addi x1, x5, 100", func() {
			iw, err := insts.EncodeI(insts.OpcodeALUImm, uint32(insts.AluADD), 1, 5, 100)
			Expect(err).ToNot(HaveOccurred())
			Expect(iw).To(Equal(uint32(0x06428093)))

			inst := decoder.Decode(iw)
			Expect(inst.Kind).To(Equal(insts.KindIALU))
			Expect(inst.Format).To(Equal(insts.FormatI))
			Expect(inst.Rd).To(Equal(uint8(1)))
			Expect(inst.Rs1).To(Equal(uint8(5)))
			Expect(inst.Funct3).To(Equal(uint8(insts.AluADD)))
			Expect(inst.Imm).To(Equal(uint32(100)))
		})

		// add x3, x1, x2 -> 0x002081b3, sub -> 0x402081b3
		It("should encode add and sub", func() {
			iw, err := insts.EncodeR(insts.AluADD, 3, 1, 2, false)
			Expect(err).ToNot(HaveOccurred())
			Expect(iw).To(Equal(uint32(0x002081b3)))

			iw, err = insts.EncodeR(insts.AluADD, 3, 1, 2, true)
			Expect(err).ToNot(HaveOccurred())
			Expect(iw).To(Equal(uint32(0x402081b3)))

			inst := decoder.Decode(iw)
			Expect(inst.Kind).To(Equal(insts.KindRALU))
			Expect(inst.Alt).To(BeTrue())
			Expect(inst.Rs2).To(Equal(uint8(2)))
		})

		It("should reject an alternate encoding of xor", func() {
			_, err := insts.EncodeR(insts.AluXOR, 1, 2, 3, true)
			Expect(err).To(MatchError(insts.ErrEncoding))
		})
	})

	Describe("Memory", func() {
		// lw x6, -4(x2) -> 0xffc12303
		It("should decode a negative load offset", func() {
			iw, err := insts.EncodeI(insts.OpcodeLoad, insts.SizeWord, 6, 2, 0xffc)
			Expect(err).ToNot(HaveOccurred())
			Expect(iw).To(Equal(uint32(0xffc12303)))

			inst := decoder.Decode(iw)
			Expect(inst.Kind).To(Equal(insts.KindLoad))
			Expect(inst.Imm).To(Equal(uint32(0xfffffffc)))
		})

		// sw x7, 8(x2) -> 0x00712423
		It("should split the store immediate", func() {
			iw, err := insts.EncodeS(2, 7, insts.SizeWord, 8)
			Expect(err).ToNot(HaveOccurred())
			Expect(iw).To(Equal(uint32(0x00712423)))

			inst := decoder.Decode(iw)
			Expect(inst.Kind).To(Equal(insts.KindStore))
			Expect(inst.Rs1).To(Equal(uint8(2)))
			Expect(inst.Rs2).To(Equal(uint8(7)))
			Expect(inst.Imm).To(Equal(uint32(8)))
		})

		It("should reject doubleword stores", func() {
			_, err := insts.EncodeS(1, 2, 3, 0)
			Expect(err).To(MatchError(insts.ErrEncoding))
		})
	})

	Describe("Control transfer", func() {
		// beq x1, x2, 8 -> 0x00208463
		It("should encode a forward branch", func() {
			iw, err := insts.EncodeB(1, 2, insts.CondEQ, 8)
			Expect(err).ToNot(HaveOccurred())
			Expect(iw).To(Equal(uint32(0x00208463)))
		})

		// bne x1, x2, -4 -> 0xfe209ee3
		It("should encode and decode a backward branch", func() {
			iw, err := insts.EncodeB(1, 2, insts.CondNE, 0x1ffc)
			Expect(err).ToNot(HaveOccurred())
			Expect(iw).To(Equal(uint32(0xfe209ee3)))

			inst := decoder.Decode(iw)
			Expect(inst.Kind).To(Equal(insts.KindBranch))
			Expect(insts.Cond(inst.Funct3)).To(Equal(insts.CondNE))
			Expect(inst.Imm).To(Equal(uint32(0xfffffffc)))
		})

		It("should reject reserved conditions and odd offsets", func() {
			_, err := insts.EncodeB(1, 2, insts.Cond(2), 8)
			Expect(err).To(MatchError(insts.ErrEncoding))
			_, err = insts.EncodeB(1, 2, insts.CondEQ, 3)
			Expect(err).To(MatchError(insts.ErrEncoding))
		})

		// jal x1, 2048 -> 0x001000ef
		It("should encode jal", func() {
			iw, err := insts.EncodeJ(1, 0x800)
			Expect(err).ToNot(HaveOccurred())
			Expect(iw).To(Equal(uint32(0x001000ef)))

			inst := decoder.Decode(iw)
			Expect(inst.Kind).To(Equal(insts.KindJAL))
			Expect(inst.Imm).To(Equal(uint32(0x800)))
		})

		It("should carry rs1 in jalr", func() {
			iw, err := insts.EncodeI(insts.OpcodeJALR, 0, 1, 9, 0x10)
			Expect(err).ToNot(HaveOccurred())

			inst := decoder.Decode(iw)
			Expect(inst.Kind).To(Equal(insts.KindJALR))
			Expect(inst.Rs1).To(Equal(uint8(9)))
		})
	})

	Describe("Upper immediates", func() {
		// lui x5, 0x12345 -> 0x123452b7
		It("should encode lui", func() {
			iw, err := insts.EncodeU(insts.OpcodeLUI, 5, 0x12345000)
			Expect(err).ToNot(HaveOccurred())
			Expect(iw).To(Equal(uint32(0x123452b7)))
			Expect(decoder.Decode(iw).Imm).To(Equal(uint32(0x12345000)))
		})

		It("should reject low immediate bits", func() {
			_, err := insts.EncodeU(insts.OpcodeAUIPC, 5, 0x12345001)
			Expect(err).To(MatchError(insts.ErrEncoding))
		})
	})

	It("should recover every branch and jump offset", func() {
		r := rand.New(rand.NewPCG(7, 11))
		for i := 0; i < 1000; i++ {
			boff := r.Uint32() & 0x1ffe
			iw, err := insts.EncodeB(r.Uint32()&31, r.Uint32()&31, insts.CondGE, boff)
			Expect(err).ToNot(HaveOccurred())
			Expect(decoder.Decode(iw).Imm).To(Equal(insts.Sext(13, boff)))

			joff := r.Uint32() & 0x1ffffe
			iw, err = insts.EncodeJ(r.Uint32()&31, joff)
			Expect(err).ToNot(HaveOccurred())
			Expect(decoder.Decode(iw).Imm).To(Equal(insts.Sext(21, joff)))
		}
	})

	It("should leave unknown opcodes unclassified", func() {
		inst := decoder.Decode(0x0000007f)
		Expect(inst.Kind).To(Equal(insts.KindUnknown))
		Expect(inst.Format).To(Equal(insts.FormatUnknown))
	})
})
