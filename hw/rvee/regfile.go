package rvee

// RegFile is the RV32I integer register file. X[0] is hardwired to zero.
type RegFile struct {
	X [32]uint32
}

// ReadReg reads register reg. x0 and out-of-range registers read as 0.
func (r *RegFile) ReadReg(reg uint8) uint32 {
	if reg == 0 || reg >= 32 {
		return 0
	}
	return r.X[reg]
}

// WriteReg writes register reg. Writes to x0 are ignored.
func (r *RegFile) WriteReg(reg uint8, value uint32) {
	if reg == 0 || reg >= 32 {
		return
	}
	r.X[reg] = value
}
