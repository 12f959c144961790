package rvee

import (
	"github.com/sarchlab/rvbench/bench"
	"github.com/sarchlab/rvbench/bus"
	"github.com/sarchlab/rvbench/insts"
)

// FetchOut is an instruction leaving the fetch stage.
type FetchOut struct {
	PC uint32
	IW uint32
}

// Redirect is a control transfer request. It is a one-cycle pulse towards
// the fetch stage and a registered output of the execute stage.
type Redirect struct {
	Jmp    bool
	Base   uint32
	Offset uint32
}

// Target returns the redirect destination.
func (r Redirect) Target() uint32 {
	return r.Base + r.Offset
}

// Decoded is an instruction leaving the decode stage.
type Decoded struct {
	PC   uint32
	RdWE bool
	Rd   uint8
	Op   insts.AluOp

	// A and B are the ALU operands. B is already inverted for
	// subtraction and compares, with C as the carry-in.
	A      uint32
	B      uint32
	C      bool
	MsbXor bool
	SRA    bool

	MemLoad  bool
	MemStore bool
	MemSize  uint8
	MemSext  bool

	// JmpBase carries the store data for stores.
	Jmp       bool
	JmpBase   uint32
	JmpOffset uint32
	Bcc       bool
	BccN      bool
}

// Executed is an instruction leaving the execute stage.
type Executed struct {
	PC     uint32
	RdWE   bool
	Rd     uint8
	Result uint32

	MemLoad  bool
	MemStore bool
	MemData  uint32
	MemSize  uint8
	MemSext  bool
}

// Writeback is the register write port pulse of the memory stage.
type Writeback struct {
	RdWE bool
	Rd   uint8
	Data uint32
}

// Input is the consumer face of a stage. SetInput drives the payload and
// valid for the next edge. Ready is registered and stable between edges.
type Input[T any] interface {
	SetInput(p T, valid bool)
	Ready() bool
}

// Output is the producer face of a stage. Out returns the registered
// payload and valid. SetReady drives ready for the next edge.
type Output[T any] interface {
	Out() (T, bool)
	SetReady(ready bool)
}

// FetchDevice is a fetch stage. It reads instructions through its port.
type FetchDevice interface {
	bench.Device
	Output[FetchOut]
	Port() *bus.Port
	SetRedirect(r Redirect)
}

// DecodeDevice is a decode stage.
type DecodeDevice interface {
	bench.Device
	Input[FetchOut]
	Output[Decoded]
}

// ExecDevice is an execute stage. Redirect is valid together with Out.
type ExecDevice interface {
	bench.Device
	Input[Decoded]
	Output[Executed]
	Redirect() Redirect
}

// MemDevice is a memory stage. It accesses data through its port and
// pulses Writeback for one cycle per register write.
type MemDevice interface {
	bench.Device
	Input[Executed]
	Port() *bus.Port
	Writeback() Writeback
}
