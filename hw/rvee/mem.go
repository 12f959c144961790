package rvee

import (
	"github.com/sarchlab/rvbench/bus"
	"github.com/sarchlab/rvbench/insts"
	ref "github.com/sarchlab/rvbench/rvee"
)

// Mem is a memory stage with a single access in flight. Loads write back
// when their response arrives; other register writes go out on the edge
// after the payload is accepted.
type Mem struct {
	input[ref.Executed]

	fault Fault
	port  bus.Port
	busy  bool
	cur   ref.Executed
	wb    ref.Writeback
}

// NewMem creates a memory stage.
func NewMem(fault Fault) *Mem {
	m := &Mem{fault: fault}
	m.Reset()
	return m
}

// Port returns the data port.
func (m *Mem) Port() *bus.Port {
	return &m.port
}

// Ready implements rvee.Input.
func (m *Mem) Ready() bool {
	return !m.busy
}

// Writeback returns the register write of the last edge.
func (m *Mem) Writeback() ref.Writeback {
	return m.wb
}

// Reset implements bench.Device.
func (m *Mem) Reset() {
	m.input = input[ref.Executed]{}
	m.port.Reset()
	m.busy = false
	m.cur = ref.Executed{}
	m.wb = ref.Writeback{}
}

// Step implements bench.Device.
func (m *Mem) Step() {
	m.wb = ref.Writeback{}

	if m.busy {
		rdata, ok := m.port.Take()
		if !ok {
			return
		}
		m.busy = false
		if m.cur.MemLoad {
			m.wb = ref.Writeback{RdWE: true, Rd: m.cur.Rd, Data: m.load(rdata)}
		}
		return
	}

	if !m.inValid {
		return
	}
	x := m.in
	if !x.MemLoad && !x.MemStore {
		if x.RdWE {
			m.wb = ref.Writeback{RdWE: true, Rd: x.Rd, Data: x.Result}
		}
		return
	}

	lane := x.Result & 3
	req := bus.Request{
		Addr:       uint64(x.Result &^ 3),
		Write:      x.MemStore,
		Size:       1 << x.MemSize,
		ByteEnable: uint8(1<<(1<<x.MemSize)-1) << lane,
	}
	if x.MemStore {
		req.Data = x.MemData << (8 * lane)
		if m.fault == FaultMemLane {
			req.Data = x.MemData
		}
	}
	if err := m.port.Issue(req); err != nil {
		return
	}
	m.busy = true
	m.cur = x
}

func (m *Mem) load(rdata uint32) uint32 {
	lane := m.cur.Result & 3
	v := rdata >> (8 * lane) & insts.SizeMask(m.cur.MemSize)
	if m.cur.MemSext && m.fault != FaultMemNoSext {
		v = insts.Sext(8<<m.cur.MemSize, v)
	}
	return v
}
