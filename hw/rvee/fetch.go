package rvee

import (
	"github.com/sarchlab/rvbench/bus"
	ref "github.com/sarchlab/rvbench/rvee"
)

// Fetch is a prefetching fetch stage with one buffered instruction and one
// read in flight.
type Fetch struct {
	slot[ref.FetchOut]

	fault    Fault
	vector   uint32
	port     bus.Port
	pc       uint32
	reqPC    uint32
	stale    bool
	redirect ref.Redirect
}

// NewFetch creates a fetch stage starting at resetVector.
func NewFetch(resetVector uint32, fault Fault) *Fetch {
	f := &Fetch{fault: fault, vector: resetVector}
	f.Reset()
	return f
}

// Port returns the instruction port.
func (f *Fetch) Port() *bus.Port {
	return &f.port
}

// SetRedirect drives the redirect pulse for the next edge.
func (f *Fetch) SetRedirect(r ref.Redirect) {
	f.redirect = r
}

// Reset implements bench.Device.
func (f *Fetch) Reset() {
	f.slot.reset()
	f.port.Reset()
	f.pc = f.vector
	f.reqPC = 0
	f.stale = false
	f.redirect = ref.Redirect{}
}

// Step implements bench.Device.
func (f *Fetch) Step() {
	f.drain()

	if f.redirect.Jmp {
		f.pc = f.redirect.Target()
		if f.fault != FaultFetchNoFlush {
			f.valid = false
		}
		if f.port.Busy() && f.fault != FaultFetchKeepStale {
			f.stale = true
		}
	}

	if !f.valid {
		if iw, ok := f.port.Take(); ok {
			if f.stale {
				f.stale = false
			} else {
				f.fill(ref.FetchOut{PC: f.reqPC, IW: iw})
			}
		}
	}

	if !f.port.Busy() {
		if err := f.port.Issue(bus.Request{Addr: uint64(f.pc), Size: 4, ByteEnable: 0xf}); err == nil {
			f.reqPC = f.pc
			f.pc += 4
		}
	}
}
