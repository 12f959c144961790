package bus

import (
	"errors"
	"fmt"
)

// ErrPortBusy is returned when a device issues while a request is in flight.
var ErrPortBusy = errors.New("port busy")

// ErrNoRequest is returned when completing a port with nothing outstanding.
var ErrNoRequest = errors.New("no outstanding request")

// Request is one bus transaction issued by a device.
type Request struct {
	// Addr is the word-aligned address.
	Addr uint64

	// Write is true for stores.
	Write bool

	// Data is the store data, already shifted into its byte lanes.
	Data uint32

	// Size is the access size in bytes (1, 2 or 4).
	Size int

	// ByteEnable selects the written lanes, bit i for byte i.
	ByteEnable uint8
}

// Port is a master port with a single outstanding request. The device
// issues and later takes the response; the bench serves it in between.
type Port struct {
	req     Request
	pending bool
	done    bool
	rdata   uint32
}

// Issue starts a transaction.
func (p *Port) Issue(req Request) error {
	if p.pending {
		return ErrPortBusy
	}
	if err := CheckAligned(req.Addr); err != nil {
		return err
	}
	p.req = req
	p.pending = true
	p.done = false
	return nil
}

// Busy reports whether a request is issued and not yet taken back.
func (p *Port) Busy() bool {
	return p.pending
}

// Outstanding returns the request awaiting a response.
func (p *Port) Outstanding() (Request, bool) {
	if !p.pending || p.done {
		return Request{}, false
	}
	return p.req, true
}

// Complete responds to the outstanding request. rdata is ignored for writes.
func (p *Port) Complete(rdata uint32) error {
	if !p.pending || p.done {
		return fmt.Errorf("complete: %w", ErrNoRequest)
	}
	p.rdata = rdata
	p.done = true
	return nil
}

// Take collects a completed response and frees the port.
func (p *Port) Take() (uint32, bool) {
	if !p.pending || !p.done {
		return 0, false
	}
	p.pending = false
	p.done = false
	return p.rdata, true
}

// Reset drops any in-flight request.
func (p *Port) Reset() {
	*p = Port{}
}
