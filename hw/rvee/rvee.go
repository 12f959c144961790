// Package rvee holds behavioral models of the rvee pipeline stages. Each
// stage registers its output, so ready towards the previous stage depends
// only on state and never on the ready it receives.
package rvee

import "fmt"

// Fault selects an injected design bug.
type Fault int

// Injectable faults. Each one only affects the stage it names.
const (
	FaultNone Fault = iota

	// FaultFetchNoFlush keeps the buffered instruction across a redirect.
	FaultFetchNoFlush

	// FaultFetchKeepStale delivers the read that was in flight when the
	// redirect arrived.
	FaultFetchKeepStale

	// FaultDecodeNoSext zero-extends I and S immediates.
	FaultDecodeNoSext

	// FaultDecodeBranchSense swaps the inversion of the signed compares.
	FaultDecodeBranchSense

	// FaultExecSltOverflow takes the signed compare from the adder sign
	// even when the operand signs differ.
	FaultExecSltOverflow

	// FaultExecNoSquash lets the payload behind a redirect through.
	FaultExecNoSquash

	// FaultMemNoSext zero-extends every load.
	FaultMemNoSext

	// FaultMemLane drives store data in lane zero regardless of address.
	FaultMemLane
)

var faultNames = map[string]Fault{
	"none":                FaultNone,
	"fetch-no-flush":      FaultFetchNoFlush,
	"fetch-keep-stale":    FaultFetchKeepStale,
	"decode-no-sext":      FaultDecodeNoSext,
	"decode-branch-sense": FaultDecodeBranchSense,
	"exec-slt-overflow":   FaultExecSltOverflow,
	"exec-no-squash":      FaultExecNoSquash,
	"mem-no-sext":         FaultMemNoSext,
	"mem-lane":            FaultMemLane,
}

// ParseFault maps a fault name to its selector.
func ParseFault(name string) (Fault, error) {
	f, ok := faultNames[name]
	if !ok {
		return FaultNone, fmt.Errorf("rvee: unknown fault %q", name)
	}
	return f, nil
}

// slot is a registered single-entry output with its valid/ready pair.
type slot[T any] struct {
	out   T
	valid bool
	ready bool
}

func (s *slot[T]) Out() (T, bool) {
	return s.out, s.valid
}

func (s *slot[T]) SetReady(ready bool) {
	s.ready = ready
}

// drain commits a transfer on this edge.
func (s *slot[T]) drain() {
	if s.valid && s.ready {
		s.valid = false
	}
}

func (s *slot[T]) fill(p T) {
	s.out = p
	s.valid = true
}

func (s *slot[T]) reset() {
	*s = slot[T]{}
}

// input is a driven valid/payload pair.
type input[T any] struct {
	in      T
	inValid bool
}

func (i *input[T]) SetInput(p T, valid bool) {
	i.in = p
	i.inValid = valid
}
