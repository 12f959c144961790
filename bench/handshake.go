package bench

import "fmt"

// HandshakeState is the monitor state of a valid/ready pair.
type HandshakeState int

// Handshake states.
const (
	Idle HandshakeState = iota
	ValidWaitReady
	Transferred
)

func (s HandshakeState) String() string {
	switch s {
	case Idle:
		return "idle"
	case ValidWaitReady:
		return "valid-wait-ready"
	case Transferred:
		return "transferred"
	default:
		return fmt.Sprintf("HandshakeState(%d)", int(s))
	}
}

// Handshake monitors a single-slot valid/ready transfer. While valid waits
// for ready the producer must hold valid and its payload stable.
type Handshake[T comparable] struct {
	name      string
	state     HandshakeState
	held      T
	transfers uint64
}

// NewHandshake creates a monitor in the idle state.
func NewHandshake[T comparable](name string) *Handshake[T] {
	return &Handshake[T]{name: name}
}

// State returns the current monitor state.
func (h *Handshake[T]) State() HandshakeState {
	return h.state
}

// Transfers returns the number of committed transfers.
func (h *Handshake[T]) Transfers() uint64 {
	return h.transfers
}

// Observe advances the monitor with the levels seen at one clock edge and
// reports whether a transfer commits on that edge.
func (h *Handshake[T]) Observe(cycle uint64, valid, ready bool, payload T) (bool, error) {
	if h.state == ValidWaitReady {
		if !valid {
			return false, Desync(cycle, h.name+": valid dropped before ready", nil)
		}
		if payload != h.held {
			return false, Desync(cycle, h.name+": payload changed while waiting for ready", nil)
		}
	}

	switch {
	case valid && ready:
		h.state = Transferred
		h.transfers++
		return true, nil
	case valid:
		h.state = ValidWaitReady
		h.held = payload
	default:
		h.state = Idle
	}
	return false, nil
}

// Flush returns the monitor to idle. Producers may withdraw valid when a
// redirect invalidates their payload.
func (h *Handshake[T]) Flush() {
	var zero T
	h.state = Idle
	h.held = zero
}
