package bench

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/go-cmp/cmp"
)

var (
	// ErrDivergence marks a predicted value that differs from the device.
	ErrDivergence = errors.New("model divergence")

	// ErrDesync marks a lost match between producer and checker: queue
	// underflow or overflow, an exceeded drain bound, a handshake
	// violation or a misaligned access.
	ErrDesync = errors.New("protocol desynchronization")
)

// Divergence reports one failed comparison together with the state needed
// for a postmortem.
type Divergence struct {
	// Check names the comparison, e.g. "claim[3]".
	Check string

	// Cycle is the clock cycle the mismatch was sampled on.
	Cycle uint64

	Expected any
	Observed any

	// Diff is a field-by-field diff for structured payloads.
	Diff string

	// Context holds alternating keys and values describing the model and
	// device state at the time of the mismatch.
	Context []any
}

func (d *Divergence) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "cycle %d: %s: expected %v, observed %v",
		d.Cycle, d.Check, d.Expected, d.Observed)
	writeContext(&sb, d.Context)
	if d.Diff != "" {
		sb.WriteString("\n(-expected +observed):\n")
		sb.WriteString(d.Diff)
	}
	return sb.String()
}

// Unwrap makes errors.Is(err, ErrDivergence) hold.
func (d *Divergence) Unwrap() error {
	return ErrDivergence
}

// DesyncError reports a protocol desynchronization.
type DesyncError struct {
	Cycle  uint64
	Reason string

	// Err is the underlying cause, if any.
	Err error
}

func (e *DesyncError) Error() string {
	msg := fmt.Sprintf("cycle %d: %s", e.Cycle, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both ErrDesync and the cause.
func (e *DesyncError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrDesync}
	}
	return []error{ErrDesync, e.Err}
}

// Desync builds a DesyncError.
func Desync(cycle uint64, reason string, cause error) error {
	return &DesyncError{Cycle: cycle, Reason: reason, Err: cause}
}

// Expect returns a Divergence unless observed equals expected. kv is
// attached as context.
func Expect[T comparable](cycle uint64, check string, expected, observed T, kv ...any) error {
	if expected == observed {
		return nil
	}
	return &Divergence{
		Check:    check,
		Cycle:    cycle,
		Expected: expected,
		Observed: observed,
		Context:  kv,
	}
}

// ExpectHex is Expect for register values, formatted in hex.
func ExpectHex[T ~uint32 | ~uint64](cycle uint64, check string, expected, observed T, kv ...any) error {
	if expected == observed {
		return nil
	}
	return &Divergence{
		Check:    check,
		Cycle:    cycle,
		Expected: fmt.Sprintf("0x%x", uint64(expected)),
		Observed: fmt.Sprintf("0x%x", uint64(observed)),
		Context:  kv,
	}
}

// ExpectFields compares two structs with go-cmp and reports the diff.
func ExpectFields(cycle uint64, check string, expected, observed any, opts ...cmp.Option) error {
	if cmp.Equal(expected, observed, opts...) {
		return nil
	}
	return &Divergence{
		Check:    check,
		Cycle:    cycle,
		Expected: expected,
		Observed: observed,
		Diff:     cmp.Diff(expected, observed, opts...),
	}
}

func writeContext(sb *strings.Builder, kv []any) {
	for i := 0; i < len(kv); i += 2 {
		if i+1 < len(kv) {
			fmt.Fprintf(sb, "\n  %v=%v", kv[i], kv[i+1])
		} else {
			fmt.Fprintf(sb, "\n  %v", kv[i])
		}
	}
}
