// Package bench provides the shared infrastructure of the golden-model
// scoreboards: a discrete-event clock built on the Akita engine, the
// device and task contracts it drives, an in-order match queue, a
// valid/ready handshake monitor, seeded stimulus randomness and the error
// taxonomy every checker reports through.
//
// A run is single threaded. Each clock cycle the device evaluates one
// rising edge, then every task samples outputs and drives inputs for the
// next edge, in the order the tasks were added.
package bench

// Device is a clocked model under test.
type Device interface {
	// Reset puts the device into its reset state.
	Reset()

	// Step evaluates one rising clock edge using the inputs currently
	// driven.
	Step()
}

// Task is a cooperative participant in a run. Tick is called once per
// cycle after the device has stepped. A task that is waiting simply
// returns nil without acting.
type Task interface {
	Tick(cycle uint64) error
}

// TaskFunc adapts a function to Task.
type TaskFunc func(cycle uint64) error

// Tick calls f.
func (f TaskFunc) Tick(cycle uint64) error {
	return f(cycle)
}

// Stats counts scoreboard activity.
type Stats struct {
	// Rounds is the number of stimulus rounds or generated transactions.
	Rounds uint64

	// Checks is the number of comparisons that passed.
	Checks uint64

	// Transfers is the number of handshake transfers verified.
	Transfers uint64

	// Drained is the number of stale entries dropped without verification.
	Drained uint64

	// Benign is the number of benign model inconsistencies seen.
	Benign uint64
}
