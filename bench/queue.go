package bench

import (
	"fmt"

	"github.com/sarchlab/akita/v4/sim"
)

// MatchQueue carries predicted payloads from the generator to the checker
// in issue order. Pushing hands the payload over; popping takes it back.
type MatchQueue[T any] struct {
	buf sim.Buffer
}

// NewMatchQueue creates a queue holding at most capacity payloads. The
// name follows akita component naming: CamelCase, starting upper case.
func NewMatchQueue[T any](name string, capacity int) *MatchQueue[T] {
	return &MatchQueue[T]{
		buf: sim.NewBuffer(name, capacity),
	}
}

// Name returns the queue name.
func (q *MatchQueue[T]) Name() string {
	return q.buf.Name()
}

// Len returns the number of buffered payloads.
func (q *MatchQueue[T]) Len() int {
	return q.buf.Size()
}

// Push appends p. A full queue means the checker lost track of the device.
func (q *MatchQueue[T]) Push(cycle uint64, p T) error {
	if !q.buf.CanPush() {
		return Desync(cycle,
			fmt.Sprintf("%s overflow (capacity %d)", q.buf.Name(), q.buf.Capacity()), nil)
	}
	q.buf.Push(p)
	return nil
}

// Pop removes the oldest payload. An empty queue is an underflow.
func (q *MatchQueue[T]) Pop(cycle uint64) (T, error) {
	var zero T
	if q.buf.Size() == 0 {
		return zero, Desync(cycle, q.buf.Name()+" underflow", nil)
	}
	return q.buf.Pop().(T), nil
}

// Peek returns the oldest payload without removing it.
func (q *MatchQueue[T]) Peek() (T, bool) {
	var zero T
	if q.buf.Size() == 0 {
		return zero, false
	}
	return q.buf.Peek().(T), true
}

// PopUntil drops payloads until match holds for the head, then pops and
// returns that head. At most depth payloads may be dropped.
func (q *MatchQueue[T]) PopUntil(cycle uint64, depth int, match func(T) bool) (T, int, error) {
	dropped := 0
	for {
		p, err := q.Pop(cycle)
		if err != nil {
			return p, dropped, err
		}
		if match(p) {
			return p, dropped, nil
		}
		dropped++
		if dropped > depth {
			return p, dropped, Desync(cycle,
				fmt.Sprintf("%s: stale drain exceeded depth %d", q.buf.Name(), depth), nil)
		}
	}
}

// DropWhile drops head payloads for which stale holds, at most depth of
// them. It returns the number dropped.
func (q *MatchQueue[T]) DropWhile(cycle uint64, depth int, stale func(T) bool) (int, error) {
	dropped := 0
	for {
		p, ok := q.Peek()
		if !ok || !stale(p) {
			return dropped, nil
		}
		if dropped == depth {
			return dropped, Desync(cycle,
				fmt.Sprintf("%s: stale drain exceeded depth %d", q.buf.Name(), depth), nil)
		}
		q.buf.Pop()
		dropped++
	}
}

// Clear drops every payload.
func (q *MatchQueue[T]) Clear() {
	q.buf.Clear()
}
