package bench

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/sarchlab/akita/v4/sim"
)

// DefaultFreq is the clock frequency used when none is configured.
const DefaultFreq = 100 * sim.MHz

// Clock drives a device and its scoreboard tasks one cycle at a time on an
// Akita serial engine.
type Clock struct {
	freq   sim.Freq
	device Device
	tasks  []Task
	logger *slog.Logger

	engine sim.Engine
	ctx    context.Context
	cycle  uint64
	limit  uint64
	err    error
	stop   bool
}

// ClockOption configures a Clock.
type ClockOption func(*Clock)

// WithFreq sets the clock frequency. It only affects simulated time.
func WithFreq(f sim.Freq) ClockOption {
	return func(c *Clock) {
		c.freq = f
	}
}

// WithLogger sets the logger for run start and stop messages.
func WithLogger(l *slog.Logger) ClockOption {
	return func(c *Clock) {
		c.logger = l
	}
}

// NewClock creates a clock for device.
func NewClock(device Device, opts ...ClockOption) *Clock {
	c := &Clock{
		freq:   DefaultFreq,
		device: device,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Add registers tasks. Tasks tick in the order they were added.
func (c *Clock) Add(tasks ...Task) {
	c.tasks = append(c.tasks, tasks...)
}

// Cycle returns the number of edges evaluated so far.
func (c *Clock) Cycle() uint64 {
	return c.cycle
}

// Stop ends the run cleanly after the current cycle. Tasks call it once
// they have seen enough.
func (c *Clock) Stop() {
	c.stop = true
}

// Run resets the device and clocks it until a task fails, the cycle limit
// is reached or ctx is done. A limit of zero runs until ctx is done.
// Cancellation is reported as ctx.Err().
func (c *Clock) Run(ctx context.Context, cycles uint64) error {
	c.engine = sim.NewSerialEngine()
	c.ctx = ctx
	c.limit = cycles
	c.cycle = 0
	c.err = nil
	c.stop = false

	c.logger.Info("clock starting", "limit", cycles, "freq", float64(c.freq))
	c.device.Reset()
	c.engine.Schedule(sim.NewEventBase(c.freq.Period(), c))

	if err := c.engine.Run(); err != nil {
		return fmt.Errorf("engine: %w", err)
	}

	c.logger.Info("clock stopped", "cycles", c.cycle, "err", c.err)
	return c.err
}

// Handle evaluates one cycle. It implements sim.Handler.
func (c *Clock) Handle(e sim.Event) error {
	c.device.Step()
	c.cycle++

	for _, t := range c.tasks {
		if err := t.Tick(c.cycle); err != nil {
			c.err = err
			return nil
		}
	}

	if c.stop || (c.limit != 0 && c.cycle >= c.limit) {
		return nil
	}
	if err := c.ctx.Err(); err != nil {
		c.err = err
		return nil
	}

	c.engine.Schedule(sim.NewEventBase(e.Time()+c.freq.Period(), c))
	return nil
}
