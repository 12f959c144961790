// Package rvee verifies the stages of a five-stage RV32I pipeline against
// reference models, one stage at a time.
//
// Every bench surrounds its stage with a driver that feeds random but
// legal payloads through the valid/ready handshake, a match queue of
// predictions and a checker that drains the stage output with random
// ready gaps. Fetch and memory benches also serve the bus port of the
// stage with random latency.
//
// A bench is a bench.Task. Add it to a bench.Clock built for the stage
// device and run the clock.
package rvee

import (
	"io"
	"log/slog"

	"github.com/sarchlab/rvbench/bench"
)

// Option configures a pipeline bench.
type Option func(*base)

// WithLogger sets the logger. Transfers log at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(b *base) {
		b.logger = l
	}
}

type base struct {
	cfg    Config
	rng    *bench.Rand
	logger *slog.Logger
	stats  bench.Stats
}

func newBase(cfg Config, seed uint64, opts []Option) base {
	b := base{
		cfg:    cfg,
		rng:    bench.NewRand(seed),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// Stats returns the activity counters.
func (b *base) Stats() bench.Stats {
	return b.stats
}

func (b *base) gap() uint32 {
	return b.rng.Masked(b.cfg.DelayMask)
}
