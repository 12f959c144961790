package plic

import (
	"fmt"

	"github.com/sarchlab/rvbench/bench"
	"github.com/sarchlab/rvbench/signal"
)

const unclaimed = -1

// Model is the reference arbiter. It shadows every register written to the
// device plus the source levels the bench drives, and predicts the winning
// source of every target.
type Model struct {
	cfg Config

	level     *signal.Bits
	priority  []uint32
	enable    []*signal.Bits
	threshold []uint32
	claimedBy []int

	winner []uint32
	dirty  bool
}

// NewModel creates a model of a controller in its reset state.
func NewModel(cfg Config) *Model {
	m := &Model{
		cfg:       cfg,
		level:     signal.NewBits(cfg.Sources),
		priority:  make([]uint32, cfg.Sources),
		enable:    make([]*signal.Bits, cfg.Targets),
		threshold: make([]uint32, cfg.Targets),
		claimedBy: make([]int, cfg.Sources),
		winner:    make([]uint32, cfg.Targets),
	}
	for t := range m.enable {
		m.enable[t] = signal.NewBits(cfg.Sources)
	}
	for s := range m.claimedBy {
		m.claimedBy[s] = unclaimed
	}
	return m
}

// Levels returns the raw source levels. The bench drives the device
// inputs from them.
func (m *Model) Levels() *signal.Bits {
	return m.level
}

// ToggleSource inverts the raw level of src.
func (m *Model) ToggleSource(src int) {
	m.level.Toggle(src)
	m.dirty = true
}

// SetPriority shadows a write of wdata to priority[src].
func (m *Model) SetPriority(src int, wdata uint32) {
	m.priority[src] = wdata & m.cfg.MaxPrio
	m.dirty = true
}

// Priority returns the shadow of priority[src].
func (m *Model) Priority(src int) uint32 {
	return m.priority[src]
}

// SetEnableWord shadows a write of wdata to enable word w of target t.
func (m *Model) SetEnableWord(t, w int, wdata uint32) {
	m.enable[t].SetWord32(w, wdata)
	m.dirty = true
}

// EnableWord returns the shadow of enable word w of target t. Bits past
// the last source read as zero.
func (m *Model) EnableWord(t, w int) uint32 {
	return m.enable[t].Word32(w)
}

// SetThreshold shadows a write of wdata to the threshold of t.
func (m *Model) SetThreshold(t int, wdata uint32) {
	m.threshold[t] = wdata & m.cfg.MaxPrio
	m.dirty = true
}

// Threshold returns the shadow threshold of t.
func (m *Model) Threshold(t int) uint32 {
	return m.threshold[t]
}

// IsPending reports whether src is raised and not claimed.
func (m *Model) IsPending(src int) bool {
	return m.level.Get(src) && m.claimedBy[src] == unclaimed
}

// PendingWord packs IsPending for sources [32*w, 32*w+32).
func (m *Model) PendingWord(w int) uint32 {
	var v uint32
	for i := 0; i < 32; i++ {
		src := w*32 + i
		if src >= m.cfg.Sources {
			break
		}
		if m.IsPending(src) {
			v |= 1 << uint(i)
		}
	}
	return v
}

// ClaimedBy returns the target holding src.
func (m *Model) ClaimedBy(src int) (int, bool) {
	t := m.claimedBy[src]
	return t, t != unclaimed
}

// Update recomputes the winner of every target. The scan visits sources in
// id order and only a strictly higher priority displaces the current
// candidate, so equal priorities resolve to the lowest id. Targets start
// the scan at their threshold. Nothing changes if no state was modified
// since the last update.
func (m *Model) Update() {
	if !m.dirty {
		return
	}
	for t := range m.winner {
		id := uint32(0)
		best := m.threshold[t]
		en := m.enable[t]
		for s := 0; s < m.cfg.Sources; s++ {
			if m.priority[s] > best && en.Get(s) && m.IsPending(s) {
				id = uint32(s)
				best = m.priority[s]
			}
		}
		m.winner[t] = id
	}
	m.dirty = false
}

// Winner returns the predicted winner of t, or 0 if t should see no
// interrupt.
func (m *Model) Winner(t int) uint32 {
	m.Update()
	return m.winner[t]
}

// Claim checks that a claim read by target t returned the predicted winner
// and takes ownership of it. Claiming 0 claims nothing.
func (m *Model) Claim(cycle uint64, t int, observed uint32) error {
	expected := m.Winner(t)
	if err := bench.Expect(cycle, fmt.Sprintf("claim[%d]", t), expected, observed,
		"threshold", m.threshold[t],
		"priority", m.priorityOf(observed),
	); err != nil {
		return err
	}
	if observed != 0 {
		m.claimedBy[observed] = t
		m.dirty = true
	}
	return nil
}

// Complete releases src if t holds it. It reports false when t does not
// hold src; the device ignores such a completion.
func (m *Model) Complete(src, t int) bool {
	if src <= 0 || src >= m.cfg.Sources || m.claimedBy[src] != t {
		return false
	}
	m.claimedBy[src] = unclaimed
	m.dirty = true
	return true
}

func (m *Model) priorityOf(id uint32) any {
	if int(id) >= m.cfg.Sources {
		return "out of range"
	}
	return m.priority[id]
}
