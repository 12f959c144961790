package clint

// Model shadows the timer block: the free-running counter, the compare
// register and the software interrupt bit of every target.
type Model struct {
	rate    uint64
	mtime   uint64
	timecmp []uint64
	msip    []uint32
}

// NewModel creates a model for targets harts whose counter advances by
// rate every cycle.
func NewModel(targets int, rate uint64) *Model {
	return &Model{
		rate:    rate,
		timecmp: make([]uint64, targets),
		msip:    make([]uint32, targets),
	}
}

// Targets returns the number of targets.
func (m *Model) Targets() int {
	return len(m.timecmp)
}

// Mtime returns the predicted counter value.
func (m *Model) Mtime() uint64 {
	return m.mtime
}

// SetMtime shadows a completed write of the counter.
func (m *Model) SetMtime(v uint64) {
	m.mtime = v
}

// Advance predicts n clock cycles of counting.
func (m *Model) Advance(n uint64) {
	m.mtime += n * m.rate
}

// Timecmp returns the shadow of timecmp[t].
func (m *Model) Timecmp(t int) uint64 {
	return m.timecmp[t]
}

// SetTimecmp shadows a completed write of both halves of timecmp[t].
func (m *Model) SetTimecmp(t int, v uint64) {
	m.timecmp[t] = v
}

// Msip returns the shadow of the software interrupt register of t.
func (m *Model) Msip(t int) uint32 {
	return m.msip[t]
}

// SetMsip shadows a write of wdata. Only bit 0 is implemented.
func (m *Model) SetMsip(t int, wdata uint32) {
	m.msip[t] = wdata & 1
}

// TimerPending predicts the timer interrupt output of t.
func (m *Model) TimerPending(t int) bool {
	return m.mtime >= m.timecmp[t]
}
