package bench

// Delay counts down idle cycles between stimulus actions.
type Delay struct {
	remaining uint32
}

// Start idles the next n ticks.
func (d *Delay) Start(n uint32) {
	d.remaining = n
}

// Tick consumes one cycle and reports whether the delay has expired, in
// which case the caller may act this cycle.
func (d *Delay) Tick() bool {
	if d.remaining > 0 {
		d.remaining--
		return false
	}
	return true
}

// Active reports whether idle cycles remain.
func (d *Delay) Active() bool {
	return d.remaining > 0
}

// Remaining returns the idle cycles left.
func (d *Delay) Remaining() uint32 {
	return d.remaining
}
