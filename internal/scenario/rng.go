package scenario

// Mulberry32 is a small 32-bit PRNG. Its output sequence for a given seed is
// fixed, so generated scenarios are reproducible across platforms.
type Mulberry32 struct {
	state uint32
}

// NewMulberry32 seeds a generator.
func NewMulberry32(seed uint32) *Mulberry32 {
	return &Mulberry32{state: seed}
}

// Next returns a float in [0, 1).
func (m *Mulberry32) Next() float64 {
	m.state += 0x6D2B79F5
	t := m.state
	t = (t ^ t>>15) * (t | 1)
	t ^= t + (t^t>>7)*(t|61)
	return float64(t^t>>14) / 4294967296
}

// Range returns a float in [lo, hi).
func (m *Mulberry32) Range(lo, hi float64) float64 {
	return lo + m.Next()*(hi-lo)
}

// IntRange returns an int in [lo, hi].
func (m *Mulberry32) IntRange(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	n := lo + int(m.Next()*float64(hi-lo+1))
	if n > hi {
		n = hi
	}
	return n
}
