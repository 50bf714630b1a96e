// Package meter holds the bounded counters used for every per-turn quantity
// (population, credits, fuel, hull, regard, ...).
package meter

import "math"

// Meter is a bounded integer with a base (committed) value and a current
// (working) value. Adjustments move Current within [Min, Max]; UpdateAndReset
// commits Current as the new Base.
type Meter struct {
	base    int
	current int
	min     int
	max     int
}

const Unbounded = math.MaxInt32

func New(value, min, max int) Meter {
	m := Meter{min: min, max: max}
	v := m.clamp(value)
	m.base, m.current = v, v
	return m
}

// NewUnbounded is a meter with min 0 and no practical upper bound.
func NewUnbounded(value int) Meter { return New(value, 0, Unbounded) }

func (m *Meter) Base() int    { return m.base }
func (m *Meter) Current() int { return m.current }
func (m *Meter) Min() int     { return m.min }
func (m *Meter) Max() int     { return m.max }

// CurrentChange is the uncommitted movement since the last UpdateAndReset/Reset.
func (m *Meter) CurrentChange() int { return m.current - m.base }

func (m *Meter) IsMaximized() bool { return m.current >= m.max }
func (m *Meter) IsMinimized() bool { return m.current <= m.min }

func (m *Meter) clamp(v int) int {
	if v < m.min {
		return m.min
	}
	if v > m.max {
		return m.max
	}
	return v
}

// AdjustCurrent adds delta, clamped to the bounds, and returns the delta
// that was actually applied.
func (m *Meter) AdjustCurrent(delta int) int {
	before := m.current
	v := int64(m.current) + int64(delta)
	if v > math.MaxInt32 {
		v = math.MaxInt32
	} else if v < math.MinInt32 {
		v = math.MinInt32
	}
	m.current = m.clamp(int(v))
	return m.current - before
}

func (m *Meter) SetCurrent(v int) { m.current = m.clamp(v) }

// SetMax changes the upper bound and pulls Base/Current under it.
func (m *Meter) SetMax(v int) {
	m.max = v
	m.base = m.clamp(m.base)
	m.current = m.clamp(m.current)
}

func (m *Meter) SetMin(v int) {
	m.min = v
	m.base = m.clamp(m.base)
	m.current = m.clamp(m.current)
}

// Reset discards uncommitted changes.
func (m *Meter) Reset() { m.current = m.base }

// UpdateAndReset commits Current as the new Base.
func (m *Meter) UpdateAndReset() { m.base = m.current }

// Saturate sets Current and Base to Max.
func (m *Meter) Saturate() {
	m.current = m.max
	m.base = m.max
}

// Drain sets Current and Base to Min.
func (m *Meter) Drain() {
	m.current = m.min
	m.base = m.min
}
