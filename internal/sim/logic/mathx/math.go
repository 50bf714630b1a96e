package mathx

func AbsInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func MinInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func MaxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func mix64(z uint64) uint64 {
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// Hash3 mixes a seed with three integer keys (e.g. turn, object id, salt).
func Hash3(seed int64, a, b, c int) uint64 {
	ua := uint64(uint32(int32(a)))
	ub := uint64(uint32(int32(b)))
	uc := uint64(uint32(int32(c)))
	v := uint64(seed) ^ (ua * 0x9e3779b97f4a7c15) ^ (ub * 0xc2b2ae3d27d4eb4f) ^ (uc * 0xbf58476d1ce4e5b9)
	return mix64(v)
}

// Roll returns a deterministic value in [0, n) for the given keys. n <= 0 yields 0.
func Roll(seed int64, n, a, b, c int) int {
	if n <= 0 {
		return 0
	}
	return int(Hash3(seed, a, b, c) % uint64(n))
}

// Shuffle permutes n indices deterministically (Fisher-Yates over Hash3).
func Shuffle(seed int64, salt int, n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		j := int(Hash3(seed, salt, i, n) % uint64(i+1))
		swap(i, j)
	}
}
