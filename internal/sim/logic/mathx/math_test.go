package mathx

import "testing"

func TestRollInRangeAndStable(t *testing.T) {
	for i := 0; i < 200; i++ {
		v := Roll(42, 7, i, 3, 9)
		if v < 0 || v >= 7 {
			t.Fatalf("roll out of range: %d", v)
		}
		if again := Roll(42, 7, i, 3, 9); again != v {
			t.Fatalf("roll not deterministic: got %d want %d", again, v)
		}
	}
	if got := Roll(1, 0, 1, 2, 3); got != 0 {
		t.Fatalf("roll with n=0: got %d want 0", got)
	}
}

func TestShuffleIsPermutation(t *testing.T) {
	xs := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	Shuffle(7, 1, len(xs), func(i, j int) { xs[i], xs[j] = xs[j], xs[i] })
	seen := map[int]bool{}
	for _, x := range xs {
		seen[x] = true
	}
	if len(seen) != 10 {
		t.Fatalf("shuffle lost elements: %v", xs)
	}
}

func TestClampInt(t *testing.T) {
	if got := ClampInt(5, 0, 3); got != 3 {
		t.Fatalf("clamp hi: got %d want 3", got)
	}
	if got := ClampInt(-2, 0, 3); got != 0 {
		t.Fatalf("clamp lo: got %d want 0", got)
	}
}
