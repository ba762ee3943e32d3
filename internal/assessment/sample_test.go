package assessment

import "testing"

func TestSample(t *testing.T) {
	pool := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	got := Sample(pool, 4)
	if len(got) != 4 {
		t.Fatalf("len = %d, want 4", len(got))
	}
	seen := map[int]bool{}
	for _, v := range got {
		if seen[v] {
			t.Fatalf("duplicate %d in sample", v)
		}
		seen[v] = true
	}

	if all := Sample(pool, 50); len(all) != len(pool) {
		t.Fatalf("oversized sample len = %d, want %d", len(all), len(pool))
	}
	if all := Sample(pool, 0); len(all) != len(pool) {
		t.Fatalf("zero sample len = %d, want %d", len(all), len(pool))
	}
	for i, v := range pool {
		if v != i+1 {
			t.Fatalf("input pool was modified")
		}
	}
}
