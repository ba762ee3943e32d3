package assessment

import "math/rand/v2"

// Sample shuffles the whole pool uniformly and returns the first n items.
// The shuffle is unseeded; results differ between runs. n <= 0 or n beyond
// the pool size returns the whole shuffled pool. The input is not modified.
func Sample[T any](pool []T, n int) []T {
	out := make([]T, len(pool))
	copy(out, pool)
	rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })

	if n <= 0 || n >= len(out) {
		return out
	}
	return out[:n]
}
