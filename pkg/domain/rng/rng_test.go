package rng_test

import (
	"testing"

	"github.com/loom-ml/loom/pkg/domain/rng"
)

func TestSeedEverything(t *testing.T) {
	t.Run("same seed draws the same stream", func(t *testing.T) {
		rng.SeedEverything(42)
		a := []int64{}
		for i := 0; i < 8; i++ {
			a = append(a, rng.Int63n(1_000_000))
		}

		rng.SeedEverything(42)
		for i := 0; i < 8; i++ {
			if got := rng.Int63n(1_000_000); got != a[i] {
				t.Fatalf("draw %d: got %d, want %d", i, got, a[i])
			}
		}
	})

	t.Run("it records the applied seed", func(t *testing.T) {
		rng.SeedEverything(1234)
		seed, ok := rng.Seeded()
		if !ok {
			t.Fatal("not seeded, unexpectedly")
		}
		if seed != 1234 {
			t.Errorf("seed: got %d, want 1234", seed)
		}
	})
}
