// Package rng owns the process-wide random state of the run driver.
//
// Seeding happens exactly once per process, during Runner.Setup, so that two
// runs with the same effective seed draw identical random streams.
package rng

import (
	"math/rand"
	"sync"
)

var (
	mu     sync.Mutex
	source *rand.Rand
	seeded bool
	seed   int64
)

// SeedEverything (re)initializes the process-wide random source with the
// given seed. The run driver calls this once, before any model construction.
func SeedEverything(s int64) {
	mu.Lock()
	defer mu.Unlock()
	source = rand.New(rand.NewSource(s))
	seed = s
	seeded = true
}

// Seeded reports whether SeedEverything has been called, and with which seed.
func Seeded() (int64, bool) {
	mu.Lock()
	defer mu.Unlock()
	return seed, seeded
}

// Int63n draws from the process-wide source.
// Before SeedEverything, it draws from a zero-seeded source, deterministically.
func Int63n(n int64) int64 {
	mu.Lock()
	defer mu.Unlock()
	if source == nil {
		source = rand.New(rand.NewSource(0))
	}
	return source.Int63n(n)
}
