package service

import (
	"math/rand"
	"sync"
	"time"
)

// lockedRand is a *rand.Rand shared by concurrent quiz sessions.
type lockedRand struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func newLockedRand(seed int64) *lockedRand {
	return &lockedRand{rng: rand.New(rand.NewSource(seed))}
}

func newTimeSeededRand() *lockedRand {
	return newLockedRand(time.Now().UnixNano())
}

func (r *lockedRand) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Intn(n)
}

func (r *lockedRand) Shuffle(n int, swap func(i, j int)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rng.Shuffle(n, swap)
}

// sample draws k elements of pool without replacement, uniformly.
// It returns all of pool (shuffled) when pool has fewer than k elements.
func (r *lockedRand) sample(pool []string, k int) []string {
	out := append([]string(nil), pool...)
	if k > len(out) {
		k = len(out)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for i := 0; i < k; i++ {
		j := i + r.rng.Intn(len(out)-i)
		out[i], out[j] = out[j], out[i]
	}

	return out[:k]
}
