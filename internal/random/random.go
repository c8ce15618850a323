package random

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Source picks an index in [0, n). Implementations must be safe for
// concurrent use.
type Source interface {
	IntN(n int) int
}

type Locked struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// New returns a seeded source. A zero seed falls back to the current time.
func New(seed uint64) *Locked {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Locked{rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (l *Locked) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rnd.IntN(n)
}
