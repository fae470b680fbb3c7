package entropy

import "sync/atomic"

const golden = 0x9e3779b97f4a7c15

// CounterSource derives values from an internal counter that only ever
// advances. Output is reproducible for a given seed and call sequence, and
// structurally varied, but it is not cryptographically unpredictable.
type CounterSource struct {
	seed    uint64
	counter atomic.Uint64
}

func NewCounterSource(seed uint64) *CounterSource {
	return &CounterSource{seed: seed}
}

func (s *CounterSource) NextUint64() uint64 {
	n := s.counter.Add(1)
	return mix(s.seed + n*golden)
}

// Calls reports how many values have been drawn so far.
func (s *CounterSource) Calls() uint64 {
	return s.counter.Load()
}

// mix is the splitmix64 finalizer.
func mix(z uint64) uint64 {
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
