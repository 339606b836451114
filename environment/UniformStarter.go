package environment

import (
	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/stat/distmv"
)

// UniformStarter samples starting states uniformly from a set of
// per-feature intervals. Degenerate intervals (Min == Max) produce a
// fixed starting value for that feature.
type UniformStarter struct {
	features int
	bounds   []r1.Interval
	seed     uint64
	rand     *distmv.Uniform
}

// NewUniformStarter creates a new UniformStarter which samples
// starting states uniformly from bounds
func NewUniformStarter(bounds []r1.Interval, seed uint64) UniformStarter {
	source := rand.NewSource(seed)
	dist := distmv.NewUniform(bounds, source)

	b := make([]r1.Interval, len(bounds))
	copy(b, bounds)

	return UniformStarter{len(bounds), b, seed, dist}
}

// Start samples and returns a starting state
func (u UniformStarter) Start() mat.Vector {
	return mat.NewVecDense(u.features, u.rand.Rand(nil))
}

// Fork returns a new UniformStarter over the same bounds drawing from
// a fresh stream seeded by seed. The copy shares no state with u, so
// the two may be sampled from concurrently.
func (u UniformStarter) Fork(seed uint64) Starter {
	return NewUniformStarter(u.bounds, seed)
}
