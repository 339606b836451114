package agent

import (
	"golang.org/x/exp/rand"

	"github.com/samuelfneumann/gocar/timestep"
	"gonum.org/v1/gonum/mat"
)

// Random is a policy that selects uniformly among a fixed number of
// discrete actions, ignoring the state. It is useful as a baseline and
// for exercising environments.
type Random struct {
	numActions int
	rng        *rand.Rand
}

// NewRandom returns a new Random policy over numActions discrete
// actions
func NewRandom(numActions int, seed uint64) *Random {
	return &Random{
		numActions: numActions,
		rng:        rand.New(rand.NewSource(seed)),
	}
}

// SelectAction selects an action uniformly at random
func (r *Random) SelectAction(t timestep.TimeStep) *mat.VecDense {
	return mat.NewVecDense(1, []float64{float64(r.rng.Intn(r.numActions))})
}

// Eval is a no-op: Random explores identically in both modes
func (r *Random) Eval() {}

// Train is a no-op: Random explores identically in both modes
func (r *Random) Train() {}
