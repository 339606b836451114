package poetcar

import (
	env "github.com/samuelfneumann/gocar/environment"
	ts "github.com/samuelfneumann/gocar/timestep"
	"gonum.org/v1/gonum/mat"
)

// Continuous implements the car environment with continuous actions.
// Actions are 2-dimensional (steering, throttle) pairs; each dimension
// is clipped to [-1, 1].
//
// Continuous implements the environment.Environment interface.
type Continuous struct {
	*poetCar
}

// NewContinuous returns a new car environment with continuous actions.
// The template is the initial obstacle configuration replayed at every
// reset; passing nil uses DefaultCourse.
func NewContinuous(task env.Task, template []ObstacleParams,
	discount float64, seed uint64) (*Continuous, ts.TimeStep) {
	if template == nil {
		template = DefaultCourse
	}
	p, step := newPoetCar(task, template, discount, seed)
	return &Continuous{p}, step
}

// ActionSpec returns the action specification of the environment
func (c *Continuous) ActionSpec() env.Spec {
	shape := mat.NewVecDense(2, nil)
	lowerBound := mat.NewVecDense(2, []float64{-1., -1.})
	upperBound := mat.NewVecDense(2, []float64{1., 1.})

	return env.NewSpec(shape, env.Action, lowerBound, upperBound,
		env.Continuous)
}

// Clone returns an independent copy of the environment whose simulation
// state matches this one at the moment of cloning. The clone's course
// generator draws from a stream seeded by seed.
func (c *Continuous) Clone(seed uint64) *Continuous {
	return &Continuous{c.poetCar.clone(seed)}
}
