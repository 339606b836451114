package poetcar

import (
	"fmt"

	env "github.com/samuelfneumann/gocar/environment"
	ts "github.com/samuelfneumann/gocar/timestep"
	"gonum.org/v1/gonum/mat"
)

// actions maps each discrete action to a (steering, throttle) pair.
// Steering varies in the outer position, throttle in the inner, each
// over {-1, 0, 1}.
var actions = [9][2]float64{
	{-1, -1}, // Steer left, reverse
	{-1, 0},  // Steer left, no acceleration
	{-1, 1},  // Steer left, forward
	{0, -1},  // No steering, reverse
	{0, 0},   // No steering, no acceleration
	{0, 1},   // No steering, forward
	{1, -1},  // Steer right, reverse
	{1, 0},   // Steer right, no acceleration
	{1, 1},   // Steer right, forward
}

// Discrete implements the car environment with a discrete action space
// of 9 actions, one per (steering, throttle) combination.
//
// Discrete implements the environment.Environment interface.
type Discrete struct {
	*poetCar
}

// NewDiscrete returns a new car environment with discrete actions. The
// template is the initial obstacle configuration replayed at every
// reset; passing nil uses DefaultCourse.
func NewDiscrete(task env.Task, template []ObstacleParams,
	discount float64, seed uint64) (*Discrete, ts.TimeStep) {
	if template == nil {
		template = DefaultCourse
	}
	p, step := newPoetCar(task, template, discount, seed)
	return &Discrete{p}, step
}

// ActionSpec returns the action specification of the environment
func (d *Discrete) ActionSpec() env.Spec {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{float64(MinDiscreteAction)})
	upperBound := mat.NewVecDense(1, []float64{float64(MaxDiscreteAction)})

	return env.NewSpec(shape, env.Action, lowerBound, upperBound,
		env.Discrete)
}

// Step takes one environmental step given the discrete action in the
// first element of action, which indexes the (steering, throttle)
// table. Actions outside [0, 8] panic.
func (d *Discrete) Step(action *mat.VecDense) (ts.TimeStep, bool) {
	a := int(action.AtVec(0))
	if a < MinDiscreteAction || a > MaxDiscreteAction {
		panic(fmt.Sprintf("step: illegal action selection, expected action "+
			"ϵ [%v, %v], received action = %v", MinDiscreteAction,
			MaxDiscreteAction, a))
	}

	pair := actions[a]
	return d.poetCar.Step(mat.NewVecDense(2, []float64{pair[0], pair[1]}))
}

// Clone returns an independent copy of the environment whose simulation
// state matches this one at the moment of cloning. The clone's course
// generator draws from a stream seeded by seed, so procedural
// generation diverges between the two after cloning. Cloning a
// terminated environment yields a terminated clone; Reset it before
// stepping if a fresh rollout is wanted.
func (d *Discrete) Clone(seed uint64) *Discrete {
	return &Discrete{d.poetCar.clone(seed)}
}
