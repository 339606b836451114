// Package environment outlines the interfaces and structs needed to implement
// concrete environments
package environment

import (
	"github.com/samuelfneumann/gocar/timestep"
	"gonum.org/v1/gonum/mat"
)

// Starter implements a distribution of starting states and samples starting
// states for environments
type Starter interface {
	Start() mat.Vector
}

// ForkableStarter is a Starter that can produce an independent copy of
// itself drawing from its own stream. Tasks duplicated for cloned
// environments fork their Starters so that no stream is shared between
// environment instances.
type ForkableStarter interface {
	Starter
	Fork(seed uint64) Starter
}

// Ender determines when epsiodes end. Enders mark a TimeStep as the
// last in an episode by modifying its StepType and EndType fields.
type Ender interface {
	End(*timestep.TimeStep) bool
}

// Task implements the reward scheme for taking actions in some environment,
// as well as the starting states of the environment and the conditions
// under which episodes end
type Task interface {
	Starter
	Ender
	GetReward(state, action, nextState mat.Vector) float64
	AtGoal(state mat.Matrix) bool
	RewardSpec() Spec
}

// Environment implements a simulated environment, which includes a Task to
// complete
type Environment interface {
	Task
	Reset() timestep.TimeStep // Resets between episodes
	Step(action *mat.VecDense) (timestep.TimeStep, bool)
	DiscountSpec() Spec
	ObservationSpec() Spec
	ActionSpec() Spec
	CurrentTimeStep() timestep.TimeStep
}
