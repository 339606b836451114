package poetcar

import (
	"math"

	env "github.com/samuelfneumann/gocar/environment"
	ts "github.com/samuelfneumann/gocar/timestep"
	"gonum.org/v1/gonum/mat"
)

// Reward shaping constants
const (
	// Forward progress
	ProgressScale   float64 = 10.0
	BackwardPenalty float64 = -100.0

	// Per-tick living bonus
	LivingBonus float64 = 1.0

	// One-time traversal bonuses per obstacle kind
	RampBonus float64 = 300.0
	HoleBonus float64 = 200.0
	BumpBonus float64 = 180.0

	// Stagnation: applied once the position history is full and its
	// bounding box is below the threshold on both axes
	StagnationThreshold float64 = 0.5
	StagnationPenalty   float64 = -20.0

	// Stability shaping: rewards modest forward speed, penalizes
	// excessive speed quadratically
	SpeedBonusScale   float64 = 0.5
	SpeedPenaltyScale float64 = 0.1

	// Terminal penalties
	HoleTerminalPenalty float64 = -50.0
	FellTerminalPenalty float64 = -100.0
)

// driveTask is a Task that computes its rewards from the internals of a
// car environment and that can be duplicated for cloned environments
type driveTask interface {
	env.Task
	registerEnv(*poetCar)
	cloneTask(seed uint64) driveTask
}

// Drive implements the open-ended task of driving the car as far along
// the course as possible. There is no goal state: the course is
// extended indefinitely ahead of the car, and episodes end when the car
// sinks into a hole, falls out of the world, or hits the step limit.
//
// Rewards are a sum of independent terms: scaled forward progress with
// a flat penalty for moving backward, a per-tick living bonus, one-time
// bonuses for clearing obstacles, a stagnation penalty when the car has
// barely moved over the recent position history, stability shaping on
// the forward velocity, and a terminal penalty when the episode ends in
// a hole or a fall.
type Drive struct {
	env.Starter
	stepLimit env.Ender
	cutoff    int

	env *poetCar
}

// NewDrive returns a new Drive task with starting states drawn from s.
// Episodes are cut off on the first step whose number exceeds cutoff.
func NewDrive(s env.Starter, cutoff int) *Drive {
	// The step exceeding the cutoff is the one marked Last, so the
	// limit sits one past the cutoff
	return &Drive{
		Starter:   s,
		stepLimit: env.NewStepLimit(cutoff + 1),
		cutoff:    cutoff,
	}
}

func (d *Drive) registerEnv(e *poetCar) {
	d.env = e
}

// cloneTask returns a fresh, unregistered Drive with the same starting
// state distribution and cutoff. A forkable Starter is forked with
// seed, so the copy draws starting states from its own stream and the
// two tasks may be used from separate goroutines.
func (d *Drive) cloneTask(seed uint64) driveTask {
	starter := d.Starter
	if s, ok := starter.(env.ForkableStarter); ok {
		starter = s.Fork(seed)
	}

	return &Drive{
		Starter:   starter,
		stepLimit: env.NewStepLimit(d.cutoff + 1),
		cutoff:    d.cutoff,
	}
}

// AtGoal always returns false: the course is open-ended and there is no
// state that completes the task
func (d *Drive) AtGoal(state mat.Matrix) bool {
	return false
}

// GetReward returns the reward for the current tick. The terms are
// computed from the registered environment's position history, obstacle
// sequence, and termination reason rather than from the argument
// vectors, since the observation alone does not carry the obstacle
// bookkeeping.
func (d *Drive) GetReward(state, action, nextState mat.Vector) float64 {
	e := d.env
	reward := 0.0

	if dx, ok := e.deltaX(); ok {
		reward += ProgressScale * dx
		if dx < 0 {
			reward += BackwardPenalty
		}
	}

	reward += LivingBonus
	reward += e.takeObstacleBonuses()

	if dx, dy, full := e.windowMovement(); full &&
		dx < StagnationThreshold && dy < StagnationThreshold {
		reward += StagnationPenalty
	}

	if len(e.history) >= 2 {
		vx := e.car.chassis.GetLinearVelocity().X
		reward += SpeedBonusScale*vx - SpeedPenaltyScale*vx*vx
	}

	switch e.doneReason {
	case ReasonHole:
		reward += HoleTerminalPenalty
	case ReasonFell:
		reward += FellTerminalPenalty
	}

	return reward
}

// End determines whether the current timestep is the last in the
// episode, marking it accordingly. Geometric termination takes
// precedence over the step limit.
func (d *Drive) End(t *ts.TimeStep) bool {
	if d.env.doneReason != ReasonNone {
		t.StepType = ts.Last
		t.SetEnd(ts.TerminalStateReached)
		return true
	}
	return d.stepLimit.End(t)
}

// RewardSpec returns the reward specification of the Task. Rewards are
// an unclamped sum of shaping terms and are unbounded.
func (d *Drive) RewardSpec() env.Spec {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{math.Inf(-1)})
	upperBound := mat.NewVecDense(1, []float64{math.Inf(1)})

	return env.NewSpec(shape, env.Reward, lowerBound, upperBound,
		env.Continuous)
}
