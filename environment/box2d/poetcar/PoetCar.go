// Package poetcar provides a procedurally generated, physics-driven
// driving environment for open-ended learning. An agent drives a
// two-wheeled car along a course of ramps, holes, and bumps which is
// extended ahead of the car as it makes progress, so that the course
// and the agent can co-evolve. The environment supports deep cloning
// for population-based search: a clone owns a completely independent
// physics world whose state matches the source at the moment of
// cloning.
package poetcar

import (
	"fmt"
	"image/color"
	"math"

	"github.com/ByteArena/box2d"
	env "github.com/samuelfneumann/gocar/environment"
	ts "github.com/samuelfneumann/gocar/timestep"
	"github.com/samuelfneumann/gocar/utils/floatutils"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

// controlRange bounds each dimension of the (steering, throttle)
// control pair
var controlRange = r1.Interval{Min: -1, Max: 1}

const (
	// Rendering scale
	PPM     float64 = 20.0 // pixels per metre
	ScreenW float64 = 800
	ScreenH float64 = 600

	// Physics
	FPS      float64 = 60
	StepTime float64 = 1.0 / FPS
	XGravity float64 = 0.0
	YGravity float64 = -17.0

	// CourseLength is the span of ground laid at reset
	CourseLength float64 = ScreenW / PPM * 40

	// Episode limits
	MaxEpisodeSteps int = 1000

	// Sensors
	NumSensors  int     = 5
	SensorRange float64 = 20.0
	SensorFan   float64 = math.Pi / 6 // half-angle of the forward fan

	// State observations: x, y, vx, vy, and one range per sensor
	StateObservations int = 4 + NumSensors

	// HistoryLength bounds the position history used for progress and
	// stagnation measurement
	HistoryLength int = 30

	// Default starting position of the chassis centre
	InitialX float64 = 10.0
	InitialY float64 = 2.2

	// Discrete actions env
	MinDiscreteAction int = 0
	MaxDiscreteAction int = 8
)

// DoneReason describes why an episode reached a terminal state
type DoneReason int

const (
	ReasonNone DoneReason = iota // episode still running
	ReasonHole                   // car sank into a hole
	ReasonFell                   // car fell below the world
)

func (r DoneReason) String() string {
	switch r {
	case ReasonHole:
		return "Hole"
	case ReasonFell:
		return "Fell"
	default:
		return "None"
	}
}

// DefaultCourse is the initial obstacle configuration laid out at every
// reset: one ramp, one hole, and one bump ahead of the spawn position
var DefaultCourse = []ObstacleParams{
	{Kind: Ramp, BaseX: 20, BaseY: 1, Width: 1, Height: 0.7, Colour: color.Black},
	{Kind: Hole, BaseX: 25, BaseY: 1, Width: 1, Height: 1, Colour: color.Black},
	{Kind: Bump, BaseX: 30, BaseY: 1, Width: 2, Height: 1, Colour: color.Black},
}

// poetCar implements the underlying car environment. The Discrete and
// Continuous structs embed a poetCar and expose the two action
// interfaces on top of it.
//
// Every poetCar exclusively owns its physics world, car, course, and
// episode counters. Nothing is shared between instances, so separate
// instances may be stepped from separate goroutines without locking.
type poetCar struct {
	env.Task

	world  box2d.B2World
	course *course
	car    *car

	// template is the initial obstacle configuration replayed at reset
	template []ObstacleParams

	doneReason DoneReason

	passed  map[int]struct{}
	history []box2d.B2Vec2

	cameraX, cameraY float64

	seed     uint64
	discount float64
	prevStep ts.TimeStep
}

// newPoetCar creates a new car environment with the given task,
// initial obstacle configuration, discount, and random seed. The seed
// drives all procedural course generation.
func newPoetCar(task env.Task, template []ObstacleParams, discount float64,
	seed uint64) (*poetCar, ts.TimeStep) {
	p := &poetCar{
		template: copyParams(template),
		seed:     seed,
		discount: discount,
	}

	if t, ok := task.(driveTask); ok {
		t.registerEnv(p)
		p.Task = t
	} else {
		p.Task = task
	}

	step := p.Reset()
	return p, step
}

// copyParams deep-copies an obstacle configuration
func copyParams(params []ObstacleParams) []ObstacleParams {
	out := make([]ObstacleParams, len(params))
	copy(out, params)
	return out
}

// Reset discards the world, car, course, and episode counters, then
// rebuilds the environment: a fresh car at the start position, the
// initial obstacle configuration replayed through the course
// generator, and perforated ground covering the full course length.
// The course generator is reseeded, so every episode of the same
// environment produces the same course under the same actions.
func (p *poetCar) Reset() ts.TimeStep {
	p.world = box2d.MakeB2World(box2d.B2Vec2{X: XGravity, Y: YGravity})
	p.course = newCourse(&p.world, p.seed)
	p.doneReason = ReasonNone
	p.passed = make(map[int]struct{})
	p.history = make([]box2d.B2Vec2, 0, HistoryLength)
	p.cameraX, p.cameraY = 0, 0

	start := p.Start()
	if err := validateStart(start); err != nil {
		panic(fmt.Sprintf("reset: %v", err))
	}
	p.car = newCar(&p.world, box2d.MakeB2Vec2(start.AtVec(0), start.AtVec(1)))

	for _, params := range p.template {
		if err := p.course.place(params); err != nil {
			panic(fmt.Sprintf("reset: %v", err))
		}
	}
	p.course.layGround(CourseLength)

	step := ts.New(ts.First, 0.0, p.discount, p.observe(), 0)
	p.prevStep = step
	return step
}

// Step advances the environment one tick. The action is a
// (steering, throttle) pair, each clipped to [-1, 1]. Step applies the
// motor targets, integrates the physics world by one fixed time step,
// updates the camera and position history, evaluates termination,
// computes the reward and observation, and finally gives the course
// generator the opportunity to extend the course. The returned boolean
// indicates whether this step ended the episode.
func (p *poetCar) Step(a *mat.VecDense) (ts.TimeStep, bool) {
	steer := floatutils.ClipInterval(a.AtVec(0), controlRange)
	throttle := floatutils.ClipInterval(a.AtVec(1), controlRange)
	p.car.setMotors(steer, throttle)

	p.world.Step(StepTime, 6, 2)
	p.world.ClearForces()

	p.updateCamera()
	p.pushHistory(p.car.chassis.GetPosition())
	p.doneReason = p.checkDone()

	state := p.observe()
	reward := p.GetReward(p.prevStep.Observation, a, state)
	step := ts.New(ts.Mid, reward, p.discount, state, p.prevStep.Number+1)
	p.End(&step)

	// Course extension never affects the reward or observation of the
	// current tick, only future ones
	if p.course.shouldExtend(p.car.chassis.GetPosition().X) {
		p.course.extend()
	}

	p.prevStep = step
	return step, step.Last()
}

// observe computes the observation vector: chassis position, chassis
// linear velocity, and the forward sensor fan ranges
func (p *poetCar) observe() *mat.VecDense {
	pos := p.car.chassis.GetPosition()
	vel := p.car.chassis.GetLinearVelocity()

	state := make([]float64, 0, StateObservations)
	state = append(state, pos.X, pos.Y, vel.X, vel.Y)
	state = append(state, p.car.lidar(NumSensors, SensorRange, -SensorFan,
		SensorFan)...)

	if len(state) != StateObservations {
		panic(fmt.Sprintf("observe: illegal number of state observations "+
			"\n\twant(%v) \n\thave(%v)", StateObservations, len(state)))
	}
	return mat.NewVecDense(StateObservations, state)
}

// checkDone evaluates the geometric termination conditions: sinking
// into a hole takes precedence over falling out of the world
func (p *poetCar) checkDone() DoneReason {
	pos := p.car.chassis.GetPosition()

	for _, o := range p.course.obstacles {
		if o.params.Kind != Hole {
			continue
		}
		if o.params.Left() <= pos.X && pos.X <= o.params.Right() &&
			pos.Y < 1 {
			return ReasonHole
		}
	}

	if pos.Y < 0 {
		return ReasonFell
	}
	return ReasonNone
}

// updateCamera recomputes the camera offset as the car position in
// screen coordinates, clamped to be non-negative. Used only by the
// renderer.
func (p *poetCar) updateCamera() {
	pos := p.car.chassis.GetPosition()
	p.cameraX = math.Max(0, pos.X*PPM-ScreenW/2)
	p.cameraY = math.Max(0, pos.Y*PPM-ScreenH/2)
}

// pushHistory appends pos to the bounded position history, evicting the
// oldest entry once capacity is exceeded
func (p *poetCar) pushHistory(pos box2d.B2Vec2) {
	if len(p.history) == HistoryLength {
		copy(p.history, p.history[1:])
		p.history[HistoryLength-1] = pos
		return
	}
	p.history = append(p.history, pos)
}

// deltaX returns the change in x position over the last two recorded
// positions. It reports false if fewer than two positions are recorded.
func (p *poetCar) deltaX() (float64, bool) {
	n := len(p.history)
	if n < 2 {
		return 0, false
	}
	return p.history[n-1].X - p.history[n-2].X, true
}

// windowMovement returns the extent of the bounding box of the recorded
// position history per axis. It reports false unless the history is at
// full capacity.
func (p *poetCar) windowMovement() (dx, dy float64, full bool) {
	if len(p.history) < HistoryLength {
		return 0, 0, false
	}

	xs := make([]float64, len(p.history))
	ys := make([]float64, len(p.history))
	for i, pos := range p.history {
		xs[i] = pos.X
		ys[i] = pos.Y
	}

	dx = floatutils.Max(xs...) - floatutils.Min(xs...)
	dy = floatutils.Max(ys...) - floatutils.Min(ys...)
	return dx, dy, true
}

// takeObstacleBonuses awards the one-time traversal bonus for every
// obstacle whose right edge the car has passed and which has not been
// awarded yet this episode, and marks those obstacles as passed
func (p *poetCar) takeObstacleBonuses() float64 {
	x := p.car.chassis.GetPosition().X

	total := 0.0
	for i, o := range p.course.obstacles {
		if _, awarded := p.passed[i]; awarded {
			continue
		}
		if o.params.Right() < x {
			switch o.params.Kind {
			case Ramp:
				total += RampBonus
			case Hole:
				total += HoleBonus
			case Bump:
				total += BumpBonus
			}
			p.passed[i] = struct{}{}
		}
	}
	return total
}

// DoneReason returns why the current episode terminated, or ReasonNone
// if it has not terminated geometrically. Episodes cut off by the step
// limit report ReasonNone.
func (p *poetCar) DoneReason() DoneReason {
	return p.doneReason
}

// Obstacles returns a copy of the parameters of every obstacle
// currently on the course, in spatial order
func (p *poetCar) Obstacles() []ObstacleParams {
	return p.course.params()
}

// CurrentTimeStep returns the TimeStep most recently returned by Step
// or Reset
func (p *poetCar) CurrentTimeStep() ts.TimeStep {
	return p.prevStep
}

// ObservationSpec returns the observation specification of the
// environment. Observations are unbounded.
func (p *poetCar) ObservationSpec() env.Spec {
	shape := mat.NewVecDense(StateObservations, nil)

	bounds := make([]float64, StateObservations)
	for i := range bounds {
		bounds[i] = math.Inf(1)
	}
	upperBound := mat.NewVecDense(StateObservations, bounds)

	bounds = make([]float64, StateObservations)
	for i := range bounds {
		bounds[i] = math.Inf(-1)
	}
	lowerBound := mat.NewVecDense(StateObservations, bounds)

	return env.NewSpec(shape, env.Observation, lowerBound, upperBound,
		env.Continuous)
}

// DiscountSpec returns the discounting specification of the environment
func (p *poetCar) DiscountSpec() env.Spec {
	shape := mat.NewVecDense(1, nil)
	bound := mat.NewVecDense(1, []float64{p.discount})

	return env.NewSpec(shape, env.Discount, bound, bound, env.Continuous)
}

// clone builds a fully independent copy of the environment through the
// normal construction path. The copy is value-equal to the source: same
// car pose and motion, same obstacle sequence, same episode counters,
// position history, and passed-obstacle set. The copy owns entirely new
// physics objects, and its course generator and starting-state
// distribution draw from streams seeded by seed, so the copy shares no
// stream with the source and generation diverges after cloning.
func (p *poetCar) clone(seed uint64) *poetCar {
	t, ok := p.Task.(driveTask)
	if !ok {
		panic("clone: task does not support cloning")
	}

	c, _ := newPoetCar(t.cloneTask(seed), p.template, p.discount, seed)

	// Reset replayed the initial configuration and laid the ground, in
	// the same order the source's world was built. Replay the obstacles
	// generated since then so the courses match.
	for _, params := range p.course.params()[len(c.course.obstacles):] {
		if err := c.course.place(params); err != nil {
			panic(fmt.Sprintf("clone: %v", err))
		}
	}

	c.car.matchState(p.car)
	c.doneReason = p.doneReason
	c.cameraX, c.cameraY = p.cameraX, p.cameraY

	c.history = make([]box2d.B2Vec2, len(p.history), HistoryLength)
	copy(c.history, p.history)

	for i := range p.passed {
		c.passed[i] = struct{}{}
	}

	c.prevStep = p.prevStep
	c.prevStep.Observation = mat.VecDenseCopyOf(p.prevStep.Observation)

	return c
}

func (p *poetCar) String() string {
	pos := p.car.chassis.GetPosition()
	return fmt.Sprintf("PoetCar  |  Position: (%.2f, %.2f)  |  Obstacles: %v",
		pos.X, pos.Y, len(p.course.obstacles))
}

// validateStart validates a starting state sampled from a Starter
func validateStart(state mat.Vector) error {
	if state.Len() != 2 {
		return fmt.Errorf("starting states should be 2-dimensional")
	}

	x := state.AtVec(0)
	if x < 0 || x > CourseLength {
		return fmt.Errorf("x position out of bounds, expected x ϵ [%v, %v] "+
			"but got x = %v", 0.0, CourseLength, x)
	}

	if y := state.AtVec(1); y <= 0 {
		return fmt.Errorf("y position must be positive but got y = %v", y)
	}
	return nil
}
