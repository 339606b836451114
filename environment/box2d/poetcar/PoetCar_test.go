package poetcar

import (
	"reflect"
	"testing"

	"github.com/ByteArena/box2d"
	environment "github.com/samuelfneumann/gocar/environment"
	ts "github.com/samuelfneumann/gocar/timestep"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

// Discrete actions used throughout the tests
const (
	noop    int = 4
	forward int = 5
)

// newTestEnv creates a discrete-action environment spawning at the
// default start position
func newTestEnv(seed uint64) *Discrete {
	starter := environment.NewUniformStarter([]r1.Interval{
		{Min: InitialX, Max: InitialX},
		{Min: InitialY, Max: InitialY},
	}, seed)
	task := NewDrive(starter, MaxEpisodeSteps)

	car, _ := NewDiscrete(task, nil, 0.99, seed)
	return car
}

// step takes a single discrete action in car
func step(car *Discrete, action int) (ts.TimeStep, bool) {
	return car.Step(mat.NewVecDense(1, []float64{float64(action)}))
}

// teleport moves the car wholesale to a chassis position of (x, y),
// keeping the wheels in their resting pose relative to the chassis and
// zeroing all velocities
func teleport(p *poetCar, x, y float64) {
	wheelY := y - (ChassisHeight/2 + WheelRadius)

	bodies := []*box2d.B2Body{p.car.chassis, p.car.wheelFront, p.car.wheelRear}
	positions := []box2d.B2Vec2{
		box2d.MakeB2Vec2(x, y),
		box2d.MakeB2Vec2(x+WheelDistance, wheelY),
		box2d.MakeB2Vec2(x-WheelDistance, wheelY),
	}

	for i, body := range bodies {
		body.SetTransform(positions[i], 0)
		body.SetLinearVelocity(box2d.MakeB2Vec2(0, 0))
		body.SetAngularVelocity(0)
	}
}

func TestDeterminism(t *testing.T) {
	car1 := newTestEnv(17)
	car2 := newTestEnv(17)

	for i := 0; i < 300; i++ {
		step1, done1 := step(car1, forward)
		step2, done2 := step(car2, forward)

		if done1 != done2 {
			t.Fatalf("step %v: one environment terminated and the other "+
				"did not", i)
		}
		if step1.Reward != step2.Reward {
			t.Fatalf("step %v: rewards differ: %v and %v", i, step1.Reward,
				step2.Reward)
		}
		if !mat.Equal(step1.Observation, step2.Observation) {
			t.Fatalf("step %v: observations differ:\n%v\n%v", i,
				mat.Formatted(step1.Observation.T()),
				mat.Formatted(step2.Observation.T()))
		}
		if done1 {
			break
		}
	}

	if !reflect.DeepEqual(car1.Obstacles(), car2.Obstacles()) {
		t.Error("identically seeded environments generated different " +
			"obstacle sequences")
	}
}

func TestResetReproducesCourse(t *testing.T) {
	car := newTestEnv(23)

	for i := 0; i < 300; i++ {
		if _, done := step(car, forward); done {
			break
		}
	}
	firstRun := car.Obstacles()

	car.Reset()
	for i := 0; i < 300; i++ {
		if _, done := step(car, forward); done {
			break
		}
	}
	secondRun := car.Obstacles()

	if !reflect.DeepEqual(firstRun, secondRun) {
		t.Error("reset should reproduce the same course under the same " +
			"actions")
	}
}

func TestFellTermination(t *testing.T) {
	car := newTestEnv(5)

	// Below the ground slabs, over no hole, so the car free-falls
	teleport(car.poetCar, 5, -3)

	timestep, done := step(car, noop)
	if !done {
		t.Fatal("car below the world should terminate the episode")
	}
	if car.DoneReason() != ReasonFell {
		t.Errorf("expected ReasonFell, got %v", car.DoneReason())
	}
	if timestep.End != ts.TerminalStateReached {
		t.Errorf("expected TerminalStateReached, got %v", timestep.End)
	}
	if timestep.Reward >= 0 {
		t.Errorf("falling out of the world should be penalized, got "+
			"reward %v", timestep.Reward)
	}
}

func TestHoleTermination(t *testing.T) {
	car := newTestEnv(5)

	// The default course has a hole spanning [25, 26]. Drop the car
	// into it below the surface.
	teleport(car.poetCar, 25.5, 0.5)

	timestep, done := step(car, noop)
	if !done {
		t.Fatal("car sunk into a hole should terminate the episode")
	}
	if car.DoneReason() != ReasonHole {
		t.Errorf("expected ReasonHole, got %v", car.DoneReason())
	}
	if timestep.End != ts.TerminalStateReached {
		t.Errorf("expected TerminalStateReached, got %v", timestep.End)
	}
}

func TestStepLimit(t *testing.T) {
	car := newTestEnv(11)

	for i := 1; i <= MaxEpisodeSteps+1; i++ {
		timestep, done := step(car, noop)

		if i <= MaxEpisodeSteps {
			if done {
				t.Fatalf("idle episode ended early at step %v", i)
			}
			continue
		}

		if !done {
			t.Fatalf("episode should be cut off at step %v", i)
		}
		if timestep.Number != MaxEpisodeSteps+1 {
			t.Errorf("expected final step number %v, got %v",
				MaxEpisodeSteps+1, timestep.Number)
		}
		if timestep.End != ts.Timeout {
			t.Errorf("expected Timeout, got %v", timestep.End)
		}
		if car.DoneReason() != ReasonNone {
			t.Errorf("a cut-off episode has no geometric termination, "+
				"got %v", car.DoneReason())
		}
	}
}

func TestForwardProgress(t *testing.T) {
	car := newTestEnv(29)
	idle := newTestEnv(29)

	// Let both cars settle onto the ground first
	for i := 0; i < 30; i++ {
		step(car, noop)
		step(idle, noop)
	}

	startX := car.poetCar.car.chassis.GetPosition().X
	prevX := startX

	forwardReturn, idleReturn := 0.0, 0.0
	for i := 0; i < 50; i++ {
		timestep, done := step(car, forward)
		forwardReturn += timestep.Reward

		idleStep, _ := step(idle, noop)
		idleReturn += idleStep.Reward

		x := car.poetCar.car.chassis.GetPosition().X
		if x < prevX-0.5 {
			t.Fatalf("step %v: full throttle drove the car backward from "+
				"%v to %v", i, prevX, x)
		}
		prevX = x

		if done {
			t.Fatalf("step %v: forward driving should not terminate here", i)
		}
	}

	if finalX := prevX; finalX <= startX {
		t.Errorf("full throttle should move the car forward, went from "+
			"%v to %v", startX, finalX)
	}
	if forwardReturn <= idleReturn {
		t.Errorf("forward driving should outearn idling, got %v against %v",
			forwardReturn, idleReturn)
	}
}

func TestLidar(t *testing.T) {
	car := newTestEnv(3)

	first := car.poetCar.car.lidar(NumSensors, SensorRange, -SensorFan,
		SensorFan)
	second := car.poetCar.car.lidar(NumSensors, SensorRange, -SensorFan,
		SensorFan)

	if len(first) != NumSensors {
		t.Fatalf("expected %v ranges, got %v", NumSensors, len(first))
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("repeated scans of a fixed world should return identical " +
			"ranges")
	}

	for i, r := range first {
		if r <= 0 || r > SensorRange {
			t.Errorf("sensor %v: range %v outside (0, %v]", i, r, SensorRange)
		}
	}

	// The downward-angled rays hit the ground well inside sensor range
	if first[0] >= SensorRange {
		t.Errorf("lowest ray should hit the ground, got range %v", first[0])
	}
}

func TestObservationShape(t *testing.T) {
	car := newTestEnv(7)

	timestep := car.CurrentTimeStep()
	if timestep.Observation.Len() != StateObservations {
		t.Errorf("expected %v observations, got %v", StateObservations,
			timestep.Observation.Len())
	}
	if !timestep.First() {
		t.Error("reset should produce a First timestep")
	}

	obs := timestep.Observation
	if obs.AtVec(0) != InitialX || obs.AtVec(1) != InitialY {
		t.Errorf("expected start position (%v, %v), got (%v, %v)",
			InitialX, InitialY, obs.AtVec(0), obs.AtVec(1))
	}
	if obs.AtVec(2) != 0 || obs.AtVec(3) != 0 {
		t.Error("car should start at rest")
	}
}

func TestIllegalActionPanics(t *testing.T) {
	car := newTestEnv(7)

	defer func() {
		if recover() == nil {
			t.Error("an out-of-range action should panic")
		}
	}()
	step(car, MaxDiscreteAction+1)
}

func TestCourseExtension(t *testing.T) {
	car := newTestEnv(13)

	initial := len(car.Obstacles())
	if initial != len(DefaultCourse) {
		t.Fatalf("expected the default %v obstacles at reset, got %v",
			len(DefaultCourse), initial)
	}

	// The last default obstacle ends at x = 32, so generation triggers
	// immediately past the trigger distance
	teleport(car.poetCar, 13, InitialY)
	step(car, noop)

	if len(car.Obstacles()) <= initial {
		t.Error("crossing the trigger distance should extend the course")
	}

	obstacles := car.Obstacles()
	last := obstacles[len(obstacles)-1]
	if last.Left() < obstacles[len(obstacles)-2].Right() {
		t.Error("a generated obstacle should lie beyond the previous " +
			"trailing edge")
	}
}
